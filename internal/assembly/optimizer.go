package assembly

import (
	"errors"

	"github.com/examforge/examforge-backend/internal/model"
)

// ErrInvalidLengthRange is returned when the optimizer bounds are
// inconsistent.
var ErrInvalidLengthRange = errors.New("invalid length range")

// OptimizeOptions bounds the length optimizer's scan.
type OptimizeOptions struct {
	MinLength       int     `json:"min_length"`
	MaxLength       int     `json:"max_length"`
	Step            int     `json:"step"`
	MaxBalanceScore float64 `json:"max_balance_score"`
}

// LengthResult reports the outcome of a length optimization scan.
// When Found is false, Length and Result describe the best-balanced
// candidate seen so the caller can still inspect why nothing passed.
type LengthResult struct {
	Found   bool    `json:"found"`
	Length  int     `json:"length"`
	Result  *Result `json:"result"`
	Scanned int     `json:"scanned"`
}

// OptimizeLength scans candidate test lengths from MinLength to
// MaxLength in Step increments and returns the shortest length at which
// every required constraint is satisfied and the balance score stays at
// or under MaxBalanceScore. A bounded linear scan, not a solver: each
// candidate is one ordinary Assemble run.
func OptimizeLength(pool []model.Question, constraints []model.Constraint, opts OptimizeOptions) (*LengthResult, error) {
	if opts.MinLength <= 0 {
		opts.MinLength = 10
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 50
	}
	if opts.Step <= 0 {
		opts.Step = 5
	}
	if opts.MaxLength < opts.MinLength {
		return nil, ErrInvalidLengthRange
	}

	scan := &LengthResult{}
	bestBalance := 2.0

	for length := opts.MinLength; length <= opts.MaxLength; length += opts.Step {
		result, err := Assemble(pool, constraints, length)
		if err != nil {
			return nil, err
		}
		scan.Scanned++

		if result.ConstraintsSatisfied && result.BalanceScore <= opts.MaxBalanceScore {
			scan.Found = true
			scan.Length = length
			scan.Result = result
			return scan, nil
		}

		if result.BalanceScore < bestBalance {
			bestBalance = result.BalanceScore
			scan.Length = length
			scan.Result = result
		}
	}

	return scan, nil
}
