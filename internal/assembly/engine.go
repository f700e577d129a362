package assembly

import (
	"errors"
	"fmt"
	"sort"

	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/tos"
)

// Validation errors returned by Assemble.
var (
	ErrNonPositiveTarget = errors.New("target count must be positive")
	ErrUnknownConstraint = errors.New("unknown constraint type")
)

// Result is the outcome of one assembly run. It is produced fresh per
// invocation and never mutated afterwards.
type Result struct {
	Selected             []model.Question `json:"selected"`
	Warnings             []string         `json:"warnings"`
	ConstraintsSatisfied bool             `json:"constraints_satisfied"`
	BalanceScore         float64          `json:"balance_score"`
	CoverageScore        float64          `json:"coverage_score"`
}

// bucketPlan tracks one distributional constraint during selection:
// ideal per-bucket counts, what remains unmet, and what was achieved.
type bucketPlan struct {
	constraint model.Constraint
	buckets    []string
	ideal      map[string]int
	remaining  map[string]int
	achieved   map[string]int
	requested  map[string]bool
	degraded   bool
}

// bucketKey returns the attribute of q that the constraint buckets on.
func (p *bucketPlan) bucketKey(q *model.Question) string {
	switch p.constraint.Type {
	case model.ConstraintDifficultyBalance:
		return string(q.Difficulty)
	case model.ConstraintBloomDistribution:
		return string(q.BloomLevel)
	case model.ConstraintTopicCoverage:
		return q.Topic
	}
	return ""
}

// Assemble selects up to targetCount questions from pool under the given
// constraints, using greedy constraint satisfaction rather than an exact
// solver. The run is fully deterministic: identical inputs always yield
// an identical selection order.
//
// A pool smaller than targetCount is a warning, not an error; partial
// results are valid. A constraint bucket absent from the pool has its
// target degraded to zero with a warning.
func Assemble(pool []model.Question, constraints []model.Constraint, targetCount int) (*Result, error) {
	if targetCount <= 0 {
		return nil, ErrNonPositiveTarget
	}

	result := &Result{Warnings: []string{}}

	var plans []*bucketPlan
	var timeLimit *model.Constraint
	for i := range constraints {
		c := constraints[i]
		switch c.Type {
		case model.ConstraintTimeLimit:
			timeLimit = &constraints[i]
		case model.ConstraintDifficultyBalance, model.ConstraintBloomDistribution, model.ConstraintTopicCoverage:
			plans = append(plans, newBucketPlan(c, pool, targetCount, result))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownConstraint, c.Type)
		}
	}

	selectQuestions(pool, plans, timeLimit, targetCount, result)

	if len(result.Selected) < targetCount {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"pool shortfall: selected %d of %d requested questions",
			len(result.Selected), targetCount))
	}

	scoreResult(result, plans, timeLimit)
	return result, nil
}

// newBucketPlan computes ideal per-bucket counts for one distributional
// constraint via largest-remainder rounding, then degrades buckets the
// pool cannot serve.
func newBucketPlan(c model.Constraint, pool []model.Question, targetCount int, result *Result) *bucketPlan {
	plan := &bucketPlan{
		constraint: c,
		ideal:      make(map[string]int),
		remaining:  make(map[string]int),
		achieved:   make(map[string]int),
		requested:  make(map[string]bool),
	}

	// Map iteration order is random; sort keys so rounding ties are
	// deterministic across runs.
	for bucket := range c.Targets {
		plan.buckets = append(plan.buckets, bucket)
	}
	sort.Strings(plan.buckets)

	weights := make([]float64, len(plan.buckets))
	for i, bucket := range plan.buckets {
		weights[i] = c.Targets[bucket]
	}
	counts := tos.LargestRemainder(weights, targetCount)

	available := make(map[string]int)
	for i := range pool {
		available[plan.bucketKey(&pool[i])]++
	}

	for i, bucket := range plan.buckets {
		ideal := counts[i]
		plan.requested[bucket] = ideal > 0
		if ideal > 0 && available[bucket] == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: no questions available for bucket %q, target dropped",
				c.Type, bucket))
			ideal = 0
			plan.degraded = true
		}
		plan.ideal[bucket] = ideal
		plan.remaining[bucket] = ideal
	}

	return plan
}

// selectQuestions runs the greedy loop: each round picks the question
// that helps the most still-unmet bucket targets, ties broken by summed
// constraint priority then by pool order.
func selectQuestions(pool []model.Question, plans []*bucketPlan, timeLimit *model.Constraint, targetCount int, result *Result) {
	taken := make([]bool, len(pool))
	usedSeconds := 0
	budgetSeconds := 0
	if timeLimit != nil {
		budgetSeconds = timeLimit.MaxMinutes * 60
	}

	for len(result.Selected) < targetCount {
		best := -1
		bestScore, bestPriority := -1, -1

		for i := range pool {
			if taken[i] {
				continue
			}
			score, priority := scoreCandidate(&pool[i], plans)
			if timeLimit != nil && usedSeconds+pool[i].EstimatedSeconds <= budgetSeconds {
				score++
				priority += timeLimit.Priority
			}
			if score > bestScore || (score == bestScore && priority > bestPriority) {
				best, bestScore, bestPriority = i, score, priority
			}
		}

		if best == -1 {
			break
		}

		taken[best] = true
		q := pool[best]
		result.Selected = append(result.Selected, q)
		usedSeconds += q.EstimatedSeconds

		for _, plan := range plans {
			bucket := plan.bucketKey(&q)
			plan.achieved[bucket]++
			if plan.remaining[bucket] > 0 {
				plan.remaining[bucket]--
			}
		}
	}
}

// scoreCandidate counts how many constraints still want q's bucket, and
// sums the priorities of those constraints for tie-breaking.
func scoreCandidate(q *model.Question, plans []*bucketPlan) (score, priority int) {
	for _, plan := range plans {
		if plan.remaining[plan.bucketKey(q)] > 0 {
			score++
			priority += plan.constraint.Priority
		}
	}
	return score, priority
}

// scoreResult computes balanceScore, coverageScore and the satisfied
// flag from the achieved distribution.
func scoreResult(result *Result, plans []*bucketPlan, timeLimit *model.Constraint) {
	result.ConstraintsSatisfied = true

	var weightedDeviation, weightSum float64
	requestedBuckets, coveredBuckets := 0, 0

	for _, plan := range plans {
		var deviation, idealSum int
		for _, bucket := range plan.buckets {
			d := plan.achieved[bucket] - plan.ideal[bucket]
			if d < 0 {
				d = -d
			}
			deviation += d
			idealSum += plan.ideal[bucket]

			// Degraded buckets keep counting as requested so an
			// absent bucket shows up as lost coverage.
			if plan.requested[bucket] {
				requestedBuckets++
				if plan.achieved[bucket] > 0 {
					coveredBuckets++
				}
			}
		}

		normalized := 0.0
		if idealSum > 0 {
			// Worst case: everything lands outside the targets, which
			// doubles the absolute deviation.
			normalized = float64(deviation) / float64(2*idealSum)
			if normalized > 1 {
				normalized = 1
			}
		}

		weight := float64(plan.constraint.Priority)
		if weight <= 0 {
			weight = 1
		}
		weightedDeviation += normalized * weight
		weightSum += weight

		if plan.constraint.Required && (deviation > 0 || plan.degraded) {
			result.ConstraintsSatisfied = false
		}
	}

	if timeLimit != nil {
		budget := timeLimit.MaxMinutes * 60
		used := 0
		for i := range result.Selected {
			used += result.Selected[i].EstimatedSeconds
		}
		if used > budget {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"time limit exceeded: %ds estimated against a %ds budget", used, budget))
			overflow := float64(used-budget) / float64(budget)
			if overflow > 1 {
				overflow = 1
			}
			weight := float64(timeLimit.Priority)
			if weight <= 0 {
				weight = 1
			}
			weightedDeviation += overflow * weight
			weightSum += weight
			if timeLimit.Required {
				result.ConstraintsSatisfied = false
			}
		}
	}

	if weightSum > 0 {
		result.BalanceScore = weightedDeviation / weightSum
	}

	result.CoverageScore = 1.0
	if requestedBuckets > 0 {
		result.CoverageScore = float64(coveredBuckets) / float64(requestedBuckets)
	}
}
