package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge-backend/internal/model"
)

func TestOptimizeLengthFindsShortestPassing(t *testing.T) {
	// 36 questions, 12 per band. The 30/40/30 targets are achievable
	// for any scanned length; the scan must stop at the floor.
	pool := balancedPool(36)
	constraints := []model.Constraint{{
		Type:     model.ConstraintDifficultyBalance,
		Targets:  map[string]float64{"easy": 0.3, "average": 0.4, "difficult": 0.3},
		Priority: 1,
		Required: true,
	}}

	scan, err := OptimizeLength(pool, constraints, OptimizeOptions{
		MinLength:       10,
		MaxLength:       30,
		Step:            5,
		MaxBalanceScore: 0.05,
	})
	require.NoError(t, err)

	assert.True(t, scan.Found)
	assert.Equal(t, 10, scan.Length)
	assert.Equal(t, 1, scan.Scanned)
	require.NotNil(t, scan.Result)
	assert.True(t, scan.Result.ConstraintsSatisfied)
}

func TestOptimizeLengthSkipsInfeasibleFloor(t *testing.T) {
	// Only 12 difficult questions exist, so a required all-difficult
	// distribution cannot fill lengths above 12; lengths at or below
	// work. The scan starts at 5 and should succeed immediately, but a
	// floor above 12 never passes.
	var pool []model.Question
	for i := 0; i < 12; i++ {
		pool = append(pool, mcQuestion("t", model.BloomApplying, model.DifficultyDifficult))
	}
	for i := 0; i < 24; i++ {
		pool = append(pool, mcQuestion("t", model.BloomApplying, model.DifficultyEasy))
	}
	constraints := []model.Constraint{{
		Type:     model.ConstraintDifficultyBalance,
		Targets:  map[string]float64{"difficult": 1.0},
		Priority: 1,
		Required: true,
	}}

	scan, err := OptimizeLength(pool, constraints, OptimizeOptions{
		MinLength: 5, MaxLength: 12, Step: 1, MaxBalanceScore: 0,
	})
	require.NoError(t, err)
	assert.True(t, scan.Found)
	assert.Equal(t, 5, scan.Length)

	scan, err = OptimizeLength(pool, constraints, OptimizeOptions{
		MinLength: 15, MaxLength: 30, Step: 5, MaxBalanceScore: 0,
	})
	require.NoError(t, err)
	assert.False(t, scan.Found)
	assert.Equal(t, 4, scan.Scanned)
	require.NotNil(t, scan.Result, "best-effort candidate is still reported")
}

func TestOptimizeLengthDefaultsAndValidation(t *testing.T) {
	pool := balancedPool(60)

	scan, err := OptimizeLength(pool, nil, OptimizeOptions{})
	require.NoError(t, err)
	assert.True(t, scan.Found)
	assert.Equal(t, 10, scan.Length, "defaults scan from 10")

	_, err = OptimizeLength(pool, nil, OptimizeOptions{MinLength: 30, MaxLength: 20})
	assert.ErrorIs(t, err, ErrInvalidLengthRange)
}
