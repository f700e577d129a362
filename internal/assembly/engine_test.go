package assembly

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge-backend/internal/model"
)

func mcQuestion(topic string, level model.BloomLevel, difficulty model.Difficulty) model.Question {
	return model.Question{
		ID:           uuid.New(),
		Topic:        topic,
		BloomLevel:   level,
		Difficulty:   difficulty,
		QuestionType: model.QuestionTypeMultipleChoice,
		QuestionText: fmt.Sprintf("%s / %s / %s", topic, level, difficulty),
		Choices: []model.Choice{
			{Label: "A", Text: "alpha"},
			{Label: "B", Text: "beta"},
			{Label: "C", Text: "gamma"},
			{Label: "D", Text: "delta"},
		},
		CorrectLabel:     "B",
		Points:           1,
		EstimatedSeconds: 60,
		Approved:         true,
	}
}

// balancedPool builds a pool cycling through difficulties so every band
// has plenty of candidates.
func balancedPool(size int) []model.Question {
	pool := make([]model.Question, 0, size)
	for i := 0; i < size; i++ {
		pool = append(pool, mcQuestion(
			fmt.Sprintf("topic-%d", i%4),
			model.BloomLevels[i%len(model.BloomLevels)],
			model.Difficulties[i%len(model.Difficulties)],
		))
	}
	return pool
}

func TestAssembleDifficultyBalanceExample(t *testing.T) {
	// 40-question pool, targets easy .3 / average .5 / difficult .2,
	// length 20: exactly 6 easy, 10 average, 4 difficult.
	pool := balancedPool(40)
	constraints := []model.Constraint{{
		Type: model.ConstraintDifficultyBalance,
		Targets: map[string]float64{
			"easy":      0.3,
			"average":   0.5,
			"difficult": 0.2,
		},
		Priority: 5,
		Required: true,
	}}

	result, err := Assemble(pool, constraints, 20)
	require.NoError(t, err)
	require.Len(t, result.Selected, 20)

	byBand := map[model.Difficulty]int{}
	for _, q := range result.Selected {
		byBand[q.Difficulty]++
	}
	assert.Equal(t, 6, byBand[model.DifficultyEasy])
	assert.Equal(t, 10, byBand[model.DifficultyAverage])
	assert.Equal(t, 4, byBand[model.DifficultyDifficult])

	assert.True(t, result.ConstraintsSatisfied)
	assert.Zero(t, result.BalanceScore)
	assert.Equal(t, 1.0, result.CoverageScore)
	assert.Empty(t, result.Warnings)
}

func TestAssembleDeterminism(t *testing.T) {
	pool := balancedPool(60)
	constraints := []model.Constraint{
		{
			Type:     model.ConstraintBloomDistribution,
			Targets:  map[string]float64{"remembering": 0.4, "applying": 0.3, "creating": 0.3},
			Priority: 3,
		},
		{
			Type:     model.ConstraintTopicCoverage,
			Targets:  map[string]float64{"topic-0": 0.5, "topic-1": 0.25, "topic-2": 0.25},
			Priority: 1,
		},
	}

	first, err := Assemble(pool, constraints, 25)
	require.NoError(t, err)
	second, err := Assemble(pool, constraints, 25)
	require.NoError(t, err)

	require.Len(t, second.Selected, len(first.Selected))
	for i := range first.Selected {
		assert.Equal(t, first.Selected[i].ID, second.Selected[i].ID, "position %d", i)
	}
	assert.Equal(t, first.BalanceScore, second.BalanceScore)
	assert.Equal(t, first.CoverageScore, second.CoverageScore)
}

func TestAssemblePoolShortfall(t *testing.T) {
	pool := balancedPool(8)

	result, err := Assemble(pool, nil, 20)
	require.NoError(t, err)

	assert.Len(t, result.Selected, 8)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "selected 8 of 20")
	assert.True(t, result.ConstraintsSatisfied)
}

func TestAssembleEmptyBucketDegrades(t *testing.T) {
	// Pool deliberately contains no "creating" questions.
	var pool []model.Question
	for i := 0; i < 30; i++ {
		level := model.BloomLevels[i%5] // stops short of creating
		pool = append(pool, mcQuestion("t", level, model.Difficulties[i%3]))
	}

	constraints := []model.Constraint{{
		Type:     model.ConstraintBloomDistribution,
		Targets:  map[string]float64{"remembering": 0.5, "creating": 0.5},
		Priority: 2,
	}}

	result, err := Assemble(pool, constraints, 10)
	require.NoError(t, err)
	assert.Len(t, result.Selected, 10)

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "creating") && strings.Contains(w, "dropped") {
			found = true
		}
	}
	assert.True(t, found, "expected a degraded-bucket warning, got %v", result.Warnings)

	// Soft constraint: the run still counts as satisfied.
	assert.True(t, result.ConstraintsSatisfied)

	// The absent bucket was still requested, so one of the two
	// requested buckets went uncovered.
	assert.InDelta(t, 0.5, result.CoverageScore, 1e-9)

	// The same constraint marked required fails the run.
	constraints[0].Required = true
	result, err = Assemble(pool, constraints, 10)
	require.NoError(t, err)
	assert.False(t, result.ConstraintsSatisfied)
}

func TestAssembleNoConstraintsKeepsPoolOrder(t *testing.T) {
	pool := balancedPool(10)

	result, err := Assemble(pool, nil, 5)
	require.NoError(t, err)

	require.Len(t, result.Selected, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, pool[i].ID, result.Selected[i].ID)
	}
	assert.Zero(t, result.BalanceScore)
	assert.Equal(t, 1.0, result.CoverageScore)
}

func TestAssembleTimeLimit(t *testing.T) {
	pool := balancedPool(30) // 60s per question
	constraints := []model.Constraint{{
		Type:       model.ConstraintTimeLimit,
		MaxMinutes: 10, // fits 10 questions
		Priority:   1,
		Required:   true,
	}}

	result, err := Assemble(pool, constraints, 20)
	require.NoError(t, err)
	require.Len(t, result.Selected, 20)

	assert.False(t, result.ConstraintsSatisfied)
	assert.Greater(t, result.BalanceScore, 0.0)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "time limit exceeded")
}

func TestAssembleValidation(t *testing.T) {
	_, err := Assemble(balancedPool(5), nil, 0)
	assert.ErrorIs(t, err, ErrNonPositiveTarget)

	_, err = Assemble(balancedPool(5), []model.Constraint{{Type: "bogus"}}, 5)
	assert.ErrorIs(t, err, ErrUnknownConstraint)
}

func TestAssembleEmptyPool(t *testing.T) {
	result, err := Assemble(nil, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Selected)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "shortfall")
}
