package tos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge-backend/internal/model"
)

func TestCalculateWorkedExample(t *testing.T) {
	// 3 topics with hours {A:10, B:10, C:5} and 50 items: shares are
	// exactly {A:20, B:20, C:10}, and item numbers run 1-20, 21-40,
	// 41-50 per topic in canonical Bloom order.
	topics := []model.TopicAllocation{
		{Topic: "A", Hours: 10},
		{Topic: "B", Hours: 10},
		{Topic: "C", Hours: 5},
	}

	matrix, err := Calculate(topics, 50)
	require.NoError(t, err)

	require.Len(t, matrix.Topics, 3)
	assert.Equal(t, 20, matrix.Topics[0].Total)
	assert.Equal(t, 20, matrix.Topics[1].Total)
	assert.Equal(t, 10, matrix.Topics[2].Total)
	assert.InDelta(t, 40.0, matrix.Topics[0].Percent, 1e-9)
	assert.InDelta(t, 20.0, matrix.Topics[2].Percent, 1e-9)

	ranges := [][2]int{{1, 20}, {21, 40}, {41, 50}}
	for i, row := range matrix.Topics {
		cellSum := 0
		low, high := ranges[i][0], ranges[i][1]
		next := low
		for _, level := range model.BloomLevels {
			cell := row.Cells[level]
			cellSum += cell.Count
			require.Len(t, cell.ItemNumbers, cell.Count)
			for _, n := range cell.ItemNumbers {
				assert.Equal(t, next, n)
				assert.GreaterOrEqual(t, n, low)
				assert.LessOrEqual(t, n, high)
				next++
			}
		}
		assert.Equal(t, row.Total, cellSum)
	}
}

func TestCalculateExactSumAndPartition(t *testing.T) {
	// Exact-sum and item-number partition properties over a grid of
	// topic counts and item totals, including totals smaller than the
	// number of cells.
	for topicCount := 1; topicCount <= 50; topicCount += 7 {
		topics := make([]model.TopicAllocation, topicCount)
		for i := range topics {
			topics[i] = model.TopicAllocation{
				Topic: string(rune('A' + i%26)),
				Hours: float64(i%9) + 0.5,
			}
		}

		for _, totalItems := range []int{1, 2, 5, 11, 60, 123, 500} {
			matrix, err := Calculate(topics, totalItems)
			require.NoError(t, err)

			seen := make(map[int]bool)
			grand := 0
			for _, row := range matrix.Topics {
				for _, level := range model.BloomLevels {
					cell := row.Cells[level]
					grand += cell.Count
					for _, n := range cell.ItemNumbers {
						assert.False(t, seen[n], "duplicate item number %d", n)
						seen[n] = true
					}
				}
			}

			assert.Equal(t, totalItems, grand, "topics=%d items=%d", topicCount, totalItems)
			require.Len(t, seen, totalItems)
			for n := 1; n <= totalItems; n++ {
				assert.True(t, seen[n], "missing item number %d", n)
			}
		}
	}
}

func TestCalculateDifficultySplitPreservesCellCounts(t *testing.T) {
	matrix, err := Calculate([]model.TopicAllocation{{Topic: "algebra", Hours: 12}}, 37)
	require.NoError(t, err)

	for _, row := range matrix.Topics {
		for _, level := range model.BloomLevels {
			cell := row.Cells[level]
			split := cell.Difficulty
			assert.Equal(t, cell.Count, split.Easy+split.Average+split.Difficult)
		}
	}
}

func TestCalculateRoundingFairness(t *testing.T) {
	topics := []model.TopicAllocation{
		{Topic: "A", Hours: 3},
		{Topic: "B", Hours: 7},
		{Topic: "C", Hours: 11},
	}

	for totalItems := 1; totalItems <= 500; totalItems++ {
		matrix, err := Calculate(topics, totalItems)
		require.NoError(t, err)

		for i, row := range matrix.Topics {
			exact := float64(totalItems) * topics[i].Hours / 21.0
			diff := float64(row.Total) - exact
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, 1.0, "items=%d topic=%s", totalItems, row.Topic)
		}
	}
}

func TestCalculateValidation(t *testing.T) {
	_, err := Calculate(nil, 10)
	assert.ErrorIs(t, err, ErrNoTopics)

	_, err = Calculate([]model.TopicAllocation{{Topic: "A", Hours: 1}}, 0)
	assert.ErrorIs(t, err, ErrNonPositiveItems)

	_, err = Calculate([]model.TopicAllocation{{Topic: "A", Hours: 1}}, -3)
	assert.ErrorIs(t, err, ErrNonPositiveItems)

	_, err = Calculate([]model.TopicAllocation{
		{Topic: "A", Hours: 2},
		{Topic: "B", Hours: 0},
	}, 10)
	assert.ErrorIs(t, err, ErrNonPositiveHours)
	assert.Contains(t, err.Error(), "B")
}
