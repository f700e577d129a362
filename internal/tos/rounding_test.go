package tos

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLargestRemainderExactSum(t *testing.T) {
	weights := [][]float64{
		{1},
		{1, 1, 1},
		{10, 10, 5},
		{15, 15, 20, 20, 15, 15},
		{30, 40, 30},
		{0.1, 0.2, 0.7},
		{3, 0, 7},
	}

	for _, w := range weights {
		for total := 0; total <= 100; total++ {
			counts := LargestRemainder(w, total)
			sum := 0
			for _, c := range counts {
				sum += c
			}
			if total > 0 {
				assert.Equal(t, total, sum, "weights %v total %d", w, total)
			} else {
				assert.Equal(t, 0, sum)
			}
		}
	}
}

func TestLargestRemainderFairness(t *testing.T) {
	// No share may differ from its exact proportional share by more
	// than one unit.
	weights := []float64{7, 13, 19, 2, 31, 5}
	var sum float64
	for _, w := range weights {
		sum += w
	}

	for total := 1; total <= 500; total++ {
		counts := LargestRemainder(weights, total)
		for i, w := range weights {
			exact := float64(total) * w / sum
			assert.LessOrEqual(t, math.Abs(float64(counts[i])-exact), 1.0,
				"total %d share %d", total, i)
		}
	}
}

func TestLargestRemainderTiesFollowInputOrder(t *testing.T) {
	// Four equal weights, two leftover units: the first two shares in
	// input order get them.
	counts := LargestRemainder([]float64{1, 1, 1, 1}, 6)
	assert.Equal(t, []int{2, 2, 1, 1}, counts)
}

func TestLargestRemainderDegenerateInputs(t *testing.T) {
	assert.Empty(t, LargestRemainder(nil, 10))
	assert.Equal(t, []int{0, 0}, LargestRemainder([]float64{0, 0}, 10))
	assert.Equal(t, []int{0, 0}, LargestRemainder([]float64{-1, -2}, 10))

	counts := LargestRemainder([]float64{1, 2}, 0)
	require.Len(t, counts, 2)
	assert.Equal(t, []int{0, 0}, counts)
}

func TestLargestRemainderSkipsNonPositiveWeights(t *testing.T) {
	counts := LargestRemainder([]float64{5, 0, 5}, 10)
	assert.Equal(t, []int{5, 0, 5}, counts)
}
