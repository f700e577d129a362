package tos

import (
	"errors"
	"fmt"

	"github.com/examforge/examforge-backend/internal/model"
)

// Validation errors returned by Calculate. No partial matrix is ever
// returned alongside an error.
var (
	ErrNoTopics         = errors.New("topic list is empty")
	ErrNonPositiveHours = errors.New("topic hours must be positive")
	ErrNonPositiveItems = errors.New("total items must be positive")
)

// bloomWeights are the fixed target percentages for splitting a topic's
// item budget across the six Bloom levels, in canonical level order.
var bloomWeights = []float64{15, 15, 20, 20, 15, 15}

// difficultyWeights are the nominal easy/average/difficult percentages
// used for the informational difficulty split of each Bloom cell.
var difficultyWeights = []float64{30, 40, 30}

// Calculate builds the full TOS matrix for the given topic allocations
// and item target.
//
// Item counts are distributed in three largest-remainder passes: topic
// shares of totalItems (proportional to hours), each topic's share
// across the six Bloom levels (15/15/20/20/15/15), and each Bloom
// cell's count across difficulty bands (30/40/30). Every pass preserves
// exact sums, so the grand total always equals totalItems even when
// totalItems is smaller than the number of cells.
//
// Item numbers are assigned contiguously walking topics in input order
// and Bloom levels in canonical order, partitioning [1..totalItems].
func Calculate(topics []model.TopicAllocation, totalItems int) (*model.TOSMatrix, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	if totalItems <= 0 {
		return nil, ErrNonPositiveItems
	}

	var totalHours float64
	for _, t := range topics {
		if t.Hours <= 0 {
			return nil, fmt.Errorf("topic %q: %w", t.Topic, ErrNonPositiveHours)
		}
		totalHours += t.Hours
	}

	hourWeights := make([]float64, len(topics))
	for i, t := range topics {
		hourWeights[i] = t.Hours
	}
	topicTotals := LargestRemainder(hourWeights, totalItems)

	matrix := &model.TOSMatrix{
		TotalHours: totalHours,
		TotalItems: totalItems,
		Topics:     make([]model.TopicRow, len(topics)),
	}

	nextItem := 1
	for i, t := range topics {
		row := model.TopicRow{
			Topic:   t.Topic,
			Hours:   t.Hours,
			Percent: t.Hours / totalHours * 100,
			Total:   topicTotals[i],
			Cells:   make(map[model.BloomLevel]model.BloomCell, len(model.BloomLevels)),
		}

		cellCounts := LargestRemainder(bloomWeights, topicTotals[i])
		for j, level := range model.BloomLevels {
			count := cellCounts[j]

			numbers := make([]int, count)
			for k := range numbers {
				numbers[k] = nextItem
				nextItem++
			}

			split := LargestRemainder(difficultyWeights, count)
			row.Cells[level] = model.BloomCell{
				Count:       count,
				ItemNumbers: numbers,
				Difficulty: model.DifficultySplit{
					Easy:      split[0],
					Average:   split[1],
					Difficult: split[2],
				},
			}
		}

		matrix.Topics[i] = row
	}

	return matrix, nil
}
