package model

import (
	"time"

	"github.com/google/uuid"
)

// TopicAllocation is one row of the TOS input: a topic and the teaching
// hours spent on it. The item share of a topic is proportional to hours.
type TopicAllocation struct {
	Topic string  `json:"topic"`
	Hours float64 `json:"hours"`
}

// DifficultySplit is the informational easy/average/difficult breakdown
// of a Bloom cell's item count.
type DifficultySplit struct {
	Easy      int `json:"easy"`
	Average   int `json:"average"`
	Difficult int `json:"difficult"`
}

// BloomCell is one (topic, Bloom level) cell of the TOS matrix.
// Count always equals len(ItemNumbers).
type BloomCell struct {
	Count       int             `json:"count"`
	ItemNumbers []int           `json:"item_numbers"`
	Difficulty  DifficultySplit `json:"difficulty"`
}

// TopicRow is one topic's full row of the TOS matrix.
type TopicRow struct {
	Topic   string                   `json:"topic"`
	Hours   float64                  `json:"hours"`
	Percent float64                  `json:"percent"`
	Total   int                      `json:"total"`
	Cells   map[BloomLevel]BloomCell `json:"cells"`
}

// TOSMatrix is the complete two-way Table of Specification: item counts
// per (topic, Bloom level, difficulty) with consistent totals. The grand
// total of all cell counts equals TotalItems and the item numbers across
// all cells partition [1..TotalItems] exactly.
type TOSMatrix struct {
	TotalHours float64    `json:"total_hours"`
	TotalItems int        `json:"total_items"`
	Topics     []TopicRow `json:"topics"`
}

// TOSDocument is a persisted TOS matrix together with its input, so the
// matrix can be recomputed wholesale when the input changes.
type TOSDocument struct {
	ID         uuid.UUID         `json:"id"`
	AuthorID   int               `json:"author_id"`
	Title      string            `json:"title"`
	Topics     []TopicAllocation `json:"topics"`
	TotalItems int               `json:"total_items"`
	Matrix     TOSMatrix         `json:"matrix"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TopicAllocationRequest is one topic row of a TOS calculation payload.
type TopicAllocationRequest struct {
	Topic string  `json:"topic" binding:"required,min=1,max=255"`
	Hours float64 `json:"hours" binding:"required,gt=0"`
}

// CalculateTOSRequest is the payload for a stateless TOS calculation.
type CalculateTOSRequest struct {
	Topics     []TopicAllocationRequest `json:"topics" binding:"required,min=1,max=50,dive"`
	TotalItems int                      `json:"total_items" binding:"required,min=1,max=500"`
}

// CreateTOSRequest is the payload for calculating and persisting a TOS.
type CreateTOSRequest struct {
	Title      string                   `json:"title" binding:"required,min=3,max=255"`
	Topics     []TopicAllocationRequest `json:"topics" binding:"required,min=1,max=50,dive"`
	TotalItems int                      `json:"total_items" binding:"required,min=1,max=500"`
}
