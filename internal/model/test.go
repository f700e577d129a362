package model

import (
	"time"

	"github.com/google/uuid"
)

// TestStatus enumerates the possible states of an assembled test.
type TestStatus string

const (
	TestStatusDraft     TestStatus = "DRAFT"
	TestStatusFinalized TestStatus = "FINALIZED"
	TestStatusArchived  TestStatus = "ARCHIVED"
)

// Test is a persisted assembly run: the selected question set plus the
// diagnostics the engine reported for it.
type Test struct {
	ID                   uuid.UUID    `json:"id"`
	AuthorID             int          `json:"author_id"`
	BankID               uuid.UUID    `json:"bank_id"`
	TOSID                *uuid.UUID   `json:"tos_id,omitempty"`
	Title                string       `json:"title"`
	TargetCount          int          `json:"target_count"`
	BaseSeed             string       `json:"base_seed"`
	QuestionIDs          []uuid.UUID  `json:"question_ids"`
	Constraints          []Constraint `json:"constraints"`
	BalanceScore         float64      `json:"balance_score"`
	CoverageScore        float64      `json:"coverage_score"`
	ConstraintsSatisfied bool         `json:"constraints_satisfied"`
	Warnings             []string     `json:"warnings"`
	Status               TestStatus   `json:"status"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// TestVersion is one parallel form of a test. QuestionOrder, choice
// shuffles and the answer key are all derivable from ShuffleSeed alone,
// so a lost printout can be regenerated byte-identically.
type TestVersion struct {
	ID            uuid.UUID      `json:"id"`
	TestID        uuid.UUID      `json:"test_id"`
	Label         string         `json:"label"`
	QuestionOrder []uuid.UUID    `json:"question_order"`
	ShuffleSeed   string         `json:"shuffle_seed"`
	AnswerKey     map[int]string `json:"answer_key"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AssembleTestRequest is the payload for assembling a new test from a
// question bank pool.
type AssembleTestRequest struct {
	Title       string              `json:"title" binding:"required,min=3,max=255"`
	BankID      uuid.UUID           `json:"bank_id" binding:"required"`
	TOSID       *uuid.UUID          `json:"tos_id" binding:"omitempty"`
	TargetCount int                 `json:"target_count" binding:"required,min=1,max=500"`
	BaseSeed    string              `json:"base_seed" binding:"omitempty,max=64"`
	Constraints []ConstraintRequest `json:"constraints" binding:"omitempty,max=10,dive"`
	Filter      PoolFilter          `json:"filter" binding:"omitempty"`
}

// GenerateVersionsRequest is the payload for producing parallel forms.
type GenerateVersionsRequest struct {
	Count int `json:"count" binding:"required,min=1,max=26"`
}

// OptimizeLengthRequest is the payload for the test length optimizer.
type OptimizeLengthRequest struct {
	BankID          uuid.UUID           `json:"bank_id" binding:"required"`
	Constraints     []ConstraintRequest `json:"constraints" binding:"omitempty,max=10,dive"`
	Filter          PoolFilter          `json:"filter" binding:"omitempty"`
	MinLength       int                 `json:"min_length" binding:"omitempty,min=1,max=500"`
	MaxLength       int                 `json:"max_length" binding:"omitempty,min=1,max=500"`
	Step            int                 `json:"step" binding:"omitempty,min=1,max=50"`
	MaxBalanceScore float64             `json:"max_balance_score" binding:"omitempty,min=0,max=1"`
}
