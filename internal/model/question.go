package model

import (
	"time"

	"github.com/google/uuid"
)

// Question represents a single bank question, classified by topic,
// Bloom level and difficulty.
type Question struct {
	ID               uuid.UUID    `json:"id"`
	BankID           uuid.UUID    `json:"bank_id"`
	Topic            string       `json:"topic"`
	BloomLevel       BloomLevel   `json:"bloom_level"`
	Difficulty       Difficulty   `json:"difficulty"`
	QuestionType     QuestionType `json:"question_type"`
	QuestionText     string       `json:"question_text"`
	Choices          []Choice     `json:"choices,omitempty"`
	CorrectLabel     string       `json:"correct_label,omitempty"`
	Points           int          `json:"points"`
	EstimatedSeconds int          `json:"estimated_seconds"`
	Approved         bool         `json:"approved"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// Choice is one answer option of a multiple-choice question.
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// CorrectChoice returns the choice matching CorrectLabel, or nil for
// essay questions and malformed data.
func (q *Question) CorrectChoice() *Choice {
	for i := range q.Choices {
		if q.Choices[i].Label == q.CorrectLabel {
			return &q.Choices[i]
		}
	}
	return nil
}

// ValidateChoices checks multiple-choice integrity before a question
// is persisted: at least two choices and a correct label naming one of
// them. Essay questions pass unconditionally. Returns nil when valid,
// otherwise a field name to message map.
func (q *Question) ValidateChoices() map[string]string {
	if q.QuestionType != QuestionTypeMultipleChoice {
		return nil
	}

	fields := make(map[string]string)
	if len(q.Choices) < 2 {
		fields["choices"] = "multiple-choice questions need at least 2 choices"
	}
	if q.CorrectChoice() == nil {
		fields["correct_label"] = "correct_label must match one of the choice labels"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// AddQuestionRequest is the payload for adding a question to a bank.
type AddQuestionRequest struct {
	Topic            string   `json:"topic" binding:"required,min=1,max=255"`
	BloomLevel       string   `json:"bloom_level" binding:"required,oneof=remembering understanding applying analyzing evaluating creating"`
	Difficulty       string   `json:"difficulty" binding:"required,oneof=easy average difficult"`
	QuestionType     string   `json:"question_type" binding:"required,oneof=MULTIPLE_CHOICE ESSAY"`
	QuestionText     string   `json:"question_text" binding:"required,min=1,max=2000"`
	Choices          []Choice `json:"choices" binding:"omitempty,min=2,max=10,dive"`
	CorrectLabel     string   `json:"correct_label" binding:"omitempty,max=10"`
	Points           int      `json:"points" binding:"omitempty,min=1,max=100"`
	EstimatedSeconds int      `json:"estimated_seconds" binding:"omitempty,min=10,max=3600"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	Topic            string   `json:"topic" binding:"omitempty,min=1,max=255"`
	BloomLevel       string   `json:"bloom_level" binding:"omitempty,oneof=remembering understanding applying analyzing evaluating creating"`
	Difficulty       string   `json:"difficulty" binding:"omitempty,oneof=easy average difficult"`
	QuestionType     string   `json:"question_type" binding:"omitempty,oneof=MULTIPLE_CHOICE ESSAY"`
	QuestionText     string   `json:"question_text" binding:"omitempty,min=1,max=2000"`
	Choices          []Choice `json:"choices" binding:"omitempty,min=2,max=10,dive"`
	CorrectLabel     string   `json:"correct_label" binding:"omitempty,max=10"`
	Points           *int     `json:"points" binding:"omitempty,min=1,max=100"`
	EstimatedSeconds *int     `json:"estimated_seconds" binding:"omitempty,min=10,max=3600"`
}

// ApproveQuestionRequest toggles a question's approval flag.
type ApproveQuestionRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// PoolFilter narrows a bank's approved questions before they are handed
// to the assembly engine. Zero-valued fields match everything.
type PoolFilter struct {
	Topics       []string     `json:"topics" form:"topics"`
	BloomLevels  []BloomLevel `json:"bloom_levels" form:"bloom_levels"`
	Difficulties []Difficulty `json:"difficulties" form:"difficulties"`
	ApprovedOnly bool         `json:"approved_only" form:"approved_only"`
}
