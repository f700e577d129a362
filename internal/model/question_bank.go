package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionBank represents a collection of questions owned by a teacher.
type QuestionBank struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    int       `json:"author_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateQuestionBankRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Subject     string `json:"subject" binding:"omitempty,max=255"`
}

type UpdateQuestionBankRequest struct {
	Name        string `json:"name" binding:"omitempty,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Subject     string `json:"subject" binding:"omitempty,max=255"`
}
