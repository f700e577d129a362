package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcQuestion() Question {
	return Question{
		Topic:        "fractions",
		BloomLevel:   BloomApplying,
		Difficulty:   DifficultyAverage,
		QuestionType: QuestionTypeMultipleChoice,
		QuestionText: "What is 1/2 + 1/4?",
		Choices: []Choice{
			{Label: "A", Text: "3/4"},
			{Label: "B", Text: "2/6"},
			{Label: "C", Text: "1/8"},
		},
		CorrectLabel: "A",
	}
}

func TestValidateChoicesAcceptsWellFormedMC(t *testing.T) {
	q := mcQuestion()
	assert.Nil(t, q.ValidateChoices())
}

func TestValidateChoicesRejectsEmptyChoiceList(t *testing.T) {
	q := mcQuestion()
	q.Choices = nil
	q.CorrectLabel = ""

	fields := q.ValidateChoices()
	require.NotNil(t, fields)
	assert.Contains(t, fields, "choices")
}

func TestValidateChoicesRejectsSingleChoice(t *testing.T) {
	q := mcQuestion()
	q.Choices = q.Choices[:1]

	fields := q.ValidateChoices()
	require.NotNil(t, fields)
	assert.Contains(t, fields, "choices")
}

func TestValidateChoicesRejectsUnknownCorrectLabel(t *testing.T) {
	q := mcQuestion()
	q.CorrectLabel = "D"

	fields := q.ValidateChoices()
	require.NotNil(t, fields)
	assert.Contains(t, fields, "correct_label")
}

func TestValidateChoicesIgnoresEssayQuestions(t *testing.T) {
	q := mcQuestion()
	q.QuestionType = QuestionTypeEssay
	q.Choices = nil
	q.CorrectLabel = ""

	assert.Nil(t, q.ValidateChoices())
}
