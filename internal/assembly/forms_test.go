package assembly

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge-backend/internal/model"
)

func selectionResult(size int) *Result {
	return &Result{Selected: balancedPool(size), ConstraintsSatisfied: true, CoverageScore: 1}
}

func TestGenerateFormsReproducible(t *testing.T) {
	result := selectionResult(15)

	first, err := GenerateForms(result, 3, "exam-2026-seed")
	require.NoError(t, err)
	second, err := GenerateForms(result, 3, "exam-2026-seed")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed must produce byte-identical forms")
}

func TestGenerateFormsDifferBySeedAndVersion(t *testing.T) {
	result := selectionResult(15)

	forms, err := GenerateForms(result, 2, "seed-one")
	require.NoError(t, err)
	require.Len(t, forms, 2)

	assert.Equal(t, "A", forms[0].Label)
	assert.Equal(t, "B", forms[1].Label)
	assert.NotEqual(t, forms[0].Seed, forms[1].Seed)

	sameOrder := true
	for i := range forms[0].Questions {
		if forms[0].Questions[i].ID != forms[1].Questions[i].ID {
			sameOrder = false
			break
		}
	}
	assert.False(t, sameOrder, "sibling versions should be shuffled differently")

	other, err := GenerateForms(result, 1, "seed-two")
	require.NoError(t, err)
	assert.NotEqual(t, forms[0].Seed, other[0].Seed)
}

func TestBuildFormRegeneratesFromStoredSeed(t *testing.T) {
	// A teacher who lost the printout regenerates the form from the
	// version's stored seed alone.
	result := selectionResult(12)

	forms, err := GenerateForms(result, 1, "base")
	require.NoError(t, err)

	regenerated, err := BuildForm(result, forms[0].Label, forms[0].Seed)
	require.NoError(t, err)

	a, _ := json.Marshal(forms[0])
	b, _ := json.Marshal(*regenerated)
	assert.Equal(t, a, b)
}

func TestFormAnswerKeyConsistency(t *testing.T) {
	result := selectionResult(20)

	// The pre-shuffle correct text is "beta" for every pool question.
	forms, err := GenerateForms(result, 4, "key-check")
	require.NoError(t, err)

	for _, form := range forms {
		for pos, q := range form.Questions {
			if q.QuestionType != model.QuestionTypeMultipleChoice {
				continue
			}
			label, ok := form.AnswerKey[pos+1]
			require.True(t, ok, "form %s position %d missing from answer key", form.Label, pos+1)

			var keyed *model.Choice
			texts := make(map[string]bool)
			for i := range q.Choices {
				texts[q.Choices[i].Text] = true
				if q.Choices[i].Label == label {
					keyed = &q.Choices[i]
				}
			}
			require.NotNil(t, keyed)
			assert.Equal(t, "beta", keyed.Text)
			assert.Equal(t, label, q.CorrectLabel)

			// Choice text set is untouched by shuffling.
			assert.True(t, texts["alpha"] && texts["beta"] && texts["gamma"] && texts["delta"])
		}
	}
}

func TestFormQuestionOrderIsPermutation(t *testing.T) {
	result := selectionResult(18)

	forms, err := GenerateForms(result, 2, "perm")
	require.NoError(t, err)

	want := make(map[string]bool, len(result.Selected))
	for _, q := range result.Selected {
		want[q.ID.String()] = true
	}

	for _, form := range forms {
		require.Len(t, form.Questions, len(result.Selected))
		seen := make(map[string]bool)
		for _, q := range form.Questions {
			assert.True(t, want[q.ID.String()])
			assert.False(t, seen[q.ID.String()], "duplicate question in form %s", form.Label)
			seen[q.ID.String()] = true
		}
	}
}

func TestGenerateFormsRejectsEmptySelection(t *testing.T) {
	_, err := GenerateForms(&Result{}, 2, "seed")
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestBuildFormRejectsBadCorrectLabel(t *testing.T) {
	q := mcQuestion("t", model.BloomApplying, model.DifficultyEasy)
	q.CorrectLabel = "Z"

	_, err := BuildForm(&Result{Selected: []model.Question{q}}, "A", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correct label")
}

func TestEssayQuestionsSkipAnswerKey(t *testing.T) {
	essay := model.Question{
		ID:           uuid.New(),
		Topic:        "t",
		BloomLevel:   model.BloomCreating,
		Difficulty:   model.DifficultyDifficult,
		QuestionType: model.QuestionTypeEssay,
		QuestionText: "Discuss.",
	}
	result := &Result{Selected: []model.Question{essay}}

	forms, err := GenerateForms(result, 1, "essay")
	require.NoError(t, err)
	assert.Empty(t, forms[0].AnswerKey)
}

// Stored versions are listed ordered by (length(label), label), so the
// label sequence must stay monotonic under that comparator: A..Z first,
// then numbered overflow labels in numeric order.
func TestVersionLabelsSortByLengthThenValue(t *testing.T) {
	for i := 1; i < 120; i++ {
		prev, cur := VersionLabel(i-1), VersionLabel(i)
		ordered := len(prev) < len(cur) || (len(prev) == len(cur) && prev < cur)
		require.True(t, ordered, "label %q must sort before %q", prev, cur)
	}
}
