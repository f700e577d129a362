package assembly

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/examforge/examforge-backend/internal/model"
)

// ErrNoSelection is returned when forms are requested for an empty
// assembly result.
var ErrNoSelection = errors.New("assembly result has no selected questions")

// Form is one fully rendered parallel form: the shuffled question
// sequence with per-question choice shuffles applied, plus the answer
// key mapping 1-based position to the correct choice label.
type Form struct {
	Label     string           `json:"label"`
	Seed      string           `json:"seed"`
	Questions []model.Question `json:"questions"`
	AnswerKey map[int]string   `json:"answer_key"`
}

// choiceLabels are the labels reassigned to shuffled choices, in order.
var choiceLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

// VersionSeed derives the per-version seed string from a base seed and
// version index. Stored alongside the version so any form can be
// regenerated byte-identically later.
func VersionSeed(baseSeed string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", baseSeed, index)))
	return hex.EncodeToString(sum[:8])
}

// newRand builds a deterministic generator from an arbitrary seed
// string. Same string, same stream.
func newRand(seed string) *rand.Rand {
	sum := sha256.Sum256([]byte(seed))
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}

// GenerateForms produces n parallel forms from one assembly result.
// Each form gets its own seed derived from baseSeed and the version
// index, so a stored base seed reproduces the whole set and a stored
// version seed reproduces one form.
func GenerateForms(result *Result, n int, baseSeed string) ([]Form, error) {
	if len(result.Selected) == 0 {
		return nil, ErrNoSelection
	}

	forms := make([]Form, 0, n)
	for i := 0; i < n; i++ {
		form, err := BuildForm(result, VersionLabel(i), VersionSeed(baseSeed, i))
		if err != nil {
			return nil, err
		}
		forms = append(forms, *form)
	}
	return forms, nil
}

// BuildForm renders a single parallel form from an assembly result and
// a version seed. The question order is a seeded Fisher-Yates shuffle
// of the selection; each multiple-choice question additionally gets an
// independently seeded shuffle of its choice-label mapping. Choice text
// never changes, only which label it carries, and the answer key is
// rebuilt from the post-shuffle mapping.
func BuildForm(result *Result, label, seed string) (*Form, error) {
	if len(result.Selected) == 0 {
		return nil, ErrNoSelection
	}

	questions := make([]model.Question, len(result.Selected))
	copy(questions, result.Selected)

	rng := newRand(seed)
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	form := &Form{
		Label:     label,
		Seed:      seed,
		Questions: questions,
		AnswerKey: make(map[int]string),
	}

	for pos := range questions {
		q := &questions[pos]
		if q.QuestionType != model.QuestionTypeMultipleChoice || len(q.Choices) == 0 {
			continue
		}

		shuffled, correct, err := shuffleChoices(q, seed)
		if err != nil {
			return nil, err
		}
		q.Choices = shuffled
		q.CorrectLabel = correct
		form.AnswerKey[pos+1] = correct
	}

	return form, nil
}

// shuffleChoices permutes a question's choices under a seed derived from
// the version seed and the question ID, relabels them in canonical
// label order, and returns the new label of the original correct choice.
func shuffleChoices(q *model.Question, versionSeed string) ([]model.Choice, string, error) {
	correct := q.CorrectChoice()
	if correct == nil {
		return nil, "", fmt.Errorf("question %s: correct label %q not among choices", q.ID, q.CorrectLabel)
	}
	if len(q.Choices) > len(choiceLabels) {
		return nil, "", fmt.Errorf("question %s: too many choices (%d)", q.ID, len(q.Choices))
	}
	correctText := correct.Text

	rng := newRand(versionSeed + ":" + q.ID.String())
	perm := rng.Perm(len(q.Choices))

	shuffled := make([]model.Choice, len(q.Choices))
	correctLabel := ""
	for newIdx, oldIdx := range perm {
		shuffled[newIdx] = model.Choice{
			Label: choiceLabels[newIdx],
			Text:  q.Choices[oldIdx].Text,
		}
		if q.Choices[oldIdx].Text == correctText && correctLabel == "" {
			correctLabel = choiceLabels[newIdx]
		}
	}

	return shuffled, correctLabel, nil
}

// VersionLabel returns "A".."Z" for the first 26 versions, then "V27"
// onwards. Callers cap the count well below that in practice.
func VersionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("V%d", i+1)
}
