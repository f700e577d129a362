package model

// BloomLevel is one of the six cognitive-process categories used to
// classify question intent.
type BloomLevel string

const (
	BloomRemembering   BloomLevel = "remembering"
	BloomUnderstanding BloomLevel = "understanding"
	BloomApplying      BloomLevel = "applying"
	BloomAnalyzing     BloomLevel = "analyzing"
	BloomEvaluating    BloomLevel = "evaluating"
	BloomCreating      BloomLevel = "creating"
)

// BloomLevels lists all levels in canonical order. Item numbering and
// matrix columns always follow this order.
var BloomLevels = []BloomLevel{
	BloomRemembering,
	BloomUnderstanding,
	BloomApplying,
	BloomAnalyzing,
	BloomEvaluating,
	BloomCreating,
}

// Valid reports whether b is one of the six known Bloom levels.
func (b BloomLevel) Valid() bool {
	for _, l := range BloomLevels {
		if b == l {
			return true
		}
	}
	return false
}

// Difficulty is one of the three difficulty bands a question belongs to.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyAverage   Difficulty = "average"
	DifficultyDifficult Difficulty = "difficult"
)

// Difficulties lists all bands in canonical order.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyAverage,
	DifficultyDifficult,
}

// Valid reports whether d is one of the three known difficulty bands.
func (d Difficulty) Valid() bool {
	for _, band := range Difficulties {
		if d == band {
			return true
		}
	}
	return false
}
