package model

// ConstraintType enumerates the supported assembly constraint kinds.
type ConstraintType string

const (
	ConstraintDifficultyBalance ConstraintType = "difficulty_balance"
	ConstraintBloomDistribution ConstraintType = "bloom_distribution"
	ConstraintTopicCoverage     ConstraintType = "topic_coverage"
	ConstraintTimeLimit         ConstraintType = "time_limit"
)

// Constraint is one assembly requirement. Distributional constraints
// (difficulty_balance, bloom_distribution, topic_coverage) carry target
// fractions per bucket in Targets; time_limit carries MaxMinutes.
// Constraints are evaluated additively as weighted penalties, not as a
// strict solver. A Required constraint with nonzero deviation marks the
// whole run as unsatisfied; soft constraints only affect the score.
type Constraint struct {
	Type       ConstraintType     `json:"type"`
	Targets    map[string]float64 `json:"targets,omitempty"`
	MaxMinutes int                `json:"max_minutes,omitempty"`
	Priority   int                `json:"priority"`
	Required   bool               `json:"required"`
}

// ConstraintRequest is the request-payload form of a Constraint.
type ConstraintRequest struct {
	Type       string             `json:"type" binding:"required,oneof=difficulty_balance bloom_distribution topic_coverage time_limit"`
	Targets    map[string]float64 `json:"targets" binding:"omitempty,max=60"`
	MaxMinutes int                `json:"max_minutes" binding:"omitempty,min=1,max=480"`
	Priority   int                `json:"priority" binding:"omitempty,min=0,max=100"`
	Required   bool               `json:"required"`
}

// ToConstraint converts the request payload into the engine's form.
func (r ConstraintRequest) ToConstraint() Constraint {
	return Constraint{
		Type:       ConstraintType(r.Type),
		Targets:    r.Targets,
		MaxMinutes: r.MaxMinutes,
		Priority:   r.Priority,
		Required:   r.Required,
	}
}
