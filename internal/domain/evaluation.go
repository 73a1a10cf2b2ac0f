// Package domain contains pure, dependency-free domain models and types
// for the risk reasoning engine.
package domain

import (
	"time"
)

// EvaluationStatus describes the lifecycle state of an evaluation record.
type EvaluationStatus string

// Supported evaluation lifecycle states.
const (
	// StatusDraft marks an evaluation that has been created but not started.
	StatusDraft EvaluationStatus = "draft"

	// StatusInProgress marks an evaluation that is partially answered.
	StatusInProgress EvaluationStatus = "in_progress"

	// StatusCompleted marks an evaluation whose questionnaire has been
	// finished and scored.
	StatusCompleted EvaluationStatus = "completed"
)

// RiskLevel classifies a total evaluation score into one of four bands.
type RiskLevel string

// Risk classification bands, ordered from best to worst posture.
const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Score thresholds for risk classification. A total at or above a
// threshold qualifies for the associated band.
const (
	LowRiskThreshold    = 80.0
	MediumRiskThreshold = 60.0
	HighRiskThreshold   = 40.0
)

// RiskLevelForScore classifies a 0-100 total score into a RiskLevel.
// Classification is monotonic: higher scores never map to a worse band.
func RiskLevelForScore(total float64) RiskLevel {
	switch {
	case total >= LowRiskThreshold:
		return RiskLow
	case total >= MediumRiskThreshold:
		return RiskMedium
	case total >= HighRiskThreshold:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Rank orders risk levels for comparison, with RiskLow ranked best (0)
// and RiskCritical ranked worst (3). Unknown levels rank worst.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// EvaluationResponse is one answer to one questionnaire item.
// Exactly one of BoolValue, NumberValue, or TextValue carries the answer.
// Responses are immutable once recorded; they are produced by the external
// evaluation-taking workflow and consumed read-only by this engine.
type EvaluationResponse struct {
	// QuestionID identifies the questionnaire item this response answers.
	QuestionID string `json:"question_id"`

	// QuestionText is the full wording of the questionnaire item.
	QuestionText string `json:"question_text"`

	// BoolValue holds a yes/no answer when the item is boolean.
	BoolValue *bool `json:"bool_value,omitempty"`

	// NumberValue holds a numeric answer, typically a 0-100 percentage.
	NumberValue *float64 `json:"number_value,omitempty"`

	// TextValue holds a free-text answer.
	TextValue string `json:"text_value,omitempty"`

	// FacilityScore (1-3) rates how much this answer reduces risk.
	FacilityScore *int `json:"facility_score,omitempty"`

	// ConstraintScore (1-3) rates how much this answer increases risk.
	ConstraintScore *int `json:"constraint_score,omitempty"`

	// Comment is an optional free-text remark left by the respondent.
	Comment string `json:"comment,omitempty"`
}

// IsAnswered reports whether the response carries any answer value.
func (r EvaluationResponse) IsAnswered() bool {
	return r.BoolValue != nil || r.NumberValue != nil || r.TextValue != ""
}

// Bool returns the boolean answer and whether one is present.
func (r EvaluationResponse) Bool() (bool, bool) {
	if r.BoolValue == nil {
		return false, false
	}
	return *r.BoolValue, true
}

// HasBothScores reports whether the response carries both a facility and a
// constraint rating, the strongest form of structured evidence.
func (r EvaluationResponse) HasBothScores() bool {
	return r.FacilityScore != nil && r.ConstraintScore != nil
}

// Evaluation is a completed (or in-progress) instance of a questionnaire
// for one organization. Evaluations arrive already materialized; this
// engine never persists or mutates them.
type Evaluation struct {
	// ID uniquely identifies the evaluation record.
	ID string `json:"id"`

	// Title is the human-readable name of the evaluation.
	Title string `json:"title"`

	// Status is the lifecycle state of the evaluation.
	Status EvaluationStatus `json:"status"`

	// TotalScore is the 0-100 weighted score, present once completed.
	TotalScore *float64 `json:"total_score,omitempty"`

	// RiskLevel is the classification derived from TotalScore.
	RiskLevel RiskLevel `json:"risk_level,omitempty"`

	// Sector is the organization's business sector (selects weight tables).
	Sector string `json:"sector,omitempty"`

	// CompanySize describes the organization's size bracket.
	CompanySize string `json:"company_size,omitempty"`

	// Template names the questionnaire template this evaluation used.
	Template string `json:"template,omitempty"`

	// CompletedAt records when the questionnaire was finished.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Responses is the ordered collection of answers.
	Responses []EvaluationResponse `json:"responses"`
}

// IsCompleted reports whether the evaluation is finished and carries a score.
func (e Evaluation) IsCompleted() bool {
	return e.Status == StatusCompleted && e.TotalScore != nil
}

// CategoryScore is the per-category rollup of one evaluation's responses.
// It is derived on demand and never persisted.
type CategoryScore struct {
	// Category is the taxonomy category this rollup covers.
	Category EvidenceCategory `json:"category"`

	// FacilityScore is the mean facility rating across answered items.
	FacilityScore float64 `json:"facility_score"`

	// ConstraintScore is the mean constraint rating across answered items.
	ConstraintScore float64 `json:"constraint_score"`

	// Score is the mean 0-100 question score for the category.
	Score float64 `json:"score"`

	// CompletionRate is the fraction of the category's items answered.
	CompletionRate float64 `json:"completion_rate"`

	// CriticalIssues lists question texts flagged as critical findings.
	CriticalIssues []string `json:"critical_issues"`
}

// RecommendationPriority orders remediation recommendations.
type RecommendationPriority string

// Recommendation priorities, from most to least urgent.
const (
	PriorityHigh   RecommendationPriority = "HIGH"
	PriorityMedium RecommendationPriority = "MEDIUM"
	PriorityLow    RecommendationPriority = "LOW"
)

// rank orders priorities for sorting, with PriorityHigh first.
func (p RecommendationPriority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Less reports whether p sorts before other in a priority-descending list.
func (p RecommendationPriority) Less(other RecommendationPriority) bool {
	return p.rank() < other.rank()
}

// Recommendation is a remediation item emitted by the scoring engine.
type Recommendation struct {
	// Category is the taxonomy category the recommendation targets.
	Category EvidenceCategory `json:"category"`

	// Priority orders the recommendation relative to others.
	Priority RecommendationPriority `json:"priority"`

	// Message is the human-readable remediation text.
	Message string `json:"message"`
}

// ScoringResult is the complete output of scoring one evaluation.
type ScoringResult struct {
	// TotalScore is the 0-100 weighted aggregate over present categories.
	TotalScore float64 `json:"total_score"`

	// SectionScores maps each answered category to its rollup.
	SectionScores map[EvidenceCategory]CategoryScore `json:"section_scores"`

	// RiskLevel classifies TotalScore.
	RiskLevel RiskLevel `json:"risk_level"`

	// Recommendations lists remediation items, priority descending.
	Recommendations []Recommendation `json:"recommendations"`

	// CriticalIssues lists all critical findings across categories,
	// in stable category-then-question order.
	CriticalIssues []string `json:"critical_issues"`

	// Strengths lists categories scoring at or above the low-risk threshold.
	Strengths []EvidenceCategory `json:"strengths"`

	// ImprovementAreas lists categories scoring between 40 and 60.
	ImprovementAreas []EvidenceCategory `json:"improvement_areas"`
}
