package domain

import "fmt"

// EvidenceCategory is the fixed taxonomy used to classify questionnaire
// items and the evidence derived from them.
type EvidenceCategory string

// The evidence taxonomy. CategoryGeneral is the fallback when no
// categorization rule matches a question.
const (
	CategoryAccessControl     EvidenceCategory = "access_control"
	CategorySurveillance      EvidenceCategory = "surveillance"
	CategoryPerimeter         EvidenceCategory = "perimeter"
	CategoryTraining          EvidenceCategory = "training"
	CategoryProcedures        EvidenceCategory = "procedures"
	CategoryIncidents         EvidenceCategory = "incidents"
	CategoryInfrastructure    EvidenceCategory = "infrastructure"
	CategoryDataProtection    EvidenceCategory = "data_protection"
	CategoryPersonnelSecurity EvidenceCategory = "personnel_security"
	CategoryGeneral           EvidenceCategory = "general"
)

// Categories lists the full taxonomy in priority order.
func Categories() []EvidenceCategory {
	return []EvidenceCategory{
		CategoryAccessControl,
		CategorySurveillance,
		CategoryPerimeter,
		CategoryTraining,
		CategoryProcedures,
		CategoryIncidents,
		CategoryInfrastructure,
		CategoryDataProtection,
		CategoryPersonnelSecurity,
		CategoryGeneral,
	}
}

// ResponseType describes the shape of the answer an evidence item was
// derived from.
type ResponseType string

// Supported evidence response types.
const (
	ResponseBoolean    ResponseType = "boolean"
	ResponsePercentage ResponseType = "percentage"
	ResponseText       ResponseType = "text"
	ResponseScore      ResponseType = "score"
)

// EvidenceItem is a normalized, confidence/relevance-scored fact derived
// from exactly one EvaluationResponse. Items are rebuilt deterministically
// on every analysis run and never persisted.
type EvidenceItem struct {
	// ID is a stable composite of evaluation id and question id.
	ID string `json:"id"`

	// Source is the title of the evaluation the item came from.
	Source string `json:"source"`

	// Category is the taxonomy category of the originating question.
	Category EvidenceCategory `json:"category"`

	// ResponseType describes the shape of the underlying answer.
	ResponseType ResponseType `json:"response_type"`

	// Value is the rendered answer value ("true", "75", free text, ...).
	Value string `json:"value"`

	// Question is the normalized question text, kept for relevance checks.
	Question string `json:"question"`

	// BoolValue mirrors a boolean answer for polarity checks.
	BoolValue *bool `json:"bool_value,omitempty"`

	// NumberValue mirrors a numeric answer for threshold checks.
	NumberValue *float64 `json:"number_value,omitempty"`

	// Rated marks items whose source answer carried both a facility and
	// a constraint rating; such items weigh more in quality averages.
	Rated bool `json:"rated,omitempty"`

	// Confidence in [0,1] rates how trustworthy the item is.
	Confidence float64 `json:"confidence"`

	// Relevance in [0,1] rates how related the item is to the risk context.
	Relevance float64 `json:"relevance"`
}

// EvidenceID builds the stable composite identifier for an evidence item.
func EvidenceID(evaluationID, questionID string) string {
	return fmt.Sprintf("%s:%s", evaluationID, questionID)
}

// Weight is the citation weight of the item, confidence x relevance.
func (e EvidenceItem) Weight() float64 {
	return e.Confidence * e.Relevance
}

// FactorImpact describes the direction of a contextual factor's influence
// on a criterion score.
type FactorImpact string

// Contextual factor impact directions.
const (
	ImpactPositive FactorImpact = "positive"
	ImpactNegative FactorImpact = "negative"
	ImpactNeutral  FactorImpact = "neutral"
)

// ContextualFactor is a named influence on a criterion score, such as a
// sector multiplier or a maturity adjustment.
type ContextualFactor struct {
	// Factor names the influence.
	Factor string `json:"factor"`

	// Impact gives the direction of the influence.
	Impact FactorImpact `json:"impact"`

	// Magnitude in [0,1] sizes the influence.
	Magnitude float64 `json:"magnitude"`

	// Explanation describes why the factor applies.
	Explanation string `json:"explanation"`

	// EvidenceIDs lists supporting evidence items, when any exist.
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
}
