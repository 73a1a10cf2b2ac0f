package domain

// SupportType describes how a citation relates evidence to a conclusion.
type SupportType string

// Citation support types.
const (
	SupportPositive SupportType = "positive"
	SupportNegative SupportType = "negative"
	SupportNeutral  SupportType = "neutral"
)

// Citation links one EvidenceItem to one criterion conclusion. A criterion
// conclusion must be traceable to at least one citation whenever relevant
// evidence exists; zero citations is only valid when no relevant evidence
// was found, and validation reports that case explicitly.
type Citation struct {
	// EvidenceID references the cited evidence item.
	EvidenceID string `json:"evidence_id"`

	// Criterion is the conclusion the evidence supports or opposes.
	Criterion Criterion `json:"criterion"`

	// Support gives the direction of the link.
	Support SupportType `json:"support"`

	// Weight is confidence x relevance of the cited item.
	Weight float64 `json:"weight"`

	// Context optionally records why the citation was made.
	Context string `json:"context,omitempty"`
}

// CitationReport is the outcome of validating a session's citations.
// It is a first-class, testable output rather than a log side effect.
type CitationReport struct {
	// IsValid is true iff every criterion has at least one citation and
	// at least one non-neutral citation.
	IsValid bool `json:"is_valid"`

	// Issues lists the detected citation-integrity problems.
	Issues []string `json:"issues"`

	// Recommendations lists actionable remediation suggestions, one per
	// flagged condition.
	Recommendations []string `json:"recommendations"`
}
