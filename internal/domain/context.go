package domain

// RiskContext describes the target asset and threat scenario under
// analysis. It is supplied by the caller and used to filter evidence for
// relevance.
type RiskContext struct {
	// Target is the asset or site the scenario threatens.
	Target string `json:"target"`

	// Scenario is the threat scenario wording.
	Scenario string `json:"scenario"`

	// Category optionally narrows the analysis to one taxonomy category.
	Category EvidenceCategory `json:"category,omitempty"`
}

// MaturityLevel is a coarse reading of an organization's security
// maturity, derived from the mean total score of its evaluations.
type MaturityLevel string

// Maturity levels.
const (
	MaturityLow    MaturityLevel = "low"
	MaturityMedium MaturityLevel = "medium"
	MaturityHigh   MaturityLevel = "high"
)

// MaturityForScore maps a mean total score to a maturity level.
func MaturityForScore(mean float64) MaturityLevel {
	switch {
	case mean > 70:
		return MaturityHigh
	case mean >= 40:
		return MaturityMedium
	default:
		return MaturityLow
	}
}

// AnalysisContext is the immutable aggregate built from the full
// evaluation set for one analysis run. It is produced by the aggregator
// and passed by value to the pattern detector and the criterion reasoner;
// no stage mutates it.
//
// An empty evaluation set yields a context with zeroed statistics and
// EvidenceQuality 0, never an error.
type AnalysisContext struct {
	// Risk is the scenario under analysis.
	Risk RiskContext `json:"risk"`

	// TotalEvaluations counts every supplied record.
	TotalEvaluations int `json:"total_evaluations"`

	// CompletedEvaluations counts records with a final score.
	CompletedEvaluations int `json:"completed_evaluations"`

	// MeanScore is the mean total score over completed evaluations.
	MeanScore float64 `json:"mean_score"`

	// Maturity is derived from MeanScore.
	Maturity MaturityLevel `json:"maturity"`

	// SectorDistribution counts evaluations per sector.
	SectorDistribution map[string]int `json:"sector_distribution"`

	// TemplateDistribution counts evaluations per questionnaire template.
	TemplateDistribution map[string]int `json:"template_distribution"`

	// DomainScores maps each taxonomy category to the mean 0-100 score of
	// its boolean and numeric answers across all evaluations.
	DomainScores map[EvidenceCategory]float64 `json:"domain_scores"`

	// Evidence holds every extracted evidence item, in input order.
	Evidence []EvidenceItem `json:"evidence"`

	// RelevantEvidence holds the subset whose relevance passed the
	// risk-context filter, in input order.
	RelevantEvidence []EvidenceItem `json:"relevant_evidence"`

	// EvidenceQuality in [0,1] rates the relevant evidence overall.
	EvidenceQuality float64 `json:"evidence_quality"`

	// Completed holds the completed evaluations, kept for the pattern
	// detector's temporal and sectoral passes.
	Completed []Evaluation `json:"-"`
}

// DominantSector returns the most frequent sector and its count.
// Ties resolve to the lexicographically smallest sector for determinism.
func (c AnalysisContext) DominantSector() (string, int) {
	best, bestN := "", 0
	for sector, n := range c.SectorDistribution {
		if n > bestN || (n == bestN && sector < best) {
			best, bestN = sector, n
		}
	}
	return best, bestN
}
