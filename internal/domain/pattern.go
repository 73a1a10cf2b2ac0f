package domain

// Criterion is one of the three independently scored dimensions of a risk
// scenario.
type Criterion string

// The three risk criteria.
const (
	CriterionProbability   Criterion = "probability"
	CriterionVulnerability Criterion = "vulnerability"
	CriterionImpact        Criterion = "impact"
)

// AllCriteria lists the criteria in their canonical reporting order.
func AllCriteria() []Criterion {
	return []Criterion{CriterionProbability, CriterionVulnerability, CriterionImpact}
}

// PatternKind distinguishes the detector that produced a pattern.
type PatternKind string

// Pattern kinds emitted by the detector.
const (
	PatternRecurringWeakness PatternKind = "recurring_weakness"
	PatternDegradation       PatternKind = "degradation"
	PatternImprovement       PatternKind = "improvement"
	PatternSectoral          PatternKind = "sectoral"
)

// CrossEvaluationPattern is a regularity detected across two or more
// evaluation records rather than within one.
type CrossEvaluationPattern struct {
	// Kind identifies the detector that produced the pattern.
	Kind PatternKind `json:"kind"`

	// Description is the human-readable statement of the regularity.
	Description string `json:"description"`

	// EvaluationIDs lists the evaluations involved.
	EvaluationIDs []string `json:"evaluation_ids"`

	// Strength in [0,1] sizes the pattern, typically a frequency.
	Strength float64 `json:"strength"`

	// Implication explains what the pattern means for the risk posture.
	Implication string `json:"implication"`

	// RiskRelevance tags the criteria the pattern affects.
	RiskRelevance []Criterion `json:"risk_relevance"`
}

// AffectsCriterion reports whether the pattern's relevance tags include c.
func (p CrossEvaluationPattern) AffectsCriterion(c Criterion) bool {
	for _, rc := range p.RiskRelevance {
		if rc == c {
			return true
		}
	}
	return false
}

// Anomaly flags an evaluation whose total score deviates from the sample
// mean by more than two population standard deviations.
type Anomaly struct {
	// EvaluationID identifies the outlier record.
	EvaluationID string `json:"evaluation_id"`

	// Title is the outlier evaluation's title.
	Title string `json:"title"`

	// Score is the outlier's total score.
	Score float64 `json:"score"`

	// Deviation is the absolute distance from the sample mean.
	Deviation float64 `json:"deviation"`
}

// PatternSet bundles the output of all pattern detectors for one analysis
// run. All slices are non-nil; when fewer than three completed evaluations
// are available every slice is empty, which is a documented boundary
// condition rather than an error.
type PatternSet struct {
	// Recurring lists weaknesses observed across evaluations.
	Recurring []CrossEvaluationPattern `json:"recurring"`

	// Temporal lists degradation or improvement trends over time.
	Temporal []CrossEvaluationPattern `json:"temporal"`

	// Sectoral lists sector-specific deviations.
	Sectoral []CrossEvaluationPattern `json:"sectoral"`

	// Anomalies lists statistical outliers with titles and scores.
	Anomalies []Anomaly `json:"anomalies"`
}

// All flattens the pattern slices in detector order.
func (ps PatternSet) All() []CrossEvaluationPattern {
	out := make([]CrossEvaluationPattern, 0, len(ps.Recurring)+len(ps.Temporal)+len(ps.Sectoral))
	out = append(out, ps.Recurring...)
	out = append(out, ps.Temporal...)
	out = append(out, ps.Sectoral...)
	return out
}

// CriterionAssessment is the scored judgment for one criterion, with its
// supporting and opposing evidence and a confidence value.
//
// When no evidence of a polarity exists the corresponding list carries an
// explicit placeholder entry; callers must never infer "no evidence" from
// an empty list alone.
type CriterionAssessment struct {
	// Criterion identifies which dimension was scored.
	Criterion Criterion `json:"criterion"`

	// Score is the integer score within the criterion's documented range.
	Score int `json:"score"`

	// Explanation summarizes how the score was reached.
	Explanation string `json:"explanation"`

	// PositiveEvidence lists statements that lower the risk reading.
	PositiveEvidence []string `json:"positive_evidence"`

	// NegativeEvidence lists statements that raise the risk reading.
	NegativeEvidence []string `json:"negative_evidence"`

	// ContextualFactors lists the named influences applied to the score.
	ContextualFactors []ContextualFactor `json:"contextual_factors"`

	// Confidence is the certainty of the judgment. Deterministic
	// assessments stay in [0.5, 0.95]; oracle-failure fallbacks carry 0.3.
	Confidence float64 `json:"confidence"`

	// Reasoning is the step-by-step account of the adjustments applied.
	Reasoning string `json:"reasoning"`
}

// ReasoningResult bundles the three criterion assessments and the
// synthesized narrative produced by one analysis run.
type ReasoningResult struct {
	// Probability is the likelihood assessment (1-3).
	Probability CriterionAssessment `json:"probability"`

	// Vulnerability is the exposure assessment (1-4).
	Vulnerability CriterionAssessment `json:"vulnerability"`

	// Impact is the consequence assessment (1-5).
	Impact CriterionAssessment `json:"impact"`

	// OverallAssessment is the synthesized narrative judgment.
	OverallAssessment string `json:"overall_assessment"`

	// ContextualInsights lists notable observations about the input set.
	ContextualInsights []string `json:"contextual_insights"`

	// Patterns carries the detected cross-evaluation patterns.
	Patterns PatternSet `json:"patterns"`

	// QuestionnaireRecommendations suggests evidence gaps worth closing.
	QuestionnaireRecommendations []string `json:"questionnaire_recommendations"`

	// ConfidenceLevel is the mean confidence across the three criteria.
	ConfidenceLevel float64 `json:"confidence_level"`
}

// Assessment returns the assessment for the given criterion.
func (r ReasoningResult) Assessment(c Criterion) CriterionAssessment {
	switch c {
	case CriterionProbability:
		return r.Probability
	case CriterionVulnerability:
		return r.Vulnerability
	default:
		return r.Impact
	}
}

// ReasoningRequest is the structured evidence-context document this engine
// assembles for the external reasoning oracle. It carries everything the
// oracle needs to refine one criterion judgment, including the numeric
// score-range contract.
type ReasoningRequest struct {
	// Criterion names the dimension under analysis.
	Criterion Criterion `json:"criterion"`

	// Target is the asset under analysis.
	Target string `json:"target"`

	// Scenario is the threat scenario under analysis.
	Scenario string `json:"scenario"`

	// ScoreMin and ScoreMax state the valid integer score range.
	ScoreMin int `json:"score_min"`
	ScoreMax int `json:"score_max"`

	// BaselineScore is the deterministic score computed locally.
	BaselineScore int `json:"baseline_score"`

	// EvidenceSummary lists the most relevant evidence statements.
	EvidenceSummary []string `json:"evidence_summary"`

	// DomainScores maps taxonomy categories to their mean scores.
	DomainScores map[EvidenceCategory]float64 `json:"domain_scores,omitempty"`

	// Patterns lists detected cross-evaluation pattern descriptions.
	Patterns []string `json:"patterns,omitempty"`

	// Weaknesses and Strengths summarize the aggregated posture.
	Weaknesses []string `json:"weaknesses,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`

	// Instructions tells the oracle how to respond.
	Instructions string `json:"instructions"`
}

// ReasoningResponse is the structured judgment returned by the external
// reasoning oracle. Malformed responses are treated like transport
// failures and replaced by a local fallback.
type ReasoningResponse struct {
	// Score is the oracle's refined score, within the requested range.
	Score float64 `json:"score" validate:"required"`

	// Explanation is the oracle's narrative justification.
	Explanation string `json:"explanation" validate:"required,min=10"`

	// PositivePoints lists risk-lowering observations.
	PositivePoints []string `json:"positive_points"`

	// NegativePoints lists risk-raising observations.
	NegativePoints []string `json:"negative_points"`

	// Confidence is the oracle's self-reported certainty in [0,1].
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`
}
