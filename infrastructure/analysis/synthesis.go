package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// Synthesis thresholds over the criterion scores and the input set.
const (
	// criticalRiskIndex flags scenarios whose combined normalized score
	// crosses into the highest narrative tier.
	criticalRiskIndex = 0.75
	elevatedRiskIndex = 0.5

	// minIdealEvidence is the evidence count below which the synthesis
	// recommends extending the questionnaire.
	minIdealEvidence = 10
)

// Synthesize assembles the final reasoning result from the three
// criterion assessments and the detected patterns. This is deterministic
// text templating over already-computed numbers, not a scored algorithm.
func Synthesize(
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
	probability, vulnerability, impact domain.CriterionAssessment,
) domain.ReasoningResult {
	return domain.ReasoningResult{
		Probability:                  probability,
		Vulnerability:                vulnerability,
		Impact:                       impact,
		OverallAssessment:            overallAssessment(actx, probability, vulnerability, impact),
		ContextualInsights:           contextualInsights(actx, patterns),
		Patterns:                     patterns,
		QuestionnaireRecommendations: questionnaireRecommendations(actx, patterns),
		ConfidenceLevel:              (probability.Confidence + vulnerability.Confidence + impact.Confidence) / 3,
	}
}

// overallAssessment renders the combined narrative judgment. The risk
// index normalizes each score by its range ceiling so the three unequal
// scales contribute evenly.
func overallAssessment(
	actx domain.AnalysisContext,
	probability, vulnerability, impact domain.CriterionAssessment,
) string {
	index := (float64(probability.Score)/3 + float64(vulnerability.Score)/4 + float64(impact.Score)/5) / 3

	var tier string
	switch {
	case index >= criticalRiskIndex:
		tier = "critical"
	case index >= elevatedRiskIndex:
		tier = "elevated"
	default:
		tier = "moderate"
	}

	return fmt.Sprintf(
		"The scenario %q against %q presents a %s risk profile: probability %d/3, vulnerability %d/4, impact %d/5. "+
			"The judgment draws on %d evaluations (%d completed, mean score %.1f, %s security maturity).",
		actx.Risk.Scenario, actx.Risk.Target, tier,
		probability.Score, vulnerability.Score, impact.Score,
		actx.TotalEvaluations, actx.CompletedEvaluations, actx.MeanScore, actx.Maturity)
}

// contextualInsights lists notable observations about the evidence base
// and the detected patterns.
func contextualInsights(actx domain.AnalysisContext, patterns domain.PatternSet) []string {
	insights := make([]string, 0, 4)

	if sector, count := actx.DominantSector(); sector != "" && len(actx.SectorDistribution) > 0 {
		insights = append(insights, fmt.Sprintf(
			"Dominant sector is %q (%d of %d evaluations)", sector, count, actx.TotalEvaluations))
	}

	if actx.EvidenceQuality > 0 {
		insights = append(insights, fmt.Sprintf(
			"Evidence quality is %.2f across %d relevant items (%d extracted in total)",
			actx.EvidenceQuality, len(actx.RelevantEvidence), len(actx.Evidence)))
	}

	for _, pattern := range patterns.All() {
		line := pattern.Description
		if len(pattern.RiskRelevance) > 0 {
			line += " (affects " + joinCriteria(pattern.RiskRelevance) + ")"
		}
		insights = append(insights, line)
	}

	for _, anomaly := range patterns.Anomalies {
		insights = append(insights, fmt.Sprintf(
			"Evaluation %q deviates from the population mean by %.1f points (score %.1f)",
			anomaly.Title, anomaly.Deviation, anomaly.Score))
	}

	return insights
}

// questionnaireRecommendations names the evidence gaps worth closing to
// raise the confidence of future analyses.
func questionnaireRecommendations(actx domain.AnalysisContext, patterns domain.PatternSet) []string {
	recs := make([]string, 0, 4)

	if actx.CompletedEvaluations < 3 {
		recs = append(recs, fmt.Sprintf(
			"Complete more evaluations: %d completed is below the 3 required for cross-evaluation patterns",
			actx.CompletedEvaluations))
	}

	if len(actx.RelevantEvidence) < minIdealEvidence {
		recs = append(recs, fmt.Sprintf(
			"Add questions specific to the scenario %q: only %d relevant evidence items were found",
			actx.Risk.Scenario, len(actx.RelevantEvidence)))
	}

	for _, category := range weakCategories(actx.DomainScores) {
		recs = append(recs, fmt.Sprintf(
			"Deepen coverage of %s: its mean score of %.0f/100 suggests a weakness worth probing further",
			category, actx.DomainScores[category]))
	}

	for _, pattern := range patterns.Recurring {
		recs = append(recs, "Track remediation of recurring weakness: "+pattern.Description)
	}

	return recs
}

// weakCategories returns taxonomy categories scoring below 40, sorted.
func weakCategories(scores map[domain.EvidenceCategory]float64) []domain.EvidenceCategory {
	var weak []domain.EvidenceCategory
	for category, score := range scores {
		if score < 40 {
			weak = append(weak, category)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		return strings.Compare(string(weak[i]), string(weak[j])) < 0
	})
	return weak
}
