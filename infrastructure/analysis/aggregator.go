package analysis

import (
	"github.com/ahrav/go-sentinel/infrastructure/scoring"
	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
)

// Aggregator combines many evaluations' evidence into an immutable
// analysis context: aggregate statistics, per-category domain scores, the
// risk-relevant evidence subset, and an overall evidence-quality rating.
//
// The aggregator never fails: an empty evaluation set yields a context
// with zeroed statistics and EvidenceQuality 0.
type Aggregator struct {
	categorizer *taxonomy.Categorizer
	extractor   *Extractor
}

// NewAggregator builds an aggregator sharing the engine's categorizer and
// extractor.
func NewAggregator(categorizer *taxonomy.Categorizer, extractor *Extractor) *Aggregator {
	return &Aggregator{categorizer: categorizer, extractor: extractor}
}

// Build runs the aggregation pass and returns the analysis context for
// the downstream pattern detector and criterion reasoner.
func (a *Aggregator) Build(risk domain.RiskContext, evaluations []domain.Evaluation) domain.AnalysisContext {
	actx := domain.AnalysisContext{
		Risk:                 risk,
		SectorDistribution:   make(map[string]int),
		TemplateDistribution: make(map[string]int),
		DomainScores:         make(map[domain.EvidenceCategory]float64),
		Evidence:             []domain.EvidenceItem{},
		RelevantEvidence:     []domain.EvidenceItem{},
	}

	domainSums := make(map[domain.EvidenceCategory]float64)
	domainCounts := make(map[domain.EvidenceCategory]int)
	scoreSum := 0.0

	for _, eval := range evaluations {
		actx.TotalEvaluations++
		if eval.Sector != "" {
			actx.SectorDistribution[taxonomy.Fold(eval.Sector)]++
		}
		if eval.Template != "" {
			actx.TemplateDistribution[eval.Template]++
		}
		if eval.IsCompleted() {
			actx.CompletedEvaluations++
			scoreSum += *eval.TotalScore
			actx.Completed = append(actx.Completed, eval)
		}

		for _, resp := range eval.Responses {
			// Same identity requirement as the evidence extractor, so a
			// malformed response is invisible to the whole analysis.
			if resp.QuestionID == "" || resp.QuestionText == "" {
				continue
			}
			if score, ok := scoring.QuestionScore(resp); ok {
				category := a.categorizer.Categorize(resp.QuestionText)
				domainSums[category] += score
				domainCounts[category]++
			}
		}

		actx.Evidence = append(actx.Evidence, a.extractor.Extract(eval, risk)...)
	}

	if actx.CompletedEvaluations > 0 {
		actx.MeanScore = scoreSum / float64(actx.CompletedEvaluations)
	}
	actx.Maturity = domain.MaturityForScore(actx.MeanScore)

	for category, sum := range domainSums {
		actx.DomainScores[category] = sum / float64(domainCounts[category])
	}

	for _, item := range actx.Evidence {
		if IsRelevant(item) {
			actx.RelevantEvidence = append(actx.RelevantEvidence, item)
		}
	}
	actx.EvidenceQuality = evidenceQuality(actx.RelevantEvidence)

	return actx
}

// evidenceQuality computes the weighted quality average over the relevant
// evidence. Structured answers with both ratings weigh 1.5x; everything
// else weighs 1.0. The per-item contribution already carries the
// question-complexity scaling applied at extraction.
func evidenceQuality(items []domain.EvidenceItem) float64 {
	if len(items) == 0 {
		return 0
	}
	weightedSum, weightTotal := 0.0, 0.0
	for _, item := range items {
		weight := 1.0
		if item.Rated {
			weight = bothScoresWeight
		}
		weightedSum += item.Confidence * weight
		weightTotal += weight
	}
	quality := weightedSum / weightTotal
	if quality > 1 {
		quality = 1
	}
	return quality
}
