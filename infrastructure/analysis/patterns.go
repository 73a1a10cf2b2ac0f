package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
)

// Detector thresholds. Fewer than minSampleSize completed evaluations is
// a documented boundary condition: every detector returns empty, non-nil
// collections rather than an error.
const (
	minSampleSize = 3

	// weaknessFrequencyThreshold keeps a recurring "no" answer once it
	// appears in at least this fraction of completed evaluations.
	weaknessFrequencyThreshold = 0.30

	// temporalDelta is the mean-score swing, in points, that marks a
	// degradation or improvement trend between the two halves.
	temporalDelta = 10.0

	// sectorDeviation is the distance from the global mean, in points,
	// that marks a sector-specific pattern.
	sectorDeviation = 15.0

	// minSectorSample is the minimum evaluations a sector needs before it
	// is a candidate for sector-specific extraction.
	minSectorSample = 2

	// anomalySigmas flags scores beyond this many population standard
	// deviations from the mean.
	anomalySigmas = 2.0
)

// Detector mines the aggregated context for recurring weaknesses,
// temporal trends, sector deviations, and statistical outliers. It is
// read-only over the analysis context.
type Detector struct {
	categorizer  *taxonomy.Categorizer
	riskKeywords map[domain.EvidenceCategory][]string
}

// NewDetector builds a detector. riskKeywords maps each taxonomy category
// to the scenario vocabulary that makes its weaknesses relevant; nil
// falls back to the built-in table.
func NewDetector(categorizer *taxonomy.Categorizer, riskKeywords map[domain.EvidenceCategory][]string) *Detector {
	if riskKeywords == nil {
		riskKeywords = DefaultCategoryRiskKeywords()
	}
	return &Detector{categorizer: categorizer, riskKeywords: riskKeywords}
}

// DefaultCategoryRiskKeywords returns the built-in category-to-scenario
// relevance table used to decide whether a recurring weakness matters for
// the scenario under analysis.
func DefaultCategoryRiskKeywords() map[domain.EvidenceCategory][]string {
	return map[domain.EvidenceCategory][]string{
		domain.CategoryAccessControl:     {"accès", "intrusion", "vol", "sabotage", "malveillance"},
		domain.CategorySurveillance:      {"intrusion", "vol", "surveillance", "cambriolage"},
		domain.CategoryPerimeter:         {"intrusion", "périmètre", "clôture", "accès", "cambriolage"},
		domain.CategoryTraining:          {"erreur", "formation", "humain", "négligence"},
		domain.CategoryProcedures:        {"procédure", "organisation", "urgence", "crise"},
		domain.CategoryIncidents:         {"incident", "récidive", "accident"},
		domain.CategoryInfrastructure:    {"panne", "électrique", "énergie", "incendie", "infrastructure", "explosion", "défaillance"},
		domain.CategoryDataProtection:    {"cyberattaque", "cyber", "données", "informatique", "ransomware"},
		domain.CategoryPersonnelSecurity: {"interne", "malveillance", "personnel", "sabotage"},
	}
}

// Detect runs every detector over the context. The result's slices are
// always non-nil; with fewer than three completed evaluations they are
// all empty.
func (d *Detector) Detect(actx domain.AnalysisContext) domain.PatternSet {
	ps := domain.PatternSet{
		Recurring: []domain.CrossEvaluationPattern{},
		Temporal:  []domain.CrossEvaluationPattern{},
		Sectoral:  []domain.CrossEvaluationPattern{},
		Anomalies: []domain.Anomaly{},
	}
	if actx.CompletedEvaluations < minSampleSize {
		return ps
	}

	ps.Recurring = d.recurringWeaknesses(actx)
	ps.Temporal = d.temporalPatterns(actx)
	ps.Sectoral = d.sectoralPatterns(actx)
	ps.Anomalies = d.anomalies(actx)
	return ps
}

// weaknessKey identifies one category + normalized question pair.
type weaknessKey struct {
	category domain.EvidenceCategory
	question string
}

// recurringWeaknesses finds boolean questions answered "no" in at least
// 30% of completed evaluations, keeping only those whose category relates
// to the scenario under analysis. A single negative answer is never
// recurring, whatever frequency it reaches in a small sample.
func (d *Detector) recurringWeaknesses(actx domain.AnalysisContext) []domain.CrossEvaluationPattern {
	type tally struct {
		question string
		negative map[string]struct{}
	}
	tallies := make(map[weaknessKey]*tally)

	for _, eval := range actx.Completed {
		for _, resp := range eval.Responses {
			answer, ok := resp.Bool()
			if !ok || answer || resp.QuestionText == "" {
				continue
			}
			key := weaknessKey{
				category: d.categorizer.Categorize(resp.QuestionText),
				question: taxonomy.Fold(resp.QuestionText),
			}
			t, seen := tallies[key]
			if !seen {
				t = &tally{question: resp.QuestionText, negative: make(map[string]struct{})}
				tallies[key] = t
			}
			t.negative[eval.ID] = struct{}{}
		}
	}

	scenarioText := actx.Risk.Target + " " + actx.Risk.Scenario
	total := float64(len(actx.Completed))

	keys := make([]weaknessKey, 0, len(tallies))
	for key := range tallies {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].question < keys[j].question
	})

	patterns := []domain.CrossEvaluationPattern{}
	for _, key := range keys {
		t := tallies[key]
		if len(t.negative) < 2 {
			continue
		}
		frequency := float64(len(t.negative)) / total
		if frequency < weaknessFrequencyThreshold {
			continue
		}
		if !d.categoryRelatesToScenario(key.category, scenarioText) {
			continue
		}
		patterns = append(patterns, domain.CrossEvaluationPattern{
			Kind: domain.PatternRecurringWeakness,
			Description: fmt.Sprintf("%q answered negatively in %.0f%% of evaluations",
				t.question, frequency*100),
			EvaluationIDs: sortedKeys(t.negative),
			Strength:      frequency,
			Implication: fmt.Sprintf("Recurring gap in %s controls directly exposed by the scenario",
				key.category),
			RiskRelevance: []domain.Criterion{domain.CriterionProbability, domain.CriterionVulnerability},
		})
	}
	return patterns
}

// categoryRelatesToScenario checks the category's risk vocabulary against
// the combined target + scenario text.
func (d *Detector) categoryRelatesToScenario(category domain.EvidenceCategory, scenarioText string) bool {
	for _, kw := range d.riskKeywords[category] {
		if taxonomy.ContainsKeyword(scenarioText, kw) {
			return true
		}
	}
	return false
}

// temporalPatterns splits completed evaluations into chronological halves
// and reports a degradation or improvement when the mean score swings by
// more than temporalDelta points.
func (d *Detector) temporalPatterns(actx domain.AnalysisContext) []domain.CrossEvaluationPattern {
	dated := make([]domain.Evaluation, 0, len(actx.Completed))
	for _, eval := range actx.Completed {
		if eval.CompletedAt != nil {
			dated = append(dated, eval)
		}
	}
	if len(dated) < minSampleSize {
		return []domain.CrossEvaluationPattern{}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].CompletedAt.Before(*dated[j].CompletedAt)
	})

	half := len(dated) / 2
	firstMean := meanTotalScore(dated[:half])
	secondMean := meanTotalScore(dated[half:])
	delta := firstMean - secondMean

	ids := make([]string, 0, len(dated))
	for _, eval := range dated {
		ids = append(ids, eval.ID)
	}

	switch {
	case delta > temporalDelta:
		return []domain.CrossEvaluationPattern{{
			Kind: domain.PatternDegradation,
			Description: fmt.Sprintf("Mean score degraded from %.1f to %.1f across the evaluation history",
				firstMean, secondMean),
			EvaluationIDs: ids,
			Strength:      math.Min(delta/100, 1),
			Implication:   "Security posture is trending downward; recent evaluations score materially worse",
			RiskRelevance: []domain.Criterion{domain.CriterionProbability, domain.CriterionVulnerability},
		}}
	case -delta > temporalDelta:
		return []domain.CrossEvaluationPattern{{
			Kind: domain.PatternImprovement,
			Description: fmt.Sprintf("Mean score improved from %.1f to %.1f across the evaluation history",
				firstMean, secondMean),
			EvaluationIDs: ids,
			Strength:      math.Min(-delta/100, 1),
			Implication:   "Security posture is trending upward; recent evaluations score materially better",
			RiskRelevance: []domain.Criterion{},
		}}
	default:
		return []domain.CrossEvaluationPattern{}
	}
}

// sectoralPatterns reports sectors with at least two completed
// evaluations whose mean deviates from the global mean by more than
// sectorDeviation points.
func (d *Detector) sectoralPatterns(actx domain.AnalysisContext) []domain.CrossEvaluationPattern {
	bySector := make(map[string][]domain.Evaluation)
	for _, eval := range actx.Completed {
		if eval.Sector == "" {
			continue
		}
		sector := taxonomy.Fold(eval.Sector)
		bySector[sector] = append(bySector[sector], eval)
	}

	sectors := make([]string, 0, len(bySector))
	for sector := range bySector {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	patterns := []domain.CrossEvaluationPattern{}
	for _, sector := range sectors {
		group := bySector[sector]
		if len(group) < minSectorSample {
			continue
		}
		sectorMean := meanTotalScore(group)
		deviation := sectorMean - actx.MeanScore
		if math.Abs(deviation) <= sectorDeviation {
			continue
		}

		ids := make([]string, 0, len(group))
		for _, eval := range group {
			ids = append(ids, eval.ID)
		}

		pattern := domain.CrossEvaluationPattern{
			Kind:          domain.PatternSectoral,
			EvaluationIDs: ids,
			Strength:      math.Min(math.Abs(deviation)/100, 1),
		}
		if deviation < 0 {
			pattern.Description = fmt.Sprintf("Sector %s scores %.1f, %.1f points below the overall mean",
				sector, sectorMean, -deviation)
			pattern.Implication = "Sector-wide underperformance concentrates exposure"
			pattern.RiskRelevance = []domain.Criterion{domain.CriterionVulnerability}
		} else {
			pattern.Description = fmt.Sprintf("Sector %s scores %.1f, %.1f points above the overall mean",
				sector, sectorMean, deviation)
			pattern.Implication = "Sector-wide outperformance relative to the rest of the portfolio"
			pattern.RiskRelevance = []domain.Criterion{}
		}
		patterns = append(patterns, pattern)
	}
	return patterns
}

// anomalies flags completed evaluations whose total score deviates from
// the sample mean by more than two population standard deviations.
func (d *Detector) anomalies(actx domain.AnalysisContext) []domain.Anomaly {
	scores := make([]float64, 0, len(actx.Completed))
	for _, eval := range actx.Completed {
		scores = append(scores, *eval.TotalScore)
	}

	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	stddev := math.Sqrt(variance / float64(len(scores)))
	if stddev == 0 {
		return []domain.Anomaly{}
	}

	anomalies := []domain.Anomaly{}
	for _, eval := range actx.Completed {
		deviation := math.Abs(*eval.TotalScore - mean)
		if deviation > anomalySigmas*stddev {
			anomalies = append(anomalies, domain.Anomaly{
				EvaluationID: eval.ID,
				Title:        eval.Title,
				Score:        *eval.TotalScore,
				Deviation:    deviation,
			})
		}
	}
	return anomalies
}

// meanTotalScore averages the total scores of completed evaluations.
func meanTotalScore(evals []domain.Evaluation) float64 {
	if len(evals) == 0 {
		return 0
	}
	sum := 0.0
	for _, eval := range evals {
		sum += *eval.TotalScore
	}
	return sum / float64(len(evals))
}

// sortedKeys returns the set's members in lexical order for deterministic
// pattern output.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// joinCriteria renders relevance tags for pattern summaries.
func joinCriteria(criteria []domain.Criterion) string {
	parts := make([]string, len(criteria))
	for i, c := range criteria {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
