package scoring

import (
	"fmt"
	"sort"

	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
)

// Question score adjustment constants. A positive boolean answer earns the
// full base score; facility ratings add headroom above it and constraint
// ratings pull any answer down.
const (
	baseScorePositive    = 100.0
	facilityBonusPerStep = 10.0
	constraintPenalty    = 5.0

	// maxConstraintRating is the constraint value that flags an answer as
	// critical inside a critical category.
	maxConstraintRating = 3

	lowCompletionThreshold = 0.8
	weakCategoryThreshold  = 40.0
	improvementLower       = 40.0
	improvementUpper       = 60.0
)

// Engine scores one evaluation's responses against a sector weight table.
// Scoring is a pure function of its inputs: no side effects, no I/O, and
// identical input always yields an identical result, including ordering.
type Engine struct {
	cfg          Config
	categorizer  *taxonomy.Categorizer
	criticalCats map[domain.EvidenceCategory]struct{}
}

// NewEngine builds a scoring engine from validated tables and a shared
// categorizer.
func NewEngine(cfg Config, categorizer *taxonomy.Categorizer) (*Engine, error) {
	if categorizer == nil {
		return nil, fmt.Errorf("categorizer cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	critical := make(map[domain.EvidenceCategory]struct{}, len(cfg.CriticalCategories))
	for _, c := range cfg.CriticalCategories {
		critical[c] = struct{}{}
	}
	return &Engine{cfg: cfg, categorizer: categorizer, criticalCats: critical}, nil
}

// categoryAccumulator collects per-category state during a single pass
// over the responses.
type categoryAccumulator struct {
	category       domain.EvidenceCategory
	scoreSum       float64
	scored         int
	answered       int
	total          int
	facilitySum    float64
	facilityCount  int
	constraintSum  float64
	constraintCnt  int
	criticalIssues []string
}

// Score computes the weighted scoring result for one evaluation.
//
// Responses missing a question id or question text are skipped and do not
// contribute; a malformed response never aborts scoring. Categories with
// zero scored questions are excluded from the weighted total rather than
// counted as zero, and absent-category weights are intentionally not
// renormalized: missing sections lower the total instead of being
// compensated.
func (e *Engine) Score(responses []domain.EvaluationResponse, sector string) domain.ScoringResult {
	weights := e.weightsForSector(sector)

	accs := make(map[domain.EvidenceCategory]*categoryAccumulator)
	order := make([]domain.EvidenceCategory, 0, 8)

	for _, resp := range responses {
		if resp.QuestionID == "" || resp.QuestionText == "" {
			continue
		}

		category := e.categorizer.Categorize(resp.QuestionText)
		acc, ok := accs[category]
		if !ok {
			acc = &categoryAccumulator{category: category}
			accs[category] = acc
			order = append(order, category)
		}
		acc.total++

		if resp.IsAnswered() {
			acc.answered++
		}
		if score, ok := QuestionScore(resp); ok {
			acc.scoreSum += score
			acc.scored++
		}
		if resp.FacilityScore != nil {
			acc.facilitySum += float64(*resp.FacilityScore)
			acc.facilityCount++
		}
		if resp.ConstraintScore != nil {
			acc.constraintSum += float64(*resp.ConstraintScore)
			acc.constraintCnt++
		}
		if e.isCriticalIssue(resp, category) {
			acc.criticalIssues = append(acc.criticalIssues, resp.QuestionText)
		}
	}

	result := domain.ScoringResult{
		SectionScores:    make(map[domain.EvidenceCategory]domain.CategoryScore, len(accs)),
		Recommendations:  []domain.Recommendation{},
		CriticalIssues:   []string{},
		Strengths:        []domain.EvidenceCategory{},
		ImprovementAreas: []domain.EvidenceCategory{},
	}

	total := 0.0
	for _, category := range order {
		acc := accs[category]
		section := acc.rollup()
		result.SectionScores[category] = section

		if acc.scored > 0 {
			if w, ok := weights[category]; ok {
				total += section.Score * w
			}
			switch {
			case section.Score >= domain.LowRiskThreshold:
				result.Strengths = append(result.Strengths, category)
			case section.Score >= improvementLower && section.Score <= improvementUpper:
				result.ImprovementAreas = append(result.ImprovementAreas, category)
			}
		}

		result.CriticalIssues = append(result.CriticalIssues, section.CriticalIssues...)
		result.Recommendations = append(result.Recommendations, recommendationsFor(acc, section)...)
	}

	result.TotalScore = clamp(total, 0, 100)
	result.RiskLevel = domain.RiskLevelForScore(result.TotalScore)

	// Priority descending; ties keep category appearance order.
	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].Priority.Less(result.Recommendations[j].Priority)
	})

	return result
}

// weightsForSector resolves the weight table for a sector, falling back
// to the default table for unknown sectors.
func (e *Engine) weightsForSector(sector string) map[domain.EvidenceCategory]float64 {
	if sector != "" {
		if weights, ok := e.cfg.SectorWeights[taxonomy.Fold(sector)]; ok {
			return weights
		}
	}
	return e.cfg.DefaultWeights
}

// QuestionScore converts one response into a 0-100 score. Text-only
// answers are not scorable; they count toward completion but never toward
// the category mean.
func QuestionScore(resp domain.EvaluationResponse) (float64, bool) {
	if answer, ok := resp.Bool(); ok {
		score := 0.0
		if answer {
			score = baseScorePositive
			if resp.FacilityScore != nil {
				score += facilityBonusPerStep * float64(*resp.FacilityScore-1)
			}
		}
		if resp.ConstraintScore != nil {
			score -= constraintPenalty * float64(*resp.ConstraintScore)
		}
		return clamp(score, 0, 100), true
	}
	if resp.NumberValue != nil {
		return clamp(*resp.NumberValue, 0, 100), true
	}
	return 0, false
}

// isCriticalIssue applies the two critical-finding rules: a "no" on a
// high-criticality keyword, or a maximal constraint rating inside a
// critical category.
func (e *Engine) isCriticalIssue(resp domain.EvaluationResponse, category domain.EvidenceCategory) bool {
	if answer, ok := resp.Bool(); ok && !answer {
		for _, kw := range e.cfg.CriticalKeywords {
			if taxonomy.ContainsKeyword(resp.QuestionText, kw) {
				return true
			}
		}
	}
	if resp.ConstraintScore != nil && *resp.ConstraintScore >= maxConstraintRating {
		if _, ok := e.criticalCats[category]; ok {
			return true
		}
	}
	return false
}

// rollup finalizes the per-category score card.
func (acc *categoryAccumulator) rollup() domain.CategoryScore {
	section := domain.CategoryScore{
		Category:       acc.category,
		CriticalIssues: acc.criticalIssues,
	}
	if section.CriticalIssues == nil {
		section.CriticalIssues = []string{}
	}
	if acc.scored > 0 {
		section.Score = acc.scoreSum / float64(acc.scored)
	}
	if acc.total > 0 {
		section.CompletionRate = float64(acc.answered) / float64(acc.total)
	}
	if acc.facilityCount > 0 {
		section.FacilityScore = acc.facilitySum / float64(acc.facilityCount)
	}
	if acc.constraintCnt > 0 {
		section.ConstraintScore = acc.constraintSum / float64(acc.constraintCnt)
	}
	return section
}

// recommendationsFor emits the remediation items one category can
// trigger: a HIGH item for critical findings, a MEDIUM item for a weak
// score without critical findings, and a LOW item for low completion.
func recommendationsFor(acc *categoryAccumulator, section domain.CategoryScore) []domain.Recommendation {
	var recs []domain.Recommendation

	if len(section.CriticalIssues) > 0 {
		recs = append(recs, domain.Recommendation{
			Category: acc.category,
			Priority: domain.PriorityHigh,
			Message: fmt.Sprintf("Address %d critical finding(s) in %s immediately",
				len(section.CriticalIssues), acc.category),
		})
	} else if acc.scored > 0 && section.Score < weakCategoryThreshold {
		recs = append(recs, domain.Recommendation{
			Category: acc.category,
			Priority: domain.PriorityMedium,
			Message: fmt.Sprintf("Strengthen %s controls: section score %.0f is below %.0f",
				acc.category, section.Score, weakCategoryThreshold),
		})
	}

	if section.CompletionRate < lowCompletionThreshold {
		recs = append(recs, domain.Recommendation{
			Category: acc.category,
			Priority: domain.PriorityLow,
			Message: fmt.Sprintf("Complete the %s section: only %.0f%% of questions answered",
				acc.category, section.CompletionRate*100),
		})
	}
	return recs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
