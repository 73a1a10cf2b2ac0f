package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
	"github.com/ahrav/go-sentinel/internal/ports"
)

// Confidence blend weights and bounds.
const (
	confidenceQualityWeight     = 0.4
	confidenceQuantityWeight    = 0.3
	confidenceConsistencyWeight = 0.3

	// fullConfidenceEvidenceCount is the evidence count at which the
	// quantity component saturates.
	fullConfidenceEvidenceCount = 10

	confidenceFloor   = 0.5
	confidenceCeiling = 0.95

	// fallbackConfidence is reported when the oracle call fails and a
	// midpoint placeholder is substituted. It deliberately sits below
	// the normal floor so callers can recognize degraded results.
	fallbackConfidence = 0.3
)

// patternWeight scales a cross-evaluation pattern's strength into a
// score adjustment.
const patternWeight = 0.5

// Impact-specific adjustments.
const (
	lowMaturityAdjustment  = 0.5
	highMaturityAdjustment = -0.3

	highSeverityBonus   = 0.5
	mediumSeverityBonus = 0.2
)

// evidenceSummaryLimit caps how many evidence statements are sent to the
// external oracle per criterion.
const evidenceSummaryLimit = 8

// Placeholder statements used when a polarity has no evidence. Lists are
// never empty so callers can distinguish "no evidence found" from a
// truncated result.
const (
	placeholderNoPositive = "No supporting evidence identified in the questionnaire answers"
	placeholderNoNegative = "No adverse evidence identified in the questionnaire answers"
)

// CriterionProfile fixes the score range, base score, adjustment step and
// evidence-relevance vocabulary for one risk criterion. The three
// criteria share one scoring procedure; only these parameters differ.
type CriterionProfile struct {
	Criterion domain.Criterion `yaml:"criterion" validate:"required"`

	// ScoreMin and ScoreMax bound the integer score.
	ScoreMin int `yaml:"score_min" validate:"min=1"`
	ScoreMax int `yaml:"score_max" validate:"gtfield=ScoreMin"`

	// BaseScore is the starting point before evidence adjustments.
	BaseScore float64 `yaml:"base_score"`

	// EvidenceStep is the score delta for one boolean evidence item.
	EvidenceStep float64 `yaml:"evidence_step" validate:"gt=0"`

	// PercentLow and PercentHigh bound the neutral band for
	// percentage-valued evidence. Values below PercentLow raise the
	// score, values above PercentHigh lower it.
	PercentLow  float64 `yaml:"percent_low" validate:"min=0,max=100"`
	PercentHigh float64 `yaml:"percent_high" validate:"min=0,max=100,gtfield=PercentLow"`

	// Keywords select which evidence items are relevant to this
	// criterion, matched against the question text.
	Keywords []string `yaml:"keywords" validate:"min=1"`
}

// Midpoint is the fallback score reported when the oracle fails.
func (p CriterionProfile) Midpoint() int {
	return int(math.Round(float64(p.ScoreMin+p.ScoreMax) / 2))
}

// Clamp rounds a raw score and forces it inside the profile's range.
func (p CriterionProfile) Clamp(raw float64) int {
	score := int(math.Round(raw))
	if score < p.ScoreMin {
		return p.ScoreMin
	}
	if score > p.ScoreMax {
		return p.ScoreMax
	}
	return score
}

// DefaultProfiles returns the built-in parameterization of the three
// criteria.
func DefaultProfiles() map[domain.Criterion]CriterionProfile {
	return map[domain.Criterion]CriterionProfile{
		domain.CriterionProbability: {
			Criterion:    domain.CriterionProbability,
			ScoreMin:     1,
			ScoreMax:     3,
			BaseScore:    2,
			EvidenceStep: 0.3,
			PercentLow:   40,
			PercentHigh:  80,
			Keywords: []string{
				"maintenance", "formation", "procédure", "contrôle",
				"incident", "exercice", "historique",
			},
		},
		domain.CriterionVulnerability: {
			Criterion:    domain.CriterionVulnerability,
			ScoreMin:     1,
			ScoreMax:     4,
			BaseScore:    2,
			EvidenceStep: 0.4,
			PercentLow:   50,
			PercentHigh:  85,
			Keywords: []string{
				"protection", "sécurité", "surveillance", "accès",
				"clôture", "alarme", "badge", "détection",
			},
		},
		domain.CriterionImpact: {
			Criterion:    domain.CriterionImpact,
			ScoreMin:     1,
			ScoreMax:     5,
			BaseScore:    3,
			EvidenceStep: 0.5,
			PercentLow:   30,
			PercentHigh:  90,
			Keywords: []string{
				"critique", "essentiel", "continuité", "récupération",
				"sauvegarde", "redondance",
			},
		},
	}
}

// DefaultSectorImpactMultipliers returns the impact multiplier per
// activity sector. Sectors absent from the table use 1.0.
func DefaultSectorImpactMultipliers() map[string]float64 {
	return map[string]float64{
		"mines":    1.4,
		"services": 0.8,
	}
}

// DefaultSeverityKeywords returns the scenario vocabulary that amplifies
// the impact score, split by severity tier.
func DefaultSeverityKeywords() (high, medium []string) {
	high = []string{"explosion", "sabotage", "cyberattaque", "incendie", "attentat"}
	medium = []string{"panne", "défaillance", "vol", "fuite", "inondation"}
	return high, medium
}

// Reasoner scores the three risk criteria from aggregated evidence. The
// deterministic procedure is complete on its own; an optional external
// oracle refines the narrative, with a local fallback on any failure.
type Reasoner struct {
	profiles          map[domain.Criterion]CriterionProfile
	sectorMultipliers map[string]float64
	highSeverity      []string
	mediumSeverity    []string
}

// NewReasoner builds a reasoner. A nil profile map selects the defaults;
// criteria absent from a partial map keep their default profile, so every
// criterion always has a full parameterization.
func NewReasoner(profiles map[domain.Criterion]CriterionProfile) *Reasoner {
	merged := DefaultProfiles()
	for criterion, profile := range profiles {
		merged[criterion] = profile
	}
	high, medium := DefaultSeverityKeywords()
	return &Reasoner{
		profiles:          merged,
		sectorMultipliers: DefaultSectorImpactMultipliers(),
		highSeverity:      high,
		mediumSeverity:    medium,
	}
}

// Profile returns the active parameterization for a criterion.
func (r *Reasoner) Profile(criterion domain.Criterion) (CriterionProfile, bool) {
	p, ok := r.profiles[criterion]
	return p, ok
}

// Assess produces the deterministic assessment for one criterion.
// Citations for every evidence item consulted are recorded in the
// tracker, so the conclusion stays traceable.
func (r *Reasoner) Assess(
	criterion domain.Criterion,
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
	tracker *Tracker,
) domain.CriterionAssessment {
	profile := r.profiles[criterion]
	relevant := r.relevantEvidence(profile, actx)

	score := profile.BaseScore
	var positive, negative []string
	var steps []string
	steps = append(steps, fmt.Sprintf("base score %.1f", profile.BaseScore))

	for _, item := range relevant {
		delta, support, statement := r.applyEvidence(profile, item)
		score += delta

		switch support {
		case domain.SupportPositive:
			positive = append(positive, statement)
		case domain.SupportNegative:
			negative = append(negative, statement)
		}
		if delta != 0 {
			steps = append(steps, fmt.Sprintf("%+.2f from %q", delta, item.Question))
		}
		if tracker != nil {
			tracker.Cite(item.ID, criterion, support, statement)
		}
	}

	for _, pattern := range patterns.All() {
		if !pattern.AffectsCriterion(criterion) {
			continue
		}
		delta := pattern.Strength * patternWeight
		score += delta
		negative = append(negative, "Cross-evaluation pattern: "+pattern.Description)
		steps = append(steps, fmt.Sprintf("%+.2f from pattern %s", delta, pattern.Kind))
	}

	var factors []domain.ContextualFactor
	if criterion == domain.CriterionImpact {
		score, factors = r.applyImpactContext(score, actx, &steps)
	}

	final := profile.Clamp(score)
	steps = append(steps, fmt.Sprintf("clamped to %d in [%d,%d]", final, profile.ScoreMin, profile.ScoreMax))

	confidence := r.confidence(relevant, tracker, criterion)

	if len(positive) == 0 {
		positive = []string{placeholderNoPositive}
	}
	if len(negative) == 0 {
		negative = []string{placeholderNoNegative}
	}
	if factors == nil {
		factors = []domain.ContextualFactor{}
	}

	return domain.CriterionAssessment{
		Criterion:         criterion,
		Score:             final,
		Explanation:       r.explain(criterion, final, profile, len(relevant), actx),
		PositiveEvidence:  positive,
		NegativeEvidence:  negative,
		ContextualFactors: factors,
		Confidence:        confidence,
		Reasoning:         strings.Join(steps, "; "),
	}
}

// AssessWithOracle runs the deterministic assessment and then asks the
// external oracle to refine it. Any gateway failure, timeout or malformed
// response yields the documented fallback instead of an error: a complete
// three-criterion result is always produced.
func (r *Reasoner) AssessWithOracle(
	ctx context.Context,
	gateway ports.ReasoningGateway,
	criterion domain.Criterion,
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
	tracker *Tracker,
) domain.CriterionAssessment {
	base := r.Assess(criterion, actx, patterns, tracker)
	if gateway == nil {
		return base
	}

	refined, err := r.Refine(ctx, gateway, criterion, base, actx, patterns)
	if err != nil {
		return r.Fallback(criterion, base, err)
	}
	return refined
}

// Refine asks the external oracle to improve a deterministic assessment.
// The error return lets callers decide between retrying and falling
// back; it never contains partial content.
func (r *Reasoner) Refine(
	ctx context.Context,
	gateway ports.ReasoningGateway,
	criterion domain.Criterion,
	base domain.CriterionAssessment,
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
) (domain.CriterionAssessment, error) {
	profile := r.profiles[criterion]
	req := r.buildRequest(profile, base, actx, patterns)

	resp, err := gateway.Analyze(ctx, req)
	if err == nil {
		err = validateResponse(profile, resp)
	}
	if err != nil {
		return domain.CriterionAssessment{}, err
	}

	refined := base
	refined.Score = profile.Clamp(resp.Score)
	refined.Explanation = resp.Explanation
	if len(resp.PositivePoints) > 0 {
		refined.PositiveEvidence = resp.PositivePoints
	}
	if len(resp.NegativePoints) > 0 {
		refined.NegativeEvidence = resp.NegativePoints
	}
	refined.Confidence = clampConfidence(resp.Confidence)
	refined.Reasoning = base.Reasoning + "; refined by oracle model " + gateway.Model()
	return refined, nil
}

// Fallback substitutes the midpoint placeholder when the oracle fails.
// The deterministic evidence lists are preserved for diagnosability; the
// failure reason is embedded in the explanation, never re-thrown.
func (r *Reasoner) Fallback(
	criterion domain.Criterion,
	base domain.CriterionAssessment,
	cause error,
) domain.CriterionAssessment {
	return r.fallback(r.profiles[criterion], base, cause)
}

func (r *Reasoner) fallback(
	profile CriterionProfile,
	base domain.CriterionAssessment,
	cause error,
) domain.CriterionAssessment {
	out := base
	out.Score = profile.Midpoint()
	out.Confidence = fallbackConfidence
	out.Explanation = fmt.Sprintf(
		"External analysis unavailable for %s (%v); midpoint score %d substituted",
		profile.Criterion, cause, out.Score)
	out.Reasoning = base.Reasoning + "; oracle failed, midpoint fallback applied"
	return out
}

// relevantEvidence filters the context's relevant evidence down to items
// whose question text matches the criterion's vocabulary, preserving
// extraction order.
func (r *Reasoner) relevantEvidence(profile CriterionProfile, actx domain.AnalysisContext) []domain.EvidenceItem {
	var out []domain.EvidenceItem
	for _, item := range actx.RelevantEvidence {
		for _, kw := range profile.Keywords {
			if taxonomy.ContainsKeyword(item.Question, kw) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// applyEvidence converts one evidence item into a score delta, a support
// classification and a human-readable statement.
func (r *Reasoner) applyEvidence(
	profile CriterionProfile,
	item domain.EvidenceItem,
) (delta float64, support domain.SupportType, statement string) {
	switch item.ResponseType {
	case domain.ResponseBoolean:
		if item.BoolValue == nil {
			return 0, domain.SupportNeutral, item.Question + ": no answer"
		}
		if *item.BoolValue {
			return -profile.EvidenceStep, domain.SupportPositive,
				fmt.Sprintf("%s: yes (%s)", item.Question, item.Source)
		}
		return profile.EvidenceStep, domain.SupportNegative,
			fmt.Sprintf("%s: no (%s)", item.Question, item.Source)

	case domain.ResponsePercentage, domain.ResponseScore:
		if item.NumberValue == nil {
			return 0, domain.SupportNeutral, item.Question + ": no value"
		}
		pct := *item.NumberValue
		statement = fmt.Sprintf("%s: %.0f%% (%s)", item.Question, pct, item.Source)
		switch {
		case pct < profile.PercentLow:
			// Magnitude grows with distance below the threshold.
			delta = profile.EvidenceStep * (profile.PercentLow - pct) / profile.PercentLow
			return delta, domain.SupportNegative, statement
		case pct > profile.PercentHigh:
			delta = -profile.EvidenceStep * (pct - profile.PercentHigh) / (100 - profile.PercentHigh)
			return delta, domain.SupportPositive, statement
		default:
			return 0, domain.SupportNeutral, statement
		}

	default:
		return 0, domain.SupportNeutral,
			fmt.Sprintf("%s: %s (%s)", item.Question, item.Value, item.Source)
	}
}

// applyImpactContext layers the sector multiplier, maturity adjustment
// and scenario severity bonuses onto the impact score, recording each as
// a contextual factor.
func (r *Reasoner) applyImpactContext(
	score float64,
	actx domain.AnalysisContext,
	steps *[]string,
) (float64, []domain.ContextualFactor) {
	factors := make([]domain.ContextualFactor, 0, 3)

	dominant, _ := actx.DominantSector()
	sector := taxonomy.Fold(dominant)
	multiplier := 1.0
	if m, ok := r.sectorMultipliers[sector]; ok {
		multiplier = m
	}
	if multiplier != 1.0 {
		score *= multiplier
		impact := domain.ImpactNegative
		if multiplier < 1.0 {
			impact = domain.ImpactPositive
		}
		factors = append(factors, domain.ContextualFactor{
			Factor:      "sector",
			Impact:      impact,
			Magnitude:   math.Abs(multiplier - 1.0),
			Explanation: fmt.Sprintf("sector %q applies an impact multiplier of %.1f", sector, multiplier),
		})
		*steps = append(*steps, fmt.Sprintf("x%.1f sector multiplier (%s)", multiplier, sector))
	}

	var adj float64
	switch actx.Maturity {
	case domain.MaturityLow:
		adj = lowMaturityAdjustment
	case domain.MaturityHigh:
		adj = highMaturityAdjustment
	}
	if adj != 0 {
		score += adj
		impact := domain.ImpactNegative
		if adj < 0 {
			impact = domain.ImpactPositive
		}
		factors = append(factors, domain.ContextualFactor{
			Factor:      "security maturity",
			Impact:      impact,
			Magnitude:   math.Abs(adj),
			Explanation: fmt.Sprintf("%s security maturity adjusts impact by %+.1f", actx.Maturity, adj),
		})
		*steps = append(*steps, fmt.Sprintf("%+.1f maturity adjustment (%s)", adj, actx.Maturity))
	}

	scenario := taxonomy.Fold(actx.Risk.Scenario)
	var severity float64
	var matched []string
	for _, kw := range r.highSeverity {
		if strings.Contains(scenario, taxonomy.Fold(kw)) {
			severity += highSeverityBonus
			matched = append(matched, kw)
		}
	}
	for _, kw := range r.mediumSeverity {
		if strings.Contains(scenario, taxonomy.Fold(kw)) {
			severity += mediumSeverityBonus
			matched = append(matched, kw)
		}
	}
	if severity > 0 {
		score += severity
		factors = append(factors, domain.ContextualFactor{
			Factor:      "scenario severity",
			Impact:      domain.ImpactNegative,
			Magnitude:   severity,
			Explanation: "scenario mentions " + strings.Join(matched, ", "),
		})
		*steps = append(*steps, fmt.Sprintf("%+.1f scenario severity (%s)", severity, strings.Join(matched, ", ")))
	}

	return score, factors
}

// confidence blends evidence quality, quantity and consistency into a
// bounded certainty value.
func (r *Reasoner) confidence(relevant []domain.EvidenceItem, tracker *Tracker, criterion domain.Criterion) float64 {
	var quality float64
	if len(relevant) > 0 {
		var sum float64
		for _, item := range relevant {
			sum += item.Confidence
		}
		quality = sum / float64(len(relevant))
	}

	quantity := math.Min(float64(len(relevant))/fullConfidenceEvidenceCount, 1.0)

	consistency := 1.0
	if tracker != nil {
		posMean := meanCitationWeight(tracker.CitationsFor(criterion, domain.SupportPositive))
		negMean := meanCitationWeight(tracker.CitationsFor(criterion, domain.SupportNegative))
		consistency = 1.0 - math.Abs(posMean-negMean)
	}

	blended := confidenceQualityWeight*quality +
		confidenceQuantityWeight*quantity +
		confidenceConsistencyWeight*consistency
	return clampConfidence(blended)
}

func (r *Reasoner) explain(
	criterion domain.Criterion,
	score int,
	profile CriterionProfile,
	evidenceCount int,
	actx domain.AnalysisContext,
) string {
	return fmt.Sprintf(
		"%s scored %d on a %d-%d scale for scenario %q against %q, based on %d relevant evidence items across %d completed evaluations",
		criterion, score, profile.ScoreMin, profile.ScoreMax,
		actx.Risk.Scenario, actx.Risk.Target,
		evidenceCount, actx.CompletedEvaluations)
}

// buildRequest assembles the evidence-context document sent to the
// external oracle for one criterion.
func (r *Reasoner) buildRequest(
	profile CriterionProfile,
	base domain.CriterionAssessment,
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
) domain.ReasoningRequest {
	relevant := r.relevantEvidence(profile, actx)
	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Weight() > relevant[j].Weight()
	})
	if len(relevant) > evidenceSummaryLimit {
		relevant = relevant[:evidenceSummaryLimit]
	}
	summary := make([]string, 0, len(relevant))
	for _, item := range relevant {
		summary = append(summary, fmt.Sprintf("%s = %s (confidence %.2f, relevance %.2f)",
			item.Question, item.Value, item.Confidence, item.Relevance))
	}

	descriptions := make([]string, 0)
	for _, p := range patterns.All() {
		descriptions = append(descriptions, p.Description)
	}

	weaknesses, strengths := domainExtremes(actx.DomainScores)

	return domain.ReasoningRequest{
		Criterion:       profile.Criterion,
		Target:          actx.Risk.Target,
		Scenario:        actx.Risk.Scenario,
		ScoreMin:        profile.ScoreMin,
		ScoreMax:        profile.ScoreMax,
		BaselineScore:   base.Score,
		EvidenceSummary: summary,
		DomainScores:    actx.DomainScores,
		Patterns:        descriptions,
		Weaknesses:      weaknesses,
		Strengths:       strengths,
		Instructions: fmt.Sprintf(
			"Assess the %s criterion for this scenario. Respond with a JSON object containing score (integer %d-%d), explanation, positive_points, negative_points and confidence (0-1).",
			profile.Criterion, profile.ScoreMin, profile.ScoreMax),
	}
}

// domainExtremes splits taxonomy categories into weaknesses (mean below
// 40) and strengths (mean 70 or above), sorted for determinism.
func domainExtremes(scores map[domain.EvidenceCategory]float64) (weaknesses, strengths []string) {
	categories := make([]domain.EvidenceCategory, 0, len(scores))
	for c := range scores {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, c := range categories {
		switch score := scores[c]; {
		case score < 40:
			weaknesses = append(weaknesses, fmt.Sprintf("%s (%.0f/100)", c, score))
		case score >= 70:
			strengths = append(strengths, fmt.Sprintf("%s (%.0f/100)", c, score))
		}
	}
	return weaknesses, strengths
}

// validateResponse rejects oracle output that violates the score-range
// contract. Malformed output is treated exactly like a transport failure.
func validateResponse(profile CriterionProfile, resp domain.ReasoningResponse) error {
	if resp.Score < float64(profile.ScoreMin) || resp.Score > float64(profile.ScoreMax) {
		return fmt.Errorf("%w: score %.1f outside [%d,%d]",
			domain.ErrMalformedResponse, resp.Score, profile.ScoreMin, profile.ScoreMax)
	}
	if len(strings.TrimSpace(resp.Explanation)) < 10 {
		return fmt.Errorf("%w: explanation too short", domain.ErrMalformedResponse)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.2f outside [0,1]", domain.ErrMalformedResponse, resp.Confidence)
	}
	return nil
}

func meanCitationWeight(citations []domain.Citation) float64 {
	if len(citations) == 0 {
		return 0
	}
	var sum float64
	for _, c := range citations {
		sum += c.Weight
	}
	return sum / float64(len(citations))
}

func clampConfidence(v float64) float64 {
	if v < confidenceFloor {
		return confidenceFloor
	}
	if v > confidenceCeiling {
		return confidenceCeiling
	}
	return v
}
