package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-sentinel/internal/domain"
	"github.com/ahrav/go-sentinel/internal/testutils"
)

func boolEvidence(id, question string, value bool) domain.EvidenceItem {
	return domain.EvidenceItem{
		ID:           id,
		Source:       "Audit",
		Question:     question,
		ResponseType: domain.ResponseBoolean,
		BoolValue:    testutils.BoolPtr(value),
		Confidence:   0.7,
		Relevance:    0.8,
	}
}

func percentEvidence(id, question string, value float64) domain.EvidenceItem {
	return domain.EvidenceItem{
		ID:           id,
		Source:       "Audit",
		Question:     question,
		ResponseType: domain.ResponsePercentage,
		NumberValue:  testutils.Float64Ptr(value),
		Confidence:   0.7,
		Relevance:    0.8,
	}
}

func emptyPatterns() domain.PatternSet {
	return domain.PatternSet{
		Recurring: []domain.CrossEvaluationPattern{},
		Temporal:  []domain.CrossEvaluationPattern{},
		Sectoral:  []domain.CrossEvaluationPattern{},
		Anomalies: []domain.Anomaly{},
	}
}

func TestNewReasonerPartialProfiles(t *testing.T) {
	custom := DefaultProfiles()[domain.CriterionProbability]
	custom.EvidenceStep = 0.6
	reasoner := NewReasoner(map[domain.Criterion]CriterionProfile{
		domain.CriterionProbability: custom,
	})

	probability, ok := reasoner.Profile(domain.CriterionProbability)
	require.True(t, ok)
	assert.InDelta(t, 0.6, probability.EvidenceStep, 1e-9)

	// The unmentioned criteria keep their defaults and never collapse to
	// a zero-valued profile.
	actx := domain.AnalysisContext{
		Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		Maturity: domain.MaturityMedium,
	}
	for _, criterion := range domain.AllCriteria() {
		profile, ok := reasoner.Profile(criterion)
		require.True(t, ok, "criterion %s", criterion)

		a := reasoner.Assess(criterion, actx, emptyPatterns(), NewTracker())
		assert.GreaterOrEqual(t, a.Score, profile.ScoreMin, "criterion %s", criterion)
		assert.LessOrEqual(t, a.Score, profile.ScoreMax, "criterion %s", criterion)
	}
}

func TestAssessNoEvidence(t *testing.T) {
	reasoner := NewReasoner(nil)
	actx := domain.AnalysisContext{
		Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		Maturity: domain.MaturityMedium,
	}

	a := reasoner.Assess(domain.CriterionProbability, actx, emptyPatterns(), NewTracker())

	assert.Equal(t, 2, a.Score)
	assert.Equal(t, []string{placeholderNoPositive}, a.PositiveEvidence)
	assert.Equal(t, []string{placeholderNoNegative}, a.NegativeEvidence)
	assert.Empty(t, a.ContextualFactors)
	// Quality 0, quantity 0, consistency 1: the blend sits below the floor.
	assert.InDelta(t, 0.5, a.Confidence, 1e-9)
	assert.Contains(t, a.Reasoning, "base score 2.0")
}

func TestAssessBooleanEvidence(t *testing.T) {
	reasoner := NewReasoner(nil)

	t.Run("negative answers raise the score", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
			Maturity: domain.MaturityMedium,
			RelevantEvidence: []domain.EvidenceItem{
				boolEvidence("e1:q1", "Une alarme est-elle installée ?", false),
				boolEvidence("e1:q2", "Une clôture entoure-t-elle le site ?", false),
			},
		}

		a := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())

		// 2.0 base plus 0.4 per adverse answer rounds to 3.
		assert.Equal(t, 3, a.Score)
		assert.Len(t, a.NegativeEvidence, 2)
		assert.Equal(t, []string{placeholderNoPositive}, a.PositiveEvidence)
		assert.Contains(t, a.NegativeEvidence[0], "no (Audit)")
	})

	t.Run("positive answers lower the score", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
			Maturity: domain.MaturityMedium,
			RelevantEvidence: []domain.EvidenceItem{
				boolEvidence("e1:q1", "Une alarme est-elle installée ?", true),
				boolEvidence("e1:q2", "Une surveillance vidéo est-elle en place ?", true),
				boolEvidence("e1:q3", "Un badge est-il requis pour l'accès ?", true),
			},
		}

		a := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())

		// 2.0 base minus 0.4 per supporting answer rounds to 1.
		assert.Equal(t, 1, a.Score)
		assert.Len(t, a.PositiveEvidence, 3)
		assert.Equal(t, []string{placeholderNoNegative}, a.NegativeEvidence)
	})

	t.Run("clamped at range bottom", func(t *testing.T) {
		items := make([]domain.EvidenceItem, 0, 8)
		for i := 0; i < 8; i++ {
			items = append(items, boolEvidence(
				domain.EvidenceID("e1", string(rune('a'+i))),
				"Une alarme est-elle installée ?", true))
		}
		actx := domain.AnalysisContext{
			Risk:             domain.RiskContext{Target: "Site", Scenario: "intrusion"},
			Maturity:         domain.MaturityMedium,
			RelevantEvidence: items,
		}

		a := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())
		assert.Equal(t, 1, a.Score)
	})

	t.Run("criterion vocabulary filters evidence", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
			Maturity: domain.MaturityMedium,
			RelevantEvidence: []domain.EvidenceItem{
				boolEvidence("e1:q1", "Une sauvegarde des données existe-t-elle ?", false),
			},
		}

		a := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())

		// The backup question speaks to impact, not vulnerability.
		assert.Equal(t, 2, a.Score)
		assert.Equal(t, []string{placeholderNoNegative}, a.NegativeEvidence)
	})
}

func TestApplyEvidencePercentage(t *testing.T) {
	reasoner := NewReasoner(nil)
	profile := DefaultProfiles()[domain.CriterionProbability]

	tests := []struct {
		name        string
		value       float64
		wantDelta   float64
		wantSupport domain.SupportType
	}{
		{"far below the low threshold", 20, 0.3 * 20 / 40, domain.SupportNegative},
		{"just below the low threshold", 39, 0.3 * 1 / 40, domain.SupportNegative},
		{"inside the neutral band", 60, 0, domain.SupportNeutral},
		{"above the high threshold", 90, -0.3 * 10 / 20, domain.SupportPositive},
		{"at full coverage", 100, -0.3, domain.SupportPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := percentEvidence("e1:q1", "Taux de maintenance préventive réalisé ?", tt.value)
			delta, support, statement := reasoner.applyEvidence(profile, item)
			assert.InDelta(t, tt.wantDelta, delta, 1e-9)
			assert.Equal(t, tt.wantSupport, support)
			assert.Contains(t, statement, "Audit")
		})
	}
}

func TestAssessPatternAdjustment(t *testing.T) {
	reasoner := NewReasoner(nil)
	actx := domain.AnalysisContext{
		Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		Maturity: domain.MaturityMedium,
	}
	patterns := emptyPatterns()
	patterns.Recurring = append(patterns.Recurring, domain.CrossEvaluationPattern{
		Kind:          domain.PatternRecurringWeakness,
		Description:   "recurring gap in perimeter controls",
		Strength:      0.8,
		RiskRelevance: []domain.Criterion{domain.CriterionVulnerability},
	})

	a := reasoner.Assess(domain.CriterionVulnerability, actx, patterns, NewTracker())

	// 2.0 base plus 0.8 x 0.5 pattern adjustment rounds to 2; the pattern
	// still lands in the adverse evidence list.
	assert.Equal(t, 2, a.Score)
	assert.Contains(t, a.NegativeEvidence[0], "Cross-evaluation pattern: recurring gap")

	other := reasoner.Assess(domain.CriterionProbability, actx, emptyPatterns(), NewTracker())
	assert.Equal(t, []string{placeholderNoNegative}, other.NegativeEvidence)
}

func TestAssessImpactContext(t *testing.T) {
	reasoner := NewReasoner(nil)

	t.Run("mining sector amplifies impact", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:               domain.RiskContext{Target: "Mine de Kamoto", Scenario: "explosion souterraine"},
			Maturity:           domain.MaturityLow,
			SectorDistribution: map[string]int{"mines": 3},
		}

		a := reasoner.Assess(domain.CriterionImpact, actx, emptyPatterns(), NewTracker())

		// 3.0 x 1.4 sector, +0.5 low maturity, +0.5 explosion keyword
		// lands at 5.2 and clamps to the range top.
		assert.Equal(t, 5, a.Score)
		require.Len(t, a.ContextualFactors, 3)

		sector := a.ContextualFactors[0]
		assert.Equal(t, "sector", sector.Factor)
		assert.Equal(t, domain.ImpactNegative, sector.Impact)
		assert.InDelta(t, 0.4, sector.Magnitude, 1e-9)

		maturity := a.ContextualFactors[1]
		assert.Equal(t, "security maturity", maturity.Factor)
		assert.Equal(t, domain.ImpactNegative, maturity.Impact)

		severity := a.ContextualFactors[2]
		assert.Equal(t, "scenario severity", severity.Factor)
		assert.InDelta(t, 0.5, severity.Magnitude, 1e-9)
		assert.Contains(t, severity.Explanation, "explosion")
	})

	t.Run("service sector dampens impact", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:               domain.RiskContext{Target: "Agence", Scenario: "indisponibilité du réseau"},
			Maturity:           domain.MaturityHigh,
			SectorDistribution: map[string]int{"services": 2},
		}

		a := reasoner.Assess(domain.CriterionImpact, actx, emptyPatterns(), NewTracker())

		// 3.0 x 0.8 sector, -0.3 high maturity lands at 2.1 and rounds to 2.
		assert.Equal(t, 2, a.Score)
		require.Len(t, a.ContextualFactors, 2)
		assert.Equal(t, domain.ImpactPositive, a.ContextualFactors[0].Impact)
		assert.Equal(t, domain.ImpactPositive, a.ContextualFactors[1].Impact)
	})

	t.Run("stacked severity keywords", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:     domain.RiskContext{Target: "Site", Scenario: "incendie suivi d'une panne générale"},
			Maturity: domain.MaturityMedium,
		}

		a := reasoner.Assess(domain.CriterionImpact, actx, emptyPatterns(), NewTracker())

		// 3.0 +0.5 incendie +0.2 panne rounds to 4.
		assert.Equal(t, 4, a.Score)
		require.Len(t, a.ContextualFactors, 1)
		assert.InDelta(t, 0.7, a.ContextualFactors[0].Magnitude, 1e-9)
	})

	t.Run("no adjustment for other criteria", func(t *testing.T) {
		actx := domain.AnalysisContext{
			Risk:               domain.RiskContext{Target: "Mine", Scenario: "explosion"},
			Maturity:           domain.MaturityLow,
			SectorDistribution: map[string]int{"mines": 3},
		}

		a := reasoner.Assess(domain.CriterionProbability, actx, emptyPatterns(), NewTracker())
		assert.Empty(t, a.ContextualFactors)
		assert.Equal(t, 2, a.Score)
	})
}

func TestAssessConfidenceBounds(t *testing.T) {
	reasoner := NewReasoner(nil)

	items := make([]domain.EvidenceItem, 0, 12)
	for i := 0; i < 12; i++ {
		item := boolEvidence(domain.EvidenceID("e1", string(rune('a'+i))),
			"Une alarme est-elle installée ?", i%2 == 0)
		item.Confidence = 1.0
		items = append(items, item)
	}
	actx := domain.AnalysisContext{
		Risk:             domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		Maturity:         domain.MaturityMedium,
		RelevantEvidence: items,
	}

	rich := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())
	sparse := reasoner.Assess(domain.CriterionVulnerability, domain.AnalysisContext{
		Risk: domain.RiskContext{Target: "Site", Scenario: "intrusion"},
	}, emptyPatterns(), NewTracker())

	assert.GreaterOrEqual(t, rich.Confidence, 0.5)
	assert.LessOrEqual(t, rich.Confidence, 0.95)
	assert.Greater(t, rich.Confidence, sparse.Confidence)
	assert.InDelta(t, 0.5, sparse.Confidence, 1e-9)
}

func TestFallback(t *testing.T) {
	reasoner := NewReasoner(nil)
	actx := domain.AnalysisContext{
		Risk: domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		RelevantEvidence: []domain.EvidenceItem{
			boolEvidence("e1:q1", "Une alarme est-elle installée ?", true),
		},
	}
	base := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())

	out := reasoner.Fallback(domain.CriterionVulnerability, base, errors.New("connection refused"))

	// The 1-4 range midpoint rounds up to 3.
	assert.Equal(t, 3, out.Score)
	assert.InDelta(t, 0.3, out.Confidence, 1e-9)
	assert.Contains(t, out.Explanation, "External analysis unavailable")
	assert.Contains(t, out.Explanation, "connection refused")
	assert.Contains(t, out.Explanation, "midpoint score 3")
	// Deterministic evidence survives the substitution.
	assert.Equal(t, base.PositiveEvidence, out.PositiveEvidence)
	assert.Contains(t, out.Reasoning, "midpoint fallback applied")
}

func TestRefine(t *testing.T) {
	reasoner := NewReasoner(nil)
	actx := domain.AnalysisContext{
		Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		Maturity: domain.MaturityMedium,
	}
	base := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), NewTracker())

	t.Run("merges oracle output", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{
			Responses: map[domain.Criterion]domain.ReasoningResponse{
				domain.CriterionVulnerability: {
					Score:          4,
					Explanation:    "exposed perimeter with no compensating controls",
					PositivePoints: []string{"guard presence"},
					Confidence:     0.9,
				},
			},
		}

		refined, err := reasoner.Refine(context.Background(), gw, domain.CriterionVulnerability, base, actx, emptyPatterns())
		require.NoError(t, err)

		assert.Equal(t, 4, refined.Score)
		assert.Equal(t, "exposed perimeter with no compensating controls", refined.Explanation)
		assert.Equal(t, []string{"guard presence"}, refined.PositiveEvidence)
		assert.Equal(t, base.NegativeEvidence, refined.NegativeEvidence)
		assert.InDelta(t, 0.9, refined.Confidence, 1e-9)
		assert.Contains(t, refined.Reasoning, "refined by oracle model scripted")
	})

	t.Run("rejects out-of-range score", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{
			Responses: map[domain.Criterion]domain.ReasoningResponse{
				domain.CriterionVulnerability: {
					Score:       7,
					Explanation: "a sufficiently long explanation",
					Confidence:  0.8,
				},
			},
		}

		_, err := reasoner.Refine(context.Background(), gw, domain.CriterionVulnerability, base, actx, emptyPatterns())
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("rejects short explanation", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{
			Responses: map[domain.Criterion]domain.ReasoningResponse{
				domain.CriterionVulnerability: {Score: 2, Explanation: "short", Confidence: 0.8},
			},
		}

		_, err := reasoner.Refine(context.Background(), gw, domain.CriterionVulnerability, base, actx, emptyPatterns())
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("rejects invalid confidence", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{
			Responses: map[domain.Criterion]domain.ReasoningResponse{
				domain.CriterionVulnerability: {
					Score:       2,
					Explanation: "a sufficiently long explanation",
					Confidence:  1.4,
				},
			},
		}

		_, err := reasoner.Refine(context.Background(), gw, domain.CriterionVulnerability, base, actx, emptyPatterns())
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("propagates gateway failure", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{
			Errors: map[domain.Criterion]error{
				domain.CriterionVulnerability: errors.New("upstream unavailable"),
			},
		}

		_, err := reasoner.Refine(context.Background(), gw, domain.CriterionVulnerability, base, actx, emptyPatterns())
		assert.ErrorContains(t, err, "upstream unavailable")
	})
}

func TestAssessWithOracle(t *testing.T) {
	reasoner := NewReasoner(nil)
	actx := domain.AnalysisContext{
		Risk:     domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		Maturity: domain.MaturityMedium,
	}

	t.Run("nil gateway returns deterministic result", func(t *testing.T) {
		a := reasoner.AssessWithOracle(context.Background(), nil,
			domain.CriterionProbability, actx, emptyPatterns(), NewTracker())
		assert.Equal(t, 2, a.Score)
		assert.GreaterOrEqual(t, a.Confidence, 0.5)
	})

	t.Run("gateway failure falls back to midpoint", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{
			Errors: map[domain.Criterion]error{
				domain.CriterionImpact: errors.New("timeout"),
			},
		}

		a := reasoner.AssessWithOracle(context.Background(), gw,
			domain.CriterionImpact, actx, emptyPatterns(), NewTracker())
		assert.Equal(t, 3, a.Score)
		assert.InDelta(t, 0.3, a.Confidence, 1e-9)
	})

	t.Run("scripted refinement echoes the baseline", func(t *testing.T) {
		gw := &testutils.ScriptedGateway{}

		a := reasoner.AssessWithOracle(context.Background(), gw,
			domain.CriterionProbability, actx, emptyPatterns(), NewTracker())
		assert.Equal(t, 2, a.Score)
		assert.InDelta(t, 0.8, a.Confidence, 1e-9)
		require.Len(t, gw.Requests, 1)
		assert.Equal(t, domain.CriterionProbability, gw.Requests[0].Criterion)
	})
}

func TestBuildRequest(t *testing.T) {
	reasoner := NewReasoner(nil)
	profile := DefaultProfiles()[domain.CriterionVulnerability]

	items := make([]domain.EvidenceItem, 0, 10)
	for i := 0; i < 10; i++ {
		item := boolEvidence(domain.EvidenceID("e1", string(rune('a'+i))),
			"Une alarme est-elle installée ?", true)
		item.Relevance = float64(i+1) / 10
		items = append(items, item)
	}
	actx := domain.AnalysisContext{
		Risk:             domain.RiskContext{Target: "Site", Scenario: "intrusion"},
		RelevantEvidence: items,
		DomainScores: map[domain.EvidenceCategory]float64{
			domain.CategoryPerimeter:    20,
			domain.CategorySurveillance: 85,
			domain.CategoryTraining:     55,
		},
	}
	base := reasoner.Assess(domain.CriterionVulnerability, actx, emptyPatterns(), nil)

	req := reasoner.buildRequest(profile, base, actx, emptyPatterns())

	assert.Equal(t, domain.CriterionVulnerability, req.Criterion)
	assert.Equal(t, 1, req.ScoreMin)
	assert.Equal(t, 4, req.ScoreMax)
	assert.Equal(t, base.Score, req.BaselineScore)
	// Ten matching items truncate to the summary cap, strongest first.
	require.Len(t, req.EvidenceSummary, evidenceSummaryLimit)
	assert.Equal(t, []string{"perimeter (20/100)"}, req.Weaknesses)
	assert.Equal(t, []string{"surveillance (85/100)"}, req.Strengths)
	assert.Contains(t, req.Instructions, "integer 1-4")
}
