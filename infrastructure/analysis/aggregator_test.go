package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
	"github.com/ahrav/go-sentinel/internal/testutils"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	categorizer, err := taxonomy.NewCategorizer(taxonomy.DefaultRules())
	require.NoError(t, err)
	extractor, err := NewExtractor(categorizer, DefaultRelevanceRules())
	require.NoError(t, err)
	return NewAggregator(categorizer, extractor)
}

func TestAggregatorBuild(t *testing.T) {
	aggregator := newTestAggregator(t)
	risk := domain.RiskContext{Target: "Site minier", Scenario: "intrusion nocturne"}

	draft := domain.Evaluation{
		ID:       "e3",
		Title:    "Brouillon",
		Status:   domain.StatusDraft,
		Sector:   "services",
		Template: "standard",
	}

	e1 := testutils.CompletedEvaluation("e1", "Audit A", "Mines", 80, 0,
		testutils.BoolResponse("q1", "Des caméras de surveillance sont-elles installées ?", true),
		testutils.PercentResponse("q2", "Quel pourcentage des caméras est opérationnel ?", 60),
	)
	e1.Template = "standard"
	e2 := testutils.CompletedEvaluation("e2", "Audit B", "mines", 60, 5,
		testutils.BoolResponse("q1", "Une clôture entoure-t-elle le site ?", false),
	)
	e2.Template = "étendu"

	actx := aggregator.Build(risk, []domain.Evaluation{e1, e2, draft})

	t.Run("counts", func(t *testing.T) {
		assert.Equal(t, 3, actx.TotalEvaluations)
		assert.Equal(t, 2, actx.CompletedEvaluations)
		assert.Len(t, actx.Completed, 2)
	})

	t.Run("distributions fold sector casing", func(t *testing.T) {
		assert.Equal(t, map[string]int{"mines": 2, "services": 1}, actx.SectorDistribution)
		assert.Equal(t, map[string]int{"standard": 2, "étendu": 1}, actx.TemplateDistribution)
	})

	t.Run("mean score and maturity", func(t *testing.T) {
		assert.InDelta(t, 70.0, actx.MeanScore, 1e-9)
		assert.Equal(t, domain.MaturityMedium, actx.Maturity)
	})

	t.Run("domain scores average per category", func(t *testing.T) {
		// Both surveillance answers land in one category: (100 + 60) / 2.
		assert.InDelta(t, 80.0, actx.DomainScores[domain.CategorySurveillance], 1e-9)
		// The "no" on the perimeter question scores 0.
		assert.InDelta(t, 0.0, actx.DomainScores[domain.CategoryPerimeter], 1e-9)
	})

	t.Run("relevant evidence subset", func(t *testing.T) {
		assert.Len(t, actx.Evidence, 3)
		require.NotEmpty(t, actx.RelevantEvidence)
		for _, item := range actx.RelevantEvidence {
			assert.Greater(t, item.Relevance, 0.0)
		}
		assert.Less(t, len(actx.RelevantEvidence), len(actx.Evidence)+1)
	})
}

func TestAggregatorBuildEmpty(t *testing.T) {
	aggregator := newTestAggregator(t)

	actx := aggregator.Build(domain.RiskContext{Target: "Site", Scenario: "vol"}, nil)

	assert.Zero(t, actx.TotalEvaluations)
	assert.Zero(t, actx.CompletedEvaluations)
	assert.Zero(t, actx.MeanScore)
	assert.Equal(t, domain.MaturityLow, actx.Maturity)
	assert.Zero(t, actx.EvidenceQuality)
	assert.NotNil(t, actx.Evidence)
	assert.NotNil(t, actx.RelevantEvidence)
	assert.Empty(t, actx.DomainScores)
}

func TestAggregatorBuildSkipsUnidentifiedResponses(t *testing.T) {
	aggregator := newTestAggregator(t)
	risk := domain.RiskContext{Target: "Site", Scenario: "intrusion"}

	eval := testutils.CompletedEvaluation("e1", "Audit", "mines", 80, 0)
	eval.Responses = append(eval.Responses, domain.EvaluationResponse{
		QuestionText: "Des caméras de surveillance sont-elles installées ?",
		BoolValue:    testutils.BoolPtr(true),
	})

	actx := aggregator.Build(risk, []domain.Evaluation{eval})

	// A response without a question id yields no evidence, so it must not
	// feed the domain scores either.
	assert.Empty(t, actx.Evidence)
	assert.Empty(t, actx.DomainScores)
}

func TestEvidenceQuality(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.EvidenceItem
		want  float64
	}{
		{
			name:  "no evidence",
			items: nil,
			want:  0,
		},
		{
			name: "single unrated item",
			items: []domain.EvidenceItem{
				{Confidence: 0.68},
			},
			want: 0.68,
		},
		{
			name: "rated items weigh more",
			items: []domain.EvidenceItem{
				{Confidence: 0.6},
				{Confidence: 0.9, Rated: true},
			},
			// (0.6 + 0.9*1.5) / (1 + 1.5)
			want: 0.78,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, evidenceQuality(tt.items), 1e-9)
		})
	}
}
