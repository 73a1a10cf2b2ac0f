// Package application wires the scoring and analysis components into the
// two public operations of the risk engine: scoring one evaluation and
// reasoning about a risk scenario across many evaluations.
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-sentinel/infrastructure/analysis"
	"github.com/ahrav/go-sentinel/infrastructure/gateway"
	"github.com/ahrav/go-sentinel/infrastructure/scoring"
	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
	"github.com/ahrav/go-sentinel/internal/ports"
)

// Analysis is the complete output of one risk analysis run: the
// three-criterion reasoning result plus the citation integrity report
// for the evidence behind it.
type Analysis struct {
	// Result bundles the criterion assessments, patterns and synthesis.
	Result domain.ReasoningResult `json:"result"`

	// Citations reports on the traceability of the conclusions.
	Citations domain.CitationReport `json:"citations"`

	// Model names the oracle model consulted, empty for offline runs.
	Model string `json:"model,omitempty"`
}

// Engine orchestrates the full pipeline. It is safe for concurrent use:
// all per-run state (citation tracker, aggregated context) is owned by
// the individual call.
type Engine struct {
	config EngineConfig

	scorer     *scoring.Engine
	extractor  *analysis.Extractor
	aggregator *analysis.Aggregator
	detector   *analysis.Detector
	reasoner   *analysis.Reasoner

	oracle  ports.ReasoningGateway
	metrics ports.MetricsCollector
	tracer  trace.Tracer

	// stepLimiter paces sequential oracle retries after a failed
	// concurrent dispatch.
	stepLimiter *rate.Limiter
}

// Option customizes engine construction.
type Option func(*Engine)

// WithGateway injects a reasoning oracle, overriding the one that would
// be built from the Gateway config section. Tests use this to supply a
// deterministic stub.
func WithGateway(gw ports.ReasoningGateway) Option {
	return func(e *Engine) { e.oracle = gw }
}

// WithMetrics injects a metrics collector. Nil disables metrics.
func WithMetrics(m ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an engine from configuration. The engine is fully
// functional without a gateway; analysis then relies on the
// deterministic reasoner alone.
func NewEngine(config EngineConfig, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	categorizer, err := taxonomy.NewCategorizer(config.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("building categorizer: %w", err)
	}
	extractor, err := analysis.NewExtractor(categorizer, config.Relevance)
	if err != nil {
		return nil, fmt.Errorf("building extractor: %w", err)
	}
	scorer, err := scoring.NewEngine(config.Scoring, categorizer)
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}

	stepDelay := config.OracleStepDelay
	if stepDelay <= 0 {
		stepDelay = time.Second
	}

	engine := &Engine{
		config:      config,
		scorer:      scorer,
		extractor:   extractor,
		aggregator:  analysis.NewAggregator(categorizer, extractor),
		detector:    analysis.NewDetector(categorizer, nil),
		reasoner:    analysis.NewReasoner(config.Profiles),
		tracer:      otel.Tracer("risk-engine"),
		stepLimiter: rate.NewLimiter(rate.Every(stepDelay), 1),
	}
	for _, opt := range opts {
		opt(engine)
	}

	if engine.oracle == nil && config.Gateway != nil {
		gw, err := gateway.New(*config.Gateway)
		if err != nil {
			return nil, fmt.Errorf("building gateway: %w", err)
		}
		engine.oracle = gw
	}

	return engine, nil
}

// ScoreEvaluation computes the weighted score, risk level and
// recommendations for one evaluation's responses.
func (e *Engine) ScoreEvaluation(ctx context.Context, eval domain.Evaluation) domain.ScoringResult {
	_, span := e.tracer.Start(ctx, "engine.score_evaluation",
		trace.WithAttributes(
			attribute.String("evaluation.id", eval.ID),
			attribute.Int("evaluation.responses", len(eval.Responses)),
		))
	defer span.End()

	start := time.Now()
	result := e.scorer.Score(eval.Responses, eval.Sector)

	span.SetAttributes(
		attribute.Float64("score.total", result.TotalScore),
		attribute.String("score.risk_level", string(result.RiskLevel)),
	)
	if e.metrics != nil {
		e.metrics.RecordLatency("score_evaluation", time.Since(start), nil)
		e.metrics.RecordCounter("score_evaluation", 1, map[string]string{"status": "ok"})
	}
	return result
}

// AnalyzeRisk produces a cited three-criterion judgment about a risk
// scenario from the evaluation history. The pipeline never fails for a
// well-formed risk context: oracle problems degrade individual criteria
// to low-confidence fallbacks instead of aborting the run.
func (e *Engine) AnalyzeRisk(
	ctx context.Context,
	risk domain.RiskContext,
	evaluations []domain.Evaluation,
) (Analysis, error) {
	if risk.Target == "" || risk.Scenario == "" {
		return Analysis{}, fmt.Errorf("%w: risk context needs a target and a scenario",
			domain.ErrInvalidConfiguration)
	}

	ctx, span := e.tracer.Start(ctx, "engine.analyze_risk",
		trace.WithAttributes(
			attribute.String("risk.target", risk.Target),
			attribute.String("risk.scenario", risk.Scenario),
			attribute.Int("evaluations.total", len(evaluations)),
		))
	defer span.End()
	start := time.Now()

	actx := e.aggregator.Build(risk, evaluations)
	patterns := e.detector.Detect(actx)

	tracker := analysis.NewTracker()
	tracker.AddEvidence(actx.Evidence...)

	// Deterministic assessment runs sequentially: the tracker records
	// citations and is not safe for concurrent use.
	bases := make(map[domain.Criterion]domain.CriterionAssessment, 3)
	for _, criterion := range domain.AllCriteria() {
		bases[criterion] = e.reasoner.Assess(criterion, actx, patterns, tracker)
	}

	assessments := e.refineAll(ctx, bases, actx, patterns)

	result := analysis.Synthesize(actx, patterns,
		assessments[domain.CriterionProbability],
		assessments[domain.CriterionVulnerability],
		assessments[domain.CriterionImpact])

	report := tracker.Validate()

	e.recordAnalysisMetrics(start, actx, result, tracker)
	span.SetAttributes(
		attribute.Float64("analysis.confidence", result.ConfidenceLevel),
		attribute.Bool("analysis.citations_valid", report.IsValid),
	)

	out := Analysis{Result: result, Citations: report}
	if e.oracle != nil {
		out.Model = e.oracle.Model()
	}
	return out, nil
}

// refineAll dispatches the three criterion refinements to the oracle
// concurrently. Criteria whose concurrent call fails are retried
// strictly sequentially with paced requests; a criterion that still
// fails gets the midpoint fallback.
func (e *Engine) refineAll(
	ctx context.Context,
	bases map[domain.Criterion]domain.CriterionAssessment,
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
) map[domain.Criterion]domain.CriterionAssessment {
	if e.oracle == nil {
		return bases
	}

	out := make(map[domain.Criterion]domain.CriterionAssessment, len(bases))
	var failed []domain.Criterion
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, criterion := range domain.AllCriteria() {
		criterion := criterion
		g.Go(func() error {
			refined, err := e.reasoner.Refine(gctx, e.oracle, criterion, bases[criterion], actx, patterns)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, criterion)
			} else {
				out[criterion] = refined
				e.countOracleCall(criterion, "ok")
			}
			return nil
		})
	}
	// Goroutines record their own outcomes and never return errors.
	_ = g.Wait()

	// Preserve the canonical criterion order for the retry pass.
	for _, criterion := range domain.AllCriteria() {
		if !contains(failed, criterion) {
			continue
		}
		refined, err := e.retrySequential(ctx, criterion, bases[criterion], actx, patterns)
		if err != nil {
			refined = e.reasoner.Fallback(criterion, bases[criterion], err)
			e.countOracleCall(criterion, "fallback")
		} else {
			e.countOracleCall(criterion, "retried")
		}
		out[criterion] = refined
	}

	return out
}

// retrySequential re-attempts one refinement with the step limiter
// enforcing the inter-request delay.
func (e *Engine) retrySequential(
	ctx context.Context,
	criterion domain.Criterion,
	base domain.CriterionAssessment,
	actx domain.AnalysisContext,
	patterns domain.PatternSet,
) (domain.CriterionAssessment, error) {
	if err := e.stepLimiter.Wait(ctx); err != nil {
		return domain.CriterionAssessment{}, err
	}
	return e.reasoner.Refine(ctx, e.oracle, criterion, base, actx, patterns)
}

func (e *Engine) countOracleCall(criterion domain.Criterion, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter("oracle_calls", 1, map[string]string{
		"criterion": string(criterion),
		"status":    status,
	})
}

func (e *Engine) recordAnalysisMetrics(
	start time.Time,
	actx domain.AnalysisContext,
	result domain.ReasoningResult,
	tracker *analysis.Tracker,
) {
	if e.metrics == nil {
		return
	}

	e.metrics.RecordLatency("analyze_risk", time.Since(start), nil)
	e.metrics.RecordGauge("evidence_quality", actx.EvidenceQuality, nil)
	e.metrics.RecordGauge("completed_evaluations", float64(actx.CompletedEvaluations), nil)

	for _, criterion := range domain.AllCriteria() {
		assessment := result.Assessment(criterion)
		e.metrics.RecordHistogram("confidence", assessment.Confidence,
			map[string]string{"criterion": string(criterion)})
	}
	for _, citation := range tracker.Citations() {
		e.metrics.RecordCounter("citations", 1, map[string]string{
			"criterion": string(citation.Criterion),
			"support":   string(citation.Support),
		})
	}
}

func contains(criteria []domain.Criterion, c domain.Criterion) bool {
	for _, candidate := range criteria {
		if candidate == c {
			return true
		}
	}
	return false
}
