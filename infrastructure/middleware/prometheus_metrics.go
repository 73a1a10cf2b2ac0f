// Package middleware provides cross-cutting concerns for the risk engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-sentinel/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks scoring and analysis throughput, oracle call
// outcomes and evidence quality for the engine.
type PrometheusMetrics struct {
	stageLatency    *prometheus.HistogramVec
	oracleCalls     *prometheus.CounterVec
	operationTotal  *prometheus.CounterVec
	analysisGauges  *prometheus.GaugeVec
	confidenceHist  *prometheus.HistogramVec
	citationCounter *prometheus.CounterVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics in the global Prometheus registry. Call it at most once per
// process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_engine_stage_duration_seconds",
				Help:    "Execution time of engine pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "criterion"},
		),
		oracleCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_engine_oracle_calls_total",
				Help: "External oracle calls by criterion and outcome.",
			},
			[]string{"criterion", "status"},
		),
		operationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_engine_operations_total",
				Help: "Engine operations by name and status.",
			},
			[]string{"operation", "status"},
		),
		analysisGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risk_engine_analysis_state",
				Help: "State values from the most recent analysis run.",
			},
			[]string{"metric"},
		),
		confidenceHist: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_engine_confidence",
				Help:    "Distribution of criterion confidence values.",
				Buckets: prometheus.LinearBuckets(0.3, 0.05, 14),
			},
			[]string{"criterion"},
		),
		citationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_engine_citations_total",
				Help: "Citations recorded by criterion and support type.",
			},
			[]string{"criterion", "support"},
		),
	}
}

// RecordLatency records the execution time of a pipeline stage.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.stageLatency.WithLabelValues(operation, labels["criterion"]).Observe(duration.Seconds())
}

// RecordCounter increments a counter metric. Oracle call and citation
// metrics route to dedicated vectors; everything else lands on the
// generic operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "oracle_calls":
		pm.oracleCalls.WithLabelValues(labels["criterion"], labels["status"]).Add(value)
	case "citations":
		pm.citationCounter.WithLabelValues(labels["criterion"], labels["support"]).Add(value)
	default:
		pm.operationTotal.WithLabelValues(metric, labels["status"]).Add(value)
	}
}

// RecordGauge sets an analysis state gauge such as evidence quality or
// the number of completed evaluations in the input set.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	name := metric
	if criterion, ok := labels["criterion"]; ok && criterion != "" {
		name = metric + "_" + criterion
	}
	pm.analysisGauges.WithLabelValues(name).Set(value)
}

// RecordHistogram records a histogram observation. Confidence values get
// their own tightly-bucketed vector.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == "confidence" {
		pm.confidenceHist.WithLabelValues(labels["criterion"]).Observe(value)
		return
	}
	pm.stageLatency.WithLabelValues(metric, labels["criterion"]).Observe(value)
}
