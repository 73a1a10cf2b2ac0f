package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The global Prometheus registry rejects duplicate registration, so the
// whole package shares one instance.
var metrics = NewPrometheusMetrics()

func TestRecordCounter(t *testing.T) {
	t.Run("oracle calls route to the dedicated vector", func(t *testing.T) {
		metrics.RecordCounter("oracle_calls", 1, map[string]string{
			"criterion": "probability",
			"status":    "ok",
		})
		metrics.RecordCounter("oracle_calls", 2, map[string]string{
			"criterion": "probability",
			"status":    "ok",
		})

		value := testutil.ToFloat64(metrics.oracleCalls.WithLabelValues("probability", "ok"))
		assert.InDelta(t, 3.0, value, 1e-9)
	})

	t.Run("citations route to the dedicated vector", func(t *testing.T) {
		metrics.RecordCounter("citations", 1, map[string]string{
			"criterion": "impact",
			"support":   "negative",
		})

		value := testutil.ToFloat64(metrics.citationCounter.WithLabelValues("impact", "negative"))
		assert.InDelta(t, 1.0, value, 1e-9)
	})

	t.Run("other metrics land on the operation counter", func(t *testing.T) {
		metrics.RecordCounter("score_evaluation", 1, map[string]string{"status": "ok"})

		value := testutil.ToFloat64(metrics.operationTotal.WithLabelValues("score_evaluation", "ok"))
		assert.InDelta(t, 1.0, value, 1e-9)
	})
}

func TestRecordGauge(t *testing.T) {
	metrics.RecordGauge("evidence_quality", 0.73, nil)
	value := testutil.ToFloat64(metrics.analysisGauges.WithLabelValues("evidence_quality"))
	assert.InDelta(t, 0.73, value, 1e-9)

	// A criterion label extends the gauge name rather than adding a
	// dimension.
	metrics.RecordGauge("base_score", 2, map[string]string{"criterion": "impact"})
	value = testutil.ToFloat64(metrics.analysisGauges.WithLabelValues("base_score_impact"))
	assert.InDelta(t, 2.0, value, 1e-9)
}

func TestRecordLatencyAndHistogram(t *testing.T) {
	metrics.RecordLatency("analyze_risk", 30*time.Millisecond, nil)
	metrics.RecordHistogram("confidence", 0.8, map[string]string{"criterion": "vulnerability"})

	histogram, err := metrics.stageLatency.GetMetricWithLabelValues("analyze_risk", "")
	require.NoError(t, err)
	assert.NotNil(t, histogram)

	count := testutil.CollectAndCount(metrics.confidenceHist)
	assert.GreaterOrEqual(t, count, 1)
}
