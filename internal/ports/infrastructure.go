package ports

import "time"

// MetricsCollector defines the interface for collecting operational
// metrics from the analysis pipeline. Implementations integrate with
// observability platforms like Prometheus; a nil collector disables
// metrics entirely.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// Useful for tracking events like oracle calls, fallbacks, citations.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric, such as the
	// evidence quality of the most recent analysis run.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, such as per-stage
	// durations or confidence distributions.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
