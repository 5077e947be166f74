package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	registry *prometheus.Registry

	sessionsCreated    prometheus.Counter
	sessionTransitions *prometheus.CounterVec
	storeReadDuration  prometheus.Histogram
	storeWriteDuration prometheus.Histogram

	providerCallTotal    *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	providerTokensTotal  *prometheus.CounterVec

	dispatchTotal   *prometheus.CounterVec
	detachLaunches  *prometheus.CounterVec
	pollIterations  prometheus.Counter
	runnerDuration  prometheus.Histogram
	attachmentBytes prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			registry: prometheus.NewRegistry(),
			sessionsCreated: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "oracle_sessions_created_total",
					Help: "Total sessions created.",
				},
			),
			sessionTransitions: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "oracle_session_transitions_total",
					Help: "Session status transitions by target status.",
				},
				[]string{"status"},
			),
			storeReadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "oracle_store_read_duration_seconds",
					Help:    "Session record read duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			storeWriteDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "oracle_store_write_duration_seconds",
					Help:    "Session record write duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			providerCallTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "oracle_provider_calls_total",
					Help: "Total model calls by provider and status.",
				},
				[]string{"provider", "status"},
			),
			providerCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "oracle_provider_call_duration_seconds",
					Help:    "Model call duration in seconds by provider.",
					Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
				},
				[]string{"provider"},
			),
			providerTokensTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "oracle_provider_tokens_total",
					Help: "Tokens consumed by model and direction.",
				},
				[]string{"model", "direction"},
			),
			dispatchTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "oracle_dispatch_total",
					Help: "Dispatches by kind (single, multi) and outcome.",
				},
				[]string{"kind", "outcome"},
			),
			detachLaunches: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "oracle_detach_launches_total",
					Help: "Background runner launches by result.",
				},
				[]string{"result"},
			),
			pollIterations: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "oracle_poll_iterations_total",
					Help: "Status poller iterations.",
				},
			),
			runnerDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "oracle_runner_duration_seconds",
					Help:    "End-to-end session execution duration in seconds.",
					Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
				},
			),
			attachmentBytes: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "oracle_attachment_bytes",
					Help:    "Size of attached files in bytes.",
					Buckets: prometheus.ExponentialBuckets(256, 4, 8),
				},
			),
		}

		m.registry.MustRegister(
			m.sessionsCreated,
			m.sessionTransitions,
			m.storeReadDuration,
			m.storeWriteDuration,
			m.providerCallTotal,
			m.providerCallDuration,
			m.providerTokensTotal,
			m.dispatchTotal,
			m.detachLaunches,
			m.pollIterations,
			m.runnerDuration,
			m.attachmentBytes,
		)

		metricsInst = m
	})

	return metricsInst
}

// Registry returns the registry holding every oracle metric.
func Registry() *prometheus.Registry {
	return getMetrics().registry
}

// WriteTextfile dumps the current metrics in the Prometheus text format,
// suitable for the node_exporter textfile collector. The parent directory is
// created if needed.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, getMetrics().registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func RecordSessionCreated() {
	getMetrics().sessionsCreated.Inc()
}

func RecordSessionTransition(status string) {
	getMetrics().sessionTransitions.WithLabelValues(status).Inc()
}

func RecordStoreRead(duration time.Duration) {
	getMetrics().storeReadDuration.Observe(duration.Seconds())
}

func RecordStoreWrite(duration time.Duration) {
	getMetrics().storeWriteDuration.Observe(duration.Seconds())
}

func RecordProviderCall(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.providerCallTotal.WithLabelValues(provider, status).Inc()
	m.providerCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordTokens(model string, input, output, reasoning int) {
	m := getMetrics()
	m.providerTokensTotal.WithLabelValues(model, "input").Add(float64(input))
	m.providerTokensTotal.WithLabelValues(model, "output").Add(float64(output))
	if reasoning > 0 {
		m.providerTokensTotal.WithLabelValues(model, "reasoning").Add(float64(reasoning))
	}
}

// RecordDispatch counts a finished dispatch. outcome is "completed" or
// "error".
func RecordDispatch(kind, outcome string) {
	getMetrics().dispatchTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordDetachLaunch(success bool) {
	result := "error"
	if success {
		result = "success"
	}
	getMetrics().detachLaunches.WithLabelValues(result).Inc()
}

func RecordPollIteration() {
	getMetrics().pollIterations.Inc()
}

func RecordRunnerDuration(duration time.Duration) {
	getMetrics().runnerDuration.Observe(duration.Seconds())
}

func RecordAttachment(size int64) {
	getMetrics().attachmentBytes.Observe(float64(size))
}
