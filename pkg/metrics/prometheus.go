package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	attemptsTotal *prometheus.CounterVec
	winsTotal     *prometheus.CounterVec
	fallbackDepth *prometheus.HistogramVec
	failureStreak *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	outcomesSent  *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		attemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_provider_attempts_total",
				Help: "Provider attempts by result",
			},
			[]string{"provider", "result"},
		),
		winsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_provider_wins_total",
				Help: "Resolutions won per provider",
			},
			[]string{"provider"},
		),
		fallbackDepth: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpilot_fallback_depth",
				Help:    "Number of providers attempted per resolution",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
			[]string{"kind"},
		),
		failureStreak: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpilot_provider_failure_streak",
				Help: "Current consecutive failures per provider",
			},
			[]string{"provider"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_errors_total",
				Help: "Total errors by kind",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpilot_last_price",
				Help: "Last streamed price per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpilot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		outcomesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_outcomes_sent_total",
				Help: "Fetch outcomes shipped to the sink backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordAttempt records one provider attempt.
func (r *Recorder) RecordAttempt(provider string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	r.attemptsTotal.WithLabelValues(provider, result).Inc()
}

// RecordWin records a resolution won by the provider.
func (r *Recorder) RecordWin(provider string) {
	r.winsTotal.WithLabelValues(provider).Inc()
}

// RecordFallbackDepth records how many providers a resolution walked.
func (r *Recorder) RecordFallbackDepth(kind string, depth int) {
	r.fallbackDepth.WithLabelValues(kind).Observe(float64(depth))
}

// RecordFailureStreak records the provider's current failure streak.
func (r *Recorder) RecordFailureStreak(provider string, streak int) {
	r.failureStreak.WithLabelValues(provider).Set(float64(streak))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last streamed price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordOutcomeSent records one outcome shipped to a sink backend.
func (r *Recorder) RecordOutcomeSent(backend string) {
	r.outcomesSent.WithLabelValues(backend).Inc()
}
