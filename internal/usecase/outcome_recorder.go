package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/pkg/logger"
)

// Sink backends for fetch outcomes.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// OutcomeRecorder routes fetch outcomes to the configured sink backend.
// With BackendNone it degrades to a no-op so the data path never depends
// on sink availability.
type OutcomeRecorder struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	log     *logger.Logger
	backend string
}

// NewOutcomeRecorder creates an OutcomeRecorder for the given backend.
func NewOutcomeRecorder(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	log *logger.Logger,
	backend string,
) *OutcomeRecorder {
	return &OutcomeRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		log:     log.With("outcome_recorder"),
		backend: backend,
	}
}

// Record ships a single outcome. Sink failures are reported through
// metrics and logs but never propagated: outcome delivery is best-effort
// and must not fail the fetch that produced it.
func (r *OutcomeRecorder) Record(ctx context.Context, o *models.FetchOutcome) {
	if o == nil || r.backend == BackendNone {
		return
	}

	start := time.Now()
	var err error

	switch r.backend {
	case BackendKafka:
		err = r.pub.Publish(ctx, o)
	case BackendClickHouse:
		err = r.store.Store(ctx, o)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("outcome_sink")
		r.log.Warn("outcome sink failed",
			logger.String("backend", r.backend),
			logger.String("symbol", o.Symbol),
			logger.Error(err))
		return
	}

	r.metrics.RecordOutcomeSent(r.backend)
	r.metrics.RecordLatency("outcome_sink", time.Since(start).Seconds())
}

// RecordBatch ships multiple outcomes at once, with the same best-effort
// error handling as Record.
func (r *OutcomeRecorder) RecordBatch(ctx context.Context, outcomes []*models.FetchOutcome) {
	if len(outcomes) == 0 || r.backend == BackendNone {
		return
	}

	start := time.Now()
	var err error

	switch r.backend {
	case BackendKafka:
		err = r.pub.PublishBatch(ctx, outcomes)
	case BackendClickHouse:
		err = r.store.StoreBatch(ctx, outcomes)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("outcome_sink_batch")
		r.log.Warn("outcome sink batch failed",
			logger.String("backend", r.backend),
			logger.Int("count", len(outcomes)),
			logger.Error(err))
		return
	}

	for range outcomes {
		r.metrics.RecordOutcomeSent(r.backend)
	}
	r.metrics.RecordLatency("outcome_sink_batch", time.Since(start).Seconds())
}

// Close closes underlying sink resources if present.
func (r *OutcomeRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}
