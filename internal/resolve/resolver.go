package resolve

import (
	"context"
	"errors"
	"time"

	"StockPilot/internal/capability"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/domain/repository"
	"StockPilot/internal/health"
	"StockPilot/pkg/logger"
)

// AttemptFunc tries one provider for the value being resolved.
type AttemptFunc[T any] func(ctx context.Context, id models.ProviderID) (T, error)

// Outcome is the full result of one resolution walk: the value (when a
// provider won), the winner, and the per-provider attempt log.
type Outcome[T any] struct {
	Result   T
	Winner   models.ProviderID
	Attempts []models.Attempt
}

// Resolved reports whether any provider succeeded.
func (o Outcome[T]) Resolved() bool { return o.Winner != "" }

// Options tunes a Resolver. Zero values fall back to defaults.
type Options struct {
	// SkipThreshold is the failure streak at which a provider is
	// soft-deprioritized to the end of the walk. Default 3.
	SkipThreshold int
	// DefaultTimeout bounds each attempt without a per-provider
	// override. Default 15s.
	DefaultTimeout time.Duration
	// Timeouts overrides the attempt timeout per provider.
	Timeouts map[models.ProviderID]time.Duration
}

const (
	defaultSkipThreshold  = 3
	defaultAttemptTimeout = 15 * time.Second
)

// Resolver walks an ordered provider list until one attempt succeeds.
// It is stateless per call: the capability table is immutable and the
// health tracker does its own locking, so one Resolver serves any number
// of concurrent callers.
type Resolver struct {
	table   *capability.Table
	health  *health.Tracker
	metrics repository.Metrics
	log     *logger.Logger
	opts    Options
}

// New creates a Resolver over a capability table and a health tracker.
func New(table *capability.Table, tracker *health.Tracker, metrics repository.Metrics, log *logger.Logger, opts Options) *Resolver {
	if opts.SkipThreshold <= 0 {
		opts.SkipThreshold = defaultSkipThreshold
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = defaultAttemptTimeout
	}
	return &Resolver{table: table, health: tracker, metrics: metrics, log: log, opts: opts}
}

// Health returns the injected tracker, for snapshot endpoints.
func (r *Resolver) Health() *health.Tracker { return r.health }

// Resolve walks the capability order for (market, kind), demoting
// providers whose failure streak reached the skip threshold, and returns
// the first success. A generic function rather than a method because Go
// methods cannot introduce type parameters.
//
// Per-provider failures are absorbed here; the only errors that reach
// the caller are ErrUnsupportedCombination, context errors when the
// caller cancels mid-walk, and *models.ExhaustedError when every
// provider failed. An attempt aborted by the caller's own cancellation
// is not charged to the provider's failure streak.
func Resolve[T any](ctx context.Context, r *Resolver, market models.Market, kind models.DataKind, fn AttemptFunc[T]) (Outcome[T], error) {
	var out Outcome[T]

	ordered, err := r.table.Lookup(market, kind)
	if err != nil {
		return out, err
	}
	ordered = r.demote(ordered)

	for _, id := range ordered {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		start := time.Now()
		result, attemptErr := runAttempt(ctx, r, id, fn)
		elapsed := time.Since(start)
		r.metrics.RecordLatency("attempt_"+string(id), elapsed.Seconds())

		att := models.Attempt{
			Provider:   id,
			OK:         attemptErr == nil,
			DurationMS: elapsed.Milliseconds(),
			Elapsed:    elapsed,
		}

		if attemptErr == nil {
			out.Attempts = append(out.Attempts, att)
			out.Winner = id
			out.Result = result
			r.health.RecordSuccess(id)
			r.metrics.RecordAttempt(string(id), true)
			r.metrics.RecordWin(string(id))
			r.metrics.RecordFailureStreak(string(id), 0)
			r.metrics.RecordFallbackDepth(string(kind), len(out.Attempts))
			if len(out.Attempts) > 1 {
				r.log.Warn("resolved after fallback",
					logger.String("kind", string(kind)),
					logger.String("winner", string(id)),
					logger.Int("attempts", len(out.Attempts)))
			}
			return out, nil
		}

		att.Error = attemptErr.Error()
		out.Attempts = append(out.Attempts, att)

		// The caller gave up mid-attempt. The provider did nothing
		// wrong, so leave its streak alone and stop the walk.
		if ctx.Err() != nil && errors.Is(attemptErr, ctx.Err()) {
			return out, ctx.Err()
		}

		r.health.RecordFailure(id)
		r.metrics.RecordAttempt(string(id), false)
		r.metrics.RecordFailureStreak(string(id), r.health.Failures(id))
		r.log.Warn("provider attempt failed",
			logger.String("provider", string(id)),
			logger.String("kind", string(kind)),
			logger.Error(attemptErr))
	}

	exhausted := &models.ExhaustedError{Market: market, Kind: kind, Attempts: out.Attempts}
	r.metrics.RecordError("exhausted")
	r.log.Error("all providers exhausted",
		logger.String("market", string(market)),
		logger.String("kind", string(kind)),
		logger.Int("attempts", len(out.Attempts)))
	return out, exhausted
}

func runAttempt[T any](ctx context.Context, r *Resolver, id models.ProviderID, fn AttemptFunc[T]) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeoutFor(id))
	defer cancel()
	return fn(attemptCtx, id)
}

// demote moves providers at or past the skip threshold to the tail,
// preserving relative order in both partitions. Cold providers stay
// eligible: when everything else fails the walk still reaches them.
func (r *Resolver) demote(ordered []models.ProviderID) []models.ProviderID {
	healthy := make([]models.ProviderID, 0, len(ordered))
	var cold []models.ProviderID
	for _, id := range ordered {
		if r.health.Failures(id) >= r.opts.SkipThreshold {
			cold = append(cold, id)
		} else {
			healthy = append(healthy, id)
		}
	}
	return append(healthy, cold...)
}

func (r *Resolver) timeoutFor(id models.ProviderID) time.Duration {
	if d, ok := r.opts.Timeouts[id]; ok && d > 0 {
		return d
	}
	return r.opts.DefaultTimeout
}
