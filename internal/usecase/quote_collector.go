package usecase

import (
	"context"

	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/pkg/logger"
)

// QuoteCollector consumes the push quote stream and keeps the last-price
// gauges warm. It runs beside the pull path; a broken stream never
// affects pulled fetches.
type QuoteCollector struct {
	stream  drepo.QuoteStream
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewQuoteCollector creates a QuoteCollector.
func NewQuoteCollector(stream drepo.QuoteStream, metrics drepo.Metrics, log *logger.Logger) *QuoteCollector {
	return &QuoteCollector{stream: stream, metrics: metrics, log: log.With("quote_collector")}
}

// IsConnected reports stream status.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes, and spawns the consume loop.
func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	qCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, qCh, errCh)
	return nil
}

func (c *QuoteCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				c.log.Warn("stream error, reconnecting", logger.Error(err))
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.log.Error("reconnect failed", logger.Error(rerr))
					return
				}
				qCh, errCh = c.stream.Read(ctx)
			}
		case q := <-qCh:
			if q == nil {
				continue
			}
			c.metrics.RecordLastPrice(q.Symbol, q.Price)
		}
	}
}

// Stop closes the stream.
func (c *QuoteCollector) Stop() error { return c.stream.Close() }
