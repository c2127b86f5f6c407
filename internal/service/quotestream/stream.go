package quotestream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a QuoteStream over a trade-tick WebSocket feed.
// Incoming ticks are folded into Quote snapshots so downstream code
// sees the same shape the pull providers produce.
type Client struct {
	token          string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a websocket quote stream.
func New(token, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.QuoteStream {
	return &Client{
		token:          token,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log.With("quotestream"),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("quotestream connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Info("stream connected", logger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	conn, ok := c.conn, c.connected
	c.mu.Unlock()
	if conn == nil || !ok {
		return fmt.Errorf("quotestream: not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.log.Debug("subscribed", logger.String("symbol", s))
	}
	return nil
}

type tickFrame struct {
	Type string `json:"type"`
	Data []struct {
		S string  `json:"s"`
		P float64 `json:"p"`
		V float64 `json:"v"`
		T int64   `json:"t"` // ms
	} `json:"data"`
}

// Read streams Quote snapshots and errors until ctx is done or the
// connection drops. A dropped connection closes both channels after a
// single error; the caller decides whether to Reconnect.
func (c *Client) Read(ctx context.Context) (<-chan *models.Quote, <-chan error) {
	quotes := make(chan *models.Quote, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				conn := c.conn
				c.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(quotes)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				c.mu.Lock()
				conn := c.conn
				c.mu.Unlock()
				if conn == nil {
					errs <- fmt.Errorf("quotestream: conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("quotestream read: %w", err)
					return
				}
				var frame tickFrame
				if err := json.Unmarshal(b, &frame); err != nil {
					// ignore non-tick frames
					continue
				}
				if frame.Type != "trade" {
					continue
				}
				for _, d := range frame.Data {
					q := &models.Quote{
						Symbol:    d.S,
						Price:     d.P,
						Volume:    d.V,
						Source:    "stream",
						Timestamp: time.UnixMilli(d.T).UTC(),
					}
					select {
					case quotes <- q:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return quotes, errs
}

// Reconnect closes and reconnects, then resubscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
