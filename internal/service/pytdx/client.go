package pytdx

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/service/ratelimit"
	xhttp "StockPilot/pkg/http"
)

// Client adapts a TDX (通达信) HTTP gateway. The TDX wire protocol is a
// proprietary binary stream served by quote hosts; this adapter expects
// a JSON bridge in front of it. Last-resort A-share source: history and
// realtime quotes only.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// New creates the TDX gateway adapter.
func New(baseURL string, httpClient *xhttp.Client, limiter *ratelimit.Limiter) *Client {
	return &Client{baseURL: baseURL, http: httpClient, limiter: limiter}
}

func (c *Client) ID() models.ProviderID { return models.ProviderPytdx }

// tdxMarket returns the TDX exchange id: 1 for Shanghai, 0 for Shenzhen.
func tdxMarket(code canonical.Code) int {
	if code.Symbol[0] == '6' {
		return 1
	}
	return 0
}

type barsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open"`
		High     float64 `json:"high"`
		Low      float64 `json:"low"`
		Close    float64 `json:"close"`
		Vol      float64 `json:"vol"`
		Amount   float64 `json:"amount"`
	} `json:"data"`
}

func (c *Client) History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error) {
	if code.Market != models.MarketAShare {
		return nil, models.ErrUnsupportedKind
	}
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	var out barsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/api/bars",
		Body: map[string]any{
			"market":   tdxMarket(code),
			"code":     code.Symbol,
			"category": 9, // daily bars
			"start":    rng.Start.Format("20060102"),
			"end":      rng.End.Format("20060102"),
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("pytdx: history %s: %w", code.Symbol, err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("pytdx: history %s: code %d: %s", code.Symbol, out.Code, out.Msg)
	}

	candles := make([]models.Candle, 0, len(out.Data))
	for _, row := range out.Data {
		d, err := time.Parse("2006-01-02", row.Datetime[:10])
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Date:     d,
			Open:     row.Open,
			High:     row.High,
			Low:      row.Low,
			Close:    row.Close,
			Volume:   row.Vol,
			Turnover: row.Amount,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("pytdx: history %s: empty result", code.Symbol)
	}
	return candles, nil
}

type quoteResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Price     float64 `json:"price"`
		LastClose float64 `json:"last_close"`
		Open      float64 `json:"open"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Vol       float64 `json:"vol"`
		Amount    float64 `json:"amount"`
	} `json:"data"`
}

func (c *Client) Quote(ctx context.Context, code canonical.Code) (*models.Quote, error) {
	if code.Market != models.MarketAShare {
		return nil, models.ErrUnsupportedKind
	}
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	var out quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/api/quote",
		Body: map[string]any{
			"market": tdxMarket(code),
			"code":   code.Symbol,
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("pytdx: quote %s: %w", code.Symbol, err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("pytdx: quote %s: code %d: %s", code.Symbol, out.Code, out.Msg)
	}
	if out.Data.Price == 0 {
		return nil, fmt.Errorf("pytdx: quote %s: no price", code.Symbol)
	}

	q := &models.Quote{
		Symbol:    code.Symbol,
		Price:     out.Data.Price,
		Open:      out.Data.Open,
		High:      out.Data.High,
		Low:       out.Data.Low,
		PrevClose: out.Data.LastClose,
		Volume:    out.Data.Vol,
		Turnover:  out.Data.Amount,
		Timestamp: time.Now().UTC(),
	}
	if out.Data.LastClose > 0 {
		q.ChangePct = (out.Data.Price - out.Data.LastClose) / out.Data.LastClose * 100
	}
	return q, nil
}

func (c *Client) Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error) {
	return nil, models.ErrUnsupportedKind
}

func (c *Client) News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error) {
	return nil, models.ErrUnsupportedKind
}
