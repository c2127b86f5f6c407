package baostock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/service/ratelimit"
	xhttp "StockPilot/pkg/http"
)

// Client adapts a Baostock HTTP bridge. Baostock itself speaks a
// session-oriented binary protocol; deployments front it with a small
// JSON gateway, which is what this adapter talks to. History only:
// the capability table never routes quotes, chips or news here.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// New creates the Baostock adapter.
func New(baseURL string, httpClient *xhttp.Client, limiter *ratelimit.Limiter) *Client {
	return &Client{baseURL: baseURL, http: httpClient, limiter: limiter}
}

func (c *Client) ID() models.ProviderID { return models.ProviderBaostock }

// bsCode renders the Baostock notation: sh.600519 / sz.000001.
func bsCode(code canonical.Code) string {
	if code.Symbol[0] == '6' {
		return "sh." + code.Symbol
	}
	return "sz." + code.Symbol
}

type histResponse struct {
	ErrorCode string     `json:"error_code"`
	ErrorMsg  string     `json:"error_msg"`
	Fields    []string   `json:"fields"`
	Data      [][]string `json:"data"`
}

func (c *Client) History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error) {
	if code.Market != models.MarketAShare {
		return nil, models.ErrUnsupportedKind
	}
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	var out histResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/query_history_k_data_plus",
		Body: map[string]string{
			"code":       bsCode(code),
			"fields":     "date,open,high,low,close,volume,amount",
			"start_date": rng.Start.Format("2006-01-02"),
			"end_date":   rng.End.Format("2006-01-02"),
			"frequency":  "d",
			"adjustflag": "2",
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("baostock: history %s: %w", code.Symbol, err)
	}
	if out.ErrorCode != "" && out.ErrorCode != "0" {
		return nil, fmt.Errorf("baostock: history %s: error %s: %s", code.Symbol, out.ErrorCode, out.ErrorMsg)
	}

	candles := make([]models.Candle, 0, len(out.Data))
	for _, row := range out.Data {
		if len(row) < 7 {
			continue
		}
		d, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Date:     d,
			Open:     parseFloat(row[1]),
			High:     parseFloat(row[2]),
			Low:      parseFloat(row[3]),
			Close:    parseFloat(row[4]),
			Volume:   parseFloat(row[5]),
			Turnover: parseFloat(row[6]),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("baostock: history %s: empty result", code.Symbol)
	}
	return candles, nil
}

func (c *Client) Quote(ctx context.Context, code canonical.Code) (*models.Quote, error) {
	return nil, models.ErrUnsupportedKind
}

func (c *Client) Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error) {
	return nil, models.ErrUnsupportedKind
}

func (c *Client) News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error) {
	return nil, models.ErrUnsupportedKind
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
