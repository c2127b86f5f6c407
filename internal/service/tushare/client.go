package tushare

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/service/ratelimit"
	xhttp "StockPilot/pkg/http"
)

// Client adapts the Tushare pro API. Every call is a POST of
// {api_name, token, params, fields} returning columnar items.
type Client struct {
	baseURL string
	token   string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// New creates the Tushare adapter.
func New(baseURL, token string, httpClient *xhttp.Client, limiter *ratelimit.Limiter) *Client {
	return &Client{baseURL: baseURL, token: token, http: httpClient, limiter: limiter}
}

func (c *Client) ID() models.ProviderID { return models.ProviderTushare }

type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields,omitempty"`
}

type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

func (c *Client) call(ctx context.Context, apiName string, params map[string]string, fields string) (*apiResponse, error) {
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}
	if c.token == "" {
		return nil, fmt.Errorf("tushare: token is not configured")
	}

	var out apiResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL,
		Body:   apiRequest{APIName: apiName, Token: c.token, Params: params, Fields: fields},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("tushare: %s: %w", apiName, err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("tushare: %s: code %d: %s", apiName, out.Code, out.Msg)
	}
	return &out, nil
}

// tsCode renders the Tushare notation: 600519.SH, 000001.SZ, 00700.HK.
func tsCode(code canonical.Code) string {
	switch code.Market {
	case models.MarketHK:
		return code.Symbol + ".HK"
	case models.MarketAShare:
		if code.Symbol[0] == '6' {
			return code.Symbol + ".SH"
		}
		return code.Symbol + ".SZ"
	default:
		return code.Symbol
	}
}

const dateLayout = "20060102"

func (c *Client) History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error) {
	resp, err := c.call(ctx, "daily", map[string]string{
		"ts_code":    tsCode(code),
		"start_date": rng.Start.Format(dateLayout),
		"end_date":   rng.End.Format(dateLayout),
	}, "trade_date,open,high,low,close,vol,amount")
	if err != nil {
		return nil, err
	}

	idx := fieldIndex(resp.Data.Fields)
	candles := make([]models.Candle, 0, len(resp.Data.Items))
	// Tushare returns newest first; reverse into chronological order.
	for i := len(resp.Data.Items) - 1; i >= 0; i-- {
		row := resp.Data.Items[i]
		d, err := time.Parse(dateLayout, str(row, idx["trade_date"]))
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Date:     d,
			Open:     num(row, idx["open"]),
			High:     num(row, idx["high"]),
			Low:      num(row, idx["low"]),
			Close:    num(row, idx["close"]),
			Volume:   num(row, idx["vol"]),
			Turnover: num(row, idx["amount"]),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("tushare: history %s: empty result", code.Symbol)
	}
	return candles, nil
}

func (c *Client) Quote(ctx context.Context, code canonical.Code) (*models.Quote, error) {
	resp, err := c.call(ctx, "realtime_quote", map[string]string{
		"ts_code": tsCode(code),
	}, "name,price,open,high,low,pre_close,volume,amount")
	if err != nil {
		return nil, err
	}
	if len(resp.Data.Items) == 0 {
		return nil, fmt.Errorf("tushare: quote %s: empty result", code.Symbol)
	}

	idx := fieldIndex(resp.Data.Fields)
	row := resp.Data.Items[0]
	return &models.Quote{
		Symbol:    code.Symbol,
		Market:    code.Market,
		Name:      str(row, idx["name"]),
		Price:     num(row, idx["price"]),
		Open:      num(row, idx["open"]),
		High:      num(row, idx["high"]),
		Low:       num(row, idx["low"]),
		PrevClose: num(row, idx["pre_close"]),
		Volume:    num(row, idx["volume"]),
		Turnover:  num(row, idx["amount"]),
		Source:    c.ID(),
		Timestamp: time.Now(),
	}, nil
}

func (c *Client) Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error) {
	return nil, models.ErrUnsupportedKind
}

func (c *Client) News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error) {
	resp, err := c.call(ctx, "news", map[string]string{
		"src": "sina",
	}, "datetime,title,content,channels")
	if err != nil {
		return nil, err
	}

	idx := fieldIndex(resp.Data.Fields)
	items := make([]models.NewsItem, 0, limit)
	for _, row := range resp.Data.Items {
		pub, _ := time.Parse("2006-01-02 15:04:05", str(row, idx["datetime"]))
		items = append(items, models.NewsItem{
			Title:       str(row, idx["title"]),
			Summary:     str(row, idx["content"]),
			Source:      "tushare",
			PublishedAt: pub,
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("tushare: news: empty result")
	}
	return items, nil
}

func fieldIndex(fields []string) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	return idx
}

func str(row []interface{}, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}

func num(row []interface{}, i int) float64 {
	if i < 0 || i >= len(row) {
		return 0
	}
	f, _ := row[i].(float64)
	return f
}
