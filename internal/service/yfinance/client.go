package yfinance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/service/ratelimit"
	xhttp "StockPilot/pkg/http"
)

// Client talks to the Yahoo Finance chart and search APIs. It is the
// only provider wired for US symbols and the backstop for HK.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// New creates the Yahoo Finance adapter.
func New(baseURL string, httpClient *xhttp.Client, limiter *ratelimit.Limiter) *Client {
	return &Client{baseURL: baseURL, http: httpClient, limiter: limiter}
}

func (c *Client) ID() models.ProviderID { return models.ProviderYFinance }

// yahooSymbol maps a canonical code to Yahoo notation.
// A-share: 600519.SS / 000001.SZ, HK: 0700.HK (four digits), US: as-is.
func yahooSymbol(code canonical.Code) string {
	switch code.Market {
	case models.MarketAShare:
		if code.Symbol[0] == '6' {
			return code.Symbol + ".SS"
		}
		return code.Symbol + ".SZ"
	case models.MarketHK:
		sym := code.Symbol
		for len(sym) > 4 && sym[0] == '0' {
			sym = sym[1:]
		}
		return sym + ".HK"
	default:
		return code.Symbol
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				PreviousClose       float64 `json:"chartPreviousClose"`
				RegularMarketVolume float64 `json:"regularMarketVolume"`
				RegularMarketTime   int64   `json:"regularMarketTime"`
				Currency            string  `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) chart(ctx context.Context, code canonical.Code, params url.Values) (*chartResponse, error) {
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}
	var out chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(yahooSymbol(code)) + "?" + params.Encode(),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("yfinance: chart %s: %w", code.Symbol, err)
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance: chart %s: %s: %s", code.Symbol, out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("yfinance: chart %s: empty result", code.Symbol)
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(rng.Start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(rng.End.AddDate(0, 0, 1).Unix(), 10))

	out, err := c.chart(ctx, code, params)
	if err != nil {
		return nil, err
	}
	res := out.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yfinance: history %s: no quote block", code.Symbol)
	}
	q := res.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(q.Close) || q.Close[i] == 0 {
			continue
		}
		candles = append(candles, models.Candle{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  q.Close[i],
			Volume: at(q.Volume, i),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("yfinance: history %s: empty result", code.Symbol)
	}
	return candles, nil
}

func (c *Client) Quote(ctx context.Context, code canonical.Code) (*models.Quote, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	out, err := c.chart(ctx, code, params)
	if err != nil {
		return nil, err
	}
	meta := out.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("yfinance: quote %s: no market price", code.Symbol)
	}
	q := &models.Quote{
		Symbol:    code.Symbol,
		Price:     meta.RegularMarketPrice,
		PrevClose: meta.PreviousClose,
		Volume:    meta.RegularMarketVolume,
		Timestamp: time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if meta.PreviousClose > 0 {
		q.ChangePct = (meta.RegularMarketPrice - meta.PreviousClose) / meta.PreviousClose * 100
	}
	return q, nil
}

func (c *Client) Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error) {
	return nil, models.ErrUnsupportedKind
}

type searchResponse struct {
	News []struct {
		Title     string `json:"title"`
		Publisher string `json:"publisher"`
		Link      string `json:"link"`
		Published int64  `json:"providerPublishTime"`
	} `json:"news"`
}

func (c *Client) News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error) {
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("q", yahooSymbol(code))
	params.Set("newsCount", strconv.Itoa(limit))
	params.Set("quotesCount", "0")

	var out searchResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/finance/search?" + params.Encode(),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("yfinance: news %s: %w", code.Symbol, err)
	}

	items := make([]models.NewsItem, 0, len(out.News))
	for _, n := range out.News {
		items = append(items, models.NewsItem{
			Title:  n.Title,
			Source: n.Publisher,
			URL:    n.Link,
			PublishedAt: time.Unix(n.Published, 0).UTC(),
		})
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
