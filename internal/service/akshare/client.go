package akshare

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/service/ratelimit"
	xhttp "StockPilot/pkg/http"
)

// Client adapts an AKTools gateway (HTTP front of AkShare) to the
// DataProvider interface. The widest of the data backends: it serves
// every market and every data kind the capability table routes to it.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

// New creates the AkShare adapter.
func New(baseURL string, httpClient *xhttp.Client, limiter *ratelimit.Limiter) *Client {
	return &Client{baseURL: baseURL, http: httpClient, limiter: limiter}
}

func (c *Client) ID() models.ProviderID { return models.ProviderAkShare }

const dateLayout = "20060102"

type histRow struct {
	Date     string  `json:"日期"`
	Open     float64 `json:"开盘"`
	Close    float64 `json:"收盘"`
	High     float64 `json:"最高"`
	Low      float64 `json:"最低"`
	Volume   float64 `json:"成交量"`
	Turnover float64 `json:"成交额"`
}

func (c *Client) History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error) {
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	endpoint := "stock_zh_a_hist"
	if code.Market == models.MarketHK {
		endpoint = "stock_hk_hist"
	}

	var rows []histRow
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/api/public/%s", c.baseURL, endpoint),
		QueryParams: map[string][]string{
			"symbol":     {code.Symbol},
			"period":     {"daily"},
			"start_date": {rng.Start.Format(dateLayout)},
			"end_date":   {rng.End.Format(dateLayout)},
			"adjust":     {"qfq"},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("akshare: history %s: %w", code.Symbol, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Date:     d,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			Turnover: r.Turnover,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("akshare: history %s: empty result", code.Symbol)
	}
	return candles, nil
}

type spotRow struct {
	Code      string  `json:"代码"`
	Name      string  `json:"名称"`
	Price     float64 `json:"最新价"`
	Open      float64 `json:"今开"`
	High      float64 `json:"最高"`
	Low       float64 `json:"最低"`
	PrevClose float64 `json:"昨收"`
	Volume    float64 `json:"成交量"`
	Turnover  float64 `json:"成交额"`
}

func (c *Client) Quote(ctx context.Context, code canonical.Code) (*models.Quote, error) {
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	endpoint := "stock_bid_ask_em"
	if code.Market == models.MarketHK {
		endpoint = "stock_hk_spot_em"
	}

	var rows []spotRow
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/api/public/%s", c.baseURL, endpoint),
		QueryParams: map[string][]string{"symbol": {code.Symbol}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("akshare: quote %s: %w", code.Symbol, err)
	}
	for _, r := range rows {
		if r.Code != code.Symbol {
			continue
		}
		return &models.Quote{
			Symbol:    code.Symbol,
			Market:    code.Market,
			Name:      r.Name,
			Price:     r.Price,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			PrevClose: r.PrevClose,
			Volume:    r.Volume,
			Turnover:  r.Turnover,
			Source:    c.ID(),
			Timestamp: time.Now(),
		}, nil
	}
	return nil, fmt.Errorf("akshare: quote %s: symbol not in response", code.Symbol)
}

type chipRow struct {
	Date          string  `json:"日期"`
	ProfitRatio   float64 `json:"获利比例"`
	AvgCost       float64 `json:"平均成本"`
	Cost90Low     float64 `json:"90成本-低"`
	Cost90High    float64 `json:"90成本-高"`
	Concentration float64 `json:"90集中度"`
}

func (c *Client) Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error) {
	if code.Market != models.MarketAShare {
		return nil, models.ErrUnsupportedKind
	}
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	var rows []chipRow
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/api/public/stock_cyq_em", c.baseURL),
		QueryParams: map[string][]string{"symbol": {code.Symbol}, "adjust": {"qfq"}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("akshare: chips %s: %w", code.Symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("akshare: chips %s: empty result", code.Symbol)
	}

	last := rows[len(rows)-1]
	d, _ := time.Parse("2006-01-02", last.Date)
	return &models.ChipDistribution{
		Symbol: code.Symbol,
		Date:   d,
		Buckets: []models.ChipBucket{
			{Price: last.Cost90Low, Weight: 0.05},
			{Price: last.AvgCost, Weight: 0.90},
			{Price: last.Cost90High, Weight: 0.05},
		},
		AvgCost:       last.AvgCost,
		Concentration: last.Concentration,
		ProfitRatio:   last.ProfitRatio,
		Source:        c.ID(),
	}, nil
}

type newsRow struct {
	Title   string `json:"新闻标题"`
	Content string `json:"新闻内容"`
	Time    string `json:"发布时间"`
	Source  string `json:"文章来源"`
	URL     string `json:"新闻链接"`
}

func (c *Client) News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error) {
	if err := c.limiter.Take(string(c.ID())); err != nil {
		return nil, err
	}

	var rows []newsRow
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/api/public/stock_news_em", c.baseURL),
		QueryParams: map[string][]string{"symbol": {code.Symbol}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("akshare: news %s: %w", code.Symbol, err)
	}

	items := make([]models.NewsItem, 0, len(rows))
	for _, r := range rows {
		pub, _ := time.Parse("2006-01-02 15:04:05", r.Time)
		items = append(items, models.NewsItem{
			Title:       r.Title,
			Summary:     r.Content,
			Source:      r.Source,
			URL:         r.URL,
			PublishedAt: pub,
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("akshare: news %s: empty result", code.Symbol)
	}
	return items, nil
}
