package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/pkg/logger"
)

const reportSystemPrompt = "You are an equity analyst. Write a concise decision report " +
	"from the data provided: trend, momentum, notable news, and a clear stance " +
	"(bullish, bearish, or neutral) with its main risk. Do not invent numbers."

// Report assembles a model-written decision report for one instrument:
// canonicalize, pull the data trio, and hand the digest to the LLM walk.
type Report struct {
	canon *canonical.Canonicalizer
	data  *MarketData
	llm   *LLM
	log   *logger.Logger
}

// NewReport creates the report usecase.
func NewReport(canon *canonical.Canonicalizer, data *MarketData, llm *LLM, log *logger.Logger) *Report {
	return &Report{canon: canon, data: data, llm: llm, log: log.With("report")}
}

// Analyze produces a decision report. History is mandatory; quote and
// news are best-effort so a single flaky kind does not sink the report.
func (r *Report) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	code, err := r.canon.Canonicalize(req.Code)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	rng := models.DateRange{Start: end.AddDate(0, 0, -req.Days), End: end}
	candles, err := r.data.History(ctx, code, rng)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", code.Symbol, err)
	}

	quote, qerr := r.data.Quote(ctx, code)
	if qerr != nil {
		r.log.Warn("analyze without quote", logger.String("symbol", code.Symbol), logger.Error(qerr))
	}
	var news []models.NewsItem
	if req.NewsLimit > 0 {
		var nerr error
		news, nerr = r.data.News(ctx, code, req.NewsLimit)
		if nerr != nil {
			r.log.Warn("analyze without news", logger.String("symbol", code.Symbol), logger.Error(nerr))
		}
	}

	prompt := buildDigest(code, quote, candles, news, req.Question)
	resp, err := r.llm.Chat(ctx, &models.ChatRequest{
		System:   reportSystemPrompt,
		Messages: []models.ChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", code.Symbol, err)
	}

	return &models.AnalyzeResponse{
		Symbol:   code.Symbol,
		Market:   code.Market,
		Quote:    quote,
		Report:   resp.Text,
		Provider: resp.Provider,
		Model:    resp.Model,
		Attempts: resp.Attempts,
	}, nil
}

// buildDigest renders the fetched data as a compact plaintext block.
// Only the head and tail of the candle series go in; the model needs
// shape, not every bar.
func buildDigest(code canonical.Code, quote *models.Quote, candles []models.Candle, news []models.NewsItem, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Instrument: %s (%s)\n", code.String(), code.Market)

	if quote != nil {
		fmt.Fprintf(&b, "Last price: %.4f (%.2f%% vs prev close), volume %.0f\n",
			quote.Price, quote.ChangePct, quote.Volume)
	}

	if len(candles) > 0 {
		first, last := candles[0], candles[len(candles)-1]
		fmt.Fprintf(&b, "History: %d daily bars, %s to %s\n",
			len(candles), first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
		lo, hi := first.Low, first.High
		for _, c := range candles {
			if c.Low < lo {
				lo = c.Low
			}
			if c.High > hi {
				hi = c.High
			}
		}
		fmt.Fprintf(&b, "Range: low %.4f high %.4f, first close %.4f last close %.4f\n",
			lo, hi, first.Close, last.Close)
		b.WriteString("Recent closes:")
		tail := candles
		if len(tail) > 10 {
			tail = tail[len(tail)-10:]
		}
		for _, c := range tail {
			fmt.Fprintf(&b, " %.4f", c.Close)
		}
		b.WriteString("\n")
	}

	for _, n := range news {
		fmt.Fprintf(&b, "News [%s] %s\n", n.PublishedAt.Format("01-02"), n.Title)
	}

	if question != "" {
		fmt.Fprintf(&b, "Question: %s\n", question)
	}
	return b.String()
}
