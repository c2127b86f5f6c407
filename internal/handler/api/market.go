package api

import (
	"errors"
	"net/http"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/usecase"
	xhttp "StockPilot/pkg/http"
	xlogger "StockPilot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler exposes the data and report surface over Echo.
type MarketHandler struct {
	logger *xlogger.Logger
	canon  *canonical.Canonicalizer
	data   *usecase.MarketData
	llm    *usecase.LLM
	report *usecase.Report
}

func NewMarketHandler(logger *xlogger.Logger, canon *canonical.Canonicalizer, data *usecase.MarketData, llm *usecase.LLM, report *usecase.Report) *MarketHandler {
	return &MarketHandler{logger: logger, canon: canon, data: data, llm: llm, report: report}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/quote/:code", h.Quote)
	g.GET("/history/:code", h.History)
	g.GET("/chips/:code", h.Chips)
	g.GET("/news/:code", h.News)
	g.GET("/providers/health", h.ProviderHealth)
	g.POST("/chat", h.Chat)
	g.POST("/analyze", h.Analyze)
}

// resolveErrResponse maps resolution failures onto HTTP statuses: bad
// input is the caller's fault, an exhausted walk is an upstream fault.
func (h *MarketHandler) resolveErrResponse(c echo.Context, err error) error {
	var exhausted *models.ExhaustedError
	switch {
	case errors.Is(err, models.ErrInvalidCodeFormat):
		return xhttp.BadRequestResponse(c, []*xhttp.AppError{
			xhttp.NewAppError("ERR_INVALID_CODE", "code", err.Error(), http.StatusBadRequest),
		})
	case errors.Is(err, models.ErrUnsupportedCombination):
		return xhttp.BadRequestResponse(c, []*xhttp.AppError{
			xhttp.NewAppError("ERR_UNSUPPORTED", "code", err.Error(), http.StatusBadRequest),
		})
	case errors.As(err, &exhausted):
		h.logger.Error("all providers exhausted", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusBadGateway, []*xhttp.AppError{
			xhttp.NewAppError("ERR_EXHAUSTED", "", err.Error(), http.StatusBadGateway).
				WithParam("attempts", exhausted.Attempts),
		})
	default:
		h.logger.Error("market usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}

func (h *MarketHandler) Quote(c echo.Context) error {
	req := &models.CodeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	code, err := h.canon.Canonicalize(req.Code)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}

	q, err := h.data.Quote(c.Request().Context(), code)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *MarketHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	code, err := h.canon.Canonicalize(req.Code)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}

	rng := models.DateRange{End: xhttp.ParseTimeDefault(req.End, time.Now())}
	rng.Start = xhttp.ParseTimeDefault(req.Start, rng.End.AddDate(0, 0, -120))

	candles, err := h.data.History(c.Request().Context(), code, rng)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}
	return xhttp.SuccessResponse(c, candles)
}

func (h *MarketHandler) Chips(c echo.Context) error {
	req := &models.CodeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	code, err := h.canon.Canonicalize(req.Code)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}

	chips, err := h.data.Chips(c.Request().Context(), code)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}
	return xhttp.SuccessResponse(c, chips)
}

func (h *MarketHandler) News(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	code, err := h.canon.Canonicalize(req.Code)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}

	items, err := h.data.News(c.Request().Context(), code, req.Limit)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}
	return xhttp.SuccessResponse(c, items)
}

func (h *MarketHandler) ProviderHealth(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.data.Health())
}

func (h *MarketHandler) Chat(c echo.Context) error {
	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.llm.Chat(c.Request().Context(), req)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *MarketHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.report.Analyze(c.Request().Context(), req)
	if err != nil {
		return h.resolveErrResponse(c, err)
	}
	return xhttp.SuccessResponse(c, resp)
}
