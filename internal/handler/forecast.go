package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expensetrade/backend/internal/forecast"
	"github.com/expensetrade/backend/internal/model"
	"github.com/expensetrade/backend/internal/service"
)

// ownerHeader identifies the requesting user. Full authentication sits in
// front of this service; the header is trusted here.
const ownerHeader = "X-Owner"

// ForecastHandler exposes the forecasting and suggestion operations.
type ForecastHandler struct {
	Service *service.ForecastService
	Logger  *zap.Logger
}

func (h *ForecastHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/forecast/expenses", h.forecastExpenses)
	group.GET("/forecast/stocks/:ticker", h.forecastStock)
	group.POST("/suggestions", h.suggestStocks)
	group.POST("/limits/evaluate", h.evaluateLimit)
}

func owner(c *gin.Context) (string, bool) {
	o := c.GetHeader(ownerHeader)
	if o == "" {
		Error(c, http.StatusBadRequest, "missing "+ownerHeader+" header", nil)
		return "", false
	}
	return o, true
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func (h *ForecastHandler) forecastExpenses(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}

	period := forecast.Period(c.DefaultQuery("period", string(forecast.PeriodMonth)))
	switch period {
	case forecast.PeriodDay, forecast.PeriodWeek, forecast.PeriodMonth:
	default:
		Error(c, http.StatusBadRequest, "period must be day, week or month", nil)
		return
	}
	horizon := intQuery(c, "horizon", 0)

	out, err := h.Service.ForecastExpenses(c.Request.Context(), o, period, horizon)
	if err != nil {
		h.Logger.Warn("expense forecast failed", zap.String("owner", o), zap.Error(err))
		EngineError(c, err)
		return
	}
	Ok(c, out, map[string]any{"period": string(period)})
}

func (h *ForecastHandler) forecastStock(c *gin.Context) {
	ticker := c.Param("ticker")
	horizon := intQuery(c, "horizon", 0)

	out, err := h.Service.ForecastStock(c.Request.Context(), ticker, horizon)
	if err != nil {
		h.Logger.Warn("stock forecast failed", zap.String("ticker", ticker), zap.Error(err))
		EngineError(c, err)
		return
	}
	Ok(c, out, nil)
}

type suggestRequest struct {
	Tickers []string `json:"tickers"`
	Profile string   `json:"profile"`
	Horizon int      `json:"horizon"`
}

func (h *ForecastHandler) suggestStocks(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}

	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	suggestions, err := h.Service.SuggestStocks(c.Request.Context(), service.SuggestInput{
		Owner:   o,
		Tickers: req.Tickers,
		Profile: model.RiskProfile(req.Profile),
		Horizon: req.Horizon,
	})
	if err != nil {
		h.Logger.Warn("suggestion failed", zap.String("owner", o), zap.Error(err))
		EngineError(c, err)
		return
	}
	Ok(c, suggestions, map[string]any{"count": len(suggestions)})
}

type evaluateLimitRequest struct {
	Date string  `json:"date"` // YYYY-MM-DD, defaults to today
	Cap  float64 `json:"cap"`  // defaults to the configured daily cap
}

func (h *ForecastHandler) evaluateLimit(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}

	var req evaluateLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			Error(c, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	status, alert, err := h.Service.EvaluateDailyLimit(c.Request.Context(), o, date, req.Cap)
	if err != nil {
		h.Logger.Warn("limit evaluation failed", zap.String("owner", o), zap.Error(err))
		EngineError(c, err)
		return
	}

	meta := map[string]any{"alerted": alert != nil}
	Ok(c, status, meta)
}
