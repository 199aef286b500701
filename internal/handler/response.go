package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expensetrade/backend/internal/forecast"
	"github.com/expensetrade/backend/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// EngineError maps engine and service errors onto HTTP statuses. Data
// problems are the client's to fix (422), upstream outages are not (502).
func EngineError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidProfile) {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	switch forecast.CodeOf(err) {
	case forecast.ErrInsufficientData, forecast.ErrDegenerateSeries, forecast.ErrNoCandidates:
		Error(c, http.StatusUnprocessableEntity, err.Error(), map[string]any{"code": string(forecast.CodeOf(err))})
	case forecast.ErrUpstreamUnavailable:
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{"code": string(forecast.CodeOf(err))})
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
