package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expensetrade/backend/internal/store"
)

type HealthHandler struct {
	Store store.Store
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) ready(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_missing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
