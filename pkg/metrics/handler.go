package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	metrics *Metrics
}

func NewHandler(m *Metrics) *Handler {
	return &Handler{metrics: m}
}

func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Middleware records every request served by the router.
func Middleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.Begin()
		c.Next()
		done(c.Writer.Status(), nil)
	}
}
