package handlers

import (
	"net/http"
	"time"

	"github.com/bioqa/manager/internal/health"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	checker *health.HealthChecker
	logger  *logrus.Logger
}

func NewHealthHandler(checker *health.HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// HandleHealth reports per-service health. A cached snapshot is served when
// one is fresh; otherwise all probes run inline.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	if cached, err := h.checker.CheckCached(c.Request.Context()); err == nil {
		h.respond(c, *cached)
		return
	}

	h.respond(c, h.checker.CheckAll())
}

// HandleLiveness is the bare process liveness probe.
func (h *HealthHandler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) respond(c *gin.Context, overall health.OverallHealth) {
	code := http.StatusOK
	if overall.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, overall)
}
