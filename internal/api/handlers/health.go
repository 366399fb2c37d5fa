// backend/internal/api/handlers/health.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hlardiez/chat-test/internal/health"
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

// HandleHealth reports aggregate service health. Cached results from the
// periodic checker are preferred so the endpoint stays cheap.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	if cached, err := h.checker.CheckCached(c.Request.Context()); err == nil && len(cached.Services) > 0 {
		c.JSON(statusCode(cached.Status), cached)
		return
	}

	overall := h.checker.CheckAll()
	c.JSON(statusCode(overall.Status), overall)
}

// HandleLiveness is a bare liveness probe with no dependency checks.
func (h *HealthHandler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "chat-backend",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func statusCode(status string) int {
	if status == "unhealthy" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
