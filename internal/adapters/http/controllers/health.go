package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string            `json:"status" example:"ok"`
	Services map[string]string `json:"services" example:"catalog:ok,redis:ok"`
}

// HealthChecker probes one backend. A failing Optional checker marks the
// service degraded but still answers 200, since carts keep working without it.
type HealthChecker struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

type HealthController struct {
	checkers []HealthChecker
}

func NewHealthController(checkers []HealthChecker) *HealthController {
	return &HealthController{checkers: checkers}
}

// Health godoc
// @Summary     Health check
// @Description Checks the catalog and every configured backend
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Failure     503 {object} HealthResponse
// @Router      /api/v1/health [get]
func (h *HealthController) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	services := make(map[string]string, len(h.checkers))

	for _, checker := range h.checkers {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := checker.Check(ctx)
		cancel()

		if err == nil {
			services[checker.Name] = "ok"
			continue
		}

		services[checker.Name] = err.Error()
		status = "degraded"
		if !checker.Optional {
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, HealthResponse{
		Status:   status,
		Services: services,
	})
}
