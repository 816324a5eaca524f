package handlers

import (
	"context"
	"time"

	"sportsmatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the service and its dependencies are reachable
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a health handler; nil checks are skipped
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck handles GET /api/v1/health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	components := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check.Ping(ctx); err != nil {
			status = fiber.StatusServiceUnavailable
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	return c.Status(status).JSON(models.Envelope{Success: status == fiber.StatusOK, Result: components})
}
