package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
}

func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Check handles GET /health. Any failing dependency turns the response into
// a 503.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		services[name] = "connected"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"version":  h.version,
		"services": services,
	})
}
