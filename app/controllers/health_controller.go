package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/doctornoo/pdpa-consent/internal/pkg/consent"
)

// HealthController reports datastore reachability
type HealthController struct {
	service *consent.Service
}

// NewHealthController creates a health controller
func NewHealthController(service *consent.Service) *HealthController {
	return &HealthController{
		service: service,
	}
}

// HandleHealth runs the datastore probe.
// GET /api/health
func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	healthy, err := hc.service.CheckHealth(c.UserContext())
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "error", err.Error())
	}
	return c.JSON(fiber.Map{
		"ok": true,
		"db": healthy,
	})
}
