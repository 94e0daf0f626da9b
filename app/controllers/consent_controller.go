package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/doctornoo/pdpa-consent/app/models"
	"github.com/doctornoo/pdpa-consent/internal/pkg/consent"
)

// ConsentController handles the PDPA consent endpoints
type ConsentController struct {
	service *consent.Service
}

// NewConsentController creates a consent controller around the intake service
func NewConsentController(service *consent.Service) *ConsentController {
	return &ConsentController{
		service: service,
	}
}

// HandleRecordConsent stores one consent acknowledgment.
// POST /api/pdpa/consent
func (cc *ConsentController) HandleRecordConsent(c *fiber.Ctx) error {
	var claim models.ConsentClaim
	if err := decodeJSONBody(c, &claim); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "message", "invalid JSON body")
	}

	id, err := cc.service.RecordConsent(c.UserContext(), claim, transportFromRequest(c))

	var validationErr *consent.ValidationError
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"ok":         true,
			"consent_id": id,
		})
	case errors.As(err, &validationErr):
		return errorResponse(c, fiber.StatusBadRequest, "message", validationErr.Error())
	case errors.Is(err, consent.ErrDuplicateSubmission):
		return errorResponse(c, fiber.StatusConflict, "message", consent.ErrDuplicateSubmission.Error())
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "error", err.Error())
	}
}
