package http

import (
	"deal_server/core/domain"
	in "deal_server/core/port/in"
	"deal_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PreferencesHandler handles HTTP requests for device preferences
type PreferencesHandler struct {
	service in.PreferencesService
}

// NewPreferencesHandler creates a new PreferencesHandler
func NewPreferencesHandler(service in.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{service: service}
}

// Register registers preferences routes
func (h *PreferencesHandler) Register(router fiber.Router) {
	prefs := router.Group("/preferences")
	prefs.Get("/", h.Get)
	prefs.Put("/", h.Update)
}

// Get returns the device's preferences, creating defaults on first access.
// @Summary Get preferences
// @Tags Preferences
// @Produce json
// @Router /api/v1/preferences [get]
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	deviceID, err := RequireDeviceID(c)
	if err != nil {
		return handleError(c, err)
	}

	prefs, err := h.service.GetPreferences(c.Context(), deviceID)
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, prefs)
}

// Update applies a partial preferences update. Lists replace wholesale.
// @Summary Update preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Router /api/v1/preferences [put]
func (h *PreferencesHandler) Update(c *fiber.Ctx) error {
	deviceID, err := RequireDeviceID(c)
	if err != nil {
		return handleError(c, err)
	}

	var update domain.PreferencesUpdate
	if err := c.BodyParser(&update); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	prefs, err := h.service.UpdatePreferences(c.Context(), deviceID, &update)
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, prefs)
}
