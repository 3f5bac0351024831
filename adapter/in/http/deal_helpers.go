package http

import (
	"strings"

	"deal_server/pkg/apperr"
	"deal_server/pkg/logger"
	"deal_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DeviceIDHeader carries the anonymous device identity. There are no user
// accounts; the device id is the only personalization key.
const DeviceIDHeader = "X-Device-ID"

// GetDeviceID extracts the device id from the header, falling back to the
// device_id query parameter. Empty means an anonymous request.
func GetDeviceID(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get(DeviceIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("device_id"))
}

// RequireDeviceID is GetDeviceID for endpoints that cannot work anonymously.
func RequireDeviceID(c *fiber.Ctx) (string, error) {
	id := GetDeviceID(c)
	if id == "" {
		return "", apperr.MissingField("device_id")
	}
	return id, nil
}

// handleError renders any service error through the response envelope.
func handleError(c *fiber.Ctx, err error) error {
	if appErr := apperr.AsAppError(err); appErr != nil {
		return response.Error(c, appErr.HTTPStatus(), appErr.Code, appErr.Message)
	}

	logger.WithContext(c.Context()).WithError(err).Error("Unhandled request error",
		"method", c.Method(), "path", c.Path())
	return response.InternalError(c, "internal server error")
}

// parseCSVQuery splits a comma-separated query value, dropping empties.
func parseCSVQuery(c *fiber.Ctx, name string) []string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
