package notification

import (
	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
)

// GetPreferences returns the user's notification preferences, creating
// the all-true default row on first read
func (h *NotificationHandler) GetPreferences(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	prefs, err := h.notifications.GetPreferences(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load notification preferences")
	}

	return response.Success(c, prefs)
}

// UpdatePreferences applies a partial preference update
func (h *NotificationHandler) UpdatePreferences(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req services.UpdatePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	prefs, err := h.notifications.UpdatePreferences(c.Context(), userID, req)
	if err != nil {
		return response.InternalServerError(c, "Failed to update notification preferences")
	}

	return response.SuccessWithMessage(c, "Preferences updated", prefs)
}
