package content

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
)

// ToggleBookmark flips the bookmark state for the content; members only
func (h *ContentHandler) ToggleBookmark(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}

	isMember, err := h.memberships.IsMember(c.Context(), content.CourseID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !isMember {
		return response.Forbidden(c, "You are not a member of this course")
	}

	bookmarked, err := h.engagement.ToggleBookmark(c.Context(), userID, content.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to toggle bookmark")
	}

	if bookmarked {
		return response.SuccessWithMessage(c, "Successfully bookmarked", fiber.Map{"bookmarked": true})
	}
	return response.SuccessWithMessage(c, "Bookmark removed", fiber.Map{"bookmarked": false})
}

// RemoveBookmark deletes the bookmark explicitly
func (h *ContentHandler) RemoveBookmark(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}

	err = h.engagement.RemoveBookmark(c.Context(), userID, content.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotBookmarked) {
			return response.NotFound(c, "Bookmark not found")
		}
		return response.InternalServerError(c, "Failed to remove bookmark")
	}

	return response.Message(c, "Bookmark removed")
}

// ListBookmarks returns the authenticated user's bookmarks, newest first
func (h *ContentHandler) ListBookmarks(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	bookmarks, err := h.engagement.ListBookmarks(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list bookmarks")
	}

	return response.Success(c, fiber.Map{
		"bookmarks":   bookmarks,
		"total_count": len(bookmarks),
	})
}
