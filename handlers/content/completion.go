package content

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
)

// MarkComplete records the content as completed by the user; members only.
// A second call is reported, not an error.
func (h *ContentHandler) MarkComplete(c *fiber.Ctx) error {
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

	completion, created, err := h.engagement.MarkComplete(c.Context(), userID, content.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to record completion")
	}

	if !created {
		return response.SuccessWithMessage(c, "Content already completed", completion)
	}

	return response.SuccessWithMessage(c, "Content marked as completed", completion)
}

// UnmarkComplete removes the completion row; members only
func (h *ContentHandler) UnmarkComplete(c *fiber.Ctx) error {
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

	err = h.engagement.UnmarkComplete(c.Context(), userID, content.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotCompleted) {
			return response.NotFound(c, "Content not completed")
		}
		return response.InternalServerError(c, "Failed to remove completion")
	}

	return response.Message(c, "Completion removed")
}

// GetProgress returns the user's completion percentage for a course;
// members only.
func (h *ContentHandler) GetProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	isMember, err := h.memberships.IsMember(c.Context(), course.ID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !isMember {
		return response.Forbidden(c, "You are not a member of this course")
	}

	report, err := h.engagement.Progress(c.Context(), course.ID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute progress")
	}

	return response.Success(c, report)
}

// GetCertificate renders the course certificate for the user; members only
func (h *ContentHandler) GetCertificate(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return response.BadRequest(c, "Invalid course ID")
	}

	isMember, err := h.memberships.IsMember(c.Context(), uint(courseID), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !isMember {
		return response.Forbidden(c, "You are not a member of this course")
	}

	cert, err := h.certificates.Generate(c.Context(), uint(courseID), userID)
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to generate certificate")
	}

	return response.Success(c, cert)
}
