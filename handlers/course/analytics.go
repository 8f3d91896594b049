package course

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
)

// GetAnalytics returns the course engagement summary; course teacher only
func (h *CourseHandler) GetAnalytics(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can view analytics")
	}

	analytics, err := h.enrollments.Analytics(c.Context(), course.ID)
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to compute analytics")
	}

	return response.Success(c, analytics)
}
