package course

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
)

// Enroll enrolls the authenticated user into the course as a student
func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid course ID")
	}

	member, err := h.enrollments.Enroll(c.Context(), uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "Already enrolled in this course")
		case errors.Is(err, services.ErrEnrollmentFull):
			return response.Conflict(c, "Course enrollment is full")
		default:
			return response.InternalServerError(c, "Failed to enroll")
		}
	}

	return response.SuccessWithMessage(c, "Successfully enrolled", member)
}

// BatchEnrollRequest represents a batch enrollment request
type BatchEnrollRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required,min=1"`
}

// BatchEnroll enrolls a set of users; course teacher only
func (h *CourseHandler) BatchEnroll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can batch enroll students")
	}

	var req BatchEnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	enrolled, err := h.enrollments.BatchEnroll(c.Context(), course.ID, req.UserIDs)
	if err != nil {
		var capErr *services.BatchCapacityError
		if errors.As(err, &capErr) {
			return response.Conflict(c, capErr.Error())
		}
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to batch enroll")
	}

	return response.SuccessWithMessage(c, "Students enrolled successfully", fiber.Map{
		"enrolled_user_ids": enrolled,
		"enrolled_count":    len(enrolled),
	})
}
