package forum

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/validation"
)

// ForumHandler handles discussion threads and replies
type ForumHandler struct {
	db          *gorm.DB
	forums      *services.ForumService
	memberships *services.MembershipService
	validator   *validation.Validator
}

// NewForumHandler creates a new forum handler
func NewForumHandler(db *gorm.DB, forums *services.ForumService, memberships *services.MembershipService) *ForumHandler {
	return &ForumHandler{
		db:          db,
		forums:      forums,
		memberships: memberships,
		validator:   validation.NewValidator(),
	}
}

// canParticipate reports whether the user is a member or the teacher
func (h *ForumHandler) canParticipate(c *fiber.Ctx, courseID, userID uint) (bool, error) {
	isTeacher, err := h.memberships.IsTeacher(c.Context(), courseID, userID)
	if err != nil {
		return false, err
	}
	if isTeacher {
		return true, nil
	}
	return h.memberships.IsMember(c.Context(), courseID, userID)
}

// ThreadRequest represents a thread create/update payload
type ThreadRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
}

// CreateThread opens a thread in the course; members and teacher only
func (h *ForumHandler) CreateThread(c *fiber.Ctx) error {
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

	allowed, err := h.canParticipate(c, course.ID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !allowed {
		return response.Forbidden(c, "You are not a member of this course")
	}

	var req ThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	thread, err := h.forums.CreateThread(c.Context(), course.ID, userID,
		validation.SanitizeString(req.Title), validation.SanitizeString(req.Description))
	if err != nil {
		return response.InternalServerError(c, "Failed to create thread")
	}

	return response.Created(c, thread)
}

// ListThreads lists the course's threads, pinned first; members and
// teacher only
func (h *ForumHandler) ListThreads(c *fiber.Ctx) error {
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

	allowed, err := h.canParticipate(c, course.ID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !allowed {
		return response.Forbidden(c, "You are not a member of this course")
	}

	threads, err := h.forums.ListThreads(c.Context(), course.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list threads")
	}

	return response.Success(c, threads)
}

// UpdateThread edits a thread; thread author or course teacher only
func (h *ForumHandler) UpdateThread(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid thread ID")
	}

	var req ThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	thread, err := h.forums.UpdateThread(c.Context(), uint(id), userID,
		validation.SanitizeString(req.Title), validation.SanitizeString(req.Description))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			return response.NotFound(c, "Thread not found")
		case errors.Is(err, services.ErrNotTeacher):
			return response.Forbidden(c, "Only the thread author or course teacher can edit this thread")
		default:
			return response.InternalServerError(c, "Failed to update thread")
		}
	}

	return response.SuccessWithMessage(c, "Thread updated successfully", thread)
}

// DeleteThread removes a thread; thread author or course teacher only
func (h *ForumHandler) DeleteThread(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid thread ID")
	}

	err = h.forums.DeleteThread(c.Context(), uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			return response.NotFound(c, "Thread not found")
		case errors.Is(err, services.ErrNotTeacher):
			return response.Forbidden(c, "Only the thread author or course teacher can delete this thread")
		default:
			return response.InternalServerError(c, "Failed to delete thread")
		}
	}

	return response.Message(c, "Thread deleted successfully")
}

// PinRequest carries the desired pinned state
type PinRequest struct {
	Pinned bool `json:"pinned"`
}

// PinThread flips the pinned flag; course teacher only
func (h *ForumHandler) PinThread(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid thread ID")
	}

	req := PinRequest{Pinned: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	thread, err := h.forums.SetPinned(c.Context(), uint(id), userID, req.Pinned)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			return response.NotFound(c, "Thread not found")
		case errors.Is(err, services.ErrNotTeacher):
			return response.Forbidden(c, "Only the course teacher can pin threads")
		default:
			return response.InternalServerError(c, "Failed to update thread")
		}
	}

	if thread.IsPinned {
		return response.SuccessWithMessage(c, "Thread pinned", thread)
	}
	return response.SuccessWithMessage(c, "Thread unpinned", thread)
}

// LockRequest carries the desired locked state
type LockRequest struct {
	Locked bool `json:"locked"`
}

// LockThread flips the locked flag; course teacher only
func (h *ForumHandler) LockThread(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid thread ID")
	}

	req := LockRequest{Locked: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	thread, err := h.forums.SetLocked(c.Context(), uint(id), userID, req.Locked)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			return response.NotFound(c, "Thread not found")
		case errors.Is(err, services.ErrNotTeacher):
			return response.Forbidden(c, "Only the course teacher can lock threads")
		default:
			return response.InternalServerError(c, "Failed to update thread")
		}
	}

	if thread.IsLocked {
		return response.SuccessWithMessage(c, "Thread locked", thread)
	}
	return response.SuccessWithMessage(c, "Thread unlocked", thread)
}

// GetForumStats returns forum activity for the course; members and
// teacher only
func (h *ForumHandler) GetForumStats(c *fiber.Ctx) error {
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

	allowed, err := h.canParticipate(c, course.ID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !allowed {
		return response.Forbidden(c, "You are not a member of this course")
	}

	stats, err := h.forums.Stats(c.Context(), course.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute forum stats")
	}

	return response.Success(c, stats)
}
