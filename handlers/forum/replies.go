package forum

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/validation"
)

// ReplyRequest represents a reply creation payload
type ReplyRequest struct {
	Content       string `json:"content" validate:"required"`
	ParentReplyID *uint  `json:"parent_reply_id"`
}

// CreateReply adds a reply to a thread. Locked threads reject replies
// before the membership check, so the lock applies to everyone.
func (h *ForumHandler) CreateReply(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid thread ID")
	}

	thread, err := h.forums.GetThread(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrThreadNotFound) {
			return response.NotFound(c, "Thread not found")
		}
		return response.InternalServerError(c, "Failed to load thread")
	}

	if !thread.IsLocked {
		allowed, err := h.canParticipate(c, thread.CourseID, userID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check membership")
		}
		if !allowed {
			return response.Forbidden(c, "You are not a member of this course")
		}
	}

	var req ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	reply, err := h.forums.CreateReply(c.Context(), thread.ID, userID,
		validation.SanitizeString(req.Content), req.ParentReplyID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadLocked):
			return response.Forbidden(c, "Cannot reply to locked thread")
		case errors.Is(err, services.ErrReplyNotFound):
			return response.BadRequest(c, "Parent reply not found in this thread")
		default:
			return response.InternalServerError(c, "Failed to create reply")
		}
	}

	return response.Created(c, reply)
}

// ListReplies lists a thread's replies in creation order; members and
// teacher only
func (h *ForumHandler) ListReplies(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid thread ID")
	}

	thread, err := h.forums.GetThread(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrThreadNotFound) {
			return response.NotFound(c, "Thread not found")
		}
		return response.InternalServerError(c, "Failed to load thread")
	}

	allowed, err := h.canParticipate(c, thread.CourseID, userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !allowed {
		return response.Forbidden(c, "You are not a member of this course")
	}

	replies, err := h.forums.ListReplies(c.Context(), thread.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list replies")
	}

	return response.Success(c, replies)
}

// MarkSolution marks a reply as the thread's solution; thread author or
// course teacher only
func (h *ForumHandler) MarkSolution(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid reply ID")
	}

	reply, err := h.forums.MarkSolution(c.Context(), uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReplyNotFound):
			return response.NotFound(c, "Reply not found")
		case errors.Is(err, services.ErrThreadNotFound):
			return response.NotFound(c, "Thread not found")
		case errors.Is(err, services.ErrNotTeacher):
			return response.Forbidden(c, "Only the thread author or course teacher can mark a solution")
		default:
			return response.InternalServerError(c, "Failed to mark solution")
		}
	}

	return response.SuccessWithMessage(c, "Reply marked as solution", reply)
}
