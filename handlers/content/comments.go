package content

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

// CreateCommentRequest represents a comment creation request
type CreateCommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// CreateComment attaches a comment to a content item through the author's
// membership row; members only. New comments await moderation.
func (h *ContentHandler) CreateComment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}

	member, err := h.memberships.GetMembership(c.Context(), content.CourseID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotMember) {
			return response.Forbidden(c, "You are not a member of this course")
		}
		return response.InternalServerError(c, "Failed to check membership")
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	comment := model.Comment{
		ContentID: content.ID,
		MemberID:  member.ID,
		Comment:   validation.SanitizeString(req.Comment),
	}
	if err := h.db.Create(&comment).Error; err != nil {
		return response.InternalServerError(c, "Failed to create comment")
	}

	return response.Created(c, comment)
}

// ListComments returns a content item's comments. Students only see
// approved ones; the course teacher sees everything.
func (h *ContentHandler) ListComments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}

	query := h.db.Preload("Member.User").
		Where("content_id = ?", content.ID).
		Order("created_at ASC")
	if content.Course.TeacherID != userID {
		isMember, err := h.memberships.IsMember(c.Context(), content.CourseID, userID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check membership")
		}
		if !isMember {
			return response.Forbidden(c, "You are not a member of this course")
		}
		query = query.Where("is_approved = ?", true)
	}

	var comments []model.Comment
	if err := query.Find(&comments).Error; err != nil {
		return response.InternalServerError(c, "Failed to list comments")
	}

	return response.Success(c, comments)
}

// ModerateCommentRequest carries the moderation decision
type ModerateCommentRequest struct {
	Approve bool `json:"approve"`
}

// ModerateComment approves or rejects a comment; course teacher only.
// Rejection deletes the comment.
func (h *ContentHandler) ModerateComment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid comment ID")
	}

	var comment model.Comment
	err = h.db.Preload("Content.Course").First(&comment, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Comment not found")
		}
		return response.InternalServerError(c, "Failed to load comment")
	}

	if comment.Content.Course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can moderate comments")
	}

	var req ModerateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if !req.Approve {
		if err := h.db.Delete(&model.Comment{}, comment.ID).Error; err != nil {
			return response.InternalServerError(c, "Failed to reject comment")
		}
		return response.Message(c, "Comment rejected")
	}

	comment.IsApproved = true
	if err := h.db.Save(&comment).Error; err != nil {
		return response.InternalServerError(c, "Failed to approve comment")
	}

	return response.SuccessWithMessage(c, "Comment approved", comment)
}
