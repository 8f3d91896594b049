package notification

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

// NotificationHandler handles the notification inbox and preferences
type NotificationHandler struct {
	db            *gorm.DB
	notifications *services.NotificationService
	validator     *validation.Validator
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(db *gorm.DB, notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		db:            db,
		notifications: notifications,
		validator:     validation.NewValidator(),
	}
}

// ListNotifications returns the user's notifications, newest first
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	unreadOnly := c.QueryBool("unread", false)

	pagination := response.CalculatePagination(page, limit, 0)

	notifications, total, err := h.notifications.List(c.Context(), services.ListNotificationsOptions{
		RecipientID: userID,
		UnreadOnly:  unreadOnly,
		Limit:       pagination.PerPage,
		Offset:      (pagination.CurrentPage - 1) * pagination.PerPage,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Paginated(c, notifications, response.CalculatePagination(page, limit, total))
}

// MarkRead marks a single notification as read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid notification ID")
	}

	err = h.notifications.MarkAsRead(c.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to mark notification as read")
	}

	return response.Message(c, "Notification marked as read")
}

// MarkAllRead marks every unread notification as read
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	updated, err := h.notifications.MarkAllAsRead(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to mark notifications as read")
	}

	return response.SuccessWithMessage(c, "All notifications marked as read", fiber.Map{
		"updated_count": updated,
	})
}

// GetStats returns the inbox summary
func (h *NotificationHandler) GetStats(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	stats, err := h.notifications.Stats(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute notification stats")
	}

	return response.Success(c, stats)
}

// AnnounceRequest represents a course announcement payload
type AnnounceRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// Announce fans out an announcement to all course members; course
// teacher only
func (h *NotificationHandler) Announce(c *fiber.Ctx) error {
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
	if course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can send announcements")
	}

	var req AnnounceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	sent, err := h.notifications.Announce(c.Context(), &course,
		validation.SanitizeString(req.Title), validation.SanitizeString(req.Message))
	if err != nil {
		return response.InternalServerError(c, "Failed to send announcement")
	}

	return response.SuccessWithMessage(c, "Announcement sent", fiber.Map{
		"recipients": sent,
	})
}
