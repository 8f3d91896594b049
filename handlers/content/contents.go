package content

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/validation"
)

// ContentHandler handles content CRUD, publishing, comments, completion
// tracking and bookmarks
type ContentHandler struct {
	db            *gorm.DB
	memberships   *services.MembershipService
	engagement    *services.EngagementService
	certificates  *services.CertificateService
	notifications *services.NotificationService
	validator     *validation.Validator
}

// NewContentHandler creates a new content handler
func NewContentHandler(db *gorm.DB, memberships *services.MembershipService, engagement *services.EngagementService, certificates *services.CertificateService, notifications *services.NotificationService) *ContentHandler {
	return &ContentHandler{
		db:            db,
		memberships:   memberships,
		engagement:    engagement,
		certificates:  certificates,
		notifications: notifications,
		validator:     validation.NewValidator(),
	}
}

func (h *ContentHandler) loadContent(c *fiber.Ctx) (*model.CourseContent, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, response.BadRequest(c, "Invalid content ID")
	}

	var content model.CourseContent
	if err := h.db.Preload("Course").First(&content, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Content not found")
		}
		return nil, response.InternalServerError(c, "Failed to load content")
	}

	return &content, nil
}

// ListContents lists a course's contents. The teacher sees everything;
// members see published items only.
func (h *ContentHandler) ListContents(c *fiber.Ctx) error {
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

	query := h.db.Where("course_id = ?", courseID).Order("created_at ASC")
	if course.TeacherID != userID {
		isMember, err := h.memberships.IsMember(c.Context(), course.ID, userID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check membership")
		}
		if !isMember {
			return response.Forbidden(c, "You are not a member of this course")
		}
		query = query.Where("is_published = ?", true)
	}

	var contents []model.CourseContent
	if err := query.Find(&contents).Error; err != nil {
		return response.InternalServerError(c, "Failed to list contents")
	}

	return response.Success(c, contents)
}

// CreateContentRequest represents a content creation request
type CreateContentRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description"`
	VideoURL    *string    `json:"video_url" validate:"omitempty,max=200"`
	ParentID    *uint      `json:"parent_id"`
	ReleaseTime *time.Time `json:"release_time"`
}

// CreateContent adds a content item to the course; teacher only
func (h *ContentHandler) CreateContent(c *fiber.Ctx) error {
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
		return response.Forbidden(c, "Only the course teacher can add content")
	}

	var req CreateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.ParentID != nil {
		var parent model.CourseContent
		err := h.db.Where("id = ? AND course_id = ?", *req.ParentID, course.ID).
			First(&parent).Error
		if err != nil {
			return response.BadRequest(c, "Parent content not found in this course")
		}
	}

	description := validation.SanitizeString(req.Description)
	if description == "" {
		description = "-"
	}

	content := model.CourseContent{
		Name:        validation.SanitizeString(req.Name),
		Description: description,
		VideoURL:    req.VideoURL,
		CourseID:    course.ID,
		ParentID:    req.ParentID,
		ReleaseTime: req.ReleaseTime,
	}
	if err := h.db.Create(&content).Error; err != nil {
		return response.InternalServerError(c, "Failed to create content")
	}

	return response.Created(c, content)
}

// UpdateContentRequest represents a partial content update
type UpdateContentRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	VideoURL    *string `json:"video_url" validate:"omitempty,max=200"`
}

// UpdateContent applies a partial update; course teacher only
func (h *ContentHandler) UpdateContent(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}
	if content.Course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can update content")
	}

	var req UpdateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Name != nil {
		content.Name = validation.SanitizeString(*req.Name)
	}
	if req.Description != nil {
		content.Description = validation.SanitizeString(*req.Description)
	}
	if req.VideoURL != nil {
		content.VideoURL = req.VideoURL
	}

	if err := h.db.Save(content).Error; err != nil {
		return response.InternalServerError(c, "Failed to update content")
	}

	return response.SuccessWithMessage(c, "Content updated successfully", content)
}

// DeleteContent removes a content item; course teacher only
func (h *ContentHandler) DeleteContent(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}
	if content.Course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can delete content")
	}

	var childCount int64
	h.db.Model(&model.CourseContent{}).Where("parent_id = ?", content.ID).Count(&childCount)
	if childCount > 0 {
		return response.Conflict(c, "Cannot delete content with nested items")
	}

	if err := h.db.Delete(&model.CourseContent{}, content.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete content")
	}

	return response.Message(c, "Content deleted successfully")
}

// ScheduleRequest sets the content release time
type ScheduleRequest struct {
	ReleaseTime time.Time `json:"release_time" validate:"required"`
}

// ScheduleContent sets the release time; the publish job picks it up
// once the time passes. Course teacher only.
func (h *ContentHandler) ScheduleContent(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}
	if content.Course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can schedule content")
	}

	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ReleaseTime.IsZero() {
		return response.BadRequest(c, "Release time is required")
	}

	content.ReleaseTime = &req.ReleaseTime
	if err := h.db.Save(content).Error; err != nil {
		return response.InternalServerError(c, "Failed to schedule content")
	}

	return response.SuccessWithMessage(c, "Content scheduled successfully", content)
}

// PublishContent sets is_published and fans out the new-content
// notifications; course teacher only.
func (h *ContentHandler) PublishContent(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}
	if content.Course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can publish content")
	}

	alreadyPublished := content.IsPublished
	content.IsPublished = true
	if err := h.db.Save(content).Error; err != nil {
		return response.InternalServerError(c, "Failed to publish content")
	}

	// Re-publishing an already published item does not re-notify.
	if !alreadyPublished {
		if _, err := h.notifications.NotifyContentPublished(c.Context(), content, &content.Course); err != nil {
			log.Printf("publish fan-out for content %d: %v", content.ID, err)
		}
	}

	return response.SuccessWithMessage(c, "Content published successfully", content)
}

// UnpublishContent clears is_published; course teacher only
func (h *ContentHandler) UnpublishContent(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	content, err := h.loadContent(c)
	if err != nil {
		return err
	}
	if content.Course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can unpublish content")
	}

	content.IsPublished = false
	if err := h.db.Save(content).Error; err != nil {
		return response.InternalServerError(c, "Failed to unpublish content")
	}

	return response.SuccessWithMessage(c, "Content unpublished successfully", content)
}
