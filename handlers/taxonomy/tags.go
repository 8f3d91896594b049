package taxonomy

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/validation"
)

// ListTags returns all tags
func (h *TaxonomyHandler) ListTags(c *fiber.Ctx) error {
	var tags []model.Tag
	if err := h.db.Order("name ASC").Find(&tags).Error; err != nil {
		return response.InternalServerError(c, "Failed to list tags")
	}
	return response.Success(c, tags)
}

// TagRequest represents a tag create/update payload
type TagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// CreateTag creates a tag; the name is unique
func (h *TaxonomyHandler) CreateTag(c *fiber.Ctx) error {
	var req TagRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	tag := model.Tag{Name: validation.SanitizeString(req.Name)}
	if err := h.db.Create(&tag).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "Tag name already exists")
		}
		return response.InternalServerError(c, "Failed to create tag")
	}

	return response.Created(c, tag)
}

// DeleteTag removes a tag and its content links
func (h *TaxonomyHandler) DeleteTag(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid tag ID")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.ContentTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Tag not found")
		}
		return response.InternalServerError(c, "Failed to delete tag")
	}

	return response.Message(c, "Tag deleted successfully")
}

func (h *TaxonomyHandler) loadOwnedContent(c *fiber.Ctx) (*model.CourseContent, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, response.Unauthorized(c, "")
	}

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
	if content.Course.TeacherID != userID {
		return nil, response.Forbidden(c, "Only the course teacher can manage content tags")
	}

	return &content, nil
}

// AttachTag links a tag to a content item; idempotent under races
func (h *TaxonomyHandler) AttachTag(c *fiber.Ctx) error {
	content, err := h.loadOwnedContent(c)
	if err != nil {
		return err
	}

	tagID, err := c.ParamsInt("tagID")
	if err != nil || tagID < 1 {
		return response.BadRequest(c, "Invalid tag ID")
	}

	var tag model.Tag
	if err := h.db.First(&tag, tagID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Tag not found")
		}
		return response.InternalServerError(c, "Failed to load tag")
	}

	link := model.ContentTag{ContentID: content.ID, TagID: tag.ID}
	err = h.db.Where("content_id = ? AND tag_id = ?", content.ID, tag.ID).
		FirstOrCreate(&link).Error
	if err != nil && err != gorm.ErrDuplicatedKey {
		return response.InternalServerError(c, "Failed to attach tag")
	}

	return response.SuccessWithMessage(c, "Tag attached", link)
}

// DetachTag removes the content/tag link
func (h *TaxonomyHandler) DetachTag(c *fiber.Ctx) error {
	content, err := h.loadOwnedContent(c)
	if err != nil {
		return err
	}

	tagID, err := c.ParamsInt("tagID")
	if err != nil || tagID < 1 {
		return response.BadRequest(c, "Invalid tag ID")
	}

	result := h.db.Where("content_id = ? AND tag_id = ?", content.ID, tagID).
		Delete(&model.ContentTag{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to detach tag")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Tag is not attached to this content")
	}

	return response.Message(c, "Tag detached")
}
