package taxonomy

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/validation"
)

// TaxonomyHandler handles categories, tags and their junctions
type TaxonomyHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(db *gorm.DB) *TaxonomyHandler {
	return &TaxonomyHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ListCategories returns all categories
func (h *TaxonomyHandler) ListCategories(c *fiber.Ctx) error {
	var categories []model.Category
	if err := h.db.Order("name ASC").Find(&categories).Error; err != nil {
		return response.InternalServerError(c, "Failed to list categories")
	}
	return response.Success(c, categories)
}

// CategoryRequest represents a category create/update payload
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
	Color       string  `json:"color" validate:"omitempty,len=7"`
}

// CreateCategory creates a category; the name is unique
func (h *TaxonomyHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	category := model.Category{
		Name:        validation.SanitizeString(req.Name),
		Description: req.Description,
	}
	if req.Color != "" {
		category.Color = req.Color
	}

	if err := h.db.Create(&category).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "Category name already exists")
		}
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category)
}

// UpdateCategory renames or recolors a category
func (h *TaxonomyHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid category ID")
	}

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to load category")
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	category.Name = validation.SanitizeString(req.Name)
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.Color != "" {
		category.Color = req.Color
	}

	if err := h.db.Save(&category).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "Category name already exists")
		}
		return response.InternalServerError(c, "Failed to update category")
	}

	return response.SuccessWithMessage(c, "Category updated successfully", category)
}

// DeleteCategory removes a category and its course links
func (h *TaxonomyHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid category ID")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&model.CourseCategory{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Category{}, id)
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
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to delete category")
	}

	return response.Message(c, "Category deleted successfully")
}

func (h *TaxonomyHandler) loadOwnedCourse(c *fiber.Ctx) (*model.Course, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, response.Unauthorized(c, "")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Course not found")
		}
		return nil, response.InternalServerError(c, "Failed to load course")
	}
	if course.TeacherID != userID {
		return nil, response.Forbidden(c, "Only the course teacher can manage course categories")
	}

	return &course, nil
}

// AttachCategory links a category to a course; idempotent under races
func (h *TaxonomyHandler) AttachCategory(c *fiber.Ctx) error {
	course, err := h.loadOwnedCourse(c)
	if err != nil {
		return err
	}

	categoryID, err := c.ParamsInt("categoryID")
	if err != nil || categoryID < 1 {
		return response.BadRequest(c, "Invalid category ID")
	}

	var category model.Category
	if err := h.db.First(&category, categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to load category")
	}

	link := model.CourseCategory{CourseID: course.ID, CategoryID: category.ID}
	err = h.db.Where("course_id = ? AND category_id = ?", course.ID, category.ID).
		FirstOrCreate(&link).Error
	if err != nil && err != gorm.ErrDuplicatedKey {
		return response.InternalServerError(c, "Failed to attach category")
	}

	return response.SuccessWithMessage(c, "Category attached", link)
}

// DetachCategory removes the course/category link
func (h *TaxonomyHandler) DetachCategory(c *fiber.Ctx) error {
	course, err := h.loadOwnedCourse(c)
	if err != nil {
		return err
	}

	categoryID, err := c.ParamsInt("categoryID")
	if err != nil || categoryID < 1 {
		return response.BadRequest(c, "Invalid category ID")
	}

	result := h.db.Where("course_id = ? AND category_id = ?", course.ID, categoryID).
		Delete(&model.CourseCategory{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to detach category")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Category is not attached to this course")
	}

	return response.Message(c, "Category detached")
}
