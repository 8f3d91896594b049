package course

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/response"
	"github.com/simplelms/api/utils/storage"
	"github.com/simplelms/api/utils/validation"
)

// CourseHandler handles course CRUD, enrollment and analytics endpoints
type CourseHandler struct {
	db          *gorm.DB
	enrollments *services.EnrollmentService
	memberships *services.MembershipService
	blobStore   *storage.BlobStore
	validator   *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, enrollments *services.EnrollmentService, memberships *services.MembershipService, blobStore *storage.BlobStore) *CourseHandler {
	return &CourseHandler{
		db:          db,
		enrollments: enrollments,
		memberships: memberships,
		blobStore:   blobStore,
		validator:   validation.NewValidator(),
	}
}

func (h *CourseHandler) loadCourse(c *fiber.Ctx) (*model.Course, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	if err := h.db.Preload("Teacher").First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Course not found")
		}
		return nil, response.InternalServerError(c, "Failed to load course")
	}

	return &course, nil
}

// ListCourses returns courses, paginated, with teachers preloaded
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	var total int64
	if err := h.db.Model(&model.Course{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	err := h.db.Preload("Teacher").
		Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&courses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse returns a single course
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	return response.Success(c, course)
}

// CreateCourseRequest represents a course creation request
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Price       int    `json:"price" validate:"min=0"`
	MaxStudents *int   `json:"max_students" validate:"omitempty,min=1"`
}

// CreateCourse creates a course owned by the authenticated user
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course := model.Course{
		Name:        validation.SanitizeString(req.Name),
		Description: validation.SanitizeString(req.Description),
		Price:       req.Price,
		TeacherID:   userID,
		MaxStudents: req.MaxStudents,
	}
	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourseRequest represents a partial course update
type UpdateCourseRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Price       *int    `json:"price" validate:"omitempty,min=0"`
	MaxStudents *int    `json:"max_students" validate:"omitempty,min=1"`
}

// UpdateCourse applies a partial update; owning teacher only
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can update this course")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Name != nil {
		course.Name = validation.SanitizeString(*req.Name)
	}
	if req.Description != nil {
		course.Description = validation.SanitizeString(*req.Description)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.MaxStudents != nil {
		course.MaxStudents = req.MaxStudents
	}

	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse removes an empty course; owning teacher only. A course
// with members or contents stays.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if course.TeacherID != userID {
		return response.Forbidden(c, "Only the course teacher can delete this course")
	}

	var memberCount, contentCount int64
	h.db.Model(&model.CourseMember{}).Where("course_id = ?", course.ID).Count(&memberCount)
	h.db.Model(&model.CourseContent{}).Where("course_id = ?", course.ID).Count(&contentCount)
	if memberCount > 0 || contentCount > 0 {
		return response.Conflict(c, "Cannot delete a course with members or contents")
	}

	if err := h.db.Delete(&model.Course{}, course.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.Message(c, "Course deleted successfully")
}
