package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// SearchService runs the composite course/content search. Filters AND
// across dimensions; the free-text query ORs across the text fields.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a new search service
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// SearchParams carries the decoded search filters. Pointers distinguish
// "absent" from zero values.
type SearchParams struct {
	Query             string
	CategoryIDs       []uint
	TagIDs            []uint
	MinPrice          *int
	MaxPrice          *int
	TeacherID         *uint
	Published         *bool
	HasAvailableSlots *bool
}

// SearchResult holds the two independent result sets and the echo of the
// filters that produced them
type SearchResult struct {
	Courses        []model.Course        `json:"courses"`
	Contents       []model.CourseContent `json:"contents"`
	CourseCount    int                   `json:"course_count"`
	ContentCount   int                   `json:"content_count"`
	FiltersApplied map[string]any        `json:"filters_applied"`
}

// Search runs both the course and the content search with the same params
func (s *SearchService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	courses, err := s.searchCourses(ctx, params)
	if err != nil {
		return nil, err
	}

	contents, err := s.searchContents(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Courses:        courses,
		Contents:       contents,
		CourseCount:    len(courses),
		ContentCount:   len(contents),
		FiltersApplied: map[string]any{},
	}

	if params.Query != "" {
		result.FiltersApplied["query"] = params.Query
	}
	if len(params.CategoryIDs) > 0 {
		result.FiltersApplied["category_ids"] = params.CategoryIDs
	}
	if len(params.TagIDs) > 0 {
		result.FiltersApplied["tag_ids"] = params.TagIDs
	}
	if params.MinPrice != nil {
		result.FiltersApplied["min_price"] = *params.MinPrice
	}
	if params.MaxPrice != nil {
		result.FiltersApplied["max_price"] = *params.MaxPrice
	}
	if params.TeacherID != nil {
		result.FiltersApplied["teacher_id"] = *params.TeacherID
	}
	if params.Published != nil {
		result.FiltersApplied["published"] = *params.Published
	}
	if params.HasAvailableSlots != nil {
		result.FiltersApplied["has_available_slots"] = *params.HasAvailableSlots
	}

	return result, nil
}

func (s *SearchService) searchCourses(ctx context.Context, params SearchParams) ([]model.Course, error) {
	query := s.db.WithContext(ctx).Model(&model.Course{}).
		Preload("Teacher").
		Joins("JOIN users ON users.id = courses.teacher_id")

	if params.Query != "" {
		// LOWER/LIKE instead of ILIKE keeps the query portable across
		// postgres and the sqlite test driver.
		pattern := "%" + params.Query + "%"
		query = query.Where(
			"LOWER(courses.name) LIKE LOWER(?) OR LOWER(courses.description) LIKE LOWER(?) OR LOWER(users.first_name) LIKE LOWER(?) OR LOWER(users.last_name) LIKE LOWER(?) OR LOWER(users.username) LIKE LOWER(?)",
			pattern, pattern, pattern, pattern, pattern)
	}

	if len(params.CategoryIDs) > 0 {
		query = query.Where("courses.id IN (?)",
			s.db.Model(&model.CourseCategory{}).
				Select("course_id").
				Where("category_id IN ?", params.CategoryIDs))
	}

	if params.MinPrice != nil {
		query = query.Where("courses.price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("courses.price <= ?", *params.MaxPrice)
	}
	if params.TeacherID != nil {
		query = query.Where("courses.teacher_id = ?", *params.TeacherID)
	}

	if params.HasAvailableSlots != nil {
		// A null max_students means unlimited, which always has slots.
		slotCondition := "courses.max_students IS NULL OR courses.max_students > (?)"
		studentCount := s.db.Model(&model.CourseMember{}).
			Select("count(*)").
			Where("course_members.course_id = courses.id AND course_members.role = ?", model.RoleStudent)

		if *params.HasAvailableSlots {
			query = query.Where(slotCondition, studentCount)
		} else {
			query = query.Not(slotCondition, studentCount)
		}
	}

	var courses []model.Course
	if err := query.Order("courses.created_at DESC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}

	return courses, nil
}

func (s *SearchService) searchContents(ctx context.Context, params SearchParams) ([]model.CourseContent, error) {
	query := s.db.WithContext(ctx).Model(&model.CourseContent{}).
		Preload("Course")

	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		query = query.Where(
			"LOWER(course_contents.name) LIKE LOWER(?) OR LOWER(course_contents.description) LIKE LOWER(?)",
			pattern, pattern)
	}

	if len(params.TagIDs) > 0 {
		query = query.Where("course_contents.id IN (?)",
			s.db.Model(&model.ContentTag{}).
				Select("content_id").
				Where("tag_id IN ?", params.TagIDs))
	}

	if params.Published != nil {
		query = query.Where("course_contents.is_published = ?", *params.Published)
	}

	var contents []model.CourseContent
	if err := query.Order("course_contents.created_at DESC").Find(&contents).Error; err != nil {
		return nil, fmt.Errorf("failed to search contents: %w", err)
	}

	return contents, nil
}
