package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// EngagementService tracks per-user completion state and bookmarks.
// Membership checks live in the handlers; this layer assumes the caller
// is allowed to touch the content.
type EngagementService struct {
	db *gorm.DB
}

// NewEngagementService creates a new engagement service
func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// ProgressReport summarizes a user's standing in one course
type ProgressReport struct {
	CourseID            uint    `json:"course_id"`
	ProgressPercentage  float64 `json:"progress_percentage"`
	TotalContents       int64   `json:"total_contents"`
	CompletedContents   int64   `json:"completed_contents"`
	CompletedContentIDs []uint  `json:"completed_content_ids"`
}

// MarkComplete records a completion. The second call for the same pair is
// a no-op reported through the created flag.
func (s *EngagementService) MarkComplete(ctx context.Context, userID, contentID uint) (*model.CompletionTracking, bool, error) {
	var existing model.CompletionTracking
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, fmt.Errorf("failed to check completion: %w", err)
	}

	completion := model.CompletionTracking{
		UserID:    userID,
		ContentID: contentID,
	}
	if err := s.db.WithContext(ctx).Create(&completion).Error; err != nil {
		// A concurrent call can win the race between the check and the
		// insert; the unique index turns that into a duplicate key.
		if err == gorm.ErrDuplicatedKey {
			if err := s.db.WithContext(ctx).
				Where("user_id = ? AND content_id = ?", userID, contentID).
				First(&existing).Error; err == nil {
				return &existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to record completion: %w", err)
	}

	return &completion, true, nil
}

// UnmarkComplete removes a completion row
func (s *EngagementService) UnmarkComplete(ctx context.Context, userID, contentID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&model.CompletionTracking{})

	if result.Error != nil {
		return fmt.Errorf("failed to remove completion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotCompleted
	}

	return nil
}

// Progress computes completed/total published content for the course,
// rounded to two decimals. No published content means 0.0, not an error.
func (s *EngagementService) Progress(ctx context.Context, courseID, userID uint) (*ProgressReport, error) {
	report := &ProgressReport{CourseID: courseID, CompletedContentIDs: []uint{}}
	db := s.db.WithContext(ctx)

	err := db.Model(&model.CourseContent{}).
		Where("course_id = ? AND is_published = ?", courseID, true).
		Count(&report.TotalContents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count published contents: %w", err)
	}

	if report.TotalContents == 0 {
		return report, nil
	}

	err = db.Model(&model.CompletionTracking{}).
		Joins("JOIN course_contents ON course_contents.id = completion_trackings.content_id").
		Where("completion_trackings.user_id = ? AND course_contents.course_id = ? AND course_contents.is_published = ?",
			userID, courseID, true).
		Pluck("completion_trackings.content_id", &report.CompletedContentIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}

	report.CompletedContents = int64(len(report.CompletedContentIDs))
	pct := float64(report.CompletedContents) / float64(report.TotalContents) * 100
	report.ProgressPercentage = float64(int(pct*100+0.5)) / 100

	return report, nil
}

// ToggleBookmark flips the bookmark state for the pair and reports the
// resulting state.
func (s *EngagementService) ToggleBookmark(ctx context.Context, userID, contentID uint) (bool, error) {
	var existing model.Bookmark
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		First(&existing).Error

	if err == nil {
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return true, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}

	bookmark := model.Bookmark{UserID: userID, ContentID: contentID}
	if err := s.db.WithContext(ctx).Create(&bookmark).Error; err != nil {
		return false, fmt.Errorf("failed to create bookmark: %w", err)
	}

	return true, nil
}

// RemoveBookmark deletes the bookmark explicitly
func (s *EngagementService) RemoveBookmark(ctx context.Context, userID, contentID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&model.Bookmark{})

	if result.Error != nil {
		return fmt.Errorf("failed to remove bookmark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotBookmarked
	}

	return nil
}

// ListBookmarks returns the user's bookmarks, newest first, with the
// content, its course and the course teacher preloaded.
func (s *EngagementService) ListBookmarks(ctx context.Context, userID uint) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	err := s.db.WithContext(ctx).
		Preload("Content").
		Preload("Content.Course").
		Preload("Content.Course.Teacher").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	return bookmarks, nil
}
