package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// EnrollmentService owns the capacity-checked enrollment path. The mutex
// serializes the check-then-insert window inside this process; running
// more than one instance still needs a database-level guard.
type EnrollmentService struct {
	db            *gorm.DB
	notifications *NotificationService
	mu            sync.Mutex
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, notifications *NotificationService) *EnrollmentService {
	return &EnrollmentService{
		db:            db,
		notifications: notifications,
	}
}

// CourseAnalytics summarizes one course's engagement
type CourseAnalytics struct {
	TotalStudents     int64   `json:"total_students"`
	TotalContents     int64   `json:"total_contents"`
	TotalComments     int64   `json:"total_comments"`
	EngagementScore   float64 `json:"engagement_score"`
	RecentEnrollments int64   `json:"recent_enrollments"`
}

func studentCountTx(tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.CourseMember{}).
		Where("course_id = ? AND role = ?", courseID, model.RoleStudent).
		Count(&count).Error
	return count, err
}

// Enroll adds the user to the course as a student, enforcing capacity
func (s *EnrollmentService) Enroll(ctx context.Context, courseID, userID uint) (*model.CourseMember, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var member model.CourseMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&model.CourseMember{}).
			Where("course_id = ? AND user_id = ?", courseID, userID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyEnrolled
		}

		if course.MaxStudents != nil {
			count, err := studentCountTx(tx, courseID)
			if err != nil {
				return fmt.Errorf("failed to count students: %w", err)
			}
			if count >= int64(*course.MaxStudents) {
				return ErrEnrollmentFull
			}
		}

		member = model.CourseMember{
			CourseID: courseID,
			UserID:   userID,
			Role:     model.RoleStudent,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Fan-out is best effort; a failed notification never unwinds the enrollment.
	if err := s.notifications.NotifyEnrollment(ctx, &course, userID); err != nil {
		log.Printf("enrollment notification for user %d: %v", userID, err)
	}

	return &member, nil
}

// BatchEnroll enrolls a set of users at once. Unknown user ids are
// dropped, already-enrolled users are skipped, and the whole batch fails
// when the remainder exceeds the course's free capacity.
func (s *EnrollmentService) BatchEnroll(ctx context.Context, courseID uint, userIDs []uint) ([]uint, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var enrolled []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var validIDs []uint
		err := tx.Model(&model.User{}).
			Where("id IN ?", userIDs).
			Pluck("id", &validIDs).Error
		if err != nil {
			return fmt.Errorf("failed to resolve users: %w", err)
		}

		var existingIDs []uint
		err = tx.Model(&model.CourseMember{}).
			Where("course_id = ? AND user_id IN ?", courseID, validIDs).
			Pluck("user_id", &existingIDs).Error
		if err != nil {
			return fmt.Errorf("failed to check existing memberships: %w", err)
		}

		existing := make(map[uint]bool, len(existingIDs))
		for _, id := range existingIDs {
			existing[id] = true
		}

		var remaining []uint
		for _, id := range validIDs {
			if !existing[id] {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 0 {
			return nil
		}

		if course.MaxStudents != nil {
			count, err := studentCountTx(tx, courseID)
			if err != nil {
				return fmt.Errorf("failed to count students: %w", err)
			}
			free := int64(*course.MaxStudents) - count
			if free < 0 {
				free = 0
			}
			if int64(len(remaining)) > free {
				return &BatchCapacityError{Requested: len(remaining), Available: int(free)}
			}
		}

		members := make([]model.CourseMember, 0, len(remaining))
		for _, id := range remaining {
			members = append(members, model.CourseMember{
				CourseID: courseID,
				UserID:   id,
				Role:     model.RoleStudent,
			})
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to create memberships: %w", err)
		}

		enrolled = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, userID := range enrolled {
		if err := s.notifications.NotifyEnrollment(ctx, &course, userID); err != nil {
			log.Printf("batch enrollment notification for user %d: %v", userID, err)
		}
	}

	return enrolled, nil
}

// Analytics computes the course engagement summary
func (s *EnrollmentService) Analytics(ctx context.Context, courseID uint) (*CourseAnalytics, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	analytics := &CourseAnalytics{}
	db := s.db.WithContext(ctx)

	err := db.Model(&model.CourseMember{}).
		Where("course_id = ? AND role = ?", courseID, model.RoleStudent).
		Count(&analytics.TotalStudents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	err = db.Model(&model.CourseContent{}).
		Where("course_id = ?", courseID).
		Count(&analytics.TotalContents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count contents: %w", err)
	}

	err = db.Model(&model.Comment{}).
		Joins("JOIN course_contents ON course_contents.id = comments.content_id").
		Where("course_contents.course_id = ?", courseID).
		Count(&analytics.TotalComments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	if analytics.TotalStudents > 0 {
		score := float64(analytics.TotalComments) / float64(analytics.TotalStudents)
		analytics.EngagementScore = float64(int(score*100+0.5)) / 100
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	err = db.Model(&model.CourseMember{}).
		Where("course_id = ? AND created_at >= ?", courseID, cutoff).
		Count(&analytics.RecentEnrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recent enrollments: %w", err)
	}

	return analytics, nil
}
