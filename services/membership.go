package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// MembershipService answers the per-course authorization questions every
// other service asks: is this user a member, is this user the teacher,
// how many students are enrolled.
type MembershipService struct {
	db *gorm.DB
}

// NewMembershipService creates a new membership service
func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// IsMember reports whether the user holds any membership row in the course
func (s *MembershipService) IsMember(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.CourseMember{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// IsTeacher reports whether the user owns the course
func (s *MembershipService) IsTeacher(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ? AND teacher_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course ownership: %w", err)
	}
	return count > 0, nil
}

// GetMembership loads the membership row for a (course, user) pair
func (s *MembershipService) GetMembership(ctx context.Context, courseID, userID uint) (*model.CourseMember, error) {
	var member model.CourseMember
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return &member, nil
}

// StudentCount counts members with the student role. Assistants do not
// consume enrollment capacity.
func (s *MembershipService) StudentCount(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.CourseMember{}).
		Where("course_id = ? AND role = ?", courseID, model.RoleStudent).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}
