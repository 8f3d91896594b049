package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers translate these into
// the HTTP error envelope; services never touch fiber.
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrContentNotFound      = errors.New("content not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrThreadNotFound       = errors.New("thread not found")
	ErrReplyNotFound        = errors.New("reply not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrNotMember  = errors.New("user is not a member of this course")
	ErrNotTeacher = errors.New("user is not the teacher of this course")

	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrEnrollmentFull  = errors.New("course enrollment is full")

	ErrNotCompleted  = errors.New("content not completed")
	ErrNotBookmarked = errors.New("content not bookmarked")

	ErrThreadLocked = errors.New("cannot reply to locked thread")
)

// BatchCapacityError reports how far a batch enrollment overshot the
// course's free capacity.
type BatchCapacityError struct {
	Requested int
	Available int
}

func (e *BatchCapacityError) Error() string {
	return fmt.Sprintf("Cannot enroll %d students. Only %d slots available.", e.Requested, e.Available)
}
