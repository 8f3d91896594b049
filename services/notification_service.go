package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// NotificationService creates notification rows and runs the fan-out
// triggers. Every trigger consults the recipient's preference row before
// writing; a disabled toggle silently drops that recipient.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	RecipientID      uint
	SenderID         *uint
	Type             model.NotificationType
	Title            string
	Message          string
	RelatedCourseID  *uint
	RelatedContentID *uint
	ActionURL        *string
	Metadata         map[string]interface{}
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	RecipientID uint
	UnreadOnly  bool
	Limit       int
	Offset      int
}

// NotificationStats summarizes a user's notification inbox
type NotificationStats struct {
	Total  int64            `json:"total"`
	Unread int64            `json:"unread"`
	ByType map[string]int64 `json:"by_type"`
}

// Create creates a single notification row
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error) {
	notification := &model.Notification{
		RecipientID:      req.RecipientID,
		SenderID:         req.SenderID,
		Title:            req.Title,
		Message:          req.Message,
		Type:             req.Type,
		RelatedCourseID:  req.RelatedCourseID,
		RelatedContentID: req.RelatedContentID,
		ActionURL:        req.ActionURL,
	}

	if req.Metadata != nil {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// allows reports whether the recipient's preferences admit this type.
// A missing preference row means all-true defaults.
func (s *NotificationService) allows(ctx context.Context, recipientID uint, notificationType model.NotificationType) bool {
	var prefs model.NotificationPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ?", recipientID).
		First(&prefs).Error
	if err != nil {
		return true
	}

	switch notificationType {
	case model.NotificationTypeEnrollment:
		return prefs.EnrollmentNotifications
	case model.NotificationTypeNewContent:
		return prefs.ContentNotifications
	case model.NotificationTypeDiscussion:
		return prefs.DiscussionNotifications
	case model.NotificationTypeComment:
		return prefs.CommentNotifications
	case model.NotificationTypeCompletion, model.NotificationTypeCertificate:
		return prefs.CompletionNotifications
	case model.NotificationTypeAnnouncement:
		return prefs.AnnouncementNotifications
	default:
		return true
	}
}

// NotifyEnrollment writes the single enrollment notification to the new member
func (s *NotificationService) NotifyEnrollment(ctx context.Context, course *model.Course, userID uint) error {
	if !s.allows(ctx, userID, model.NotificationTypeEnrollment) {
		return nil
	}

	actionURL := fmt.Sprintf("/courses/%d", course.ID)
	_, err := s.Create(ctx, CreateNotificationRequest{
		RecipientID:     userID,
		SenderID:        &course.TeacherID,
		Type:            model.NotificationTypeEnrollment,
		Title:           "Enrollment Successful",
		Message:         fmt.Sprintf("You have successfully enrolled in %s", course.Name),
		RelatedCourseID: &course.ID,
		ActionURL:       &actionURL,
	})
	return err
}

// NotifyContentPublished fans out one new_content notification per enrolled
// student of the course. Assistants hold membership rows but are not
// recipients.
func (s *NotificationService) NotifyContentPublished(ctx context.Context, content *model.CourseContent, course *model.Course) (int, error) {
	var members []model.CourseMember
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND role = ?", course.ID, model.RoleStudent).
		Find(&members).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load course members: %w", err)
	}

	actionURL := fmt.Sprintf("/courses/%d/contents/%d", course.ID, content.ID)
	created := 0
	for _, member := range members {
		if !s.allows(ctx, member.UserID, model.NotificationTypeNewContent) {
			continue
		}
		_, err := s.Create(ctx, CreateNotificationRequest{
			RecipientID:      member.UserID,
			SenderID:         &course.TeacherID,
			Type:             model.NotificationTypeNewContent,
			Title:            "New Content Available",
			Message:          fmt.Sprintf("New content '%s' is available in %s", content.Name, course.Name),
			RelatedCourseID:  &course.ID,
			RelatedContentID: &content.ID,
			ActionURL:        &actionURL,
		})
		if err != nil {
			log.Printf("content publish fan-out: recipient %d: %v", member.UserID, err)
			continue
		}
		created++
	}

	return created, nil
}

// NotifyDiscussionReply writes at most two deduplicated notifications:
// the thread author (unless they replied themselves) and the course
// teacher (unless they are the author or the replier).
func (s *NotificationService) NotifyDiscussionReply(ctx context.Context, thread *model.DiscussionThread, course *model.Course, replierID uint) error {
	recipients := make([]uint, 0, 2)
	if thread.AuthorID != replierID {
		recipients = append(recipients, thread.AuthorID)
	}
	if course.TeacherID != replierID && course.TeacherID != thread.AuthorID {
		recipients = append(recipients, course.TeacherID)
	}

	actionURL := fmt.Sprintf("/courses/%d/threads/%d", course.ID, thread.ID)
	for _, recipientID := range recipients {
		if !s.allows(ctx, recipientID, model.NotificationTypeDiscussion) {
			continue
		}
		_, err := s.Create(ctx, CreateNotificationRequest{
			RecipientID:     recipientID,
			SenderID:        &replierID,
			Type:            model.NotificationTypeDiscussion,
			Title:           "New Reply in Discussion",
			Message:         fmt.Sprintf("New reply in '%s'", thread.Title),
			RelatedCourseID: &course.ID,
			ActionURL:       &actionURL,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Announce fans out a teacher announcement to every member of the course
func (s *NotificationService) Announce(ctx context.Context, course *model.Course, title, message string) (int, error) {
	var members []model.CourseMember
	err := s.db.WithContext(ctx).
		Where("course_id = ?", course.ID).
		Find(&members).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load course members: %w", err)
	}

	actionURL := fmt.Sprintf("/courses/%d", course.ID)
	created := 0
	for _, member := range members {
		if !s.allows(ctx, member.UserID, model.NotificationTypeAnnouncement) {
			continue
		}
		_, err := s.Create(ctx, CreateNotificationRequest{
			RecipientID:     member.UserID,
			SenderID:        &course.TeacherID,
			Type:            model.NotificationTypeAnnouncement,
			Title:           title,
			Message:         message,
			RelatedCourseID: &course.ID,
			ActionURL:       &actionURL,
		})
		if err != nil {
			log.Printf("announcement fan-out: recipient %d: %v", member.UserID, err)
			continue
		}
		created++
	}

	return created, nil
}

// List retrieves notifications for a user, newest first
func (s *NotificationService) List(ctx context.Context, opts ListNotificationsOptions) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ?", opts.RecipientID)

	if opts.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	} else {
		query = query.Limit(50)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkAsRead marks one notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, recipientID uint) error {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllAsRead marks every unread notification for a user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// Stats returns total/unread counts plus a per-type breakdown
func (s *NotificationService) Stats(ctx context.Context, recipientID uint) (*NotificationStats, error) {
	stats := &NotificationStats{ByType: make(map[string]int64)}

	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&stats.Total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&stats.Unread).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	rows := []struct {
		Type  string
		Count int64
	}{}
	err = s.db.WithContext(ctx).Model(&model.Notification{}).
		Select("type, count(*) as count").
		Where("recipient_id = ?", recipientID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group notifications by type: %w", err)
	}
	for _, row := range rows {
		stats.ByType[row.Type] = row.Count
	}

	return stats, nil
}

// GetPreferences loads the user's preference row, lazily creating the
// all-true default on first read
func (s *NotificationService) GetPreferences(ctx context.Context, userID uint) (*model.NotificationPreference, error) {
	var prefs model.NotificationPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to load notification preferences: %w", err)
	}

	prefs = model.NotificationPreference{
		UserID:                    userID,
		EmailNotifications:        true,
		EnrollmentNotifications:   true,
		ContentNotifications:      true,
		DiscussionNotifications:   true,
		CommentNotifications:      true,
		CompletionNotifications:   true,
		AnnouncementNotifications: true,
	}
	if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification preferences: %w", err)
	}

	return &prefs, nil
}

// UpdatePreferencesRequest carries the toggles for a preference update.
// Pointers distinguish "leave unchanged" from "set false".
type UpdatePreferencesRequest struct {
	EmailNotifications        *bool `json:"email_notifications"`
	EnrollmentNotifications   *bool `json:"enrollment_notifications"`
	ContentNotifications      *bool `json:"content_notifications"`
	DiscussionNotifications   *bool `json:"discussion_notifications"`
	CommentNotifications      *bool `json:"comment_notifications"`
	CompletionNotifications   *bool `json:"completion_notifications"`
	AnnouncementNotifications *bool `json:"announcement_notifications"`
}

// UpdatePreferences applies a partial preference update
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID uint, req UpdatePreferencesRequest) (*model.NotificationPreference, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.EnrollmentNotifications != nil {
		prefs.EnrollmentNotifications = *req.EnrollmentNotifications
	}
	if req.ContentNotifications != nil {
		prefs.ContentNotifications = *req.ContentNotifications
	}
	if req.DiscussionNotifications != nil {
		prefs.DiscussionNotifications = *req.DiscussionNotifications
	}
	if req.CommentNotifications != nil {
		prefs.CommentNotifications = *req.CommentNotifications
	}
	if req.CompletionNotifications != nil {
		prefs.CompletionNotifications = *req.CompletionNotifications
	}
	if req.AnnouncementNotifications != nil {
		prefs.AnnouncementNotifications = *req.AnnouncementNotifications
	}

	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to update notification preferences: %w", err)
	}

	return prefs, nil
}

// CleanupOldNotifications removes read notifications older than the cutoff
func (s *NotificationService) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("created_at < ? AND is_read = ?", cutoff, true).
		Delete(&model.Notification{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup old notifications: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d old notifications", result.RowsAffected)
	}

	return result.RowsAffected, nil
}
