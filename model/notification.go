package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType categorizes a notification row.
type NotificationType string

const (
	NotificationTypeEnrollment   NotificationType = "enrollment"
	NotificationTypeNewContent   NotificationType = "new_content"
	NotificationTypeAssignment   NotificationType = "assignment"
	NotificationTypeDiscussion   NotificationType = "discussion"
	NotificationTypeComment      NotificationType = "comment"
	NotificationTypeCompletion   NotificationType = "completion"
	NotificationTypeCertificate  NotificationType = "certificate"
	NotificationTypeAnnouncement NotificationType = "announcement"
)

// Notification is a single per-user notification row produced by the
// fan-out triggers or by an explicit announcement.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	RecipientID      uint             `gorm:"not null;index" json:"recipient_id"`
	SenderID         *uint            `gorm:"index" json:"sender_id,omitempty"`
	Title            string           `gorm:"size:200;not null" json:"title"`
	Message          string           `gorm:"type:text" json:"message"`
	Type             NotificationType `gorm:"type:varchar(20);default:'announcement'" json:"notification_type"`
	IsRead           bool             `gorm:"default:false" json:"is_read"`
	RelatedCourseID  *uint            `gorm:"index" json:"related_course_id,omitempty"`
	RelatedContentID *uint            `gorm:"index" json:"related_content_id,omitempty"`
	ActionURL        *string          `gorm:"size:500" json:"action_url,omitempty"`
	Metadata         datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`

	Recipient      User           `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"recipient,omitempty"`
	Sender         *User          `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	RelatedCourse  *Course        `gorm:"foreignKey:RelatedCourseID;constraint:OnDelete:CASCADE" json:"related_course,omitempty"`
	RelatedContent *CourseContent `gorm:"foreignKey:RelatedContentID;constraint:OnDelete:CASCADE" json:"related_content,omitempty"`
}

// NotificationPreference holds the per-user delivery toggles, one row per
// user, lazily created with all-true defaults on first read.
type NotificationPreference struct {
	ID                        uint `gorm:"primaryKey" json:"-"`
	UserID                    uint `gorm:"not null;uniqueIndex" json:"-"`
	EmailNotifications        bool `gorm:"default:true" json:"email_notifications"`
	EnrollmentNotifications   bool `gorm:"default:true" json:"enrollment_notifications"`
	ContentNotifications      bool `gorm:"default:true" json:"content_notifications"`
	DiscussionNotifications   bool `gorm:"default:true" json:"discussion_notifications"`
	CommentNotifications      bool `gorm:"default:true" json:"comment_notifications"`
	CompletionNotifications   bool `gorm:"default:true" json:"completion_notifications"`
	AnnouncementNotifications bool `gorm:"default:true" json:"announcement_notifications"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
