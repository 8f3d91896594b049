package model

import (
	"time"
)

// CompletionTracking marks a content item as finished by a user. The
// existence of the row is the completion signal; deleting it reverses the
// completion.
type CompletionTracking struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_completion_user_content" json:"user_id"`
	ContentID   uint      `gorm:"not null;uniqueIndex:idx_completion_user_content" json:"content_id"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`

	User    User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Content CourseContent `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"content,omitempty"`
}

// Bookmark is a (user, content) pair with toggle semantics at the API level.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_content" json:"user_id"`
	ContentID uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_content" json:"content_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Content CourseContent `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"content,omitempty"`
}
