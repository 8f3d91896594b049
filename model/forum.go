package model

import (
	"time"
)

// DiscussionThread is a per-course discussion. Pinned and locked are
// orthogonal flags flipped by named transitions, not a single state enum.
type DiscussionThread struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	IsPinned    bool      `gorm:"default:false" json:"is_pinned"`
	IsLocked    bool      `gorm:"default:false" json:"is_locked"`

	Course  Course            `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Author  User              `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Replies []DiscussionReply `gorm:"foreignKey:ThreadID" json:"-"`
}

// DiscussionReply is a reply in a thread, optionally nested under a parent
// reply. At most one reply per thread carries IsSolution=true; the forum
// service enforces this by clearing all siblings before setting one.
type DiscussionReply struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ThreadID      uint      `gorm:"not null;index" json:"thread_id"`
	AuthorID      uint      `gorm:"not null;index" json:"author_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ParentReplyID *uint     `gorm:"index" json:"parent_reply_id,omitempty"`
	IsSolution    bool      `gorm:"default:false" json:"is_solution"`

	Thread      DiscussionThread `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
	Author      User             `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	ParentReply *DiscussionReply `gorm:"foreignKey:ParentReplyID;constraint:OnDelete:CASCADE" json:"-"`
}
