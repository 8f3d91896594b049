package model

import (
	"time"
)

// CourseContent is a single content item inside a course. Items nest one
// level at a time through ParentID; the tree is always re-read from storage.
type CourseContent struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Name           string     `gorm:"size:200;not null" json:"name"`
	Description    string     `gorm:"type:text;default:'-'" json:"description"`
	VideoURL       *string    `gorm:"size:200" json:"video_url,omitempty"`
	FileAttachment *string    `gorm:"size:500" json:"file_attachment,omitempty"`
	CourseID       uint       `gorm:"not null;index" json:"course_id"`
	ParentID       *uint      `gorm:"index" json:"parent_id,omitempty"`
	ReleaseTime    *time.Time `json:"release_time"`
	IsPublished    bool       `gorm:"default:false" json:"is_published"`

	Course Course         `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"course,omitempty"`
	Parent *CourseContent `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT" json:"-"`
}

// Comment belongs to a content item and to a CourseMember row, not directly
// to a user: the author is "membership in that course".
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ContentID  uint      `gorm:"not null;index" json:"content_id"`
	MemberID   uint      `gorm:"not null;index" json:"member_id"`
	Comment    string    `gorm:"type:text;not null" json:"comment"`
	IsApproved bool      `gorm:"default:false" json:"is_approved"`

	Content CourseContent `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"content,omitempty"`
	Member  CourseMember  `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
}
