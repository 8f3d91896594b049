package model

import (
	"time"
)

// Category is an independent vocabulary attached to courses.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:7;default:'#007bff'" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag is an independent vocabulary attached to content items.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseCategory links a course to a category.
type CourseCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_course_category" json:"course_id"`
	CategoryID uint      `gorm:"not null;uniqueIndex:idx_course_category" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`

	Course   Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

// ContentTag links a content item to a tag.
type ContentTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContentID uint      `gorm:"not null;uniqueIndex:idx_content_tag" json:"content_id"`
	TagID     uint      `gorm:"not null;uniqueIndex:idx_content_tag" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`

	Content CourseContent `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"-"`
	Tag     Tag           `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"tag,omitempty"`
}
