package model

import (
	"time"
)

// Course is a single offering owned by a teacher. MaxStudents is advisory:
// the enrollment service checks it at write time, nothing at the database
// level enforces it.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       int       `gorm:"not null;default:0" json:"price"`
	Image       *string   `gorm:"size:500" json:"image,omitempty"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	MaxStudents *int      `json:"max_students"`

	Teacher  User            `gorm:"foreignKey:TeacherID;constraint:OnDelete:RESTRICT" json:"teacher,omitempty"`
	Members  []CourseMember  `gorm:"foreignKey:CourseID" json:"-"`
	Contents []CourseContent `gorm:"foreignKey:CourseID" json:"-"`
}
