package model

import (
	"strings"
	"time"
)

// User represents a registered account. Teachers and students share the
// same table; teaching is implied by owning courses.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"-"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`

	// Relationships
	Courses     []Course       `gorm:"foreignKey:TeacherID" json:"-"`
	Memberships []CourseMember `gorm:"foreignKey:UserID" json:"-"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// MemberRole is the role a user holds inside a course.
type MemberRole string

const (
	RoleStudent   MemberRole = "std"
	RoleAssistant MemberRole = "ast"
)

// CourseMember is the (course, user) join row that gates most per-course
// operations. Duplicate pairs are prevented by a pre-check at enroll time,
// not by a uniqueness constraint.
type CourseMember struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"-"`
	CourseID  uint       `gorm:"not null;index" json:"course_id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Role      MemberRole `gorm:"type:varchar(3);default:'std'" json:"role"`

	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"course,omitempty"`
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
}
