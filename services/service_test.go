package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/simplelms/api/database"
	"github.com/simplelms/api/model"
)

// openTestDB gives each test an isolated in-memory database with the
// full schema migrated. A single connection keeps sqlite's :memory:
// database alive and serializes access.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedUsers(t *testing.T, db *gorm.DB, prefix string, n int) []*model.User {
	t.Helper()
	users := make([]*model.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, seedUser(t, db, fmt.Sprintf("%s%d", prefix, i)))
	}
	return users
}

func seedCourse(t *testing.T, db *gorm.DB, teacherID uint, name string, maxStudents *int) *model.Course {
	t.Helper()
	course := model.Course{
		Name:        name,
		Description: "seeded course",
		TeacherID:   teacherID,
		MaxStudents: maxStudents,
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func seedMember(t *testing.T, db *gorm.DB, courseID, userID uint, role model.MemberRole) *model.CourseMember {
	t.Helper()
	member := model.CourseMember{CourseID: courseID, UserID: userID, Role: role}
	require.NoError(t, db.Create(&member).Error)
	return &member
}

func seedContent(t *testing.T, db *gorm.DB, courseID uint, name string, published bool) *model.CourseContent {
	t.Helper()
	content := model.CourseContent{
		Name:        name,
		Description: "seeded content",
		CourseID:    courseID,
		IsPublished: published,
	}
	require.NoError(t, db.Create(&content).Error)
	return &content
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
func uintPtr(v uint) *uint { return &v }
