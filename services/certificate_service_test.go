package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCertificate(t *testing.T) {
	db := openTestDB(t)
	engagement := NewEngagementService(db)
	svc := NewCertificateService(db, engagement)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Go Fundamentals", nil)
	student := seedUser(t, db, "student")

	first := seedContent(t, db, course.ID, "Lesson 1", true)
	second := seedContent(t, db, course.ID, "Lesson 2", true)

	_, _, err := engagement.MarkComplete(ctx, student.ID, first.ID)
	require.NoError(t, err)
	_, _, err = engagement.MarkComplete(ctx, student.ID, second.ID)
	require.NoError(t, err)

	cert, err := svc.Generate(ctx, course.ID, student.ID)
	require.NoError(t, err)

	assert.Equal(t, "Go Fundamentals", cert.CourseName)
	assert.Equal(t, "Test User", cert.StudentName)
	assert.Equal(t, 100.0, cert.ProgressPercentage)
	assert.WithinDuration(t, time.Now(), cert.CompletionDate, time.Minute)
	assert.True(t, strings.Contains(cert.CertificateHTML, "Go Fundamentals"))
	assert.True(t, strings.Contains(cert.CertificateHTML, "100.00%"))
}

func TestGenerateCertificateWithoutCompletions(t *testing.T) {
	db := openTestDB(t)
	engagement := NewEngagementService(db)
	svc := NewCertificateService(db, engagement)

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	seedContent(t, db, course.ID, "Lesson", true)
	student := seedUser(t, db, "student")

	// No completions: progress is zero and the date falls back to now.
	cert, err := svc.Generate(context.Background(), course.ID, student.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.0, cert.ProgressPercentage)
	assert.WithinDuration(t, time.Now(), cert.CompletionDate, time.Minute)
}

func TestGenerateCertificateUnknownCourse(t *testing.T) {
	db := openTestDB(t)
	svc := NewCertificateService(db, NewEngagementService(db))

	student := seedUser(t, db, "student")
	_, err := svc.Generate(context.Background(), 9999, student.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
