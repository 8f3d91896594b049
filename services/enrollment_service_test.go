package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelms/api/model"
)

func TestEnrollCapacityBoundary(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Capped Course", intPtr(2))
	students := seedUsers(t, db, "student", 3)

	_, err := svc.Enroll(ctx, course.ID, students[0].ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, course.ID, students[1].ID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, course.ID, students[2].ID)
	assert.ErrorIs(t, err, ErrEnrollmentFull)

	var count int64
	db.Model(&model.CourseMember{}).Where("course_id = ?", course.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestEnrollDuplicateRejected(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")

	_, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, course.ID, student.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestEnrollUnknownCourse(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))

	student := seedUser(t, db, "student")
	_, err := svc.Enroll(context.Background(), 9999, student.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollAssistantsDoNotConsumeCapacity(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", intPtr(1))
	assistant := seedUser(t, db, "assistant")
	student := seedUser(t, db, "student")

	seedMember(t, db, course.ID, assistant.ID, model.RoleAssistant)

	// The assistant holds a membership but only students count toward
	// the cap, so one seat is still free.
	_, err := svc.Enroll(ctx, course.ID, student.ID)
	assert.NoError(t, err)
}

func TestEnrollConcurrentNeverOversells(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Contended Course", intPtr(3))
	students := seedUsers(t, db, "student", 8)

	var wg sync.WaitGroup
	results := make(chan error, len(students))
	for _, student := range students {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := svc.Enroll(ctx, course.ID, userID)
			results <- err
		}(student.ID)
	}
	wg.Wait()
	close(results)

	var accepted, full int
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case err == ErrEnrollmentFull:
			full++
		default:
			t.Fatalf("unexpected enrollment error: %v", err)
		}
	}

	assert.Equal(t, 3, accepted)
	assert.Equal(t, 5, full)

	var count int64
	db.Model(&model.CourseMember{}).
		Where("course_id = ? AND role = ?", course.ID, model.RoleStudent).
		Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestBatchEnrollSkipsKnownAndRejectsOverflow(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Batch Course", intPtr(3))
	students := seedUsers(t, db, "student", 4)

	// One student already in; unknown ids are dropped silently.
	seedMember(t, db, course.ID, students[0].ID, model.RoleStudent)

	ids := []uint{students[0].ID, students[1].ID, students[2].ID, 9999}
	enrolled, err := svc.BatchEnroll(ctx, course.ID, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{students[1].ID, students[2].ID}, enrolled)

	// Three seats taken now; a two-student batch exceeds the remainder
	// and the whole batch fails with the shortfall spelled out.
	extra := seedUsers(t, db, "extra", 2)
	_, err = svc.BatchEnroll(ctx, course.ID, []uint{extra[0].ID, extra[1].ID})

	var capErr *BatchCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Requested)
	assert.Equal(t, 0, capErr.Available)
	assert.Equal(t, "Cannot enroll 2 students. Only 0 slots available.", capErr.Error())

	// Nothing from the failed batch landed.
	var count int64
	db.Model(&model.CourseMember{}).Where("course_id = ?", course.ID).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestBatchEnrollAllDuplicatesIsNoop(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", intPtr(1))
	student := seedUser(t, db, "student")
	seedMember(t, db, course.ID, student.ID, model.RoleStudent)

	// Full course, but the only requested user is already in, so there
	// is nothing to enroll and no capacity error.
	enrolled, err := svc.BatchEnroll(ctx, course.ID, []uint{student.ID})
	require.NoError(t, err)
	assert.Empty(t, enrolled)
}

func TestCourseAnalytics(t *testing.T) {
	db := openTestDB(t)
	svc := NewEnrollmentService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	students := seedUsers(t, db, "student", 2)

	m1 := seedMember(t, db, course.ID, students[0].ID, model.RoleStudent)
	seedMember(t, db, course.ID, students[1].ID, model.RoleStudent)

	content := seedContent(t, db, course.ID, "Lesson 1", true)
	seedContent(t, db, course.ID, "Lesson 2", false)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&model.Comment{
			ContentID: content.ID,
			MemberID:  m1.ID,
			Comment:   "hello",
		}).Error)
	}

	analytics, err := svc.Analytics(ctx, course.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, analytics.TotalStudents)
	assert.EqualValues(t, 2, analytics.TotalContents)
	assert.EqualValues(t, 3, analytics.TotalComments)
	assert.InDelta(t, 1.5, analytics.EngagementScore, 0.001)
	assert.EqualValues(t, 2, analytics.RecentEnrollments)
}
