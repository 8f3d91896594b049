package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelms/api/model"
)

func TestMarkCompleteIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	content := seedContent(t, db, course.ID, "Lesson", true)
	student := seedUser(t, db, "student")

	first, created, err := svc.MarkComplete(ctx, student.ID, content.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.MarkComplete(ctx, student.ID, content.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&model.CompletionTracking{}).
		Where("user_id = ? AND content_id = ?", student.ID, content.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestUnmarkCompleteRoundTrip(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	content := seedContent(t, db, course.ID, "Lesson", true)
	student := seedUser(t, db, "student")

	_, _, err := svc.MarkComplete(ctx, student.ID, content.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UnmarkComplete(ctx, student.ID, content.ID))

	// Already gone, so a second removal reports not-completed.
	err = svc.UnmarkComplete(ctx, student.ID, content.ID)
	assert.ErrorIs(t, err, ErrNotCompleted)

	// Completing again after removal works.
	_, created, err := svc.MarkComplete(ctx, student.ID, content.ID)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestProgressCountsPublishedOnly(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")

	published := make([]*model.CourseContent, 0, 4)
	for i := 0; i < 4; i++ {
		published = append(published, seedContent(t, db, course.ID, "Lesson", true))
	}
	draft := seedContent(t, db, course.ID, "Draft", false)

	_, _, err := svc.MarkComplete(ctx, student.ID, published[0].ID)
	require.NoError(t, err)
	_, _, err = svc.MarkComplete(ctx, student.ID, published[1].ID)
	require.NoError(t, err)
	// A completion on a draft never counts toward progress.
	_, _, err = svc.MarkComplete(ctx, student.ID, draft.ID)
	require.NoError(t, err)

	report, err := svc.Progress(ctx, course.ID, student.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 4, report.TotalContents)
	assert.EqualValues(t, 2, report.CompletedContents)
	assert.InDelta(t, 50.0, report.ProgressPercentage, 0.001)
	assert.ElementsMatch(t, []uint{published[0].ID, published[1].ID}, report.CompletedContentIDs)
}

func TestProgressRoundsToTwoDecimals(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")

	contents := make([]*model.CourseContent, 0, 3)
	for i := 0; i < 3; i++ {
		contents = append(contents, seedContent(t, db, course.ID, "Lesson", true))
	}

	_, _, err := svc.MarkComplete(ctx, student.ID, contents[0].ID)
	require.NoError(t, err)

	report, err := svc.Progress(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 33.33, report.ProgressPercentage)
}

func TestProgressEmptyCourseIsZero(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Empty Course", nil)
	student := seedUser(t, db, "student")

	report, err := svc.Progress(context.Background(), course.ID, student.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 0, report.TotalContents)
	assert.Equal(t, 0.0, report.ProgressPercentage)
	assert.Empty(t, report.CompletedContentIDs)
}

func TestToggleBookmarkFlipsState(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	content := seedContent(t, db, course.ID, "Lesson", true)
	student := seedUser(t, db, "student")

	bookmarked, err := svc.ToggleBookmark(ctx, student.ID, content.ID)
	require.NoError(t, err)
	assert.True(t, bookmarked)

	bookmarked, err = svc.ToggleBookmark(ctx, student.ID, content.ID)
	require.NoError(t, err)
	assert.False(t, bookmarked)

	var count int64
	db.Model(&model.Bookmark{}).Where("user_id = ?", student.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestRemoveBookmark(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	content := seedContent(t, db, course.ID, "Lesson", true)
	student := seedUser(t, db, "student")

	_, err := svc.ToggleBookmark(ctx, student.ID, content.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBookmark(ctx, student.ID, content.ID))

	err = svc.RemoveBookmark(ctx, student.ID, content.ID)
	assert.ErrorIs(t, err, ErrNotBookmarked)
}

func TestListBookmarksNewestFirst(t *testing.T) {
	db := openTestDB(t)
	svc := NewEngagementService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	other := seedUser(t, db, "other")

	first := seedContent(t, db, course.ID, "Lesson 1", true)
	second := seedContent(t, db, course.ID, "Lesson 2", true)

	_, err := svc.ToggleBookmark(ctx, student.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.ToggleBookmark(ctx, student.ID, second.ID)
	require.NoError(t, err)
	_, err = svc.ToggleBookmark(ctx, other.ID, first.ID)
	require.NoError(t, err)

	bookmarks, err := svc.ListBookmarks(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)

	// Preloads reach through to the course teacher.
	assert.Equal(t, course.Name, bookmarks[0].Content.Course.Name)
	assert.Equal(t, teacher.Username, bookmarks[0].Content.Course.Teacher.Username)
}
