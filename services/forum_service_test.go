package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelms/api/model"
)

func TestCreateReplyOnLockedThread(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	seedMember(t, db, course.ID, student.ID, model.RoleStudent)

	thread, err := svc.CreateThread(ctx, course.ID, student.ID, "Question", "body")
	require.NoError(t, err)

	_, err = svc.SetLocked(ctx, thread.ID, teacher.ID, true)
	require.NoError(t, err)

	// The lock applies to everyone, the teacher included.
	_, err = svc.CreateReply(ctx, thread.ID, student.ID, "reply", nil)
	assert.ErrorIs(t, err, ErrThreadLocked)
	_, err = svc.CreateReply(ctx, thread.ID, teacher.ID, "reply", nil)
	assert.ErrorIs(t, err, ErrThreadLocked)

	// Unlocking reopens the thread.
	_, err = svc.SetLocked(ctx, thread.ID, teacher.ID, false)
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, thread.ID, student.ID, "reply", nil)
	assert.NoError(t, err)
}

func TestSetLockedRequiresTeacher(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	seedMember(t, db, course.ID, student.ID, model.RoleStudent)

	thread, err := svc.CreateThread(ctx, course.ID, student.ID, "Question", "body")
	require.NoError(t, err)

	// Even the thread author cannot lock or pin their own thread.
	_, err = svc.SetLocked(ctx, thread.ID, student.ID, true)
	assert.ErrorIs(t, err, ErrNotTeacher)
	_, err = svc.SetPinned(ctx, thread.ID, student.ID, true)
	assert.ErrorIs(t, err, ErrNotTeacher)
}

func TestMarkSolutionSingleWinner(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	author := seedUser(t, db, "author")
	helper := seedUser(t, db, "helper")
	seedMember(t, db, course.ID, author.ID, model.RoleStudent)
	seedMember(t, db, course.ID, helper.ID, model.RoleStudent)

	thread, err := svc.CreateThread(ctx, course.ID, author.ID, "Question", "body")
	require.NoError(t, err)

	first, err := svc.CreateReply(ctx, thread.ID, helper.ID, "try this", nil)
	require.NoError(t, err)
	second, err := svc.CreateReply(ctx, thread.ID, helper.ID, "or this", nil)
	require.NoError(t, err)

	_, err = svc.MarkSolution(ctx, first.ID, author.ID)
	require.NoError(t, err)

	// Moving the solution clears the previous winner.
	marked, err := svc.MarkSolution(ctx, second.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, marked.IsSolution)

	var solutions int64
	db.Model(&model.DiscussionReply{}).
		Where("thread_id = ? AND is_solution = ?", thread.ID, true).
		Count(&solutions)
	assert.EqualValues(t, 1, solutions)

	var current model.DiscussionReply
	require.NoError(t, db.Where("thread_id = ? AND is_solution = ?", thread.ID, true).First(&current).Error)
	assert.Equal(t, second.ID, current.ID)
}

func TestMarkSolutionAuthorOrTeacherOnly(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	author := seedUser(t, db, "author")
	helper := seedUser(t, db, "helper")
	seedMember(t, db, course.ID, author.ID, model.RoleStudent)
	seedMember(t, db, course.ID, helper.ID, model.RoleStudent)

	thread, err := svc.CreateThread(ctx, course.ID, author.ID, "Question", "body")
	require.NoError(t, err)
	reply, err := svc.CreateReply(ctx, thread.ID, helper.ID, "answer", nil)
	require.NoError(t, err)

	_, err = svc.MarkSolution(ctx, reply.ID, helper.ID)
	assert.ErrorIs(t, err, ErrNotTeacher)

	_, err = svc.MarkSolution(ctx, reply.ID, teacher.ID)
	assert.NoError(t, err)
}

func TestCreateReplyParentMustBeInThread(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	seedMember(t, db, course.ID, student.ID, model.RoleStudent)

	threadA, err := svc.CreateThread(ctx, course.ID, student.ID, "A", "")
	require.NoError(t, err)
	threadB, err := svc.CreateThread(ctx, course.ID, student.ID, "B", "")
	require.NoError(t, err)

	parent, err := svc.CreateReply(ctx, threadA.ID, student.ID, "root", nil)
	require.NoError(t, err)

	// Nesting under a reply from a different thread is rejected.
	_, err = svc.CreateReply(ctx, threadB.ID, student.ID, "child", &parent.ID)
	assert.ErrorIs(t, err, ErrReplyNotFound)

	child, err := svc.CreateReply(ctx, threadA.ID, student.ID, "child", &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *child.ParentReplyID)
}

func TestListThreadsPinnedFirst(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	seedMember(t, db, course.ID, student.ID, model.RoleStudent)

	_, err := svc.CreateThread(ctx, course.ID, student.ID, "Ordinary", "")
	require.NoError(t, err)
	pinned, err := svc.CreateThread(ctx, course.ID, student.ID, "Sticky", "")
	require.NoError(t, err)
	_, err = svc.SetPinned(ctx, pinned.ID, teacher.ID, true)
	require.NoError(t, err)

	summaries, err := svc.ListThreads(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Sticky", summaries[0].Title)
	assert.True(t, summaries[0].IsPinned)
}

func TestDeleteThreadRemovesReplies(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	author := seedUser(t, db, "author")
	seedMember(t, db, course.ID, author.ID, model.RoleStudent)

	thread, err := svc.CreateThread(ctx, course.ID, author.ID, "Question", "")
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, thread.ID, author.ID, "bump", nil)
	require.NoError(t, err)

	// A bystander cannot delete someone else's thread.
	stranger := seedUser(t, db, "stranger")
	err = svc.DeleteThread(ctx, thread.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotTeacher)

	require.NoError(t, svc.DeleteThread(ctx, thread.ID, author.ID))

	var replies int64
	db.Model(&model.DiscussionReply{}).Where("thread_id = ?", thread.ID).Count(&replies)
	assert.EqualValues(t, 0, replies)

	_, err = svc.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestForumStats(t *testing.T) {
	db := openTestDB(t)
	svc := NewForumService(db, NewNotificationService(db))
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	seedMember(t, db, course.ID, student.ID, model.RoleStudent)

	thread, err := svc.CreateThread(ctx, course.ID, student.ID, "Active", "")
	require.NoError(t, err)
	_, err = svc.CreateThread(ctx, course.ID, student.ID, "Quiet", "")
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, thread.ID, student.ID, "ping", nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, course.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalThreads)
	assert.EqualValues(t, 1, stats.TotalReplies)
	assert.EqualValues(t, 1, stats.ActiveDiscussions)
	require.Len(t, stats.RecentActivity, 1)
	assert.Equal(t, "student replied in 'Active'", stats.RecentActivity[0])
}
