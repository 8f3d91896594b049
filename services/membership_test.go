package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelms/api/model"
)

func TestMembershipQueries(t *testing.T) {
	db := openTestDB(t)
	svc := NewMembershipService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	student := seedUser(t, db, "student")
	assistant := seedUser(t, db, "assistant")
	outsider := seedUser(t, db, "outsider")

	seedMember(t, db, course.ID, student.ID, model.RoleStudent)
	seedMember(t, db, course.ID, assistant.ID, model.RoleAssistant)

	isMember, err := svc.IsMember(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	isMember, err = svc.IsMember(ctx, course.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	// Teaching is ownership, not membership.
	isMember, err = svc.IsMember(ctx, course.ID, teacher.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	isTeacher, err := svc.IsTeacher(ctx, course.ID, teacher.ID)
	require.NoError(t, err)
	assert.True(t, isTeacher)

	isTeacher, err = svc.IsTeacher(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, isTeacher)

	member, err := svc.GetMembership(ctx, course.ID, assistant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, member.Role)

	_, err = svc.GetMembership(ctx, course.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotMember)

	count, err := svc.StudentCount(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
