package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelms/api/model"
)

func courseNames(courses []model.Course) []string {
	names := make([]string, 0, len(courses))
	for _, c := range courses {
		names = append(names, c.Name)
	}
	return names
}

func contentNames(contents []model.CourseContent) []string {
	names := make([]string, 0, len(contents))
	for _, c := range contents {
		names = append(names, c.Name)
	}
	return names
}

func TestSearchTextMatchesCourseAndTeacher(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	seedCourse(t, db, alice.ID, "Go Fundamentals", nil)
	seedCourse(t, db, bob.ID, "Rust Basics", nil)

	// Case-insensitive match on the course name.
	result, err := svc.Search(ctx, SearchParams{Query: "fundamentals"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Fundamentals"}, courseNames(result.Courses))
	assert.Equal(t, "fundamentals", result.FiltersApplied["query"])

	// The teacher's username is searchable too.
	result, err = svc.Search(ctx, SearchParams{Query: "BOB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust Basics"}, courseNames(result.Courses))
}

func TestSearchPriceBand(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	cheap := seedCourse(t, db, teacher.ID, "Cheap", nil)
	mid := seedCourse(t, db, teacher.ID, "Mid", nil)
	dear := seedCourse(t, db, teacher.ID, "Dear", nil)
	require.NoError(t, db.Model(cheap).Update("price", 10).Error)
	require.NoError(t, db.Model(mid).Update("price", 50).Error)
	require.NoError(t, db.Model(dear).Update("price", 200).Error)

	result, err := svc.Search(ctx, SearchParams{MinPrice: intPtr(20), MaxPrice: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mid"}, courseNames(result.Courses))

	// Bounds are inclusive.
	result, err = svc.Search(ctx, SearchParams{MinPrice: intPtr(50), MaxPrice: intPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mid"}, courseNames(result.Courses))
}

func TestSearchAvailableSlots(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	full := seedCourse(t, db, teacher.ID, "Full", intPtr(1))
	open := seedCourse(t, db, teacher.ID, "Open", intPtr(5))
	unlimited := seedCourse(t, db, teacher.ID, "Unlimited", nil)

	student := seedUser(t, db, "student")
	seedMember(t, db, full.ID, student.ID, model.RoleStudent)
	seedMember(t, db, open.ID, student.ID, model.RoleStudent)

	// An assistant on the full course does not take a seat.
	assistant := seedUser(t, db, "assistant")
	seedMember(t, db, unlimited.ID, assistant.ID, model.RoleAssistant)

	result, err := svc.Search(ctx, SearchParams{HasAvailableSlots: boolPtr(true)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Open", "Unlimited"}, courseNames(result.Courses))

	result, err = svc.Search(ctx, SearchParams{HasAvailableSlots: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Full"}, courseNames(result.Courses))
}

func TestSearchPriceBandWithAvailableSlots(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")

	inBandOpen := seedCourse(t, db, teacher.ID, "In Band Open", intPtr(5))
	inBandFull := seedCourse(t, db, teacher.ID, "In Band Full", intPtr(1))
	outOfBand := seedCourse(t, db, teacher.ID, "Out Of Band", intPtr(5))
	require.NoError(t, db.Model(inBandOpen).Update("price", 30).Error)
	require.NoError(t, db.Model(inBandFull).Update("price", 30).Error)
	require.NoError(t, db.Model(outOfBand).Update("price", 500).Error)

	student := seedUser(t, db, "student")
	seedMember(t, db, inBandFull.ID, student.ID, model.RoleStudent)

	// Both dimensions apply at once: priced in band AND not at capacity.
	result, err := svc.Search(ctx, SearchParams{
		MinPrice:          intPtr(10),
		MaxPrice:          intPtr(50),
		HasAvailableSlots: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"In Band Open"}, courseNames(result.Courses))
}

func TestSearchCategoryFilter(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	tagged := seedCourse(t, db, teacher.ID, "Tagged", nil)
	seedCourse(t, db, teacher.ID, "Plain", nil)

	category := model.Category{Name: "Programming"}
	require.NoError(t, db.Create(&category).Error)
	require.NoError(t, db.Create(&model.CourseCategory{
		CourseID:   tagged.ID,
		CategoryID: category.ID,
	}).Error)

	result, err := svc.Search(ctx, SearchParams{CategoryIDs: []uint{category.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tagged"}, courseNames(result.Courses))
}

func TestSearchTeacherFilterCombinesWithText(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	seedCourse(t, db, alice.ID, "Go Basics", nil)
	seedCourse(t, db, bob.ID, "Go Advanced", nil)

	// Filters AND together: text hit alone is not enough.
	result, err := svc.Search(ctx, SearchParams{Query: "go", TeacherID: uintPtr(bob.ID)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Advanced"}, courseNames(result.Courses))
}

func TestSearchContentsTagAndPublished(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)

	taggedPublished := seedContent(t, db, course.ID, "Tagged Lesson", true)
	taggedDraft := seedContent(t, db, course.ID, "Tagged Draft", false)
	seedContent(t, db, course.ID, "Plain Lesson", true)

	tag := model.Tag{Name: "video"}
	require.NoError(t, db.Create(&tag).Error)
	for _, c := range []*model.CourseContent{taggedPublished, taggedDraft} {
		require.NoError(t, db.Create(&model.ContentTag{ContentID: c.ID, TagID: tag.ID}).Error)
	}

	result, err := svc.Search(ctx, SearchParams{
		TagIDs:    []uint{tag.ID},
		Published: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tagged Lesson"}, contentNames(result.Contents))
	assert.Equal(t, 1, result.ContentCount)
}

func TestSearchNoFiltersReturnsEverything(t *testing.T) {
	db := openTestDB(t)
	svc := NewSearchService(db)
	ctx := context.Background()

	teacher := seedUser(t, db, "teacher")
	course := seedCourse(t, db, teacher.ID, "Course", nil)
	seedContent(t, db, course.ID, "Lesson", true)

	result, err := svc.Search(ctx, SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.CourseCount)
	assert.Equal(t, 1, result.ContentCount)
	assert.Empty(t, result.FiltersApplied)
}
