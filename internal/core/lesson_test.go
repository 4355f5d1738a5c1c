package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lessonhub/pkg/models"
)

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }

func TestCreateLessonAssignsMaterialIDs(t *testing.T) {
	svc := NewLessonService(newFakeLessonRepo(), newFakeObjectStore())

	lesson, err := svc.Create(context.Background(), models.CreateLessonRequest{
		Title: "Onboarding 101",
		Materials: []models.StoredMaterial{
			{Type: models.MaterialTypeLink, URL: "https://example.com"},
			{ID: "keep-me", Type: models.MaterialTypeFile, StorageRef: "materials/x.pdf"},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, lesson.ID)
	require.Len(t, lesson.Materials, 2)
	assert.NotEmpty(t, lesson.Materials[0].ID)
	assert.Equal(t, "keep-me", lesson.Materials[1].ID)
}

func TestCreateLessonBindsStorageRefFromJSON(t *testing.T) {
	body := `{
		"title": "Compliance Basics",
		"support_materials": [
			{"type": "file", "fileName": "handbook.pdf", "storageRef": "materials/abc_handbook.pdf"}
		]
	}`

	var req models.CreateLessonRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	svc := NewLessonService(newFakeLessonRepo(), newFakeObjectStore())
	lesson, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, lesson.Materials, 1)
	assert.Equal(t, "materials/abc_handbook.pdf", lesson.Materials[0].StorageRef)

	// the ref round-trips into the service but never back out to clients
	out, err := json.Marshal(lesson)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "materials/abc_handbook.pdf")
}

func TestDeleteLessonRemovesStoredObjects(t *testing.T) {
	lesson := publishedLesson("l1")
	lesson.Materials = []models.Material{
		{ID: "m1", Type: models.MaterialTypeFile, FileName: "guide.pdf", StorageRef: "materials/guide.pdf"},
		{ID: "m2", Type: models.MaterialTypeLink, URL: "https://example.com"},
	}
	store := newFakeObjectStore()
	store.objects["materials/guide.pdf"] = []byte("%PDF-1.7")
	svc := NewLessonService(newFakeLessonRepo(lesson), store)

	require.NoError(t, svc.Delete(context.Background(), "l1"))

	_, kept := store.objects["materials/guide.pdf"]
	assert.False(t, kept)
}

func TestCreateLessonValidation(t *testing.T) {
	svc := NewLessonService(newFakeLessonRepo(), newFakeObjectStore())

	_, err := svc.Create(context.Background(), models.CreateLessonRequest{Title: ""})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))

	_, err = svc.Create(context.Background(), models.CreateLessonRequest{Title: "ok title", DurationSeconds: -5})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
}

func TestGetLessonHidesDrafts(t *testing.T) {
	draft := publishedLesson("l1")
	draft.Published = false
	svc := NewLessonService(newFakeLessonRepo(draft), newFakeObjectStore())
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "l1", learner())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, models.ErrorCode(err))

	_, err = svc.GetByID(ctx, "l1", nil)
	require.Error(t, err)

	lesson, err := svc.GetByID(ctx, "l1", admin())
	require.NoError(t, err)
	assert.Equal(t, "l1", lesson.ID)
}

func TestUpdateLessonPartial(t *testing.T) {
	existing := publishedLesson("l1")
	existing.Description = "old description"
	svc := NewLessonService(newFakeLessonRepo(existing), newFakeObjectStore())

	updated, err := svc.Update(context.Background(), "l1", models.UpdateLessonRequest{
		Title:     stringPtr("New Title"),
		Published: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, "New Title", updated.Title)
	assert.False(t, updated.Published)
	// untouched fields survive
	assert.Equal(t, "old description", updated.Description)
}

func TestUpdateLessonUnknown(t *testing.T) {
	svc := NewLessonService(newFakeLessonRepo(), newFakeObjectStore())

	_, err := svc.Update(context.Background(), "missing", models.UpdateLessonRequest{Title: stringPtr("x")})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, models.ErrorCode(err))
}

func TestListLessonsFiltersForLearners(t *testing.T) {
	published := publishedLesson("l1")
	draft := publishedLesson("l2")
	draft.Published = false
	svc := NewLessonService(newFakeLessonRepo(published, draft), newFakeObjectStore())
	ctx := context.Background()

	resp, err := svc.List(ctx, learner(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	resp, err = svc.List(ctx, admin(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
}

func TestListLessonsNormalizesPaging(t *testing.T) {
	svc := NewLessonService(newFakeLessonRepo(publishedLesson("l1")), newFakeObjectStore())

	resp, err := svc.List(context.Background(), learner(), -1, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, 0, resp.Offset)
}
