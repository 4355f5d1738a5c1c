package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lessonhub/pkg/models"
)

// in-memory repository fakes

type fakeLessonRepo struct {
	lessons map[string]*models.Lesson
}

func newFakeLessonRepo(lessons ...*models.Lesson) *fakeLessonRepo {
	r := &fakeLessonRepo{lessons: make(map[string]*models.Lesson)}
	for _, l := range lessons {
		r.lessons[l.ID] = l
	}
	return r
}

func (r *fakeLessonRepo) Create(_ context.Context, lesson *models.Lesson) error {
	r.lessons[lesson.ID] = lesson
	return nil
}

func (r *fakeLessonRepo) GetByID(_ context.Context, id string) (*models.Lesson, error) {
	l, ok := r.lessons[id]
	if !ok {
		return nil, models.ErrLessonNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLessonRepo) Update(_ context.Context, lesson *models.Lesson) error {
	if _, ok := r.lessons[lesson.ID]; !ok {
		return models.ErrLessonNotFound
	}
	r.lessons[lesson.ID] = lesson
	return nil
}

func (r *fakeLessonRepo) Delete(_ context.Context, id string) error {
	delete(r.lessons, id)
	return nil
}

func (r *fakeLessonRepo) List(_ context.Context, onlyPublished bool, limit, offset int) ([]models.Lesson, int, error) {
	var out []models.Lesson
	for _, l := range r.lessons {
		if onlyPublished && !l.Published {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

type fakeProgressRepo struct {
	records map[string]*models.LessonProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*models.LessonProgress)}
}

func progressKey(userID, lessonID string) string {
	return userID + "/" + lessonID
}

func (r *fakeProgressRepo) Get(_ context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	rec, ok := r.records[progressKey(userID, lessonID)]
	if !ok {
		return nil, models.NewNotFoundError("progress not found", nil)
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeProgressRepo) GetAllForUser(_ context.Context, userID string) (map[string]*models.LessonProgress, error) {
	out := make(map[string]*models.LessonProgress)
	for _, rec := range r.records {
		if rec.UserID == userID {
			copied := *rec
			out[rec.LessonID] = &copied
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) Upsert(_ context.Context, record *models.LessonProgress) error {
	copied := *record
	r.records[progressKey(record.UserID, record.LessonID)] = &copied
	return nil
}

type fakeStatsRepo struct {
	stats map[string]*models.UserStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[string]*models.UserStats)}
}

func (r *fakeStatsRepo) Get(_ context.Context, userID string) (*models.UserStats, error) {
	s, ok := r.stats[userID]
	if !ok {
		return &models.UserStats{UserID: userID, BadgesEarned: []string{}}, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStatsRepo) Update(_ context.Context, stats *models.UserStats) error {
	copied := *stats
	r.stats[stats.UserID] = &copied
	return nil
}

func publishedLesson(id string) *models.Lesson {
	return &models.Lesson{
		ID:        id,
		Title:     "Lesson " + id,
		Published: true,
	}
}

func newProgressFixture(lessons ...*models.Lesson) (ProgressService, *fakeProgressRepo, *fakeStatsRepo) {
	progressRepo := newFakeProgressRepo()
	statsRepo := newFakeStatsRepo()
	svc := NewProgressService(progressRepo, newFakeLessonRepo(lessons...), statsRepo, newEngine())
	return svc, progressRepo, statsRepo
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestStartCreatesSessionAndRecord(t *testing.T) {
	svc, repo, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	resp, err := svc.Start(ctx, "u1", "l1", models.StartProgressRequest{DeviceInfo: "firefox"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Lesson l1", resp.LessonTitle)
	assert.Zero(t, resp.ResumePosition)

	rec, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressInProgress, rec.Status)
	require.Len(t, rec.WatchSessions, 1)
	assert.Equal(t, "firefox", rec.WatchSessions[0].DeviceInfo)
}

func TestStartUnknownLessonFails(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))

	_, err := svc.Start(context.Background(), "u1", "missing", models.StartProgressRequest{})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, models.ErrorCode(err))
}

func TestStartKeepsSuppliedSessionID(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))

	resp, err := svc.Start(context.Background(), "u1", "l1", models.StartProgressRequest{SessionID: "sess-42"})
	require.NoError(t, err)
	assert.Equal(t, "sess-42", resp.SessionID)
}

func TestStartDoesNotRegressCompleted(t *testing.T) {
	svc, repo, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.Upsert(ctx, &models.LessonProgress{
		UserID: "u1", LessonID: "l1",
		Status:               models.ProgressCompleted,
		CompletionPercentage: 100,
		LastWatchedPosition:  300,
		CompletedAt:          &now,
	}))

	resp, err := svc.Start(ctx, "u1", "l1", models.StartProgressRequest{})
	require.NoError(t, err)
	assert.Equal(t, float64(300), resp.ResumePosition)

	rec, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCompleted, rec.Status)
}

func TestUpdateRequiresBothNumericFields(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	cases := []models.UpdateProgressRequest{
		{},
		{LastWatchedPosition: floatPtr(10)},
		{TotalWatchTime: floatPtr(10)},
		{LastWatchedPosition: floatPtr(-1), TotalWatchTime: floatPtr(10)},
		{LastWatchedPosition: floatPtr(10), TotalWatchTime: floatPtr(-1)},
	}
	for i, req := range cases {
		_, err := svc.Update(ctx, "u1", "l1", req)
		require.Error(t, err, "case %d", i)
		assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err), "case %d", i)
	}
}

func TestUpdateMonotonicMerge(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition:  floatPtr(120),
		TotalWatchTime:       floatPtr(130),
		CompletionPercentage: floatPtr(40),
	})
	require.NoError(t, err)

	// a stale report with smaller values must not move anything backward
	rec, err := svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition:  floatPtr(60),
		TotalWatchTime:       floatPtr(70),
		CompletionPercentage: floatPtr(20),
	})
	require.NoError(t, err)

	assert.Equal(t, float64(120), rec.LastWatchedPosition)
	assert.Equal(t, float64(130), rec.TotalWatchTime)
	assert.Equal(t, float64(40), rec.CompletionPercentage)
	assert.Equal(t, models.ProgressInProgress, rec.Status)
}

func TestUpdateClampsPercentage(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))

	rec, err := svc.Update(context.Background(), "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition:  floatPtr(500),
		TotalWatchTime:       floatPtr(500),
		CompletionPercentage: floatPtr(180),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(100), rec.CompletionPercentage)
	assert.Equal(t, models.ProgressCompleted, rec.Status)
}

func TestUpdateUpsertsWatchSession(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	_, err := svc.Start(ctx, "u1", "l1", models.StartProgressRequest{SessionID: "s1"})
	require.NoError(t, err)

	rec, err := svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition: floatPtr(30),
		TotalWatchTime:      floatPtr(30),
		WatchSessionData: &models.WatchSessionData{
			SessionID: "s1",
			Events:    []map[string]interface{}{{"type": "pause", "position": 30}},
		},
	})
	require.NoError(t, err)

	require.Len(t, rec.WatchSessions, 1)
	assert.Len(t, rec.WatchSessions[0].Events, 1)

	// an unknown session id appends instead of matching
	rec, err = svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition: floatPtr(40),
		TotalWatchTime:      floatPtr(40),
		WatchSessionData:    &models.WatchSessionData{SessionID: "s2"},
	})
	require.NoError(t, err)
	assert.Len(t, rec.WatchSessions, 2)
}

func TestCompleteAwardsAndPersists(t *testing.T) {
	svc, repo, statsRepo := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	resp, err := svc.Complete(ctx, "u1", "l1", models.CompleteLessonRequest{
		FinalWatchTime: floatPtr(600),
		Rating:         intPtr(5),
	})
	require.NoError(t, err)

	assert.False(t, resp.WasAlreadyCompleted)
	assert.Equal(t, 1, resp.UserStats.TotalLessonsCompleted)
	assert.Equal(t, 1, resp.UserStats.CurrentStreak)
	assert.Contains(t, resp.NewBadges, models.BadgeFirstLesson)

	rec, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCompleted, rec.Status)
	assert.Equal(t, float64(100), rec.CompletionPercentage)
	require.NotNil(t, rec.CompletedAt)
	require.NotNil(t, rec.FinalWatchTime)
	assert.Equal(t, float64(600), *rec.FinalWatchTime)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 5, *rec.Rating)

	saved, err := statsRepo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TotalLessonsCompleted)
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc, _, statsRepo := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	first, err := svc.Complete(ctx, "u1", "l1", models.CompleteLessonRequest{})
	require.NoError(t, err)
	require.False(t, first.WasAlreadyCompleted)

	second, err := svc.Complete(ctx, "u1", "l1", models.CompleteLessonRequest{})
	require.NoError(t, err)
	assert.True(t, second.WasAlreadyCompleted)
	assert.Empty(t, second.NewBadges)
	assert.Equal(t, first.UserStats.TotalLessonsCompleted, second.UserStats.TotalLessonsCompleted)
	assert.Equal(t, first.UserStats.CurrentStreak, second.UserStats.CurrentStreak)

	saved, err := statsRepo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TotalLessonsCompleted)
}

func TestCompleteAfterWatchingToFull(t *testing.T) {
	svc, repo, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	// watching to 100% flips the status but does not finalize the record
	_, err := svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition:  floatPtr(600),
		TotalWatchTime:       floatPtr(600),
		CompletionPercentage: floatPtr(100),
	})
	require.NoError(t, err)

	rec, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCompleted, rec.Status)
	require.Nil(t, rec.CompletedAt)

	resp, err := svc.Complete(ctx, "u1", "l1", models.CompleteLessonRequest{})
	require.NoError(t, err)
	assert.False(t, resp.WasAlreadyCompleted)
	assert.Equal(t, 1, resp.UserStats.TotalLessonsCompleted)
	assert.Contains(t, resp.NewBadges, models.BadgeFirstLesson)
	require.NotNil(t, resp.Completion.CompletedAt)

	again, err := svc.Complete(ctx, "u1", "l1", models.CompleteLessonRequest{})
	require.NoError(t, err)
	assert.True(t, again.WasAlreadyCompleted)
	assert.Equal(t, 1, again.UserStats.TotalLessonsCompleted)
}

func TestCompleteRejectsBadRating(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))

	_, err := svc.Complete(context.Background(), "u1", "l1", models.CompleteLessonRequest{Rating: intPtr(6)})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
}

func TestCompleteKeepsLargerStoredWatchTime(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition: floatPtr(100),
		TotalWatchTime:      floatPtr(900),
	})
	require.NoError(t, err)

	resp, err := svc.Complete(ctx, "u1", "l1", models.CompleteLessonRequest{FinalWatchTime: floatPtr(400)})
	require.NoError(t, err)
	require.NotNil(t, resp.Completion.FinalWatchTime)
	assert.Equal(t, float64(900), *resp.Completion.FinalWatchTime)
}

func TestCompleteMultipleLessonsAccumulates(t *testing.T) {
	lessons := make([]*models.Lesson, 0, 5)
	for i := 1; i <= 5; i++ {
		lessons = append(lessons, publishedLesson(fmt.Sprintf("l%d", i)))
	}
	svc, _, _ := newProgressFixture(lessons...)
	ctx := context.Background()

	var last *models.CompleteLessonResponse
	for i := 1; i <= 5; i++ {
		var err error
		last, err = svc.Complete(ctx, "u1", fmt.Sprintf("l%d", i), models.CompleteLessonRequest{})
		require.NoError(t, err)
	}

	assert.Equal(t, 5, last.UserStats.TotalLessonsCompleted)
	// all five completed today: streak stays at one
	assert.Equal(t, 1, last.UserStats.CurrentStreak)
	assert.Contains(t, last.NewBadges, models.BadgeFiveLessons)
}

func TestResumeDefaults(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))

	resp, err := svc.Resume(context.Background(), "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressNotStarted, resp.Status)
	assert.False(t, resp.CanResume)
	assert.Zero(t, resp.LastPosition)
}

func TestResumeReportsPosition(t *testing.T) {
	svc, _, _ := newProgressFixture(publishedLesson("l1"))
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", "l1", models.UpdateProgressRequest{
		LastWatchedPosition:  floatPtr(150),
		TotalWatchTime:       floatPtr(160),
		CompletionPercentage: floatPtr(50),
	})
	require.NoError(t, err)

	resp, err := svc.Resume(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.True(t, resp.CanResume)
	assert.Equal(t, float64(150), resp.LastPosition)
	assert.Equal(t, float64(50), resp.TotalProgress)
	assert.Equal(t, models.ProgressInProgress, resp.Status)
}
