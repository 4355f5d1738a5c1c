package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lessonhub/pkg/models"
)

func newEngine() *StreakEngine {
	return NewStreakEngine(models.DefaultBadgeRules)
}

func dayAt(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 14, 30, 0, 0, time.UTC)
}

func statsWith(current, longest, total int, lastActivity *time.Time, badges ...string) models.UserStats {
	return models.UserStats{
		UserID:                "user-1",
		CurrentStreak:         current,
		LongestStreak:         longest,
		TotalLessonsCompleted: total,
		LastActivityDate:      lastActivity,
		BadgesEarned:          badges,
	}
}

func completedOn(lessonID string, at time.Time) map[string]*models.LessonProgress {
	return map[string]*models.LessonProgress{
		lessonID: {
			UserID:      "user-1",
			LessonID:    lessonID,
			Status:      models.ProgressCompleted,
			CompletedAt: &at,
		},
	}
}

func TestApplyCompletionFirstEver(t *testing.T) {
	engine := newEngine()
	now := dayAt(2026, time.March, 10)

	stats, badges := engine.ApplyCompletion(statsWith(0, 0, 0, nil), nil, "lesson-1", false, now)

	assert.Equal(t, 1, stats.TotalLessonsCompleted)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.LongestStreak)
	require.NotNil(t, stats.LastActivityDate)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), *stats.LastActivityDate)
	assert.Equal(t, []string{models.BadgeFirstLesson}, badges)
}

func TestApplyCompletionRepeatIsNoOp(t *testing.T) {
	engine := newEngine()
	now := dayAt(2026, time.March, 10)
	yesterday := dayAt(2026, time.March, 9)

	before := statsWith(4, 6, 8, &yesterday, models.BadgeFirstLesson, models.BadgeFiveLessons)
	after, badges := engine.ApplyCompletion(before, nil, "lesson-1", true, now)

	assert.Equal(t, before, after)
	assert.Empty(t, badges)
}

func TestApplyCompletionConsecutiveDayExtendsStreak(t *testing.T) {
	engine := newEngine()
	yesterday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	stats, _ := engine.ApplyCompletion(
		statsWith(2, 2, 3, &yesterday, models.BadgeFirstLesson),
		nil, "lesson-4", false, dayAt(2026, time.March, 10))

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
}

func TestApplyCompletionGapResetsToOne(t *testing.T) {
	engine := newEngine()
	threeDaysAgo := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	stats, _ := engine.ApplyCompletion(
		statsWith(9, 9, 20, &threeDaysAgo, models.BadgeFirstLesson, models.BadgeFiveLessons, models.BadgeTenLessons, models.BadgeThreeDay, models.BadgeWeekStreak),
		nil, "lesson-21", false, dayAt(2026, time.March, 10))

	// the day that breaks the gap is itself day one of the new streak
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 9, stats.LongestStreak)
}

func TestApplyCompletionSecondLessonSameDayKeepsStreak(t *testing.T) {
	engine := newEngine()
	now := dayAt(2026, time.March, 10)
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	earlier := completedOn("lesson-1", dayAt(2026, time.March, 10).Add(-2*time.Hour))

	stats, _ := engine.ApplyCompletion(
		statsWith(3, 5, 4, &today, models.BadgeFirstLesson, models.BadgeThreeDay),
		earlier, "lesson-2", false, now)

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 5, stats.TotalLessonsCompleted)
}

func TestApplyCompletionWeekStreakBadge(t *testing.T) {
	engine := newEngine()
	yesterday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	stats, badges := engine.ApplyCompletion(
		statsWith(6, 6, 11, &yesterday, models.BadgeFirstLesson, models.BadgeFiveLessons, models.BadgeTenLessons, models.BadgeThreeDay),
		nil, "lesson-12", false, dayAt(2026, time.March, 10))

	assert.Equal(t, 7, stats.CurrentStreak)
	assert.Equal(t, []string{models.BadgeWeekStreak}, badges)
	assert.True(t, stats.HasBadge(models.BadgeWeekStreak))
}

func TestApplyCompletionBadgeNeverReAwarded(t *testing.T) {
	engine := newEngine()
	yesterday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	// streak hits 3 again after an earlier 3_day_streak award
	stats, badges := engine.ApplyCompletion(
		statsWith(2, 8, 14, &yesterday, models.BadgeFirstLesson, models.BadgeFiveLessons, models.BadgeTenLessons, models.BadgeThreeDay, models.BadgeWeekStreak),
		nil, "lesson-15", false, dayAt(2026, time.March, 10))

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Empty(t, badges)

	count := 0
	for _, b := range stats.BadgesEarned {
		if b == models.BadgeThreeDay {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestApplyCompletionMultipleBadgesOneCall(t *testing.T) {
	engine := newEngine()
	yesterday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	// 4 completions and a 2-day streak going in: this completion crosses
	// both the 5-completions and the 3-day-streak thresholds at once
	stats, badges := engine.ApplyCompletion(
		statsWith(2, 2, 4, &yesterday, models.BadgeFirstLesson),
		nil, "lesson-5", false, dayAt(2026, time.March, 10))

	assert.Equal(t, 5, stats.TotalLessonsCompleted)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.ElementsMatch(t, []string{models.BadgeFiveLessons, models.BadgeThreeDay}, badges)
}

func TestApplyCompletionZeroStreakRepaired(t *testing.T) {
	engine := newEngine()
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	// corrupt state: activity recorded today but streak stuck at zero
	earlier := completedOn("lesson-1", dayAt(2026, time.March, 10))
	stats, _ := engine.ApplyCompletion(
		statsWith(0, 4, 6, &today, models.BadgeFirstLesson, models.BadgeFiveLessons),
		earlier, "lesson-7", false, dayAt(2026, time.March, 10))

	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestApplyCompletionLongestNeverDecreases(t *testing.T) {
	engine := newEngine()
	lastWeek := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	stats, _ := engine.ApplyCompletion(
		statsWith(12, 12, 30, &lastWeek, models.BadgeFirstLesson),
		nil, "lesson-31", false, dayAt(2026, time.March, 10))

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 12, stats.LongestStreak)
	assert.GreaterOrEqual(t, stats.LongestStreak, stats.CurrentStreak)
}

func TestApplyCompletionDateBoundaryUTC(t *testing.T) {
	engine := newEngine()

	// 23:59 UTC yesterday then 00:01 UTC today counts as consecutive days
	lateYesterday := time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)
	yesterdayDate := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	earlyToday := time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC)

	earlier := completedOn("lesson-1", lateYesterday)
	stats, _ := engine.ApplyCompletion(
		statsWith(1, 1, 1, &yesterdayDate, models.BadgeFirstLesson),
		earlier, "lesson-2", false, earlyToday)

	assert.Equal(t, 2, stats.CurrentStreak)
}
