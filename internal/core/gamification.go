// Package core - Core Business Logic
// Protocol-agnostic services behind the HTTP layer. Everything here takes a
// context and returns explicit errors; nothing touches gin.
package core

import (
	"time"

	"lessonhub/pkg/models"
	"lessonhub/pkg/utils"
)

// StreakEngine computes streaks, completion counts, and badge awards from a
// completion event. It is pure: no I/O, same inputs always produce the same
// outputs. Callers load state, apply, then persist.
type StreakEngine struct {
	rules []models.BadgeRule
}

// NewStreakEngine creates an engine with the given badge rule table
func NewStreakEngine(rules []models.BadgeRule) *StreakEngine {
	return &StreakEngine{rules: rules}
}

// ApplyCompletion folds one lesson completion into the aggregate stats.
//
// wasAlreadyCompleted marks a repeat completion of the same lesson: those are
// idempotent and change nothing. Otherwise the completion count goes up by
// one, the streak is advanced against `now`'s UTC calendar date, and the
// badge rules are evaluated against the new counts. progress is the user's
// full progress map, scanned to detect an earlier completion on the same day
// by a different lesson.
//
// Returns the updated stats and the badge ids newly awarded by this call.
func (e *StreakEngine) ApplyCompletion(
	stats models.UserStats,
	progress map[string]*models.LessonProgress,
	lessonID string,
	wasAlreadyCompleted bool,
	now time.Time,
) (models.UserStats, []string) {
	if wasAlreadyCompleted {
		return stats, nil
	}

	today := utils.DateOnly(now)
	stats.TotalLessonsCompleted++

	if !completedOtherLessonOn(progress, lessonID, today) {
		switch {
		case stats.LastActivityDate != nil && utils.IsYesterdayOf(*stats.LastActivityDate, today):
			stats.CurrentStreak++
		case stats.LastActivityDate != nil && utils.SameDay(*stats.LastActivityDate, today):
			// already counted today; keep the streak as-is
		default:
			// gap or no prior activity: the completing day is day 1 of a
			// new streak, not day 0
			stats.CurrentStreak = 1
		}
	}

	// a day with at least one completion can never report a zero streak
	if stats.CurrentStreak == 0 {
		stats.CurrentStreak = 1
	}
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.LastActivityDate = &today

	newBadges := e.evaluateBadges(&stats)
	return stats, newBadges
}

// evaluateBadges awards every rule whose counter equals its threshold and
// whose badge is not yet in the set. Mutates stats.BadgesEarned.
func (e *StreakEngine) evaluateBadges(stats *models.UserStats) []string {
	var awarded []string
	for _, rule := range e.rules {
		var counter int
		switch rule.Trigger {
		case models.TriggerCompletions:
			counter = stats.TotalLessonsCompleted
		case models.TriggerStreak:
			counter = stats.CurrentStreak
		default:
			continue
		}

		if counter != rule.Threshold || stats.HasBadge(rule.BadgeID) {
			continue
		}
		stats.BadgesEarned = append(stats.BadgesEarned, rule.BadgeID)
		awarded = append(awarded, rule.BadgeID)
	}
	return awarded
}

// completedOtherLessonOn reports whether any lesson other than lessonID was
// completed on the given calendar date. Linear in the number of lessons the
// user ever touched.
func completedOtherLessonOn(progress map[string]*models.LessonProgress, lessonID string, date time.Time) bool {
	for id, record := range progress {
		if id == lessonID || record == nil || record.CompletedAt == nil {
			continue
		}
		if utils.SameDay(*record.CompletedAt, date) {
			return true
		}
	}
	return false
}
