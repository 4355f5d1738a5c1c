package models

// BadgeTrigger selects which counter a badge rule watches
type BadgeTrigger string

const (
	TriggerCompletions BadgeTrigger = "completions"
	TriggerStreak      BadgeTrigger = "streak"
)

// Badge ids awarded by the engine
const (
	BadgeFirstLesson = "first_lesson"
	BadgeFiveLessons = "5_lessons"
	BadgeTenLessons  = "10_lessons"
	BadgeThreeDay    = "3_day_streak"
	BadgeWeekStreak  = "week_streak"
	BadgeMonthStreak = "month_streak"
)

// BadgeRule awards BadgeID when the triggering counter equals Threshold.
// Rules fire on the counts produced by the completion being processed,
// and never re-award a badge already in the set.
type BadgeRule struct {
	Trigger   BadgeTrigger `json:"trigger"`
	Threshold int          `json:"threshold"`
	BadgeID   string       `json:"badge_id"`
}

// DefaultBadgeRules is the declarative threshold table evaluated on every
// first-time lesson completion.
var DefaultBadgeRules = []BadgeRule{
	{Trigger: TriggerCompletions, Threshold: 1, BadgeID: BadgeFirstLesson},
	{Trigger: TriggerCompletions, Threshold: 5, BadgeID: BadgeFiveLessons},
	{Trigger: TriggerCompletions, Threshold: 10, BadgeID: BadgeTenLessons},
	{Trigger: TriggerStreak, Threshold: 3, BadgeID: BadgeThreeDay},
	{Trigger: TriggerStreak, Threshold: 7, BadgeID: BadgeWeekStreak},
	{Trigger: TriggerStreak, Threshold: 30, BadgeID: BadgeMonthStreak},
}
