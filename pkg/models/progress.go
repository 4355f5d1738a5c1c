package models

import (
	"time"
)

// ProgressStatus represents the per-lesson lifecycle state
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// WatchSession is one viewing session inside a progress record.
// Sessions are appended on start and updated in place by session id.
type WatchSession struct {
	SessionID  string                   `json:"session_id"`
	StartedAt  time.Time                `json:"started_at"`
	DeviceInfo string                   `json:"device_info,omitempty"`
	Events     []map[string]interface{} `json:"events"`
}

// LessonProgress is the per-user, per-lesson progress record.
// The three numeric fields only move forward (monotonic-max merge);
// status never regresses and "completed" is terminal.
type LessonProgress struct {
	UserID               string         `json:"user_id" db:"user_id"`
	LessonID             string         `json:"lesson_id" db:"lesson_id"`
	Status               ProgressStatus `json:"status" db:"status"`
	LastWatchedPosition  float64        `json:"last_watched_position" db:"last_watched_position"`
	TotalWatchTime       float64        `json:"total_watch_time" db:"total_watch_time"`
	CompletionPercentage float64        `json:"completion_percentage" db:"completion_percentage"`
	WatchSessions        []WatchSession `json:"watch_sessions" db:"watch_sessions"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	FinalWatchTime       *float64       `json:"final_watch_time,omitempty" db:"final_watch_time"`
	Rating               *int           `json:"rating,omitempty" db:"rating"`
	Feedback             *string        `json:"feedback,omitempty" db:"feedback"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the record reached the terminal state
func (p *LessonProgress) IsCompleted() bool {
	return p.Status == ProgressCompleted
}

// UserStats is the aggregate gamification state for one user
type UserStats struct {
	UserID                string     `json:"user_id" db:"user_id"`
	CurrentStreak         int        `json:"current_streak" db:"current_streak"`
	LongestStreak         int        `json:"longest_streak" db:"longest_streak"`
	TotalLessonsCompleted int        `json:"total_lessons_completed" db:"total_lessons_completed"`
	LastActivityDate      *time.Time `json:"last_activity_date,omitempty" db:"last_activity_date"`
	BadgesEarned          []string   `json:"badges_earned" db:"badges_earned"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// HasBadge reports whether the badge id has already been earned
func (s *UserStats) HasBadge(badgeID string) bool {
	for _, b := range s.BadgesEarned {
		if b == badgeID {
			return true
		}
	}
	return false
}

// StartProgressRequest opens a watch session for a lesson
type StartProgressRequest struct {
	SessionID  string `json:"session_id"`
	DeviceInfo string `json:"device_info"`
}

// StartProgressResponse echoes the new session and resume point
type StartProgressResponse struct {
	SessionID      string    `json:"session_id"`
	LessonID       string    `json:"lesson_id"`
	LessonTitle    string    `json:"lesson_title"`
	StartedAt      time.Time `json:"started_at"`
	ResumePosition float64   `json:"resume_position"`
}

// UpdateProgressRequest carries an incremental progress report.
// The two required fields are pointers so that "missing" is
// distinguishable from zero and rejected as a whole.
type UpdateProgressRequest struct {
	LastWatchedPosition  *float64          `json:"last_watched_position"`
	TotalWatchTime       *float64          `json:"total_watch_time"`
	CompletionPercentage *float64          `json:"completion_percentage"`
	WatchSessionData     *WatchSessionData `json:"watch_session_data"`
}

// WatchSessionData updates one session in place, matched by session id
type WatchSessionData struct {
	SessionID  string                   `json:"session_id"`
	DeviceInfo string                   `json:"device_info,omitempty"`
	Events     []map[string]interface{} `json:"events,omitempty"`
}

// CompleteLessonRequest finalizes a lesson
type CompleteLessonRequest struct {
	FinalWatchTime       *float64               `json:"final_watch_time"`
	CompletionPercentage *float64               `json:"completion_percentage"`
	SessionSummary       map[string]interface{} `json:"session_summary"`
	Rating               *int                   `json:"rating"`
	Feedback             *string                `json:"feedback"`
}

// CompleteLessonResponse reports finalized progress plus gamification results
type CompleteLessonResponse struct {
	Completion          *LessonProgress `json:"completion"`
	UserStats           StatsSummary    `json:"user_stats"`
	NewBadges           []string        `json:"new_badges"`
	WasAlreadyCompleted bool            `json:"was_already_completed"`
}

// StatsSummary is the client-facing slice of UserStats
type StatsSummary struct {
	CurrentStreak         int      `json:"current_streak"`
	LongestStreak         int      `json:"longest_streak"`
	TotalLessonsCompleted int      `json:"total_lessons_completed"`
	BadgesEarned          []string `json:"badges_earned"`
}

// ResumeResponse answers the resume query; no mutation happens
type ResumeResponse struct {
	LessonID       string         `json:"lesson_id"`
	LastPosition   float64        `json:"last_position"`
	TotalProgress  float64        `json:"total_progress"`
	Status         ProgressStatus `json:"status"`
	TotalWatchTime float64        `json:"total_watch_time"`
	CanResume      bool           `json:"can_resume"`
}
