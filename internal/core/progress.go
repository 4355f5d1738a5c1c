package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lessonhub/internal/repository"
	"lessonhub/pkg/models"
	"lessonhub/pkg/utils"
)

// ProgressService drives the three-phase lesson lifecycle:
// start → incremental progress → complete, plus the resume query.
type ProgressService interface {
	Start(ctx context.Context, userID, lessonID string, req models.StartProgressRequest) (*models.StartProgressResponse, error)
	Update(ctx context.Context, userID, lessonID string, req models.UpdateProgressRequest) (*models.LessonProgress, error)
	Complete(ctx context.Context, userID, lessonID string, req models.CompleteLessonRequest) (*models.CompleteLessonResponse, error)
	Resume(ctx context.Context, userID, lessonID string) (*models.ResumeResponse, error)
	GetStats(ctx context.Context, userID string) (*models.UserStats, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	lessonRepo   repository.LessonRepository
	statsRepo    repository.StatsRepository
	engine       *StreakEngine
}

// NewProgressService creates a new progress service
func NewProgressService(
	progressRepo repository.ProgressRepository,
	lessonRepo repository.LessonRepository,
	statsRepo repository.StatsRepository,
	engine *StreakEngine,
) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
		statsRepo:    statsRepo,
		engine:       engine,
	}
}

// Start opens (or resumes) a watch session for a lesson. The lesson must
// exist before any state is touched. A completed record never regresses.
func (s *progressService) Start(ctx context.Context, userID, lessonID string, req models.StartProgressRequest) (*models.StartProgressResponse, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	record, err := s.progressRepo.Get(ctx, userID, lessonID)
	if err != nil {
		if models.ErrorCode(err) != models.ErrCodeNotFound {
			return nil, err
		}
		record = &models.LessonProgress{
			UserID:   userID,
			LessonID: lessonID,
			Status:   models.ProgressNotStarted,
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	startedAt := time.Now()
	record.WatchSessions = append(record.WatchSessions, models.WatchSession{
		SessionID:  sessionID,
		StartedAt:  startedAt,
		DeviceInfo: req.DeviceInfo,
		Events:     []map[string]interface{}{},
	})

	if !record.IsCompleted() {
		record.Status = models.ProgressInProgress
	}

	if err := s.progressRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist progress: %w", err)
	}

	return &models.StartProgressResponse{
		SessionID:      sessionID,
		LessonID:       lessonID,
		LessonTitle:    lesson.Title,
		StartedAt:      startedAt,
		ResumePosition: record.LastWatchedPosition,
	}, nil
}

// Update applies a monotonic-max merge of the incoming progress report.
// Both required numeric fields must be present and non-negative; otherwise
// the whole request is rejected with no partial merge.
//
// The read-merge-write cycle here is not transactionally isolated: two
// concurrent updates for the same (user, lesson) can race, and the second
// write wins with whatever state it read. The monotonic merge bounds the
// damage since the numeric fields only move forward.
func (s *progressService) Update(ctx context.Context, userID, lessonID string, req models.UpdateProgressRequest) (*models.LessonProgress, error) {
	if req.LastWatchedPosition == nil || req.TotalWatchTime == nil {
		return nil, models.NewValidationError("last_watched_position and total_watch_time are required numeric fields")
	}
	if *req.LastWatchedPosition < 0 || *req.TotalWatchTime < 0 {
		return nil, models.NewValidationError("progress fields must be non-negative")
	}
	if req.CompletionPercentage != nil && *req.CompletionPercentage < 0 {
		return nil, models.NewValidationError("completion_percentage must be non-negative")
	}

	record, err := s.progressRepo.Get(ctx, userID, lessonID)
	if err != nil {
		if models.ErrorCode(err) != models.ErrCodeNotFound {
			return nil, err
		}
		if _, lerr := s.lessonRepo.GetByID(ctx, lessonID); lerr != nil {
			return nil, lerr
		}
		record = &models.LessonProgress{
			UserID:   userID,
			LessonID: lessonID,
			Status:   models.ProgressNotStarted,
		}
	}

	mergeProgress(record, req)

	if err := s.progressRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist progress: %w", err)
	}
	return record, nil
}

// mergeProgress folds the request into the record with monotonic-max
// semantics. Completed status is terminal regardless of the incoming state.
func mergeProgress(record *models.LessonProgress, req models.UpdateProgressRequest) {
	record.LastWatchedPosition = maxFloat(record.LastWatchedPosition, *req.LastWatchedPosition)
	record.TotalWatchTime = maxFloat(record.TotalWatchTime, *req.TotalWatchTime)

	if req.CompletionPercentage != nil {
		pct := clampPercent(*req.CompletionPercentage)
		record.CompletionPercentage = maxFloat(record.CompletionPercentage, pct)
	}

	if !record.IsCompleted() {
		if record.CompletionPercentage >= 100 {
			record.Status = models.ProgressCompleted
		} else {
			record.Status = models.ProgressInProgress
		}
	}

	if req.WatchSessionData != nil && req.WatchSessionData.SessionID != "" {
		upsertSession(record, *req.WatchSessionData)
	}
}

// upsertSession updates the matching session in place, or appends a new one
func upsertSession(record *models.LessonProgress, data models.WatchSessionData) {
	for i := range record.WatchSessions {
		if record.WatchSessions[i].SessionID == data.SessionID {
			if data.DeviceInfo != "" {
				record.WatchSessions[i].DeviceInfo = data.DeviceInfo
			}
			if len(data.Events) > 0 {
				record.WatchSessions[i].Events = append(record.WatchSessions[i].Events, data.Events...)
			}
			return
		}
	}
	record.WatchSessions = append(record.WatchSessions, models.WatchSession{
		SessionID:  data.SessionID,
		StartedAt:  time.Now(),
		DeviceInfo: data.DeviceInfo,
		Events:     data.Events,
	})
}

// Complete finalizes a lesson and applies the streak/badge engine.
// Completion is idempotent: a second call reports the current stats with
// was_already_completed set and runs no side effects.
//
// The guard keys on completed_at, not status: a record can reach completed
// status through a 100% progress merge without ever being finalized, and
// that first Complete call must still run finalization and the engine.
func (s *progressService) Complete(ctx context.Context, userID, lessonID string, req models.CompleteLessonRequest) (*models.CompleteLessonResponse, error) {
	if req.Rating != nil {
		if err := utils.ValidateRating(*req.Rating); err != nil {
			return nil, models.NewValidationError("rating must be between 1 and 5")
		}
	}

	if _, err := s.lessonRepo.GetByID(ctx, lessonID); err != nil {
		return nil, err
	}

	record, err := s.progressRepo.Get(ctx, userID, lessonID)
	if err != nil {
		if models.ErrorCode(err) != models.ErrCodeNotFound {
			return nil, err
		}
		record = &models.LessonProgress{
			UserID:   userID,
			LessonID: lessonID,
			Status:   models.ProgressNotStarted,
		}
	}

	wasAlreadyCompleted := record.CompletedAt != nil

	if !wasAlreadyCompleted {
		now := time.Now()
		record.Status = models.ProgressCompleted
		record.CompletionPercentage = 100
		record.CompletedAt = &now

		finalTime := record.TotalWatchTime
		if req.FinalWatchTime != nil && *req.FinalWatchTime >= 0 {
			finalTime = maxFloat(finalTime, *req.FinalWatchTime)
		}
		record.FinalWatchTime = &finalTime
		record.TotalWatchTime = finalTime
		record.Rating = req.Rating
		record.Feedback = req.Feedback

		if err := s.progressRepo.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist completion: %w", err)
		}
	}

	stats, err := s.statsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newBadges []string
	if !wasAlreadyCompleted {
		progressMap, err := s.progressRepo.GetAllForUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		updated, awarded := s.engine.ApplyCompletion(*stats, progressMap, lessonID, false, time.Now())
		if err := s.statsRepo.Update(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to persist stats: %w", err)
		}
		*stats = updated
		newBadges = awarded
	}
	if newBadges == nil {
		newBadges = []string{}
	}

	return &models.CompleteLessonResponse{
		Completion: record,
		UserStats: models.StatsSummary{
			CurrentStreak:         stats.CurrentStreak,
			LongestStreak:         stats.LongestStreak,
			TotalLessonsCompleted: stats.TotalLessonsCompleted,
			BadgesEarned:          stats.BadgesEarned,
		},
		NewBadges:           newBadges,
		WasAlreadyCompleted: wasAlreadyCompleted,
	}, nil
}

// Resume is a pure read of the current progress state
func (s *progressService) Resume(ctx context.Context, userID, lessonID string) (*models.ResumeResponse, error) {
	if _, err := s.lessonRepo.GetByID(ctx, lessonID); err != nil {
		return nil, err
	}

	record, err := s.progressRepo.Get(ctx, userID, lessonID)
	if err != nil {
		if models.ErrorCode(err) != models.ErrCodeNotFound {
			return nil, err
		}
		return &models.ResumeResponse{
			LessonID:  lessonID,
			Status:    models.ProgressNotStarted,
			CanResume: false,
		}, nil
	}

	return &models.ResumeResponse{
		LessonID:       lessonID,
		LastPosition:   record.LastWatchedPosition,
		TotalProgress:  record.CompletionPercentage,
		Status:         record.Status,
		TotalWatchTime: record.TotalWatchTime,
		CanResume:      record.LastWatchedPosition > 0,
	}, nil
}

// GetStats returns the user's aggregate gamification state
func (s *progressService) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	return s.statsRepo.Get(ctx, userID)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
