package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lessonhub/pkg/models"
)

// ProgressRepository persists per-user, per-lesson progress records.
// Watch sessions are a JSONB column; the numeric fields are plain columns
// so the monotonic invariants stay queryable.
type ProgressRepository interface {
	Get(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error)
	GetAllForUser(ctx context.Context, userID string) (map[string]*models.LessonProgress, error)
	Upsert(ctx context.Context, record *models.LessonProgress) error
}

type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new PostgreSQL progress repository
func NewProgressRepository(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepository{pool: pool}
}

const progressColumns = `
	user_id, lesson_id, status, last_watched_position, total_watch_time,
	completion_percentage, watch_sessions, completed_at, final_watch_time,
	rating, feedback, updated_at
`

// Get retrieves one progress record; a missing record maps to NotFound
func (r *progressRepository) Get(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_progress
		WHERE user_id = $1 AND lesson_id = $2
	`, progressColumns)

	record, err := scanProgress(r.pool.QueryRow(ctx, query, userID, lessonID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("progress record not found", err)
	}
	if err != nil {
		return nil, mapDBError(err, "get_progress")
	}
	return record, nil
}

// GetAllForUser loads the user's full progress map keyed by lesson id.
// The streak engine scans it for same-day completions across lessons.
func (r *progressRepository) GetAllForUser(ctx context.Context, userID string) (map[string]*models.LessonProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lesson_progress
		WHERE user_id = $1
	`, progressColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, mapDBError(err, "get_all_progress")
	}
	defer rows.Close()

	result := make(map[string]*models.LessonProgress)
	for rows.Next() {
		record, err := scanProgress(rows)
		if err != nil {
			return nil, mapDBError(err, "scan_progress")
		}
		result[record.LessonID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "get_all_progress")
	}
	return result, nil
}

// Upsert writes the record, inserting on first contact with a lesson.
// The write carries whatever state the caller merged; concurrent updates
// for the same pair are last-write-wins (see progress service notes).
func (r *progressRepository) Upsert(ctx context.Context, record *models.LessonProgress) error {
	sessions, err := json.Marshal(record.WatchSessions)
	if err != nil {
		return fmt.Errorf("failed to encode watch_sessions: %w", err)
	}

	query := `
		INSERT INTO lesson_progress (
			user_id, lesson_id, status, last_watched_position, total_watch_time,
			completion_percentage, watch_sessions, completed_at, final_watch_time,
			rating, feedback, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_watched_position = EXCLUDED.last_watched_position,
			total_watch_time = EXCLUDED.total_watch_time,
			completion_percentage = EXCLUDED.completion_percentage,
			watch_sessions = EXCLUDED.watch_sessions,
			completed_at = EXCLUDED.completed_at,
			final_watch_time = EXCLUDED.final_watch_time,
			rating = EXCLUDED.rating,
			feedback = EXCLUDED.feedback,
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		record.UserID,
		record.LessonID,
		string(record.Status),
		record.LastWatchedPosition,
		record.TotalWatchTime,
		record.CompletionPercentage,
		sessions,
		record.CompletedAt,
		record.FinalWatchTime,
		record.Rating,
		record.Feedback,
	).Scan(&record.UpdatedAt)

	if err != nil {
		return mapDBError(err, "upsert_progress")
	}
	return nil
}

// scanProgress reads one progress row, decoding the sessions column
func scanProgress(row pgx.Row) (*models.LessonProgress, error) {
	record := &models.LessonProgress{}
	var (
		statusStr string
		sessions  []byte
	)

	err := row.Scan(
		&record.UserID,
		&record.LessonID,
		&statusStr,
		&record.LastWatchedPosition,
		&record.TotalWatchTime,
		&record.CompletionPercentage,
		&sessions,
		&record.CompletedAt,
		&record.FinalWatchTime,
		&record.Rating,
		&record.Feedback,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.ProgressStatus(statusStr)
	if len(sessions) > 0 {
		if err := json.Unmarshal(sessions, &record.WatchSessions); err != nil {
			return nil, fmt.Errorf("failed to decode watch_sessions: %w", err)
		}
	}
	return record, nil
}
