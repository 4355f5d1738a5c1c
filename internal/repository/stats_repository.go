package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lessonhub/pkg/models"
)

// StatsRepository persists aggregate gamification state per user
type StatsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserStats, error)
	Update(ctx context.Context, stats *models.UserStats) error
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new PostgreSQL user stats repository
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

// Get retrieves aggregate stats, initializing an empty row on first access
func (r *statsRepository) Get(ctx context.Context, userID string) (*models.UserStats, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, total_lessons_completed,
		       last_activity_date, badges_earned, updated_at
		FROM user_stats
		WHERE user_id = $1
	`

	stats, err := r.scanStats(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		stats = &models.UserStats{
			UserID:       userID,
			BadgesEarned: []string{},
			UpdatedAt:    time.Now(),
		}

		insertQuery := `
			INSERT INTO user_stats (user_id, current_streak, longest_streak,
			                        total_lessons_completed, last_activity_date,
			                        badges_earned, updated_at)
			VALUES ($1, 0, 0, 0, NULL, '[]'::jsonb, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id) DO NOTHING
		`
		if _, err := r.pool.Exec(ctx, insertQuery, userID); err != nil {
			return nil, mapDBError(err, "initialize_user_stats")
		}
		return stats, nil
	}
	if err != nil {
		return nil, mapDBError(err, "get_user_stats")
	}
	return stats, nil
}

// Update writes the merged aggregate state back
func (r *statsRepository) Update(ctx context.Context, stats *models.UserStats) error {
	badges, err := json.Marshal(stats.BadgesEarned)
	if err != nil {
		return fmt.Errorf("failed to encode badges_earned: %w", err)
	}

	query := `
		INSERT INTO user_stats (user_id, current_streak, longest_streak,
		                        total_lessons_completed, last_activity_date,
		                        badges_earned, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			total_lessons_completed = EXCLUDED.total_lessons_completed,
			last_activity_date = EXCLUDED.last_activity_date,
			badges_earned = EXCLUDED.badges_earned,
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		stats.UserID,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.TotalLessonsCompleted,
		stats.LastActivityDate,
		badges,
	).Scan(&stats.UpdatedAt)

	if err != nil {
		return mapDBError(err, "update_user_stats")
	}
	return nil
}

func (r *statsRepository) scanStats(row pgx.Row) (*models.UserStats, error) {
	stats := &models.UserStats{}
	var badges []byte

	err := row.Scan(
		&stats.UserID,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&stats.TotalLessonsCompleted,
		&stats.LastActivityDate,
		&badges,
		&stats.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(badges) > 0 {
		if err := json.Unmarshal(badges, &stats.BadgesEarned); err != nil {
			return nil, fmt.Errorf("failed to decode badges_earned: %w", err)
		}
	}
	if stats.BadgesEarned == nil {
		stats.BadgesEarned = []string{}
	}
	return stats, nil
}
