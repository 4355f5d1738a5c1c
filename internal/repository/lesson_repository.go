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

// LessonRepository handles lesson content persistence.
// Topic tags, key points and support materials live in JSONB columns.
type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id string) (*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, onlyPublished bool, limit, offset int) ([]models.Lesson, int, error)
}

type lessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new PostgreSQL lesson repository
func NewLessonRepository(pool *pgxpool.Pool) LessonRepository {
	return &lessonRepository{pool: pool}
}

// Create inserts a new lesson
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	tags, points, materials, err := marshalLessonJSON(lesson)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO lessons (
			id, title, description, video_url, duration_seconds, category,
			topic_tags, key_points, scheduled_date, published, support_materials,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		lesson.ID,
		lesson.Title,
		lesson.Description,
		lesson.VideoURL,
		lesson.DurationSeconds,
		lesson.Category,
		tags,
		points,
		lesson.ScheduledDate,
		lesson.Published,
		materials,
	).Scan(&lesson.CreatedAt, &lesson.UpdatedAt)

	if err != nil {
		return mapDBError(err, "create_lesson")
	}
	return nil
}

// GetByID retrieves a lesson by id
func (r *lessonRepository) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `
		SELECT id, title, description, video_url, duration_seconds, category,
		       topic_tags, key_points, scheduled_date, published, support_materials,
		       created_at, updated_at
		FROM lessons
		WHERE id = $1
	`
	lesson, err := scanLesson(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("lesson not found", err)
	}
	if err != nil {
		return nil, mapDBError(err, "get_lesson_by_id")
	}
	return lesson, nil
}

// Update replaces all mutable lesson fields
func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	tags, points, materials, err := marshalLessonJSON(lesson)
	if err != nil {
		return err
	}

	query := `
		UPDATE lessons
		SET title = $2, description = $3, video_url = $4, duration_seconds = $5,
		    category = $6, topic_tags = $7, key_points = $8, scheduled_date = $9,
		    published = $10, support_materials = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		lesson.ID,
		lesson.Title,
		lesson.Description,
		lesson.VideoURL,
		lesson.DurationSeconds,
		lesson.Category,
		tags,
		points,
		lesson.ScheduledDate,
		lesson.Published,
		materials,
	).Scan(&lesson.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("lesson not found", err)
	}
	if err != nil {
		return mapDBError(err, "update_lesson")
	}
	return nil
}

// Delete removes a lesson
func (r *lessonRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM lessons WHERE id = $1 RETURNING id`
	var deletedID string

	err := r.pool.QueryRow(ctx, query, id).Scan(&deletedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("lesson not found", err)
	}
	if err != nil {
		return mapDBError(err, "delete_lesson")
	}
	return nil
}

// List returns lessons ordered by scheduled date then creation time.
// Unpublished lessons are filtered out unless onlyPublished is false.
func (r *lessonRepository) List(ctx context.Context, onlyPublished bool, limit, offset int) ([]models.Lesson, int, error) {
	where := ""
	if onlyPublished {
		where = "WHERE published = TRUE"
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM lessons %s`, where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, "count_lessons")
	}

	query := fmt.Sprintf(`
		SELECT id, title, description, video_url, duration_seconds, category,
		       topic_tags, key_points, scheduled_date, published, support_materials,
		       created_at, updated_at
		FROM lessons
		%s
		ORDER BY scheduled_date DESC NULLS LAST, created_at DESC
		LIMIT $1 OFFSET $2
	`, where)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, mapDBError(err, "list_lessons")
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, 0, mapDBError(err, "scan_lesson")
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err, "list_lessons")
	}

	return lessons, total, nil
}

// scanLesson reads one lesson row, decoding the JSONB columns
func scanLesson(row pgx.Row) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	var (
		tags      []byte
		points    []byte
		materials []byte
		scheduled *time.Time
	)

	err := row.Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Description,
		&lesson.VideoURL,
		&lesson.DurationSeconds,
		&lesson.Category,
		&tags,
		&points,
		&scheduled,
		&lesson.Published,
		&materials,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lesson.ScheduledDate = scheduled
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &lesson.TopicTags); err != nil {
			return nil, fmt.Errorf("failed to decode topic_tags: %w", err)
		}
	}
	if len(points) > 0 {
		if err := json.Unmarshal(points, &lesson.KeyPoints); err != nil {
			return nil, fmt.Errorf("failed to decode key_points: %w", err)
		}
	}
	if len(materials) > 0 {
		var stored []models.StoredMaterial
		if err := json.Unmarshal(materials, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode support_materials: %w", err)
		}
		lesson.Materials = make([]models.Material, 0, len(stored))
		for _, s := range stored {
			lesson.Materials = append(lesson.Materials, models.MaterialFromStored(s))
		}
	}

	return lesson, nil
}

// marshalLessonJSON encodes the JSONB columns, keeping storage refs intact
func marshalLessonJSON(lesson *models.Lesson) (tags, points, materials []byte, err error) {
	tags, err = json.Marshal(lesson.TopicTags)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode topic_tags: %w", err)
	}
	points, err = json.Marshal(lesson.KeyPoints)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode key_points: %w", err)
	}

	stored := make([]models.StoredMaterial, 0, len(lesson.Materials))
	for _, m := range lesson.Materials {
		stored = append(stored, m.ToStored())
	}
	materials, err = json.Marshal(stored)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode support_materials: %w", err)
	}
	return tags, points, materials, nil
}
