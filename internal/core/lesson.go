package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lessonhub/internal/repository"
	"lessonhub/internal/storage"
	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
	"lessonhub/pkg/utils"
)

// LessonService manages the lesson catalog
type LessonService interface {
	Create(ctx context.Context, req models.CreateLessonRequest) (*models.Lesson, error)
	GetByID(ctx context.Context, lessonID string, requester *models.User) (*models.Lesson, error)
	Update(ctx context.Context, lessonID string, req models.UpdateLessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, lessonID string) error
	List(ctx context.Context, requester *models.User, limit, offset int) (*models.LessonListResponse, error)
}

type lessonService struct {
	lessonRepo repository.LessonRepository
	store      storage.ObjectStore
}

func NewLessonService(lessonRepo repository.LessonRepository, store storage.ObjectStore) LessonService {
	return &lessonService{lessonRepo: lessonRepo, store: store}
}

func (s *lessonService) Create(ctx context.Context, req models.CreateLessonRequest) (*models.Lesson, error) {
	if err := utils.ValidateLessonTitle(req.Title); err != nil {
		return nil, models.NewValidationError("title must be between 2 and 255 characters")
	}
	if req.DurationSeconds < 0 {
		return nil, models.NewValidationError("duration_seconds must not be negative")
	}

	now := time.Now()
	lesson := &models.Lesson{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		DurationSeconds: req.DurationSeconds,
		Category:        req.Category,
		TopicTags:       req.TopicTags,
		KeyPoints:       req.KeyPoints,
		ScheduledDate:   req.ScheduledDate,
		Published:       req.Published,
		Materials:       withMaterialIDs(req.Materials),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	return lesson, nil
}

// GetByID returns a lesson. Unpublished lessons are visible only to
// content managers and admins; everyone else gets not-found, so the
// existence of drafts is not observable.
func (s *lessonService) GetByID(ctx context.Context, lessonID string, requester *models.User) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	if !lesson.Published && (requester == nil || !requester.CanManageContent()) {
		return nil, models.ErrLessonNotFound
	}

	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, lessonID string, req models.UpdateLessonRequest) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := utils.ValidateLessonTitle(*req.Title); err != nil {
			return nil, models.NewValidationError("title must be between 2 and 255 characters")
		}
		lesson.Title = *req.Title
	}
	if req.Description != nil {
		lesson.Description = *req.Description
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
	}
	if req.DurationSeconds != nil {
		if *req.DurationSeconds < 0 {
			return nil, models.NewValidationError("duration_seconds must not be negative")
		}
		lesson.DurationSeconds = *req.DurationSeconds
	}
	if req.Category != nil {
		lesson.Category = *req.Category
	}
	if req.TopicTags != nil {
		lesson.TopicTags = req.TopicTags
	}
	if req.KeyPoints != nil {
		lesson.KeyPoints = req.KeyPoints
	}
	if req.ScheduledDate != nil {
		lesson.ScheduledDate = req.ScheduledDate
	}
	if req.Published != nil {
		lesson.Published = *req.Published
	}
	if req.Materials != nil {
		lesson.Materials = withMaterialIDs(req.Materials)
	}
	lesson.UpdatedAt = time.Now()

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	return lesson, nil
}

// Delete removes a lesson and cleans up its stored material objects.
// Object deletion is best-effort: the lesson row is already gone, so a
// storage failure leaves an orphaned object, not a broken lesson.
func (s *lessonService) Delete(ctx context.Context, lessonID string) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.lessonRepo.Delete(ctx, lessonID); err != nil {
		return err
	}

	for _, m := range lesson.Materials {
		if m.Type != models.MaterialTypeFile || m.StorageRef == "" {
			continue
		}
		if derr := s.store.Delete(ctx, m.StorageRef); derr != nil {
			logger.Warnf("failed to delete material object %s: %v", m.StorageRef, derr)
		}
	}
	return nil
}

func (s *lessonService) List(ctx context.Context, requester *models.User, limit, offset int) (*models.LessonListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	onlyPublished := requester == nil || !requester.CanManageContent()

	lessons, total, err := s.lessonRepo.List(ctx, onlyPublished, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	return &models.LessonListResponse{
		Data:           lessons,
		PaginationMeta: models.NewPaginationMeta(total, limit, offset),
	}, nil
}

// withMaterialIDs converts request materials into the API shape, assigning
// ids to entries that arrive without one. Storage refs survive the
// conversion; they only ever leave the backend through signed URLs.
func withMaterialIDs(materials []models.StoredMaterial) []models.Material {
	out := make([]models.Material, len(materials))
	for i, m := range materials {
		mat := models.MaterialFromStored(m)
		if mat.ID == "" {
			mat.ID = uuid.New().String()
		}
		out[i] = mat
	}
	return out
}
