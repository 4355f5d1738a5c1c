package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lessonhub/internal/repository"
	"lessonhub/internal/storage"
	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
	"lessonhub/pkg/utils"
)

const (
	defaultMaxUploadBytes = 10 << 20 // 10MB
	defaultKeyPrefix      = "materials"
	pdfContentType        = "application/pdf"
)

// MaterialStream carries a proxied object body plus the metadata the
// handler needs to write response headers.
type MaterialStream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	FileName      string
}

// MaterialServiceConfig holds the gateway's signing, proxy, and upload knobs
type MaterialServiceConfig struct {
	ViewerURLExpiry    time.Duration // signed URL lifetime for the viewer flow
	DefaultSignExpiry  time.Duration // default for the generic re-sign endpoint
	StreamSignExpiry   time.Duration // internal short-lived URL for the proxy
	StreamFetchTimeout time.Duration // per-request upstream fetch budget
	KeyPrefix          string        // object key prefix for uploaded materials
	MaxUploadBytes     int64         // upload size cap
}

// MaterialService is the gateway to protected lesson materials.
// Access checks are re-evaluated on every call; raw storage references
// never appear in any response.
type MaterialService interface {
	IssueViewerURL(ctx context.Context, requester *models.User, lessonID, materialID string) (*models.SignedMaterialResponse, error)
	StreamMaterial(ctx context.Context, requester *models.User, lessonID, materialID string) (*MaterialStream, error)
	ListMaterials(ctx context.Context, requester *models.User, lessonID string) (*models.MaterialListResponse, error)
	ResignURL(ctx context.Context, req models.SignURLRequest) (*models.SignURLResponse, error)
	ProcessUpload(ctx context.Context, fileName, contentType string, size int64, r io.Reader) (*models.UploadResponse, error)
}

type materialService struct {
	lessonRepo repository.LessonRepository
	store      storage.ObjectStore
	httpClient *http.Client
	cfg        MaterialServiceConfig
}

func NewMaterialService(lessonRepo repository.LessonRepository, store storage.ObjectStore, cfg MaterialServiceConfig) MaterialService {
	if cfg.ViewerURLExpiry <= 0 {
		cfg.ViewerURLExpiry = 2 * time.Hour
	}
	if cfg.DefaultSignExpiry <= 0 {
		cfg.DefaultSignExpiry = 24 * time.Hour
	}
	if cfg.StreamSignExpiry <= 0 {
		cfg.StreamSignExpiry = 5 * time.Minute
	}
	if cfg.StreamFetchTimeout <= 0 {
		cfg.StreamFetchTimeout = 30 * time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	cfg.KeyPrefix = strings.TrimSuffix(cfg.KeyPrefix, "/")
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &materialService{
		lessonRepo: lessonRepo,
		store:      store,
		httpClient: &http.Client{Timeout: cfg.StreamFetchTimeout},
		cfg:        cfg,
	}
}

// resolveFileMaterial runs the shared access gate: the lesson must exist,
// be published or requested by a content manager, and the material must
// be a stored file.
func (s *materialService) resolveFileMaterial(ctx context.Context, requester *models.User, lessonID, materialID string) (*models.Lesson, models.Material, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, models.Material{}, err
	}

	if !lesson.Published && (requester == nil || !requester.CanManageContent()) {
		return nil, models.Material{}, models.ErrLessonNotFound
	}

	material, ok := lesson.FindMaterial(materialID)
	if !ok {
		return nil, models.Material{}, models.ErrMaterialNotFound
	}
	if material.Type != models.MaterialTypeFile || material.StorageRef == "" {
		return nil, models.Material{}, models.NewValidationError("material is not a stored file")
	}

	return lesson, material, nil
}

// IssueViewerURL signs a time-limited URL for one material object
func (s *materialService) IssueViewerURL(ctx context.Context, requester *models.User, lessonID, materialID string) (*models.SignedMaterialResponse, error) {
	_, material, err := s.resolveFileMaterial(ctx, requester, lessonID, materialID)
	if err != nil {
		return nil, err
	}

	signedURL, expiresAt, err := s.store.SignedURL(material.StorageRef, s.cfg.ViewerURLExpiry)
	if err != nil {
		return nil, models.NewUpstreamError("failed to sign material url", err)
	}

	return &models.SignedMaterialResponse{
		MaterialID:       material.ID,
		MaterialName:     material.Title,
		FileName:         material.FileName,
		SignedURL:        signedURL,
		ExpiresAt:        expiresAt,
		ExpiresInMinutes: int(s.cfg.ViewerURLExpiry.Minutes()),
	}, nil
}

// StreamMaterial fetches the object through a short-lived internal signed
// URL and hands the body back for piping. The signed URL stays inside the
// backend; the client only ever sees the proxied bytes.
func (s *materialService) StreamMaterial(ctx context.Context, requester *models.User, lessonID, materialID string) (*MaterialStream, error) {
	_, material, err := s.resolveFileMaterial(ctx, requester, lessonID, materialID)
	if err != nil {
		return nil, err
	}

	signedURL, _, err := s.store.SignedURL(material.StorageRef, s.cfg.StreamSignExpiry)
	if err != nil {
		return nil, models.NewUpstreamError("failed to sign material url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Upstream("gcs", "stream", int(time.Since(start).Milliseconds()), err)
		return nil, models.NewUpstreamError("failed to fetch material from storage", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("upstream returned status %d", resp.StatusCode)
		logger.Upstream("gcs", "stream", int(time.Since(start).Milliseconds()), err)
		if resp.StatusCode == http.StatusNotFound {
			return nil, models.ErrMaterialNotFound
		}
		return nil, models.NewUpstreamError("storage returned an unexpected status", err)
	}
	logger.Upstream("gcs", "stream", int(time.Since(start).Milliseconds()), nil)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = pdfContentType
	}

	fileName := material.FileName
	if fileName == "" {
		fileName = material.Title
	}

	return &MaterialStream{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		FileName:      fileName,
	}, nil
}

// ListMaterials annotates every material of a lesson with its access mode.
// Link materials are direct; file materials are reachable only through the
// gateway endpoints, advertised here as URL templates.
func (s *materialService) ListMaterials(ctx context.Context, requester *models.User, lessonID string) (*models.MaterialListResponse, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	if !lesson.Published && (requester == nil || !requester.CanManageContent()) {
		return nil, models.ErrLessonNotFound
	}

	descriptors := make([]models.MaterialDescriptor, 0, len(lesson.Materials))
	for _, m := range lesson.Materials {
		d := models.MaterialDescriptor{Material: m}
		switch {
		case m.Type == models.MaterialTypeLink:
			d.AccessType = models.MaterialAccessDirect
			d.AccessURL = m.URL
		case m.Type == models.MaterialTypeFile && m.StorageRef != "":
			d.AccessType = models.MaterialAccessProtected
			d.AccessURL = fmt.Sprintf("/api/v1/lessons/%s/materials/%s/url", lesson.ID, m.ID)
			d.ViewURL = fmt.Sprintf("/api/v1/lessons/%s/materials/%s/stream", lesson.ID, m.ID)
		default:
			d.AccessType = models.MaterialAccessDirect
		}
		descriptors = append(descriptors, d)
	}

	return &models.MaterialListResponse{
		LessonID:    lesson.ID,
		LessonTitle: lesson.Title,
		Materials:   descriptors,
		TotalCount:  len(descriptors),
	}, nil
}

// ResignURL signs an arbitrary stored reference on demand
func (s *materialService) ResignURL(ctx context.Context, req models.SignURLRequest) (*models.SignURLResponse, error) {
	if req.StorageRef == "" {
		return nil, models.NewValidationError("storageRef is required")
	}

	expiry := s.cfg.DefaultSignExpiry
	if req.ExpiresInHours > 0 {
		expiry = time.Duration(req.ExpiresInHours) * time.Hour
	}

	exists, err := s.store.Exists(ctx, req.StorageRef)
	if err != nil {
		return nil, models.NewUpstreamError("failed to check object", err)
	}
	if !exists {
		return nil, models.ErrMaterialNotFound
	}

	signedURL, expiresAt, err := s.store.SignedURL(req.StorageRef, expiry)
	if err != nil {
		return nil, models.NewUpstreamError("failed to sign url", err)
	}

	return &models.SignURLResponse{SignedURL: signedURL, ExpiresAt: expiresAt}, nil
}

// ProcessUpload validates and stores one PDF, returning its storage
// reference and a fresh signed URL for immediate preview.
func (s *materialService) ProcessUpload(ctx context.Context, fileName, contentType string, size int64, r io.Reader) (*models.UploadResponse, error) {
	if size <= 0 {
		return nil, models.NewValidationError("uploaded file is empty")
	}
	if size > s.cfg.MaxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("file exceeds the %dMB upload limit", s.cfg.MaxUploadBytes>>20))
	}
	if !strings.EqualFold(strings.TrimSpace(contentType), pdfContentType) {
		return nil, models.NewValidationError("only PDF files are accepted")
	}

	key := s.cfg.KeyPrefix + "/" + uuid.New().String() + "_" + utils.NormalizeFilename(fileName) + ".pdf"

	if err := s.store.Upload(ctx, key, pdfContentType, io.LimitReader(r, s.cfg.MaxUploadBytes)); err != nil {
		return nil, models.NewUpstreamError("failed to store file", err)
	}

	signedURL, expiresAt, err := s.store.SignedURL(key, s.cfg.ViewerURLExpiry)
	if err != nil {
		return nil, models.NewUpstreamError("failed to sign uploaded file url", err)
	}

	return &models.UploadResponse{
		StorageRef: key,
		FileName:   fileName,
		FileSize:   size,
		FileType:   pdfContentType,
		SignedURL:  signedURL,
		ExpiresAt:  expiresAt,
	}, nil
}
