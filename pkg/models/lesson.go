package models

import (
	"time"
)

// MaterialType discriminates support material entries
type MaterialType string

const (
	MaterialTypeLink MaterialType = "link"
	MaterialTypeFile MaterialType = "file"
)

// Material is one entry of a lesson's support_materials list.
// For type "file" the StorageRef is the private object key and is never
// serialized to API clients; access goes through the material gateway.
type Material struct {
	ID         string       `json:"id"`
	Type       MaterialType `json:"type"`
	Title      string       `json:"title,omitempty"`
	URL        string       `json:"url,omitempty"` // type=link only
	FileName   string       `json:"fileName,omitempty"`
	FileSize   int64        `json:"fileSize,omitempty"`
	FileType   string       `json:"fileType,omitempty"`
	StorageRef string       `json:"-"` // type=file only, internal
}

// StoredMaterial is the persisted shape of a material, including the storage
// reference. Only the repository layer marshals this form.
type StoredMaterial struct {
	ID         string       `json:"id"`
	Type       MaterialType `json:"type"`
	Title      string       `json:"title,omitempty"`
	URL        string       `json:"url,omitempty"`
	FileName   string       `json:"fileName,omitempty"`
	FileSize   int64        `json:"fileSize,omitempty"`
	FileType   string       `json:"fileType,omitempty"`
	StorageRef string       `json:"storageRef,omitempty"`
}

// ToStored converts to the persisted shape (storage ref included)
func (m Material) ToStored() StoredMaterial {
	return StoredMaterial(m)
}

// MaterialFromStored converts the persisted shape back to the API model
func MaterialFromStored(s StoredMaterial) Material {
	return Material(s)
}

// Lesson represents a video lesson
type Lesson struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	VideoURL        string     `json:"video_url" db:"video_url"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`
	Category        string     `json:"category" db:"category"`
	TopicTags       []string   `json:"topic_tags" db:"topic_tags"`
	KeyPoints       []string   `json:"key_points" db:"key_points"`
	ScheduledDate   *time.Time `json:"scheduled_date,omitempty" db:"scheduled_date"`
	Published       bool       `json:"published" db:"published"`
	Materials       []Material `json:"support_materials" db:"support_materials"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// FindMaterial returns the material with the given id, if present
func (l *Lesson) FindMaterial(materialID string) (Material, bool) {
	for _, m := range l.Materials {
		if m.ID == materialID {
			return m, true
		}
	}
	return Material{}, false
}

// CreateLessonRequest represents a request to create a new lesson.
// Materials arrive in the stored shape so the storageRef returned by the
// upload endpoint can be attached; responses redact it again through the
// Material json tags.
type CreateLessonRequest struct {
	Title           string           `json:"title" validate:"required"`
	Description     string           `json:"description"`
	VideoURL        string           `json:"video_url"`
	DurationSeconds int              `json:"duration_seconds"`
	Category        string           `json:"category"`
	TopicTags       []string         `json:"topic_tags"`
	KeyPoints       []string         `json:"key_points"`
	ScheduledDate   *time.Time       `json:"scheduled_date"`
	Published       bool             `json:"published"`
	Materials       []StoredMaterial `json:"support_materials"`
}

// UpdateLessonRequest represents a partial lesson update
type UpdateLessonRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	VideoURL        *string          `json:"video_url"`
	DurationSeconds *int             `json:"duration_seconds"`
	Category        *string          `json:"category"`
	TopicTags       []string         `json:"topic_tags"`
	KeyPoints       []string         `json:"key_points"`
	ScheduledDate   *time.Time       `json:"scheduled_date"`
	Published       *bool            `json:"published"`
	Materials       []StoredMaterial `json:"support_materials"`
}

// LessonListResponse represents paginated lesson results
type LessonListResponse struct {
	Data []Lesson `json:"data"`
	PaginationMeta
}

// MaterialAccessType tells the client how a material is reached
type MaterialAccessType string

const (
	MaterialAccessDirect    MaterialAccessType = "direct"    // plain link, use URL as-is
	MaterialAccessProtected MaterialAccessType = "protected" // signed URL / stream proxy
)

// MaterialDescriptor is a material annotated with access information.
// Raw storage references are stripped before it leaves the backend.
type MaterialDescriptor struct {
	Material
	AccessType MaterialAccessType `json:"accessType"`
	AccessURL  string             `json:"accessUrl,omitempty"`
	ViewURL    string             `json:"viewUrl,omitempty"`
}

// MaterialListResponse is the material listing for one lesson
type MaterialListResponse struct {
	LessonID    string               `json:"lessonId"`
	LessonTitle string               `json:"lessonTitle"`
	Materials   []MaterialDescriptor `json:"materials"`
	TotalCount  int                  `json:"totalCount"`
}

// SignedMaterialResponse is the viewer-URL issue response
type SignedMaterialResponse struct {
	MaterialID       string    `json:"materialId"`
	MaterialName     string    `json:"materialName"`
	FileName         string    `json:"fileName"`
	SignedURL        string    `json:"signedUrl"`
	ExpiresAt        time.Time `json:"expiresAt"`
	ExpiresInMinutes int       `json:"expiresInMinutes"`
}

// SignURLRequest re-signs an arbitrary stored object reference
type SignURLRequest struct {
	StorageRef     string `json:"storageRef" validate:"required"`
	ExpiresInHours int    `json:"expiresInHours"`
}

// SignURLResponse carries a freshly signed URL
type SignURLResponse struct {
	SignedURL string    `json:"signedUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadResponse is returned by the material upload endpoint
type UploadResponse struct {
	StorageRef string    `json:"storageRef"`
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	FileType   string    `json:"fileType"`
	SignedURL  string    `json:"signedUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
