package facepipe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("resource belongs to another user")
	ErrConflict  = errors.New("conflict")
)

// Store is the persistence surface the pipeline needs. Implemented by
// *storage.PostgresStore; mocked in tests.
type Store interface {
	UpsertCollection(ctx context.Context, c *models.Collection) error
	GetCollectionByUser(ctx context.Context, userID uuid.UUID) (*models.Collection, error)
	TouchCollection(ctx context.Context, userID uuid.UUID, addedFaces int, indexedAt time.Time) error

	CreateFace(ctx context.Context, f *models.Face) error
	GetFace(ctx context.Context, id uuid.UUID) (*models.Face, error)
	ListFacesByPhoto(ctx context.Context, userID, photoID uuid.UUID) ([]models.Face, error)
	FacesByProviderIDs(ctx context.Context, userID uuid.UUID, providerIDs []string) (map[string]models.Face, error)
	UpdateFaceFlags(ctx context.Context, faceID uuid.UUID, needsAssignment, autoAssigned, skipped bool) error
	ListUnassignedFaces(ctx context.Context, userID uuid.UUID) ([]models.UnassignedFace, error)

	CreatePerson(ctx context.Context, p *models.Person) error
	GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error)
	SoftDeletePerson(ctx context.Context, id uuid.UUID) error
	SetPersonAvatar(ctx context.Context, personID, faceID uuid.UUID) error

	ActiveLink(ctx context.Context, faceID uuid.UUID) (*models.FaceLink, error)
	CreateLink(ctx context.Context, l *models.FaceLink) error
	SoftDeleteLink(ctx context.Context, faceID uuid.UUID) error

	UpdatePhotoFaceSummary(ctx context.Context, photoID uuid.UUID, detected, autoAssigned, needingInput int, indexedAt time.Time) error
}

// IndexStatus tags the outcome of an indexing request so callers can
// switch on it exhaustively instead of probing booleans.
type IndexStatus string

const (
	StatusProcessed        IndexStatus = "processed"
	StatusAlreadyProcessed IndexStatus = "already_processed"
	StatusSkipped          IndexStatus = "skipped"
)

// CollectionResult reports the state of a user's collection after
// EnsureCollection.
type CollectionResult struct {
	CollectionID   string
	ResourceARN    string
	FaceCount      int
	AlreadyExisted bool
}

// Suggestion is one candidate identity for a face awaiting user
// confirmation. Similarity is a percentage, 0–100.
type Suggestion struct {
	Person         models.Person
	Similarity     float64
	ProviderFaceID string
}

// AutoAssignment records a face the pipeline linked to a person
// without user involvement.
type AutoAssignment struct {
	Face       models.Face
	Person     models.Person
	Similarity float64
}

// PendingFace is a persisted face that needs a user decision, with up
// to MaxSuggestions ranked candidates (highest similarity first).
type PendingFace struct {
	Face        models.Face
	Suggestions []Suggestion
}

// IndexResult is the outcome of running the pipeline over one photo.
type IndexResult struct {
	Status         IndexStatus
	FacesDetected  int
	AutoAssigned   []AutoAssignment
	NeedsUserInput []PendingFace
	// Failed counts faces that errored mid-batch and were skipped so
	// the rest of the photo could continue.
	Failed int
}
