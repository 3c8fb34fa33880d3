package vision

import (
	"context"
	"errors"

	"github.com/your-org/memorybook/internal/models"
)

var (
	// ErrCollectionNotFound signals the provider has no collection with
	// the given id. Callers create the collection lazily on this error.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrBadImage signals the provider rejected the image bytes as
	// malformed or oversized. A client error, not an outage.
	ErrBadImage = errors.New("invalid image")
)

// CollectionInfo describes a provider-side face collection.
type CollectionInfo struct {
	ARN       string
	FaceCount int
}

// DetectedFace is one face the provider indexed from a photo.
// Confidence is the provider's detection confidence, 0–100.
type DetectedFace struct {
	ProviderFaceID string
	Box            models.BoundingBox
	Confidence     float64
}

// FaceMatch is a similarity hit from a face search. Similarity is a
// percentage, 0–100, and results arrive highest first.
type FaceMatch struct {
	ProviderFaceID string
	Similarity     float64
}

// Provider is the hosted face-recognition service the pipeline calls
// out to. Implementations must keep one collection per user; the
// pipeline never searches across collections.
type Provider interface {
	// DescribeCollection returns metadata for an existing collection,
	// or ErrCollectionNotFound.
	DescribeCollection(ctx context.Context, collectionID string) (*CollectionInfo, error)

	// CreateCollection creates a new, empty collection.
	CreateCollection(ctx context.Context, collectionID string) (*CollectionInfo, error)

	// IndexFaces detects faces in the image and adds them to the
	// collection, tagged with externalID. At most maxFaces are indexed,
	// largest first, with provider-side quality filtering applied.
	IndexFaces(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]DetectedFace, error)

	// SearchFaces returns previously indexed faces similar to faceID,
	// at or above minSimilarity (percent). A face with no peers in the
	// collection yields an empty result, not an error.
	SearchFaces(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]FaceMatch, error)
}
