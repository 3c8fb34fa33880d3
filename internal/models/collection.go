package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection mirrors the vision provider's per-user face namespace.
// The provider is the source of truth; this row is a cache keyed
// uniquely by user.
type Collection struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	ProviderID    string     `json:"provider_id" db:"provider_id"`
	ResourceARN   string     `json:"resource_arn" db:"resource_arn"`
	FaceCount     int        `json:"face_count" db:"face_count"`
	LastIndexedAt *time.Time `json:"last_indexed_at,omitempty" db:"last_indexed_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
