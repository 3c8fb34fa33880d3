package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is an uploaded asset. The face counters are a denormalized
// summary written after indexing; the pipeline itself never reads them.
type Photo struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	UserID            uuid.UUID  `json:"user_id" db:"user_id"`
	StorageKey        string     `json:"storage_key" db:"storage_key"`
	Title             string     `json:"title" db:"title"`
	ContentType       string     `json:"content_type" db:"content_type"`
	Caption           string     `json:"caption,omitempty" db:"caption"`
	FacesDetected     int        `json:"faces_detected" db:"faces_detected"`
	FacesAutoAssigned int        `json:"faces_auto_assigned" db:"faces_auto_assigned"`
	FacesNeedingInput int        `json:"faces_needing_input" db:"faces_needing_input"`
	FacesIndexedAt    *time.Time `json:"faces_indexed_at,omitempty" db:"faces_indexed_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}
