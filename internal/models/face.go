package models

import (
	"time"

	"github.com/google/uuid"
)

// BoundingBox locates a face within its photo as fractions of the image
// dimensions (0–1).
type BoundingBox struct {
	Left   float64 `json:"left" db:"box_left"`
	Top    float64 `json:"top" db:"box_top"`
	Width  float64 `json:"width" db:"box_width"`
	Height float64 `json:"height" db:"box_height"`
}

// Face is one detected face region in one photo. ProviderFaceID is the
// vision provider's identifier for the indexed face and is what match
// searches key on.
type Face struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	PhotoID         uuid.UUID   `json:"photo_id" db:"photo_id"`
	ProviderFaceID  string      `json:"provider_face_id" db:"provider_face_id"`
	Box             BoundingBox `json:"box"`
	Confidence      float64     `json:"confidence" db:"confidence"`
	NeedsAssignment bool        `json:"needs_assignment" db:"needs_assignment"`
	AutoAssigned    bool        `json:"auto_assigned" db:"auto_assigned"`
	Skipped         bool        `json:"skipped" db:"skipped"`
	State           Lifecycle   `json:"state" db:"state"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// AssignedBy records which actor created a face-to-person link.
type AssignedBy string

const (
	AssignedBySystem AssignedBy = "system"
	AssignedByUser   AssignedBy = "user"
	AssignedByAI     AssignedBy = "ai"
)

// FaceLink associates a Face with a Person. At most one active link may
// exist per face; creating a new one retires the previous link.
type FaceLink struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	FaceID     uuid.UUID  `json:"face_id" db:"face_id"`
	PersonID   uuid.UUID  `json:"person_id" db:"person_id"`
	Confidence float64    `json:"confidence" db:"confidence"`
	AssignedBy AssignedBy `json:"assigned_by" db:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at" db:"assigned_at"`
	State      Lifecycle  `json:"state" db:"state"`
}

// UnassignedFace is a Face awaiting a user decision, joined with its
// photo's display metadata for listing.
type UnassignedFace struct {
	Face          Face      `json:"face"`
	PhotoKey      string    `json:"photo_key"`
	PhotoTitle    string    `json:"photo_title"`
	PhotoUploaded time.Time `json:"photo_uploaded"`
}
