package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a user-defined named identity ("Grandma", "Me") that faces
// can be linked to. Name is unique per user among active persons.
type Person struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Name         string     `json:"name" db:"name"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	Relationship string     `json:"relationship,omitempty" db:"relationship"`
	IsPrimary    bool       `json:"is_primary" db:"is_primary"`
	AvatarFaceID *uuid.UUID `json:"avatar_face_id,omitempty" db:"avatar_face_id"`
	State        Lifecycle  `json:"state" db:"state"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
