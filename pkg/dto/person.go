package dto

import (
	"github.com/google/uuid"
)

type CreatePersonRequest struct {
	Name         string `json:"name" binding:"required"`
	DisplayName  string `json:"display_name"`
	Relationship string `json:"relationship"`
	IsPrimary    bool   `json:"is_primary"`
}

type PersonResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	DisplayName  string     `json:"display_name"`
	Relationship string     `json:"relationship,omitempty"`
	IsPrimary    bool       `json:"is_primary"`
	AvatarFaceID *uuid.UUID `json:"avatar_face_id,omitempty"`
	FaceCount    int        `json:"face_count"`
	CreatedAt    string     `json:"created_at"`
}
