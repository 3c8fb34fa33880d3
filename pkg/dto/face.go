package dto

import (
	"github.com/google/uuid"
)

type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type FaceResponse struct {
	ID              uuid.UUID   `json:"id"`
	PhotoID         uuid.UUID   `json:"photo_id"`
	Box             BoundingBox `json:"box"`
	Confidence      float64     `json:"confidence"`
	NeedsAssignment bool        `json:"needs_assignment"`
	AutoAssigned    bool        `json:"auto_assigned"`
	Skipped         bool        `json:"skipped"`
	CreatedAt       string      `json:"created_at"`
}

type AssignFaceRequest struct {
	PersonID   uuid.UUID `json:"person_id" binding:"required"`
	Confidence *float64  `json:"confidence,omitempty"`
	AssignedBy string    `json:"assigned_by,omitempty"`
}

type CreatePersonFromFaceRequest struct {
	Name         string `json:"name" binding:"required"`
	DisplayName  string `json:"display_name"`
	Relationship string `json:"relationship"`
}

type UnassignedFaceResponse struct {
	Face          FaceResponse `json:"face"`
	PhotoKey      string       `json:"photo_key"`
	PhotoTitle    string       `json:"photo_title"`
	PhotoUploaded string       `json:"photo_uploaded"`
}
