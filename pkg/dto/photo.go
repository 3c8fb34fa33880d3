package dto

import (
	"github.com/google/uuid"
)

type PhotoResponse struct {
	ID                uuid.UUID `json:"id"`
	StorageKey        string    `json:"storage_key"`
	Title             string    `json:"title"`
	Caption           string    `json:"caption,omitempty"`
	FacesDetected     int       `json:"faces_detected"`
	FacesAutoAssigned int       `json:"faces_auto_assigned"`
	FacesNeedingInput int       `json:"faces_needing_input"`
	FacesIndexedAt    string    `json:"faces_indexed_at,omitempty"`
	CreatedAt         string    `json:"created_at"`
}

type IndexFacesRequest struct {
	// SkipFaces lets the caller decline face processing for this photo
	// entirely.
	SkipFaces bool `json:"skip_faces"`
}

type IndexFacesResponse struct {
	Status         string             `json:"status"`
	FacesDetected  int                `json:"faces_detected"`
	AutoAssigned   []AutoAssignedFace `json:"auto_assigned"`
	NeedsUserInput []PendingFace      `json:"needs_user_input"`
	Failed         int                `json:"failed,omitempty"`
}

type AutoAssignedFace struct {
	Face       FaceResponse   `json:"face"`
	Person     PersonResponse `json:"person"`
	Similarity float64        `json:"similarity"`
}

type PendingFace struct {
	Face        FaceResponse `json:"face"`
	Suggestions []Suggestion `json:"suggestions"`
}

type Suggestion struct {
	Person         PersonResponse `json:"person"`
	Similarity     float64        `json:"similarity"`
	ProviderFaceID string         `json:"face_id"`
}

type CaptionResponse struct {
	PhotoID uuid.UUID `json:"photo_id"`
	Caption string    `json:"caption"`
}
