package dto

import (
	"github.com/google/uuid"
)

// WSEvent is the envelope broadcast to WebSocket clients. Clients only
// receive events for their own user id.
type WSEvent struct {
	Type   string      `json:"type"`
	UserID uuid.UUID   `json:"user_id"`
	Data   interface{} `json:"data"`
}

// PhotoIndexedEvent is published after a photo finishes the face
// pipeline, for UI refresh and downstream book rendering.
type PhotoIndexedEvent struct {
	UserID         uuid.UUID `json:"user_id"`
	PhotoID        uuid.UUID `json:"photo_id"`
	FacesDetected  int       `json:"faces_detected"`
	AutoAssigned   int       `json:"auto_assigned"`
	NeedsUserInput int       `json:"needs_user_input"`
	IndexedAt      string    `json:"indexed_at"`
}
