package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/auth"
	"github.com/your-org/memorybook/internal/facepipe"
	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/pkg/dto"
)

type FaceHandler struct {
	pipeline *facepipe.Pipeline
}

func NewFaceHandler(pipeline *facepipe.Pipeline) *FaceHandler {
	return &FaceHandler{pipeline: pipeline}
}

func faceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return uuid.Nil, false
	}
	return id, true
}

// Assign links a face to an existing person on the user's behalf.
func (h *FaceHandler) Assign(c *gin.Context) {
	id, ok := faceID(c)
	if !ok {
		return
	}

	var req dto.AssignFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	assignedBy := models.AssignedBy(req.AssignedBy)
	switch assignedBy {
	case models.AssignedByUser, models.AssignedByAI, models.AssignedBySystem:
	default:
		assignedBy = models.AssignedByUser
	}

	link, err := h.pipeline.Assign(c.Request.Context(), auth.UserID(c), id, req.PersonID, confidence, assignedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"face_id":     link.FaceID,
		"person_id":   link.PersonID,
		"confidence":  link.Confidence,
		"assigned_by": link.AssignedBy,
		"assigned_at": link.AssignedAt.Format(time.RFC3339),
	})
}

func (h *FaceHandler) Unassign(c *gin.Context) {
	id, ok := faceID(c)
	if !ok {
		return
	}

	if err := h.pipeline.Unassign(c.Request.Context(), auth.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unassigned"})
}

func (h *FaceHandler) Skip(c *gin.Context) {
	id, ok := faceID(c)
	if !ok {
		return
	}

	if err := h.pipeline.Skip(c.Request.Context(), auth.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "skipped"})
}

// CreatePerson creates a new person from a face and links them in one
// operation.
func (h *FaceHandler) CreatePerson(c *gin.Context) {
	id, ok := faceID(c)
	if !ok {
		return
	}

	var req dto.CreatePersonFromFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := h.pipeline.CreatePersonFromFace(c.Request.Context(), auth.UserID(c), id,
		req.Name, req.DisplayName, req.Relationship)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPersonResponse(*person, 1))
}

// ListUnassigned returns the user's faces awaiting a decision, newest
// first.
func (h *FaceHandler) ListUnassigned(c *gin.Context) {
	faces, err := h.pipeline.ListUnassigned(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.UnassignedFaceResponse, 0, len(faces))
	for _, uf := range faces {
		resp = append(resp, dto.UnassignedFaceResponse{
			Face:          toFaceResponse(uf.Face),
			PhotoKey:      uf.PhotoKey,
			PhotoTitle:    uf.PhotoTitle,
			PhotoUploaded: uf.PhotoUploaded.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"faces": resp, "total": len(resp)})
}
