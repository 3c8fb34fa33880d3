package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/memorybook/internal/facepipe"
	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/storage"
	"github.com/your-org/memorybook/internal/vision"
	"github.com/your-org/memorybook/pkg/dto"
)

// respondError is the single place pipeline and storage errors become
// HTTP responses. Provider and datastore messages are attached, not
// swallowed.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, facepipe.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, facepipe.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, facepipe.ErrConflict), errors.Is(err, storage.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, vision.ErrBadImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func toFaceResponse(f models.Face) dto.FaceResponse {
	return dto.FaceResponse{
		ID:      f.ID,
		PhotoID: f.PhotoID,
		Box: dto.BoundingBox{
			Left:   f.Box.Left,
			Top:    f.Box.Top,
			Width:  f.Box.Width,
			Height: f.Box.Height,
		},
		Confidence:      f.Confidence,
		NeedsAssignment: f.NeedsAssignment,
		AutoAssigned:    f.AutoAssigned,
		Skipped:         f.Skipped,
		CreatedAt:       f.CreatedAt.Format(time.RFC3339),
	}
}

func toPersonResponse(p models.Person, faceCount int) dto.PersonResponse {
	return dto.PersonResponse{
		ID:           p.ID,
		Name:         p.Name,
		DisplayName:  p.DisplayName,
		Relationship: p.Relationship,
		IsPrimary:    p.IsPrimary,
		AvatarFaceID: p.AvatarFaceID,
		FaceCount:    faceCount,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func toPhotoResponse(p models.Photo) dto.PhotoResponse {
	resp := dto.PhotoResponse{
		ID:                p.ID,
		StorageKey:        p.StorageKey,
		Title:             p.Title,
		Caption:           p.Caption,
		FacesDetected:     p.FacesDetected,
		FacesAutoAssigned: p.FacesAutoAssigned,
		FacesNeedingInput: p.FacesNeedingInput,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
	if p.FacesIndexedAt != nil {
		resp.FacesIndexedAt = p.FacesIndexedAt.Format(time.RFC3339)
	}
	return resp
}

func toIndexFacesResponse(res *facepipe.IndexResult) dto.IndexFacesResponse {
	resp := dto.IndexFacesResponse{
		Status:         string(res.Status),
		FacesDetected:  res.FacesDetected,
		AutoAssigned:   make([]dto.AutoAssignedFace, 0, len(res.AutoAssigned)),
		NeedsUserInput: make([]dto.PendingFace, 0, len(res.NeedsUserInput)),
		Failed:         res.Failed,
	}
	for _, a := range res.AutoAssigned {
		resp.AutoAssigned = append(resp.AutoAssigned, dto.AutoAssignedFace{
			Face:       toFaceResponse(a.Face),
			Person:     toPersonResponse(a.Person, 0),
			Similarity: a.Similarity,
		})
	}
	for _, p := range res.NeedsUserInput {
		pending := dto.PendingFace{
			Face:        toFaceResponse(p.Face),
			Suggestions: make([]dto.Suggestion, 0, len(p.Suggestions)),
		}
		for _, s := range p.Suggestions {
			pending.Suggestions = append(pending.Suggestions, dto.Suggestion{
				Person:         toPersonResponse(s.Person, 0),
				Similarity:     s.Similarity,
				ProviderFaceID: s.ProviderFaceID,
			})
		}
		resp.NeedsUserInput = append(resp.NeedsUserInput, pending)
	}
	return resp
}
