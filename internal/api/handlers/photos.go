package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/auth"
	"github.com/your-org/memorybook/internal/captions"
	"github.com/your-org/memorybook/internal/facepipe"
	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/queue"
	"github.com/your-org/memorybook/internal/storage"
	"github.com/your-org/memorybook/pkg/dto"
)

type PhotoHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	pipeline *facepipe.Pipeline
	captions *captions.Generator
	producer *queue.Producer
}

func NewPhotoHandler(db *storage.PostgresStore, minio *storage.MinIOStore, pipeline *facepipe.Pipeline, gen *captions.Generator, producer *queue.Producer) *PhotoHandler {
	return &PhotoHandler{db: db, minio: minio, pipeline: pipeline, captions: gen, producer: producer}
}

// Upload accepts a multipart image, stores the bytes, and creates the
// photo record. Face processing is a separate call.
func (h *PhotoHandler) Upload(c *gin.Context) {
	userID := auth.UserID(c)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	key := "photos/" + userID.String() + "/" + uuid.New().String() + filepath.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.minio.PutObject(c.Request.Context(), key, imageData, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}

	photo := &models.Photo{
		UserID:      userID,
		StorageKey:  key,
		Title:       c.PostForm("title"),
		ContentType: contentType,
	}
	if err := h.db.CreatePhoto(c.Request.Context(), photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toPhotoResponse(*photo))
}

func (h *PhotoHandler) Get(c *gin.Context) {
	photo, ok := h.ownedPhoto(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPhotoResponse(*photo))
}

func (h *PhotoHandler) List(c *gin.Context) {
	userID := auth.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	photos, err := h.db.ListPhotosByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		resp = append(resp, toPhotoResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"photos": resp, "total": len(resp)})
}

// IndexFaces runs the face pipeline over a stored photo.
func (h *PhotoHandler) IndexFaces(c *gin.Context) {
	userID := auth.UserID(c)

	photo, ok := h.ownedPhoto(c)
	if !ok {
		return
	}

	var req dto.IndexFacesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.SkipFaces {
		c.JSON(http.StatusOK, dto.IndexFacesResponse{
			Status:         string(facepipe.StatusSkipped),
			AutoAssigned:   []dto.AutoAssignedFace{},
			NeedsUserInput: []dto.PendingFace{},
		})
		return
	}

	imageData, err := h.minio.GetObject(c.Request.Context(), photo.StorageKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo bytes unavailable: " + err.Error()})
		return
	}

	result, err := h.pipeline.IndexPhoto(c.Request.Context(), userID, photo.ID, imageData)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Status == facepipe.StatusProcessed {
		event := dto.PhotoIndexedEvent{
			UserID:         userID,
			PhotoID:        photo.ID,
			FacesDetected:  result.FacesDetected,
			AutoAssigned:   len(result.AutoAssigned),
			NeedsUserInput: len(result.NeedsUserInput),
			IndexedAt:      time.Now().Format(time.RFC3339),
		}
		if err := h.producer.PublishEvent(c.Request.Context(), "photo_indexed", userID.String(), event); err != nil {
			slog.Warn("publish photo_indexed event", "photo_id", photo.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, toIndexFacesResponse(result))
}

// Caption generates and stores a narrative caption for the photo.
func (h *PhotoHandler) Caption(c *gin.Context) {
	if h.captions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "caption generation not configured"})
		return
	}

	photo, ok := h.ownedPhoto(c)
	if !ok {
		return
	}

	imageData, err := h.minio.GetObject(c.Request.Context(), photo.StorageKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo bytes unavailable: " + err.Error()})
		return
	}

	caption, err := h.captions.Generate(c.Request.Context(), imageData, photo.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.SetPhotoCaption(c.Request.Context(), photo.ID, caption); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CaptionResponse{PhotoID: photo.ID, Caption: caption})
}

// ownedPhoto loads the :id photo and verifies ownership, writing the
// error response itself when the photo is unavailable.
func (h *PhotoHandler) ownedPhoto(c *gin.Context) (*models.Photo, bool) {
	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo id"})
		return nil, false
	}

	photo, err := h.db.GetPhoto(c.Request.Context(), photoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if photo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return nil, false
	}
	if photo.UserID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "photo belongs to another user"})
		return nil, false
	}
	return photo, true
}
