package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/memorybook/internal/auth"
	"github.com/your-org/memorybook/internal/facepipe"
	"github.com/your-org/memorybook/internal/storage"
	"github.com/your-org/memorybook/pkg/dto"
)

type CollectionHandler struct {
	db       *storage.PostgresStore
	pipeline *facepipe.Pipeline
}

func NewCollectionHandler(db *storage.PostgresStore, pipeline *facepipe.Pipeline) *CollectionHandler {
	return &CollectionHandler{db: db, pipeline: pipeline}
}

// Get ensures the caller's collection exists and returns its mirror
// state. Safe to call repeatedly; creation only happens once.
func (h *CollectionHandler) Get(c *gin.Context) {
	userID := auth.UserID(c)

	res, err := h.pipeline.EnsureCollection(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.CollectionResponse{
		CollectionID:   res.CollectionID,
		FaceCount:      res.FaceCount,
		AlreadyExisted: res.AlreadyExisted,
	}
	if mirror, err := h.db.GetCollectionByUser(c.Request.Context(), userID); err == nil && mirror != nil && mirror.LastIndexedAt != nil {
		resp.LastIndexedAt = mirror.LastIndexedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
