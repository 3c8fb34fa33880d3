package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/auth"
	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/storage"
	"github.com/your-org/memorybook/pkg/dto"
)

type PersonHandler struct {
	db *storage.PostgresStore
}

func NewPersonHandler(db *storage.PostgresStore) *PersonHandler {
	return &PersonHandler{db: db}
}

func (h *PersonHandler) Create(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person := &models.Person{
		UserID:       auth.UserID(c),
		Name:         req.Name,
		DisplayName:  req.DisplayName,
		Relationship: req.Relationship,
		IsPrimary:    req.IsPrimary,
	}
	if err := h.db.CreatePerson(c.Request.Context(), person); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPersonResponse(*person, 0))
}

func (h *PersonHandler) List(c *gin.Context) {
	userID := auth.UserID(c)

	persons, err := h.db.ListPersons(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PersonResponse, 0, len(persons))
	for _, p := range persons {
		faceCount, _ := h.db.CountPersonFaces(c.Request.Context(), p.ID)
		resp = append(resp, toPersonResponse(p, faceCount))
	}
	c.JSON(http.StatusOK, gin.H{"persons": resp, "total": len(resp)})
}

func (h *PersonHandler) Get(c *gin.Context) {
	person, ok := h.ownedPerson(c)
	if !ok {
		return
	}

	faceCount, _ := h.db.CountPersonFaces(c.Request.Context(), person.ID)
	c.JSON(http.StatusOK, toPersonResponse(*person, faceCount))
}

// Delete soft-deletes the person; links cascade and the affected faces
// go back to the unassigned pool.
func (h *PersonHandler) Delete(c *gin.Context) {
	person, ok := h.ownedPerson(c)
	if !ok {
		return
	}

	if err := h.db.SoftDeletePerson(c.Request.Context(), person.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *PersonHandler) ownedPerson(c *gin.Context) (*models.Person, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return nil, false
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return nil, false
	}
	if person.UserID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "person belongs to another user"})
		return nil, false
	}
	return person, true
}
