package facepipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/storage"
)

// ownedFace loads a face and checks it belongs to the caller.
func (p *Pipeline) ownedFace(ctx context.Context, userID, faceID uuid.UUID) (*models.Face, error) {
	face, err := p.store.GetFace(ctx, faceID)
	if err != nil {
		return nil, err
	}
	if face == nil {
		return nil, fmt.Errorf("face %s: %w", faceID, ErrNotFound)
	}
	if face.UserID != userID {
		return nil, fmt.Errorf("face %s: %w", faceID, ErrForbidden)
	}
	return face, nil
}

// Assign links a face to a person on the user's behalf, replacing any
// prior assignment. An identical active assignment is a conflict.
func (p *Pipeline) Assign(ctx context.Context, userID, faceID, personID uuid.UUID, confidence float64, assignedBy models.AssignedBy) (*models.FaceLink, error) {
	face, err := p.ownedFace(ctx, userID, faceID)
	if err != nil {
		return nil, err
	}

	person, err := p.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", personID, ErrNotFound)
	}
	if person.UserID != userID {
		return nil, fmt.Errorf("person %s: %w", personID, ErrForbidden)
	}

	existing, err := p.store.ActiveLink(ctx, faceID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.PersonID == personID {
		return nil, fmt.Errorf("face already assigned to person: %w", ErrConflict)
	}

	if assignedBy == "" {
		assignedBy = models.AssignedByUser
	}
	link := &models.FaceLink{
		FaceID:     faceID,
		PersonID:   personID,
		Confidence: confidence,
		AssignedBy: assignedBy,
	}
	if err := p.store.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	if err := p.store.UpdateFaceFlags(ctx, faceID, false, false, face.Skipped); err != nil {
		return nil, err
	}
	return link, nil
}

// Unassign retires the face's active link and returns the face to the
// needs-assignment pool.
func (p *Pipeline) Unassign(ctx context.Context, userID, faceID uuid.UUID) error {
	face, err := p.ownedFace(ctx, userID, faceID)
	if err != nil {
		return err
	}

	if err := p.store.SoftDeleteLink(ctx, faceID); err != nil {
		return err
	}
	// A skipped face stays out of the pool: skipped implies
	// needs_assignment stays false.
	return p.store.UpdateFaceFlags(ctx, faceID, !face.Skipped, false, face.Skipped)
}

// Skip marks the face as permanently ignored. Any existing link is
// left untouched.
func (p *Pipeline) Skip(ctx context.Context, userID, faceID uuid.UUID) error {
	face, err := p.ownedFace(ctx, userID, faceID)
	if err != nil {
		return err
	}
	return p.store.UpdateFaceFlags(ctx, faceID, false, face.AutoAssigned, true)
}

// CreatePersonFromFace atomically creates a person and links the face
// to it. If the link cannot be created, the just-created person is
// soft-deleted so no empty person is left behind.
func (p *Pipeline) CreatePersonFromFace(ctx context.Context, userID, faceID uuid.UUID, name, displayName, relationship string) (*models.Person, error) {
	face, err := p.ownedFace(ctx, userID, faceID)
	if err != nil {
		return nil, err
	}

	person := &models.Person{
		UserID:       userID,
		Name:         name,
		DisplayName:  displayName,
		Relationship: relationship,
	}
	if err := p.store.CreatePerson(ctx, person); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrConflict)
		}
		return nil, err
	}

	link := &models.FaceLink{
		FaceID:     faceID,
		PersonID:   person.ID,
		Confidence: 1,
		AssignedBy: models.AssignedByUser,
	}
	if err := p.store.CreateLink(ctx, link); err != nil {
		if delErr := p.store.SoftDeletePerson(ctx, person.ID); delErr != nil {
			slog.Error("roll back person after link failure", "person_id", person.ID, "error", delErr)
		}
		return nil, err
	}

	if err := p.store.SetPersonAvatar(ctx, person.ID, faceID); err != nil {
		slog.Warn("set person avatar", "person_id", person.ID, "error", err)
	}
	if err := p.store.UpdateFaceFlags(ctx, faceID, false, false, face.Skipped); err != nil {
		return nil, err
	}
	return person, nil
}

// ListUnassigned returns the user's faces awaiting a decision, newest
// first, with photo display metadata attached.
func (p *Pipeline) ListUnassigned(ctx context.Context, userID uuid.UUID) ([]models.UnassignedFace, error) {
	return p.store.ListUnassignedFaces(ctx, userID)
}
