package facepipe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/storage"
)

func newTestPipeline(store *mockStore) *Pipeline {
	return New(&mockProvider{}, store, testVisionConfig())
}

func TestAssignReplacesPriorLink(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")
	oldPerson := store.addPerson(userID, "Old")
	newPerson := store.addPerson(userID, "New")
	store.linkFace(face.ID, oldPerson.ID)

	link, err := p.Assign(context.Background(), userID, face.ID, newPerson.ID, 1, models.AssignedByUser)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if link.PersonID != newPerson.ID {
		t.Error("link points at wrong person")
	}

	// One active link per face: the stored link must now be the new one.
	active := store.links[face.ID]
	if active == nil || active.PersonID != newPerson.ID {
		t.Error("prior link not replaced")
	}
	if store.faces[face.ID].NeedsAssignment {
		t.Error("assigned face must leave the needs-assignment pool")
	}
}

func TestAssignIdenticalIsConflict(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")
	person := store.addPerson(userID, "Same")
	store.linkFace(face.ID, person.ID)

	_, err := p.Assign(context.Background(), userID, face.ID, person.ID, 1, models.AssignedByUser)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestAssignOwnershipChecks(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()
	stranger := uuid.New()

	theirFace := store.addFace(stranger, "pf-theirs")
	myPerson := store.addPerson(userID, "Mine")
	myFace := store.addFace(userID, "pf-mine")
	theirPerson := store.addPerson(stranger, "Theirs")

	tests := []struct {
		name     string
		faceID   uuid.UUID
		personID uuid.UUID
		want     error
	}{
		{"face not found", uuid.New(), myPerson.ID, ErrNotFound},
		{"face of another user", theirFace.ID, myPerson.ID, ErrForbidden},
		{"person not found", myFace.ID, uuid.New(), ErrNotFound},
		{"person of another user", myFace.ID, theirPerson.ID, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Assign(context.Background(), userID, tt.faceID, tt.personID, 1, models.AssignedByUser)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnassignReturnsFaceToPool(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")
	person := store.addPerson(userID, "P")
	store.linkFace(face.ID, person.ID)

	if err := p.Unassign(context.Background(), userID, face.ID); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if store.links[face.ID] != nil {
		t.Error("link still active")
	}
	if !store.faces[face.ID].NeedsAssignment {
		t.Error("face must return to the needs-assignment pool")
	}
}

func TestUnassignSkippedFaceStaysOut(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")
	face.Skipped = true
	person := store.addPerson(userID, "P")
	store.linkFace(face.ID, person.ID)

	if err := p.Unassign(context.Background(), userID, face.ID); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if store.faces[face.ID].NeedsAssignment {
		t.Error("skipped face must not rejoin the pool")
	}
	if !store.faces[face.ID].Skipped {
		t.Error("skip flag must survive unassign")
	}
}

func TestSkipLeavesLinkUntouched(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")
	face.NeedsAssignment = true
	person := store.addPerson(userID, "P")
	store.linkFace(face.ID, person.ID)

	if err := p.Skip(context.Background(), userID, face.ID); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	got := store.faces[face.ID]
	if !got.Skipped || got.NeedsAssignment {
		t.Error("skip must set skipped and clear needs_assignment")
	}
	if store.links[face.ID] == nil {
		t.Error("skip must not touch the active link")
	}
}

func TestCreatePersonFromFace(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")
	face.NeedsAssignment = true

	person, err := p.CreatePersonFromFace(context.Background(), userID, face.ID, "Aunt May", "", "aunt")
	if err != nil {
		t.Fatalf("CreatePersonFromFace: %v", err)
	}

	link := store.links[face.ID]
	if link == nil || link.PersonID != person.ID {
		t.Fatal("face not linked to the new person")
	}
	if link.AssignedBy != models.AssignedByUser {
		t.Errorf("assigned_by = %q, want user", link.AssignedBy)
	}
	if store.avatars[person.ID] != face.ID {
		t.Error("founding face must become the person's avatar")
	}
	if store.faces[face.ID].NeedsAssignment {
		t.Error("face must leave the needs-assignment pool")
	}
}

func TestCreatePersonFromFaceRollsBackOnLinkFailure(t *testing.T) {
	store := newMockStore()
	store.createLinkErr = errors.New("link failed")
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")

	_, err := p.CreatePersonFromFace(context.Background(), userID, face.ID, "Ghost", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.deletedPersons) != 1 {
		t.Fatalf("deleted persons = %d, want 1 (rollback)", len(store.deletedPersons))
	}
}

func TestCreatePersonFromFaceDuplicateName(t *testing.T) {
	store := newMockStore()
	store.createPersonErr = storage.ErrDuplicateName
	p := newTestPipeline(store)
	userID := uuid.New()

	face := store.addFace(userID, "pf-1")

	_, err := p.CreatePersonFromFace(context.Background(), userID, face.ID, "Dup", "", "")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}
