package facepipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/config"
	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/observability"
	"github.com/your-org/memorybook/internal/vision"
)

// Pipeline runs the face recognition flow for one photo at a time:
// ensure the user's collection, index faces, resolve matches, and
// apply the assignment policy. All dependencies are injected; there is
// no shared state beyond the store and the provider.
type Pipeline struct {
	provider vision.Provider
	store    Store
	cfg      config.VisionConfig
}

func New(provider vision.Provider, store Store, cfg config.VisionConfig) *Pipeline {
	return &Pipeline{provider: provider, store: store, cfg: cfg}
}

// EnsureCollection makes sure the user has a provider-side face
// collection, creating it on first use. The collection id is derived
// from the user id, so the call is idempotent. The local mirror row is
// upserted on every call.
func (p *Pipeline) EnsureCollection(ctx context.Context, userID uuid.UUID) (*CollectionResult, error) {
	collectionID := p.cfg.CollectionPrefix + userID.String()

	alreadyExisted := true
	info, err := p.provider.DescribeCollection(ctx, collectionID)
	if errors.Is(err, vision.ErrCollectionNotFound) {
		alreadyExisted = false
		info, err = p.provider.CreateCollection(ctx, collectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", collectionID, err)
	}

	mirror := &models.Collection{
		UserID:      userID,
		ProviderID:  collectionID,
		ResourceARN: info.ARN,
		FaceCount:   info.FaceCount,
	}
	if err := p.store.UpsertCollection(ctx, mirror); err != nil {
		return nil, err
	}

	return &CollectionResult{
		CollectionID:   collectionID,
		ResourceARN:    info.ARN,
		FaceCount:      info.FaceCount,
		AlreadyExisted: alreadyExisted,
	}, nil
}

// IndexPhoto runs the full pipeline over one photo's bytes. Faces are
// processed sequentially in the order the provider returned them; a
// failure on one face is logged and skipped so the rest of the photo
// still completes.
func (p *Pipeline) IndexPhoto(ctx context.Context, userID, photoID uuid.UUID, image []byte) (*IndexResult, error) {
	// Indexing the same asset twice must not create duplicate
	// provider-side entries. Existing active rows short-circuit.
	existing, err := p.store.ListFacesByPhoto(ctx, userID, photoID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &IndexResult{Status: StatusAlreadyProcessed, FacesDetected: len(existing)}, nil
	}

	col, err := p.EnsureCollection(ctx, userID)
	if err != nil {
		return nil, err
	}

	detected, err := p.provider.IndexFaces(ctx, col.CollectionID, image, photoID.String(), p.cfg.MaxFacesPerPhoto)
	if err != nil {
		return nil, fmt.Errorf("index photo %s: %w", photoID, err)
	}

	// Tiny background faces are noise; reject only faces that fail
	// both the width and the height minimum.
	kept := detected[:0:0]
	for _, df := range detected {
		if df.Box.Width >= p.cfg.MinFaceRatio || df.Box.Height >= p.cfg.MinFaceRatio {
			kept = append(kept, df)
		}
	}

	now := time.Now()
	result := &IndexResult{Status: StatusProcessed, FacesDetected: len(kept)}

	if len(kept) == 0 {
		if err := p.store.UpdatePhotoFaceSummary(ctx, photoID, 0, 0, 0, now); err != nil {
			return nil, err
		}
		return result, nil
	}

	persisted := 0
	for _, df := range kept {
		outcome, err := p.processFace(ctx, userID, photoID, col.CollectionID, df)
		if err != nil {
			slog.Error("process face failed, continuing batch",
				"photo_id", photoID, "provider_face_id", df.ProviderFaceID, "error", err)
			observability.FaceProcessFailures.Inc()
			result.Failed++
			continue
		}
		persisted++
		if outcome.auto != nil {
			result.AutoAssigned = append(result.AutoAssigned, *outcome.auto)
			observability.FacesAutoAssigned.Inc()
		} else {
			result.NeedsUserInput = append(result.NeedsUserInput, *outcome.pending)
			observability.FacesNeedingInput.Inc()
		}
	}

	observability.PhotosIndexed.Inc()
	observability.FacesDetected.Add(float64(persisted))

	if err := p.store.TouchCollection(ctx, userID, persisted, now); err != nil {
		slog.Warn("touch collection mirror", "user_id", userID, "error", err)
	}
	if err := p.store.UpdatePhotoFaceSummary(ctx, photoID, result.FacesDetected,
		len(result.AutoAssigned), len(result.NeedsUserInput), now); err != nil {
		return nil, err
	}

	return result, nil
}

type faceOutcome struct {
	auto    *AutoAssignment
	pending *PendingFace
}

// processFace resolves matches for one indexed face and applies the
// assignment policy. The face row is persisted before any link so it
// always has a durable identifier.
func (p *Pipeline) processFace(ctx context.Context, userID, photoID uuid.UUID, collectionID string, df vision.DetectedFace) (*faceOutcome, error) {
	matches, err := p.provider.SearchFaces(ctx, collectionID, df.ProviderFaceID, p.cfg.MatchFloor, p.cfg.MaxMatches)
	if err != nil {
		return nil, err
	}

	owned, err := p.filterOwned(ctx, userID, matches)
	if err != nil {
		return nil, err
	}

	face := &models.Face{
		UserID:         userID,
		PhotoID:        photoID,
		ProviderFaceID: df.ProviderFaceID,
		Box:            df.Box,
		Confidence:     df.Confidence / 100,
	}

	if len(owned) > 0 && owned[0].similarity >= p.cfg.AutoAssignThreshold {
		person, err := p.personForFace(ctx, owned[0].face.ID)
		if err != nil {
			return nil, err
		}
		if person != nil {
			return p.autoAssign(ctx, face, person, owned[0].similarity)
		}
		// High-similarity match whose face has no person behind it
		// (orphaned match): fall through to user confirmation.
	}

	face.NeedsAssignment = true
	if err := p.store.CreateFace(ctx, face); err != nil {
		return nil, err
	}

	pending := &PendingFace{Face: *face}
	if len(owned) > 0 && owned[0].similarity >= p.cfg.MatchFloor {
		pending.Suggestions, err = p.buildSuggestions(ctx, owned)
		if err != nil {
			return nil, err
		}
	}
	// Matches below the search floor (or none at all) leave the face
	// as new with no suggestions.
	return &faceOutcome{pending: pending}, nil
}

func (p *Pipeline) autoAssign(ctx context.Context, face *models.Face, person *models.Person, similarity float64) (*faceOutcome, error) {
	face.NeedsAssignment = false
	face.AutoAssigned = true
	if err := p.store.CreateFace(ctx, face); err != nil {
		return nil, err
	}

	link := &models.FaceLink{
		FaceID:     face.ID,
		PersonID:   person.ID,
		Confidence: similarity / 100,
		AssignedBy: models.AssignedBySystem,
	}
	if err := p.store.CreateLink(ctx, link); err != nil {
		// The face row exists but the assignment failed; put it back
		// in the needs-assignment pool rather than leave it linked to
		// nothing with auto_assigned set.
		if flagErr := p.store.UpdateFaceFlags(ctx, face.ID, true, false, false); flagErr != nil {
			slog.Error("reset face flags after link failure", "face_id", face.ID, "error", flagErr)
		}
		return nil, err
	}

	return &faceOutcome{auto: &AutoAssignment{
		Face:       *face,
		Person:     *person,
		Similarity: similarity,
	}}, nil
}

type ownedMatch struct {
	face       models.Face
	similarity float64
}

// filterOwned keeps only matches whose underlying Face row belongs to
// the querying user, preserving the provider's similarity order. The
// provider's result shape does not express ownership, so this check is
// mandatory even with per-user collections.
func (p *Pipeline) filterOwned(ctx context.Context, userID uuid.UUID, matches []vision.FaceMatch) ([]ownedMatch, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ProviderFaceID)
	}
	ownedFaces, err := p.store.FacesByProviderIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	var owned []ownedMatch
	for _, m := range matches {
		if f, ok := ownedFaces[m.ProviderFaceID]; ok {
			owned = append(owned, ownedMatch{face: f, similarity: m.Similarity})
		}
	}
	return owned, nil
}

// personForFace resolves the person a matched face is itself linked
// to. A match against an unassigned face cannot transitively assign a
// person.
func (p *Pipeline) personForFace(ctx context.Context, faceID uuid.UUID) (*models.Person, error) {
	link, err := p.store.ActiveLink(ctx, faceID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}
	return p.store.GetPerson(ctx, link.PersonID)
}

// buildSuggestions resolves the persons behind the top matches,
// skipping matches with no assigned person, capped at MaxSuggestions.
func (p *Pipeline) buildSuggestions(ctx context.Context, owned []ownedMatch) ([]Suggestion, error) {
	var suggestions []Suggestion
	for _, m := range owned {
		if len(suggestions) >= p.cfg.MaxSuggestions {
			break
		}
		person, err := p.personForFace(ctx, m.face.ID)
		if err != nil {
			return nil, err
		}
		if person == nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Person:         *person,
			Similarity:     m.similarity,
			ProviderFaceID: m.face.ProviderFaceID,
		})
	}
	return suggestions, nil
}
