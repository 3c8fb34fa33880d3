package facepipe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/config"
	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/vision"
)

func testVisionConfig() config.VisionConfig {
	return config.VisionConfig{
		CollectionPrefix:    "test-user-",
		MaxFacesPerPhoto:    10,
		MinFaceRatio:        0.03,
		MatchFloor:          80,
		AutoAssignThreshold: 95,
		MaxMatches:          5,
		MaxSuggestions:      3,
	}
}

func TestEnsureCollectionFirstUse(t *testing.T) {
	store := newMockStore()
	provider := &mockProvider{
		describeFn: func(ctx context.Context, collectionID string) (*vision.CollectionInfo, error) {
			return nil, vision.ErrCollectionNotFound
		},
	}
	p := New(provider, store, testVisionConfig())
	userID := uuid.New()

	res, err := p.EnsureCollection(context.Background(), userID)
	if err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if res.AlreadyExisted {
		t.Error("expected AlreadyExisted=false on first use")
	}
	if want := "test-user-" + userID.String(); res.CollectionID != want {
		t.Errorf("collection id = %q, want %q", res.CollectionID, want)
	}
	if store.collections[userID] == nil {
		t.Error("mirror row not upserted")
	}
}

func TestEnsureCollectionExisting(t *testing.T) {
	store := newMockStore()
	provider := &mockProvider{
		describeFn: func(ctx context.Context, collectionID string) (*vision.CollectionInfo, error) {
			return &vision.CollectionInfo{ARN: "arn:existing", FaceCount: 7}, nil
		},
		createFn: func(ctx context.Context, collectionID string) (*vision.CollectionInfo, error) {
			t.Fatal("CreateCollection must not be called when the collection exists")
			return nil, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.EnsureCollection(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if !res.AlreadyExisted {
		t.Error("expected AlreadyExisted=true")
	}
	if res.FaceCount != 7 {
		t.Errorf("face count = %d, want 7", res.FaceCount)
	}
}

func TestIndexPhotoAlreadyProcessed(t *testing.T) {
	store := newMockStore()
	provider := &mockProvider{}
	p := New(provider, store, testVisionConfig())

	userID := uuid.New()
	existing := store.addFace(userID, "pf-1")

	res, err := p.IndexPhoto(context.Background(), userID, existing.PhotoID, []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if res.Status != StatusAlreadyProcessed {
		t.Errorf("status = %q, want %q", res.Status, StatusAlreadyProcessed)
	}
	if provider.indexCalls != 0 {
		t.Errorf("provider indexed %d times, want 0", provider.indexCalls)
	}
}

func TestIndexPhotoSizeFilter(t *testing.T) {
	store := newMockStore()
	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "tiny", Box: models.BoundingBox{Width: 0.02, Height: 0.02}, Confidence: 99},
				{ProviderFaceID: "wide", Box: models.BoundingBox{Width: 0.05, Height: 0.01}, Confidence: 99},
				{ProviderFaceID: "tall", Box: models.BoundingBox{Width: 0.01, Height: 0.03}, Confidence: 99},
			}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), uuid.New(), uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	// Only faces failing both dimension minimums are rejected.
	if res.FacesDetected != 2 {
		t.Errorf("faces detected = %d, want 2", res.FacesDetected)
	}
	for _, f := range store.faces {
		if f.ProviderFaceID == "tiny" {
			t.Error("tiny face must not be persisted")
		}
	}
}

func TestIndexPhotoAutoAssign(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	person := store.addPerson(userID, "Grandma")
	matched := store.addFace(userID, "pf-known")
	store.linkFace(matched.ID, person.ID)

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99.5},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-known", Similarity: 96.5}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if len(res.AutoAssigned) != 1 || len(res.NeedsUserInput) != 0 {
		t.Fatalf("auto=%d pending=%d, want 1/0", len(res.AutoAssigned), len(res.NeedsUserInput))
	}

	auto := res.AutoAssigned[0]
	if auto.Person.ID != person.ID {
		t.Error("auto-assigned to wrong person")
	}
	if auto.Face.NeedsAssignment || !auto.Face.AutoAssigned {
		t.Error("face flags wrong after auto-assign")
	}

	link := store.links[auto.Face.ID]
	if link == nil {
		t.Fatal("no link created")
	}
	if link.AssignedBy != models.AssignedBySystem {
		t.Errorf("assigned_by = %q, want system", link.AssignedBy)
	}
	if link.Confidence != 0.965 {
		t.Errorf("link confidence = %v, want 0.965", link.Confidence)
	}
}

func TestIndexPhotoAutoAssignAtThreshold(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	person := store.addPerson(userID, "Mom")
	matched := store.addFace(userID, "pf-known")
	store.linkFace(matched.ID, person.ID)

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-known", Similarity: 95.0}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	// The threshold is inclusive: exactly 95 auto-assigns.
	if len(res.AutoAssigned) != 1 || len(res.NeedsUserInput) != 0 {
		t.Fatalf("auto=%d pending=%d, want 1/0 at similarity 95.0",
			len(res.AutoAssigned), len(res.NeedsUserInput))
	}
	if res.AutoAssigned[0].Person.ID != person.ID {
		t.Error("auto-assigned to wrong person")
	}
}

func TestIndexPhotoSuggestionAtFloor(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	person := store.addPerson(userID, "Dad")
	matched := store.addFace(userID, "pf-known")
	store.linkFace(matched.ID, person.ID)

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-known", Similarity: 80.0}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	// The floor is inclusive: exactly 80 is a suggestion, not a new face.
	if len(res.AutoAssigned) != 0 || len(res.NeedsUserInput) != 1 {
		t.Fatalf("auto=%d pending=%d, want 0/1 at similarity 80.0",
			len(res.AutoAssigned), len(res.NeedsUserInput))
	}
	suggestions := res.NeedsUserInput[0].Suggestions
	if len(suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(suggestions))
	}
	if suggestions[0].Person.ID != person.ID || suggestions[0].Similarity != 80.0 {
		t.Errorf("suggestion = %s/%v, want person at 80.0",
			suggestions[0].Person.Name, suggestions[0].Similarity)
	}
}

func TestIndexPhotoBelowAutoThreshold(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	person := store.addPerson(userID, "Uncle Joe")
	matched := store.addFace(userID, "pf-known")
	store.linkFace(matched.ID, person.ID)

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-known", Similarity: 94.9}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if len(res.AutoAssigned) != 0 || len(res.NeedsUserInput) != 1 {
		t.Fatalf("auto=%d pending=%d, want 0/1", len(res.AutoAssigned), len(res.NeedsUserInput))
	}

	pending := res.NeedsUserInput[0]
	if !pending.Face.NeedsAssignment {
		t.Error("pending face must need assignment")
	}
	if len(pending.Suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(pending.Suggestions))
	}
	if pending.Suggestions[0].Person.ID != person.ID {
		t.Error("suggestion names wrong person")
	}
	if pending.Suggestions[0].Similarity != 94.9 {
		t.Errorf("suggestion similarity = %v, want 94.9", pending.Suggestions[0].Similarity)
	}
}

func TestIndexPhotoOrphanedHighMatch(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	// A strong match against a face nobody has identified yet.
	store.addFace(userID, "pf-orphan")

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-orphan", Similarity: 97}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if len(res.AutoAssigned) != 0 {
		t.Error("orphaned match must not auto-assign")
	}
	if len(res.NeedsUserInput) != 1 {
		t.Fatalf("pending = %d, want 1", len(res.NeedsUserInput))
	}
	// The matched face has no person, so there is nothing to suggest.
	if len(res.NeedsUserInput[0].Suggestions) != 0 {
		t.Errorf("suggestions = %d, want 0", len(res.NeedsUserInput[0].Suggestions))
	}
}

func TestIndexPhotoIgnoresOtherUsersFaces(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	stranger := uuid.New()
	strangerPerson := store.addPerson(stranger, "Not Yours")
	strangerFace := store.addFace(stranger, "pf-stranger")
	store.linkFace(strangerFace.ID, strangerPerson.ID)

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-stranger", Similarity: 99}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if len(res.AutoAssigned) != 0 {
		t.Fatal("must never assign across users")
	}
	if len(res.NeedsUserInput) != 1 || len(res.NeedsUserInput[0].Suggestions) != 0 {
		t.Error("cross-user match must be treated as no match")
	}
}

func TestIndexPhotoSuggestionCap(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()

	matches := make([]vision.FaceMatch, 0, 5)
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		person := store.addPerson(userID, name)
		f := store.addFace(userID, "pf-"+name)
		store.linkFace(f.ID, person.ID)
		matches = append(matches, vision.FaceMatch{ProviderFaceID: f.ProviderFaceID, Similarity: 94 - float64(i)})
	}

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return matches, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if len(res.NeedsUserInput) != 1 {
		t.Fatalf("pending = %d, want 1", len(res.NeedsUserInput))
	}

	suggestions := res.NeedsUserInput[0].Suggestions
	if len(suggestions) != 3 {
		t.Fatalf("suggestions = %d, want 3", len(suggestions))
	}
	// Ranked by similarity, best first.
	if suggestions[0].Person.Name != "A" || suggestions[2].Person.Name != "C" {
		t.Errorf("suggestion order wrong: %s, %s, %s",
			suggestions[0].Person.Name, suggestions[1].Person.Name, suggestions[2].Person.Name)
	}
}

func TestIndexPhotoFaceFailureContinuesBatch(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-bad", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
				{ProviderFaceID: "pf-good", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			if faceID == "pf-bad" {
				return nil, errors.New("provider hiccup")
			}
			return nil, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	photoID := uuid.New()
	res, err := p.IndexPhoto(context.Background(), userID, photoID, []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}
	if len(res.NeedsUserInput) != 1 {
		t.Errorf("pending = %d, want 1", len(res.NeedsUserInput))
	}
	if _, ok := store.photoSummaries[photoID]; !ok {
		t.Error("photo summary must still be written after partial failure")
	}
}

func TestIndexPhotoNoFacesWritesSummary(t *testing.T) {
	store := newMockStore()
	provider := &mockProvider{}
	p := New(provider, store, testVisionConfig())

	photoID := uuid.New()
	res, err := p.IndexPhoto(context.Background(), uuid.New(), photoID, []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if res.Status != StatusProcessed || res.FacesDetected != 0 {
		t.Errorf("status=%q detected=%d, want processed/0", res.Status, res.FacesDetected)
	}
	if got := store.photoSummaries[photoID]; got[0] != 0 {
		t.Errorf("summary detected = %d, want 0", got[0])
	}
}

func TestAutoAssignLinkFailureResetsFace(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	person := store.addPerson(userID, "Grandpa")
	matched := store.addFace(userID, "pf-known")
	store.linkFace(matched.ID, person.ID)
	store.createLinkErr = errors.New("unique violation")

	provider := &mockProvider{
		indexFn: func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
			return []vision.DetectedFace{
				{ProviderFaceID: "pf-new", Box: models.BoundingBox{Width: 0.2, Height: 0.2}, Confidence: 99},
			}, nil
		},
		searchFn: func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
			return []vision.FaceMatch{{ProviderFaceID: "pf-known", Similarity: 98}}, nil
		},
	}
	p := New(provider, store, testVisionConfig())

	res, err := p.IndexPhoto(context.Background(), userID, uuid.New(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("IndexPhoto: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}

	// The persisted face must be back in the needs-assignment pool.
	for _, f := range store.faces {
		if f.ProviderFaceID != "pf-new" {
			continue
		}
		if !f.NeedsAssignment || f.AutoAssigned {
			t.Error("face not reset after link failure")
		}
	}
}
