package facepipe

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/vision"
)

// mockProvider is a scripted vision.Provider. Zero-value methods
// succeed with empty results; per-call funcs override behavior.
type mockProvider struct {
	describeFn func(ctx context.Context, collectionID string) (*vision.CollectionInfo, error)
	createFn   func(ctx context.Context, collectionID string) (*vision.CollectionInfo, error)
	indexFn    func(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error)
	searchFn   func(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error)

	indexCalls  int
	searchCalls int
}

func (m *mockProvider) DescribeCollection(ctx context.Context, collectionID string) (*vision.CollectionInfo, error) {
	if m.describeFn != nil {
		return m.describeFn(ctx, collectionID)
	}
	return &vision.CollectionInfo{ARN: "arn:test:" + collectionID}, nil
}

func (m *mockProvider) CreateCollection(ctx context.Context, collectionID string) (*vision.CollectionInfo, error) {
	if m.createFn != nil {
		return m.createFn(ctx, collectionID)
	}
	return &vision.CollectionInfo{ARN: "arn:test:" + collectionID}, nil
}

func (m *mockProvider) IndexFaces(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]vision.DetectedFace, error) {
	m.indexCalls++
	if m.indexFn != nil {
		return m.indexFn(ctx, collectionID, image, externalID, maxFaces)
	}
	return nil, nil
}

func (m *mockProvider) SearchFaces(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]vision.FaceMatch, error) {
	m.searchCalls++
	if m.searchFn != nil {
		return m.searchFn(ctx, collectionID, faceID, minSimilarity, maxMatches)
	}
	return nil, nil
}

// mockStore is an in-memory Store with per-method error injection.
type mockStore struct {
	collections map[uuid.UUID]*models.Collection
	faces       map[uuid.UUID]*models.Face
	persons     map[uuid.UUID]*models.Person
	links       map[uuid.UUID]*models.FaceLink // keyed by face id, active only
	unassigned  []models.UnassignedFace

	photoSummaries map[uuid.UUID][4]int

	createFaceErr   error
	createLinkErr   error
	createPersonErr error
	summaryErr      error

	deletedPersons []uuid.UUID
	deletedLinks   []uuid.UUID
	avatars        map[uuid.UUID]uuid.UUID
}

func newMockStore() *mockStore {
	return &mockStore{
		collections:    make(map[uuid.UUID]*models.Collection),
		faces:          make(map[uuid.UUID]*models.Face),
		persons:        make(map[uuid.UUID]*models.Person),
		links:          make(map[uuid.UUID]*models.FaceLink),
		photoSummaries: make(map[uuid.UUID][4]int),
		avatars:        make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *mockStore) UpsertCollection(ctx context.Context, c *models.Collection) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.collections[c.UserID] = c
	return nil
}

func (s *mockStore) GetCollectionByUser(ctx context.Context, userID uuid.UUID) (*models.Collection, error) {
	return s.collections[userID], nil
}

func (s *mockStore) TouchCollection(ctx context.Context, userID uuid.UUID, addedFaces int, indexedAt time.Time) error {
	if c, ok := s.collections[userID]; ok {
		c.FaceCount += addedFaces
		c.LastIndexedAt = &indexedAt
	}
	return nil
}

func (s *mockStore) CreateFace(ctx context.Context, f *models.Face) error {
	if s.createFaceErr != nil {
		return s.createFaceErr
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.State = models.LifecycleActive
	f.CreatedAt = time.Now()
	cp := *f
	s.faces[f.ID] = &cp
	return nil
}

func (s *mockStore) GetFace(ctx context.Context, id uuid.UUID) (*models.Face, error) {
	f, ok := s.faces[id]
	if !ok || f.State != models.LifecycleActive {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (s *mockStore) ListFacesByPhoto(ctx context.Context, userID, photoID uuid.UUID) ([]models.Face, error) {
	var out []models.Face
	for _, f := range s.faces {
		if f.UserID == userID && f.PhotoID == photoID && f.State == models.LifecycleActive {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *mockStore) FacesByProviderIDs(ctx context.Context, userID uuid.UUID, providerIDs []string) (map[string]models.Face, error) {
	out := make(map[string]models.Face)
	for _, id := range providerIDs {
		for _, f := range s.faces {
			if f.UserID == userID && f.ProviderFaceID == id && f.State == models.LifecycleActive {
				out[id] = *f
			}
		}
	}
	return out, nil
}

func (s *mockStore) UpdateFaceFlags(ctx context.Context, faceID uuid.UUID, needsAssignment, autoAssigned, skipped bool) error {
	f, ok := s.faces[faceID]
	if !ok {
		return nil
	}
	f.NeedsAssignment = needsAssignment
	f.AutoAssigned = autoAssigned
	f.Skipped = skipped
	return nil
}

func (s *mockStore) ListUnassignedFaces(ctx context.Context, userID uuid.UUID) ([]models.UnassignedFace, error) {
	return s.unassigned, nil
}

func (s *mockStore) CreatePerson(ctx context.Context, p *models.Person) error {
	if s.createPersonErr != nil {
		return s.createPersonErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.State = models.LifecycleActive
	cp := *p
	s.persons[p.ID] = &cp
	return nil
}

func (s *mockStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p, ok := s.persons[id]
	if !ok || p.State != models.LifecycleActive {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *mockStore) SoftDeletePerson(ctx context.Context, id uuid.UUID) error {
	s.deletedPersons = append(s.deletedPersons, id)
	if p, ok := s.persons[id]; ok {
		p.State = models.LifecycleDeleted
	}
	return nil
}

func (s *mockStore) SetPersonAvatar(ctx context.Context, personID, faceID uuid.UUID) error {
	s.avatars[personID] = faceID
	return nil
}

func (s *mockStore) ActiveLink(ctx context.Context, faceID uuid.UUID) (*models.FaceLink, error) {
	l, ok := s.links[faceID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *mockStore) CreateLink(ctx context.Context, l *models.FaceLink) error {
	if s.createLinkErr != nil {
		return s.createLinkErr
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.State = models.LifecycleActive
	l.AssignedAt = time.Now()
	cp := *l
	s.links[l.FaceID] = &cp
	return nil
}

func (s *mockStore) SoftDeleteLink(ctx context.Context, faceID uuid.UUID) error {
	s.deletedLinks = append(s.deletedLinks, faceID)
	delete(s.links, faceID)
	return nil
}

func (s *mockStore) UpdatePhotoFaceSummary(ctx context.Context, photoID uuid.UUID, detected, autoAssigned, needingInput int, indexedAt time.Time) error {
	if s.summaryErr != nil {
		return s.summaryErr
	}
	s.photoSummaries[photoID] = [4]int{detected, autoAssigned, needingInput, 1}
	return nil
}

// addFace seeds a persisted active face and returns it.
func (s *mockStore) addFace(userID uuid.UUID, providerFaceID string) *models.Face {
	f := &models.Face{
		ID:             uuid.New(),
		UserID:         userID,
		PhotoID:        uuid.New(),
		ProviderFaceID: providerFaceID,
		State:          models.LifecycleActive,
	}
	s.faces[f.ID] = f
	return f
}

// addPerson seeds an active person.
func (s *mockStore) addPerson(userID uuid.UUID, name string) *models.Person {
	p := &models.Person{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		State:  models.LifecycleActive,
	}
	s.persons[p.ID] = p
	return p
}

// linkFace seeds an active link between a face and a person.
func (s *mockStore) linkFace(faceID, personID uuid.UUID) {
	s.links[faceID] = &models.FaceLink{
		ID:       uuid.New(),
		FaceID:   faceID,
		PersonID: personID,
		State:    models.LifecycleActive,
	}
}
