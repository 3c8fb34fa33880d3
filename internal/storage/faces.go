package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/memorybook/internal/models"
)

const faceColumns = `id, user_id, photo_id, provider_face_id,
	box_left, box_top, box_width, box_height, confidence,
	needs_assignment, auto_assigned, skipped, state, created_at, updated_at`

func scanFace(row pgx.Row) (*models.Face, error) {
	f := &models.Face{}
	err := row.Scan(&f.ID, &f.UserID, &f.PhotoID, &f.ProviderFaceID,
		&f.Box.Left, &f.Box.Top, &f.Box.Width, &f.Box.Height, &f.Confidence,
		&f.NeedsAssignment, &f.AutoAssigned, &f.Skipped, &f.State,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) CreateFace(ctx context.Context, f *models.Face) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.State == "" {
		f.State = models.LifecycleActive
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO faces (id, user_id, photo_id, provider_face_id,
		     box_left, box_top, box_width, box_height, confidence,
		     needs_assignment, auto_assigned, skipped, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at, updated_at`,
		f.ID, f.UserID, f.PhotoID, f.ProviderFaceID,
		f.Box.Left, f.Box.Top, f.Box.Width, f.Box.Height, f.Confidence,
		f.NeedsAssignment, f.AutoAssigned, f.Skipped, f.State,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create face: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFace(ctx context.Context, id uuid.UUID) (*models.Face, error) {
	f, err := scanFace(s.pool.QueryRow(ctx,
		`SELECT `+faceColumns+` FROM faces WHERE id = $1 AND state = 'active'`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get face: %w", err)
	}
	return f, nil
}

// ListFacesByPhoto returns the active faces of a photo, oldest first
// (the order they were indexed in).
func (s *PostgresStore) ListFacesByPhoto(ctx context.Context, userID, photoID uuid.UUID) ([]models.Face, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+faceColumns+` FROM faces
		 WHERE user_id = $1 AND photo_id = $2 AND state = 'active'
		 ORDER BY created_at ASC`, userID, photoID)
	if err != nil {
		return nil, fmt.Errorf("list faces by photo: %w", err)
	}
	defer rows.Close()

	var faces []models.Face
	for rows.Next() {
		f, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, *f)
	}
	return faces, nil
}

// FacesByProviderIDs resolves provider face ids to the caller's own
// active Face rows. Faces belonging to other users are simply absent
// from the result; this is the ownership filter for match results.
func (s *PostgresStore) FacesByProviderIDs(ctx context.Context, userID uuid.UUID, providerIDs []string) (map[string]models.Face, error) {
	result := make(map[string]models.Face, len(providerIDs))
	if len(providerIDs) == 0 {
		return result, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+faceColumns+` FROM faces
		 WHERE user_id = $1 AND provider_face_id = ANY($2) AND state = 'active'`,
		userID, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("faces by provider ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		result[f.ProviderFaceID] = *f
	}
	return result, nil
}

func (s *PostgresStore) UpdateFaceFlags(ctx context.Context, faceID uuid.UUID, needsAssignment, autoAssigned, skipped bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE faces SET needs_assignment = $1, auto_assigned = $2, skipped = $3, updated_at = NOW()
		 WHERE id = $4 AND state = 'active'`,
		needsAssignment, autoAssigned, skipped, faceID)
	if err != nil {
		return fmt.Errorf("update face flags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("face not found")
	}
	return nil
}

// --- Links ---

// ActiveLink returns the single active link for a face, or nil.
func (s *PostgresStore) ActiveLink(ctx context.Context, faceID uuid.UUID) (*models.FaceLink, error) {
	l := &models.FaceLink{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, face_id, person_id, confidence, assigned_by, assigned_at, state
		 FROM face_links WHERE face_id = $1 AND state = 'active'`, faceID,
	).Scan(&l.ID, &l.FaceID, &l.PersonID, &l.Confidence, &l.AssignedBy, &l.AssignedAt, &l.State)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active link: %w", err)
	}
	return l, nil
}

// CreateLink inserts a new assignment for a face, retiring any prior
// active link in the same transaction (last assignment wins).
func (s *PostgresStore) CreateLink(ctx context.Context, l *models.FaceLink) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.State == "" {
		l.State = models.LifecycleActive
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin link tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE face_links SET state = 'deleted' WHERE face_id = $1 AND state = 'active'`,
		l.FaceID); err != nil {
		return fmt.Errorf("retire prior link: %w", err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO face_links (id, face_id, person_id, confidence, assigned_by, state)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING assigned_at`,
		l.ID, l.FaceID, l.PersonID, l.Confidence, l.AssignedBy, l.State,
	).Scan(&l.AssignedAt); err != nil {
		return fmt.Errorf("create link: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit link tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) SoftDeleteLink(ctx context.Context, faceID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE face_links SET state = 'deleted' WHERE face_id = $1 AND state = 'active'`,
		faceID)
	if err != nil {
		return fmt.Errorf("soft delete link: %w", err)
	}
	return nil
}

// ListUnassignedFaces returns all of a user's faces awaiting a
// decision, newest first, joined with photo display metadata.
func (s *PostgresStore) ListUnassignedFaces(ctx context.Context, userID uuid.UUID) ([]models.UnassignedFace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT f.id, f.user_id, f.photo_id, f.provider_face_id,
		        f.box_left, f.box_top, f.box_width, f.box_height, f.confidence,
		        f.needs_assignment, f.auto_assigned, f.skipped, f.state, f.created_at, f.updated_at,
		        p.storage_key, p.title, p.created_at
		 FROM faces f
		 JOIN photos p ON p.id = f.photo_id
		 WHERE f.user_id = $1 AND f.state = 'active'
		   AND f.needs_assignment AND NOT f.skipped
		 ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list unassigned faces: %w", err)
	}
	defer rows.Close()

	var faces []models.UnassignedFace
	for rows.Next() {
		var uf models.UnassignedFace
		f := &uf.Face
		if err := rows.Scan(&f.ID, &f.UserID, &f.PhotoID, &f.ProviderFaceID,
			&f.Box.Left, &f.Box.Top, &f.Box.Width, &f.Box.Height, &f.Confidence,
			&f.NeedsAssignment, &f.AutoAssigned, &f.Skipped, &f.State, &f.CreatedAt, &f.UpdatedAt,
			&uf.PhotoKey, &uf.PhotoTitle, &uf.PhotoUploaded); err != nil {
			return nil, fmt.Errorf("scan unassigned face: %w", err)
		}
		faces = append(faces, uf)
	}
	return faces, nil
}
