package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/memorybook/internal/models"
)

func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO photos (id, user_id, storage_key, title, content_type)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.StorageKey, p.Title, p.ContentType,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	p := &models.Photo{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, storage_key, title, content_type, caption,
		        faces_detected, faces_auto_assigned, faces_needing_input, faces_indexed_at,
		        created_at, updated_at
		 FROM photos WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.StorageKey, &p.Title, &p.ContentType, &p.Caption,
		&p.FacesDetected, &p.FacesAutoAssigned, &p.FacesNeedingInput, &p.FacesIndexedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPhotosByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Photo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, storage_key, title, content_type, caption,
		        faces_detected, faces_auto_assigned, faces_needing_input, faces_indexed_at,
		        created_at, updated_at
		 FROM photos WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.UserID, &p.StorageKey, &p.Title, &p.ContentType, &p.Caption,
			&p.FacesDetected, &p.FacesAutoAssigned, &p.FacesNeedingInput, &p.FacesIndexedAt,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// UpdatePhotoFaceSummary writes the denormalized per-photo face counts
// after an indexing batch completes.
func (s *PostgresStore) UpdatePhotoFaceSummary(ctx context.Context, photoID uuid.UUID, detected, autoAssigned, needingInput int, indexedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE photos SET faces_detected = $1, faces_auto_assigned = $2,
		        faces_needing_input = $3, faces_indexed_at = $4, updated_at = NOW()
		 WHERE id = $5`,
		detected, autoAssigned, needingInput, indexedAt, photoID)
	if err != nil {
		return fmt.Errorf("update photo face summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetPhotoCaption(ctx context.Context, photoID uuid.UUID, caption string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE photos SET caption = $1, updated_at = NOW() WHERE id = $2`,
		caption, photoID)
	if err != nil {
		return fmt.Errorf("set photo caption: %w", err)
	}
	return nil
}
