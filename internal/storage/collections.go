package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/memorybook/internal/models"
)

// UpsertCollection inserts or refreshes the per-user collection mirror.
// Keyed by user_id; a second upsert updates the existing row.
func (s *PostgresStore) UpsertCollection(ctx context.Context, c *models.Collection) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO collections (id, user_id, provider_id, resource_arn, face_count, last_indexed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     provider_id = EXCLUDED.provider_id,
		     resource_arn = EXCLUDED.resource_arn,
		     face_count = EXCLUDED.face_count,
		     last_indexed_at = COALESCE(EXCLUDED.last_indexed_at, collections.last_indexed_at),
		     updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		c.ID, c.UserID, c.ProviderID, c.ResourceARN, c.FaceCount, c.LastIndexedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCollectionByUser(ctx context.Context, userID uuid.UUID) (*models.Collection, error) {
	c := &models.Collection{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, provider_id, resource_arn, face_count, last_indexed_at, created_at, updated_at
		 FROM collections WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.ProviderID, &c.ResourceARN, &c.FaceCount,
		&c.LastIndexedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

// TouchCollection bumps the cached face count and last-indexed time
// after a batch of faces was indexed. Last write wins; the mirror is a
// cache of provider state, not the source of truth.
func (s *PostgresStore) TouchCollection(ctx context.Context, userID uuid.UUID, addedFaces int, indexedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE collections SET face_count = face_count + $1, last_indexed_at = $2, updated_at = NOW()
		 WHERE user_id = $3`,
		addedFaces, indexedAt, userID)
	if err != nil {
		return fmt.Errorf("touch collection: %w", err)
	}
	return nil
}
