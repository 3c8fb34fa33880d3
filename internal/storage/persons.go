package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/your-org/memorybook/internal/models"
)

// ErrDuplicateName is returned when a person with the same name already
// exists (among active persons) for the user.
var ErrDuplicateName = errors.New("person name already exists")

func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.State == "" {
		p.State = models.LifecycleActive
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Name
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO persons (id, user_id, name, display_name, relationship, is_primary, avatar_face_id, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Name, p.DisplayName, p.Relationship, p.IsPrimary, p.AvatarFaceID, p.State,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, display_name, relationship, is_primary, avatar_face_id, state, created_at, updated_at
		 FROM persons WHERE id = $1 AND state = 'active'`, id,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.DisplayName, &p.Relationship, &p.IsPrimary,
		&p.AvatarFaceID, &p.State, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPersons(ctx context.Context, userID uuid.UUID) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, display_name, relationship, is_primary, avatar_face_id, state, created_at, updated_at
		 FROM persons WHERE user_id = $1 AND state = 'active' ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.DisplayName, &p.Relationship,
			&p.IsPrimary, &p.AvatarFaceID, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// CountPersonFaces returns the number of faces actively linked to the person.
func (s *PostgresStore) CountPersonFaces(ctx context.Context, personID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM face_links WHERE person_id = $1 AND state = 'active'`,
		personID,
	).Scan(&count)
	return count, err
}

// SoftDeletePerson retires the person and cascades a soft delete to its
// active links. Faces that were linked go back to needing assignment.
func (s *PostgresStore) SoftDeletePerson(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete person tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE persons SET state = 'deleted', updated_at = NOW() WHERE id = $1 AND state = 'active'`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person not found")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE faces SET needs_assignment = TRUE, auto_assigned = FALSE, updated_at = NOW()
		 WHERE id IN (SELECT face_id FROM face_links WHERE person_id = $1 AND state = 'active')
		   AND state = 'active' AND NOT skipped`, id); err != nil {
		return fmt.Errorf("reset linked faces: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE face_links SET state = 'deleted' WHERE person_id = $1 AND state = 'active'`, id); err != nil {
		return fmt.Errorf("cascade delete links: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete person tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetPersonAvatar(ctx context.Context, personID, faceID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE persons SET avatar_face_id = $1, updated_at = NOW() WHERE id = $2 AND state = 'active'`,
		faceID, personID)
	if err != nil {
		return fmt.Errorf("set person avatar: %w", err)
	}
	return nil
}
