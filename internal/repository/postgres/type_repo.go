package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rendezvous/internal/domain"
)

type typeRepository struct {
	DB *sql.DB
}

// NewTypeRepository returns a domain.TypeRepository implemented with Postgres.
func NewTypeRepository(db *sql.DB) domain.TypeRepository {
	return &typeRepository{DB: db}
}

func (r *typeRepository) EnsureType(ctx context.Context, slug, name string) (string, error) {
	var typeID string
	err := r.DB.QueryRowContext(ctx, `SELECT id FROM rendez_vous_types WHERE slug = $1`, slug).Scan(&typeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if errors.Is(err, sql.ErrNoRows) {
		err := r.DB.QueryRowContext(ctx,
			`INSERT INTO rendez_vous_types (slug, name) VALUES ($1, $2) RETURNING id`,
			slug, name).Scan(&typeID)
		if err != nil {
			var perr *pq.Error
			if errors.As(err, &perr) && perr.Code == "23505" {
				// Lost a race to a concurrent insert; read the winner.
				if err := r.DB.QueryRowContext(ctx, `SELECT id FROM rendez_vous_types WHERE slug = $1`, slug).Scan(&typeID); err != nil {
					return "", err
				}
				return typeID, nil
			}
			return "", fmt.Errorf("insert type %s: %w", slug, err)
		}
	}
	return typeID, nil
}

func (r *typeRepository) GetBySlug(ctx context.Context, slug string) (*domain.RendezVousType, error) {
	t := &domain.RendezVousType{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, slug, name FROM rendez_vous_types WHERE slug = $1`, slug).
		Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *typeRepository) List(ctx context.Context) ([]*domain.RendezVousType, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, slug, name FROM rendez_vous_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := make([]*domain.RendezVousType, 0)
	for rows.Next() {
		t := &domain.RendezVousType{}
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
