package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rendezvous/internal/domain"
)

type memberRepository struct {
	DB *sql.DB
}

// NewMemberRepository returns a domain.MemberDirectory over the platform's
// members table. It is read-only: member accounts are managed by the host
// platform, not by this service.
func NewMemberRepository(db *sql.DB) domain.MemberDirectory {
	return &memberRepository{DB: db}
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	m := &domain.Member{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, name FROM members WHERE id = $1`, id).
		Scan(&m.ID, &m.Email, &m.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Member, error) {
	if len(ids) == 0 {
		return []*domain.Member{}, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, email, name FROM members WHERE id = ANY($1) ORDER BY name`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]*domain.Member, 0, len(ids))
	for rows.Next() {
		m := &domain.Member{}
		if err := rows.Scan(&m.ID, &m.Email, &m.Name); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
