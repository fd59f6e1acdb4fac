package postgres

import (
	"context"
	"database/sql"

	"rendezvous/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

// NewAttendeeRepository returns a domain.AttendeeRepository implemented with
// Postgres.
func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{DB: db}
}

func (r *attendeeRepository) Add(ctx context.Context, rendezVousID, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO rendez_vous_attendees (rendez_vous_id, user_id) VALUES ($1, $2) ON CONFLICT (rendez_vous_id, user_id) DO NOTHING`,
		rendezVousID, userID)
	return err
}

func (r *attendeeRepository) Remove(ctx context.Context, rendezVousID, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM rendez_vous_attendees WHERE rendez_vous_id = $1 AND user_id = $2`,
		rendezVousID, userID)
	return err
}

func (r *attendeeRepository) ListByRendezVous(ctx context.Context, rendezVousID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id FROM rendez_vous_attendees WHERE rendez_vous_id = $1 ORDER BY created_at, user_id`,
		rendezVousID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendees := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		attendees = append(attendees, userID)
	}
	return attendees, rows.Err()
}

func (r *attendeeRepository) DeleteByRendezVous(ctx context.Context, rendezVousID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM rendez_vous_attendees WHERE rendez_vous_id = $1`, rendezVousID)
	return err
}
