package postgres

import (
	"context"
	"database/sql"

	"rendezvous/internal/domain"
)

type availabilityRepository struct {
	DB *sql.DB
}

// NewAvailabilityRepository returns a domain.AvailabilityRepository backed by
// the rendez_vous_days / rendez_vous_prefs tables. Marks are individual rows,
// so concurrent preference submissions touching different attendees or
// day-keys never conflict.
func NewAvailabilityRepository(db *sql.DB) domain.AvailabilityRepository {
	return &availabilityRepository{DB: db}
}

func (r *availabilityRepository) Seed(ctx context.Context, rendezVousID string, ledger domain.Ledger) error {
	for _, dayKey := range ledger.DayKeys() {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO rendez_vous_days (rendez_vous_id, day_key) VALUES ($1, $2) ON CONFLICT (rendez_vous_id, day_key) DO NOTHING`,
			rendezVousID, dayKey); err != nil {
			return err
		}
		for _, userID := range ledger[dayKey] {
			if err := r.AddMark(ctx, rendezVousID, dayKey, userID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *availabilityRepository) GetByRendezVous(ctx context.Context, rendezVousID string) (domain.Ledger, error) {
	ledger := domain.Ledger{}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT day_key FROM rendez_vous_days WHERE rendez_vous_id = $1`, rendezVousID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dayKey string
		if err := rows.Scan(&dayKey); err != nil {
			return nil, err
		}
		ledger[dayKey] = []string{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	markRows, err := r.DB.QueryContext(ctx,
		`SELECT day_key, user_id FROM rendez_vous_prefs WHERE rendez_vous_id = $1 ORDER BY created_at, user_id`, rendezVousID)
	if err != nil {
		return nil, err
	}
	defer markRows.Close()
	for markRows.Next() {
		var dayKey, userID string
		if err := markRows.Scan(&dayKey, &userID); err != nil {
			return nil, err
		}
		if _, ok := ledger[dayKey]; ok {
			ledger[dayKey] = append(ledger[dayKey], userID)
		}
	}
	return ledger, markRows.Err()
}

func (r *availabilityRepository) AddMark(ctx context.Context, rendezVousID, dayKey, attendeeID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO rendez_vous_prefs (rendez_vous_id, day_key, user_id) VALUES ($1, $2, $3) ON CONFLICT (rendez_vous_id, day_key, user_id) DO NOTHING`,
		rendezVousID, dayKey, attendeeID)
	return err
}

func (r *availabilityRepository) RemoveMark(ctx context.Context, rendezVousID, dayKey, attendeeID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM rendez_vous_prefs WHERE rendez_vous_id = $1 AND day_key = $2 AND user_id = $3`,
		rendezVousID, dayKey, attendeeID)
	return err
}

func (r *availabilityRepository) DeleteByRendezVous(ctx context.Context, rendezVousID string) error {
	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM rendez_vous_prefs WHERE rendez_vous_id = $1`, rendezVousID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM rendez_vous_days WHERE rendez_vous_id = $1`, rendezVousID)
	return err
}
