package postgres

import (
	"context"
	"database/sql"

	"rendezvous/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository returns a domain.NotificationRepository
// implemented with Postgres.
func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO rendez_vous_notifications (rendez_vous_id, user_id, action, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, n.RendezVousID, n.UserID, n.Action, n.CreatedAt).Scan(&n.ID)
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, rendez_vous_id, user_id, action, created_at
		 FROM rendez_vous_notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.RendezVousID, &n.UserID, &n.Action, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) DeleteByRendezVous(ctx context.Context, rendezVousID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM rendez_vous_notifications WHERE rendez_vous_id = $1`, rendezVousID)
	return err
}
