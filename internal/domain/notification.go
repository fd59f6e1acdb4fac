package domain

import (
	"context"
	"time"
)

// Notification actions.
const (
	NotificationPublished = "published"
	NotificationDateFixed = "date_fixed"
)

// Notification is a persisted per-recipient notification row. Rows exist so
// a rendez-vous deletion can cascade to them; rendering and on-screen
// delivery belong to the host platform.
type Notification struct {
	ID           string    `json:"id"`
	RendezVousID string    `json:"rendez_vous_id"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationRepository defines storage for notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUserID(ctx context.Context, userID string) ([]*Notification, error)
	DeleteByRendezVous(ctx context.Context, rendezVousID string) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// TemplateRenderer renders notification content from a named template with
// the given data.
type TemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// PublishedEmailData holds data for the "rendez-vous published" email.
type PublishedEmailData struct {
	RecipientName string
	OrganizerName string
	Title         string
	Link          string
}

// DateFixedEmailData holds data for the "date fixed" email, including the
// calendar file download link.
type DateFixedEmailData struct {
	RecipientName string
	OrganizerName string
	Title         string
	Date          string
	Link          string
	ICalLink      string
}

// Notifier dispatches notifications after successful lifecycle transitions.
// Dispatch is fire-and-forget from the workflow's perspective: a delivery
// failure never rolls back the rendez-vous write.
type Notifier interface {
	RendezVousPublished(ctx context.Context, rv *RendezVous, actorID string) error
	RendezVousDateFixed(ctx context.Context, rv *RendezVous, actorID string) error
}
