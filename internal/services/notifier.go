package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"rendezvous/internal/domain"
)

type notifier struct {
	members          domain.MemberDirectory
	notificationRepo domain.NotificationRepository
	mailer           domain.Mailer
	renderer         domain.TemplateRenderer
	memberLinks      domain.LinkResolver
	groupLinks       domain.LinkResolver
}

// NewNotifier returns a Notifier that records a notification row per
// recipient and emails them with the rendered template. The group-scoped
// link resolver is used for rendez-vous attached to a group.
func NewNotifier(
	members domain.MemberDirectory,
	notificationRepo domain.NotificationRepository,
	mailer domain.Mailer,
	renderer domain.TemplateRenderer,
	memberLinks domain.LinkResolver,
	groupLinks domain.LinkResolver,
) domain.Notifier {
	return &notifier{
		members:          members,
		notificationRepo: notificationRepo,
		mailer:           mailer,
		renderer:         renderer,
		memberLinks:      memberLinks,
		groupLinks:       groupLinks,
	}
}

func (n *notifier) links(rv *domain.RendezVous) domain.LinkResolver {
	if rv.GroupID != "" && n.groupLinks != nil {
		return n.groupLinks
	}
	return n.memberLinks
}

// RendezVousPublished notifies every attendee (except the actor) that the
// rendez-vous is open for date picking.
func (n *notifier) RendezVousPublished(ctx context.Context, rv *domain.RendezVous, actorID string) error {
	organizer := n.organizerName(ctx, rv)
	return n.dispatch(ctx, rv, actorID, domain.NotificationPublished, func(m *domain.Member) (string, string, string, error) {
		data := &domain.PublishedEmailData{
			RecipientName: m.Name,
			OrganizerName: organizer,
			Title:         rv.Title,
			Link:          n.links(rv).SingleLink(rv),
		}
		return n.renderer.Render("rendez_vous_published", data)
	})
}

// RendezVousDateFixed notifies every attendee (except the actor) that the
// definitive date is set, with a pointer to the calendar file download.
func (n *notifier) RendezVousDateFixed(ctx context.Context, rv *domain.RendezVous, actorID string) error {
	if rv.DefinitiveDate == nil {
		return fmt.Errorf("rendez-vous %s has no definitive date", rv.ID)
	}
	organizer := n.organizerName(ctx, rv)
	date := rv.DefinitiveDate.UTC().Format("Monday 2 January 2006, 15:04 MST")
	return n.dispatch(ctx, rv, actorID, domain.NotificationDateFixed, func(m *domain.Member) (string, string, string, error) {
		data := &domain.DateFixedEmailData{
			RecipientName: m.Name,
			OrganizerName: organizer,
			Title:         rv.Title,
			Date:          date,
			Link:          n.links(rv).SingleLink(rv),
			ICalLink:      n.links(rv).ICalLink(rv),
		}
		return n.renderer.Render("rendez_vous_date_fixed", data)
	})
}

// dispatch fans out to the attendee set, skipping the acting user. Failures
// are logged per recipient and do not abort the rest of the fan-out.
func (n *notifier) dispatch(ctx context.Context, rv *domain.RendezVous, actorID, action string, render func(*domain.Member) (string, string, string, error)) error {
	var recipients []string
	for _, userID := range rv.Participants() {
		if userID != actorID {
			recipients = append(recipients, userID)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	members, err := n.members.ListByIDs(ctx, recipients)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	for _, m := range members {
		row := &domain.Notification{
			RendezVousID: rv.ID,
			UserID:       m.ID,
			Action:       action,
			CreatedAt:    time.Now(),
		}
		if err := n.notificationRepo.Create(ctx, row); err != nil {
			log.Printf("[NOTIFIER] notification row for %s failed: %v", m.ID, err)
			continue
		}
		subject, htmlBody, textBody, err := render(m)
		if err != nil {
			log.Printf("[NOTIFIER] render %s for %s failed: %v", action, m.ID, err)
			continue
		}
		if m.Email == "" {
			continue
		}
		if err := n.mailer.Send(m.Email, subject, htmlBody, textBody); err != nil {
			log.Printf("[NOTIFIER] email %s to %s failed: %v", action, m.Email, err)
		}
	}
	return nil
}

func (n *notifier) organizerName(ctx context.Context, rv *domain.RendezVous) string {
	organizer, err := n.members.GetByID(ctx, rv.OrganizerID)
	if err != nil || organizer == nil || organizer.Name == "" {
		return "The organizer"
	}
	return organizer.Name
}
