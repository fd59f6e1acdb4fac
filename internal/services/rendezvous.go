package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rendezvous/internal/domain"
)

type rendezVousService struct {
	rvRepo           domain.RendezVousRepository
	availRepo        domain.AvailabilityRepository
	attendeeRepo     domain.AttendeeRepository
	notificationRepo domain.NotificationRepository
	typeRepo         domain.TypeRepository
	notifier         domain.Notifier
	cache            domain.Cache
	transforms       *FieldTransforms
	contextTimeout   time.Duration
}

// NewRendezVousService wires the scheduling workflow over its repositories.
// notifier and cache may be nil (no notifications, no result caching).
func NewRendezVousService(
	rvRepo domain.RendezVousRepository,
	availRepo domain.AvailabilityRepository,
	attendeeRepo domain.AttendeeRepository,
	notificationRepo domain.NotificationRepository,
	typeRepo domain.TypeRepository,
	notifier domain.Notifier,
	cache domain.Cache,
	transforms *FieldTransforms,
	timeout time.Duration,
) domain.RendezVousService {
	if transforms == nil {
		transforms = DefaultFieldTransforms()
	}
	return &rendezVousService{
		rvRepo:           rvRepo,
		availRepo:        availRepo,
		attendeeRepo:     attendeeRepo,
		notificationRepo: notificationRepo,
		typeRepo:         typeRepo,
		notifier:         notifier,
		cache:            cache,
		transforms:       transforms,
		contextTimeout:   timeout,
	}
}

// Save validates and persists a rendez-vous. Empty p.ID creates a draft and
// seeds the availability ledger (once); a non-empty ID updates the record
// without ever re-seeding the ledger, so edits cannot clobber accumulated
// attendee responses.
func (s *rendezVousService) Save(ctx context.Context, p *domain.SaveParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p.Title = s.transforms.Apply(FieldTitle, p.Title)
	p.Venue = s.transforms.Apply(FieldVenue, p.Venue)
	p.Description = s.transforms.Apply(FieldDescription, p.Description)
	p.Report = s.transforms.Apply(FieldReport, p.Report)

	// Validation happens entirely before any mutation.
	if p.OrganizerID == "" || p.Title == "" {
		return "", domain.ErrValidation
	}
	if p.Status == "" {
		p.Status = domain.StatusPublish
	}

	if p.Type != "" && s.typeRepo != nil {
		if _, err := s.typeRepo.EnsureType(ctx, p.Type, p.Type); err != nil {
			return "", fmt.Errorf("ensure type: %w", err)
		}
	}

	if p.ID == "" {
		return s.create(ctx, p)
	}
	return s.update(ctx, p)
}

func (s *rendezVousService) create(ctx context.Context, p *domain.SaveParams) (string, error) {
	rv := domain.NewRendezVous(p.OrganizerID, p.Title, p.Venue, p.Description, p.Duration, p.Type)
	// A rendez-vous always starts as a draft, whatever the caller asked for.
	// The requested privacy is kept on the record until publication.
	rv.Status = domain.StatusDraft
	rv.Privacy = p.Privacy
	rv.GroupID = p.GroupID
	now := time.Now()
	rv.CreatedAt = now
	rv.ModifiedAt = now

	if err := s.rvRepo.Create(ctx, rv); err != nil {
		return "", fmt.Errorf("create rendez-vous: %w", err)
	}

	// Seed the ledger once, with the sentinel key guaranteed so attendees
	// can answer that no date works for them.
	if len(p.Days) > 0 {
		ledger := make(domain.Ledger, len(p.Days)+1)
		for _, day := range p.Days {
			ledger[day] = []string{}
		}
		ledger[domain.DayNone] = []string{}
		if err := s.availRepo.Seed(ctx, rv.ID, ledger); err != nil {
			return "", fmt.Errorf("seed availability: %w", err)
		}
	}

	for _, userID := range dedupe(p.Attendees) {
		if err := s.attendeeRepo.Add(ctx, rv.ID, userID); err != nil {
			return "", fmt.Errorf("add attendee: %w", err)
		}
	}

	s.invalidateListCache(ctx)
	return rv.ID, nil
}

func (s *rendezVousService) update(ctx context.Context, p *domain.SaveParams) (string, error) {
	stored, err := s.rvRepo.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get rendez-vous: %w", err)
	}

	rv := *stored
	rv.OrganizerID = p.OrganizerID
	rv.Title = p.Title
	rv.Venue = p.Venue
	rv.Description = p.Description
	rv.Duration = p.Duration
	rv.Type = p.Type
	rv.Status = p.Status
	rv.ModifiedAt = time.Now()

	// Privacy requested while drafting funnels into the private status and
	// the transient flag is cleared once the record leaves draft.
	if p.Privacy != "" {
		rv.Status = domain.StatusPrivate
	}
	rv.Privacy = ""

	// Group association is not editable through this path.
	rv.GroupID = stored.GroupID

	// The report is written only once there is one; it cannot be cleared
	// through the normal edit flow.
	if p.Report != "" {
		rv.Report = p.Report
	} else {
		rv.Report = stored.Report
	}

	if err := s.rvRepo.Update(ctx, &rv); err != nil {
		return "", fmt.Errorf("update rendez-vous: %w", err)
	}

	if err := s.reconcileAttendees(ctx, rv.ID, p.Attendees); err != nil {
		return "", err
	}

	s.invalidateListCache(ctx)
	return rv.ID, nil
}

// reconcileAttendees diffs the submitted attendee set against storage.
// Removed attendees have their availability marks purged from every day-key;
// added attendees start with no marks.
func (s *rendezVousService) reconcileAttendees(ctx context.Context, rendezVousID string, attendees []string) error {
	stored, err := s.attendeeRepo.ListByRendezVous(ctx, rendezVousID)
	if err != nil {
		return fmt.Errorf("list attendees: %w", err)
	}

	next := dedupe(attendees)
	added := diff(next, stored)
	removed := diff(stored, next)

	if len(removed) > 0 {
		ledger, err := s.availRepo.GetByRendezVous(ctx, rendezVousID)
		if err != nil {
			return fmt.Errorf("get availability: %w", err)
		}
		for _, userID := range removed {
			_, purge := ledger.Reconcile(userID, nil)
			for _, day := range purge {
				if err := s.availRepo.RemoveMark(ctx, rendezVousID, day, userID); err != nil {
					return fmt.Errorf("remove mark: %w", err)
				}
			}
			if err := s.attendeeRepo.Remove(ctx, rendezVousID, userID); err != nil {
				return fmt.Errorf("remove attendee: %w", err)
			}
		}
	}

	for _, userID := range added {
		if err := s.attendeeRepo.Add(ctx, rendezVousID, userID); err != nil {
			return fmt.Errorf("add attendee: %w", err)
		}
	}
	return nil
}

// GetByID returns the rendez-vous with its attendee set and availability
// ledger attached.
func (s *rendezVousService) GetByID(ctx context.Context, id string) (*domain.RendezVous, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.load(ctx, id)
}

func (s *rendezVousService) load(ctx context.Context, id string) (*domain.RendezVous, error) {
	rv, err := s.rvRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get rendez-vous: %w", err)
	}
	attendees, err := s.attendeeRepo.ListByRendezVous(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []string{}
	}
	rv.Attendees = attendees
	ledger, err := s.availRepo.GetByRendezVous(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	rv.Days = ledger
	return rv, nil
}

// Delete removes a rendez-vous and cascades to its availability ledger,
// attendee set, notification rows, and the list cache.
func (s *rendezVousService) Delete(ctx context.Context, id, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rv, err := s.rvRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get rendez-vous: %w", err)
	}
	if !rv.IsOrganizer(actorID) {
		return domain.ErrForbidden
	}

	if err := s.availRepo.DeleteByRendezVous(ctx, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	if err := s.attendeeRepo.DeleteByRendezVous(ctx, id); err != nil {
		return fmt.Errorf("delete attendees: %w", err)
	}
	if err := s.notificationRepo.DeleteByRendezVous(ctx, id); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if err := s.rvRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete rendez-vous: %w", err)
	}

	s.invalidateListCache(ctx)
	return nil
}

// Publish moves a draft to publish (or private) and notifies the attendees.
func (s *rendezVousService) Publish(ctx context.Context, id, actorID string, private bool) (*domain.RendezVous, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rv.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if rv.Stage() != domain.StageDraft {
		return nil, domain.ErrStateConflict
	}

	rv.Status = domain.StatusPublish
	if private || rv.Privacy != "" {
		rv.Status = domain.StatusPrivate
	}
	rv.Privacy = ""
	rv.ModifiedAt = time.Now()

	if err := s.rvRepo.Update(ctx, rv); err != nil {
		return nil, fmt.Errorf("update rendez-vous: %w", err)
	}
	s.invalidateListCache(ctx)

	if s.notifier != nil {
		if err := s.notifier.RendezVousPublished(ctx, rv, actorID); err != nil {
			// Fire-and-forget: delivery failure never rolls back the write.
			log.Printf("[RENDEZVOUS] publish notification failed for %s: %v", rv.ID, err)
		}
	}
	return rv, nil
}

// FixDate sets the definitive date to one of the candidate day-keys.
func (s *rendezVousService) FixDate(ctx context.Context, id, actorID, dayKey string) (*domain.RendezVous, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rv.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if rv.Stage() != domain.StagePublished {
		return nil, domain.ErrStateConflict
	}
	when, ok := domain.DayKeyTime(dayKey)
	if !ok || !rv.Days.Has(dayKey) {
		return nil, domain.ErrNoCandidateDates
	}

	rv.DefinitiveDate = &when
	rv.ModifiedAt = time.Now()

	if err := s.rvRepo.Update(ctx, rv); err != nil {
		return nil, fmt.Errorf("update rendez-vous: %w", err)
	}
	s.invalidateListCache(ctx)

	if s.notifier != nil {
		if err := s.notifier.RendezVousDateFixed(ctx, rv, actorID); err != nil {
			log.Printf("[RENDEZVOUS] date-fixed notification failed for %s: %v", rv.ID, err)
		}
	}
	return rv, nil
}

// AttachReport stores the post-event report. Allowed only once the date is
// fixed and has passed; an existing report may be amended.
func (s *rendezVousService) AttachReport(ctx context.Context, id, actorID, report string) (*domain.RendezVous, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	report = s.transforms.Apply(FieldReport, report)
	if report == "" {
		return nil, domain.ErrValidation
	}

	rv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rv.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if stage := rv.Stage(); stage != domain.StageFixed && stage != domain.StageReported {
		return nil, domain.ErrStateConflict
	}
	// A report written through Save can reach the reported stage without a
	// fixed date; there is nothing to report on until one is set and past.
	if rv.DefinitiveDate == nil || rv.DefinitiveDate.After(time.Now()) {
		return nil, domain.ErrStateConflict
	}

	rv.Report = report
	rv.ModifiedAt = time.Now()

	if err := s.rvRepo.Update(ctx, rv); err != nil {
		return nil, fmt.Errorf("update rendez-vous: %w", err)
	}
	s.invalidateListCache(ctx)
	return rv, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diff returns the elements of a that are not in b, preserving order.
func diff(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
