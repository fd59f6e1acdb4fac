package services

import (
	"context"
	"errors"
	"fmt"

	"rendezvous/internal/domain"
)

// SetAttendeePreference reconciles one attendee's submitted day choices
// against the stored ledger. Per day-key the delta is a set-membership add or
// remove, so submissions from different attendees commute; keys not already
// in the ledger are never introduced here.
func (s *rendezVousService) SetAttendeePreference(ctx context.Context, id, attendeeID string, chosen []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.rvRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get rendez-vous: %w", err)
	}

	ledger, err := s.availRepo.GetByRendezVous(ctx, id)
	if err != nil {
		return fmt.Errorf("get availability: %w", err)
	}
	if len(ledger) == 0 {
		return domain.ErrNoCandidateDates
	}

	added, removed := ledger.Reconcile(attendeeID, chosen)
	for _, day := range added {
		if err := s.availRepo.AddMark(ctx, id, day, attendeeID); err != nil {
			return fmt.Errorf("add mark: %w", err)
		}
	}
	for _, day := range removed {
		if err := s.availRepo.RemoveMark(ctx, id, day, attendeeID); err != nil {
			return fmt.Errorf("remove mark: %w", err)
		}
	}

	// A guest self-join: a non-empty preference from someone not yet listed
	// adds them to the attendee set. Expected only for public rendez-vous;
	// visibility is enforced by the caller.
	if len(chosen) > 0 {
		attendees, err := s.attendeeRepo.ListByRendezVous(ctx, id)
		if err != nil {
			return fmt.Errorf("list attendees: %w", err)
		}
		listed := false
		for _, userID := range attendees {
			if userID == attendeeID {
				listed = true
				break
			}
		}
		if !listed {
			if err := s.attendeeRepo.Add(ctx, id, attendeeID); err != nil {
				return fmt.Errorf("add attendee: %w", err)
			}
			s.invalidateListCache(ctx)
		}
	}
	return nil
}
