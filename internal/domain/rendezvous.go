package domain

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"
)

// Sentinel errors for rendez-vous operations.
var (
	ErrNotFound         = errors.New("rendez-vous not found")
	ErrValidation       = errors.New("organizer and title are required")
	ErrForbidden        = errors.New("forbidden")
	ErrNoCandidateDates = errors.New("no candidate dates registered")
	ErrStateConflict    = errors.New("operation not allowed in current stage")
	ErrExport           = errors.New("calendar export not available")
)

// Stored statuses. Privacy is a transient flag carried only while a
// rendez-vous is a draft; on publish it funnels into StatusPrivate.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
	StatusPrivate = "private"
)

// DayNone is the sentinel day-key letting attendees answer that none of the
// candidate dates works for them. It is seeded alongside the first candidate
// dates and always present afterwards.
const DayNone = "none"

// Stage is the derived lifecycle stage of a rendez-vous. It is computed from
// the record's fields; nothing beyond status, definitive date and report is
// stored.
type Stage string

const (
	StageDraft     Stage = "draft"
	StagePublished Stage = "published"
	StageFixed     Stage = "fixed"
	StageReported  Stage = "reported"
)

// Ledger maps a day-key (decimal UNIX timestamp or DayNone) to the set of
// attendee IDs available on that day.
type Ledger map[string][]string

// Has reports whether the day-key is registered in the ledger.
func (l Ledger) Has(dayKey string) bool {
	_, ok := l[dayKey]
	return ok
}

// Marked reports whether the attendee is recorded for the given day-key.
func (l Ledger) Marked(dayKey, attendeeID string) bool {
	for _, id := range l[dayKey] {
		if id == attendeeID {
			return true
		}
	}
	return false
}

// DayKeys returns the registered day-keys, timestamps in ascending order and
// DayNone last.
func (l Ledger) DayKeys() []string {
	keys := make([]string, 0, len(l))
	hasNone := false
	for k := range l {
		if k == DayNone {
			hasNone = true
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseInt(keys[i], 10, 64)
		b, _ := strconv.ParseInt(keys[j], 10, 64)
		return a < b
	})
	if hasNone {
		keys = append(keys, DayNone)
	}
	return keys
}

// Reconcile computes the per-key membership deltas needed to make the
// attendee's marks match the chosen day-keys. Only keys already present in
// the ledger are considered; choices for unknown keys are ignored so a
// preference submission can never introduce candidate dates. Keys where the
// attendee is already in the desired state produce no delta.
func (l Ledger) Reconcile(attendeeID string, chosen []string) (added, removed []string) {
	want := make(map[string]struct{}, len(chosen))
	for _, day := range chosen {
		want[day] = struct{}{}
	}
	for _, day := range l.DayKeys() {
		_, chose := want[day]
		if l.Marked(day, attendeeID) {
			if !chose {
				removed = append(removed, day)
			}
		} else if chose {
			added = append(added, day)
		}
	}
	return added, removed
}

// ApplyPreference mutates the ledger in place so that the attendee is
// recorded exactly for the chosen day-keys. It returns the deltas it applied.
func (l Ledger) ApplyPreference(attendeeID string, chosen []string) (added, removed []string) {
	added, removed = l.Reconcile(attendeeID, chosen)
	for _, day := range added {
		l[day] = append(l[day], attendeeID)
	}
	for _, day := range removed {
		members := l[day][:0]
		for _, id := range l[day] {
			if id != attendeeID {
				members = append(members, id)
			}
		}
		l[day] = members
	}
	return added, removed
}

// RendezVous represents one scheduling proposal.
// swagger:model RendezVous
type RendezVous struct {
	ID             string     `json:"id"`
	OrganizerID    string     `json:"organizer_id"`
	Title          string     `json:"title"`
	Venue          string     `json:"venue,omitempty"`
	Description    string     `json:"description,omitempty"`
	Duration       string     `json:"duration,omitempty"` // "H:MM" or "HH:MM"
	Type           string     `json:"type,omitempty"`     // type slug, resolved by the type provider
	Status         string     `json:"status"`
	Privacy        string     `json:"privacy,omitempty"`
	GroupID        string     `json:"group_id,omitempty"`
	Report         string     `json:"report,omitempty"`
	DefinitiveDate *time.Time `json:"definitive_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ModifiedAt     time.Time  `json:"modified_at"`
	Attendees      []string   `json:"attendees"`
	Days           Ledger     `json:"days"`
}

// NewRendezVous returns a new RendezVous with the given fields. ID is
// typically set by the repository on create.
func NewRendezVous(organizerID, title, venue, description, duration, typ string) *RendezVous {
	return &RendezVous{
		OrganizerID: organizerID,
		Title:       title,
		Venue:       venue,
		Description: description,
		Duration:    duration,
		Type:        typ,
		Status:      StatusDraft,
	}
}

// Stage derives the current lifecycle stage.
func (r *RendezVous) Stage() Stage {
	switch {
	case r.Report != "":
		return StageReported
	case r.DefinitiveDate != nil:
		return StageFixed
	case r.Status != StatusDraft:
		return StagePublished
	default:
		return StageDraft
	}
}

// IsOrganizer reports whether the user created this rendez-vous.
func (r *RendezVous) IsOrganizer(userID string) bool {
	return userID != "" && r.OrganizerID == userID
}

// HasAttendee reports whether the user is in the stored attendee set.
func (r *RendezVous) HasAttendee(userID string) bool {
	for _, id := range r.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// Participants returns the attendee set with the organizer included. The
// organizer is always a participant but is never materialized into the
// stored set; the union is computed at read time.
func (r *RendezVous) Participants() []string {
	if r.HasAttendee(r.OrganizerID) {
		return r.Attendees
	}
	out := make([]string, 0, len(r.Attendees)+1)
	out = append(out, r.OrganizerID)
	out = append(out, r.Attendees...)
	return out
}

// DayKeyFromTime converts a candidate timestamp to its ledger day-key.
func DayKeyFromTime(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// DayKeyTime parses a day-key back to a UTC time. Returns false for DayNone
// or a malformed key.
func DayKeyTime(dayKey string) (time.Time, bool) {
	if dayKey == DayNone {
		return time.Time{}, false
	}
	ts, err := strconv.ParseInt(dayKey, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(ts, 0).UTC(), true
}

// RendezVousRepository defines the interface for rendez-vous record storage.
// It persists the record columns only; the availability ledger and attendee
// set live behind their own repositories.
type RendezVousRepository interface {
	Create(ctx context.Context, rv *RendezVous) error
	GetByID(ctx context.Context, id string) (*RendezVous, error)
	Update(ctx context.Context, rv *RendezVous) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q RendezVousQuery) ([]*RendezVous, int, error)
}

// AvailabilityRepository defines storage for the per-day attendee marks of a
// rendez-vous. Marks are written as per-key row deltas so that concurrent
// writes touching disjoint attendees or day-keys commute.
type AvailabilityRepository interface {
	// Seed registers the candidate day-keys for a freshly created
	// rendez-vous. It is called once; later saves never re-seed.
	Seed(ctx context.Context, rendezVousID string, ledger Ledger) error
	GetByRendezVous(ctx context.Context, rendezVousID string) (Ledger, error)
	AddMark(ctx context.Context, rendezVousID, dayKey, attendeeID string) error
	RemoveMark(ctx context.Context, rendezVousID, dayKey, attendeeID string) error
	DeleteByRendezVous(ctx context.Context, rendezVousID string) error
}

// AttendeeRepository defines storage for the invited/participating user set.
type AttendeeRepository interface {
	Add(ctx context.Context, rendezVousID, userID string) error
	Remove(ctx context.Context, rendezVousID, userID string) error
	ListByRendezVous(ctx context.Context, rendezVousID string) ([]string, error)
	DeleteByRendezVous(ctx context.Context, rendezVousID string) error
}

// SaveParams is the input to RendezVousService.Save. ID empty means create.
type SaveParams struct {
	ID          string
	OrganizerID string
	Title       string
	Venue       string
	Description string
	Duration    string
	Type        string
	Privacy     string
	Status      string
	Report      string
	GroupID     string
	Days        []string // candidate day-keys, honored on create only
	Attendees   []string
}

// RendezVousService defines the scheduling workflow.
type RendezVousService interface {
	Save(ctx context.Context, p *SaveParams) (string, error)
	GetByID(ctx context.Context, id string) (*RendezVous, error)
	List(ctx context.Context, q RendezVousQuery) ([]*RendezVous, int, error)
	Delete(ctx context.Context, id, actorID string) error
	Publish(ctx context.Context, id, actorID string, private bool) (*RendezVous, error)
	FixDate(ctx context.Context, id, actorID, dayKey string) (*RendezVous, error)
	AttachReport(ctx context.Context, id, actorID, report string) (*RendezVous, error)
	SetAttendeePreference(ctx context.Context, id, attendeeID string, chosen []string) error
}
