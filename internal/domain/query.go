package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Query defaults, mirroring the selection defaults of the original workflow.
const (
	DefaultPerPage  = 20
	MaxPerPage      = 100
	OrderByModified = "modified"
	OrderDesc       = "DESC"
	OrderAsc        = "ASC"
)

// RendezVousQuery selects and paginates rendez-vous records. The engine is
// visibility-agnostic: Statuses is the pre-resolved allowlist supplied by the
// caller (drafts are included only when the caller decided the actor may see
// them).
type RendezVousQuery struct {
	Organizer string
	Attendees []string // matches when ANY listed attendee is in the set
	GroupID   string
	Type      string
	Exclude   []string
	Search    string
	OrderBy   string
	Order     string
	Statuses  []string
	Page      int
	PerPage   int
}

// Normalize returns a copy with defaults applied and slice filters sorted,
// suitable both for querying and for deriving a stable cache key.
func (q RendezVousQuery) Normalize() RendezVousQuery {
	n := q
	if n.Page < 1 {
		n.Page = 1
	}
	if n.PerPage < 1 {
		n.PerPage = DefaultPerPage
	}
	if n.PerPage > MaxPerPage {
		n.PerPage = MaxPerPage
	}
	if n.OrderBy == "" {
		n.OrderBy = OrderByModified
	}
	if n.Order != OrderAsc {
		n.Order = OrderDesc
	}
	if len(n.Statuses) == 0 {
		n.Statuses = []string{StatusPublish, StatusPrivate}
	}
	n.Attendees = sortedCopy(n.Attendees)
	n.Exclude = sortedCopy(n.Exclude)
	n.Statuses = sortedCopy(n.Statuses)
	n.Search = strings.TrimSpace(n.Search)
	return n
}

// Offset returns the row offset for the current page (0-based).
func (q RendezVousQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// Cache is a read-through result cache for the query engine. Implementations
// must treat Get misses and backend failures identically: (false, err) lets
// the caller fall through to storage.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}
