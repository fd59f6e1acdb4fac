package domain

import "context"

// Member is the slice of the platform's user record the scheduling core
// needs: an opaque ID plus notification coordinates. The core never creates
// or authenticates members.
type Member struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// MemberDirectory resolves member IDs for notification delivery. It is a
// read-only view onto the identity provider.
type MemberDirectory interface {
	GetByID(ctx context.Context, id string) (*Member, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Member, error)
}

// TokenVerifier verifies a bearer token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// Capabilities understood by CapabilityMapper implementations.
const (
	CapModerate = "moderate"
	CapIsMember = "member"
)

// CapabilityMapper answers role/membership predicates for an actor. The core
// treats the answers as opaque booleans; a group-scoped implementation may
// answer differently inside a group context.
type CapabilityMapper interface {
	Can(ctx context.Context, userID, capability string) bool
}

// LinkResolver builds user-facing links for a rendez-vous. The default
// implementation targets the member's personal area; a group-scoped
// implementation is selected when the rendez-vous belongs to a group.
type LinkResolver interface {
	SingleLink(rv *RendezVous) string
	ICalLink(rv *RendezVous) string
}
