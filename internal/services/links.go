package services

import (
	"fmt"
	"strings"

	"rendezvous/internal/domain"
)

// memberLinkResolver builds links into the organizer's personal area.
type memberLinkResolver struct {
	baseURL string
}

// NewLinkResolver returns the default LinkResolver rooted at baseURL.
func NewLinkResolver(baseURL string) domain.LinkResolver {
	return &memberLinkResolver{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (l *memberLinkResolver) SingleLink(rv *domain.RendezVous) string {
	return fmt.Sprintf("%s/members/%s/rendez-vous?rdv=%s", l.baseURL, rv.OrganizerID, rv.ID)
}

func (l *memberLinkResolver) ICalLink(rv *domain.RendezVous) string {
	return fmt.Sprintf("%s/rendez-vous/%s/ical", l.baseURL, rv.ID)
}

// groupLinkResolver builds links into the group's area instead of the
// organizer's; selected when the rendez-vous carries a group association.
type groupLinkResolver struct {
	baseURL string
}

// NewGroupLinkResolver returns the group-scoped LinkResolver rooted at baseURL.
func NewGroupLinkResolver(baseURL string) domain.LinkResolver {
	return &groupLinkResolver{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (l *groupLinkResolver) SingleLink(rv *domain.RendezVous) string {
	return fmt.Sprintf("%s/groups/%s/rendez-vous?rdv=%s", l.baseURL, rv.GroupID, rv.ID)
}

func (l *groupLinkResolver) ICalLink(rv *domain.RendezVous) string {
	return fmt.Sprintf("%s/rendez-vous/%s/ical", l.baseURL, rv.ID)
}
