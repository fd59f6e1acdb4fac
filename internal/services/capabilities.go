package services

import (
	"context"

	"rendezvous/internal/domain"
)

// staticCapabilityMapper answers capability checks from a fixed moderator
// list. Deployments embedded in a larger platform substitute their own
// implementation.
type staticCapabilityMapper struct {
	moderators map[string]struct{}
}

// NewCapabilityMapper returns a CapabilityMapper granting CapModerate to the
// given user IDs and CapIsMember to everyone.
func NewCapabilityMapper(moderatorIDs []string) domain.CapabilityMapper {
	mods := make(map[string]struct{}, len(moderatorIDs))
	for _, id := range moderatorIDs {
		mods[id] = struct{}{}
	}
	return &staticCapabilityMapper{moderators: mods}
}

func (c *staticCapabilityMapper) Can(ctx context.Context, userID, capability string) bool {
	switch capability {
	case domain.CapModerate:
		_, ok := c.moderators[userID]
		return ok
	case domain.CapIsMember:
		return userID != ""
	default:
		return false
	}
}
