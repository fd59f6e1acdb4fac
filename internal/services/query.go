package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"rendezvous/internal/domain"
)

const (
	listCachePrefix = "rendezvous:list:"
	listCacheTTL    = time.Minute
)

// listResult is the cached aggregate for one normalized query.
type listResult struct {
	Items []*domain.RendezVous `json:"items"`
	Total int                  `json:"total"`
}

// List runs the selection query with read-through caching. The cache key is
// derived from the full normalized parameter set, so distinct queries can
// never serve each other's results. Cache failures fall through to storage.
func (s *rendezVousService) List(ctx context.Context, q domain.RendezVousQuery) ([]*domain.RendezVous, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n := q.Normalize()
	key := listCacheKey(n)

	if s.cache != nil {
		var cached listResult
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			log.Printf("[RENDEZVOUS] list cache get failed: %v", err)
		} else if hit {
			return cached.Items, cached.Total, nil
		}
	}

	items, total, err := s.rvRepo.List(ctx, n)
	if err != nil {
		return nil, 0, fmt.Errorf("list rendez-vous: %w", err)
	}
	if items == nil {
		items = []*domain.RendezVous{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, listResult{Items: items, Total: total}, listCacheTTL); err != nil {
			log.Printf("[RENDEZVOUS] list cache set failed: %v", err)
		}
	}
	return items, total, nil
}

// listCacheKey hashes the normalized query so every parameter combination
// gets its own cache entry.
func listCacheKey(n domain.RendezVousQuery) string {
	var b strings.Builder
	b.WriteString(n.Organizer)
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Attendees, ","))
	b.WriteByte('|')
	b.WriteString(n.GroupID)
	b.WriteByte('|')
	b.WriteString(n.Type)
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Exclude, ","))
	b.WriteByte('|')
	b.WriteString(n.Search)
	b.WriteByte('|')
	b.WriteString(n.OrderBy)
	b.WriteByte('|')
	b.WriteString(n.Order)
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Statuses, ","))
	fmt.Fprintf(&b, "|%d|%d", n.Page, n.PerPage)

	sum := sha256.Sum256([]byte(b.String()))
	return listCachePrefix + hex.EncodeToString(sum[:])
}

// invalidateListCache drops every cached list result. Write paths call this;
// a skipped invalidation only means a stale read within the cache TTL.
func (s *rendezVousService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, listCachePrefix); err != nil {
		log.Printf("[RENDEZVOUS] list cache invalidation failed: %v", err)
	}
}
