package domain

import "context"

// RendezVousType is a category term. The record stores the slug only; display
// metadata belongs to the type provider.
// swagger:model RendezVousType
type RendezVousType struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// TypeRepository defines storage for rendez-vous types.
type TypeRepository interface {
	// EnsureType resolves a type by slug, creating it if missing, and
	// returns its ID.
	EnsureType(ctx context.Context, slug, name string) (typeID string, err error)
	GetBySlug(ctx context.Context, slug string) (*RendezVousType, error)
	List(ctx context.Context) ([]*RendezVousType, error)
}
