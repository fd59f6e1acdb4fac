package helpers

import (
	"net/http"
	"strconv"
	"strings"

	"rendezvous/internal/domain"
)

// ParseListQuery reads the selection filters for GET /rendez-vous from the
// query string. Statuses are intentionally not read here; the controller
// decides the allowlist from the caller's capabilities.
func ParseListQuery(r *http.Request) domain.RendezVousQuery {
	values := r.URL.Query()
	q := domain.RendezVousQuery{
		Organizer: strings.TrimSpace(values.Get("organizer")),
		GroupID:   strings.TrimSpace(values.Get("group")),
		Type:      strings.TrimSpace(values.Get("type")),
		Search:    strings.TrimSpace(values.Get("search")),
		OrderBy:   strings.TrimSpace(values.Get("order_by")),
		Order:     strings.ToUpper(strings.TrimSpace(values.Get("order"))),
	}
	if attendee := strings.TrimSpace(values.Get("attendee")); attendee != "" {
		q.Attendees = splitIDs(attendee)
	}
	if exclude := strings.TrimSpace(values.Get("exclude")); exclude != "" {
		q.Exclude = splitIDs(exclude)
	}
	if s := values.Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			q.Page = v
		}
	}
	if s := values.Get("per_page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			q.PerPage = v
		}
	}
	return q
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size, and total count.
// TotalPages is computed as ceiling(total / perPage); if perPage is 0, TotalPages is 0.
func NewPaginationMeta(page, perPage, total int) PaginationMeta {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
