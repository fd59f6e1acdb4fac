package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"rendezvous/internal/domain"
)

type rendezVousRepository struct {
	DB *sql.DB
}

// NewRendezVousRepository returns a domain.RendezVousRepository implemented
// with Postgres.
func NewRendezVousRepository(db *sql.DB) domain.RendezVousRepository {
	return &rendezVousRepository{DB: db}
}

const rendezVousColumns = `id, organizer_id, title, venue, description, duration, type_slug, status, privacy, group_id, report, definitive_date, created_at, modified_at`

func (r *rendezVousRepository) Create(ctx context.Context, rv *domain.RendezVous) error {
	query := `
		INSERT INTO rendez_vous (organizer_id, title, venue, description, duration, type_slug, status, privacy, group_id, report, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		rv.OrganizerID, rv.Title, rv.Venue, rv.Description, rv.Duration, rv.Type,
		rv.Status, rv.Privacy, rv.GroupID, rv.Report, rv.CreatedAt, rv.ModifiedAt,
	).Scan(&rv.ID)
}

func (r *rendezVousRepository) GetByID(ctx context.Context, id string) (*domain.RendezVous, error) {
	query := `SELECT ` + rendezVousColumns + ` FROM rendez_vous WHERE id = $1`
	rv, err := scanRendezVous(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rv, nil
}

func (r *rendezVousRepository) Update(ctx context.Context, rv *domain.RendezVous) error {
	query := `
		UPDATE rendez_vous
		SET organizer_id = $2, title = $3, venue = $4, description = $5, duration = $6,
		    type_slug = $7, status = $8, privacy = $9, report = $10, definitive_date = $11,
		    modified_at = $12
		WHERE id = $1
	`
	var defDate sql.NullTime
	if rv.DefinitiveDate != nil {
		defDate = sql.NullTime{Time: *rv.DefinitiveDate, Valid: true}
	}
	result, err := r.DB.ExecContext(ctx, query,
		rv.ID, rv.OrganizerID, rv.Title, rv.Venue, rv.Description, rv.Duration,
		rv.Type, rv.Status, rv.Privacy, rv.Report, defDate, rv.ModifiedAt,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *rendezVousRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM rendez_vous WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// orderColumns maps query order-by names to sortable columns.
var orderColumns = map[string]string{
	domain.OrderByModified: "modified_at",
	"created":              "created_at",
	"title":                "title",
}

func (r *rendezVousRepository) List(ctx context.Context, q domain.RendezVousQuery) ([]*domain.RendezVous, int, error) {
	where := []string{"status = ANY($1)"}
	args := []interface{}{pq.Array(q.Statuses)}
	n := 2

	if q.Organizer != "" {
		where = append(where, fmt.Sprintf("organizer_id = $%d", n))
		args = append(args, q.Organizer)
		n++
	}
	if len(q.Attendees) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM rendez_vous_attendees a WHERE a.rendez_vous_id = rendez_vous.id AND a.user_id = ANY($%d))", n))
		args = append(args, pq.Array(q.Attendees))
		n++
	}
	if q.GroupID != "" {
		where = append(where, fmt.Sprintf("group_id = $%d", n))
		args = append(args, q.GroupID)
		n++
	}
	if q.Type != "" {
		where = append(where, fmt.Sprintf("type_slug = $%d", n))
		args = append(args, q.Type)
		n++
	}
	if len(q.Exclude) > 0 {
		where = append(where, fmt.Sprintf("NOT (id = ANY($%d))", n))
		args = append(args, pq.Array(q.Exclude))
		n++
	}
	if q.Search != "" {
		where = append(where, fmt.Sprintf(`title ILIKE '%%' || $%d || '%%' ESCAPE '\'`, n))
		args = append(args, escapeLike(q.Search))
		n++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM rendez_vous WHERE ` + whereClause
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderColumn, ok := orderColumns[q.OrderBy]
	if !ok {
		orderColumn = "modified_at"
	}
	direction := "DESC"
	if q.Order == domain.OrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM rendez_vous WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		rendezVousColumns, whereClause, orderColumn, direction, n, n+1)
	args = append(args, q.PerPage, q.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*domain.RendezVous, 0)
	for rows.Next() {
		rv, err := scanRendezVous(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rv)
	}
	return items, total, rows.Err()
}

// escapeLike neutralizes LIKE metacharacters so a search term only ever
// matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRendezVous(row rowScanner) (*domain.RendezVous, error) {
	rv := &domain.RendezVous{}
	var venue, description, duration, typeSlug, privacy, groupID, report sql.NullString
	var defDate sql.NullTime
	err := row.Scan(
		&rv.ID, &rv.OrganizerID, &rv.Title, &venue, &description, &duration, &typeSlug,
		&rv.Status, &privacy, &groupID, &report, &defDate, &rv.CreatedAt, &rv.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	rv.Venue = venue.String
	rv.Description = description.String
	rv.Duration = duration.String
	rv.Type = typeSlug.String
	rv.Privacy = privacy.String
	rv.GroupID = groupID.String
	rv.Report = report.String
	if defDate.Valid {
		t := defDate.Time
		rv.DefinitiveDate = &t
	}
	return rv, nil
}
