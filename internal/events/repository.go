package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscore/campuscore/internal/shared"
)

// Repository defines persistence operations for events.
type Repository interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id int64) (Event, error)
	List(ctx context.Context, req ListEventsRequest) ([]Event, int, error)
	Update(ctx context.Context, event Event) (Event, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const eventColumns = `id, title, description, location, organizer_id, starts_at, ends_at, created_at, updated_at`

// Create inserts a new event.
func (r *PGRepository) Create(ctx context.Context, event Event) (Event, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO events (title, description, location, organizer_id, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+eventColumns,
		event.Title, event.Description, event.Location, event.OrganizerID, event.StartsAt, event.EndsAt)
	return scanEvent(row)
}

// GetByID fetches one event.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, shared.ErrNotFound
		}
		return Event{}, err
	}
	return event, nil
}

// List returns a filtered page of events plus the unpaged total. The range
// filter matches any event overlapping [From, To].
func (r *PGRepository) List(ctx context.Context, req ListEventsRequest) ([]Event, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.From != nil {
		args = append(args, *req.From)
		where = append(where, fmt.Sprintf("ends_at >= $%d", len(args)))
	}
	if req.To != nil {
		args = append(args, *req.To)
		where = append(where, fmt.Sprintf("starts_at <= $%d", len(args)))
	}
	if req.OrganizerID != nil {
		args = append(args, *req.OrganizerID)
		where = append(where, fmt.Sprintf("organizer_id=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE `+clause+
			fmt.Sprintf(` ORDER BY starts_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, event)
	}
	return out, total, rows.Err()
}

// Update persists editable fields.
func (r *PGRepository) Update(ctx context.Context, event Event) (Event, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE events SET title=$2, description=$3, location=$4, starts_at=$5, ends_at=$6, updated_at=NOW()
		 WHERE id=$1 RETURNING `+eventColumns,
		event.ID, event.Title, event.Description, event.Location, event.StartsAt, event.EndsAt)
	updated, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, shared.ErrNotFound
		}
		return Event{}, err
	}
	return updated, nil
}

// Delete removes the event.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.OrganizerID, &e.StartsAt, &e.EndsAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

var _ Repository = (*PGRepository)(nil)
