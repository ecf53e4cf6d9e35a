package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const eventColumns = `id, title, description, location, start_time, end_time, audience, capacity,
	volunteer_slots, min_age, max_age, status, created_by, created_on, updated_on`

// EventRepository stores events in the events table
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts an event
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	now := utcNow()
	event.ID = newID()
	event.CreatedOn, event.UpdatedOn = now, now

	query := `INSERT INTO events (` + eventColumns + `) VALUES (
		:id, :title, :description, :location, :start_time, :end_time, :audience, :capacity,
		:volunteer_slots, :min_age, :max_age, :status, :created_by, :created_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return getOne[model.Event](ctx, r.db, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// List returns events ordered by start time
func (r *EventRepository) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Audiences != nil {
		args = append(args, pq.Array(audienceStrings(filter.Audiences)))
		conditions = append(conditions, "audience = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.StartsAfter != nil {
		args = append(args, filter.StartsAfter.UTC())
		conditions = append(conditions, "start_time > $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_time ASC`

	return getList[model.Event](ctx, r.db, query, args...)
}

// Update replaces an event's stored fields
func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedOn = utcNow()
	query := `UPDATE events SET title = :title, description = :description, location = :location,
		start_time = :start_time, end_time = :end_time, audience = :audience, capacity = :capacity,
		volunteer_slots = :volunteer_slots, min_age = :min_age, max_age = :max_age,
		status = :status, updated_on = :updated_on
		WHERE id = :id`
	if err := namedExec(ctx, r.db, query, event); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete removes an event; registrations and sign-ups cascade
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// MarkCompleted moves scheduled events that ended before the cutoff to
// completed. Events without an end time are judged by their start time.
func (r *EventRepository) MarkCompleted(ctx context.Context, endedBefore time.Time) (int, error) {
	query := `UPDATE events SET status = 'completed', updated_on = $1
		WHERE status = 'scheduled' AND COALESCE(end_time, start_time) < $2`
	n, err := exec(ctx, r.db, query, utcNow(), endedBefore.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to complete events: %w", err)
	}
	return int(n), nil
}

func audienceStrings(audiences []model.Audience) []string {
	out := make([]string, len(audiences))
	for i, a := range audiences {
		out[i] = string(a)
	}
	return out
}
