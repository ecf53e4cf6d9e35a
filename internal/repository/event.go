package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// EventRepository handles event database operations
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

func eventContent(e *model.Event) map[string]interface{} {
	content := map[string]interface{}{
		"title":           e.Title,
		"start_time":      e.StartTime,
		"audience":        string(e.Audience),
		"capacity":        e.Capacity,
		"volunteer_slots": e.VolunteerSlots,
		"status":          string(e.Status),
		"created_by":      e.CreatedBy,
		"created_on":      e.CreatedOn,
		"updated_on":      e.UpdatedOn,
	}
	putOpt(content, "description", e.Description)
	putOpt(content, "location", e.Location)
	putOpt(content, "end_time", e.EndTime)
	putOpt(content, "min_age", e.MinAge)
	putOpt(content, "max_age", e.MaxAge)
	return content
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	now := utcNow()
	event.CreatedOn, event.UpdatedOn = now, now

	data, err := createRecord(ctx, r.db, "event", eventContent(event))
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	event.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if !hasTable(id, "event") {
		return nil, nil
	}
	return queryOne[model.Event](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// List returns events ordered by start time
func (r *EventRepository) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	var conditions []string
	vars := map[string]interface{}{}

	if filter.Audiences != nil {
		conditions = append(conditions, "audience IN $audiences")
		vars["audiences"] = audienceStrings(filter.Audiences)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_time > $after")
		vars["after"] = *filter.StartsAfter
	}

	query := `SELECT * FROM event`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_time ASC`

	return queryList[model.Event](ctx, r.db, query, vars)
}

// Update replaces an event's stored fields
func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedOn = utcNow()
	query := `UPDATE type::record($id) CONTENT $content`
	vars := map[string]interface{}{"id": event.ID, "content": eventContent(event)}

	if _, err := r.db.Query(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete removes an event with its registrations and volunteer sign-ups
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"event": id}
	err := database.NewAtomicBatch().
		Add(`DELETE participant WHERE event_id = $event`, vars).
		Add(`DELETE volunteer WHERE event_id = $event`, vars).
		Add(`DELETE type::record($event)`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// MarkCompleted moves scheduled events that ended before the cutoff to
// completed and returns how many changed. Events without an end time are
// judged by their start time.
func (r *EventRepository) MarkCompleted(ctx context.Context, endedBefore time.Time) (int, error) {
	query := `UPDATE event SET status = 'completed', updated_on = time::now()
		WHERE status = 'scheduled' AND (end_time ?? start_time) < $before
		RETURN id`

	rows, err := queryRecords(ctx, r.db, query, map[string]interface{}{"before": endedBefore.UTC()})
	if err != nil {
		return 0, fmt.Errorf("failed to complete events: %w", err)
	}
	return len(rows), nil
}

func audienceStrings(audiences []model.Audience) []string {
	out := make([]string, len(audiences))
	for i, a := range audiences {
		out[i] = string(a)
	}
	return out
}
