package repository

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// ParticipantRepository handles event registration database operations
type ParticipantRepository struct {
	db database.Database
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db database.Database) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create records a registration
func (r *ParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	now := utcNow()
	p.RegisteredOn, p.UpdatedOn = now, now

	content := map[string]interface{}{
		"event_id":      p.EventID,
		"child_id":      p.ChildID,
		"parent_id":     p.ParentID,
		"status":        string(p.Status),
		"registered_on": p.RegisteredOn,
		"updated_on":    p.UpdatedOn,
	}
	data, err := createRecord(ctx, r.db, "participant", content)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	p.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves a registration by ID
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	if !hasTable(id, "participant") {
		return nil, nil
	}
	return queryOne[model.Participant](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetActiveByEventAndChild returns the child's registered or waitlisted entry for an event
func (r *ParticipantRepository) GetActiveByEventAndChild(ctx context.Context, eventID, childID string) (*model.Participant, error) {
	query := `SELECT * FROM participant
		WHERE event_id = $event_id AND child_id = $child_id AND status IN ['registered', 'waitlisted']
		LIMIT 1`
	return queryOne[model.Participant](ctx, r.db, query, map[string]interface{}{
		"event_id": eventID,
		"child_id": childID,
	})
}

// CountByStatus counts an event's registrations in one status
func (r *ParticipantRepository) CountByStatus(ctx context.Context, eventID string, status model.ParticipantStatus) (int, error) {
	query := `SELECT count() AS count FROM participant WHERE event_id = $event_id AND status = $status GROUP ALL`
	return countRecords(ctx, r.db, query, map[string]interface{}{
		"event_id": eventID,
		"status":   string(status),
	})
}

// NextWaitlisted returns the earliest waitlisted registration for an event
func (r *ParticipantRepository) NextWaitlisted(ctx context.Context, eventID string) (*model.Participant, error) {
	query := `SELECT * FROM participant
		WHERE event_id = $event_id AND status = 'waitlisted'
		ORDER BY registered_on ASC LIMIT 1`
	return queryOne[model.Participant](ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// UpdateStatus changes a registration's status
func (r *ParticipantRepository) UpdateStatus(ctx context.Context, id string, status model.ParticipantStatus) error {
	query := `UPDATE type::record($id) SET status = $status, updated_on = time::now()`
	if _, err := r.db.Query(ctx, query, map[string]interface{}{"id": id, "status": string(status)}); err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return nil
}

// ListByEvent returns an event's registrations in arrival order
func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error) {
	query := `SELECT * FROM participant WHERE event_id = $event_id ORDER BY registered_on ASC`
	return queryList[model.Participant](ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// ListByParent returns every registration a parent made, newest first
func (r *ParticipantRepository) ListByParent(ctx context.Context, parentID string) ([]*model.Participant, error) {
	query := `SELECT * FROM participant WHERE parent_id = $parent_id ORDER BY registered_on DESC`
	return queryList[model.Participant](ctx, r.db, query, map[string]interface{}{"parent_id": parentID})
}

// ListActiveByChild returns a child's registered and waitlisted entries
func (r *ParticipantRepository) ListActiveByChild(ctx context.Context, childID string) ([]*model.Participant, error) {
	query := `SELECT * FROM participant
		WHERE child_id = $child_id AND status IN ['registered', 'waitlisted']
		ORDER BY registered_on ASC`
	return queryList[model.Participant](ctx, r.db, query, map[string]interface{}{"child_id": childID})
}
