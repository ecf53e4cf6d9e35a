package repository

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// VolunteerRepository handles volunteer sign-up database operations
type VolunteerRepository struct {
	db database.Database
}

// NewVolunteerRepository creates a new volunteer repository
func NewVolunteerRepository(db database.Database) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// Create records a sign-up
func (r *VolunteerRepository) Create(ctx context.Context, v *model.Volunteer) error {
	now := utcNow()
	v.SignedUpOn, v.UpdatedOn = now, now

	content := map[string]interface{}{
		"event_id":     v.EventID,
		"user_id":      v.UserID,
		"status":       string(v.Status),
		"signed_up_on": v.SignedUpOn,
		"updated_on":   v.UpdatedOn,
	}
	putOpt(content, "role", v.Role)
	putOpt(content, "notes", v.Notes)

	data, err := createRecord(ctx, r.db, "volunteer", content)
	if err != nil {
		return fmt.Errorf("failed to create volunteer: %w", err)
	}
	v.ID = convertSurrealID(data["id"])
	return nil
}

// GetActive returns the user's current sign-up for an event
func (r *VolunteerRepository) GetActive(ctx context.Context, eventID, userID string) (*model.Volunteer, error) {
	query := `SELECT * FROM volunteer
		WHERE event_id = $event_id AND user_id = $user_id AND status = 'signed_up'
		LIMIT 1`
	return queryOne[model.Volunteer](ctx, r.db, query, map[string]interface{}{
		"event_id": eventID,
		"user_id":  userID,
	})
}

// CountActive counts an event's current sign-ups
func (r *VolunteerRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	query := `SELECT count() AS count FROM volunteer WHERE event_id = $event_id AND status = 'signed_up' GROUP ALL`
	return countRecords(ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// ListByEvent returns an event's sign-ups in arrival order
func (r *VolunteerRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Volunteer, error) {
	query := `SELECT * FROM volunteer WHERE event_id = $event_id ORDER BY signed_up_on ASC`
	return queryList[model.Volunteer](ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// ListByUser returns a user's sign-ups, newest first
func (r *VolunteerRepository) ListByUser(ctx context.Context, userID string) ([]*model.Volunteer, error) {
	query := `SELECT * FROM volunteer WHERE user_id = $user_id ORDER BY signed_up_on DESC`
	return queryList[model.Volunteer](ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// UpdateStatus changes a sign-up's status
func (r *VolunteerRepository) UpdateStatus(ctx context.Context, id string, status model.VolunteerStatus) error {
	query := `UPDATE type::record($id) SET status = $status, updated_on = time::now()`
	if _, err := r.db.Query(ctx, query, map[string]interface{}{"id": id, "status": string(status)}); err != nil {
		return fmt.Errorf("failed to update volunteer: %w", err)
	}
	return nil
}
