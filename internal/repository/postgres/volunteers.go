package postgres

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
)

const volunteerColumns = `id, event_id, user_id, role, notes, status, signed_up_on, updated_on`

// VolunteerRepository stores sign-ups in the volunteers table
type VolunteerRepository struct {
	db *sqlx.DB
}

// NewVolunteerRepository creates a new volunteer repository
func NewVolunteerRepository(db *sqlx.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// Create inserts a sign-up
func (r *VolunteerRepository) Create(ctx context.Context, v *model.Volunteer) error {
	now := utcNow()
	v.ID = newID()
	v.SignedUpOn, v.UpdatedOn = now, now

	query := `INSERT INTO volunteers (` + volunteerColumns + `) VALUES (
		:id, :event_id, :user_id, :role, :notes, :status, :signed_up_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, v); err != nil {
		return fmt.Errorf("failed to create volunteer: %w", err)
	}
	return nil
}

// GetActive returns the user's current sign-up for an event
func (r *VolunteerRepository) GetActive(ctx context.Context, eventID, userID string) (*model.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers
		WHERE event_id = $1 AND user_id = $2 AND status = 'signed_up'`
	return getOne[model.Volunteer](ctx, r.db, query, eventID, userID)
}

// CountActive counts an event's current sign-ups
func (r *VolunteerRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM volunteers WHERE event_id = $1 AND status = 'signed_up'`, eventID)
}

// ListByEvent returns an event's sign-ups in arrival order
func (r *VolunteerRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Volunteer, error) {
	return getList[model.Volunteer](ctx, r.db,
		`SELECT `+volunteerColumns+` FROM volunteers WHERE event_id = $1 ORDER BY signed_up_on ASC`, eventID)
}

// ListByUser returns a user's sign-ups, newest first
func (r *VolunteerRepository) ListByUser(ctx context.Context, userID string) ([]*model.Volunteer, error) {
	return getList[model.Volunteer](ctx, r.db,
		`SELECT `+volunteerColumns+` FROM volunteers WHERE user_id = $1 ORDER BY signed_up_on DESC`, userID)
}

// UpdateStatus changes a sign-up's status
func (r *VolunteerRepository) UpdateStatus(ctx context.Context, id string, status model.VolunteerStatus) error {
	query := `UPDATE volunteers SET status = $1, updated_on = $2 WHERE id = $3`
	if _, err := exec(ctx, r.db, query, string(status), utcNow(), id); err != nil {
		return fmt.Errorf("failed to update volunteer: %w", err)
	}
	return nil
}
