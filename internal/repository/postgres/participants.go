package postgres

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
)

const participantColumns = `id, event_id, child_id, parent_id, status, registered_on, updated_on`

// ParticipantRepository stores registrations in the participants table
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create inserts a registration
func (r *ParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	now := utcNow()
	p.ID = newID()
	p.RegisteredOn, p.UpdatedOn = now, now

	query := `INSERT INTO participants (` + participantColumns + `) VALUES (
		:id, :event_id, :child_id, :parent_id, :status, :registered_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, p); err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// GetByID retrieves a registration by ID
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	return getOne[model.Participant](ctx, r.db, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)
}

// GetActiveByEventAndChild returns the child's registered or waitlisted entry for an event
func (r *ParticipantRepository) GetActiveByEventAndChild(ctx context.Context, eventID, childID string) (*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants
		WHERE event_id = $1 AND child_id = $2 AND status IN ('registered', 'waitlisted')`
	return getOne[model.Participant](ctx, r.db, query, eventID, childID)
}

// CountByStatus counts an event's registrations in one status
func (r *ParticipantRepository) CountByStatus(ctx context.Context, eventID string, status model.ParticipantStatus) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM participants WHERE event_id = $1 AND status = $2`, eventID, string(status))
}

// NextWaitlisted returns the earliest waitlisted registration for an event
func (r *ParticipantRepository) NextWaitlisted(ctx context.Context, eventID string) (*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants
		WHERE event_id = $1 AND status = 'waitlisted'
		ORDER BY registered_on ASC LIMIT 1`
	return getOne[model.Participant](ctx, r.db, query, eventID)
}

// UpdateStatus changes a registration's status
func (r *ParticipantRepository) UpdateStatus(ctx context.Context, id string, status model.ParticipantStatus) error {
	query := `UPDATE participants SET status = $1, updated_on = $2 WHERE id = $3`
	if _, err := exec(ctx, r.db, query, string(status), utcNow(), id); err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return nil
}

// ListByEvent returns an event's registrations in arrival order
func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error) {
	return getList[model.Participant](ctx, r.db,
		`SELECT `+participantColumns+` FROM participants WHERE event_id = $1 ORDER BY registered_on ASC`, eventID)
}

// ListByParent returns every registration a parent made, newest first
func (r *ParticipantRepository) ListByParent(ctx context.Context, parentID string) ([]*model.Participant, error) {
	return getList[model.Participant](ctx, r.db,
		`SELECT `+participantColumns+` FROM participants WHERE parent_id = $1 ORDER BY registered_on DESC`, parentID)
}

// ListActiveByChild returns a child's registered and waitlisted entries
func (r *ParticipantRepository) ListActiveByChild(ctx context.Context, childID string) ([]*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants
		WHERE child_id = $1 AND status IN ('registered', 'waitlisted')
		ORDER BY registered_on ASC`
	return getList[model.Participant](ctx, r.db, query, childID)
}
