package postgres

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
)

const childColumns = `id, parent_id, first_name, last_name, birth_date, notes, created_on, updated_on`

// ChildRepository stores children in the children table
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// Create inserts a child
func (r *ChildRepository) Create(ctx context.Context, child *model.Child) error {
	now := utcNow()
	child.ID = newID()
	child.CreatedOn, child.UpdatedOn = now, now

	query := `INSERT INTO children (` + childColumns + `) VALUES (
		:id, :parent_id, :first_name, :last_name, :birth_date, :notes, :created_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, child); err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

// GetByID retrieves a child by ID
func (r *ChildRepository) GetByID(ctx context.Context, id string) (*model.Child, error) {
	return getOne[model.Child](ctx, r.db, `SELECT `+childColumns+` FROM children WHERE id = $1`, id)
}

// ListByParent returns a parent's children, oldest record first
func (r *ChildRepository) ListByParent(ctx context.Context, parentID string) ([]*model.Child, error) {
	return getList[model.Child](ctx, r.db,
		`SELECT `+childColumns+` FROM children WHERE parent_id = $1 ORDER BY created_on ASC`, parentID)
}

// Update replaces a child's stored fields
func (r *ChildRepository) Update(ctx context.Context, child *model.Child) error {
	child.UpdatedOn = utcNow()
	query := `UPDATE children SET first_name = :first_name, last_name = :last_name,
		birth_date = :birth_date, notes = :notes, updated_on = :updated_on
		WHERE id = :id`
	if err := namedExec(ctx, r.db, query, child); err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// Delete removes a child
func (r *ChildRepository) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM children WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}
