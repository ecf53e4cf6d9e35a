package repository

import (
	"context"
	"fmt"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// ChildRepository handles child database operations
type ChildRepository struct {
	db database.Database
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.Database) *ChildRepository {
	return &ChildRepository{db: db}
}

func childContent(c *model.Child) map[string]interface{} {
	content := map[string]interface{}{
		"parent_id":  c.ParentID,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"birth_date": c.BirthDate,
		"created_on": c.CreatedOn,
		"updated_on": c.UpdatedOn,
	}
	putOpt(content, "notes", c.Notes)
	return content
}

// Create creates a new child
func (r *ChildRepository) Create(ctx context.Context, child *model.Child) error {
	now := utcNow()
	child.CreatedOn, child.UpdatedOn = now, now

	data, err := createRecord(ctx, r.db, "child", childContent(child))
	if err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	child.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves a child by ID
func (r *ChildRepository) GetByID(ctx context.Context, id string) (*model.Child, error) {
	if !hasTable(id, "child") {
		return nil, nil
	}
	return queryOne[model.Child](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// ListByParent returns a parent's children, oldest record first
func (r *ChildRepository) ListByParent(ctx context.Context, parentID string) ([]*model.Child, error) {
	query := `SELECT * FROM child WHERE parent_id = $parent_id ORDER BY created_on ASC`
	return queryList[model.Child](ctx, r.db, query, map[string]interface{}{"parent_id": parentID})
}

// Update replaces a child's stored fields
func (r *ChildRepository) Update(ctx context.Context, child *model.Child) error {
	child.UpdatedOn = utcNow()
	query := `UPDATE type::record($id) CONTENT $content`
	vars := map[string]interface{}{"id": child.ID, "content": childContent(child)}

	if _, err := r.db.Query(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// Delete removes a child
func (r *ChildRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}
