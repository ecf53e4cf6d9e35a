package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// AnnouncementRepository handles announcement database operations
type AnnouncementRepository struct {
	db database.Database
}

// NewAnnouncementRepository creates a new announcement repository
func NewAnnouncementRepository(db database.Database) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func announcementContent(a *model.Announcement) map[string]interface{} {
	content := map[string]interface{}{
		"title":        a.Title,
		"body":         a.Body,
		"audience":     string(a.Audience),
		"pinned":       a.Pinned,
		"published_on": a.PublishedOn,
		"author_id":    a.AuthorID,
		"created_on":   a.CreatedOn,
		"updated_on":   a.UpdatedOn,
	}
	putOpt(content, "expires_on", a.ExpiresOn)
	return content
}

// Create stores a new announcement
func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	now := utcNow()
	a.CreatedOn, a.UpdatedOn = now, now

	data, err := createRecord(ctx, r.db, "announcement", announcementContent(a))
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	a.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves an announcement by ID
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	if !hasTable(id, "announcement") {
		return nil, nil
	}
	return queryOne[model.Announcement](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// List returns announcements with pinned ones first, then newest first
func (r *AnnouncementRepository) List(ctx context.Context, filter model.AnnouncementFilter) ([]*model.Announcement, error) {
	var conditions []string
	vars := map[string]interface{}{}

	if filter.Audiences != nil {
		conditions = append(conditions, "audience IN $audiences")
		vars["audiences"] = audienceStrings(filter.Audiences)
	}
	if filter.ActiveAt != nil {
		conditions = append(conditions, "published_on <= $at AND (expires_on IS NONE OR expires_on > $at)")
		vars["at"] = filter.ActiveAt.UTC()
	}

	query := `SELECT * FROM announcement`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY pinned DESC, published_on DESC`

	return queryList[model.Announcement](ctx, r.db, query, vars)
}

// Update replaces an announcement's stored fields
func (r *AnnouncementRepository) Update(ctx context.Context, a *model.Announcement) error {
	a.UpdatedOn = utcNow()
	query := `UPDATE type::record($id) CONTENT $content`
	vars := map[string]interface{}{"id": a.ID, "content": announcementContent(a)}

	if _, err := r.db.Query(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return nil
}
