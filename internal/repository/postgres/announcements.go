package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const announcementColumns = `id, title, body, audience, pinned, published_on, expires_on,
	author_id, created_on, updated_on`

// AnnouncementRepository stores announcements in the announcements table
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates a new announcement repository
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts an announcement
func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	now := utcNow()
	a.ID = newID()
	a.CreatedOn, a.UpdatedOn = now, now

	query := `INSERT INTO announcements (` + announcementColumns + `) VALUES (
		:id, :title, :body, :audience, :pinned, :published_on, :expires_on,
		:author_id, :created_on, :updated_on)`
	if err := namedExec(ctx, r.db, query, a); err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

// GetByID retrieves an announcement by ID
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	return getOne[model.Announcement](ctx, r.db,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
}

// List returns announcements with pinned ones first, then newest first
func (r *AnnouncementRepository) List(ctx context.Context, filter model.AnnouncementFilter) ([]*model.Announcement, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Audiences != nil {
		args = append(args, pq.Array(audienceStrings(filter.Audiences)))
		conditions = append(conditions, "audience = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.ActiveAt != nil {
		args = append(args, filter.ActiveAt.UTC())
		at := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "published_on <= "+at+" AND (expires_on IS NULL OR expires_on > "+at+")")
	}

	query := `SELECT ` + announcementColumns + ` FROM announcements`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY pinned DESC, published_on DESC`

	return getList[model.Announcement](ctx, r.db, query, args...)
}

// Update replaces an announcement's stored fields
func (r *AnnouncementRepository) Update(ctx context.Context, a *model.Announcement) error {
	a.UpdatedOn = utcNow()
	query := `UPDATE announcements SET title = :title, body = :body, audience = :audience,
		pinned = :pinned, published_on = :published_on, expires_on = :expires_on,
		updated_on = :updated_on
		WHERE id = :id`
	if err := namedExec(ctx, r.db, query, a); err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM announcements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return nil
}
