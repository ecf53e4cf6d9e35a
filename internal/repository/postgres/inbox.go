package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/jmoiron/sqlx"
)

const inboxColumns = `id, user_id, subject, body, sender_id, broadcast_id, read_on, created_on`

// InboxRepository stores in-app messages in the inbox_messages table
type InboxRepository struct {
	db *sqlx.DB
}

// NewInboxRepository creates a new inbox repository
func NewInboxRepository(db *sqlx.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// Create delivers a message to a user's inbox
func (r *InboxRepository) Create(ctx context.Context, msg *model.InboxMessage) error {
	msg.ID = newID()
	msg.CreatedOn = utcNow()

	query := `INSERT INTO inbox_messages (` + inboxColumns + `) VALUES (
		:id, :user_id, :subject, :body, :sender_id, :broadcast_id, :read_on, :created_on)`
	if err := namedExec(ctx, r.db, query, msg); err != nil {
		return fmt.Errorf("failed to create inbox message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *InboxRepository) GetByID(ctx context.Context, id string) (*model.InboxMessage, error) {
	return getOne[model.InboxMessage](ctx, r.db, `SELECT `+inboxColumns+` FROM inbox_messages WHERE id = $1`, id)
}

// ListByUser returns a user's messages, newest first
func (r *InboxRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.InboxMessage, error) {
	query := `SELECT ` + inboxColumns + ` FROM inbox_messages WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_on IS NULL`
	}
	query += ` ORDER BY created_on DESC`
	return getList[model.InboxMessage](ctx, r.db, query, userID)
}

// CountUnread counts a user's unread messages
func (r *InboxRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM inbox_messages WHERE user_id = $1 AND read_on IS NULL`, userID)
}

// MarkRead stamps a message as read
func (r *InboxRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	if _, err := exec(ctx, r.db, `UPDATE inbox_messages SET read_on = $1 WHERE id = $2`, at.UTC(), id); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// Delete removes a message
func (r *InboxRepository) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM inbox_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete inbox message: %w", err)
	}
	return nil
}
