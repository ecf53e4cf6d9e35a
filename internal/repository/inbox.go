package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/forgo/kinship/api/internal/database"
	"github.com/forgo/kinship/api/internal/model"
)

// InboxRepository handles in-app message database operations
type InboxRepository struct {
	db database.Database
}

// NewInboxRepository creates a new inbox repository
func NewInboxRepository(db database.Database) *InboxRepository {
	return &InboxRepository{db: db}
}

// Create delivers a message to a user's inbox
func (r *InboxRepository) Create(ctx context.Context, msg *model.InboxMessage) error {
	msg.CreatedOn = utcNow()

	content := map[string]interface{}{
		"user_id":    msg.UserID,
		"subject":    msg.Subject,
		"body":       msg.Body,
		"created_on": msg.CreatedOn,
	}
	putOpt(content, "sender_id", msg.SenderID)
	putOpt(content, "broadcast_id", msg.BroadcastID)
	putOpt(content, "read_on", msg.ReadOn)

	data, err := createRecord(ctx, r.db, "inbox_message", content)
	if err != nil {
		return fmt.Errorf("failed to create inbox message: %w", err)
	}
	msg.ID = convertSurrealID(data["id"])
	return nil
}

// GetByID retrieves a message by ID
func (r *InboxRepository) GetByID(ctx context.Context, id string) (*model.InboxMessage, error) {
	if !hasTable(id, "inbox_message") {
		return nil, nil
	}
	return queryOne[model.InboxMessage](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// ListByUser returns a user's messages, newest first
func (r *InboxRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.InboxMessage, error) {
	query := `SELECT * FROM inbox_message WHERE user_id = $user_id`
	if unreadOnly {
		query += ` AND read_on IS NONE`
	}
	query += ` ORDER BY created_on DESC`
	return queryList[model.InboxMessage](ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// CountUnread counts a user's unread messages
func (r *InboxRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() AS count FROM inbox_message WHERE user_id = $user_id AND read_on IS NONE GROUP ALL`
	return countRecords(ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// MarkRead stamps a message as read
func (r *InboxRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE type::record($id) SET read_on = $at`
	if _, err := r.db.Query(ctx, query, map[string]interface{}{"id": id, "at": at.UTC()}); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// Delete removes a message
func (r *InboxRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("failed to delete inbox message: %w", err)
	}
	return nil
}
