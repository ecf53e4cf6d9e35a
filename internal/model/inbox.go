package model

import "time"

// InboxMessage is an in-app message delivered to a single user
type InboxMessage struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Subject     string     `json:"subject" db:"subject"`
	Body        string     `json:"body" db:"body"`
	SenderID    *string    `json:"sender_id,omitempty" db:"sender_id"`
	BroadcastID *string    `json:"broadcast_id,omitempty" db:"broadcast_id"`
	ReadOn      *time.Time `json:"read_on,omitempty" db:"read_on"`
	CreatedOn   time.Time  `json:"created_on" db:"created_on"`
}

// IsRead returns true once the recipient has opened the message
func (m *InboxMessage) IsRead() bool {
	return m.ReadOn != nil
}

// UnreadCount is the response body for the unread counter
type UnreadCount struct {
	Unread int `json:"unread"`
}
