// Package chat owns direct messages: the persisted Message record, its
// stores, and the HTTP surface that persists, lists, and routes messages.
package chat

import (
	"context"
	"time"

	v1 "besocial/shared/contracts/realtime/v1"
)

// Message is immutable once persisted. The realtime core only reads and
// forwards it; it never mutates it.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Text       string
	CreatedAt  time.Time
}

// Payload returns the wire representation delivered over the realtime channel
// and the REST API.
func (m Message) Payload() v1.MessagePayload {
	return v1.MessagePayload{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

// InsertMessageInput describes a message append request.
// ID and CreatedAt are assigned by the store.
type InsertMessageInput struct {
	SenderID   string
	ReceiverID string
	Text       string
	Now        time.Time
}

// MessageStore persists and queries direct messages.
//
// Requirements:
//   - History is complete and ordered by creation time ASC for any identity
//     pair; offline delivery relies on it (pull on reconnect).
//   - RecentBetween is ordered newest-first and bounded by limit.
type MessageStore interface {
	Insert(ctx context.Context, in InsertMessageInput) (Message, error)
	GetByID(ctx context.Context, id string) (Message, error)
	History(ctx context.Context, userA, userB string) ([]Message, error)
	RecentBetween(ctx context.Context, userA, userB string, limit int) ([]Message, error)
	Close() error
}
