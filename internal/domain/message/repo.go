package message

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)

	// ListBetween returns the full exchange between two users, oldest
	// first, ties broken by id so the order is stable.
	ListBetween(ctx context.Context, userA, userB uuid.UUID, limit, offset int) ([]*Message, int, error)

	// Conversations groups a user's messages by partner: latest message
	// plus unread count per partner, most recent conversation first.
	Conversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)

	// MarkRead stamps read_at on every unread message from partner to
	// reader and reports how many were stamped.
	MarkRead(ctx context.Context, readerID, partnerID uuid.UUID) (int, error)

	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}
