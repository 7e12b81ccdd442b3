// Package message is the chat layer between parents and doctors: text,
// attachments and GIFs, grouped into per-partner conversations with
// unread counts and read receipts.
package message

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pediacare/api/internal/domain/identity"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("message belongs to another conversation")
	ErrSelfMessage     = errors.New("cannot message yourself")
)

// Message types.
const (
	TypeText    = "text"
	TypeImage   = "image"
	TypeFile    = "file"
	TypeSticker = "sticker"
	TypeGIF     = "gif"
)

type Message struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	SenderID      uuid.UUID  `json:"sender_id"`
	ReceiverID    uuid.UUID  `json:"receiver_id"`
	Content       *string    `json:"content,omitempty"`
	MessageType   string     `json:"message_type"`
	FileURL       *string    `json:"file_url,omitempty"`
	StickerURL    *string    `json:"sticker_url,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SendRequest is a plain text message. Attachments and GIFs have their
// own entry points.
type SendRequest struct {
	ReceiverID    uuid.UUID  `json:"receiver_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Content       string     `json:"content"`
}

func (r *SendRequest) Validate() error {
	if r.ReceiverID == uuid.Nil {
		return fmt.Errorf("receiver_id is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// GIFRequest carries the Giphy URL picked by the sender.
type GIFRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id"`
	GIFURL     string    `json:"gif_url"`
}

func (r *GIFRequest) Validate() error {
	if r.ReceiverID == uuid.Nil {
		return fmt.Errorf("receiver_id is required")
	}
	if r.GIFURL == "" {
		return fmt.Errorf("gif_url is required")
	}
	return nil
}

// Conversation summarizes one chat partner: who they are, the latest
// message exchanged and how many of their messages are still unread.
type Conversation struct {
	PartnerID   uuid.UUID         `json:"partner_id"`
	Partner     *identity.Profile `json:"partner,omitempty"`
	LastMessage *Message          `json:"last_message"`
	UnreadCount int               `json:"unread_count"`
}
