package message

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/identity"
	"github.com/pediacare/api/internal/platform/blobstore"
	"github.com/pediacare/api/internal/platform/realtime"
)

type Service struct {
	repo     Repository
	profiles identity.ProfileRepository
	blobs    blobstore.BlobStore
	events   realtime.Publisher
	logger   zerolog.Logger
}

func NewService(repo Repository, profiles identity.ProfileRepository, blobs blobstore.BlobStore, events realtime.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		blobs:    blobs,
		events:   events,
		logger:   logger,
	}
}

func (s *Service) checkParticipants(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return ErrSelfMessage
	}
	_, err := s.profiles.GetByID(ctx, receiverID)
	return err
}

// SendText delivers a plain text message.
func (s *Service) SendText(ctx context.Context, senderID uuid.UUID, req *SendRequest) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	m := &Message{
		AppointmentID: req.AppointmentID,
		SenderID:      senderID,
		ReceiverID:    req.ReceiverID,
		Content:       &content,
		MessageType:   TypeText,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m, "message.new")
	return m, nil
}

// SendAttachment uploads the file and delivers it as an image or file
// message depending on its content type.
func (s *Service) SendAttachment(ctx context.Context, senderID, receiverID uuid.UUID, fileName, contentType string, content io.Reader) (*Message, error) {
	if err := s.checkParticipants(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		OwnerID:     senderID.String(),
		Category:    blobstore.CategoryChatAttachment,
	}, content)
	if err != nil {
		return nil, err
	}

	messageType := TypeFile
	if strings.HasPrefix(contentType, "image/") {
		messageType = TypeImage
	}
	m := &Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     &fileName,
		MessageType: messageType,
		FileURL:     &meta.URL,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m, "message.new")
	return m, nil
}

// SendGIF delivers a picked GIF by URL.
func (s *Service) SendGIF(ctx context.Context, senderID uuid.UUID, req *GIFRequest) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	m := &Message{
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		MessageType: TypeGIF,
		StickerURL:  &req.GIFURL,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m, "message.new")
	return m, nil
}

// History returns the exchange with one partner, oldest first.
func (s *Service) History(ctx context.Context, userID, partnerID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	return s.repo.ListBetween(ctx, userID, partnerID, limit, offset)
}

// ListConversations returns the user's chat partners with the latest
// message and unread count each. Partner profiles are attached when they
// can be loaded.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	conversations, err := s.repo.Conversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range conversations {
		p, err := s.profiles.GetByID(ctx, c.PartnerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("partner_id", c.PartnerID.String()).Msg("could not load conversation partner")
			continue
		}
		c.Partner = p
	}
	return conversations, nil
}

// MarkConversationRead stamps every unread message from the partner and
// tells them their messages were seen.
func (s *Service) MarkConversationRead(ctx context.Context, readerID, partnerID uuid.UUID) (int, error) {
	count, err := s.repo.MarkRead(ctx, readerID, partnerID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		payload := map[string]string{"reader_id": readerID.String()}
		ev, err := realtime.NewEvent("message.read", realtime.MessagesTopic(partnerID.String()), payload)
		if err == nil {
			if err := s.events.Publish(ctx, ev); err != nil {
				s.logger.Error().Err(err).Msg("failed to publish read receipt")
			}
		}
	}
	return count, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) publish(ctx context.Context, m *Message, eventType string) {
	for _, userID := range []uuid.UUID{m.SenderID, m.ReceiverID} {
		ev, err := realtime.NewEvent(eventType, realtime.MessagesTopic(userID.String()), m)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to build message event")
			return
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish message event")
		}
	}
}
