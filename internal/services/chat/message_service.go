package chat

import (
	"context"
	"errors"
	"unicode/utf8"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/pkg/apperrors"
)

// SentMessage is a persisted direct message with its sender's public profile.
type SentMessage struct {
	Message *models.Message
	Sender  models.PublicUser
}

type MessageService struct {
	users         repositories.UserStore
	friends       repositories.FriendStore
	blocks        repositories.BlockStore
	messages      repositories.MessageStore
	maxContentLen int
}

func NewMessageService(gw repositories.Gateway, maxContentLen int) *MessageService {
	return &MessageService{
		users:         gw,
		friends:       gw,
		blocks:        gw,
		messages:      gw,
		maxContentLen: maxContentLen,
	}
}

// Send checks friendship then blocks in both directions, and only then
// stores the message. senderID always comes from the authenticated
// connection.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string, msgType models.MessageType) (*SentMessage, error) {
	if s.maxContentLen > 0 && utf8.RuneCountInString(content) > s.maxContentLen {
		return nil, apperrors.ErrContentTooLong
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	friends, err := s.friends.IsFriend(ctx, senderID, receiverID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to send message")
	}
	if !friends {
		return nil, apperrors.ErrNotFriends
	}

	blocked, err := s.blocks.IsBlocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to send message")
	}
	if blocked {
		return nil, apperrors.ErrBlocked
	}

	msg, err := s.messages.CreateMessage(ctx, models.NewMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
	})
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to send message")
	}

	sent := &SentMessage{Message: msg, Sender: models.PublicUser{ID: senderID}}
	sender, err := s.users.GetUser(ctx, senderID)
	switch {
	case err == nil:
		sent.Sender = sender.Public()
	case errors.Is(err, repositories.ErrUserNotFound):
		logger.CtxWarn(ctx, "sender vanished after message was stored", "message_id", msg.ID)
	default:
		// message is already stored, push with the bare id
		logger.CtxWithError(ctx, "failed to load sender profile", err, "message_id", msg.ID)
	}
	return sent, nil
}
