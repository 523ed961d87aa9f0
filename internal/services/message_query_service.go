package services

import (
	"context"

	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/pkg/apperrors"
)

// MessageQueryService serves stored conversations to the REST api. Delivery
// of new messages goes through the websocket relays instead.
type MessageQueryService struct {
	friends      repositories.FriendStore
	messages     repositories.MessageStore
	reactions    repositories.ReactionStore
	defaultLimit int
}

func NewMessageQueryService(gw repositories.Gateway, defaultLimit int) *MessageQueryService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &MessageQueryService{friends: gw, messages: gw, reactions: gw, defaultLimit: defaultLimit}
}

// History returns the latest messages with friendID, oldest first.
func (s *MessageQueryService) History(ctx context.Context, userID, friendID uint, limit int) ([]models.MessageWithReactions, error) {
	ok, err := s.friends.IsFriend(ctx, userID, friendID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load messages")
	}
	if !ok {
		return nil, apperrors.ErrHistoryForbidden
	}

	if limit <= 0 || limit > s.defaultLimit*4 {
		limit = s.defaultLimit
	}
	messages, err := s.messages.GetMessagesBetween(ctx, userID, friendID, limit)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load messages")
	}

	ids := make([]uint, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	byMessage, err := s.reactions.GetReactionsForMessages(ctx, ids)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load reactions")
	}

	out := make([]models.MessageWithReactions, 0, len(messages))
	for _, m := range messages {
		reactions := byMessage[m.ID]
		if reactions == nil {
			reactions = []models.MessageReaction{}
		}
		out = append(out, models.MessageWithReactions{Message: m, Reactions: reactions})
	}
	return out, nil
}

func (s *MessageQueryService) MarkRead(ctx context.Context, userID, messageID uint) error {
	ok, err := s.messages.MarkMessageRead(ctx, messageID, userID)
	if err != nil {
		return apperrors.StorageError(err, "Failed to mark message read")
	}
	if !ok {
		return apperrors.ErrNotReceiver
	}
	return nil
}

func (s *MessageQueryService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.StorageError(err, "Failed to count unread messages")
	}
	return n, nil
}
