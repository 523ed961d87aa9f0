package chat

import (
	"context"
	"errors"

	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/pkg/apperrors"
)

// ReactionResult carries the stored reaction and who else should see it.
// CounterpartID is 0 when there is nobody to notify.
type ReactionResult struct {
	Reaction      *models.MessageReaction
	CounterpartID uint
}

type ReactionService struct {
	messages  repositories.MessageStore
	reactions repositories.ReactionStore
}

func NewReactionService(gw repositories.Gateway) *ReactionService {
	return &ReactionService{messages: gw, reactions: gw}
}

// React records a reaction from one of the two participants of a direct
// message. Repeating the same reaction returns the stored row.
func (s *ReactionService) React(ctx context.Context, userID, messageID uint, reaction string) (*ReactionResult, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return nil, apperrors.ErrUnknownMessage
		}
		return nil, apperrors.StorageError(err, "Failed to add reaction")
	}
	if !msg.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}

	stored, err := s.reactions.AddReactionToMessage(ctx, models.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Reaction:  reaction,
	})
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to add reaction")
	}

	return &ReactionResult{Reaction: stored, CounterpartID: msg.Counterpart(userID)}, nil
}
