package chat

import (
	"context"
	"time"
	"unicode/utf8"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/pkg/apperrors"
)

type EditResult struct {
	Message       *models.Message
	Reactions     []models.MessageReaction
	CounterpartID uint
}

type DeleteResult struct {
	MessageID     uint
	DeletedAt     time.Time
	CounterpartID uint
}

// MutationService edits and soft-deletes messages. The window and ownership
// checks live in the store, which applies them atomically with the update.
type MutationService struct {
	messages  repositories.MessageStore
	reactions repositories.ReactionStore

	maxContentLen int
	errEdit   *apperrors.AppError
	errDelete *apperrors.AppError
}

func NewMutationService(gw repositories.Gateway, windows repositories.Windows, maxContentLen int) *MutationService {
	return &MutationService{
		messages:      gw,
		reactions:     gw,
		maxContentLen: maxContentLen,
		errEdit:       apperrors.EditNotPermitted(windows.Edit),
		errDelete:     apperrors.DeleteNotPermitted(windows.Delete),
	}
}

// Edit applies the same content limit as Send.
func (s *MutationService) Edit(ctx context.Context, requesterID, messageID uint, content string) (*EditResult, error) {
	if s.maxContentLen > 0 && utf8.RuneCountInString(content) > s.maxContentLen {
		return nil, apperrors.ErrContentTooLong
	}
	updated, err := s.messages.EditMessage(ctx, messageID, content, requesterID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to edit message")
	}
	if updated == nil {
		return nil, s.errEdit
	}

	reactions, err := s.reactions.GetMessageReactions(ctx, messageID)
	if err != nil {
		// edit already committed
		logger.CtxWithError(ctx, "failed to load reactions for edited message", err, "message_id", messageID)
	}
	if reactions == nil {
		reactions = []models.MessageReaction{}
	}

	return &EditResult{
		Message:       updated,
		Reactions:     reactions,
		CounterpartID: updated.Counterpart(requesterID),
	}, nil
}

func (s *MutationService) Delete(ctx context.Context, requesterID, messageID uint) (*DeleteResult, error) {
	ok, err := s.messages.DeleteMessage(ctx, messageID, requesterID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to delete message")
	}
	if !ok {
		return nil, s.errDelete
	}

	result := &DeleteResult{MessageID: messageID, DeletedAt: time.Now()}
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		logger.CtxWithError(ctx, "failed to reload deleted message", err, "message_id", messageID)
		return result, nil
	}
	if msg.DeletedAt != nil {
		result.DeletedAt = *msg.DeletedAt
	}
	result.CounterpartID = msg.Counterpart(requesterID)
	return result, nil
}
