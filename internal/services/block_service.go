package services

import (
	"context"
	"errors"

	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/pkg/apperrors"
)

type BlockService struct {
	users  repositories.UserStore
	blocks repositories.BlockStore
}

func NewBlockService(gw repositories.Gateway) *BlockService {
	return &BlockService{users: gw, blocks: gw}
}

func (s *BlockService) Block(ctx context.Context, userID, blockedID uint) (*models.BlockedUser, error) {
	if userID == blockedID {
		return nil, apperrors.ErrCannotBlockSelf
	}
	if _, err := s.users.GetUser(ctx, blockedID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrBlockTargetAbsent
		}
		return nil, apperrors.StorageError(err, "Failed to block user")
	}

	b, err := s.blocks.BlockUser(ctx, userID, blockedID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to block user")
	}
	return b, nil
}

func (s *BlockService) Unblock(ctx context.Context, userID, blockedID uint) error {
	if err := s.blocks.UnblockUser(ctx, userID, blockedID); err != nil {
		return apperrors.StorageError(err, "Failed to unblock user")
	}
	return nil
}

func (s *BlockService) Blocked(ctx context.Context, userID uint) ([]models.PublicUser, error) {
	users, err := s.blocks.GetBlockedUsers(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load blocked users")
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}
