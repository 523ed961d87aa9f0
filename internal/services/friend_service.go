package services

import (
	"context"
	"errors"

	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/services/dto"
	"talkio_backend/pkg/apperrors"
)

type FriendService struct {
	users   repositories.UserStore
	friends repositories.FriendStore
}

func NewFriendService(gw repositories.Gateway) *FriendService {
	return &FriendService{users: gw, friends: gw}
}

// SendRequest asks the owner of uniqueID for friendship. At most one pending
// or accepted record exists per pair, whoever asked first.
func (s *FriendService) SendRequest(ctx context.Context, userID uint, uniqueID string) (*models.Friendship, error) {
	target, err := s.users.GetUserByUniqueID(ctx, uniqueID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.StorageError(err, "Failed to send friend request")
	}
	if target.ID == userID {
		return nil, apperrors.ErrCannotFriendSelf
	}

	existing, err := s.friends.GetActiveFriendship(ctx, userID, target.ID)
	switch {
	case err == nil:
		return nil, activeFriendshipError(existing)
	case !errors.Is(err, repositories.ErrFriendshipNotFound):
		return nil, apperrors.StorageError(err, "Failed to send friend request")
	}

	f, err := s.friends.CreateFriendRequest(ctx, userID, target.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipExists) {
			return nil, apperrors.ErrFriendRequestPending
		}
		return nil, apperrors.StorageError(err, "Failed to send friend request")
	}
	return f, nil
}

func activeFriendshipError(f *models.Friendship) error {
	if f.Status == models.FriendshipAccepted {
		return apperrors.ErrAlreadyFriends
	}
	return apperrors.ErrFriendRequestPending
}

func (s *FriendService) PendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	requests, err := s.friends.GetPendingRequests(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load friend requests")
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	return requests, nil
}

func (s *FriendService) Accept(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	return s.respond(ctx, userID, requestID, models.FriendshipAccepted)
}

func (s *FriendService) Decline(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	return s.respond(ctx, userID, requestID, models.FriendshipDeclined)
}

// respond lets only the recipient of a still pending request answer it.
func (s *FriendService) respond(ctx context.Context, userID, requestID uint, status models.FriendshipStatus) (*models.Friendship, error) {
	f, err := s.friends.GetFriendship(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return nil, apperrors.ErrFriendRequestNotFound
		}
		return nil, apperrors.StorageError(err, "Failed to answer friend request")
	}
	if f.RecipientID != userID {
		return nil, apperrors.ErrFriendRequestNotYours
	}

	updated, err := s.friends.RespondFriendRequest(ctx, requestID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return nil, apperrors.ErrFriendRequestNotFound
		}
		return nil, apperrors.StorageError(err, "Failed to answer friend request")
	}
	return updated, nil
}

func (s *FriendService) Friends(ctx context.Context, userID uint) ([]dto.FriendResponse, error) {
	friends, err := s.friends.GetFriends(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load friends")
	}
	out := make([]dto.FriendResponse, 0, len(friends))
	for i := range friends {
		out = append(out, dto.NewFriendResponse(&friends[i]))
	}
	return out, nil
}
