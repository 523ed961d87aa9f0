package services

import (
	"context"
	"errors"

	"talkio_backend/internal/auth"
	"talkio_backend/internal/logger"
	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/services/dto"
	"talkio_backend/pkg/apperrors"
)

type UserService struct {
	users  repositories.UserStore
	prefs  repositories.PreferenceStore
	tokens *auth.TokenManager
}

func NewUserService(gw repositories.Gateway, tokens *auth.TokenManager) *UserService {
	return &UserService{users: gw, prefs: gw, tokens: tokens}
}

// Register creates an account. Users under 13 start without parental
// approval.
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.users.GetUserByUniqueID(ctx, req.UniqueID); err == nil {
		return nil, apperrors.ErrUniqueIDInUse
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.StorageError(err, "Failed to register")
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Username:            req.Username,
		UniqueID:            req.UniqueID,
		PasswordHash:        hash,
		AgeGroup:            req.AgeGroup,
		HasParentalApproval: req.AgeGroup != models.AgeGroupUnder13,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUniqueIDTaken) {
			return nil, apperrors.ErrUniqueIDInUse
		}
		return nil, apperrors.StorageError(err, "Failed to register")
	}

	if _, err := s.prefs.GetPreference(ctx, user.ID); err != nil {
		logger.CtxWithError(ctx, "failed to create default preferences", err, "user_id", user.ID)
	}

	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetUserByUniqueID(ctx, req.UniqueID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.StorageError(err, "Failed to log in")
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.users.SetUserOnlineStatus(ctx, user.ID, true); err != nil {
		return nil, apperrors.StorageError(err, "Failed to log in")
	}
	user.IsOnline = true

	return s.issue(user)
}

func (s *UserService) Logout(ctx context.Context, userID uint) error {
	if err := s.users.SetUserOnlineStatus(ctx, userID, false); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.StorageError(err, "Failed to log out")
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.StorageError(err, "Failed to load user")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.UpdateUser(ctx, userID, models.UserUpdate{
		Username:       req.Username,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.StorageError(err, "Failed to update user")
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.UniqueID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{User: user, Token: token}, nil
}
