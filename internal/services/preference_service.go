package services

import (
	"context"

	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/services/dto"
	"talkio_backend/pkg/apperrors"
)

type PreferenceService struct {
	prefs repositories.PreferenceStore
}

func NewPreferenceService(gw repositories.Gateway) *PreferenceService {
	return &PreferenceService{prefs: gw}
}

func (s *PreferenceService) Get(ctx context.Context, userID uint) (*models.UserPreference, error) {
	p, err := s.prefs.GetPreference(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to load preferences")
	}
	return p, nil
}

func (s *PreferenceService) Update(ctx context.Context, userID uint, req *dto.UpdatePreferenceRequest) (*models.UserPreference, error) {
	p, err := s.prefs.UpdatePreference(ctx, userID, models.PreferenceUpdate{
		ChatTheme:            req.ChatTheme,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		return nil, apperrors.StorageError(err, "Failed to update preferences")
	}
	return p, nil
}
