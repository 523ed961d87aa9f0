package dto

import "talkio_backend/internal/models"

type UpdateUserRequest struct {
	Username       *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,max=2048"`
}

type BlockRequest struct {
	BlockedID uint `json:"blockedId" validate:"required,gt=0"`
}

type UpdatePreferenceRequest struct {
	ChatTheme            *string `json:"chatTheme,omitempty" validate:"omitempty,is-chat-theme"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
}

type FriendRequestRequest struct {
	UniqueID string `json:"uniqueId" validate:"required"`
}

type FriendResponse struct {
	models.PublicUser
	IsOnline bool `json:"isOnline"`
}

func NewFriendResponse(u *models.User) FriendResponse {
	return FriendResponse{PublicUser: u.Public(), IsOnline: u.IsOnline}
}
