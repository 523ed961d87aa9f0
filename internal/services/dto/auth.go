package dto

import "talkio_backend/internal/models"

type RegisterRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=64"`
	UniqueID string          `json:"uniqueId" validate:"required,is-unique-handle"`
	Password string          `json:"password" validate:"required,min=6,max=128"`
	AgeGroup models.AgeGroup `json:"ageGroup" validate:"required,is-age-group"`
}

type LoginRequest struct {
	UniqueID string `json:"uniqueId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login. The token is what the
// websocket auth event carries.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}
