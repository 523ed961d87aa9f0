package models

import "time"

type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Username            string     `gorm:"not null" json:"username"`
	UniqueID            string     `gorm:"column:unique_id;uniqueIndex;size:64;not null" json:"uniqueId"`
	PasswordHash        string     `gorm:"column:password;not null" json:"-"`
	AgeGroup            AgeGroup   `gorm:"type:varchar(10);not null" json:"ageGroup"`
	ProfilePicture      *string    `json:"profilePicture"`
	IsOnline            bool       `gorm:"default:false" json:"isOnline"`
	HasParentalApproval bool       `gorm:"default:false" json:"hasParentalApproval"`
	LastSeen            *time.Time `json:"lastSeen"`
}

// PublicUser is the minimal profile attached to pushed events.
type PublicUser struct {
	ID             uint    `json:"id"`
	Username       string  `json:"username"`
	UniqueID       string  `json:"uniqueId"`
	ProfilePicture *string `json:"profilePicture"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		UniqueID:       u.UniqueID,
		ProfilePicture: u.ProfilePicture,
	}
}

// UserUpdate carries the profile fields a user may change. Nil means unchanged.
type UserUpdate struct {
	Username       *string
	ProfilePicture *string
}

type UserPreference struct {
	ID                   uint   `gorm:"primaryKey" json:"id"`
	UserID               uint   `gorm:"uniqueIndex;not null" json:"userId"`
	ChatTheme            string `gorm:"default:'default'" json:"chatTheme"`
	NotificationsEnabled bool   `gorm:"default:true" json:"notificationsEnabled"`
}

// DefaultPreference is what a user gets on first access.
func DefaultPreference(userID uint) *UserPreference {
	return &UserPreference{
		UserID:               userID,
		ChatTheme:            "default",
		NotificationsEnabled: true,
	}
}

// PreferenceUpdate - nil fields stay untouched.
type PreferenceUpdate struct {
	ChatTheme            *string
	NotificationsEnabled *bool
}

type BlockedUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"uniqueIndex:idx_block_pair;not null" json:"blockerId"`
	BlockedID uint      `gorm:"uniqueIndex:idx_block_pair;not null" json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}
