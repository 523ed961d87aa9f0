package models

import "time"

// Groups exist in the data model only, messages are never fanned out to them.
type ChatGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `json:"description"`
	CreatorID   uint      `gorm:"index;not null" json:"creatorId"`
	GroupIcon   *string   `json:"groupIcon"`
	CreatedAt   time.Time `json:"createdAt"`
}

type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"index;not null" json:"groupId"`
	UserID   uint      `gorm:"index;not null" json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&UserPreference{},
		&Friendship{},
		&BlockedUser{},
		&ChatGroup{},
		&GroupMember{},
		&Message{},
		&MessageReaction{},
	}
}
