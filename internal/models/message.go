package models

import "time"

type Message struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	SenderID   uint        `gorm:"index;not null" json:"senderId"`
	ReceiverID *uint       `gorm:"index" json:"receiverId"`
	GroupID    *uint       `gorm:"index" json:"groupId"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	Type       MessageType `gorm:"type:varchar(10);not null;default:'text'" json:"type"`
	SentAt     time.Time   `gorm:"index;not null" json:"sentAt"`
	IsRead     bool        `gorm:"default:false" json:"isRead"`
	IsEdited   bool        `gorm:"default:false" json:"isEdited"`
	EditedAt   *time.Time  `json:"editedAt"`
	IsDeleted  bool        `gorm:"default:false" json:"isDeleted"`
	DeletedAt  *time.Time  `json:"deletedAt"`
}

// Counterpart is the other side of a direct conversation, 0 when userID is
// not a participant or the message is group-addressed.
func (m *Message) Counterpart(userID uint) uint {
	if m.ReceiverID == nil {
		return 0
	}
	switch userID {
	case m.SenderID:
		return *m.ReceiverID
	case *m.ReceiverID:
		return m.SenderID
	}
	return 0
}

// HasParticipant reports whether userID is the sender or the receiver.
func (m *Message) HasParticipant(userID uint) bool {
	return m.SenderID == userID || (m.ReceiverID != nil && *m.ReceiverID == userID)
}

// NewMessage is the input of createMessage.
type NewMessage struct {
	SenderID   uint
	ReceiverID uint
	Content    string
	Type       MessageType
}

type MessageReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"uniqueIndex:idx_reaction_triple;not null" json:"messageId"`
	UserID    uint      `gorm:"uniqueIndex:idx_reaction_triple;not null" json:"userId"`
	Reaction  string    `gorm:"uniqueIndex:idx_reaction_triple;size:32;not null" json:"reaction"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageWithReactions is the shape of history entries and edit notifications.
type MessageWithReactions struct {
	Message
	Reactions []MessageReaction `json:"reactions"`
}
