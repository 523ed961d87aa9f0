package models

import "time"

type AgeGroup string
type MessageType string
type FriendshipStatus string
type PresenceStatus string

const (
	AgeGroupUnder13 AgeGroup = "under13"
	AgeGroupTeen    AgeGroup = "13-17"
	AgeGroupAdult   AgeGroup = "18plus"

	MessageTypeText    MessageType = "text"
	MessageTypeSticker MessageType = "sticker"
	MessageTypeGIF     MessageType = "gif"
	MessageTypeVoice   MessageType = "voice"

	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"

	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

// Mutation windows. Delete is tighter than edit: an edited message is still
// attributable to its sender, a deleted one is gone.
const (
	EditWindow   = 30 * time.Minute
	DeleteWindow = 10 * time.Minute
)

// DeletedTombstone replaces the content of a soft-deleted message.
const DeletedTombstone = "This message was deleted"

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeSticker, MessageTypeGIF, MessageTypeVoice:
		return true
	}
	return false
}

func (g AgeGroup) Valid() bool {
	switch g {
	case AgeGroupUnder13, AgeGroupTeen, AgeGroupAdult:
		return true
	}
	return false
}

// Active reports whether the friendship blocks a new request for the same pair.
func (s FriendshipStatus) Active() bool {
	return s == FriendshipPending || s == FriendshipAccepted
}
