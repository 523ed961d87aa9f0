package models

import "time"

// Friendship is a directed request record. Once accepted the relation is
// symmetric, so lookups check both orderings.
type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"column:user_id;index;not null" json:"requesterId"`
	RecipientID uint             `gorm:"column:friend_id;index;not null" json:"recipientId"`
	Status      FriendshipStatus `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Involves reports whether the friendship links a and b in either direction.
func (f *Friendship) Involves(a, b uint) bool {
	return (f.RequesterID == a && f.RecipientID == b) || (f.RequesterID == b && f.RecipientID == a)
}

// Other returns the side of the friendship that is not userID.
func (f *Friendship) Other(userID uint) uint {
	if f.RequesterID == userID {
		return f.RecipientID
	}
	return f.RequesterID
}

// FriendRequest is a pending request together with the requester's profile.
type FriendRequest struct {
	Friendship
	User PublicUser `json:"user"`
}
