package repositories

import (
	"context"
	"errors"
	"time"

	"talkio_backend/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUniqueIDTaken      = errors.New("unique id already taken")
	ErrMessageNotFound    = errors.New("message not found")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipExists   = errors.New("active friendship already exists")
)

type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUniqueID(ctx context.Context, uniqueID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error)
	// SetUserOnlineStatus also stamps last_seen.
	SetUserOnlineStatus(ctx context.Context, id uint, online bool) error
	// ResetOnlineStatus marks every online user offline and returns how many
	// rows changed. Used when no connection can be live, at process start.
	ResetOnlineStatus(ctx context.Context) (int64, error)
}

type FriendStore interface {
	IsFriend(ctx context.Context, userID, otherID uint) (bool, error)
	GetFriends(ctx context.Context, userID uint) ([]models.User, error)
	// GetActiveFriendship returns the pending or accepted record for the
	// unordered pair, ErrFriendshipNotFound otherwise.
	GetActiveFriendship(ctx context.Context, userID, otherID uint) (*models.Friendship, error)
	GetFriendship(ctx context.Context, id uint) (*models.Friendship, error)
	// CreateFriendRequest fails with ErrFriendshipExists when the pair already
	// has an active record in either direction.
	CreateFriendRequest(ctx context.Context, requesterID, recipientID uint) (*models.Friendship, error)
	// RespondFriendRequest moves a pending request to accepted or declined.
	// ErrFriendshipNotFound when it is no longer pending.
	RespondFriendRequest(ctx context.Context, id uint, status models.FriendshipStatus) (*models.Friendship, error)
	GetPendingRequests(ctx context.Context, recipientID uint) ([]models.FriendRequest, error)
}

type BlockStore interface {
	// IsBlocked checks both directions.
	IsBlocked(ctx context.Context, userID, otherID uint) (bool, error)
	// BlockUser is idempotent.
	BlockUser(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error)
	UnblockUser(ctx context.Context, blockerID, blockedID uint) error
	GetBlockedUsers(ctx context.Context, blockerID uint) ([]models.User, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, in models.NewMessage) (*models.Message, error)
	GetMessage(ctx context.Context, id uint) (*models.Message, error)
	// EditMessage returns nil without error when the message does not exist,
	// is not the requester's, is deleted, or is past the edit window.
	EditMessage(ctx context.Context, id uint, content string, requesterID uint) (*models.Message, error)
	// DeleteMessage reports false under the same preconditions as EditMessage,
	// checked against the delete window.
	DeleteMessage(ctx context.Context, id uint, requesterID uint) (bool, error)
	// GetMessagesBetween returns the last limit direct messages of the pair,
	// oldest first.
	GetMessagesBetween(ctx context.Context, userID, otherID uint, limit int) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id, readerID uint) (bool, error)
	CountUnread(ctx context.Context, receiverID uint) (int64, error)
}

type ReactionStore interface {
	// AddReactionToMessage returns the existing row for a duplicate triple.
	AddReactionToMessage(ctx context.Context, r models.MessageReaction) (*models.MessageReaction, error)
	GetMessageReactions(ctx context.Context, messageID uint) ([]models.MessageReaction, error)
	GetReactionsForMessages(ctx context.Context, messageIDs []uint) (map[uint][]models.MessageReaction, error)
}

type PreferenceStore interface {
	// GetPreference creates the default row on first access.
	GetPreference(ctx context.Context, userID uint) (*models.UserPreference, error)
	UpdatePreference(ctx context.Context, userID uint, upd models.PreferenceUpdate) (*models.UserPreference, error)
}

// Gateway is the full persistence surface. One implementation is chosen at
// startup and used for the life of the process.
type Gateway interface {
	UserStore
	FriendStore
	BlockStore
	MessageStore
	ReactionStore
	PreferenceStore
}

// Windows bounds how long after sending a message may still be mutated.
type Windows struct {
	Edit   time.Duration
	Delete time.Duration
}

func DefaultWindows() Windows {
	return Windows{Edit: models.EditWindow, Delete: models.DeleteWindow}
}

type options struct {
	now     func() time.Time
	windows Windows
}

type Option func(*options)

// WithClock replaces time.Now, used by tests to move around window edges.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithWindows(w Windows) Option {
	return func(o *options) {
		if w.Edit > 0 {
			o.windows.Edit = w.Edit
		}
		if w.Delete > 0 {
			o.windows.Delete = w.Delete
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, windows: DefaultWindows()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// withinWindow is inclusive: a message exactly window old is still mutable.
func withinWindow(sentAt, now time.Time, window time.Duration) bool {
	return now.Sub(sentAt) <= window
}
