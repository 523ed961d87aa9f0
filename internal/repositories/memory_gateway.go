package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"talkio_backend/internal/models"
)

// MemoryGateway keeps everything in maps behind one lock. Returned values are
// copies, callers never share state with the store.
type MemoryGateway struct {
	mu   sync.RWMutex
	opts options

	users       map[uint]*models.User
	friendships map[uint]*models.Friendship
	blocks      map[uint]*models.BlockedUser
	messages    map[uint]*models.Message
	reactions   map[uint]*models.MessageReaction
	preferences map[uint]*models.UserPreference

	nextUser, nextFriendship, nextBlock, nextMessage, nextReaction, nextPreference uint
}

func NewMemoryGateway(opts ...Option) *MemoryGateway {
	return &MemoryGateway{
		opts:        buildOptions(opts),
		users:       make(map[uint]*models.User),
		friendships: make(map[uint]*models.Friendship),
		blocks:      make(map[uint]*models.BlockedUser),
		messages:    make(map[uint]*models.Message),
		reactions:   make(map[uint]*models.MessageReaction),
		preferences: make(map[uint]*models.UserPreference),
	}
}

var _ Gateway = (*MemoryGateway)(nil)

func (g *MemoryGateway) now() time.Time { return g.opts.now() }

// Users

func (g *MemoryGateway) GetUser(ctx context.Context, id uint) (*models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (g *MemoryGateway) GetUserByUniqueID(ctx context.Context, uniqueID string) (*models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, u := range g.users {
		if u.UniqueID == uniqueID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (g *MemoryGateway) CreateUser(ctx context.Context, user *models.User) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, u := range g.users {
		if u.UniqueID == user.UniqueID {
			return ErrUniqueIDTaken
		}
	}
	g.nextUser++
	user.ID = g.nextUser
	cp := *user
	g.users[user.ID] = &cp
	return nil
}

func (g *MemoryGateway) UpdateUser(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.ProfilePicture != nil {
		pic := *upd.ProfilePicture
		u.ProfilePicture = &pic
	}
	cp := *u
	return &cp, nil
}

func (g *MemoryGateway) SetUserOnlineStatus(ctx context.Context, id uint, online bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[id]
	if !ok {
		return ErrUserNotFound
	}
	now := g.now()
	u.IsOnline = online
	u.LastSeen = &now
	return nil
}

func (g *MemoryGateway) ResetOnlineStatus(ctx context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var n int64
	now := g.now()
	for _, u := range g.users {
		if !u.IsOnline {
			continue
		}
		u.IsOnline = false
		u.LastSeen = &now
		n++
	}
	return n, nil
}

// Friendships

func (g *MemoryGateway) activeFriendshipLocked(a, b uint) *models.Friendship {
	for _, f := range g.friendships {
		if f.Status.Active() && f.Involves(a, b) {
			return f
		}
	}
	return nil
}

func (g *MemoryGateway) IsFriend(ctx context.Context, userID, otherID uint) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f := g.activeFriendshipLocked(userID, otherID)
	return f != nil && f.Status == models.FriendshipAccepted, nil
}

func (g *MemoryGateway) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var friends []models.User
	for _, f := range g.friendships {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		if f.RequesterID != userID && f.RecipientID != userID {
			continue
		}
		if u, ok := g.users[f.Other(userID)]; ok {
			friends = append(friends, *u)
		}
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].ID < friends[j].ID })
	return friends, nil
}

func (g *MemoryGateway) GetActiveFriendship(ctx context.Context, userID, otherID uint) (*models.Friendship, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f := g.activeFriendshipLocked(userID, otherID)
	if f == nil {
		return nil, ErrFriendshipNotFound
	}
	cp := *f
	return &cp, nil
}

func (g *MemoryGateway) GetFriendship(ctx context.Context, id uint) (*models.Friendship, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.friendships[id]
	if !ok {
		return nil, ErrFriendshipNotFound
	}
	cp := *f
	return &cp, nil
}

func (g *MemoryGateway) CreateFriendRequest(ctx context.Context, requesterID, recipientID uint) (*models.Friendship, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.activeFriendshipLocked(requesterID, recipientID) != nil {
		return nil, ErrFriendshipExists
	}
	g.nextFriendship++
	f := &models.Friendship{
		ID:          g.nextFriendship,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.FriendshipPending,
		CreatedAt:   g.now(),
	}
	g.friendships[f.ID] = f
	cp := *f
	return &cp, nil
}

func (g *MemoryGateway) RespondFriendRequest(ctx context.Context, id uint, status models.FriendshipStatus) (*models.Friendship, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.friendships[id]
	if !ok || f.Status != models.FriendshipPending {
		return nil, ErrFriendshipNotFound
	}
	f.Status = status
	cp := *f
	return &cp, nil
}

func (g *MemoryGateway) GetPendingRequests(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []models.FriendRequest
	for _, f := range g.friendships {
		if f.RecipientID != recipientID || f.Status != models.FriendshipPending {
			continue
		}
		u, ok := g.users[f.RequesterID]
		if !ok {
			continue
		}
		out = append(out, models.FriendRequest{Friendship: *f, User: u.Public()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Blocks

func (g *MemoryGateway) IsBlocked(ctx context.Context, userID, otherID uint) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, b := range g.blocks {
		if (b.BlockerID == userID && b.BlockedID == otherID) || (b.BlockerID == otherID && b.BlockedID == userID) {
			return true, nil
		}
	}
	return false, nil
}

func (g *MemoryGateway) BlockUser(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range g.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			cp := *b
			return &cp, nil
		}
	}
	g.nextBlock++
	b := &models.BlockedUser{ID: g.nextBlock, BlockerID: blockerID, BlockedID: blockedID, CreatedAt: g.now()}
	g.blocks[b.ID] = b
	cp := *b
	return &cp, nil
}

func (g *MemoryGateway) UnblockUser(ctx context.Context, blockerID, blockedID uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, b := range g.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			delete(g.blocks, id)
		}
	}
	return nil
}

func (g *MemoryGateway) GetBlockedUsers(ctx context.Context, blockerID uint) ([]models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []models.User
	for _, b := range g.blocks {
		if b.BlockerID != blockerID {
			continue
		}
		if u, ok := g.users[b.BlockedID]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Messages

func (g *MemoryGateway) CreateMessage(ctx context.Context, in models.NewMessage) (*models.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextMessage++
	receiver := in.ReceiverID
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	m := &models.Message{
		ID:         g.nextMessage,
		SenderID:   in.SenderID,
		ReceiverID: &receiver,
		Content:    in.Content,
		Type:       msgType,
		SentAt:     g.now(),
	}
	g.messages[m.ID] = m
	return copyMessage(m), nil
}

func (g *MemoryGateway) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return copyMessage(m), nil
}

// mutableLocked applies the shared edit/delete preconditions.
func (g *MemoryGateway) mutableLocked(id, requesterID uint, window time.Duration, now time.Time) *models.Message {
	m, ok := g.messages[id]
	if !ok || m.SenderID != requesterID || m.IsDeleted {
		return nil
	}
	if !withinWindow(m.SentAt, now, window) {
		return nil
	}
	return m
}

func (g *MemoryGateway) EditMessage(ctx context.Context, id uint, content string, requesterID uint) (*models.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	m := g.mutableLocked(id, requesterID, g.opts.windows.Edit, now)
	if m == nil {
		return nil, nil
	}
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &now
	return copyMessage(m), nil
}

func (g *MemoryGateway) DeleteMessage(ctx context.Context, id uint, requesterID uint) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	m := g.mutableLocked(id, requesterID, g.opts.windows.Delete, now)
	if m == nil {
		return false, nil
	}
	m.IsDeleted = true
	m.DeletedAt = &now
	m.Content = models.DeletedTombstone
	return true, nil
}

func (g *MemoryGateway) GetMessagesBetween(ctx context.Context, userID, otherID uint, limit int) ([]models.Message, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []models.Message
	for _, m := range g.messages {
		if m.ReceiverID == nil {
			continue
		}
		if (m.SenderID == userID && *m.ReceiverID == otherID) || (m.SenderID == otherID && *m.ReceiverID == userID) {
			out = append(out, *copyMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.Before(out[j].SentAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (g *MemoryGateway) MarkMessageRead(ctx context.Context, id, readerID uint) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.messages[id]
	if !ok || m.ReceiverID == nil || *m.ReceiverID != readerID {
		return false, nil
	}
	m.IsRead = true
	return true, nil
}

func (g *MemoryGateway) CountUnread(ctx context.Context, receiverID uint) (int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var n int64
	for _, m := range g.messages {
		if m.ReceiverID != nil && *m.ReceiverID == receiverID && !m.IsRead && !m.IsDeleted {
			n++
		}
	}
	return n, nil
}

// Reactions

func (g *MemoryGateway) AddReactionToMessage(ctx context.Context, r models.MessageReaction) (*models.MessageReaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.reactions {
		if existing.MessageID == r.MessageID && existing.UserID == r.UserID && existing.Reaction == r.Reaction {
			cp := *existing
			return &cp, nil
		}
	}
	g.nextReaction++
	r.ID = g.nextReaction
	r.CreatedAt = g.now()
	stored := r
	g.reactions[r.ID] = &stored
	return &r, nil
}

func (g *MemoryGateway) GetMessageReactions(ctx context.Context, messageID uint) ([]models.MessageReaction, error) {
	byMessage, err := g.GetReactionsForMessages(ctx, []uint{messageID})
	if err != nil {
		return nil, err
	}
	return byMessage[messageID], nil
}

func (g *MemoryGateway) GetReactionsForMessages(ctx context.Context, messageIDs []uint) (map[uint][]models.MessageReaction, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	wanted := make(map[uint]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[uint][]models.MessageReaction)
	for _, r := range g.reactions {
		if _, ok := wanted[r.MessageID]; ok {
			out[r.MessageID] = append(out[r.MessageID], *r)
		}
	}
	for id := range out {
		list := out[id]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return out, nil
}

// Preferences

func (g *MemoryGateway) preferenceLocked(userID uint) *models.UserPreference {
	if p, ok := g.preferences[userID]; ok {
		return p
	}
	g.nextPreference++
	p := models.DefaultPreference(userID)
	p.ID = g.nextPreference
	g.preferences[userID] = p
	return p
}

func (g *MemoryGateway) GetPreference(ctx context.Context, userID uint) (*models.UserPreference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *g.preferenceLocked(userID)
	return &cp, nil
}

func (g *MemoryGateway) UpdatePreference(ctx context.Context, userID uint, upd models.PreferenceUpdate) (*models.UserPreference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.preferenceLocked(userID)
	if upd.ChatTheme != nil {
		p.ChatTheme = *upd.ChatTheme
	}
	if upd.NotificationsEnabled != nil {
		p.NotificationsEnabled = *upd.NotificationsEnabled
	}
	cp := *p
	return &cp, nil
}

func copyMessage(m *models.Message) *models.Message {
	cp := *m
	if m.ReceiverID != nil {
		r := *m.ReceiverID
		cp.ReceiverID = &r
	}
	if m.GroupID != nil {
		gid := *m.GroupID
		cp.GroupID = &gid
	}
	if m.EditedAt != nil {
		t := *m.EditedAt
		cp.EditedAt = &t
	}
	if m.DeletedAt != nil {
		t := *m.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}
