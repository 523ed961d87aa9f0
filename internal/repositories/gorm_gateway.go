package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talkio_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGateway persists through gorm. Works against postgres and mysql.
type GormGateway struct {
	db   *gorm.DB
	opts options
}

func NewGormGateway(db *gorm.DB, opts ...Option) *GormGateway {
	return &GormGateway{db: db, opts: buildOptions(opts)}
}

var _ Gateway = (*GormGateway)(nil)

func (g *GormGateway) conn(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

// Users

func (g *GormGateway) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := g.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (g *GormGateway) GetUserByUniqueID(ctx context.Context, uniqueID string) (*models.User, error) {
	var user models.User
	if err := g.conn(ctx).First(&user, "unique_id = ?", uniqueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by unique id: %w", err)
	}
	return &user, nil
}

func (g *GormGateway) CreateUser(ctx context.Context, user *models.User) error {
	return g.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("unique_id = ?", user.UniqueID).Count(&count).Error; err != nil {
			return fmt.Errorf("check unique id: %w", err)
		}
		if count > 0 {
			return ErrUniqueIDTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUniqueIDTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func (g *GormGateway) UpdateUser(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	changes := map[string]interface{}{}
	if upd.Username != nil {
		changes["username"] = *upd.Username
	}
	if upd.ProfilePicture != nil {
		changes["profile_picture"] = *upd.ProfilePicture
	}
	if len(changes) > 0 {
		result := g.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes)
		if result.Error != nil {
			return nil, fmt.Errorf("update user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return g.GetUser(ctx, id)
}

func (g *GormGateway) SetUserOnlineStatus(ctx context.Context, id uint, online bool) error {
	result := g.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_online": online,
		"last_seen": g.opts.now(),
	})
	if result.Error != nil {
		return fmt.Errorf("set online status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (g *GormGateway) ResetOnlineStatus(ctx context.Context) (int64, error) {
	result := g.conn(ctx).Model(&models.User{}).Where("is_online = ?", true).Updates(map[string]interface{}{
		"is_online": false,
		"last_seen": g.opts.now(),
	})
	if result.Error != nil {
		return 0, fmt.Errorf("reset online status: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Friendships

func pairScope(a, b uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a)
	}
}

func (g *GormGateway) IsFriend(ctx context.Context, userID, otherID uint) (bool, error) {
	var count int64
	err := g.conn(ctx).Model(&models.Friendship{}).
		Scopes(pairScope(userID, otherID)).
		Where("status = ?", models.FriendshipAccepted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("is friend: %w", err)
	}
	return count > 0, nil
}

func (g *GormGateway) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var links []models.Friendship
	err := g.conn(ctx).
		Where("status = ? AND (user_id = ? OR friend_id = ?)", models.FriendshipAccepted, userID, userID).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("get friendships: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(links))
	for i := range links {
		ids = append(ids, links[i].Other(userID))
	}
	var friends []models.User
	if err := g.conn(ctx).Where("id IN ?", ids).Order("id").Find(&friends).Error; err != nil {
		return nil, fmt.Errorf("get friends: %w", err)
	}
	return friends, nil
}

func (g *GormGateway) GetActiveFriendship(ctx context.Context, userID, otherID uint) (*models.Friendship, error) {
	return activeFriendship(g.conn(ctx), userID, otherID)
}

func activeFriendship(db *gorm.DB, a, b uint) (*models.Friendship, error) {
	var f models.Friendship
	err := db.Scopes(pairScope(a, b)).
		Where("status IN ?", []models.FriendshipStatus{models.FriendshipPending, models.FriendshipAccepted}).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("get active friendship: %w", err)
	}
	return &f, nil
}

func (g *GormGateway) GetFriendship(ctx context.Context, id uint) (*models.Friendship, error) {
	var f models.Friendship
	if err := g.conn(ctx).First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return &f, nil
}

func (g *GormGateway) CreateFriendRequest(ctx context.Context, requesterID, recipientID uint) (*models.Friendship, error) {
	f := &models.Friendship{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.FriendshipPending,
		CreatedAt:   g.opts.now(),
	}
	err := g.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := activeFriendship(tx, requesterID, recipientID); err == nil {
			return ErrFriendshipExists
		} else if !errors.Is(err, ErrFriendshipNotFound) {
			return err
		}
		if err := tx.Create(f).Error; err != nil {
			return fmt.Errorf("create friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (g *GormGateway) RespondFriendRequest(ctx context.Context, id uint, status models.FriendshipStatus) (*models.Friendship, error) {
	result := g.conn(ctx).Model(&models.Friendship{}).
		Where("id = ? AND status = ?", id, models.FriendshipPending).
		Update("status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("respond friend request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrFriendshipNotFound
	}
	return g.GetFriendship(ctx, id)
}

func (g *GormGateway) GetPendingRequests(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	var pending []models.Friendship
	err := g.conn(ctx).
		Where("friend_id = ? AND status = ?", recipientID, models.FriendshipPending).
		Order("id").
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("get pending requests: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(pending))
	for i := range pending {
		ids = append(ids, pending[i].RequesterID)
	}
	var users []models.User
	if err := g.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("get requesters: %w", err)
	}
	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]models.FriendRequest, 0, len(pending))
	for _, f := range pending {
		u, ok := byID[f.RequesterID]
		if !ok {
			continue
		}
		out = append(out, models.FriendRequest{Friendship: f, User: u.Public()})
	}
	return out, nil
}

// Blocks

func (g *GormGateway) IsBlocked(ctx context.Context, userID, otherID uint) (bool, error) {
	var count int64
	err := g.conn(ctx).Model(&models.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", userID, otherID, otherID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("is blocked: %w", err)
	}
	return count > 0, nil
}

func (g *GormGateway) BlockUser(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error) {
	b := models.BlockedUser{BlockerID: blockerID, BlockedID: blockedID, CreatedAt: g.opts.now()}
	err := g.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&b).Error
	if err != nil {
		return nil, fmt.Errorf("block user: %w", err)
	}
	var stored models.BlockedUser
	if err := g.conn(ctx).First(&stored, "blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Error; err != nil {
		return nil, fmt.Errorf("load block: %w", err)
	}
	return &stored, nil
}

func (g *GormGateway) UnblockUser(ctx context.Context, blockerID, blockedID uint) error {
	err := g.conn(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.BlockedUser{}).Error
	if err != nil {
		return fmt.Errorf("unblock user: %w", err)
	}
	return nil
}

func (g *GormGateway) GetBlockedUsers(ctx context.Context, blockerID uint) ([]models.User, error) {
	var users []models.User
	err := g.conn(ctx).
		Where("id IN (?)", g.conn(ctx).Model(&models.BlockedUser{}).Select("blocked_id").Where("blocker_id = ?", blockerID)).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("get blocked users: %w", err)
	}
	return users, nil
}

// Messages

func (g *GormGateway) CreateMessage(ctx context.Context, in models.NewMessage) (*models.Message, error) {
	receiver := in.ReceiverID
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	m := &models.Message{
		SenderID:   in.SenderID,
		ReceiverID: &receiver,
		Content:    in.Content,
		Type:       msgType,
		SentAt:     g.opts.now(),
	}
	if err := g.conn(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (g *GormGateway) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	if err := g.conn(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}

// mutable selects messages the requester may still change. The check and the
// update are one statement, so concurrent mutations cannot both pass.
func (g *GormGateway) mutable(ctx context.Context, id, requesterID uint, window time.Duration, now time.Time) *gorm.DB {
	return g.conn(ctx).Model(&models.Message{}).
		Where("id = ? AND sender_id = ? AND is_deleted = ? AND sent_at >= ?", id, requesterID, false, now.Add(-window))
}

func (g *GormGateway) EditMessage(ctx context.Context, id uint, content string, requesterID uint) (*models.Message, error) {
	now := g.opts.now()
	result := g.mutable(ctx, id, requesterID, g.opts.windows.Edit, now).Updates(map[string]interface{}{
		"content":   content,
		"is_edited": true,
		"edited_at": now,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("edit message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return g.GetMessage(ctx, id)
}

func (g *GormGateway) DeleteMessage(ctx context.Context, id uint, requesterID uint) (bool, error) {
	now := g.opts.now()
	result := g.mutable(ctx, id, requesterID, g.opts.windows.Delete, now).Updates(map[string]interface{}{
		"content":    models.DeletedTombstone,
		"is_deleted": true,
		"deleted_at": now,
	})
	if result.Error != nil {
		return false, fmt.Errorf("delete message: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (g *GormGateway) GetMessagesBetween(ctx context.Context, userID, otherID uint, limit int) ([]models.Message, error) {
	q := g.conn(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, otherID, otherID, userID).
		Order("sent_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var messages []models.Message
	if err := q.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (g *GormGateway) MarkMessageRead(ctx context.Context, id, readerID uint) (bool, error) {
	result := g.conn(ctx).Model(&models.Message{}).
		Where("id = ? AND receiver_id = ?", id, readerID).
		Update("is_read", true)
	if result.Error != nil {
		return false, fmt.Errorf("mark read: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (g *GormGateway) CountUnread(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := g.conn(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ? AND is_deleted = ?", receiverID, false, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// Reactions

func (g *GormGateway) AddReactionToMessage(ctx context.Context, r models.MessageReaction) (*models.MessageReaction, error) {
	r.ID = 0
	r.CreatedAt = g.opts.now()
	if err := g.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&r).Error; err != nil {
		return nil, fmt.Errorf("add reaction: %w", err)
	}
	var stored models.MessageReaction
	err := g.conn(ctx).
		First(&stored, "message_id = ? AND user_id = ? AND reaction = ?", r.MessageID, r.UserID, r.Reaction).Error
	if err != nil {
		return nil, fmt.Errorf("load reaction: %w", err)
	}
	return &stored, nil
}

func (g *GormGateway) GetMessageReactions(ctx context.Context, messageID uint) ([]models.MessageReaction, error) {
	var reactions []models.MessageReaction
	if err := g.conn(ctx).Where("message_id = ?", messageID).Order("id").Find(&reactions).Error; err != nil {
		return nil, fmt.Errorf("get reactions: %w", err)
	}
	return reactions, nil
}

func (g *GormGateway) GetReactionsForMessages(ctx context.Context, messageIDs []uint) (map[uint][]models.MessageReaction, error) {
	out := make(map[uint][]models.MessageReaction)
	if len(messageIDs) == 0 {
		return out, nil
	}
	var reactions []models.MessageReaction
	if err := g.conn(ctx).Where("message_id IN ?", messageIDs).Order("id").Find(&reactions).Error; err != nil {
		return nil, fmt.Errorf("get reactions: %w", err)
	}
	for _, r := range reactions {
		out[r.MessageID] = append(out[r.MessageID], r)
	}
	return out, nil
}

// Preferences

func (g *GormGateway) GetPreference(ctx context.Context, userID uint) (*models.UserPreference, error) {
	defaults := models.DefaultPreference(userID)
	var pref models.UserPreference
	err := g.conn(ctx).Where(models.UserPreference{UserID: userID}).
		Attrs(models.UserPreference{ChatTheme: defaults.ChatTheme, NotificationsEnabled: defaults.NotificationsEnabled}).
		FirstOrCreate(&pref).Error
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &pref, nil
}

func (g *GormGateway) UpdatePreference(ctx context.Context, userID uint, upd models.PreferenceUpdate) (*models.UserPreference, error) {
	pref, err := g.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	changes := map[string]interface{}{}
	if upd.ChatTheme != nil {
		changes["chat_theme"] = *upd.ChatTheme
	}
	if upd.NotificationsEnabled != nil {
		changes["notifications_enabled"] = *upd.NotificationsEnabled
	}
	if len(changes) == 0 {
		return pref, nil
	}
	if err := g.conn(ctx).Model(pref).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update preference: %w", err)
	}
	return g.GetPreference(ctx, userID)
}
