package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"talkio_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// gatewayFactory builds an empty gateway reading time from clock.
type gatewayFactory func(t *testing.T, clock *testClock) Gateway

// runGatewayContract checks the behaviour every Gateway must share.
func runGatewayContract(t *testing.T, newGateway gatewayFactory) {
	seed := func(t *testing.T, gw Gateway, handles ...string) []*models.User {
		t.Helper()
		users := make([]*models.User, 0, len(handles))
		for _, h := range handles {
			u := &models.User{Username: h, UniqueID: h + "-" + time.Now().Format("150405.000000000"), PasswordHash: "x", AgeGroup: models.AgeGroupAdult}
			require.NoError(t, gw.CreateUser(context.Background(), u))
			users = append(users, u)
		}
		return users
	}
	befriend := func(t *testing.T, gw Gateway, a, b uint) {
		t.Helper()
		f, err := gw.CreateFriendRequest(context.Background(), a, b)
		require.NoError(t, err)
		_, err = gw.RespondFriendRequest(context.Background(), f.ID, models.FriendshipAccepted)
		require.NoError(t, err)
	}

	t.Run("unique id is unique", func(t *testing.T) {
		gw := newGateway(t, newTestClock())
		u := seed(t, gw, "dup")[0]
		err := gw.CreateUser(context.Background(), &models.User{Username: "x", UniqueID: u.UniqueID, PasswordHash: "x", AgeGroup: models.AgeGroupAdult})
		assert.ErrorIs(t, err, ErrUniqueIDTaken)

		found, err := gw.GetUserByUniqueID(context.Background(), u.UniqueID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)

		_, err = gw.GetUser(context.Background(), 987654)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("friendship is symmetric", func(t *testing.T) {
		gw := newGateway(t, newTestClock())
		ctx := context.Background()
		users := seed(t, gw, "a", "b", "c")
		a, b, c := users[0], users[1], users[2]

		f, err := gw.CreateFriendRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)
		_, err = gw.CreateFriendRequest(ctx, b.ID, a.ID)
		assert.ErrorIs(t, err, ErrFriendshipExists)

		ok, err := gw.IsFriend(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, ok, "pending is not friends")

		_, err = gw.RespondFriendRequest(ctx, f.ID, models.FriendshipAccepted)
		require.NoError(t, err)
		_, err = gw.RespondFriendRequest(ctx, f.ID, models.FriendshipDeclined)
		assert.ErrorIs(t, err, ErrFriendshipNotFound)

		for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
			ok, err := gw.IsFriend(ctx, pair[0], pair[1])
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err = gw.IsFriend(ctx, a.ID, c.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		friends, err := gw.GetFriends(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, a.ID, friends[0].ID)
	})

	t.Run("blocks apply both ways", func(t *testing.T) {
		gw := newGateway(t, newTestClock())
		ctx := context.Background()
		users := seed(t, gw, "a", "b")
		a, b := users[0], users[1]

		first, err := gw.BlockUser(ctx, a.ID, b.ID)
		require.NoError(t, err)
		second, err := gw.BlockUser(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		blocked, err := gw.IsBlocked(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, blocked)

		require.NoError(t, gw.UnblockUser(ctx, a.ID, b.ID))
		blocked, err = gw.IsBlocked(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("edit window edges", func(t *testing.T) {
		clock := newTestClock()
		gw := newGateway(t, clock)
		ctx := context.Background()
		users := seed(t, gw, "a", "b")
		a, b := users[0], users[1]
		befriend(t, gw, a.ID, b.ID)

		sentAt := clock.Now()
		msg, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: a.ID, ReceiverID: b.ID, Content: "hi", Type: models.MessageTypeText})
		require.NoError(t, err)

		edited, err := gw.EditMessage(ctx, msg.ID, "nope", b.ID)
		require.NoError(t, err)
		assert.Nil(t, edited, "only the sender may edit")

		clock.Set(sentAt.Add(29*time.Minute + 59*time.Second))
		edited, err = gw.EditMessage(ctx, msg.ID, "hello", a.ID)
		require.NoError(t, err)
		require.NotNil(t, edited)
		assert.Equal(t, "hello", edited.Content)
		assert.True(t, edited.IsEdited)
		require.NotNil(t, edited.EditedAt)

		clock.Set(sentAt.Add(30*time.Minute + time.Second))
		edited, err = gw.EditMessage(ctx, msg.ID, "late", a.ID)
		require.NoError(t, err)
		assert.Nil(t, edited)

		stored, err := gw.GetMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", stored.Content)

		edited, err = gw.EditMessage(ctx, 987654, "ghost", a.ID)
		require.NoError(t, err)
		assert.Nil(t, edited)
	})

	t.Run("delete window edges", func(t *testing.T) {
		clock := newTestClock()
		gw := newGateway(t, clock)
		ctx := context.Background()
		users := seed(t, gw, "a", "b")
		a, b := users[0], users[1]

		sentAt := clock.Now()
		late, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: a.ID, ReceiverID: b.ID, Content: "late"})
		require.NoError(t, err)
		onTime, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: a.ID, ReceiverID: b.ID, Content: "on time"})
		require.NoError(t, err)

		clock.Set(sentAt.Add(10*time.Minute + time.Second))
		ok, err := gw.DeleteMessage(ctx, late.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		clock.Set(sentAt.Add(9*time.Minute + 59*time.Second))
		ok, err = gw.DeleteMessage(ctx, onTime.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, ok, "only the sender may delete")

		ok, err = gw.DeleteMessage(ctx, onTime.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := gw.GetMessage(ctx, onTime.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsDeleted)
		assert.NotNil(t, stored.DeletedAt)
		assert.Equal(t, models.DeletedTombstone, stored.Content)

		ok, err = gw.DeleteMessage(ctx, onTime.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, ok, "already deleted")

		edited, err := gw.EditMessage(ctx, onTime.ID, "revive", a.ID)
		require.NoError(t, err)
		assert.Nil(t, edited, "deleted messages cannot be edited")
	})

	t.Run("reactions are idempotent", func(t *testing.T) {
		gw := newGateway(t, newTestClock())
		ctx := context.Background()
		users := seed(t, gw, "a", "b")
		a, b := users[0], users[1]
		msg, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: a.ID, ReceiverID: b.ID, Content: "hi"})
		require.NoError(t, err)

		first, err := gw.AddReactionToMessage(ctx, models.MessageReaction{MessageID: msg.ID, UserID: b.ID, Reaction: "👍"})
		require.NoError(t, err)
		second, err := gw.AddReactionToMessage(ctx, models.MessageReaction{MessageID: msg.ID, UserID: b.ID, Reaction: "👍"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		_, err = gw.AddReactionToMessage(ctx, models.MessageReaction{MessageID: msg.ID, UserID: b.ID, Reaction: "🎉"})
		require.NoError(t, err)

		reactions, err := gw.GetMessageReactions(ctx, msg.ID)
		require.NoError(t, err)
		assert.Len(t, reactions, 2)
	})

	t.Run("online status stamps last seen", func(t *testing.T) {
		clock := newTestClock()
		gw := newGateway(t, clock)
		ctx := context.Background()
		u := seed(t, gw, "a")[0]

		require.NoError(t, gw.SetUserOnlineStatus(ctx, u.ID, true))
		clock.Set(clock.Now().Add(time.Hour))
		require.NoError(t, gw.SetUserOnlineStatus(ctx, u.ID, false))

		stored, err := gw.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsOnline)
		require.NotNil(t, stored.LastSeen)
		assert.True(t, stored.LastSeen.Equal(clock.Now()))
	})

	t.Run("reset online status only touches online users", func(t *testing.T) {
		gw := newGateway(t, newTestClock())
		ctx := context.Background()
		users := seed(t, gw, "a", "b", "c")

		require.NoError(t, gw.SetUserOnlineStatus(ctx, users[0].ID, true))
		require.NoError(t, gw.SetUserOnlineStatus(ctx, users[1].ID, true))

		n, err := gw.ResetOnlineStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		for _, u := range users {
			stored, err := gw.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.False(t, stored.IsOnline)
		}
	})
}
