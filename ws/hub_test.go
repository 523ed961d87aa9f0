package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"talkio_backend/internal/auth"
	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/services/chat"
	"talkio_backend/pkg/apperrors"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingGateway records offline persistence calls per user.
type countingGateway struct {
	*repositories.MemoryGateway

	mu      sync.Mutex
	offline map[uint]int
}

func (g *countingGateway) SetUserOnlineStatus(ctx context.Context, id uint, online bool) error {
	if !online {
		g.mu.Lock()
		g.offline[id]++
		g.mu.Unlock()
	}
	return g.MemoryGateway.SetUserOnlineStatus(ctx, id, online)
}

func (g *countingGateway) offlineCalls(id uint) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.offline[id]
}

type harness struct {
	t      *testing.T
	gw     *countingGateway
	clock  *clock
	hub    *Hub
	srv    *httptest.Server
	tokens *auth.TokenManager

	alice, bob, carol *models.User
}

type harnessOption func(*Options, *Deps)

func withJWT(tokens *auth.TokenManager) harnessOption {
	return func(_ *Options, d *Deps) { d.Resolver = auth.NewJWTResolver(tokens) }
}

func withAuthTimeout(d time.Duration) harnessOption {
	return func(o *Options, _ *Deps) { o.AuthTimeout = d }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	gw := &countingGateway{
		MemoryGateway: repositories.NewMemoryGateway(repositories.WithClock(c.Now)),
		offline:       make(map[uint]int),
	}
	ctx := context.Background()

	mk := func(name string) *models.User {
		u := &models.User{Username: name, UniqueID: name, AgeGroup: models.AgeGroupAdult}
		require.NoError(t, gw.CreateUser(ctx, u))
		return u
	}
	h := &harness{t: t, gw: gw, clock: c, alice: mk("alice"), bob: mk("bob"), carol: mk("carol")}

	req, err := gw.CreateFriendRequest(ctx, h.alice.ID, h.bob.ID)
	require.NoError(t, err)
	_, err = gw.RespondFriendRequest(ctx, req.ID, models.FriendshipAccepted)
	require.NoError(t, err)

	h.tokens = auth.NewTokenManager("test-secret", time.Hour)
	o := Options{AuthTimeout: waitTimeout, PingInterval: time.Hour}
	d := Deps{
		Resolver:  auth.TrustResolver{},
		Gateway:   gw,
		Messages:  chat.NewMessageService(gw, 1000),
		Reactions: chat.NewReactionService(gw),
		Mutations: chat.NewMutationService(gw, repositories.DefaultWindows(), 1000),
	}
	for _, opt := range opts {
		opt(&o, &d)
	}

	h.hub = NewHub(d, o)
	h.srv = httptest.NewServer(h.hub)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = h.hub.Shutdown(ctx)
		h.srv.Close()
	})
	return h
}

// testConn reads frames in the background so control frames are handled
// without the test having to read.
type testConn struct {
	t      *testing.T
	conn   *websocket.Conn
	frames chan Envelope
	closed chan struct{}
}

func (h *harness) dial(configure ...func(*websocket.Conn)) *testConn {
	h.t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(h.t, err)
	for _, fn := range configure {
		fn(conn)
	}

	tc := &testConn{t: h.t, conn: conn, frames: make(chan Envelope, 64), closed: make(chan struct{})}
	go func() {
		defer close(tc.closed)
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			tc.frames <- env
		}
	}()
	h.t.Cleanup(func() { _ = conn.Close() })
	return tc
}

// connect dials and authenticates as u.
func (h *harness) connect(u *models.User, configure ...func(*websocket.Conn)) *testConn {
	h.t.Helper()
	tc := h.dial(configure...)
	tc.send(EventAuth, AuthEvent{UserID: u.ID})
	env := tc.expect(EventAuthSuccess)

	var p AuthSuccessPayload
	require.NoError(h.t, json.Unmarshal(env.Data, &p))
	require.Equal(h.t, u.ID, p.UserID)
	return tc
}

func (c *testConn) send(eventType string, data interface{}) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(outbound{Type: eventType, Data: data}))
}

// expect skips frames of other types until one of eventType arrives.
func (c *testConn) expect(eventType string) Envelope {
	c.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case env := <-c.frames:
			if env.Type == eventType {
				return env
			}
		case <-c.closed:
			c.t.Fatalf("connection closed while waiting for %s", eventType)
		case <-deadline:
			c.t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func (c *testConn) expectNone(eventType string, wait time.Duration) {
	c.t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case env := <-c.frames:
			if env.Type == eventType {
				c.t.Fatalf("unexpected %s: %s", eventType, env.Data)
			}
		case <-deadline:
			return
		}
	}
}

func (c *testConn) expectClosed() {
	c.t.Helper()
	select {
	case <-c.closed:
	case <-time.After(waitTimeout):
		c.t.Fatal("connection was not closed")
	}
}

func decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (h *harness) waitRegistered(u *models.User) *Client {
	h.t.Helper()
	var c *Client
	require.Eventually(h.t, func() bool {
		var ok bool
		c, ok = h.hub.Registry().Lookup(u.ID)
		return ok
	}, waitTimeout, 10*time.Millisecond)
	return c
}

func TestAuthSuccessRegistersAndMarksOnline(t *testing.T) {
	h := newHarness(t)
	h.connect(h.alice)

	assert.True(t, h.hub.Registry().IsOnline(h.alice.ID))
	stored, err := h.gw.GetUser(context.Background(), h.alice.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnline)
}

func TestAuthUnknownUserClosesConnection(t *testing.T) {
	h := newHarness(t)
	c := h.dial()
	c.send(EventAuth, AuthEvent{UserID: 999})

	env := c.expect(EventAuthError)
	assert.Equal(t, "Authentication failed", decode[ErrorPayload](t, env).Message)
	c.expectClosed()
	assert.Equal(t, 0, h.hub.Count())
}

func TestAuthWithJWT(t *testing.T) {
	tokens := auth.NewTokenManager("jwt-secret", time.Hour)
	h := newHarness(t, withJWT(tokens))

	bad := h.dial()
	bad.send(EventAuth, AuthEvent{UserID: h.alice.ID, Token: "garbage"})
	bad.expect(EventAuthError)
	bad.expectClosed()

	token, err := tokens.GenerateToken(h.alice.ID, h.alice.UniqueID)
	require.NoError(t, err)
	good := h.dial()
	good.send(EventAuth, AuthEvent{Token: token})
	env := good.expect(EventAuthSuccess)
	assert.Equal(t, "alice", decode[AuthSuccessPayload](t, env).UniqueID)
}

func TestAuthTimeout(t *testing.T) {
	h := newHarness(t, withAuthTimeout(100*time.Millisecond))
	c := h.dial()

	env := c.expect(EventAuthError)
	assert.Equal(t, "Authentication timeout", decode[ErrorPayload](t, env).Message)
	c.expectClosed()
}

func TestEventsBeforeAuthAreRejected(t *testing.T) {
	h := newHarness(t)
	c := h.dial()

	c.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "hi"})
	env := c.expect(EventError)
	assert.Equal(t, "Not authenticated", decode[ErrorPayload](t, env).Message)

	// still open and able to authenticate
	c.send(EventAuth, AuthEvent{UserID: h.alice.ID})
	c.expect(EventAuthSuccess)

	msgs, err := h.gw.GetMessagesBetween(context.Background(), h.alice.ID, h.bob.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSecondAuthIsAnError(t *testing.T) {
	h := newHarness(t)
	c := h.connect(h.alice)

	c.send(EventAuth, AuthEvent{UserID: h.bob.ID})
	c.expect(EventError)

	userID, _, ok := h.waitRegistered(h.alice).Identity()
	assert.True(t, ok)
	assert.Equal(t, h.alice.ID, userID)
	assert.False(t, h.hub.Registry().IsOnline(h.bob.ID))
}

func TestPresenceOnline(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	h.connect(h.bob)

	env := alice.expect(EventUserStatus)
	p := decode[UserStatusPayload](t, env)
	assert.Equal(t, h.bob.ID, p.UserID)
	assert.Equal(t, "bob", p.UniqueID)
	assert.Equal(t, models.PresenceOnline, p.Status)
}

func TestChatMessageDelivered(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, map[string]interface{}{"receiverId": h.bob.ID, "content": "hi", "type": "text"})

	sent := decode[models.Message](t, alice.expect(EventMessageSent))
	assert.NotZero(t, sent.ID)
	assert.False(t, sent.SentAt.IsZero())
	assert.Equal(t, "hi", sent.Content)

	incoming := decode[NewMessagePayload](t, bob.expect(EventNewMessage))
	require.NotNil(t, incoming.Message)
	assert.Equal(t, sent.ID, incoming.Message.ID)
	assert.Equal(t, h.alice.ID, incoming.Sender.ID)
	assert.Equal(t, "alice", incoming.Sender.UniqueID)
}

func TestChatMessageToOfflineFriendIsStored(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "later"})
	alice.expect(EventMessageSent)

	msgs, err := h.gw.GetMessagesBetween(context.Background(), h.bob.ID, h.alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "later", msgs[0].Content)
	assert.Equal(t, models.MessageTypeText, msgs[0].Type)
}

func TestChatMessageRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.connect(h.alice)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.carol.ID, Content: "hi"})
	env := alice.expect(EventError)
	assert.Equal(t, "Not authorized to send message to this user", decode[ErrorPayload](t, env).Message)

	_, err := h.gw.BlockUser(ctx, h.bob.ID, h.alice.ID)
	require.NoError(t, err)
	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "hi"})
	env = alice.expect(EventError)
	assert.Equal(t, "Message could not be sent due to blocking", decode[ErrorPayload](t, env).Message)

	msgs, err := h.gw.GetMessagesBetween(ctx, h.alice.ID, h.bob.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMalformedEventsKeepConnectionOpen(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)

	require.NoError(t, alice.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	alice.expect(EventError)

	alice.send("teleport", map[string]string{})
	env := alice.expect(EventError)
	assert.Equal(t, "Unknown event type", decode[ErrorPayload](t, env).Message)

	alice.send(EventChatMessage, map[string]interface{}{"receiverId": h.bob.ID, "content": "x", "type": "video"})
	env = alice.expect(EventError)
	assert.Equal(t, "VALIDATION_FAILED", decode[ErrorPayload](t, env).Code)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "still here"})
	alice.expect(EventMessageSent)
}

func TestReactionRelay(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "hi"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))

	bob.send(EventMessageReaction, MessageReactionEvent{MessageID: msg.ID, Reaction: "👍"})
	ack := decode[models.MessageReaction](t, bob.expect(EventReactionSent))
	got := decode[models.MessageReaction](t, alice.expect(EventNewReaction))
	assert.Equal(t, ack.ID, got.ID)
	assert.Equal(t, "👍", got.Reaction)

	// same triple again is not duplicated
	bob.send(EventMessageReaction, MessageReactionEvent{MessageID: msg.ID, Reaction: "👍"})
	again := decode[models.MessageReaction](t, bob.expect(EventReactionSent))
	assert.Equal(t, ack.ID, again.ID)

	reactions, err := h.gw.GetMessageReactions(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 1)
}

func TestReactionToUnknownMessage(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)

	alice.send(EventMessageReaction, MessageReactionEvent{MessageID: 4242, Reaction: "👍"})
	env := alice.expect(EventError)
	assert.Equal(t, "Message does not exist", decode[ErrorPayload](t, env).Message)
}

func TestEditWithinWindow(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "helo"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))

	h.clock.Advance(29 * time.Minute)
	alice.send(EventEditMessage, EditMessageEvent{MessageID: msg.ID, Content: "hello"})

	confirmed := decode[MessageEditedPayload](t, alice.expect(EventMessageEditConfirmed))
	edited := decode[MessageEditedPayload](t, bob.expect(EventMessageEdited))
	assert.Equal(t, msg.ID, edited.MessageID)
	assert.Equal(t, "hello", edited.Content)
	require.NotNil(t, edited.EditedAt)
	require.NotNil(t, edited.Message)
	assert.True(t, edited.Message.IsEdited)
	assert.NotNil(t, edited.Reactions)
	assert.Equal(t, confirmed.Content, edited.Content)
}

func TestEditAfterWindowIsRefused(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "original"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))

	h.clock.Advance(31 * time.Minute)
	alice.send(EventEditMessage, EditMessageEvent{MessageID: msg.ID, Content: "changed"})

	env := alice.expect(EventError)
	assert.Contains(t, decode[ErrorPayload](t, env).Message, "30 minutes")
	bob.expectNone(EventMessageEdited, 100*time.Millisecond)

	stored, err := h.gw.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content)
	assert.False(t, stored.IsEdited)
}

func TestEditWithOversizedContentIsRefused(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "hi"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))
	bob.expect(EventNewMessage)

	alice.send(EventEditMessage, EditMessageEvent{MessageID: msg.ID, Content: strings.Repeat("x", 1001)})
	env := alice.expect(EventError)
	assert.Equal(t, apperrors.ErrContentTooLong.Message, decode[ErrorPayload](t, env).Message)
	bob.expectNone(EventMessageEdited, 100*time.Millisecond)

	stored, err := h.gw.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Content)
	assert.False(t, stored.IsEdited)
}

func TestEditByNonSenderIsRefused(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "mine"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))

	bob.send(EventEditMessage, EditMessageEvent{MessageID: msg.ID, Content: "yours"})
	bob.expect(EventError)
	bob.send(EventDeleteMessage, DeleteMessageEvent{MessageID: msg.ID})
	bob.expect(EventError)

	stored, err := h.gw.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Content)
	assert.False(t, stored.IsDeleted)
}

func TestDeleteRelay(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "oops"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))

	h.clock.Advance(9 * time.Minute)
	alice.send(EventDeleteMessage, DeleteMessageEvent{MessageID: msg.ID})

	alice.expect(EventMessageDeleteConfirmed)
	deleted := decode[MessageDeletedPayload](t, bob.expect(EventMessageDeleted))
	assert.Equal(t, msg.ID, deleted.MessageID)

	stored, err := h.gw.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, models.DeletedTombstone, stored.Content)

	// deleted messages cannot be edited
	alice.send(EventEditMessage, EditMessageEvent{MessageID: msg.ID, Content: "again"})
	alice.expect(EventError)
}

func TestDeleteAfterWindowIsRefused(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)

	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "keep"})
	msg := decode[models.Message](t, alice.expect(EventMessageSent))

	h.clock.Advance(10*time.Minute + time.Second)
	alice.send(EventDeleteMessage, DeleteMessageEvent{MessageID: msg.ID})
	env := alice.expect(EventError)
	assert.Contains(t, decode[ErrorPayload](t, env).Message, "10 minutes")
}

func TestDisconnectBroadcastsOfflineOnce(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	bob := h.connect(h.bob)
	alice.expect(EventUserStatus)

	require.NoError(t, bob.conn.Close())

	p := decode[UserStatusPayload](t, alice.expect(EventUserStatus))
	assert.Equal(t, h.bob.ID, p.UserID)
	assert.Equal(t, models.PresenceOffline, p.Status)

	require.Eventually(t, func() bool { return h.gw.offlineCalls(h.bob.ID) == 1 }, waitTimeout, 10*time.Millisecond)
	alice.expectNone(EventUserStatus, 200*time.Millisecond)
	assert.Equal(t, 1, h.gw.offlineCalls(h.bob.ID))
	assert.False(t, h.hub.Registry().IsOnline(h.bob.ID))

	stored, err := h.gw.GetUser(context.Background(), h.bob.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOnline)
	assert.NotNil(t, stored.LastSeen)
}

func TestSupersededConnectionClosingKeepsUserOnline(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	first := h.connect(h.bob)
	alice.expect(EventUserStatus)
	second := h.connect(h.bob)
	alice.expect(EventUserStatus)

	require.NoError(t, first.conn.Close())
	alice.expectNone(EventUserStatus, 200*time.Millisecond)
	assert.True(t, h.hub.Registry().IsOnline(h.bob.ID))
	assert.Equal(t, 0, h.gw.offlineCalls(h.bob.ID))

	// the newer connection still receives messages
	alice.send(EventChatMessage, ChatMessageEvent{ReceiverID: h.bob.ID, Content: "ping"})
	second.expect(EventNewMessage)
}

func TestOfflineIsSkippedWhenUserReauthenticated(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	h.connect(h.bob)
	alice.expect(EventUserStatus)

	// bob's old connection finishes its cleanup after the new one registered
	h.hub.wentOffline(h.bob.ID, h.bob.UniqueID)

	alice.expectNone(EventUserStatus, 200*time.Millisecond)
	assert.Equal(t, 0, h.gw.offlineCalls(h.bob.ID))
	stored, err := h.gw.GetUser(context.Background(), h.bob.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnline)
}

func TestPresenceLockSerializesPerUser(t *testing.T) {
	var p presenceLocks
	unlock := p.lock(7)

	acquired := make(chan struct{})
	go func() {
		release := p.lock(7)
		close(acquired)
		release()
	}()

	// other users are not blocked
	p.lock(8)()

	select {
	case <-acquired:
		t.Fatal("second lock for the same user acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(waitTimeout):
		t.Fatal("second lock never acquired")
	}

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.users) == 0
	}, waitTimeout, 10*time.Millisecond)
}

func TestSweepTerminatesUnresponsiveConnection(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	// bob never answers pings
	bob := h.connect(h.bob, func(conn *websocket.Conn) {
		conn.SetPingHandler(func(string) error { return nil })
	})
	alice.expect(EventUserStatus)

	aliceConn := h.waitRegistered(h.alice)
	assert.Equal(t, 0, h.hub.Sweep())
	require.Eventually(t, func() bool { return !aliceConn.awaitingPong.Load() }, waitTimeout, 10*time.Millisecond)

	assert.Equal(t, 1, h.hub.Sweep())

	p := decode[UserStatusPayload](t, alice.expect(EventUserStatus))
	assert.Equal(t, h.bob.ID, p.UserID)
	assert.Equal(t, models.PresenceOffline, p.Status)
	bob.expectClosed()

	require.Eventually(t, func() bool { return h.gw.offlineCalls(h.bob.ID) == 1 }, waitTimeout, 10*time.Millisecond)
	assert.True(t, h.hub.Registry().IsOnline(h.alice.ID))
}

func TestShutdownClosesConnections(t *testing.T) {
	h := newHarness(t)
	alice := h.connect(h.alice)
	anon := h.dial()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, h.hub.Shutdown(ctx))

	alice.expectClosed()
	anon.expectClosed()
	assert.Equal(t, 0, h.hub.Count())
	assert.Equal(t, 1, h.gw.offlineCalls(h.alice.ID))
}
