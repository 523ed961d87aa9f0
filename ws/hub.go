package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"talkio_backend/internal/auth"
	"talkio_backend/internal/config"
	"talkio_backend/internal/logger"
	"talkio_backend/internal/metrics"
	"talkio_backend/internal/models"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/services/chat"
	"talkio_backend/internal/validator"
	"talkio_backend/pkg/apperrors"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "talkio/ws"

var ErrHubClosed = errors.New("websocket hub is shut down")

// Options are the transport knobs of the hub.
type Options struct {
	AuthTimeout     time.Duration
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	AllowedOrigins  []string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AuthTimeout:     cfg.WebSocket.AuthTimeout.Std(),
		PingInterval:    cfg.WebSocket.PingInterval.Std(),
		WriteTimeout:    cfg.WebSocket.WriteTimeout.Std(),
		MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
		SendBuffer:      cfg.WebSocket.SendBuffer,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	}
}

func (o Options) withDefaults() Options {
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = 5 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 << 10
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	return o
}

// Deps are the collaborators the hub relays through. Metrics and Tracer
// may be nil.
type Deps struct {
	Registry  *Registry
	Resolver  auth.IdentityResolver
	Gateway   repositories.Gateway
	Messages  *chat.MessageService
	Reactions *chat.ReactionService
	Mutations *chat.MutationService
	Validator *validator.Validator
	Metrics   *metrics.Metrics
	Tracer    trace.Tracer
}

// Hub owns every websocket connection of the process: authenticated ones
// through the Registry, and all of them (superseded and unauthenticated
// included) for liveness and shutdown.
type Hub struct {
	registry  *Registry
	resolver  auth.IdentityResolver
	gateway   repositories.Gateway
	messages  *chat.MessageService
	reactions *chat.ReactionService
	mutations *chat.MutationService
	validator *validator.Validator
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	opts     Options
	baseCtx  context.Context
	upgrader websocket.Upgrader
	log      *slog.Logger

	presence presenceLocks

	mu     sync.Mutex
	conns  map[*Client]struct{}
	wg     sync.WaitGroup
	closed bool
}

func NewHub(deps Deps, opts Options) *Hub {
	opts = opts.withDefaults()
	if deps.Registry == nil {
		deps.Registry = NewRegistry(deps.Metrics)
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}

	h := &Hub{
		registry:  deps.Registry,
		resolver:  deps.Resolver,
		gateway:   deps.Gateway,
		messages:  deps.Messages,
		reactions: deps.Reactions,
		mutations: deps.Mutations,
		validator: deps.Validator,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		opts:      opts,
		baseCtx:   context.Background(),
		log:       logger.With("component", "ws_hub"),
		conns:     make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) Registry() *Registry { return h.registry }

// Count is the number of authenticated users online.
func (h *Hub) Count() int { return h.registry.Count() }

func (h *Hub) track(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	return nil
}

func (h *Hub) untrack(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	h.wg.Done()
}

func (h *Hub) connections() []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// dispatch handles one inbound frame. It runs on the connection's read
// goroutine, so events of one connection are handled in arrival order.
func (h *Hub) dispatch(c *Client, raw []byte) {
	start := time.Now()

	env, err := decodeEnvelope(raw)
	if err != nil {
		c.sendError(err)
		h.observe(c, "invalid", start, err)
		return
	}

	event := eventLabel(env.Type)
	ctx, span := h.tracer.Start(c.ctx, "ws."+event,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("ws.event", event),
			attribute.String("ws.conn_id", c.id),
		),
	)
	defer span.End()

	err = h.handle(ctx, c, env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	h.observe(c, event, start, err)
}

func (h *Hub) handle(ctx context.Context, c *Client, env *Envelope) error {
	if env.Type == EventAuth {
		if c.authenticated() {
			c.sendError(apperrors.ErrAlreadyAuthenticated)
			return apperrors.ErrAlreadyAuthenticated
		}
		ev, err := decodeEvent(env, h.validator)
		if err != nil {
			h.rejectAuth(c, apperrors.ErrAuthenticationFailed.WithError(err))
			return err
		}
		return h.authenticate(ctx, c, ev.(*AuthEvent))
	}

	if !c.authenticated() {
		c.sendError(apperrors.ErrNotAuthenticated)
		return apperrors.ErrNotAuthenticated
	}

	ev, err := decodeEvent(env, h.validator)
	if err != nil {
		c.sendError(err)
		return err
	}

	switch e := ev.(type) {
	case *ChatMessageEvent:
		err = h.relayMessage(ctx, c, e)
	case *MessageReactionEvent:
		err = h.relayReaction(ctx, c, e)
	case *EditMessageEvent:
		err = h.relayEdit(ctx, c, e)
	case *DeleteMessageEvent:
		err = h.relayDelete(ctx, c, e)
	}
	if err != nil {
		c.sendError(err)
	}
	return err
}

func (h *Hub) authenticate(ctx context.Context, c *Client, e *AuthEvent) error {
	userID, err := h.resolver.Resolve(ctx, auth.Credentials{UserID: e.UserID, Token: e.Token})
	if err != nil {
		h.rejectAuth(c, apperrors.ErrAuthenticationFailed.WithError(err))
		return err
	}

	user, err := h.gateway.GetUser(ctx, userID)
	if err != nil {
		h.rejectAuth(c, apperrors.ErrAuthenticationFailed.WithError(err))
		return err
	}

	c.setIdentity(user)
	_ = c.conn.SetReadDeadline(time.Time{})

	unlock := h.presence.lock(user.ID)
	defer unlock()

	if previous := h.registry.Register(user.ID, c); previous != nil {
		logger.FromContext(c.ctx).Debug("connection superseded", "previous_conn_id", previous.id)
	}
	if err := h.gateway.SetUserOnlineStatus(ctx, user.ID, true); err != nil {
		logger.CtxWithError(c.ctx, "failed to persist online status", err)
	}

	h.broadcastStatus(ctx, user.ID, user.UniqueID, models.PresenceOnline)
	c.pushEvent(EventAuthSuccess, AuthSuccessPayload{UserID: user.ID, UniqueID: user.UniqueID})
	logger.CtxInfo(c.ctx, "websocket authenticated")
	return nil
}

// rejectAuth sends the single authError and closes the connection.
func (h *Hub) rejectAuth(c *Client, err error) {
	msg := apperrors.ErrAuthenticationFailed.Message
	if appErr, ok := apperrors.AsAppError(err); ok {
		msg = appErr.Message
	}
	c.pushEvent(EventAuthError, ErrorPayload{Message: msg})
	logger.CtxDebug(c.ctx, "websocket auth rejected", "error", err)
	c.Close()
}

// disconnect runs once per connection when its read loop exits.
func (h *Hub) disconnect(c *Client) {
	defer h.untrack(c)
	c.Close()

	userID, uniqueID, ok := c.Identity()
	if !ok {
		return
	}
	if !h.registry.Unregister(userID, c) {
		return
	}
	h.wentOffline(userID, uniqueID)
}

// Shutdown closes every connection and waits for their cleanup.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, c := range h.connections() {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) observe(c *Client, event string, start time.Time, err error) {
	d := time.Since(start)
	outcome := outcomeOf(err)
	h.metrics.EventHandled(event, outcome, d)
	logger.WSLog(logger.FromContext(c.ctx), event, outcome, d, err)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return "error"
	}
	switch appErr.Code {
	case apperrors.CodeValidationFailed:
		return "invalid"
	case apperrors.CodeForbidden, apperrors.CodeUnauthorized, apperrors.CodeInvalidOperation:
		return "rejected"
	case apperrors.CodePreconditionFailed:
		return "not_permitted"
	case apperrors.CodeStorageError:
		return "storage_error"
	}
	if appErr.Domain == "auth" {
		return "rejected"
	}
	return "error"
}

// eventLabel keeps client-chosen type strings out of metric labels.
func eventLabel(t string) string {
	switch t {
	case EventAuth, EventChatMessage, EventMessageReaction, EventEditMessage, EventDeleteMessage:
		return t
	}
	return "unknown"
}
