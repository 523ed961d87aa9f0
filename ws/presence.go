package ws

import (
	"context"
	"sync"
	"time"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/models"
)

const offlinePersistTimeout = 5 * time.Second

// presenceLocks serializes the online and offline transitions of one user,
// so the last userStatus friends receive matches the registry.
type presenceLocks struct {
	mu    sync.Mutex
	users map[uint]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func (p *presenceLocks) lock(userID uint) (unlock func()) {
	p.mu.Lock()
	if p.users == nil {
		p.users = make(map[uint]*userLock)
	}
	l, ok := p.users[userID]
	if !ok {
		l = &userLock{}
		p.users[userID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.users, userID)
		}
		p.mu.Unlock()
	}
}

// broadcastStatus pushes a userStatus event to every online friend of the
// user. Failures are logged and never surface to the caller.
func (h *Hub) broadcastStatus(ctx context.Context, userID uint, uniqueID string, status models.PresenceStatus) {
	friends, err := h.gateway.GetFriends(ctx, userID)
	if err != nil {
		logger.CtxWithError(ctx, "failed to load friends for presence", err, "status", status)
		return
	}
	if len(friends) == 0 {
		return
	}

	frame, err := encode(EventUserStatus, UserStatusPayload{UserID: userID, UniqueID: uniqueID, Status: status})
	if err != nil {
		logger.CtxWithError(ctx, "failed to encode presence", err)
		return
	}
	for _, f := range friends {
		h.deliver(EventUserStatus, f.ID, frame)
	}
}

// wentOffline runs after the user's registered connection was removed. The
// connection context is already cancelled at this point. Nothing is sent or
// stored if a new connection has authenticated in the meantime.
func (h *Hub) wentOffline(userID uint, uniqueID string) {
	unlock := h.presence.lock(userID)
	defer unlock()

	if _, ok := h.registry.Lookup(userID); ok {
		return
	}

	ctx, cancel := context.WithTimeout(logger.WithUserID(h.baseCtx, userID), offlinePersistTimeout)
	defer cancel()

	h.broadcastStatus(ctx, userID, uniqueID, models.PresenceOffline)
	if err := h.gateway.SetUserOnlineStatus(ctx, userID, false); err != nil {
		logger.CtxWithError(ctx, "failed to persist offline status", err)
		return
	}
	logger.CtxInfo(ctx, "user went offline")
}
