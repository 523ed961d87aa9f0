package ws

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/models"
	"talkio_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one websocket connection. Its read loop runs in one goroutine and
// handles events one at a time, its write loop is the only writer of data
// frames, so pushes to the same socket never interleave.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	alive        atomic.Bool // open and not terminated
	awaitingPong atomic.Bool // pinged, no pong yet

	mu       sync.RWMutex
	userID   uint
	uniqueID string
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(logger.WithConnID(h.baseCtx, id))
	c := &Client{
		id:     id,
		conn:   conn,
		hub:    h,
		log:    logger.FromContext(ctx),
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, h.opts.SendBuffer),
		done:   make(chan struct{}),
	}
	c.alive.Store(true)
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) IsAlive() bool { return c.alive.Load() }

// Identity returns the authenticated user, ok is false before auth.
func (c *Client) Identity() (userID uint, uniqueID string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.uniqueID, c.userID != 0
}

func (c *Client) authenticated() bool {
	_, _, ok := c.Identity()
	return ok
}

func (c *Client) setIdentity(u *models.User) {
	c.mu.Lock()
	c.userID = u.ID
	c.uniqueID = u.UniqueID
	c.mu.Unlock()

	c.ctx = logger.WithUserID(c.ctx, u.ID)
}

// Push queues a frame without blocking. A client whose buffer is full is
// too slow to keep and gets closed.
func (c *Client) Push(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		c.log.Warn("send buffer full, closing connection")
		c.Terminate()
		return false
	}
}

func (c *Client) pushEvent(eventType string, data interface{}) bool {
	frame, err := encode(eventType, data)
	if err != nil {
		c.log.Error("failed to encode event", "event", eventType, "error", err)
		return false
	}
	return c.Push(frame)
}

func (c *Client) sendError(err error) {
	c.pushEvent(EventError, errorPayload(err))
}

// Close flushes what is queued, sends a close frame and drops the socket.
func (c *Client) Close() { c.stop(false) }

// Terminate drops the socket without flushing.
func (c *Client) Terminate() { c.stop(true) }

func (c *Client) stop(hard bool) {
	c.closeOnce.Do(func() {
		c.alive.Store(false)
		c.cancel()
		close(c.done)
		if hard {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.hub.opts.WriteTimeout))
}

func (c *Client) readPump() {
	defer c.hub.disconnect(c)

	c.conn.SetReadLimit(c.hub.opts.MaxMessageBytes)
	c.conn.SetPongHandler(func(string) error {
		c.awaitingPong.Store(false)
		return nil
	})
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.AuthTimeout))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.authenticated() && isTimeout(err) && c.IsAlive() {
				c.hub.rejectAuth(c, apperrors.ErrAuthTimeout)
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket read error", "error", err)
			}
			return
		}

		c.hub.dispatch(c, data)

		if !c.IsAlive() {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				c.log.Debug("websocket write error", "error", err)
				c.Terminate()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.hub.opts.WriteTimeout))
			return
		}
	}
}

func (c *Client) write(frame []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// flush writes whatever is still queued after a graceful close.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
