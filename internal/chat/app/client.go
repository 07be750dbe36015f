package app

import (
	"sync"
	"time"

	"estate_chat_service/pkg/config"
	"estate_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// frameWriter write side of *websocket.Conn used by the write pump
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client one websocket connection with a buffered outbound queue
type Client struct {
	id     string
	userID string
	conn   frameWriter
	cfg    config.WebSocketConfig

	send      chan []byte
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewClient wrap conn for userID
func NewClient(conn *websocket.Conn, userID string, cfg config.WebSocketConfig) *Client {
	return newClient(conn, userID, cfg)
}

func newClient(conn frameWriter, userID string, cfg config.WebSocketConfig) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		id:      uuid.NewString(),
		userID:  userID,
		conn:    conn,
		cfg:     cfg,
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// ID connection id
func (c *Client) ID() string { return c.id }

// UserID authenticated user
func (c *Client) UserID() string { return c.userID }

// Enqueue queue msg for the write pump, false when closed or full
func (c *Client) Enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stop the write pump, safe to call more than once
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done closed once the client is closed
func (c *Client) Done() <-chan struct{} { return c.done }

// Wait block until the write pump returned
func (c *Client) Wait() { <-c.stopped }

// writePump 單一 goroutine 負責寫入 (websocket conn 不支援併發寫)
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.stopped)
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Log.Warn("websocket write", zap.String("userID", c.userID), zap.Error(err))
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Warn("websocket ping", zap.String("userID", c.userID), zap.Error(err))
				c.Close()
				return
			}

		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return
		}
	}
}

// flush write what is still queued, e.g. the error frame of a rejected connect
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
