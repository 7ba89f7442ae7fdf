package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/service"
	"fastpai-be/pkg/rag/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 16
)

// Conn is the part of *websocket.Conn the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is a middleman between the websocket connection and the assistant.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn Conn

	// Session owned by this connection only.
	Session *session.Session

	service service.IAssistantService
	logger  logger.ILogger

	// Buffered channel of outbound messages.
	send chan []byte

	quit     chan struct{}
	stopOnce sync.Once
}

func newClient(hub *Hub, conn Conn, sess *session.Session, svc service.IAssistantService, log logger.ILogger) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Session: sess,
		service: svc,
		logger:  log,
		send:    make(chan []byte, sendBuffer),
		quit:    make(chan struct{}),
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.quit) })
}

// enqueue hands a frame to the write pump; false once the client is stopping.
func (c *Client) enqueue(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Client", "Failed to encode outbound frame", map[string]interface{}{
			"session_id": c.Session.ID,
			"error":      err.Error(),
		})
		return true
	}

	select {
	case c.send <- data:
		return true
	case <-c.quit:
		return false
	}
}

// readPump runs the session's turns one at a time, in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.service.CloseSession(c.Session)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Client", "Connection closed unexpectedly", map[string]interface{}{
					"session_id": c.Session.ID,
					"error":      err.Error(),
				})
			}
			return
		}

		c.logger.Info("Client", "Frame received", map[string]interface{}{
			"session_id": c.Session.ID,
			"bytes":      len(frame),
		})

		// A turn may outlast the pong deadline; the peer is alive as long as it keeps sending.
		reply := c.service.HandleFrame(context.Background(), c.Session, frame)
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.enqueue(reply) {
			return
		}
	}
}

// writePump pumps queued frames to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Client", "Write failed, dropping reply", map[string]interface{}{
					"session_id": c.Session.ID,
					"error":      err.Error(),
				})
				c.stop()
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		case <-c.quit:
			c.flush()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// flush writes whatever is already queued.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
