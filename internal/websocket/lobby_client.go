package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// LobbyClient wraps a WebSocket connection subscribed to lobby updates
type LobbyClient struct {
	hub     *LobbyHub
	conn    *websocket.Conn
	send    chan []byte
	userID  uuid.UUID
	lobbyID uuid.UUID
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewLobbyClient creates a new lobby client
func NewLobbyClient(hub *LobbyHub, conn *websocket.Conn, userID uuid.UUID) *LobbyClient {
	return &LobbyClient{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		logger: hub.logger.With(zap.String("user_id", userID.String())),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *LobbyClient) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		var msg LobbyMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Message must be JSON")
			continue
		}

		c.handleMessage(&msg)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *LobbyClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming client messages
func (c *LobbyClient) handleMessage(msg *LobbyMessage) {
	switch msg.Type {
	case LobbyMsgJoinLobby:
		c.handleJoinLobby(msg)
	case LobbyMsgLeaveLobby:
		c.hub.leave(c)
	default:
		c.sendError("UNKNOWN_MESSAGE", "Unknown message type")
	}
}

// handleJoinLobby processes join lobby requests
func (c *LobbyClient) handleJoinLobby(msg *LobbyMessage) {
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid payload")
		return
	}

	var payload JoinLobbyPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid join lobby payload")
		return
	}

	lobbyID, err := uuid.Parse(payload.LobbyID)
	if err != nil {
		c.sendError("INVALID_LOBBY_ID", "Invalid lobby ID format")
		return
	}

	c.hub.JoinLobby(c, lobbyID)
}

// Send sends a message to the client
func (c *LobbyClient) Send(msg *LobbyMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message", zap.Error(err))
		return
	}
	c.trySend(data)
}

// trySend drops the message when the client's buffer is full
func (c *LobbyClient) trySend(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message")
	}
}

// sendError sends an error message to the client
func (c *LobbyClient) sendError(code, message string) {
	c.Send(NewLobbyMessage(LobbyMsgError, LobbyErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// Close marks the client as closed and closes its send channel
func (c *LobbyClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.send)
}

// UserID returns the client's user ID
func (c *LobbyClient) UserID() uuid.UUID {
	return c.userID
}

// LobbyID returns the lobby the client is subscribed to
func (c *LobbyClient) LobbyID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lobbyID
}

// SetLobbyID sets the lobby the client is subscribed to
func (c *LobbyClient) SetLobbyID(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobbyID = id
}
