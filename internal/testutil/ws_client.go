package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/scrapjack/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSMessage is a received envelope with the payload left undecoded.
type WSMessage struct {
	Type      websocket.LobbyMessageType `json:"type"`
	Payload   json.RawMessage            `json:"payload"`
	Timestamp int64                      `json:"timestamp"`
}

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *WSMessage
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *WSMessage, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

func (c *WSClient) send(msgType websocket.LobbyMessageType, payload interface{}) {
	c.t.Helper()

	data, err := json.Marshal(websocket.NewLobbyMessage(msgType, payload))
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// JoinLobby subscribes the connection to a lobby's updates
func (c *WSClient) JoinLobby(lobbyID string) {
	c.send(websocket.LobbyMsgJoinLobby, websocket.JoinLobbyPayload{LobbyID: lobbyID})
}

// LeaveLobby drops the current subscription
func (c *WSClient) LeaveLobby() {
	c.send(websocket.LobbyMsgLeaveLobby, nil)
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.LobbyMessageType, timeout time.Duration) *WSMessage {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectStateSync waits for and decodes a lobby state sync
func (c *WSClient) ExpectStateSync(timeout time.Duration) *websocket.LobbyStateSyncPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.LobbyMsgStateSync, timeout)

	var payload websocket.LobbyStateSyncPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode state sync payload: %v", err)
	}
	return &payload
}

// ExpectClosed waits for and decodes a lobby closed event
func (c *WSClient) ExpectClosed(timeout time.Duration) *websocket.LobbyClosedPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.LobbyMsgClosed, timeout)

	var payload websocket.LobbyClosedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode lobby closed payload: %v", err)
	}
	return &payload
}

// ExpectError waits for and decodes an error message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.LobbyErrorPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.LobbyMsgError, timeout)

	var payload websocket.LobbyErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode error payload: %v", err)
	}
	return &payload
}

// ExpectNoMessage fails if any message arrives within d
func (c *WSClient) ExpectNoMessage(d time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message %s", msg.Type)
		}
	case <-time.After(d):
	}
}
