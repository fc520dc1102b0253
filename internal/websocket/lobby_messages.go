package websocket

import (
	"time"

	"github.com/dom/scrapjack/internal/service"
)

// LobbyMessageType represents the type of lobby WebSocket message
type LobbyMessageType string

const (
	// Server -> Client events
	LobbyMsgStateSync LobbyMessageType = "lobby_state_sync"
	LobbyMsgClosed    LobbyMessageType = "lobby_closed"
	LobbyMsgError     LobbyMessageType = "error"

	// Client -> Server commands
	LobbyMsgJoinLobby  LobbyMessageType = "join_lobby"
	LobbyMsgLeaveLobby LobbyMessageType = "leave_lobby"
)

// LobbyMessage is the envelope for all lobby WebSocket messages
type LobbyMessage struct {
	Type      LobbyMessageType `json:"type"`
	Payload   interface{}      `json:"payload,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// NewLobbyMessage creates a new lobby message
func NewLobbyMessage(msgType LobbyMessageType, payload interface{}) *LobbyMessage {
	return &LobbyMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// LobbyStateSyncPayload carries the full lobby state. It is sent on join and
// after every committed change.
type LobbyStateSyncPayload struct {
	Lobby *service.LobbyView `json:"lobby"`
}

// LobbyClosedPayload is sent when the last user leaves and the lobby is
// deleted.
type LobbyClosedPayload struct {
	LobbyID string `json:"lobbyId"`
}

// LobbyErrorPayload is sent on errors
type LobbyErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JoinLobbyPayload is sent by client to join a lobby
type JoinLobbyPayload struct {
	LobbyID string `json:"lobbyId"`
}
