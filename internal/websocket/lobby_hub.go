package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const viewLoadTimeout = 5 * time.Second

// ViewLoader fetches the current state of a lobby for a joining client.
type ViewLoader func(ctx context.Context, lobbyID uuid.UUID) (*service.LobbyView, error)

// JoinLobbyRequest represents a request to join a lobby
type JoinLobbyRequest struct {
	Client  *LobbyClient
	LobbyID uuid.UUID
	View    *service.LobbyView
}

// LobbyHub fans lobby updates out to subscribed WebSocket clients. It
// implements service.Publisher.
type LobbyHub struct {
	lobbies    map[uuid.UUID]*LobbyState
	clients    map[*LobbyClient]bool
	register   chan *LobbyClient
	unregister chan *LobbyClient
	joinLobby  chan *JoinLobbyRequest
	leaveLobby chan *LobbyClient
	stop       chan struct{}
	done       chan struct{}
	stopped    bool

	views  ViewLoader
	logger *zap.Logger

	mu sync.RWMutex
}

var _ service.Publisher = (*LobbyHub)(nil)

// NewLobbyHub creates a new lobby hub
func NewLobbyHub(logger *zap.Logger) *LobbyHub {
	return &LobbyHub{
		lobbies:    make(map[uuid.UUID]*LobbyState),
		clients:    make(map[*LobbyClient]bool),
		register:   make(chan *LobbyClient),
		unregister: make(chan *LobbyClient),
		joinLobby:  make(chan *JoinLobbyRequest),
		leaveLobby: make(chan *LobbyClient),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetViewLoader sets the source of the state sent to joining clients. It
// must be called before Run.
func (h *LobbyHub) SetViewLoader(views ViewLoader) {
	h.views = views
}

// Run starts the lobby hub event loop
func (h *LobbyHub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true

			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*LobbyClient]bool)
			h.lobbies = make(map[uuid.UUID]*LobbyState)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.detachLocked(client)
			}
			h.mu.Unlock()

		case req := <-h.joinLobby:
			h.handleJoinLobby(req)

		case client := <-h.leaveLobby:
			h.mu.Lock()
			h.detachLocked(client)
			h.mu.Unlock()
		}
	}
}

// Stop gracefully shuts down the hub
func (h *LobbyHub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// Register adds a client to the hub
func (h *LobbyHub) Register(client *LobbyClient) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *LobbyHub) Unregister(client *LobbyClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// JoinLobby subscribes client to lobbyID, replacing any earlier
// subscription. The view is loaded on the caller's goroutine; the event loop
// only attaches the subscription.
func (h *LobbyHub) JoinLobby(client *LobbyClient, lobbyID uuid.UUID) {
	if h.views == nil {
		client.sendError("UNAVAILABLE", "Lobby state is unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), viewLoadTimeout)
	defer cancel()

	view, err := h.views(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, domain.ErrLobbyNotFound) {
			client.sendError("LOBBY_NOT_FOUND", "Lobby not found")
			return
		}
		h.logger.Error("failed to load lobby view", zap.String("lobby_id", lobbyID.String()), zap.Error(err))
		client.sendError("INTERNAL", "Failed to load lobby")
		return
	}

	select {
	case h.joinLobby <- &JoinLobbyRequest{Client: client, LobbyID: lobbyID, View: view}:
	case <-h.done:
	}
}

func (h *LobbyHub) handleJoinLobby(req *JoinLobbyRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	h.detachLocked(req.Client)
	state, exists := h.lobbies[req.LobbyID]
	if !exists {
		state = NewLobbyState(req.LobbyID)
		h.lobbies[req.LobbyID] = state
	}
	state.AddClient(req.Client)
	req.Client.SetLobbyID(req.LobbyID)
	h.mu.Unlock()

	req.Client.Send(NewLobbyMessage(LobbyMsgStateSync, LobbyStateSyncPayload{Lobby: req.View}))

	h.logger.Debug("client joined lobby",
		zap.String("lobby_id", req.LobbyID.String()),
		zap.String("user_id", req.Client.UserID().String()),
		zap.Int("clients", state.ClientCount()),
	)
}

// leave drops the client's lobby subscription without disconnecting it.
// It goes through the event loop so it stays ordered after a pending join.
func (h *LobbyHub) leave(client *LobbyClient) {
	select {
	case h.leaveLobby <- client:
	case <-h.done:
	}
}

// detachLocked removes client from its lobby. h.mu must be held.
func (h *LobbyHub) detachLocked(client *LobbyClient) {
	lobbyID := client.LobbyID()
	if lobbyID == uuid.Nil {
		return
	}
	if state, ok := h.lobbies[lobbyID]; ok {
		state.RemoveClient(client)
		if state.ClientCount() == 0 {
			delete(h.lobbies, lobbyID)
		}
	}
	client.SetLobbyID(uuid.Nil)
}

// GetLobbyStateIfExists returns the state for a lobby if it exists
func (h *LobbyHub) GetLobbyStateIfExists(lobbyID uuid.UUID) *LobbyState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lobbies[lobbyID]
}

// PublishLobby sends the new state to every subscriber of the lobby.
func (h *LobbyHub) PublishLobby(view *service.LobbyView) {
	state := h.GetLobbyStateIfExists(view.ID)
	if state == nil {
		return
	}
	state.Broadcast(NewLobbyMessage(LobbyMsgStateSync, LobbyStateSyncPayload{Lobby: view}))
}

// PublishLobbyClosed tells subscribers the lobby is gone and drops their
// subscriptions.
func (h *LobbyHub) PublishLobbyClosed(lobbyID uuid.UUID) {
	h.mu.Lock()
	state, ok := h.lobbies[lobbyID]
	delete(h.lobbies, lobbyID)
	h.mu.Unlock()
	if !ok {
		return
	}

	state.Broadcast(NewLobbyMessage(LobbyMsgClosed, LobbyClosedPayload{LobbyID: lobbyID.String()}))
	for _, c := range state.Clients() {
		if c.LobbyID() == lobbyID {
			c.SetLobbyID(uuid.Nil)
		}
	}
}
