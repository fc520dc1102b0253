package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// LobbyState tracks the connections subscribed to one lobby
type LobbyState struct {
	lobbyID uuid.UUID

	mu      sync.RWMutex
	clients map[*LobbyClient]bool
}

// NewLobbyState creates a new lobby state
func NewLobbyState(lobbyID uuid.UUID) *LobbyState {
	return &LobbyState{
		lobbyID: lobbyID,
		clients: make(map[*LobbyClient]bool),
	}
}

// AddClient adds a client to the lobby
func (s *LobbyState) AddClient(client *LobbyClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// RemoveClient removes a client from the lobby
func (s *LobbyState) RemoveClient(client *LobbyClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
}

// ClientCount returns the number of connected clients
func (s *LobbyState) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Clients returns a copy of the subscribed clients
func (s *LobbyState) Clients() []*LobbyClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]*LobbyClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}

// Broadcast sends a message to all clients in the lobby
func (s *LobbyState) Broadcast(msg *LobbyMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		client.Send(msg)
	}
}
