package service

import "github.com/google/uuid"

// Publisher receives lobby state after each committed change.
type Publisher interface {
	PublishLobby(view *LobbyView)
	PublishLobbyClosed(lobbyID uuid.UUID)
}

type nopPublisher struct{}

func (nopPublisher) PublishLobby(*LobbyView)      {}
func (nopPublisher) PublishLobbyClosed(uuid.UUID) {}

// NopPublisher discards every update.
func NopPublisher() Publisher {
	return nopPublisher{}
}
