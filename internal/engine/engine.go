// Package engine holds the game rules. Every operation mutates a
// domain.LobbySnapshot in place and performs no I/O; callers load the
// snapshot, apply one operation to a copy and commit the copy atomically.
package engine

import (
	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
)

type Engine struct {
	rng   Rand
	clock Clock
}

func New(rng Rand, clock Clock) *Engine {
	return &Engine{rng: rng, clock: clock}
}

// Names resolves user ids to display names for banner text.
type Names map[uuid.UUID]string

func (n Names) Of(userID uuid.UUID) string {
	if name, ok := n[userID]; ok && name != "" {
		return name
	}
	return domain.UnknownDisplayName
}

// RequireParticipant fails unless userID is a player or spectator.
func RequireParticipant(s *domain.LobbySnapshot, userID uuid.UUID) error {
	if !s.IsParticipant(userID) {
		return domain.ErrNotInLobby
	}
	return nil
}

// RequireHost fails unless userID is in the lobby and holds the host role.
func RequireHost(s *domain.LobbySnapshot, userID uuid.UUID) error {
	if err := RequireParticipant(s, userID); err != nil {
		return err
	}
	if !s.IsHost(userID) {
		return domain.ErrNotHost
	}
	return nil
}

// seat converts userID's current role into a fresh player on team.
func (e *Engine) seat(s *domain.LobbySnapshot, userID uuid.UUID, team domain.TeamID) *domain.Player {
	photo := domain.DefaultPhotoURL
	if p := s.RemovePlayer(userID); p != nil {
		photo = p.PhotoURL
	} else if sp := s.RemoveSpectator(userID); sp != nil {
		photo = sp.PhotoURL
	}
	p := domain.NewPlayer(s.Lobby.ID, userID, team, photo, e.clock.Now())
	s.AddPlayer(p)
	return p
}

// unseat converts a player into a spectator with a fresh join date.
func (e *Engine) unseat(s *domain.LobbySnapshot, userID uuid.UUID) {
	p := s.RemovePlayer(userID)
	if p == nil {
		return
	}
	s.AddSpectator(&domain.Spectator{
		LobbyID:  s.Lobby.ID,
		UserID:   userID,
		JoinDate: e.clock.Now(),
		PhotoURL: p.PhotoURL,
	})
}
