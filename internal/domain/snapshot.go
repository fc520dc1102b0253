package domain

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
)

// RoleKind is how a user participates in a lobby.
type RoleKind int

const (
	RoleNone RoleKind = iota
	RoleSpectator
	RolePlayer
)

// Role is a user's current place in a lobby. TeamID is set for players.
type Role struct {
	Kind   RoleKind
	TeamID TeamID
}

// Participant is a lobby member of either kind, used for host succession.
type Participant struct {
	UserID   uuid.UUID
	JoinDate time.Time
}

// LobbySnapshot is every record a lobby operation reads or writes, loaded
// together and committed together. Players and Spectators are kept ordered by
// join date.
type LobbySnapshot struct {
	Lobby      *Lobby
	Game       *Game
	Teams      map[TeamID]*Team
	Players    []*Player
	Spectators []*Spectator
	Bans       []uuid.UUID
}

// NewLobbySnapshot builds an empty snapshot with both team records.
func NewLobbySnapshot(lobby *Lobby) *LobbySnapshot {
	return &LobbySnapshot{
		Lobby: lobby,
		Teams: map[TeamID]*Team{
			Team1: NewTeam(lobby.ID, Team1),
			Team2: NewTeam(lobby.ID, Team2),
		},
	}
}

// Clone returns a deep copy that can be mutated without touching s.
func (s *LobbySnapshot) Clone() *LobbySnapshot {
	c := &LobbySnapshot{
		Teams:      make(map[TeamID]*Team, len(s.Teams)),
		Players:    make([]*Player, 0, len(s.Players)),
		Spectators: make([]*Spectator, 0, len(s.Spectators)),
		Bans:       slices.Clone(s.Bans),
	}
	if s.Lobby != nil {
		lobby := *s.Lobby
		c.Lobby = &lobby
	}
	if s.Game != nil {
		c.Game = s.Game.clone()
	}
	for id, t := range s.Teams {
		team := *t
		c.Teams[id] = &team
	}
	for _, p := range s.Players {
		player := *p
		c.Players = append(c.Players, &player)
	}
	for _, sp := range s.Spectators {
		spectator := *sp
		c.Spectators = append(c.Spectators, &spectator)
	}
	return c
}

// Team returns the aggregate record for id, creating it if the store had
// none.
func (s *LobbySnapshot) Team(id TeamID) *Team {
	if s.Teams == nil {
		s.Teams = make(map[TeamID]*Team, 2)
	}
	t, ok := s.Teams[id]
	if !ok {
		t = NewTeam(s.Lobby.ID, id)
		s.Teams[id] = t
	}
	return t
}

// TeamPlayers returns the players on team id in join order.
func (s *LobbySnapshot) TeamPlayers(id TeamID) []*Player {
	var players []*Player
	for _, p := range s.Players {
		if p.TeamID == id {
			players = append(players, p)
		}
	}
	return players
}

func (s *LobbySnapshot) TeamSize(id TeamID) int {
	n := 0
	for _, p := range s.Players {
		if p.TeamID == id {
			n++
		}
	}
	return n
}

func (s *LobbySnapshot) Player(userID uuid.UUID) *Player {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *LobbySnapshot) Spectator(userID uuid.UUID) *Spectator {
	for _, sp := range s.Spectators {
		if sp.UserID == userID {
			return sp
		}
	}
	return nil
}

func (s *LobbySnapshot) Role(userID uuid.UUID) Role {
	if p := s.Player(userID); p != nil {
		return Role{Kind: RolePlayer, TeamID: p.TeamID}
	}
	if s.Spectator(userID) != nil {
		return Role{Kind: RoleSpectator}
	}
	return Role{Kind: RoleNone}
}

func (s *LobbySnapshot) IsParticipant(userID uuid.UUID) bool {
	return s.Role(userID).Kind != RoleNone
}

func (s *LobbySnapshot) IsHost(userID uuid.UUID) bool {
	return s.Lobby.HostUserID == userID
}

func (s *LobbySnapshot) IsBanned(userID uuid.UUID) bool {
	return slices.Contains(s.Bans, userID)
}

// Ban records userID as banned. Repeated bans are no-ops.
func (s *LobbySnapshot) Ban(userID uuid.UUID) {
	if !s.IsBanned(userID) {
		s.Bans = append(s.Bans, userID)
	}
}

// AddPlayer inserts p keeping join order.
func (s *LobbySnapshot) AddPlayer(p *Player) {
	s.Players = append(s.Players, p)
	slices.SortStableFunc(s.Players, func(a, b *Player) int {
		return compareJoin(a.JoinDate, a.UserID, b.JoinDate, b.UserID)
	})
}

// AddSpectator inserts sp keeping join order.
func (s *LobbySnapshot) AddSpectator(sp *Spectator) {
	s.Spectators = append(s.Spectators, sp)
	slices.SortStableFunc(s.Spectators, func(a, b *Spectator) int {
		return compareJoin(a.JoinDate, a.UserID, b.JoinDate, b.UserID)
	})
}

// RemovePlayer deletes and returns the player record for userID.
func (s *LobbySnapshot) RemovePlayer(userID uuid.UUID) *Player {
	for i, p := range s.Players {
		if p.UserID == userID {
			s.Players = slices.Delete(s.Players, i, i+1)
			return p
		}
	}
	return nil
}

// RemoveSpectator deletes and returns the spectator record for userID.
func (s *LobbySnapshot) RemoveSpectator(userID uuid.UUID) *Spectator {
	for i, sp := range s.Spectators {
		if sp.UserID == userID {
			s.Spectators = slices.Delete(s.Spectators, i, i+1)
			return sp
		}
	}
	return nil
}

// Participants lists players and spectators in join order.
func (s *LobbySnapshot) Participants() []Participant {
	all := make([]Participant, 0, len(s.Players)+len(s.Spectators))
	for _, p := range s.Players {
		all = append(all, Participant{UserID: p.UserID, JoinDate: p.JoinDate})
	}
	for _, sp := range s.Spectators {
		all = append(all, Participant{UserID: sp.UserID, JoinDate: sp.JoinDate})
	}
	slices.SortStableFunc(all, func(a, b Participant) int {
		return compareJoin(a.JoinDate, a.UserID, b.JoinDate, b.UserID)
	})
	return all
}

// UserIDs returns every participant id.
func (s *LobbySnapshot) UserIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Players)+len(s.Spectators))
	for _, p := range s.Players {
		ids = append(ids, p.UserID)
	}
	for _, sp := range s.Spectators {
		ids = append(ids, sp.UserID)
	}
	return ids
}

func compareJoin(at time.Time, aid uuid.UUID, bt time.Time, bid uuid.UUID) int {
	if c := at.Compare(bt); c != 0 {
		return c
	}
	return bytes.Compare(aid[:], bid[:])
}

// WriteSet is the result of one lobby operation, committed atomically.
type WriteSet struct {
	Snapshot *LobbySnapshot
	// DeleteLobby removes the lobby and every record under it.
	DeleteLobby bool
	// ModePlayed is the mode whose games-played counter to increment.
	ModePlayed string
}
