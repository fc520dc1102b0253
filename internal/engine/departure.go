package engine

import (
	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
)

// MoveType is a host action applied to another lobby member.
type MoveType string

const (
	MoveHost      MoveType = "host"
	MoveSpectator MoveType = "spec"
	MoveTeam1     MoveType = "team1"
	MoveTeam2     MoveType = "team2"
	MoveSwap      MoveType = "swap"
	MoveKick      MoveType = "kick"
	MoveBan       MoveType = "ban"
)

func ParseMoveType(s string) (MoveType, error) {
	switch m := MoveType(s); m {
	case MoveHost, MoveSpectator, MoveTeam1, MoveTeam2, MoveSwap, MoveKick, MoveBan:
		return m, nil
	}
	return "", domain.ErrInvalidMoveType
}

// Departure reports the side effects of a user leaving a lobby.
type Departure struct {
	// LobbyDeleted is set when the last user left.
	LobbyDeleted bool
	Forfeit      bool
	NewHost      uuid.UUID
	// GameEnded is set when the departure completed a stalled final
	// team-turn.
	GameEnded bool
}

// HandleDeparture removes userID from the lobby. The last user leaving
// deletes the lobby. A player leaving a running game as the last member of
// their team forfeits it for the opponent; a player whose leaving completes
// their team's turn triggers the normal hand-off. The host role passes to
// the earliest-joined remaining participant. names feeds the turn banner.
func (e *Engine) HandleDeparture(s *domain.LobbySnapshot, userID uuid.UUID, names Names) (*Departure, error) {
	role := s.Role(userID)
	if role.Kind == domain.RoleNone {
		return nil, domain.ErrRoleNotFound
	}
	d := &Departure{}
	if s.Lobby.UserCount <= 1 {
		d.LobbyDeleted = true
		return d, nil
	}

	g := s.Game
	if role.Kind == domain.RolePlayer && g != nil && g.InProgress() {
		p := s.Player(userID)
		if s.TeamSize(role.TeamID) <= 1 {
			e.forfeit(s, role.TeamID)
			d.Forfeit = true
		} else if p.IsTurnAvailable && !teammateActive(s, p) {
			s.RemovePlayer(userID)
			_, d.GameEnded = e.completeTeamTurn(s, role.TeamID)
			refreshTurnBanner(s, names)
		}
	}

	if s.IsHost(userID) {
		for _, c := range s.Participants() {
			if c.UserID != userID {
				s.Lobby.HostUserID = c.UserID
				d.NewHost = c.UserID
				break
			}
		}
	}

	s.Lobby.UserCount--
	s.RemovePlayer(userID)
	s.RemoveSpectator(userID)
	return d, nil
}

func teammateActive(s *domain.LobbySnapshot, p *domain.Player) bool {
	for _, mate := range s.TeamPlayers(p.TeamID) {
		if mate.UserID != p.UserID && mate.IsTurnAvailable {
			return true
		}
	}
	return false
}

// forfeit ends the running game with loser's opponent as winner.
func (e *Engine) forfeit(s *domain.LobbySnapshot, loser domain.TeamID) {
	g := s.Game
	now := e.clock.Now()
	g.EndDate = &now
	g.CommentaryText = winText(loser.Opponent())
	g.SubCommentText = forfeitText(loser)
	g.TurnText = ""
	for _, p := range s.Players {
		p.IsTurnAvailable = false
	}
	for _, id := range domain.TeamIDs {
		s.Team(id).Phase = domain.TeamPhaseFinished
	}
}

// MoveUser applies a host action to target. Seat changes are refused while
// a game is running; kick and ban go through HandleDeparture.
func (e *Engine) MoveUser(s *domain.LobbySnapshot, hostID, target uuid.UUID, move MoveType, names Names) (*Departure, error) {
	if hostID == target {
		return nil, domain.ErrMoveSelf
	}
	if err := RequireHost(s, hostID); err != nil {
		return nil, err
	}
	role := s.Role(target)
	if role.Kind == domain.RoleNone {
		return nil, domain.ErrMoveTarget
	}

	switch move {
	case MoveSwap, MoveSpectator:
		if role.Kind != domain.RolePlayer {
			return nil, domain.ErrMustBePlayer
		}
	case MoveTeam1, MoveTeam2:
		if role.Kind != domain.RoleSpectator {
			return nil, domain.ErrMustSpectate
		}
	}

	switch move {
	case MoveSwap, MoveSpectator, MoveTeam1, MoveTeam2:
		if s.Game != nil && s.Game.InProgress() {
			return nil, domain.ErrGameInProgress
		}
	}

	switch move {
	case MoveHost:
		s.Lobby.HostUserID = target
		return &Departure{NewHost: target}, nil

	case MoveSwap:
		p := s.Player(target)
		to := p.TeamID.Opponent()
		if s.TeamSize(to) >= domain.MaxTeamPlayers {
			return nil, domain.ErrTeamFull
		}
		p.TeamID = to
		p.ResetTurn()
		return &Departure{}, nil

	case MoveTeam1, MoveTeam2:
		to := domain.TeamID(move)
		if s.TeamSize(to) >= domain.MaxTeamPlayers {
			return nil, domain.ErrTeamFull
		}
		e.seat(s, target, to)
		return &Departure{}, nil

	case MoveSpectator:
		e.unseat(s, target)
		return &Departure{}, nil

	case MoveKick, MoveBan:
		d, err := e.HandleDeparture(s, target, names)
		if err != nil {
			return nil, err
		}
		if move == MoveBan {
			s.Ban(target)
		}
		return d, nil
	}
	return nil, domain.ErrInvalidMoveType
}
