package engine

import (
	"slices"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
)

// GameOptions are the host-editable switches of a game.
type GameOptions struct {
	IsFreeTeamJoin bool
	IsAutoPopulate bool
}

// UpsertGame creates the lobby's game or resets it onto mode. A game in
// progress cannot be edited. With auto-populate, spectators are seated
// before the record is written.
func (e *Engine) UpsertGame(s *domain.LobbySnapshot, mode *domain.Mode, opts GameOptions) error {
	if s.Game != nil && s.Game.InProgress() {
		return domain.ErrGameInProgress
	}
	if mode == nil {
		return domain.ErrModeMissing
	}

	if opts.IsAutoPopulate {
		e.AutoPopulate(s)
	}

	snapshot := mode.Snapshot()
	g := s.Game
	if g == nil {
		g = &domain.Game{LobbyID: s.Lobby.ID}
		s.Game = g
	}
	g.SetMode(snapshot)
	g.CommentaryText = waitingText(opts.IsFreeTeamJoin)
	g.SubCommentText = modeText(snapshot.Name)
	g.TurnText = ""
	g.RoundEndCount = 0
	g.IsFreeTeamJoin = opts.IsFreeTeamJoin
	g.IsAutoPopulate = opts.IsAutoPopulate
	g.CreateDate = e.clock.Now()
	g.RecentRoll = nil
	g.StartDate = nil
	g.EndDate = nil

	for _, id := range domain.TeamIDs {
		s.Team(id).Reset()
	}
	for _, p := range s.Players {
		p.ResetTurn()
	}
	return nil
}

// StartGame grants the whole of a randomly chosen team its turn. Both teams
// need a player and every player must be ready. Ready flags are cleared.
func (e *Engine) StartGame(s *domain.LobbySnapshot, names Names) error {
	g := s.Game
	if g == nil || g.IsStarted() {
		return domain.ErrGameNotJoinable
	}
	for _, id := range domain.TeamIDs {
		players := s.TeamPlayers(id)
		if len(players) == 0 {
			return domain.ErrTeamEmpty
		}
		for _, p := range players {
			if !p.IsReady {
				return domain.ErrPlayersNotReady
			}
		}
	}

	first := domain.TeamIDs[e.rng.IntN(len(domain.TeamIDs))]
	for _, p := range s.Players {
		p.IsReady = false
		p.ResetTurn()
		p.IsTurnAvailable = p.TeamID == first
	}
	s.Team(first).Phase = domain.TeamPhaseActive
	s.Team(first.Opponent()).Phase = domain.TeamPhaseIdle

	// The latest joiner of the starting team is named first to act.
	starters := slices.Clone(s.TeamPlayers(first))
	slices.Reverse(starters)
	name := names.Of(starters[0].UserID)

	now := e.clock.Now()
	g.StartDate = &now
	g.CommentaryText = startText
	g.SubCommentText = "'" + name + "' taps first"
	g.TurnText = turnText(name)
	return nil
}

// JoinTeam moves userID onto team before the game starts. When free join is
// off only the host may pick a side.
func (e *Engine) JoinTeam(s *domain.LobbySnapshot, userID uuid.UUID, team domain.TeamID) error {
	if err := RequireParticipant(s, userID); err != nil {
		return err
	}
	g := s.Game
	if g == nil || g.IsStarted() {
		return domain.ErrGameNotJoinable
	}
	if !s.IsHost(userID) && !g.IsFreeTeamJoin {
		return domain.ErrFreeJoinDisabled
	}
	if role := s.Role(userID); role.Kind == domain.RolePlayer && role.TeamID == team {
		return domain.ErrAlreadyOnTeam
	}
	if s.TeamSize(team) >= domain.MaxTeamPlayers {
		return domain.ErrTeamFull
	}

	e.seat(s, userID, team)
	return nil
}

// ToggleReady flips the caller's ready flag.
func (e *Engine) ToggleReady(s *domain.LobbySnapshot, userID uuid.UUID) (bool, error) {
	if err := RequireParticipant(s, userID); err != nil {
		return false, err
	}
	p := s.Player(userID)
	if p == nil {
		return false, domain.ErrNotPlayer
	}
	p.IsReady = !p.IsReady
	return p.IsReady, nil
}

// LeaveGame demotes a player to spectator outside a running game.
func (e *Engine) LeaveGame(s *domain.LobbySnapshot, userID uuid.UUID) error {
	if err := RequireParticipant(s, userID); err != nil {
		return err
	}
	if s.Player(userID) == nil {
		return domain.ErrNotPlayer
	}
	if s.Game != nil && s.Game.InProgress() {
		return domain.ErrCannotLeaveInProgress
	}
	e.unseat(s, userID)
	return nil
}
