package engine

import (
	"slices"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
)

// smallerTeam returns the side with fewer players. Ties go to team2.
func smallerTeam(s *domain.LobbySnapshot) domain.TeamID {
	if s.TeamSize(domain.Team1) >= s.TeamSize(domain.Team2) {
		return domain.Team2
	}
	return domain.Team1
}

// AutoPopulate seats every spectator. Shuffled spectators first close the
// size gap on the smaller team, then the rest alternate sides from a random
// starting side. A side at capacity is skipped; when both are full the
// remaining spectators stay put.
func (e *Engine) AutoPopulate(s *domain.LobbySnapshot) {
	if len(s.Spectators) == 0 {
		return
	}
	pool := make([]uuid.UUID, 0, len(s.Spectators))
	for _, sp := range s.Spectators {
		pool = append(pool, sp.UserID)
	}
	shuffle(e.rng, pool)

	small := smallerTeam(s)
	gap := s.TeamSize(small.Opponent()) - s.TeamSize(small)
	for i := 0; i < gap && len(pool) > 0; i++ {
		var id uuid.UUID
		id, pool = pool[len(pool)-1], pool[:len(pool)-1]
		e.seatWithin(s, id, small)
	}

	side := domain.Team2
	if e.rng.IntN(2) == 0 {
		side = domain.Team1
	}
	for len(pool) > 0 {
		var id uuid.UUID
		id, pool = pool[len(pool)-1], pool[:len(pool)-1]
		e.seatWithin(s, id, side)
		side = side.Opponent()
	}
}

// seatWithin seats userID on team, falling back to the opponent when team is
// full.
func (e *Engine) seatWithin(s *domain.LobbySnapshot, userID uuid.UUID, team domain.TeamID) bool {
	for _, id := range []domain.TeamID{team, team.Opponent()} {
		if s.TeamSize(id) < domain.MaxTeamPlayers {
			e.seat(s, userID, id)
			return true
		}
	}
	return false
}

// AutoPopulateOne seats a new lobby entrant on the smaller team. It reports
// false when both teams are full and the caller must add a spectator instead.
func (e *Engine) AutoPopulateOne(s *domain.LobbySnapshot, userID uuid.UUID, photoURL string) bool {
	team := smallerTeam(s)
	if s.TeamSize(team) >= domain.MaxTeamPlayers {
		return false
	}
	s.AddPlayer(domain.NewPlayer(s.Lobby.ID, userID, team, photoURL, e.clock.Now()))
	return true
}

// CheckRearrange fails unless the game exists and is not mid-round.
func CheckRearrange(s *domain.LobbySnapshot) error {
	if s.Game == nil || s.Game.InProgress() {
		return domain.ErrGameNotEditable
	}
	return nil
}

// BeginShuffle posts the shuffling banner and returns the commentary it
// replaced. It reports false when there is nobody to shuffle.
func BeginShuffle(s *domain.LobbySnapshot) (string, bool, error) {
	if err := CheckRearrange(s); err != nil {
		return "", false, err
	}
	if len(s.Players) == 0 {
		return "", false, nil
	}
	prior := s.Game.CommentaryText
	s.Game.CommentaryText = shufflingText
	return prior, true, nil
}

// ShuffleTeams redistributes every player alternately across the teams in
// random order. Join dates, photos and ready flags carry over.
func (e *Engine) ShuffleTeams(s *domain.LobbySnapshot) error {
	if err := CheckRearrange(s); err != nil {
		return err
	}
	players := slices.Clone(s.Players)
	shuffle(e.rng, players)

	side := domain.Team2
	if e.rng.IntN(2) == 0 {
		side = domain.Team1
	}
	for i := len(players) - 1; i >= 0; i-- {
		p := players[i]
		p.TeamID = side
		p.ResetTurn()
		side = side.Opponent()
	}
	return nil
}

// EndShuffle restores the commentary saved by BeginShuffle.
func EndShuffle(s *domain.LobbySnapshot, prior string) {
	if s.Game != nil {
		s.Game.CommentaryText = prior
	}
}

// ClearTeams turns every player back into a spectator with a fresh join
// date.
func (e *Engine) ClearTeams(s *domain.LobbySnapshot) error {
	if err := CheckRearrange(s); err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.UserID)
	}
	for _, id := range ids {
		e.unseat(s, id)
	}
	return nil
}

// NewSpectator builds the spectator record for a lobby entrant.
func (e *Engine) NewSpectator(s *domain.LobbySnapshot, userID uuid.UUID, photoURL string) *domain.Spectator {
	return &domain.Spectator{
		LobbyID:  s.Lobby.ID,
		UserID:   userID,
		JoinDate: e.clock.Now(),
		PhotoURL: photoURL,
	}
}

// Now exposes the engine clock to callers creating records.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}
