package engine

import (
	"fmt"

	"github.com/dom/scrapjack/internal/domain"
)

const (
	shufflingText = "Shuffling teams..."
	startText     = "Tap, Scrap, and Jack!"
	drawText      = "Scrapped a Draw!"
)

func waitingText(freeJoin bool) string {
	if freeJoin {
		return "Waiting for players..."
	}
	return "Waiting for host..."
}

func modeText(name string) string {
	return fmt.Sprintf("'%s' mode", name)
}

func turnText(name string) string {
	return fmt.Sprintf("Turn: '%s'", name)
}

func winText(team domain.TeamID) string {
	return team.DisplayName() + " Scrapped a Win!"
}

func forfeitText(team domain.TeamID) string {
	return team.DisplayName() + " forfeited..."
}

// refreshTurnBanner updates the headline after a turn. A finished game
// announces the winner. Otherwise the turn line names the active player when
// exactly one holds a turn, or the active team when several act at once.
func refreshTurnBanner(s *domain.LobbySnapshot, names Names) {
	g := s.Game
	if g.IsEnded() {
		g.CommentaryText = resultText(s)
		g.TurnText = ""
		return
	}

	for _, id := range domain.TeamIDs {
		var active []*domain.Player
		for _, p := range s.TeamPlayers(id) {
			if p.IsTurnAvailable {
				active = append(active, p)
			}
		}
		switch {
		case len(active) == 1:
			g.TurnText = turnText(names.Of(active[0].UserID))
			return
		case len(active) > 1:
			g.TurnText = "Turn: " + id.DisplayName()
			return
		}
	}
	g.TurnText = ""
}

// resultText names the team with the higher total. Equal totals are a draw.
func resultText(s *domain.LobbySnapshot) string {
	t1 := s.Team(domain.Team1).TeamTotalScore
	t2 := s.Team(domain.Team2).TeamTotalScore
	switch {
	case t1 > t2:
		return winText(domain.Team1)
	case t2 > t1:
		return winText(domain.Team2)
	default:
		return drawText
	}
}
