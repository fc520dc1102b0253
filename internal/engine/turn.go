package engine

import (
	"fmt"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
)

type TurnType string

const (
	TurnTap   TurnType = "tap"
	TurnScrap TurnType = "scrap"
	TurnJack  TurnType = "jack"
)

func ParseTurnType(s string) (TurnType, error) {
	switch t := TurnType(s); t {
	case TurnTap, TurnScrap, TurnJack:
		return t, nil
	}
	return "", domain.ErrInvalidTurnType
}

// TurnOutcome names how a single turn action resolved.
type TurnOutcome string

const (
	OutcomeTapped    TurnOutcome = "tapped"
	OutcomeScraptap  TurnOutcome = "scraptap"
	OutcomeTappedOut TurnOutcome = "tapped_out"
	OutcomeScrapped  TurnOutcome = "scrapped"
	OutcomeJackedIn  TurnOutcome = "jacked_in"
	OutcomeScrapjack TurnOutcome = "scrapjack"
	OutcomeJackedOut TurnOutcome = "jacked_out"
)

// TurnResult reports what SubmitTurn did.
type TurnResult struct {
	Outcome TurnOutcome `json:"outcome"`
	// Roll is the drawn value before any first-tap bonus; nil for scrap.
	Roll  *int `json:"roll"`
	Score int  `json:"score"`

	TurnEnded     bool `json:"turnEnded"`
	TeamTurnEnded bool `json:"teamTurnEnded"`
	RoundEnded    bool `json:"roundEnded"`
	GameEnded     bool `json:"gameEnded"`
}

// SubmitTurn runs one tap, scrap or jack for userID, who must hold an active
// turn in a game in progress. Illegal actions leave s untouched.
func (e *Engine) SubmitTurn(s *domain.LobbySnapshot, userID uuid.UUID, turnType TurnType, names Names) (*TurnResult, error) {
	if err := RequireParticipant(s, userID); err != nil {
		return nil, err
	}
	g := s.Game
	if g == nil || !g.InProgress() {
		return nil, domain.ErrGameNotInProgress
	}
	if !hasActiveTurn(s) {
		return nil, domain.ErrNoActiveTurn
	}
	p := s.Player(userID)
	if p == nil || !p.IsTurnAvailable {
		return nil, domain.ErrTurnNotAvailable
	}
	if _, ok := s.Teams[p.TeamID]; !ok {
		return nil, domain.ErrTeamMissing
	}

	mode := g.ModeSnapshot()
	name := names.Of(userID)
	res := &TurnResult{}

	switch turnType {
	case TurnTap:
		r := roll(e.rng, mode.RollLow, mode.RollHigh)
		res.Roll = &r
		g.RecentRoll = &r

		bonus := 0
		if p.TurnScore == domain.NoActiveTurn {
			bonus = 1
		}
		score := max(p.TurnScore, 0) + r + bonus
		switch {
		case score < mode.TurnMaxScore:
			p.TurnScore = score
			p.TurnTapCount++
			g.CommentaryText = ""
			g.SubCommentText = ""
			res.Outcome = OutcomeTapped
			res.Score = score
		case score == mode.TurnMaxScore:
			p.TurnScore = score
			g.CommentaryText = fmt.Sprintf("That's a Scraptap! %d points!", score)
			g.SubCommentText = fmt.Sprintf("'%s' scraptapped: %d", name, score)
			res.Outcome = OutcomeScraptap
			res.Score = score
			res.TurnEnded = true
		default:
			p.TurnScore = 0
			g.CommentaryText = "Ya tapped out! 0 points!"
			g.SubCommentText = fmt.Sprintf("'%s' tapped out: 0", name)
			res.Outcome = OutcomeTappedOut
			res.TurnEnded = true
		}

	case TurnScrap:
		if p.TurnTapCount <= 0 {
			return nil, domain.ErrInvalidTurn
		}
		score := max(p.TurnScore, 0)
		g.CommentaryText = fmt.Sprintf("Scrapped %d points.", score)
		g.SubCommentText = fmt.Sprintf("'%s' scrapped it: %d", name, score)
		res.Outcome = OutcomeScrapped
		res.Score = score
		res.TurnEnded = true

	case TurnJack:
		if !mode.JackEnabled() || p.TurnTapCount < mode.TapsBeforeJack {
			return nil, domain.ErrInvalidTurn
		}
		r := roll(e.rng, mode.RollLow, mode.RollHigh)
		res.Roll = &r
		g.RecentRoll = &r

		pre := max(p.TurnScore, 0) + r
		switch {
		case pre <= mode.TurnMaxScore:
			score := jackScore(pre, mode.JackMultiplier)
			p.TurnScore = score
			res.Score = score
			if pre == mode.TurnMaxScore {
				g.CommentaryText = fmt.Sprintf("SCRAPJACK! Perfect %d!", score)
				g.SubCommentText = fmt.Sprintf("'%s' scrapjacked: %d", name, score)
				res.Outcome = OutcomeScrapjack
			} else {
				g.CommentaryText = fmt.Sprintf("Ya jacked in! %d points!", score)
				g.SubCommentText = fmt.Sprintf("'%s' jacked in: %d", name, score)
				res.Outcome = OutcomeJackedIn
			}
		default:
			p.TurnScore = 0
			g.CommentaryText = "Ya jacked out! 0 points!"
			g.SubCommentText = fmt.Sprintf("'%s' jacked out: 0", name)
			res.Outcome = OutcomeJackedOut
		}
		res.TurnEnded = true

	default:
		return nil, domain.ErrInvalidTurnType
	}

	if res.TurnEnded {
		e.endTurn(s, p, res)
	}
	refreshTurnBanner(s, names)
	return res, nil
}

// jackScore multiplies the pre-multiplied score. Mode validation keeps the
// multiplier whole.
func jackScore(pre int, multiplier float64) int {
	return pre * int(multiplier)
}

func hasActiveTurn(s *domain.LobbySnapshot) bool {
	for _, p := range s.Players {
		if p.IsTurnAvailable {
			return true
		}
	}
	return false
}

// endTurn closes p's turn, folds its score into the team average and, once
// no teammate still holds a turn, completes the team-turn.
func (e *Engine) endTurn(s *domain.LobbySnapshot, p *domain.Player, res *TurnResult) {
	p.IsTurnAvailable = false
	p.TurnTapCount = 0

	team := s.Team(p.TeamID)
	sum := float64(p.TurnScore)
	count := 1
	othersActive := false
	for _, mate := range s.TeamPlayers(p.TeamID) {
		if mate.UserID == p.UserID {
			continue
		}
		if mate.TurnScore >= 0 {
			sum += float64(mate.TurnScore)
			count++
		}
		if mate.IsTurnAvailable {
			othersActive = true
		}
	}
	team.TeamTurnAverageScore = sum / float64(count)

	if othersActive {
		return
	}
	res.TeamTurnEnded = true
	res.RoundEnded, res.GameEnded = e.completeTeamTurn(s, p.TeamID)
}

// completeTeamTurn banks the team average, resets the team's turn state and
// either ends the game or hands every opponent a turn. It reports whether a
// round and the game ended.
func (e *Engine) completeTeamTurn(s *domain.LobbySnapshot, id domain.TeamID) (roundEnded, gameEnded bool) {
	g := s.Game
	mode := g.ModeSnapshot()
	team := s.Team(id)
	opp := s.Team(id.Opponent())

	team.TeamTotalScore += team.TeamTurnAverageScore
	team.TeamTurnAverageScore = 0
	team.TeamTurnEndCount++
	team.Phase = domain.TeamPhaseFinished
	for _, mate := range s.TeamPlayers(id) {
		mate.ResetTurn()
	}

	if team.TeamTurnEndCount == opp.TeamTurnEndCount {
		roundEnded = true
		if g.RoundEndCount < mode.RoundMaxCount {
			g.RoundEndCount++
		}
		if g.RoundEndCount == mode.RoundMaxCount {
			now := e.clock.Now()
			g.EndDate = &now
			return roundEnded, true
		}
	}

	for _, p := range s.TeamPlayers(id.Opponent()) {
		p.ResetTurn()
		p.IsTurnAvailable = true
	}
	opp.Phase = domain.TeamPhaseActive
	return roundEnded, false
}
