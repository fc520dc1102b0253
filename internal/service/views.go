package service

import (
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/google/uuid"
)

// LobbyView is the client-facing state of a lobby, sent over HTTP and
// pushed to websocket subscribers after every change.
type LobbyView struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	HostUserID uuid.UUID       `json:"hostUserId"`
	MaxUsers   int             `json:"maxUsers"`
	UserCount  int             `json:"userCount"`
	CreatedAt  time.Time       `json:"createdAt"`
	Game       *GameView       `json:"game"`
	Teams      []TeamView      `json:"teams"`
	Spectators []SpectatorView `json:"spectators"`
}

type GameView struct {
	Mode           domain.ModeSnapshot `json:"mode"`
	Status         domain.GameStatus   `json:"status"`
	CommentaryText string              `json:"commentaryText"`
	SubCommentText string              `json:"subCommentText"`
	TurnText       string              `json:"turnText"`
	RoundEndCount  int                 `json:"roundEndCount"`
	IsFreeTeamJoin bool                `json:"isFreeTeamJoin"`
	IsAutoPopulate bool                `json:"isAutoPopulate"`
	RecentRoll     *int                `json:"recentRoll"`
	CreateDate     time.Time           `json:"createDate"`
	StartDate      *time.Time          `json:"startDate"`
	EndDate        *time.Time          `json:"endDate"`
}

type TeamView struct {
	ID               domain.TeamID    `json:"id"`
	Name             string           `json:"name"`
	TotalScore       float64          `json:"totalScore"`
	TurnAverageScore float64          `json:"turnAverageScore"`
	TurnEndCount     int              `json:"turnEndCount"`
	Phase            domain.TeamPhase `json:"phase"`
	Players          []PlayerView     `json:"players"`
}

type PlayerView struct {
	UserID          uuid.UUID              `json:"userId"`
	DisplayName     string                 `json:"displayName"`
	PhotoURL        string                 `json:"photoURL"`
	IsReady         bool                   `json:"isReady"`
	IsTurnAvailable bool                   `json:"isTurnAvailable"`
	TurnScore       int                    `json:"turnScore"`
	TurnTapCount    int                    `json:"turnTapCount"`
	TurnState       domain.PlayerTurnState `json:"turnState"`
	JoinDate        time.Time              `json:"joinDate"`
}

type SpectatorView struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	JoinDate    time.Time `json:"joinDate"`
}

// NewLobbyView renders s with display names from names.
func NewLobbyView(s *domain.LobbySnapshot, names engine.Names) *LobbyView {
	v := &LobbyView{
		ID:         s.Lobby.ID,
		Name:       s.Lobby.Name,
		HostUserID: s.Lobby.HostUserID,
		MaxUsers:   s.Lobby.MaxUsers,
		UserCount:  s.Lobby.UserCount,
		CreatedAt:  s.Lobby.CreatedAt,
		Teams:      make([]TeamView, 0, len(domain.TeamIDs)),
		Spectators: make([]SpectatorView, 0, len(s.Spectators)),
	}

	if g := s.Game; g != nil {
		v.Game = &GameView{
			Mode:           g.ModeSnapshot(),
			Status:         g.Status(),
			CommentaryText: g.CommentaryText,
			SubCommentText: g.SubCommentText,
			TurnText:       g.TurnText,
			RoundEndCount:  g.RoundEndCount,
			IsFreeTeamJoin: g.IsFreeTeamJoin,
			IsAutoPopulate: g.IsAutoPopulate,
			RecentRoll:     g.RecentRoll,
			CreateDate:     g.CreateDate,
			StartDate:      g.StartDate,
			EndDate:        g.EndDate,
		}
	}

	for _, id := range domain.TeamIDs {
		t := s.Team(id)
		tv := TeamView{
			ID:               id,
			Name:             id.DisplayName(),
			TotalScore:       t.TeamTotalScore,
			TurnAverageScore: t.TeamTurnAverageScore,
			TurnEndCount:     t.TeamTurnEndCount,
			Phase:            t.Phase,
			Players:          []PlayerView{},
		}
		for _, p := range s.TeamPlayers(id) {
			tv.Players = append(tv.Players, PlayerView{
				UserID:          p.UserID,
				DisplayName:     names.Of(p.UserID),
				PhotoURL:        p.PhotoURL,
				IsReady:         p.IsReady,
				IsTurnAvailable: p.IsTurnAvailable,
				TurnScore:       p.TurnScore,
				TurnTapCount:    p.TurnTapCount,
				TurnState:       p.TurnState(),
				JoinDate:        p.JoinDate,
			})
		}
		v.Teams = append(v.Teams, tv)
	}

	for _, sp := range s.Spectators {
		v.Spectators = append(v.Spectators, SpectatorView{
			UserID:      sp.UserID,
			DisplayName: names.Of(sp.UserID),
			PhotoURL:    sp.PhotoURL,
			JoinDate:    sp.JoinDate,
		})
	}
	return v
}

// Members lists every user id in the view.
func (v *LobbyView) Members() []uuid.UUID {
	var ids []uuid.UUID
	for _, t := range v.Teams {
		for _, p := range t.Players {
			ids = append(ids, p.UserID)
		}
	}
	for _, sp := range v.Spectators {
		ids = append(ids, sp.UserID)
	}
	return ids
}
