package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GameStatus is derived from the lifecycle timestamps.
type GameStatus string

const (
	GameStatusCreated GameStatus = "created"
	GameStatusStarted GameStatus = "started"
	GameStatusEnded   GameStatus = "ended"
)

// Game is the per-lobby record of the active or most recent game.
// StartDate is set exactly once, EndDate exactly once and only after
// StartDate. Editing the game clears both.
type Game struct {
	LobbyID        uuid.UUID                        `json:"lobbyId" gorm:"type:uuid;primaryKey"`
	Mode           datatypes.JSONType[ModeSnapshot] `json:"mode" gorm:"not null"`
	CommentaryText string                           `json:"commentaryText" gorm:"not null"`
	SubCommentText string                           `json:"subCommentText" gorm:"not null"`
	TurnText       string                           `json:"turnText" gorm:"not null"`
	RoundEndCount  int                              `json:"roundEndCount" gorm:"not null"`
	IsFreeTeamJoin bool                             `json:"isFreeTeamJoin" gorm:"not null"`
	IsAutoPopulate bool                             `json:"isAutoPopulate" gorm:"not null"`
	RecentRoll     *int                             `json:"recentRoll"`
	CreateDate     time.Time                        `json:"createDate" gorm:"not null"`
	StartDate      *time.Time                       `json:"startDate"`
	EndDate        *time.Time                       `json:"endDate"`
}

// TableName returns the table name for GORM
func (Game) TableName() string {
	return "games"
}

func (g *Game) ModeSnapshot() ModeSnapshot {
	return g.Mode.Data()
}

func (g *Game) SetMode(m ModeSnapshot) {
	g.Mode = datatypes.NewJSONType(m)
}

func (g *Game) IsStarted() bool {
	return g.StartDate != nil
}

func (g *Game) IsEnded() bool {
	return g.EndDate != nil
}

// InProgress reports a started game that has not ended.
func (g *Game) InProgress() bool {
	return g.IsStarted() && !g.IsEnded()
}

func (g *Game) Status() GameStatus {
	switch {
	case g.IsEnded():
		return GameStatusEnded
	case g.IsStarted():
		return GameStatusStarted
	default:
		return GameStatusCreated
	}
}

func (g *Game) clone() *Game {
	c := *g
	if g.RecentRoll != nil {
		roll := *g.RecentRoll
		c.RecentRoll = &roll
	}
	if g.StartDate != nil {
		t := *g.StartDate
		c.StartDate = &t
	}
	if g.EndDate != nil {
		t := *g.EndDate
		c.EndDate = &t
	}
	return &c
}
