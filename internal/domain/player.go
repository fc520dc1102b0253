package domain

import (
	"time"

	"github.com/google/uuid"
)

// NoActiveTurn is the TurnScore of a player awaiting the next team-turn.
const NoActiveTurn = -1

// PlayerTurnState is the per-player turn state, derived from the stored
// turn fields.
type PlayerTurnState string

const (
	TurnStateWaiting      PlayerTurnState = "waiting"
	TurnStateAccumulating PlayerTurnState = "accumulating"
	TurnStateBanked       PlayerTurnState = "banked"
	TurnStateBusted       PlayerTurnState = "busted"
)

// Player is a lobby participant seated on a team.
type Player struct {
	LobbyID         uuid.UUID `json:"lobbyId" gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey"`
	TeamID          TeamID    `json:"teamId" gorm:"type:varchar(10);not null;index"`
	IsReady         bool      `json:"isReady" gorm:"not null"`
	IsTurnAvailable bool      `json:"isTurnAvailable" gorm:"not null"`
	JoinDate        time.Time `json:"joinDate" gorm:"not null"`
	TurnScore       int       `json:"turnScore" gorm:"not null"`
	TurnTapCount    int       `json:"turnTapCount" gorm:"not null"`
	PhotoURL        string    `json:"photoURL" gorm:"not null"`
}

// TableName returns the table name for GORM
func (Player) TableName() string {
	return "players"
}

// NewPlayer seats a user on a team with no turn in progress.
func NewPlayer(lobbyID, userID uuid.UUID, team TeamID, photoURL string, joinDate time.Time) *Player {
	return &Player{
		LobbyID:   lobbyID,
		UserID:    userID,
		TeamID:    team,
		JoinDate:  joinDate,
		TurnScore: NoActiveTurn,
		PhotoURL:  photoURL,
	}
}

// ResetTurn clears the per-turn scratch state.
func (p *Player) ResetTurn() {
	p.IsTurnAvailable = false
	p.TurnScore = NoActiveTurn
	p.TurnTapCount = 0
}

// HasFinishedTurn reports a turn ended in the current team-turn.
func (p *Player) HasFinishedTurn() bool {
	return !p.IsTurnAvailable && p.TurnScore >= 0
}

func (p *Player) TurnState() PlayerTurnState {
	switch {
	case p.IsTurnAvailable:
		return TurnStateAccumulating
	case p.TurnScore == 0:
		return TurnStateBusted
	case p.TurnScore > 0:
		return TurnStateBanked
	default:
		return TurnStateWaiting
	}
}

// Spectator is a lobby participant not on a team.
type Spectator struct {
	LobbyID  uuid.UUID `json:"lobbyId" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey"`
	JoinDate time.Time `json:"joinDate" gorm:"not null"`
	PhotoURL string    `json:"photoURL" gorm:"not null"`
}

// TableName returns the table name for GORM
func (Spectator) TableName() string {
	return "spectators"
}
