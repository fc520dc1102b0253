package domain

import (
	"math"
	"time"
)

// JackDisabled in Mode.TapsBeforeJack turns the jack action off.
const JackDisabled = -1

// DefaultModeID names the mode new lobbies start with.
const DefaultModeID = "default"

// Mode is a catalog entry of game tuning parameters.
type Mode struct {
	ID             string    `json:"id" gorm:"primaryKey;size:64"`
	Name           string    `json:"name" gorm:"not null"`
	RoundMaxCount  int       `json:"roundMaxCount" gorm:"not null"`
	TurnMaxScore   int       `json:"turnMaxScore" gorm:"not null"`
	RollLow        int       `json:"rollLow" gorm:"not null"`
	RollHigh       int       `json:"rollHigh" gorm:"not null"`
	TapsBeforeJack int       `json:"tapsBeforeJack" gorm:"not null"`
	JackMultiplier float64   `json:"jackMultiplier" gorm:"not null"`
	GamesPlayed    int       `json:"gamesPlayed" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Mode) TableName() string {
	return "modes"
}

// Validate rejects parameter sets the turn engine cannot run.
func (m *Mode) Validate() error {
	switch {
	case m.ID == "" || m.Name == "":
		return ErrInvalidMode
	case m.RoundMaxCount < 1:
		return ErrInvalidMode
	case m.RollLow < 0 || m.RollHigh < m.RollLow:
		return ErrInvalidMode
	case m.TurnMaxScore < 1:
		return ErrInvalidMode
	case m.TapsBeforeJack < JackDisabled:
		return ErrInvalidMode
	case m.TapsBeforeJack != JackDisabled && m.JackMultiplier < 1:
		return ErrInvalidMode
	case m.JackMultiplier != math.Trunc(m.JackMultiplier):
		// Jack scores are whole points.
		return ErrInvalidMode
	}
	return nil
}

// Snapshot copies the tuning parameters for storage on a game.
func (m *Mode) Snapshot() ModeSnapshot {
	return ModeSnapshot{
		ID:             m.ID,
		Name:           m.Name,
		RoundMaxCount:  m.RoundMaxCount,
		TurnMaxScore:   m.TurnMaxScore,
		RollLow:        m.RollLow,
		RollHigh:       m.RollHigh,
		TapsBeforeJack: m.TapsBeforeJack,
		JackMultiplier: m.JackMultiplier,
	}
}

// ModeSnapshot is the copy of a Mode frozen into a game at creation or edit
// time. Later catalog edits do not reach a running game.
type ModeSnapshot struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	RoundMaxCount  int     `json:"roundMaxCount"`
	TurnMaxScore   int     `json:"turnMaxScore"`
	RollLow        int     `json:"rollLow"`
	RollHigh       int     `json:"rollHigh"`
	TapsBeforeJack int     `json:"tapsBeforeJack"`
	JackMultiplier float64 `json:"jackMultiplier"`
}

func (m ModeSnapshot) JackEnabled() bool {
	return m.TapsBeforeJack != JackDisabled
}

// DefaultModes is the catalog seeded on startup.
func DefaultModes() []*Mode {
	return []*Mode{
		{
			ID:             DefaultModeID,
			Name:           "Default",
			RoundMaxCount:  3,
			TurnMaxScore:   21,
			RollLow:        1,
			RollHigh:       6,
			TapsBeforeJack: 3,
			JackMultiplier: 2,
		},
		{
			ID:             "quick",
			Name:           "Quick",
			RoundMaxCount:  1,
			TurnMaxScore:   15,
			RollLow:        1,
			RollHigh:       6,
			TapsBeforeJack: 2,
			JackMultiplier: 2,
		},
		{
			ID:             "classic",
			Name:           "Classic",
			RoundMaxCount:  5,
			TurnMaxScore:   21,
			RollLow:        1,
			RollHigh:       6,
			TapsBeforeJack: JackDisabled,
			JackMultiplier: 1,
		},
	}
}
