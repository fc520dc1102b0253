package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinLobbyNameLength = 6
	MaxLobbyNameLength = 16
	MinLobbyUsers      = 2
	MaxLobbyUsers      = 8
)

// Lobby is the gathering place for a set of users sharing one game.
type Lobby struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name       string    `json:"name" gorm:"size:32;not null"`
	HostUserID uuid.UUID `json:"hostUserId" gorm:"type:uuid;not null"`
	CreatedBy  uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	MaxUsers   int       `json:"maxUsers" gorm:"not null"`
	UserCount  int       `json:"userCount" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
}

// TableName returns the table name for GORM
func (Lobby) TableName() string {
	return "lobbies"
}

// IsFull reports whether another user may enter.
func (l *Lobby) IsFull() bool {
	return l.UserCount >= l.MaxUsers
}

// LobbyBan keeps a removed user from entering the lobby again.
type LobbyBan struct {
	LobbyID   uuid.UUID `json:"lobbyId" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
}

func (LobbyBan) TableName() string {
	return "lobby_bans"
}

func ValidateLobbyName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinLobbyNameLength || n > MaxLobbyNameLength {
		return ErrInvalidLobbyName
	}
	return nil
}

func ValidateMaxUsers(maxUsers int) error {
	if maxUsers < MinLobbyUsers || maxUsers > MaxLobbyUsers {
		return ErrInvalidMaxUsers
	}
	return nil
}
