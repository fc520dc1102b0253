package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DefaultPhotoURL is assigned to users who have not uploaded an avatar.
const DefaultPhotoURL = "https://www.squatties.com/images/avatars/avatar-captain-jack-sparrow-256.png"

// UnknownDisplayName stands in for users whose record could not be found.
const UnknownDisplayName = "[unknown]"

const (
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 26
)

var displayNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+( [A-Za-z0-9]+)?$`)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	PasswordHash string    `json:"-" gorm:"not null"`
	DisplayName  string    `json:"displayName" gorm:"uniqueIndex;not null"`
	PhotoURL     string    `json:"photoURL" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserSession struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ValidateDisplayName checks length, allows at most one inner space
// between alphanumeric words and rejects profanity.
func ValidateDisplayName(name string) error {
	if len(name) < MinDisplayNameLength || len(name) > MaxDisplayNameLength {
		return ErrInvalidDisplayName
	}
	if !displayNamePattern.MatchString(name) {
		return ErrInvalidDisplayName
	}
	if IsProfane(name) {
		return ErrInvalidDisplayName
	}
	return nil
}
