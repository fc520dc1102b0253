package repository

import (
	"context"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/google/uuid"
)

// Not-found lookups return gorm.ErrRecordNotFound from every implementation.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository keeps at most one refresh session per user.
type SessionRepository interface {
	// Replace stores session as the user's only session, dropping earlier
	// ones in the same write.
	Replace(ctx context.Context, session *domain.UserSession) error
	// GetActive returns the user's session if it has not expired at now.
	GetActive(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.UserSession, error)
	// Revoke drops the user's session. Revoking with none is not an error.
	Revoke(ctx context.Context, userID uuid.UUID) error
}

type ModeRepository interface {
	List(ctx context.Context) ([]*domain.Mode, error)
	GetByID(ctx context.Context, id string) (*domain.Mode, error)
	// Upsert writes the tuning parameters, leaving GamesPlayed untouched on
	// existing rows.
	Upsert(ctx context.Context, mode *domain.Mode) error
}

// LobbyRepository stores a lobby and everything under it as one unit.
type LobbyRepository interface {
	Load(ctx context.Context, lobbyID uuid.UUID) (*domain.LobbySnapshot, error)
	// Commit applies the write set in a single all-or-nothing transaction.
	Commit(ctx context.Context, ws *domain.WriteSet) error
	List(ctx context.Context, limit, offset int) ([]*domain.Lobby, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Mode    ModeRepository
	Lobby   LobbyRepository
}
