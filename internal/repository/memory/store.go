// Package memory keeps every repository in process memory. It backs local
// runs and service tests; state is lost on restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store holds all records behind one lock so that lobby commits are atomic
// with the mode counter they touch.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*domain.User
	sessions map[uuid.UUID]*domain.UserSession // by user id
	modes    map[string]*domain.Mode
	lobbies  map[uuid.UUID]*domain.LobbySnapshot
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*domain.User),
		sessions: make(map[uuid.UUID]*domain.UserSession),
		modes:    make(map[string]*domain.Mode),
		lobbies:  make(map[uuid.UUID]*domain.LobbySnapshot),
	}
}

// NewRepositories returns repositories sharing a fresh store.
func NewRepositories() *repository.Repositories {
	s := NewStore()
	return &repository.Repositories{
		User:    &userRepository{s},
		Session: &sessionRepository{s},
		Mode:    &modeRepository{s},
		Lobby:   &lobbyRepository{s},
	}
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, u := range r.s.users {
		if u.DisplayName == user.DisplayName {
			return gorm.ErrDuplicatedKey
		}
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var users []*domain.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			c := *u
			users = append(users, &c)
		}
	}
	return users, nil
}

func (r *userRepository) GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.DisplayName == displayName {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if id != user.ID && u.DisplayName == user.DisplayName {
			return gorm.ErrDuplicatedKey
		}
	}
	user.UpdatedAt = time.Now()
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

type sessionRepository struct{ s *Store }

func (r *sessionRepository) Replace(ctx context.Context, session *domain.UserSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&session.CreatedAt)
	c := *session
	r.s.sessions[session.UserID] = &c
	return nil
}

func (r *sessionRepository) GetActive(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.UserSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[userID]
	if !ok || !sess.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	c := *sess
	return &c, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, userID)
	return nil
}

type modeRepository struct{ s *Store }

func (r *modeRepository) List(ctx context.Context) ([]*domain.Mode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	modes := make([]*domain.Mode, 0, len(r.s.modes))
	for _, m := range r.s.modes {
		c := *m
		modes = append(modes, &c)
	}
	slices.SortFunc(modes, func(a, b *domain.Mode) int {
		if a.RoundMaxCount != b.RoundMaxCount {
			return a.RoundMaxCount - b.RoundMaxCount
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return modes, nil
}

func (r *modeRepository) GetByID(ctx context.Context, id string) (*domain.Mode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.modes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m
	return &c, nil
}

func (r *modeRepository) Upsert(ctx context.Context, mode *domain.Mode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *mode
	if existing, ok := r.s.modes[mode.ID]; ok {
		c.GamesPlayed = existing.GamesPlayed
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = time.Now()
	} else {
		stamp(&c.CreatedAt, &c.UpdatedAt)
	}
	r.s.modes[mode.ID] = &c
	return nil
}

type lobbyRepository struct{ s *Store }

func (r *lobbyRepository) Load(ctx context.Context, lobbyID uuid.UUID) (*domain.LobbySnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snap, ok := r.s.lobbies[lobbyID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return snap.Clone(), nil
}

func (r *lobbyRepository) Commit(ctx context.Context, ws *domain.WriteSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lobbyID := ws.Snapshot.Lobby.ID
	if ws.DeleteLobby {
		delete(r.s.lobbies, lobbyID)
		return nil
	}

	snap := ws.Snapshot.Clone()
	stamp(&snap.Lobby.CreatedAt)
	r.s.lobbies[lobbyID] = snap

	if ws.ModePlayed != "" {
		if m, ok := r.s.modes[ws.ModePlayed]; ok {
			m.GamesPlayed++
		}
	}
	return nil
}

func (r *lobbyRepository) List(ctx context.Context, limit, offset int) ([]*domain.Lobby, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	lobbies := make([]*domain.Lobby, 0, len(r.s.lobbies))
	for _, snap := range r.s.lobbies {
		l := *snap.Lobby
		lobbies = append(lobbies, &l)
	}
	slices.SortFunc(lobbies, func(a, b *domain.Lobby) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if offset >= len(lobbies) {
		return []*domain.Lobby{}, nil
	}
	lobbies = lobbies[offset:]
	if limit >= 0 && limit < len(lobbies) {
		lobbies = lobbies[:limit]
	}
	return lobbies, nil
}

// stamp fills zero timestamps the way gorm's autoCreateTime does.
func stamp(ts ...*time.Time) {
	now := time.Now()
	for _, t := range ts {
		if t.IsZero() {
			*t = now
		}
	}
}
