package service

import (
	"context"
	"errors"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"
)

// change describes what a lobby operation wants committed. A nil change
// means the operation made no modification.
type change struct {
	deleteLobby bool
	modePlayed  string
}

type lobbyOp func(s *domain.LobbySnapshot, names engine.Names) (*change, error)

// runner loads a lobby, applies one operation and commits the result.
type runner struct {
	lobbies    repository.LobbyRepository
	users      repository.UserRepository
	dispatcher *Dispatcher
	publisher  Publisher
	logger     *zap.Logger
}

// run executes fn on the lobby's worker.
func (r *runner) run(ctx context.Context, lobbyID, userID uuid.UUID, op string, fn lobbyOp) (*LobbyView, error) {
	var view *LobbyView
	err := r.dispatcher.Do(ctx, lobbyID, func(ctx context.Context) error {
		var err error
		view, err = r.apply(ctx, lobbyID, userID, op, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// apply does the load, mutate and commit cycle. It must only be called from
// the lobby's worker. The returned view is nil when the lobby was deleted.
func (r *runner) apply(ctx context.Context, lobbyID, userID uuid.UUID, op string, fn lobbyOp) (*LobbyView, error) {
	log := r.logger.With(
		zap.String("lobby_id", lobbyID.String()),
		zap.String("op", op),
		zap.String("user_id", userID.String()),
	)

	s, err := r.load(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	names, err := r.names(ctx, s, userID)
	if err != nil {
		return nil, err
	}

	ch, err := fn(s, names)
	if err != nil {
		logFailure(log, err)
		return nil, err
	}
	if ch == nil {
		return NewLobbyView(s, names), nil
	}

	ws := &domain.WriteSet{
		Snapshot:    s,
		DeleteLobby: ch.deleteLobby,
		ModePlayed:  ch.modePlayed,
	}
	if err := r.lobbies.Commit(ctx, ws); err != nil {
		log.Error("failed to commit lobby", zap.Error(err))
		return nil, domain.Wrap(codes.Internal, "failed to save lobby", err)
	}

	if ch.deleteLobby {
		log.Info("lobby deleted")
		r.publisher.PublishLobbyClosed(lobbyID)
		return nil, nil
	}

	log.Info("lobby updated", zap.String("mode_played", ch.modePlayed))
	view := NewLobbyView(s, names)
	r.publisher.PublishLobby(view)
	return view, nil
}

func (r *runner) load(ctx context.Context, lobbyID uuid.UUID) (*domain.LobbySnapshot, error) {
	s, err := r.lobbies.Load(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLobbyNotFound
		}
		return nil, domain.Wrap(codes.Internal, "failed to load lobby", err)
	}
	return s, nil
}

// names resolves display names for every participant plus extra.
func (r *runner) names(ctx context.Context, s *domain.LobbySnapshot, extra ...uuid.UUID) (engine.Names, error) {
	ids := append(s.UserIDs(), extra...)
	users, err := r.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Wrap(codes.Internal, "failed to fetch users", err)
	}
	names := make(engine.Names, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}

// view renders the current state of a lobby without going through its
// worker.
func (r *runner) view(ctx context.Context, lobbyID uuid.UUID) (*LobbyView, error) {
	s, err := r.load(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	names, err := r.names(ctx, s)
	if err != nil {
		return nil, err
	}
	return NewLobbyView(s, names), nil
}

func logFailure(log *zap.Logger, err error) {
	if domain.CodeOf(err) == codes.Internal {
		log.Error("lobby operation failed", zap.Error(err))
		return
	}
	log.Debug("lobby operation rejected", zap.Error(err))
}
