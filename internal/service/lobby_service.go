package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	inviteQRSize = 256
)

type LobbyService struct {
	engine    *engine.Engine
	runner    *runner
	lobbies   repository.LobbyRepository
	users     repository.UserRepository
	modes     repository.ModeRepository
	publicURL string
	logger    *zap.Logger
}

func NewLobbyService(
	eng *engine.Engine,
	r *runner,
	lobbies repository.LobbyRepository,
	users repository.UserRepository,
	modes repository.ModeRepository,
	publicURL string,
	logger *zap.Logger,
) *LobbyService {
	return &LobbyService{
		engine:    eng,
		runner:    r,
		lobbies:   lobbies,
		users:     users,
		modes:     modes,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

type CreateLobbyInput struct {
	Name     string
	MaxUsers int
}

// Create opens a lobby hosted by userID, who enters it as a spectator. The
// lobby starts with a game on the default mode. Profanity in the name is
// masked before it is stored.
func (s *LobbyService) Create(ctx context.Context, userID uuid.UUID, input CreateLobbyInput) (*LobbyView, error) {
	if err := domain.ValidateLobbyName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateMaxUsers(input.MaxUsers); err != nil {
		return nil, err
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	mode, err := s.modes.GetByID(ctx, domain.DefaultModeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrModeMissing
		}
		return nil, domain.Wrap(codes.Internal, "failed to fetch mode", err)
	}

	snap := domain.NewLobbySnapshot(&domain.Lobby{
		ID:         uuid.New(),
		Name:       domain.CensorLobbyName(input.Name),
		HostUserID: userID,
		CreatedBy:  userID,
		MaxUsers:   input.MaxUsers,
		UserCount:  1,
		CreatedAt:  s.engine.Now(),
	})
	snap.AddSpectator(s.engine.NewSpectator(snap, userID, user.PhotoURL))
	if err := s.engine.UpsertGame(snap, mode, engine.GameOptions{IsFreeTeamJoin: true}); err != nil {
		return nil, err
	}

	if err := s.lobbies.Commit(ctx, &domain.WriteSet{Snapshot: snap}); err != nil {
		return nil, domain.Wrap(codes.Internal, "failed to create lobby", err)
	}

	s.logger.Info("lobby created",
		zap.String("lobby_id", snap.Lobby.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("max_users", input.MaxUsers),
	)
	return NewLobbyView(snap, engine.Names{userID: user.DisplayName}), nil
}

// Enter adds userID to the lobby. Under auto-populate the entrant takes a
// seat on the smaller team unless a game is running.
func (s *LobbyService) Enter(ctx context.Context, lobbyID, userID uuid.UUID) (*LobbyView, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.runner.run(ctx, lobbyID, userID, "enter_lobby", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
		if snap.IsBanned(userID) {
			return nil, domain.ErrBanned
		}
		if snap.IsParticipant(userID) {
			return nil, domain.ErrAlreadyInLobby
		}
		if snap.Lobby.IsFull() {
			return nil, domain.ErrLobbyFull
		}

		snap.Lobby.UserCount++
		g := snap.Game
		if g != nil && g.IsAutoPopulate && !g.InProgress() &&
			s.engine.AutoPopulateOne(snap, userID, user.PhotoURL) {
			return &change{}, nil
		}
		snap.AddSpectator(s.engine.NewSpectator(snap, userID, user.PhotoURL))
		return &change{}, nil
	})
}

// Leave removes userID from the lobby. The view is nil when the lobby was
// deleted because they were the last user.
func (s *LobbyService) Leave(ctx context.Context, lobbyID, userID uuid.UUID) (*LobbyView, error) {
	return s.runner.run(ctx, lobbyID, userID, "leave_lobby", func(snap *domain.LobbySnapshot, names engine.Names) (*change, error) {
		if err := engine.RequireParticipant(snap, userID); err != nil {
			return nil, err
		}
		d, err := s.engine.HandleDeparture(snap, userID, names)
		if err != nil {
			return nil, err
		}
		return departureChange(snap, d), nil
	})
}

type MoveUserInput struct {
	TargetID uuid.UUID
	MoveType string
}

// MoveUser applies a host action to another lobby member.
func (s *LobbyService) MoveUser(ctx context.Context, lobbyID, hostID uuid.UUID, input MoveUserInput) (*LobbyView, error) {
	move, err := engine.ParseMoveType(input.MoveType)
	if err != nil {
		return nil, err
	}
	if input.TargetID == uuid.Nil {
		return nil, domain.ErrMoveTargetRequired
	}
	if input.TargetID == hostID {
		return nil, domain.ErrMoveSelf
	}

	return s.runner.run(ctx, lobbyID, hostID, "move_user:"+string(move), func(snap *domain.LobbySnapshot, names engine.Names) (*change, error) {
		d, err := s.engine.MoveUser(snap, hostID, input.TargetID, move, names)
		if err != nil {
			return nil, err
		}
		return departureChange(snap, d), nil
	})
}

func departureChange(snap *domain.LobbySnapshot, d *engine.Departure) *change {
	ch := &change{deleteLobby: d.LobbyDeleted}
	if d.GameEnded {
		ch.modePlayed = snap.Game.ModeSnapshot().ID
	}
	return ch
}

func (s *LobbyService) Get(ctx context.Context, lobbyID uuid.UUID) (*LobbyView, error) {
	return s.runner.view(ctx, lobbyID)
}

// List pages lobbies newest first.
func (s *LobbyService) List(ctx context.Context, limit, offset int) ([]*domain.Lobby, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	lobbies, err := s.lobbies.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.Wrap(codes.Internal, "failed to list lobbies", err)
	}
	return lobbies, nil
}

// InviteURL is the link players follow to reach the lobby.
func (s *LobbyService) InviteURL(lobbyID uuid.UUID) string {
	return fmt.Sprintf("%s/lobbies/%s", s.publicURL, lobbyID)
}

// InviteQR renders the invite link as a PNG QR code.
func (s *LobbyService) InviteQR(ctx context.Context, lobbyID uuid.UUID) ([]byte, error) {
	if _, err := s.runner.load(ctx, lobbyID); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.InviteURL(lobbyID), qrcode.Medium, inviteQRSize)
	if err != nil {
		return nil, domain.Wrap(codes.Internal, "failed to render invite", err)
	}
	return png, nil
}

func (s *LobbyService) user(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserMissing
		}
		return nil, domain.Wrap(codes.Internal, "failed to fetch user", err)
	}
	return user, nil
}
