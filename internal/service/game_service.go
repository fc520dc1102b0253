package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"
)

// GameService runs the game operations of a lobby. Every mutation goes
// through the lobby's dispatcher worker.
type GameService struct {
	engine      *engine.Engine
	runner      *runner
	modes       repository.ModeRepository
	settleDelay time.Duration
	logger      *zap.Logger
}

func NewGameService(eng *engine.Engine, r *runner, modes repository.ModeRepository, settleDelay time.Duration, logger *zap.Logger) *GameService {
	return &GameService{
		engine:      eng,
		runner:      r,
		modes:       modes,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// EditGameInput selects one of three edits: clear the teams, shuffle the
// teams, or create/reset the game on ModeID.
type EditGameInput struct {
	ModeID         string
	IsFreeTeamJoin *bool
	IsAutoPopulate *bool
	IsShuffle      bool
	IsClear        bool
}

func (s *GameService) Edit(ctx context.Context, lobbyID, userID uuid.UUID, input EditGameInput) (*LobbyView, error) {
	switch {
	case input.IsClear:
		return s.runner.run(ctx, lobbyID, userID, "clear_teams", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
			if err := engine.RequireHost(snap, userID); err != nil {
				return nil, err
			}
			if err := s.engine.ClearTeams(snap); err != nil {
				return nil, err
			}
			return &change{}, nil
		})
	case input.IsShuffle:
		return s.shuffle(ctx, lobbyID, userID)
	}

	if input.ModeID == "" {
		return nil, domain.ErrModeIDRequired
	}
	mode, err := s.modes.GetByID(ctx, input.ModeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrModeNotFound
		}
		return nil, domain.Wrap(codes.Internal, "failed to fetch mode", err)
	}

	opts := engine.GameOptions{IsFreeTeamJoin: true}
	if input.IsFreeTeamJoin != nil {
		opts.IsFreeTeamJoin = *input.IsFreeTeamJoin
	}
	if input.IsAutoPopulate != nil {
		opts.IsAutoPopulate = *input.IsAutoPopulate
	}

	return s.runner.run(ctx, lobbyID, userID, "edit_game", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
		if err := engine.RequireHost(snap, userID); err != nil {
			return nil, err
		}
		if err := s.engine.UpsertGame(snap, mode, opts); err != nil {
			return nil, err
		}
		return &change{}, nil
	})
}

// shuffle commits the banner, the new teams and the restored banner as three
// writes paced by the settle delay. All three run inside one worker job.
func (s *GameService) shuffle(ctx context.Context, lobbyID, userID uuid.UUID) (*LobbyView, error) {
	var view *LobbyView
	err := s.runner.dispatcher.Do(ctx, lobbyID, func(ctx context.Context) error {
		var (
			prior   string
			started bool
			err     error
		)
		view, err = s.runner.apply(ctx, lobbyID, userID, "shuffle_begin", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
			if err := engine.RequireHost(snap, userID); err != nil {
				return nil, err
			}
			var err error
			prior, started, err = engine.BeginShuffle(snap)
			if err != nil || !started {
				return nil, err
			}
			return &change{}, nil
		})
		if err != nil || !started {
			return err
		}

		// The banner must not outlive the shuffle, even when the caller
		// goes away.
		restore := func() error {
			v, err := s.runner.apply(context.WithoutCancel(ctx), lobbyID, userID, "shuffle_end", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
				engine.EndShuffle(snap, prior)
				return &change{}, nil
			})
			if err == nil {
				view = v
			}
			return err
		}

		if err := sleep(ctx, s.settleDelay); err != nil {
			return errors.Join(err, restore())
		}
		view, err = s.runner.apply(ctx, lobbyID, userID, "shuffle_teams", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
			if err := s.engine.ShuffleTeams(snap); err != nil {
				return nil, err
			}
			return &change{}, nil
		})
		if err != nil {
			return errors.Join(err, restore())
		}
		if err := sleep(ctx, s.settleDelay); err != nil {
			return errors.Join(err, restore())
		}
		return restore()
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GameService) JoinTeam(ctx context.Context, lobbyID, userID uuid.UUID, teamID string) (*LobbyView, error) {
	team, err := domain.ParseTeamID(teamID)
	if err != nil {
		return nil, err
	}
	return s.runner.run(ctx, lobbyID, userID, "join_team", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
		if err := s.engine.JoinTeam(snap, userID, team); err != nil {
			return nil, err
		}
		return &change{}, nil
	})
}

func (s *GameService) ToggleReady(ctx context.Context, lobbyID, userID uuid.UUID) (*LobbyView, error) {
	return s.runner.run(ctx, lobbyID, userID, "toggle_ready", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
		if _, err := s.engine.ToggleReady(snap, userID); err != nil {
			return nil, err
		}
		return &change{}, nil
	})
}

func (s *GameService) Start(ctx context.Context, lobbyID, userID uuid.UUID) (*LobbyView, error) {
	return s.runner.run(ctx, lobbyID, userID, "start_game", func(snap *domain.LobbySnapshot, names engine.Names) (*change, error) {
		if err := engine.RequireHost(snap, userID); err != nil {
			return nil, err
		}
		if err := s.engine.StartGame(snap, names); err != nil {
			return nil, err
		}
		return &change{}, nil
	})
}

// TurnResponse pairs the outcome of a turn with the lobby state after it.
type TurnResponse struct {
	Result *engine.TurnResult `json:"result"`
	Lobby  *LobbyView         `json:"lobby"`
}

func (s *GameService) SubmitTurn(ctx context.Context, lobbyID, userID uuid.UUID, turnType string) (*TurnResponse, error) {
	tt, err := engine.ParseTurnType(turnType)
	if err != nil {
		return nil, err
	}

	var res *engine.TurnResult
	view, err := s.runner.run(ctx, lobbyID, userID, "submit_turn:"+string(tt), func(snap *domain.LobbySnapshot, names engine.Names) (*change, error) {
		var err error
		res, err = s.engine.SubmitTurn(snap, userID, tt, names)
		if err != nil {
			return nil, err
		}
		ch := &change{}
		if res.GameEnded {
			ch.modePlayed = snap.Game.ModeSnapshot().ID
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("lobby_id", lobbyID.String()),
		zap.String("user_id", userID.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("score", res.Score),
		zap.Bool("team_turn_ended", res.TeamTurnEnded),
		zap.Bool("round_ended", res.RoundEnded),
		zap.Bool("game_ended", res.GameEnded),
	}
	if res.Roll != nil {
		fields = append(fields, zap.Int("roll", *res.Roll))
	}
	s.logger.Debug("turn resolved", fields...)

	return &TurnResponse{Result: res, Lobby: view}, nil
}

func (s *GameService) LeaveGame(ctx context.Context, lobbyID, userID uuid.UUID) (*LobbyView, error) {
	return s.runner.run(ctx, lobbyID, userID, "leave_game", func(snap *domain.LobbySnapshot, _ engine.Names) (*change, error) {
		if err := s.engine.LeaveGame(snap, userID); err != nil {
			return nil, err
		}
		return &change{}, nil
	})
}
