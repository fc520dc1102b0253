package service

import (
	"github.com/dom/scrapjack/internal/config"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth  *AuthService
	Lobby *LobbyService
	Game  *GameService
	Mode  *ModeService

	dispatcher *Dispatcher
}

func NewServices(repos *repository.Repositories, cfg *config.Config, eng *engine.Engine, publisher Publisher, logger *zap.Logger) *Services {
	if publisher == nil {
		publisher = NopPublisher()
	}
	dispatcher := NewDispatcher(cfg.LobbyIdleTimeout, logger)
	r := &runner{
		lobbies:    repos.Lobby,
		users:      repos.User,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}

	return &Services{
		Auth:       NewAuthService(repos.User, repos.Session, cfg, logger),
		Lobby:      NewLobbyService(eng, r, repos.Lobby, repos.User, repos.Mode, cfg.PublicURL, logger),
		Game:       NewGameService(eng, r, repos.Mode, cfg.ShuffleSettleDelay, logger),
		Mode:       NewModeService(repos.Mode, logger),
		dispatcher: dispatcher,
	}
}

// Close stops the lobby workers.
func (s *Services) Close() {
	s.dispatcher.Close()
}
