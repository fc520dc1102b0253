package api

import (
	"net/http"

	"github.com/dom/scrapjack/internal/api/handlers"
	"github.com/dom/scrapjack/internal/api/middleware"
	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, hub *websocket.LobbyHub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	profileHandler := handlers.NewProfileHandler(services.Auth, logger)
	modeHandler := handlers.NewModeHandler(services.Mode, logger)
	lobbyHandler := handlers.NewLobbyHandler(services.Lobby, logger)
	gameHandler := handlers.NewGameHandler(services.Game, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, logger)

	requireAuth := middleware.Auth(services.Auth, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Invite codes are shared outside the app, so they need no token.
		r.Get("/lobbies/{id}/invite.png", lobbyHandler.Invite)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Put("/profile/display-name", profileHandler.UpdateDisplayName)
			r.Get("/modes", modeHandler.List)

			r.Route("/lobbies", func(r chi.Router) {
				r.Get("/", lobbyHandler.List)
				r.Post("/", lobbyHandler.Create)
				r.Get("/{id}", lobbyHandler.Get)
				r.Post("/{id}/enter", lobbyHandler.Enter)
				r.Post("/{id}/leave", lobbyHandler.Leave)
				r.Post("/{id}/move", lobbyHandler.Move)

				r.Route("/{id}/game", func(r chi.Router) {
					r.Post("/", gameHandler.Edit)
					r.Post("/join", gameHandler.Join)
					r.Post("/ready", gameHandler.Ready)
					r.Post("/start", gameHandler.Start)
					r.Post("/turn", gameHandler.Turn)
					r.Post("/leave", gameHandler.Leave)
				})
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
