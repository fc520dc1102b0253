package handlers

import (
	"net/http"

	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/websocket"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

type WebSocketHandler struct {
	hub         *websocket.LobbyHub
	authService *service.AuthService
	logger      *zap.Logger
}

func NewWebSocketHandler(hub *websocket.LobbyHub, authService *service.AuthService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		logger:      logger,
	}
}

// Handle upgrades the connection. Browsers cannot set headers on a
// websocket handshake, so the token comes in the query string.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, h.logger, service.ErrInvalidToken)
		return
	}

	userID, err := h.authService.UserIDFromToken(token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewLobbyClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
