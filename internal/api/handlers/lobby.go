package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/scrapjack/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LobbyHandler struct {
	lobbyService *service.LobbyService
	logger       *zap.Logger
}

func NewLobbyHandler(lobbyService *service.LobbyService, logger *zap.Logger) *LobbyHandler {
	return &LobbyHandler{lobbyService: lobbyService, logger: logger}
}

type CreateLobbyRequest struct {
	Name     string `json:"name"`
	MaxUsers int    `json:"maxUsers"`
}

type MoveUserRequest struct {
	UIDMove  string `json:"uidMove"`
	MoveType string `json:"moveType"`
}

// LeaveLobbyResponse reports whether leaving deleted the lobby.
type LeaveLobbyResponse struct {
	LobbyDeleted bool               `json:"lobbyDeleted"`
	Lobby        *service.LobbyView `json:"lobby,omitempty"`
}

func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	lobbies, err := h.lobbyService.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbies)
}

func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req CreateLobbyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.lobbyService.Create(r.Context(), uid, service.CreateLobbyInput{
		Name:     req.Name,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := lobbyID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.lobbyService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Invite serves the lobby's invite link as a PNG QR code.
func (h *LobbyHandler) Invite(w http.ResponseWriter, r *http.Request) {
	id, err := lobbyID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	png, err := h.lobbyService.InviteQR(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}

func (h *LobbyHandler) Enter(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.lobbyService.Enter(r.Context(), lid, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.lobbyService.Leave(r.Context(), lid, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveLobbyResponse{LobbyDeleted: view == nil, Lobby: view})
}

func (h *LobbyHandler) Move(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req MoveUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	// An empty or malformed target is reported by the service.
	target, _ := uuid.Parse(req.UIDMove)

	view, err := h.lobbyService.MoveUser(r.Context(), lid, uid, service.MoveUserInput{
		TargetID: target,
		MoveType: req.MoveType,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
