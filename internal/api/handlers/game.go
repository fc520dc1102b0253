package handlers

import (
	"net/http"

	"github.com/dom/scrapjack/internal/service"
	"go.uber.org/zap"
)

type GameHandler struct {
	gameService *service.GameService
	logger      *zap.Logger
}

func NewGameHandler(gameService *service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{gameService: gameService, logger: logger}
}

type EditGameRequest struct {
	ModeID         string `json:"modeId"`
	IsFreeTeamJoin *bool  `json:"isFreeTeamJoin"`
	IsAutoPopulate *bool  `json:"isAutoPopulate"`
	IsShuffle      bool   `json:"isShuffle"`
	IsClear        bool   `json:"isClear"`
}

type JoinTeamRequest struct {
	TeamID string `json:"teamId"`
}

type SubmitTurnRequest struct {
	TurnType string `json:"turnType"`
}

// Edit creates or resets the game, or shuffles or clears the teams.
func (h *GameHandler) Edit(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req EditGameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.gameService.Edit(r.Context(), lid, uid, service.EditGameInput{
		ModeID:         req.ModeID,
		IsFreeTeamJoin: req.IsFreeTeamJoin,
		IsAutoPopulate: req.IsAutoPopulate,
		IsShuffle:      req.IsShuffle,
		IsClear:        req.IsClear,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req JoinTeamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.gameService.JoinTeam(r.Context(), lid, uid, req.TeamID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) Ready(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.gameService.ToggleReady(r.Context(), lid, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.gameService.Start(r.Context(), lid, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) Turn(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req SubmitTurnRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.gameService.SubmitTurn(r.Context(), lid, uid, req.TurnType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uid, lid, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.gameService.LeaveGame(r.Context(), lid, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
