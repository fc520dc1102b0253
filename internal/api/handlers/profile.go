package handlers

import (
	"net/http"

	"github.com/dom/scrapjack/internal/service"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewProfileHandler(authService *service.AuthService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{authService: authService, logger: logger}
}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"displayName"`
}

// UpdateDisplayName renames the current user. Lobby views show the new name
// from their next update on.
func (h *ProfileHandler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req UpdateDisplayNameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.authService.UpdateDisplayName(r.Context(), id, req.DisplayName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
