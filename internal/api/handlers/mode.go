package handlers

import (
	"net/http"

	"github.com/dom/scrapjack/internal/service"
	"go.uber.org/zap"
)

type ModeHandler struct {
	modeService *service.ModeService
	logger      *zap.Logger
}

func NewModeHandler(modeService *service.ModeService, logger *zap.Logger) *ModeHandler {
	return &ModeHandler{modeService: modeService, logger: logger}
}

func (h *ModeHandler) List(w http.ResponseWriter, r *http.Request) {
	modes, err := h.modeService.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, modes)
}
