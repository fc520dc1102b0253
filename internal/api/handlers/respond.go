package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/scrapjack/internal/api/middleware"
	"github.com/dom/scrapjack/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errInvalidBody = domain.InvalidArgument("invalid request body")
var errInvalidLobbyID = domain.InvalidArgument("invalid lobby id")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status and body. Internal causes are logged and
// never sent to the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := domain.CodeOf(err)
	resp := ErrorResponse{Code: codeName(code), Message: err.Error()}

	var status int
	switch code {
	case codes.InvalidArgument:
		status = http.StatusBadRequest
	case codes.FailedPrecondition:
		status = http.StatusConflict
	case codes.Unauthenticated:
		status = http.StatusUnauthorized
	default:
		status = http.StatusInternalServerError
		resp.Message = "internal error"
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func codeName(c codes.Code) string {
	switch c {
	case codes.InvalidArgument:
		return "invalid-argument"
	case codes.FailedPrecondition:
		return "failed-precondition"
	case codes.Unauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func userID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, &domain.Error{Code: codes.Unauthenticated, Message: "unauthorized"}
	}
	return id, nil
}

func lobbyID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errInvalidLobbyID
	}
	return id, nil
}

// caller extracts the authenticated user and the lobby id from the path.
func caller(r *http.Request) (user, lobby uuid.UUID, err error) {
	if user, err = userID(r); err != nil {
		return
	}
	lobby, err = lobbyID(r)
	return
}
