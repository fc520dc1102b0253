package domain

import (
	"errors"

	"google.golang.org/grpc/codes"
)

// Error is a classified failure returned by lobby and game operations.
// Code is one of codes.InvalidArgument, codes.FailedPrecondition or
// codes.Internal.
type Error struct {
	Code    codes.Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code and message, so wrapped
// copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func InvalidArgument(message string) *Error {
	return &Error{Code: codes.InvalidArgument, Message: message}
}

func FailedPrecondition(message string) *Error {
	return &Error{Code: codes.FailedPrecondition, Message: message}
}

func Internal(message string) *Error {
	return &Error{Code: codes.Internal, Message: message}
}

// Wrap attaches a cause to a classified error.
func Wrap(code codes.Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf classifies err. Unclassified errors are internal.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return codes.Internal
}

// Argument errors
var (
	ErrInvalidLobbyName   = InvalidArgument("invalid lobby name")
	ErrInvalidMaxUsers    = InvalidArgument("invalid lobby max players")
	ErrInvalidDisplayName = InvalidArgument("required field displayname is invalid")
	ErrInvalidTeamID      = InvalidArgument("required field teamId is invalid")
	ErrInvalidTurnType    = InvalidArgument("required turnType field is invalid")
	ErrInvalidMoveType    = InvalidArgument("required moveType field is invalid")
	ErrMoveTargetRequired = InvalidArgument("uidMove field is required")
	ErrMoveSelf           = InvalidArgument("host cannot move themselves")
	ErrModeIDRequired     = InvalidArgument("modeId field is required")
	ErrInvalidTurn        = InvalidArgument("invalid turn")
	ErrInvalidMode        = InvalidArgument("invalid game mode")
)

// Lobby membership errors
var (
	ErrLobbyNotFound  = FailedPrecondition("lobby does not exist")
	ErrModeNotFound   = FailedPrecondition("mode does not exist")
	ErrNotInLobby     = FailedPrecondition("user must be in lobby")
	ErrAlreadyInLobby = FailedPrecondition("user is already in lobby")
	ErrNotHost        = FailedPrecondition("must be host")
	ErrBanned         = FailedPrecondition("banned from lobby")
	ErrLobbyFull      = FailedPrecondition("cannot join a full lobby")
	ErrMoveTarget     = FailedPrecondition("user to move must be in the lobby")
	ErrMustBePlayer   = FailedPrecondition("user must be player for that move")
	ErrMustSpectate   = FailedPrecondition("user must be spectator for that move")
)

// Game state errors
var (
	ErrGameInProgress        = FailedPrecondition("cannot edit while game in progress")
	ErrGameNotEditable       = FailedPrecondition("game must exist and not be in progress")
	ErrGameNotJoinable       = FailedPrecondition("game must exist and not be started")
	ErrGameNotInProgress     = FailedPrecondition("game must exist and be in progress")
	ErrCannotLeaveInProgress = FailedPrecondition("cannot leave game in progress")
	ErrFreeJoinDisabled      = FailedPrecondition("free team joining is disabled")
	ErrTeamFull              = FailedPrecondition("team is full")
	ErrAlreadyOnTeam         = FailedPrecondition("user is already on that team")
	ErrTeamEmpty             = FailedPrecondition("must be at least 1 player on teams")
	ErrPlayersNotReady       = FailedPrecondition("all players must be ready")
	ErrNotPlayer             = FailedPrecondition("must be active player in lobby game")
	ErrTurnNotAvailable      = FailedPrecondition("player must have turn available")
)

// Consistency errors
var (
	ErrNoActiveTurn = Internal("no player with available turn found")
	ErrRoleNotFound = Internal("failed to fetch user role in lobby")
	ErrTeamMissing  = Internal("team record missing")
	ErrModeMissing  = Internal("failed to fetch game mode data")
	ErrUserMissing  = Internal("failed to fetch user")
)
