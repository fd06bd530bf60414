// Package errors defines the stable error kinds surfaced by the chat core.
// Every authorization or existence check resolves to one of these sentinels
// before any mutation happens; transports match them with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Unauthenticated: no, malformed, or expired credential.
var (
	ErrTokenMissing       = fmt.Errorf("authorization token is missing")
	ErrTokenMalformed     = fmt.Errorf("authorization token is malformed")
	ErrTokenInvalid       = fmt.Errorf("authorization token is invalid or expired")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// Forbidden: authenticated but not authorized for the target room or message.
var (
	ErrNotParticipant = fmt.Errorf("user is not a participant of this room")
	ErrNotRecipient   = fmt.Errorf("only the recipient may mark this message as read")
)

// NotFound.
var (
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrRoomNotFound    = fmt.Errorf("room not found")
	ErrMessageNotFound = fmt.Errorf("message not found")
)

// Conflict.
var (
	ErrAlreadyParticipant = fmt.Errorf("user is already a participant of this room")
	ErrUserAlreadyExists  = fmt.Errorf("username or email already exists")
)

// InvalidState.
var (
	ErrNotInRoom     = fmt.Errorf("user is not in this room")
	ErrSessionClosed = fmt.Errorf("session is closed")
)

// Validation and delivery failures.
var (
	ErrInvalidPassword = fmt.Errorf("password does not meet complexity requirements")
	ErrValidation      = fmt.Errorf("invalid request")
	ErrBackpressure    = fmt.Errorf("delivery dropped: connection buffer full")
)

// HTTPStatus maps a domain error to the status code the REST boundary
// returns. Unknown errors are storage or internal failures and map to 500.
func HTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrTokenMissing),
		stderrors.Is(err, ErrTokenMalformed),
		stderrors.Is(err, ErrTokenInvalid),
		stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrNotParticipant),
		stderrors.Is(err, ErrNotRecipient):
		return http.StatusForbidden
	case stderrors.Is(err, ErrUserNotFound),
		stderrors.Is(err, ErrRoomNotFound),
		stderrors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrAlreadyParticipant),
		stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, ErrNotInRoom),
		stderrors.Is(err, ErrSessionClosed),
		stderrors.Is(err, ErrValidation),
		stderrors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
