package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/talent-engine/internal/talent"
)

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// badInputReasons are invalid-state reasons caused by malformed request values
var badInputReasons = map[string]bool{
	talent.ReasonInvalidRange:       true,
	talent.ReasonInvalidStatus:      true,
	talent.ReasonInvalidInteraction: true,
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var engineErr *talent.Error
	if errors.As(err, &engineErr) {
		switch engineErr.Kind {
		case talent.KindNotFound:
			return http.StatusNotFound
		case talent.KindInvalidState:
			if badInputReasons[engineErr.Reason] {
				return http.StatusBadRequest
			}
			return http.StatusConflict
		case talent.KindAlreadyActioned:
			return http.StatusConflict
		case talent.KindExpired:
			return http.StatusGone
		case talent.KindForbidden:
			return http.StatusForbidden
		default:
			return http.StatusInternalServerError
		}
	}

	switch err.(type) {
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// toErrorBody renders err for clients. Internal failures never leak their cause.
func toErrorBody(err error) errorBody {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return errorBody{Error: "internal server error", Reason: talent.ReasonInternal}
	}
	var engineErr *talent.Error
	if errors.As(err, &engineErr) {
		return errorBody{Error: engineErr.Message, Reason: engineErr.Reason}
	}
	return errorBody{Error: err.Error()}
}
