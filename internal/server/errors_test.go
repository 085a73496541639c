package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/talent-engine/internal/talent"
	"github.com/stretchr/testify/assert"
)

func TestErrInvalidCredentials(t *testing.T) {
	err := &ErrInvalidCredentials{}
	assert.Equal(t, "invalid email or password", err.Error())
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "email", Message: "invalid format"}
	assert.Equal(t, "validation error: email - invalid format", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus_EngineKinds(t *testing.T) {
	tests := []struct {
		kind talent.Kind
		want int
	}{
		{talent.KindNotFound, http.StatusNotFound},
		{talent.KindInvalidState, http.StatusConflict},
		{talent.KindExpired, http.StatusGone},
		{talent.KindAlreadyActioned, http.StatusConflict},
		{talent.KindForbidden, http.StatusForbidden},
		{talent.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &talent.Error{Kind: tt.kind, Reason: "r", Message: "m"}
			assert.Equal(t, tt.want, HTTPStatus(err))
			assert.Equal(t, tt.want, HTTPStatus(fmt.Errorf("wrapped: %w", err)))
		})
	}
}

func TestHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestToErrorBody(t *testing.T) {
	conflict := &talent.Error{Kind: talent.KindInvalidState, Reason: talent.ReasonInvitationExists, Message: "candidate already has an active invitation for this job"}
	assert.Equal(t, errorBody{Error: conflict.Message, Reason: talent.ReasonInvitationExists}, toErrorBody(conflict))

	internal := &talent.Error{Kind: talent.KindInternal, Reason: talent.ReasonInternal, Message: "failed to load job", Err: errors.New("pq: password authentication failed")}
	body := toErrorBody(internal)
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, body.Error, "password")

	assert.Equal(t, errorBody{Error: "invalid email or password"}, toErrorBody(&ErrInvalidCredentials{}))
}

func TestHTTPStatus_BadInputReasons(t *testing.T) {
	for _, reason := range []string{talent.ReasonInvalidRange, talent.ReasonInvalidStatus, talent.ReasonInvalidInteraction} {
		err := &talent.Error{Kind: talent.KindInvalidState, Reason: reason, Message: "m"}
		assert.Equal(t, http.StatusBadRequest, HTTPStatus(err), reason)
	}
}
