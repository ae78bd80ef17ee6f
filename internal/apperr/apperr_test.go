package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrMissingCredential, http.StatusUnauthorized},
		{ErrInvalidCredential, http.StatusUnauthorized},
		{ErrInactiveAccount, http.StatusUnauthorized},
		{ErrInactiveTenant, http.StatusForbidden},
		{ErrForbiddenOrigin, http.StatusForbidden},
		{ErrMissingTenant, http.StatusForbidden},
		{ErrInvalidTenantID, http.StatusBadRequest},
		{ErrMissingPermission, http.StatusForbidden},
		{ErrForbiddenRole, http.StatusForbidden},
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("room"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("driver exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(From(tt.err).Code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorsIs_ByCode(t *testing.T) {
	wrapped := fmt.Errorf("hotels.Create: %w", Conflict("email already used"))
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrNotFound)

	cause := errors.New("socket closed")
	err := ErrInternal.Wrap(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	e := From(errors.New("boom"))
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, "internal service error", e.Message)

	nf := From(fmt.Errorf("op: %w", NotFound("guest")))
	assert.Equal(t, "guest not found", nf.Message)
}

func TestWithMessage_DoesNotMutateSentinel(t *testing.T) {
	_ = Validation("first field is bad")
	assert.Equal(t, "invalid request", ErrValidation.Message)
}
