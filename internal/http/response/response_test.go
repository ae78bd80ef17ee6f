package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "classified error",
			err:         fmt.Errorf("console.GetRoom: %w", apperr.NotFound("room")),
			wantStatus:  http.StatusNotFound,
			wantCode:    apperr.CodeNotFound,
			wantMessage: "room not found",
		},
		{
			name:        "internal error hides cause",
			err:         errors.New("mongo: connection refused on 10.0.0.5"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    apperr.CodeInternal,
			wantMessage: "internal service error",
		},
		{
			name:        "missing tenant",
			err:         apperr.ErrMissingTenant,
			wantStatus:  http.StatusForbidden,
			wantCode:    apperr.CodeMissingTenant,
			wantMessage: "hotel context is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			Fail(rec, req, newNoopLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			var got Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.wantCode, got.Error)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		Name  string `validate:"required,alphanum"`
		Email string `validate:"required,email"`
	}

	v := validator.New()
	err := v.Struct(TestStruct{Name: "!!!", Email: "nope"})
	require.Error(t, err)

	res := ValidationError(err.(validator.ValidationErrors))

	assert.ErrorIs(t, res, apperr.ErrValidation)
	assert.Contains(t, res.Message, "field Name can contain only numbers and letters")
	assert.Contains(t, res.Message, "field Email must be a valid email")
}

func TestBind(t *testing.T) {
	type Request struct {
		Name string `json:"name" validate:"required"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		wantMsg string
	}{
		{name: "valid", body: `{"name":"Sunrise"}`},
		{name: "invalid json", body: `not a json`, wantErr: true, wantMsg: "invalid request body"},
		{name: "missing field", body: `{}`, wantErr: true, wantMsg: "field Name is a required field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst Request
			err := Bind(req, validator.New(), &dst)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "Sunrise", dst.Name)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, tt.wantMsg, apperr.From(err).Message)
		})
	}
}
