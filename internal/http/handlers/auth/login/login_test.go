package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, req models.LoginRequest) (string, *models.OperatorProfile, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(1).(*models.OperatorProfile)
	return args.String(0), p, args.Error(2)
}

type RecorderMock struct {
	mock.Mock
}

func (m *RecorderMock) Write(ctx context.Context, entry models.AuditLog) {
	m.Called(ctx, entry)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	profile := &models.OperatorProfile{ID: primitive.NewObjectID(), Email: "root@console.io", Role: models.RoleSuperAdmin, IsActive: true}

	tests := []struct {
		name           string
		requestBody    any
		mockToken      string
		mockErr        error
		wantStatusCode int
		wantError      string
		wantStatus     string
	}{
		{
			name:           "valid login",
			requestBody:    models.LoginRequest{Email: "root@console.io", Password: "password123"},
			mockToken:      "tok",
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      apperr.CodeValidation,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing password",
			requestBody:    models.LoginRequest{Email: "root@console.io"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      apperr.CodeValidation,
			wantStatus:     "Error",
		},
		{
			name:           "invalid credentials",
			requestBody:    models.LoginRequest{Email: "root@console.io", Password: "wrong-password"},
			mockErr:        apperr.ErrInvalidCredential,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      apperr.CodeInvalidCredential,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			recorder := new(RecorderMock)
			handler := New(newNoopLogger(), authMock, recorder)

			if tt.mockToken != "" || tt.mockErr != nil {
				var p *models.OperatorProfile
				if tt.mockErr == nil {
					p = profile
				}
				authMock.On("Login", mock.Anything, tt.requestBody.(models.LoginRequest)).
					Return(tt.mockToken, p, tt.mockErr).Once()
			}
			if tt.mockToken != "" {
				recorder.On("Write", mock.Anything, mock.MatchedBy(func(e models.AuditLog) bool {
					return e.Action == models.ActionLogin && e.ActorID == profile.ID.Hex()
				})).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				assert.Nil(t, got["data"])
			} else {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, tt.mockToken, data["token"])
			}

			authMock.AssertExpectations(t)
			recorder.AssertExpectations(t)
		})
	}
}
