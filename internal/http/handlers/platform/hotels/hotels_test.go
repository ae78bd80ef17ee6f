package hotels

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateHotel(ctx context.Context, actor models.Actor, req models.CreateHotelRequest) (*models.Hotel, *models.User, error) {
	args := m.Called(ctx, actor, req)
	h, _ := args.Get(0).(*models.Hotel)
	u, _ := args.Get(1).(*models.User)
	return h, u, args.Error(2)
}

func (m *ServiceMock) ListHotels(ctx context.Context, scope models.Scope) ([]models.Hotel, error) {
	args := m.Called(ctx, scope)
	res, _ := args.Get(0).([]models.Hotel)
	return res, args.Error(1)
}

func (m *ServiceMock) GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error) {
	args := m.Called(ctx, id, scope)
	h, _ := args.Get(0).(*models.Hotel)
	return h, args.Error(1)
}

func (m *ServiceMock) UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, scope models.Scope, status models.SubscriptionStatus) (*models.Hotel, error) {
	args := m.Called(ctx, actor, id, scope, status)
	h, _ := args.Get(0).(*models.Hotel)
	return h, args.Error(1)
}

func (m *ServiceMock) Renew(ctx context.Context, actor models.Actor, id primitive.ObjectID, scope models.Scope, days int) (*models.Hotel, error) {
	args := m.Called(ctx, actor, id, scope, days)
	h, _ := args.Get(0).(*models.Hotel)
	return h, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func asOperator(req *http.Request, p *models.OperatorProfile) *http.Request {
	return req.WithContext(middlewarectx.WithOperator(req.Context(), p))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandler_List_ScopeFollowsRole(t *testing.T) {
	super := &models.OperatorProfile{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin, IsActive: true}
	sub := &models.OperatorProfile{ID: primitive.NewObjectID(), Role: models.RoleSubSuperAdmin, IsActive: true}

	tests := []struct {
		name      string
		profile   *models.OperatorProfile
		wantScope models.Scope
	}{
		{name: "super admin sees all", profile: super, wantScope: models.Scope{}},
		{name: "sub admin sees own", profile: sub, wantScope: models.Scope{CreatedBy: &sub.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			h := New(newNoopLogger(), svc)
			svc.On("ListHotels", mock.Anything, tt.wantScope).Return([]models.Hotel{{Name: "A"}}, nil).Once()

			rec := httptest.NewRecorder()
			h.List(rec, asOperator(httptest.NewRequest(http.MethodGet, "/api/v1/platform/hotels", nil), tt.profile))

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Create(t *testing.T) {
	op := &models.OperatorProfile{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin, IsActive: true}
	valid := models.CreateHotelRequest{
		Name:          "Grand",
		Slug:          "grand",
		Email:         "desk@grand.io",
		AdminName:     "Owner",
		AdminEmail:    "owner@grand.io",
		AdminPassword: "password123",
	}

	tests := []struct {
		name      string
		body      models.CreateHotelRequest
		callSvc   bool
		mockErr   error
		wantCode  int
		wantError string
	}{
		{name: "created", body: valid, callSvc: true, wantCode: http.StatusCreated},
		{name: "bad slug", body: func() models.CreateHotelRequest { b := valid; b.Slug = "no spaces!"; return b }(), wantCode: http.StatusBadRequest, wantError: apperr.CodeValidation},
		{name: "slug taken", body: valid, callSvc: true, mockErr: apperr.Conflict("slug already taken"), wantCode: http.StatusConflict, wantError: apperr.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			h := New(newNoopLogger(), svc)
			if tt.callSvc {
				var hotel *models.Hotel
				var admin *models.User
				if tt.mockErr == nil {
					hotel = &models.Hotel{ID: primitive.NewObjectID(), Name: valid.Name}
					admin = &models.User{ID: primitive.NewObjectID(), Email: valid.AdminEmail}
				}
				svc.On("CreateHotel", mock.Anything, mock.MatchedBy(func(a models.Actor) bool {
					return a.ID == op.ID.Hex()
				}), tt.body).Return(hotel, admin, tt.mockErr).Once()
			}

			body, _ := json.Marshal(tt.body)
			req := asOperator(httptest.NewRequest(http.MethodPost, "/api/v1/platform/hotels", bytes.NewReader(body)), op)
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Renew(t *testing.T) {
	op := &models.OperatorProfile{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin, IsActive: true}
	id := primitive.NewObjectID()

	tests := []struct {
		name     string
		body     string
		wantDays int
		callSvc  bool
		wantCode int
	}{
		{name: "empty body uses default", body: "", wantDays: 0, callSvc: true, wantCode: http.StatusOK},
		{name: "explicit days", body: `{"days":90}`, wantDays: 90, callSvc: true, wantCode: http.StatusOK},
		{name: "too many days", body: `{"days":1000}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			h := New(newNoopLogger(), svc)
			if tt.callSvc {
				svc.On("Renew", mock.Anything, mock.Anything, id, models.Scope{}, tt.wantDays).
					Return(&models.Hotel{ID: id}, nil).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/platform/hotels/"+id.Hex()+"/renew", bytes.NewReader([]byte(tt.body)))
			req = withID(asOperator(req, op), id.Hex())
			rec := httptest.NewRecorder()
			h.Renew(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
