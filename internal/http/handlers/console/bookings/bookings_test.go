package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateBooking(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, actor, req)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *ServiceMock) ListBookings(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	args := m.Called(ctx, status)
	res, _ := args.Get(0).([]models.Booking)
	return res, args.Error(1)
}

func (m *ServiceMock) GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *ServiceMock) CancelBooking(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Booking, error) {
	args := m.Called(ctx, actor, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got
}

func TestHandler_Create(t *testing.T) {
	checkIn := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	valid := models.CreateBookingRequest{
		RoomID:   primitive.NewObjectID().Hex(),
		GuestID:  primitive.NewObjectID().Hex(),
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, 3),
	}
	backwards := valid
	backwards.CheckOut = checkIn.AddDate(0, 0, -1)

	tests := []struct {
		name      string
		body      models.CreateBookingRequest
		callSvc   bool
		mockErr   error
		wantCode  int
		wantError string
	}{
		{name: "created", body: valid, callSvc: true, wantCode: http.StatusCreated},
		{name: "check out before check in", body: backwards, wantCode: http.StatusBadRequest, wantError: apperr.CodeValidation},
		{name: "room of another hotel", body: valid, callSvc: true, mockErr: apperr.NotFound("room"), wantCode: http.StatusNotFound, wantError: apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			h := New(newNoopLogger(), svc)
			if tt.callSvc {
				var b *models.Booking
				if tt.mockErr == nil {
					b = &models.Booking{ID: primitive.NewObjectID()}
				}
				svc.On("CreateBooking", mock.Anything, mock.Anything, mock.MatchedBy(func(req models.CreateBookingRequest) bool {
					return req.RoomID == tt.body.RoomID && req.CheckOut.Equal(tt.body.CheckOut)
				})).Return(b, tt.mockErr).Once()
			}

			body, _ := json.Marshal(tt.body)
			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			got := decode(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Cancel(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name      string
		param     string
		callSvc   bool
		mockErr   error
		wantCode  int
		wantError string
	}{
		{name: "cancelled", param: id.Hex(), callSvc: true, wantCode: http.StatusOK},
		{name: "bad id", param: "nope", wantCode: http.StatusBadRequest, wantError: apperr.CodeValidation},
		{name: "not found", param: id.Hex(), callSvc: true, mockErr: apperr.NotFound("booking"), wantCode: http.StatusNotFound, wantError: apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			h := New(newNoopLogger(), svc)
			if tt.callSvc {
				var b *models.Booking
				if tt.mockErr == nil {
					b = &models.Booking{ID: id, Status: models.BookingCancelled}
				}
				svc.On("CancelBooking", mock.Anything, mock.Anything, id).Return(b, tt.mockErr).Once()
			}

			req := withID(httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+tt.param+"/cancel", nil), tt.param)
			rec := httptest.NewRecorder()
			h.Cancel(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			got := decode(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_List_PassesStatus(t *testing.T) {
	svc := new(ServiceMock)
	h := New(newNoopLogger(), svc)
	svc.On("ListBookings", mock.Anything, models.BookingStatus("confirmed")).
		Return([]models.Booking{{ID: primitive.NewObjectID()}}, nil).Once()

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings?status=confirmed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := decode(t, rec)["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["count"])
	svc.AssertExpectations(t)
}
