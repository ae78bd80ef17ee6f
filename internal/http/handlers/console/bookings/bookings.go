// Package bookings реализует HTTP-обработчики бронирований отеля.
package bookings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/http/handlers"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// Service описывает интерфейс бизнес-логики бронирований.
type Service interface {
	CreateBooking(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, status models.BookingStatus) ([]models.Booking, error)
	GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Booking, error)
}

// Handler обрабатывает запросы к бронированиям.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Create godoc
// @Summary Создание бронирования
// @Description Номер и гость должны принадлежать текущему отелю.
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateBookingRequest true "Бронирование"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Номер или гость не найдены"
// @Router /bookings [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bookings.Create"
	log := handlers.RequestLog(h.log, r, op)

	var req models.CreateBookingRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	b, err := h.service.CreateBooking(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("booking created", slog.String("booking_id", b.ID.Hex()))
	response.Created(w, r, map[string]any{"booking": b})
}

// List godoc
// @Summary Список бронирований
// @Tags Bookings
// @Produce  json
// @Security BearerAuth
// @Param status query string false "Статус бронирования"
// @Success 200 {object} response.Response
// @Router /bookings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bookings.List"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.service.ListBookings(r.Context(), models.BookingStatus(r.URL.Query().Get("status")))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"bookings": res,
		"count":    len(res),
	})
}

// Get godoc
// @Summary Бронирование по ID
// @Tags Bookings
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID бронирования"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /bookings/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bookings.Get"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	b, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"booking": b})
}

// Cancel godoc
// @Summary Отмена бронирования
// @Tags Bookings
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID бронирования"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /bookings/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bookings.Cancel"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	b, err := h.service.CancelBooking(r.Context(), handlers.Actor(r), id)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"booking": b})
}
