// Package hotels реализует HTTP-обработчики управления отелями платформы.
//
// Саб-админ видит и изменяет только созданные им отели, главный супер-админ все.
package hotels

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

// Service описывает интерфейс бизнес-логики работы с отелями.
type Service interface {
	CreateHotel(ctx context.Context, actor models.Actor, req models.CreateHotelRequest) (*models.Hotel, *models.User, error)
	ListHotels(ctx context.Context, scope models.Scope) ([]models.Hotel, error)
	GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, scope models.Scope, status models.SubscriptionStatus) (*models.Hotel, error)
	Renew(ctx context.Context, actor models.Actor, id primitive.ObjectID, scope models.Scope, days int) (*models.Hotel, error)
}

// Handler обрабатывает запросы к отелям.
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
// @Summary Создание отеля
// @Description Создаёт отель вместе с его администратором. Подписка активна 30 дней.
// @Tags Platform
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateHotelRequest true "Отель и администратор"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email или slug заняты"
// @Router /platform/hotels [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.hotels.Create"
	log := handlers.RequestLog(h.log, r, op)

	var req models.CreateHotelRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	hotel, admin, err := h.service.CreateHotel(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("hotel created", slog.String("hotel_id", hotel.ID.Hex()))
	response.Created(w, r, map[string]any{
		"hotel": hotel,
		"admin": admin,
	})
}

// List godoc
// @Summary Список отелей
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /platform/hotels [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.hotels.List"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.service.ListHotels(r.Context(), handlers.Scope(r))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"hotels": res,
		"count":  len(res),
	})
}

// Get godoc
// @Summary Отель по ID
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID отеля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /platform/hotels/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.hotels.Get"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	hotel, err := h.service.GetHotel(r.Context(), id, handlers.Scope(r))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"hotel": hotel})
}

// UpdateStatus godoc
// @Summary Смена статуса подписки
// @Tags Platform
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID отеля"
// @Param request body models.UpdateStatusRequest true "Новый статус"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /platform/hotels/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.hotels.UpdateStatus"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	var req models.UpdateStatusRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	hotel, err := h.service.UpdateStatus(r.Context(), handlers.Actor(r), id, handlers.Scope(r), req.Status)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("hotel status updated", slog.String("hotel_id", id.Hex()), slog.String("status", string(req.Status)))
	response.OK(w, r, map[string]any{"hotel": hotel})
}

// Renew godoc
// @Summary Продление подписки
// @Description Продлевает подписку на days дней (по умолчанию 30) и активирует отель.
// @Tags Platform
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID отеля"
// @Param request body models.RenewRequest false "Срок продления"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Подписка отменена"
// @Router /platform/hotels/{id}/renew [post]
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.hotels.Renew"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	var req models.RenewRequest
	if r.ContentLength != 0 {
		if err := response.Bind(r, h.validate, &req); err != nil {
			response.Fail(w, r, log, err)
			return
		}
	}

	hotel, err := h.service.Renew(r.Context(), handlers.Actor(r), id, handlers.Scope(r), req.Days)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("hotel renewed", slog.String("hotel_id", id.Hex()))
	response.OK(w, r, map[string]any{"hotel": hotel})
}
