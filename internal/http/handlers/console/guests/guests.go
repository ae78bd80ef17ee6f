// Package guests реализует HTTP-обработчики гостей отеля.
package guests

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

// Service описывает интерфейс бизнес-логики гостей.
type Service interface {
	CreateGuest(ctx context.Context, actor models.Actor, g models.Guest) (*models.Guest, error)
	ListGuests(ctx context.Context, search string) ([]models.Guest, error)
	GetGuest(ctx context.Context, id primitive.ObjectID) (*models.Guest, error)
	UpdateGuest(ctx context.Context, actor models.Actor, id primitive.ObjectID, g models.Guest) (*models.Guest, error)
	DeleteGuest(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
}

// Handler обрабатывает запросы к гостям.
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
// @Summary Создание гостя
// @Tags Guests
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.Guest true "Гость"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /guests [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.guests.Create"
	log := handlers.RequestLog(h.log, r, op)

	var req models.Guest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	guest, err := h.service.CreateGuest(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.Created(w, r, map[string]any{"guest": guest})
}

// List godoc
// @Summary Список гостей
// @Tags Guests
// @Produce  json
// @Security BearerAuth
// @Param search query string false "Префикс фамилии или email"
// @Success 200 {object} response.Response
// @Router /guests [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.guests.List"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.service.ListGuests(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"guests": res,
		"count":  len(res),
	})
}

// Get godoc
// @Summary Гость по ID
// @Tags Guests
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID гостя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /guests/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.guests.Get"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	guest, err := h.service.GetGuest(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"guest": guest})
}

// Update godoc
// @Summary Обновление гостя
// @Tags Guests
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID гостя"
// @Param request body models.Guest true "Гость"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /guests/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.guests.Update"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	var req models.Guest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	guest, err := h.service.UpdateGuest(r.Context(), handlers.Actor(r), id, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"guest": guest})
}

// Delete godoc
// @Summary Удаление гостя
// @Tags Guests
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID гостя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /guests/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.guests.Delete"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	if err := h.service.DeleteGuest(r.Context(), handlers.Actor(r), id); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"id": id.Hex(), "deleted": true})
}
