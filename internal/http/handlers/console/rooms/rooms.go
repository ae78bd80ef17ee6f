// Package rooms реализует HTTP-обработчики номеров отеля.
// Отель берётся из контекста запроса, идентификатор отеля в теле игнорируется.
package rooms

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

// Service описывает интерфейс бизнес-логики номеров.
type Service interface {
	CreateRoom(ctx context.Context, actor models.Actor, r models.Room) (*models.Room, error)
	ListRooms(ctx context.Context, status models.RoomStatus) ([]models.Room, error)
	GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	UpdateRoom(ctx context.Context, actor models.Actor, id primitive.ObjectID, r models.Room) (*models.Room, error)
	DeleteRoom(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
}

// Handler обрабатывает запросы к номерам.
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
// @Summary Создание номера
// @Tags Rooms
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param X-Hotel-Id header string false "Отель для платформенного оператора"
// @Param request body models.Room true "Номер"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Номер уже существует"
// @Router /rooms [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rooms.Create"
	log := handlers.RequestLog(h.log, r, op)

	var req models.Room
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	room, err := h.service.CreateRoom(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("room created", slog.String("room_id", room.ID.Hex()))
	response.Created(w, r, map[string]any{"room": room})
}

// List godoc
// @Summary Список номеров
// @Tags Rooms
// @Produce  json
// @Security BearerAuth
// @Param status query string false "Состояние номера"
// @Success 200 {object} response.Response
// @Router /rooms [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rooms.List"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.service.ListRooms(r.Context(), models.RoomStatus(r.URL.Query().Get("status")))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"rooms": res,
		"count": len(res),
	})
}

// Get godoc
// @Summary Номер по ID
// @Tags Rooms
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID номера"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /rooms/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rooms.Get"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"room": room})
}

// Update godoc
// @Summary Обновление номера
// @Tags Rooms
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID номера"
// @Param request body models.Room true "Номер"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /rooms/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rooms.Update"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	var req models.Room
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	room, err := h.service.UpdateRoom(r.Context(), handlers.Actor(r), id, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"room": room})
}

// Delete godoc
// @Summary Удаление номера
// @Tags Rooms
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID номера"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /rooms/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rooms.Delete"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	if err := h.service.DeleteRoom(r.Context(), handlers.Actor(r), id); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("room deleted", slog.String("room_id", id.Hex()))
	response.OK(w, r, map[string]any{"id": id.Hex(), "deleted": true})
}
