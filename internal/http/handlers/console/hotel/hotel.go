// Package hotel реализует HTTP-обработчики текущего отеля: сводку, настройки и сотрудников.
package hotel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hotel-console/internal/http/handlers"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// Service описывает интерфейс бизнес-логики текущего отеля.
type Service interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, actor models.Actor, settings models.Settings) (*models.Settings, error)
	ListStaff(ctx context.Context) ([]models.User, error)
	CreateStaff(ctx context.Context, actor models.Actor, req models.CreateStaffRequest) (*models.User, error)
}

// Handler обрабатывает запросы к текущему отелю.
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

// Dashboard godoc
// @Summary Сводка отеля
// @Tags Hotel
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hotel.Dashboard"
	log := handlers.RequestLog(h.log, r, op)

	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, d)
}

// GetSettings godoc
// @Summary Настройки отеля
// @Tags Hotel
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hotel.GetSettings"
	log := handlers.RequestLog(h.log, r, op)

	s, err := h.service.GetSettings(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"settings": s})
}

// UpdateSettings godoc
// @Summary Изменение настроек отеля
// @Tags Hotel
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.Settings true "Настройки"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hotel.UpdateSettings"
	log := handlers.RequestLog(h.log, r, op)

	var req models.Settings
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	s, err := h.service.UpdateSettings(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"settings": s})
}

// ListStaff godoc
// @Summary Сотрудники отеля
// @Tags Hotel
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /staff [get]
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hotel.ListStaff"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.service.ListStaff(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"staff": res,
		"count": len(res),
	})
}

// CreateStaff godoc
// @Summary Добавление сотрудника
// @Tags Hotel
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateStaffRequest true "Сотрудник"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже используется в отеле"
// @Router /staff [post]
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.hotel.CreateStaff"
	log := handlers.RequestLog(h.log, r, op)

	var req models.CreateStaffRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	u, err := h.service.CreateStaff(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("staff created", slog.String("user_id", u.ID.Hex()), slog.String("role", string(u.Role)))
	response.Created(w, r, map[string]any{"user": u})
}
