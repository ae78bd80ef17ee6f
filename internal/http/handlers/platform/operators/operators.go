// Package operators реализует HTTP-обработчики управления саб-админами платформы.
package operators

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

// Service описывает интерфейс бизнес-логики работы с операторами платформы.
type Service interface {
	CreateOperator(ctx context.Context, actor models.Actor, req models.CreateOperatorRequest) (*models.User, error)
	ListOperators(ctx context.Context) ([]models.User, error)
	VerifyOperator(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
	SetOperatorActive(ctx context.Context, actor models.Actor, id primitive.ObjectID, active bool) error
}

// Handler обрабатывает запросы к операторам платформы.
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
// @Summary Создание саб-админа
// @Tags Platform
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateOperatorRequest true "Оператор"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse
// @Router /platform/operators [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.operators.Create"
	log := handlers.RequestLog(h.log, r, op)

	var req models.CreateOperatorRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	u, err := h.service.CreateOperator(r.Context(), handlers.Actor(r), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	log.Info("operator created", slog.String("operator_id", u.ID.Hex()))
	response.Created(w, r, map[string]any{"operator": u})
}

// List godoc
// @Summary Список операторов платформы
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /platform/operators [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.operators.List"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.service.ListOperators(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"operators": res,
		"count":     len(res),
	})
}

// Verify godoc
// @Summary Подтверждение саб-админа
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID оператора"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /platform/operators/{id}/verify [post]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.operators.Verify"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	if err := h.service.VerifyOperator(r.Context(), handlers.Actor(r), id); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"id": id.Hex(), "isVerified": true})
}

// SetActive godoc
// @Summary Включение и отключение оператора
// @Tags Platform
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID оператора"
// @Param request body models.SetActiveRequest true "Состояние"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /platform/operators/{id}/active [patch]
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.operators.SetActive"
	log := handlers.RequestLog(h.log, r, op)

	id, err := handlers.ObjectID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	var req models.SetActiveRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	if err := h.service.SetOperatorActive(r.Context(), handlers.Actor(r), id, *req.IsActive); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{"id": id.Hex(), "isActive": *req.IsActive})
}
