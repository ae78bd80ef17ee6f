// Package login реализует HTTP-обработчик входа оператора.
//
// Тело запроса декодируется и валидируется, вход делегируется сервису
// аутентификации. При успехе возвращается JWT и профиль оператора,
// успешный вход попадает в журнал аудита.
package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hotel-console/internal/http/handlers"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	auditservice "github.com/magabrotheeeer/hotel-console/internal/services/audit"
)

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис аутентификации
	audit    Recorder            // Журнал аудита
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (string, *models.OperatorProfile, error)
}

// Recorder журнал аудита.
type Recorder interface {
	Write(ctx context.Context, entry models.AuditLog)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, audit Recorder) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		audit:    audit,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход оператора
// @Description Проверяет email и пароль. Для сотрудника отеля передаётся hotel_slug. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.LoginRequest true "Учетные данные оператора"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := handlers.RequestLog(h.log, r, op)

	var req models.LoginRequest
	if err := response.Bind(r, h.validate, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	token, profile, err := h.service.Login(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log.With(slog.String("email", req.Email)), err)
		return
	}

	h.audit.Write(r.Context(), auditservice.FromRequest(r, profile, models.ActionLogin, "user"))
	log.Info("login success", slog.String("operator_id", profile.ID.Hex()))
	response.OK(w, r, map[string]any{
		"token":    token,
		"operator": profile,
	})
}
