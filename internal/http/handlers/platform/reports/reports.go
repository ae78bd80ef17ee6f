// Package reports реализует HTTP-обработчики отчётов платформы:
// предупреждения о подписках, ручной запуск обслуживания, журнал аудита и риск-оценку.
package reports

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	alertservice "github.com/magabrotheeeer/hotel-console/internal/services/alerts"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// AlertService отчёт о подписках.
type AlertService interface {
	Get(ctx context.Context, actor models.Actor, windowDays int, scope models.Scope, runMaintenance bool) (*models.AlertReport, error)
}

// Maintainer приостановка истекших отелей.
type Maintainer interface {
	Run(ctx context.Context, actor models.Actor, scope models.Scope) (models.MaintenanceResult, error)
}

// AuditService выборка журнала аудита.
type AuditService interface {
	AuditLogs(ctx context.Context, actor models.Actor, scope models.Scope, f models.AuditFilter) ([]models.AuditLog, error)
}

// RiskService риск-оценка саб-админов.
type RiskService interface {
	List(ctx context.Context) ([]models.OperatorRisk, error)
}

// Recorder журнал аудита.
type Recorder interface {
	Write(ctx context.Context, entry models.AuditLog)
}

// Handler обрабатывает запросы отчётов.
type Handler struct {
	log        *slog.Logger
	alerts     AlertService
	maintainer Maintainer
	logs       AuditService
	risk       RiskService
	audit      Recorder
}

// New создает новый Handler.
func New(log *slog.Logger, alerts AlertService, maintainer Maintainer, logs AuditService, risk RiskService, audit Recorder) *Handler {
	return &Handler{
		log:        log,
		alerts:     alerts,
		maintainer: maintainer,
		logs:       logs,
		risk:       risk,
		audit:      audit,
	}
}

// Alerts godoc
// @Summary Предупреждения об истекающих подписках
// @Description Перед построением отчёта по умолчанию запускает обслуживание (maintenance=false отключает).
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Param days query int false "Окно в днях, 1..30" default(7)
// @Param maintenance query bool false "Запустить обслуживание" default(true)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /platform/alerts [get]
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.reports.Alerts"
	log := handlers.RequestLog(h.log, r, op)

	days, err := handlers.IntQuery(r, "days", alertservice.DefaultWindowDays)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	runMaintenance, err := handlers.BoolQuery(r, "maintenance", true)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	actor := handlers.Actor(r)
	report, err := h.alerts.Get(r.Context(), actor, days, handlers.Scope(r), runMaintenance)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	entry := actor.Entry(models.ActionAlertsViewed, "hotel")
	entry.Metadata["windowDays"] = days
	entry.Metadata["total"] = report.Summary.Total
	h.audit.Write(r.Context(), entry)
	response.OK(w, r, report)
}

// Maintenance godoc
// @Summary Приостановка отелей с истекшей подпиской
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /platform/maintenance [post]
func (h *Handler) Maintenance(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.reports.Maintenance"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.maintainer.Run(r.Context(), handlers.Actor(r), handlers.Scope(r))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, res)
}

// AuditLogs godoc
// @Summary Журнал аудита
// @Description Саб-админ видит только записи по своим отелям и свои действия.
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Param action query string false "Действие"
// @Param actor query string false "ID оператора"
// @Param limit query int false "Размер страницы" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response
// @Router /platform/audit-logs [get]
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.reports.AuditLogs"
	log := handlers.RequestLog(h.log, r, op)

	limit, err := handlers.IntQuery(r, "limit", defaultLimit)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	offset, err := handlers.IntQuery(r, "offset", 0)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	if limit < 1 || limit > maxLimit || offset < 0 {
		response.Fail(w, r, log, apperr.Validation("limit must be 1..500 and offset non-negative"))
		return
	}

	f := models.AuditFilter{
		Action:  r.URL.Query().Get("action"),
		ActorID: r.URL.Query().Get("actor"),
		Limit:   limit,
		Offset:  offset,
	}
	res, err := h.logs.AuditLogs(r.Context(), handlers.Actor(r), handlers.Scope(r), f)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]any{
		"logs":   res,
		"count":  len(res),
		"limit":  limit,
		"offset": offset,
	})
}

// Risk godoc
// @Summary Риск-оценка саб-админов
// @Tags Platform
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /platform/risk [get]
func (h *Handler) Risk(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.platform.reports.Risk"
	log := handlers.RequestLog(h.log, r, op)

	res, err := h.risk.List(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	entry := handlers.Actor(r).Entry(models.ActionRiskViewed, "user")
	entry.Metadata["count"] = len(res)
	h.audit.Write(r.Context(), entry)
	response.OK(w, r, map[string]any{
		"operators": res,
		"count":     len(res),
	})
}
