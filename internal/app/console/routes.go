package console

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/hotel-console/internal/config"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/console/bookings"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/console/guests"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/console/hotel"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/console/rooms"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/health"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/platform/hotels"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/platform/operators"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/platform/reports"
	"github.com/magabrotheeeer/hotel-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	alertservice "github.com/magabrotheeeer/hotel-console/internal/services/alerts"
	auditservice "github.com/magabrotheeeer/hotel-console/internal/services/audit"
	authservice "github.com/magabrotheeeer/hotel-console/internal/services/auth"
	consoleservice "github.com/magabrotheeeer/hotel-console/internal/services/console"
	maintenanceservice "github.com/magabrotheeeer/hotel-console/internal/services/maintenance"
	platformservice "github.com/magabrotheeeer/hotel-console/internal/services/platform"
	riskservice "github.com/magabrotheeeer/hotel-console/internal/services/risk"
)

// Services зависимости маршрутов.
type Services struct {
	Auth        *authservice.AuthService
	Platform    *platformservice.Service
	Maintenance *maintenanceservice.Service
	Alerts      *alertservice.Service
	Risk        *riskservice.Monitor
	Console     *consoleservice.Service
	Audit       *auditservice.Writer
	Hotels      middlewarectx.HotelLookup
	Health      map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
//
// Платформенные маршруты: аутентификация, проверка источника, лимит, роль.
// Маршруты отеля: аутентификация, проверка источника, лимит, определение отеля, право.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services, reg *prometheus.Registry) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics,
	)

	limiter := middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst)

	hotelsHandler := hotels.New(logger, s.Platform)
	operatorsHandler := operators.New(logger, s.Platform)
	reportsHandler := reports.New(logger, s.Alerts, s.Maintenance, s.Platform, s.Risk, s.Audit)
	roomsHandler := rooms.New(logger, s.Console)
	guestsHandler := guests.New(logger, s.Console)
	bookingsHandler := bookings.New(logger, s.Console)
	hotelHandler := hotel.New(logger, s.Console)

	need := func(p models.Permission) func(http.Handler) http.Handler {
		return middlewarectx.RequirePermission(logger, p)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/login", login.New(logger, s.Auth, s.Audit).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(s.Auth, logger))
			r.Use(middlewarectx.OriginGuard(cfg.AllowedOrigins, logger))
			r.Use(limiter.Middleware(logger))

			// Платформа
			r.Route("/platform", func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleSuperAdmin, models.RoleSubSuperAdmin))
				superOnly := middlewarectx.RequireRole(logger, models.RoleSuperAdmin)

				r.Post("/hotels", hotelsHandler.Create)
				r.Get("/hotels", hotelsHandler.List)
				r.Get("/hotels/{id}", hotelsHandler.Get)
				r.Patch("/hotels/{id}/status", hotelsHandler.UpdateStatus)
				r.Post("/hotels/{id}/renew", hotelsHandler.Renew)

				r.Get("/alerts", reportsHandler.Alerts)
				r.Post("/maintenance", reportsHandler.Maintenance)
				r.Get("/audit-logs", reportsHandler.AuditLogs)
				r.With(superOnly).Get("/risk", reportsHandler.Risk)

				r.Get("/operators", operatorsHandler.List)
				r.With(superOnly).Post("/operators", operatorsHandler.Create)
				r.With(superOnly).Post("/operators/{id}/verify", operatorsHandler.Verify)
				r.With(superOnly).Patch("/operators/{id}/active", operatorsHandler.SetActive)
			})

			// Консоль отеля
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.ResolveTenant(s.Hotels, logger))

				r.With(need(models.PermDashboardRead)).Get("/dashboard", hotelHandler.Dashboard)

				r.With(need(models.PermRoomsRead)).Get("/rooms", roomsHandler.List)
				r.With(need(models.PermRoomsRead)).Get("/rooms/{id}", roomsHandler.Get)
				r.With(need(models.PermRoomsWrite)).Post("/rooms", roomsHandler.Create)
				r.With(need(models.PermRoomsWrite)).Put("/rooms/{id}", roomsHandler.Update)
				r.With(need(models.PermRoomsWrite)).Delete("/rooms/{id}", roomsHandler.Delete)

				r.With(need(models.PermGuestsRead)).Get("/guests", guestsHandler.List)
				r.With(need(models.PermGuestsRead)).Get("/guests/{id}", guestsHandler.Get)
				r.With(need(models.PermGuestsWrite)).Post("/guests", guestsHandler.Create)
				r.With(need(models.PermGuestsWrite)).Put("/guests/{id}", guestsHandler.Update)
				r.With(need(models.PermGuestsWrite)).Delete("/guests/{id}", guestsHandler.Delete)

				r.With(need(models.PermBookingsRead)).Get("/bookings", bookingsHandler.List)
				r.With(need(models.PermBookingsRead)).Get("/bookings/{id}", bookingsHandler.Get)
				r.With(need(models.PermBookingsWrite)).Post("/bookings", bookingsHandler.Create)
				r.With(need(models.PermBookingsWrite)).Post("/bookings/{id}/cancel", bookingsHandler.Cancel)

				r.With(need(models.PermSettingsRead)).Get("/settings", hotelHandler.GetSettings)
				r.With(need(models.PermSettingsWrite)).Put("/settings", hotelHandler.UpdateSettings)

				r.With(need(models.PermUsersManage)).Get("/staff", hotelHandler.ListStaff)
				r.With(need(models.PermUsersManage)).Post("/staff", hotelHandler.CreateStaff)
			})
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", metrics.Handler(reg))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
