// Package console собирает HTTP-приложение консоли отелей.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/hotel-console/internal/cache"
	"github.com/magabrotheeeer/hotel-console/internal/config"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers/health"
	"github.com/magabrotheeeer/hotel-console/internal/lib/jwt"
	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/migrations"
	alertservice "github.com/magabrotheeeer/hotel-console/internal/services/alerts"
	auditservice "github.com/magabrotheeeer/hotel-console/internal/services/audit"
	authservice "github.com/magabrotheeeer/hotel-console/internal/services/auth"
	consoleservice "github.com/magabrotheeeer/hotel-console/internal/services/console"
	maintenanceservice "github.com/magabrotheeeer/hotel-console/internal/services/maintenance"
	platformservice "github.com/magabrotheeeer/hotel-console/internal/services/platform"
	riskservice "github.com/magabrotheeeer/hotel-console/internal/services/risk"
	"github.com/magabrotheeeer/hotel-console/internal/storage/mongodb"
	"github.com/magabrotheeeer/hotel-console/internal/storage/repository"
	"github.com/magabrotheeeer/hotel-console/internal/storage/tenancy"
)

const (
	auditTimeout    = 5 * time.Second
	shutdownTimeout = 15 * time.Second
)

// App HTTP-приложение консоли.
type App struct {
	server *http.Server
	logger *slog.Logger
	mongo  *mongodb.Storage
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
	audit  *auditservice.Writer
}

// New подключает хранилища и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.console.New"

	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	guard := tenancy.NewGuard(logger, cfg.StrictFilters)
	mongo, err := mongodb.New(ctx, cfg.MongoConnection.URI, cfg.Database, cfg.TimeoutMongo, guard)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.mongo = mongo

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var profiles authservice.ProfileCache
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.cache = c
		profiles = c
	} else {
		logger.Warn("redis address is empty, operator profiles are not cached")
	}

	var publisher maintenanceservice.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.ch = ch
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, suspension notices are not published")
	}

	a.audit = auditservice.NewWriter(db, logger, auditTimeout)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(mongo, mongo, profiles, jwtMaker, cfg.ProfileTTL, logger)
	if err = authService.Bootstrap(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	maintenance := maintenanceservice.NewService(mongo, a.audit, publisher, logger)
	services := Services{
		Auth:        authService,
		Platform:    platformservice.NewService(mongo, mongo, db, a.audit, authService, logger),
		Maintenance: maintenance,
		Alerts:      alertservice.NewService(mongo, mongo, maintenance, logger),
		Risk:        riskservice.NewMonitor(mongo, db, logger),
		Console:     consoleservice.NewService(mongo, a.audit, logger),
		Audit:       a.audit,
		Hotels:      mongo,
		Health:      a.pingers(),
	}

	reg := metrics.InitRegistry()
	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, services, reg)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	ok = true
	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и
// дожидается записи журнала аудита.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) pingers() map[string]health.Pinger {
	res := map[string]health.Pinger{"mongo": a.mongo, "postgres": a.db}
	if a.cache != nil {
		res["redis"] = a.cache
	}
	return res
}

func (a *App) close() {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close postgres", sl.Err(err))
		}
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Close(ctx); err != nil {
			a.logger.Error("failed to close mongo", sl.Err(err))
		}
	}
}
