// Package scheduler собирает приложение фонового обслуживания подписок отелей.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hotel-console/internal/config"
	"github.com/magabrotheeeer/hotel-console/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	alertservice "github.com/magabrotheeeer/hotel-console/internal/services/alerts"
	auditservice "github.com/magabrotheeeer/hotel-console/internal/services/audit"
	maintenanceservice "github.com/magabrotheeeer/hotel-console/internal/services/maintenance"
	schedulerservice "github.com/magabrotheeeer/hotel-console/internal/services/scheduler"
	"github.com/magabrotheeeer/hotel-console/internal/storage/mongodb"
	"github.com/magabrotheeeer/hotel-console/internal/storage/repository"
	"github.com/magabrotheeeer/hotel-console/internal/storage/tenancy"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	mongo            *mongodb.Storage
	db               *repository.Storage
	audit            *auditservice.Writer
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.conn = conn

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	a.ch = ch

	// Схему журнала применяет консоль, планировщик её дожидается.
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	a.db = db
	if err := waitForDB(db); err != nil {
		a.close()
		return nil, err
	}

	mongo, err := mongodb.New(ctx, cfg.MongoConnection.URI, cfg.Database, cfg.TimeoutMongo, tenancy.NewGuard(logger, cfg.StrictFilters))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	a.mongo = mongo

	a.audit = auditservice.NewWriter(db, logger, 5*time.Second)
	publisher := rabbitmq.NewPublisher(ch)
	maintenance := maintenanceservice.NewService(mongo, a.audit, publisher, logger)
	alerts := alertservice.NewService(mongo, mongo, maintenance, logger)

	a.schedulerService = schedulerservice.NewSchedulerService(
		maintenance,
		alerts,
		publisher,
		cfg.MaintenanceInterval,
		cfg.AlertWindowDays,
		logger,
	)
	return a, nil
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

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Start(ctx)

	a.logger.Info("shutting down scheduler service")
	a.close()
	return nil
}
