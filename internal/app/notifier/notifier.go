// Package notifier собирает приложение, которое читает уведомления об
// истечении подписок и доставляет их владельцам отелей.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hotel-console/internal/config"
	"github.com/magabrotheeeer/hotel-console/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/hotel-console/internal/services/notifier"
	"github.com/magabrotheeeer/hotel-console/internal/storage/mongodb"
	"github.com/magabrotheeeer/hotel-console/internal/storage/tenancy"
)

type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	mongo           *mongodb.Storage
	notifierService *notifierservice.NotifierService
	logger          *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	mongo, err := mongodb.New(ctx, cfg.MongoConnection.URI, cfg.Database, cfg.TimeoutMongo, tenancy.NewGuard(logger, cfg.StrictFilters))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = mongo.Close(context.Background())
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = mongo.Close(context.Background())
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	mailer := smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger), logger)
	notifierService := notifierservice.NewNotifierService(mongo, mongo, mailer, logger)

	return &App{
		conn:            conn,
		ch:              ch,
		mongo:           mongo,
		notifierService: notifierService,
		logger:          logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	for _, queue := range []string{rabbitmq.QueueExpiring, rabbitmq.QueueSuspended} {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.logger, a.notifierService.HandleNotice); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			a.close()
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", queue))
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.mongo.Close(ctx); err != nil {
		a.logger.Error("failed to close mongo", sl.Err(err))
	}
}
