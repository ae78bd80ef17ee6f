// Package services приостанавливает отели с истекшей подпиской.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// HotelRepository операции над отелями, нужные задаче.
type HotelRepository interface {
	FindExpiredHotelIDs(ctx context.Context, scope models.Scope, now time.Time) ([]primitive.ObjectID, error)
	SuspendHotels(ctx context.Context, ids []primitive.ObjectID, now time.Time) ([]primitive.ObjectID, error)
	GetHotelsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Hotel, error)
}

// AuditRecorder журнал аудита.
type AuditRecorder interface {
	Write(ctx context.Context, entry models.AuditLog)
}

// Publisher очередь уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service задача обслуживания подписок.
//
// Выборка и обновление используют один и тот же предикат, поэтому
// повторный или параллельный запуск не затрагивает уже приостановленные отели.
// Результат, запись аудита и уведомления строятся только по отелям,
// которые перевёл этот запуск.
type Service struct {
	hotels    HotelRepository
	audit     AuditRecorder
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewService создает Service. publisher может быть nil, тогда уведомления не отправляются.
func NewService(hotels HotelRepository, audit AuditRecorder, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		hotels:    hotels,
		audit:     audit,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run приостанавливает отели из scope, у которых endDate в прошлом.
func (s *Service) Run(ctx context.Context, actor models.Actor, scope models.Scope) (models.MaintenanceResult, error) {
	const op = "maintenance.Run"
	res := models.MaintenanceResult{AffectedIDs: []primitive.ObjectID{}}
	now := s.now()

	ids, err := s.hotels.FindExpiredHotelIDs(ctx, scope, now)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		metrics.ObserveMaintenance(0)
		return res, nil
	}

	suspended, suspendErr := s.hotels.SuspendHotels(ctx, ids, now)
	res.UpdatedCount = len(suspended)
	res.AffectedIDs = append(res.AffectedIDs, suspended...)
	metrics.ObserveMaintenance(res.UpdatedCount)

	if res.UpdatedCount > 0 {
		hexIDs := make([]string, 0, len(suspended))
		for _, id := range suspended {
			hexIDs = append(hexIDs, id.Hex())
		}
		entry := actor.Entry(models.ActionMaintenanceRun, "hotel")
		entry.Metadata["updatedCount"] = res.UpdatedCount
		entry.Metadata["affectedIds"] = hexIDs
		s.audit.Write(ctx, entry)

		s.log.Info("suspended expired hotels",
			slog.Int("count", res.UpdatedCount),
			slog.String("actor_id", actor.ID),
		)
		s.notify(ctx, suspended)
	}
	if suspendErr != nil {
		return res, fmt.Errorf("%s: %w", op, suspendErr)
	}
	return res, nil
}

func (s *Service) notify(ctx context.Context, ids []primitive.ObjectID) {
	if s.publisher == nil {
		return
	}
	hotels, err := s.hotels.GetHotelsByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("failed to load suspended hotels", slog.Int("count", len(ids)), sl.Err(err))
		return
	}
	for _, h := range hotels {
		notice := models.ExpiryNotice{
			Kind:      models.NoticeSuspended,
			HotelID:   h.ID.Hex(),
			HotelName: h.Name,
			Email:     h.Email,
			Severity:  models.SeverityExpired,
		}
		if h.Subscription.EndDate != nil {
			notice.EndDate = *h.Subscription.EndDate
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingSuspended, notice); err != nil {
			s.log.Error("failed to publish suspension notice", sl.Hotel(h.ID), sl.Err(err))
		}
	}
}
