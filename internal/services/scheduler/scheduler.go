package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/hotel-console/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// Maintainer приостанавливает отели с истекшей подпиской.
type Maintainer interface {
	Run(ctx context.Context, actor models.Actor, scope models.Scope) (models.MaintenanceResult, error)
}

// AlertSource строит отчёт об истекающих подписках.
type AlertSource interface {
	Get(ctx context.Context, actor models.Actor, windowDays int, scope models.Scope, runMaintenance bool) (*models.AlertReport, error)
}

// Publisher публикует сообщение в обменник уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService периодически приостанавливает истекшие отели и
// публикует предупреждения об истекающих подписках.
//
// Предупреждение отправляется один раз на отель, дату окончания периода
// и число оставшихся дней. Продление меняет дату окончания, поэтому
// новый период получает свои предупреждения. Записи о периодах, которые
// уже закончились, удаляются.
type SchedulerService struct {
	maintainer Maintainer
	alerts     AlertSource
	publisher  Publisher
	interval   time.Duration
	windowDays int
	log        *slog.Logger

	now  func() time.Time
	mu   sync.Mutex
	sent map[string]time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(maintainer Maintainer, alerts AlertSource, publisher Publisher, interval time.Duration, windowDays int, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		maintainer: maintainer,
		alerts:     alerts,
		publisher:  publisher,
		interval:   interval,
		windowDays: windowDays,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		sent:       make(map[string]time.Time),
	}
}

// Start выполняет обслуживание сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Start(ctx context.Context) {
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		}
	}
}

// Tick один проход: приостановка истекших отелей и рассылка предупреждений.
// Ошибки логируются, следующий проход выполняется по расписанию.
func (s *SchedulerService) Tick(ctx context.Context) {
	s.log.Info("starting subscription maintenance")
	res, err := s.maintainer.Run(ctx, models.SystemActor, models.Scope{})
	if err != nil {
		s.log.Error("failed to run maintenance", sl.Err(err))
	} else {
		s.log.Info("maintenance finished", slog.Int("suspended", res.UpdatedCount))
	}

	published, err := s.publishExpiring(ctx)
	if err != nil {
		s.log.Error("failed to publish expiring notices", sl.Err(err))
		return
	}
	if published == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("published expiring notices", slog.Int("count", published))
}

func (s *SchedulerService) publishExpiring(ctx context.Context) (int, error) {
	const op = "scheduler.publishExpiring"
	report, err := s.alerts.Get(ctx, models.SystemActor, s.windowDays, models.Scope{}, false)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.prune(s.now())

	published := 0
	for _, a := range report.Alerts {
		if a.Severity == models.SeverityExpired {
			continue
		}
		key := noticeKey(a)
		if s.alreadySent(key) {
			continue
		}
		notice := models.ExpiryNotice{
			Kind:          models.NoticeExpiring,
			HotelID:       a.HotelID.Hex(),
			HotelName:     a.HotelName,
			Email:         a.Email,
			EndDate:       a.EndDate,
			DaysRemaining: a.DaysRemaining,
			Severity:      a.Severity,
		}
		if a.Owner != models.UnknownOwner {
			notice.OwnerEmail = a.Owner.Email
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingExpiring, notice); err != nil {
			s.log.Error("failed to publish message", sl.Hotel(a.HotelID), sl.Err(err))
			continue
		}
		s.markSent(key, a.EndDate)
		published++
	}
	return published, nil
}

func (s *SchedulerService) alreadySent(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sent[key]
	return ok
}

func (s *SchedulerService) markSent(key string, endDate time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[key] = endDate
}

// prune забывает предупреждения по периодам, закончившимся до now.
func (s *SchedulerService) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, endDate := range s.sent {
		if endDate.Before(now) {
			delete(s.sent, key)
		}
	}
}

func noticeKey(a models.Alert) string {
	return fmt.Sprintf("%s:%s:%d", a.HotelID.Hex(), a.EndDate.UTC().Format(time.RFC3339), a.DaysRemaining)
}
