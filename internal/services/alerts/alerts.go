// Package services строит отчёт о подписках отелей, близких к окончанию.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/period"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

const (
	DefaultWindowDays = 7
	MaxWindowDays     = 30

	ownerLookupLimit = 8
)

// HotelRepository источник отелей с датой окончания подписки.
type HotelRepository interface {
	ListHotelsWithEndDate(ctx context.Context, scope models.Scope) ([]models.Hotel, error)
}

// OwnerRepository поиск владельца отеля.
type OwnerRepository interface {
	EarliestAdmin(ctx context.Context, hotelID primitive.ObjectID) (*models.User, error)
}

// Maintainer задача приостановки истекших отелей.
type Maintainer interface {
	Run(ctx context.Context, actor models.Actor, scope models.Scope) (models.MaintenanceResult, error)
}

// Service отчёт о подписках. Только чтение, кроме необязательного прогона Maintainer.
type Service struct {
	hotels     HotelRepository
	owners     OwnerRepository
	maintainer Maintainer
	log        *slog.Logger
	now        func() time.Time
}

// NewService создает Service.
func NewService(hotels HotelRepository, owners OwnerRepository, maintainer Maintainer, log *slog.Logger) *Service {
	return &Service{
		hotels:     hotels,
		owners:     owners,
		maintainer: maintainer,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Classify важность по числу оставшихся дней.
func Classify(daysRemaining int) models.Severity {
	switch {
	case daysRemaining < 0:
		return models.SeverityExpired
	case daysRemaining <= 1:
		return models.SeverityCritical
	case daysRemaining <= 3:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// ValidateWindow проверяет окно в днях.
func ValidateWindow(days int) error {
	if days < 1 || days > MaxWindowDays {
		return apperr.Validation(fmt.Sprintf("days must be within 1..%d", MaxWindowDays))
	}
	return nil
}

// Get возвращает предупреждения об отелях, у которых до окончания подписки
// не больше windowDays дней, включая уже истекшие.
func (s *Service) Get(ctx context.Context, actor models.Actor, windowDays int, scope models.Scope, runMaintenance bool) (*models.AlertReport, error) {
	const op = "alerts.Get"
	if err := ValidateWindow(windowDays); err != nil {
		return nil, err
	}

	report := &models.AlertReport{WindowDays: windowDays, Alerts: []models.Alert{}}
	if runMaintenance && s.maintainer != nil {
		res, err := s.maintainer.Run(ctx, actor, scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		report.Maintenance = &res
	}

	hotels, err := s.hotels.ListHotelsWithEndDate(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	for _, h := range hotels {
		if h.Subscription.EndDate == nil {
			continue
		}
		days := period.DaysRemaining(*h.Subscription.EndDate, now)
		if days > windowDays {
			continue
		}
		report.Alerts = append(report.Alerts, models.Alert{
			HotelID:       h.ID,
			HotelName:     h.Name,
			Slug:          h.Slug,
			Email:         h.Email,
			EndDate:       *h.Subscription.EndDate,
			DaysRemaining: days,
			Severity:      Classify(days),
			Status:        h.Subscription.Status,
			IsActive:      h.IsActive,
		})
	}

	sort.SliceStable(report.Alerts, func(i, j int) bool {
		a, b := report.Alerts[i], report.Alerts[j]
		if a.DaysRemaining != b.DaysRemaining {
			return a.DaysRemaining < b.DaysRemaining
		}
		return a.HotelName < b.HotelName
	})

	if err := s.attachOwners(ctx, report.Alerts); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	report.Summary = summarize(report.Alerts)
	return report, nil
}

func (s *Service) attachOwners(ctx context.Context, alerts []models.Alert) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ownerLookupLimit)
	for i := range alerts {
		g.Go(func() error {
			owner, err := s.owners.EarliestAdmin(ctx, alerts[i].HotelID)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				alerts[i].Owner = models.UnknownOwner
				return nil
			case err != nil:
				return err
			}
			alerts[i].Owner = models.OwnerContact{ID: owner.ID.Hex(), Name: owner.Name, Email: owner.Email}
			return nil
		})
	}
	return g.Wait()
}

func summarize(alerts []models.Alert) models.AlertSummary {
	sum := models.AlertSummary{Total: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case models.SeverityExpired:
			sum.Expired++
		case models.SeverityCritical:
			sum.Critical++
		case models.SeverityWarning:
			sum.Warning++
		default:
			sum.Info++
		}
	}
	return sum
}
