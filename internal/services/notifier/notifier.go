package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// Каналы записи в журнале уведомлений отеля.
const (
	ChannelEmail = "email"
	ChannelLog   = "log"
)

// HotelRepository отели и их журнал уведомлений.
type HotelRepository interface {
	GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error)
	PushNotification(ctx context.Context, id primitive.ObjectID, entry models.NotificationEntry) error
}

// OwnerRepository администратор отеля.
type OwnerRepository interface {
	EarliestAdmin(ctx context.Context, hotelID primitive.ObjectID) (*models.User, error)
}

// Mailer отправляет письма.
type Mailer interface {
	Send(to []string, subject, body string) error
}

type NotifierService struct {
	hotels HotelRepository
	owners OwnerRepository
	mailer Mailer
	log    *slog.Logger
	now    func() time.Time
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(hotels HotelRepository, owners OwnerRepository, mailer Mailer, log *slog.Logger) *NotifierService {
	return &NotifierService{
		hotels: hotels,
		owners: owners,
		mailer: mailer,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HandleNotice обрабатывает сообщение из очереди уведомлений о подписке.
// Ошибка возвращается только если письмо не удалось отправить, чтобы
// сообщение вернулось в очередь.
func (s *NotifierService) HandleNotice(ctx context.Context, body []byte) error {
	const op = "notifier.HandleNotice"
	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: unmarshal: %w", op, err)
	}
	hotelID, err := primitive.ObjectIDFromHex(notice.HotelID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidTenantID)
	}

	hotel, err := s.hotels.GetHotel(ctx, hotelID, models.Scope{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	subject, text := compose(notice)
	entry := models.NotificationEntry{
		Kind:      notice.Kind,
		Message:   subject,
		Channel:   ChannelLog,
		CreatedAt: s.now(),
	}

	if notifyByEmail(hotel.Settings.Notifications) {
		to := s.recipient(ctx, notice, hotel)
		if to != "" {
			if err := s.mailer.Send([]string{to}, subject, text); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			entry.Channel = ChannelEmail
		}
	}

	if err := s.hotels.PushNotification(ctx, hotelID, entry); err != nil {
		s.log.Warn("failed to store notification", sl.Hotel(hotelID), sl.Err(err))
	}
	s.log.Info("notice handled",
		sl.Hotel(hotelID),
		slog.String("kind", notice.Kind),
		slog.String("channel", entry.Channel),
	)
	return nil
}

func notifyByEmail(n models.NotificationSettings) bool {
	return n.Email && n.SubscriptionUp
}

// recipient адрес владельца из сообщения, затем первый администратор, затем почта отеля.
func (s *NotifierService) recipient(ctx context.Context, notice models.ExpiryNotice, hotel *models.Hotel) string {
	if notice.OwnerEmail != "" && notice.OwnerEmail != models.UnknownOwner.Email {
		return notice.OwnerEmail
	}
	admin, err := s.owners.EarliestAdmin(ctx, hotel.ID)
	switch {
	case err == nil && admin.Email != "":
		return admin.Email
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		s.log.Warn("failed to load hotel admin", sl.Hotel(hotel.ID), sl.Err(err))
	}
	if hotel.Email != "" {
		return hotel.Email
	}
	return notice.Email
}

func compose(n models.ExpiryNotice) (string, string) {
	end := n.EndDate.Format("02.01.2006")
	if n.Kind == models.NoticeSuspended {
		return fmt.Sprintf("Подписка отеля %s приостановлена", n.HotelName),
			fmt.Sprintf("Здравствуйте!\n\nПодписка отеля %s закончилась %s, доступ к консоли приостановлен.\n\nЧтобы восстановить доступ, продлите подписку.", n.HotelName, end)
	}
	return fmt.Sprintf("Подписка отеля %s заканчивается через %d дн.", n.HotelName, n.DaysRemaining),
		fmt.Sprintf("Здравствуйте!\n\nПодписка отеля %s действует до %s.\n\nПожалуйста, продлите её заранее, чтобы консоль продолжила работать.", n.HotelName, end)
}
