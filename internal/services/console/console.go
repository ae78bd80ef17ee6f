// Package services реализует консоль отеля: номера, гостей, бронирования,
// сотрудников, настройки и сводку. Все операции выполняются в отеле из контекста запроса.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	"github.com/magabrotheeeer/hotel-console/internal/tenantctx"
)

// RoomRepository номера отеля.
type RoomRepository interface {
	CreateRoom(ctx context.Context, r *models.Room) error
	ListRooms(ctx context.Context, status models.RoomStatus) ([]models.Room, error)
	GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	UpdateRoom(ctx context.Context, id primitive.ObjectID, r *models.Room) (*models.Room, error)
	DeleteRoom(ctx context.Context, id primitive.ObjectID) error
}

// GuestRepository гости отеля.
type GuestRepository interface {
	CreateGuest(ctx context.Context, g *models.Guest) error
	ListGuests(ctx context.Context, search string) ([]models.Guest, error)
	GetGuest(ctx context.Context, id primitive.ObjectID) (*models.Guest, error)
	UpdateGuest(ctx context.Context, id primitive.ObjectID, g *models.Guest) (*models.Guest, error)
	DeleteGuest(ctx context.Context, id primitive.ObjectID) error
}

// BookingRepository бронирования и сводка.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	ListBookings(ctx context.Context, status models.BookingStatus) ([]models.Booking, error)
	GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	CancelBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	Dashboard(ctx context.Context, dayStart time.Time) (*models.Dashboard, error)
}

// StaffRepository сотрудники отеля.
type StaffRepository interface {
	FindUserByEmail(ctx context.Context, email string, hotelID *primitive.ObjectID) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	ListStaff(ctx context.Context) ([]models.User, error)
}

// SettingsRepository настройки отеля.
type SettingsRepository interface {
	GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error)
	UpdateSettings(ctx context.Context, id primitive.ObjectID, settings models.Settings) (*models.Hotel, error)
}

// AuditRecorder журнал аудита.
type AuditRecorder interface {
	Write(ctx context.Context, entry models.AuditLog)
}

// Repository всё хранилище консоли.
type Repository interface {
	RoomRepository
	GuestRepository
	BookingRepository
	StaffRepository
	SettingsRepository
}

// Service операции консоли отеля.
type Service struct {
	repo  Repository
	audit AuditRecorder
	log   *slog.Logger
	now   func() time.Time
}

// NewService создает Service.
func NewService(repo Repository, audit AuditRecorder, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		audit: audit,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func hotelFrom(ctx context.Context) (primitive.ObjectID, error) {
	id, ok := tenantctx.FromContext(ctx)
	if !ok {
		return primitive.NilObjectID, apperr.ErrMissingTenant
	}
	return id, nil
}

func (s *Service) record(ctx context.Context, actor models.Actor, action, entityType string, entityID primitive.ObjectID) {
	entry := actor.Entry(action, entityType)
	entry.EntityID = entityID.Hex()
	if hotelID, ok := tenantctx.FromContext(ctx); ok {
		entry.TargetHotelID = hotelID.Hex()
	}
	s.audit.Write(ctx, entry)
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
