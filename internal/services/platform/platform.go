// Package services реализует платформенный уровень: отели, подписки,
// саб-админов и просмотр журнала аудита.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/password"
	"github.com/magabrotheeeer/hotel-console/internal/lib/period"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// HotelRepository хранилище отелей.
type HotelRepository interface {
	HotelExists(ctx context.Context, email, slug string) (bool, error)
	CreateHotel(ctx context.Context, h *models.Hotel) error
	DeleteHotel(ctx context.Context, id primitive.ObjectID) error
	GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error)
	ListHotels(ctx context.Context, scope models.Scope) ([]models.Hotel, error)
	HotelIDs(ctx context.Context, scope models.Scope) ([]primitive.ObjectID, error)
	UpdateHotelStatus(ctx context.Context, id primitive.ObjectID, scope models.Scope, status models.SubscriptionStatus, isActive bool) (*models.Hotel, error)
	RenewHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope, end, paidAt time.Time) (*models.Hotel, error)
}

// UserRepository хранилище операторов.
type UserRepository interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListPlatformOperators(ctx context.Context, roles ...models.Role) ([]models.User, error)
	SetVerified(ctx context.Context, id, by primitive.ObjectID, at time.Time) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
}

// AuditLogRepository чтение журнала аудита.
type AuditLogRepository interface {
	ListAuditLogs(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error)
}

// AuditRecorder запись журнала аудита.
type AuditRecorder interface {
	Write(ctx context.Context, entry models.AuditLog)
}

// ProfileInvalidator сброс кэшированного профиля оператора.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, id primitive.ObjectID)
}

// Service платформенные операции.
type Service struct {
	hotels   HotelRepository
	users    UserRepository
	logs     AuditLogRepository
	audit    AuditRecorder
	profiles ProfileInvalidator
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает Service.
func NewService(hotels HotelRepository, users UserRepository, logs AuditLogRepository, audit AuditRecorder, profiles ProfileInvalidator, log *slog.Logger) *Service {
	return &Service{
		hotels:   hotels,
		users:    users,
		logs:     logs,
		audit:    audit,
		profiles: profiles,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func actorObjectID(actor models.Actor) (*primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(actor.ID)
	if err != nil {
		return nil, apperr.ErrInvalidCredential.Wrap(err)
	}
	return &id, nil
}

// CreateHotel создаёт отель вместе с его администратором. Либо создаются оба, либо ни один.
func (s *Service) CreateHotel(ctx context.Context, actor models.Actor, req models.CreateHotelRequest) (*models.Hotel, *models.User, error) {
	const op = "platform.CreateHotel"
	creator, err := actorObjectID(actor)
	if err != nil {
		return nil, nil, err
	}

	email := strings.ToLower(req.Email)
	adminEmail := strings.ToLower(req.AdminEmail)
	slug := strings.ToLower(req.Slug)

	if exists, err := s.hotels.HotelExists(ctx, email, slug); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	} else if exists {
		return nil, nil, apperr.Conflict("hotel with this email or slug already exists")
	}
	if adminEmail != email {
		if exists, err := s.hotels.HotelExists(ctx, adminEmail, slug); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		} else if exists {
			return nil, nil, apperr.Conflict("admin email is already used by a hotel")
		}
	}
	for _, e := range []string{email, adminEmail} {
		taken, err := s.users.EmailTaken(ctx, e)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		if taken {
			return nil, nil, apperr.Conflict("email is already used by an operator")
		}
	}

	hash, err := password.GetHash(req.AdminPassword)
	if err != nil {
		return nil, nil, apperr.Validation("admin password is too short")
	}

	now := s.now()
	end := period.AddDays(now, period.RenewalWindowDays)
	plan := req.Plan
	if plan == "" {
		plan = "standard"
	}
	hotel := &models.Hotel{
		ID:      primitive.NewObjectID(),
		Name:    req.Name,
		Slug:    slug,
		Email:   email,
		Phone:   req.Phone,
		Address: req.Address,
		Subscription: models.Subscription{
			Plan:      plan,
			Status:    models.SubscriptionActive,
			StartDate: now,
			EndDate:   &end,
		},
		Settings:  models.DefaultSettings(),
		IsActive:  true,
		CreatedBy: *creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	hotelID := hotel.ID
	admin := &models.User{
		ID:           primitive.NewObjectID(),
		HotelID:      &hotelID,
		Name:         req.AdminName,
		Email:        adminEmail,
		Role:         models.RoleAdmin,
		Permissions:  []models.Permission{},
		IsActive:     true,
		Verification: models.Verification{IsVerified: true, VerifiedBy: creator, VerifiedAt: &now},
		PasswordHash: hash,
		CreatedBy:    creator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.hotels.CreateHotel(ctx, hotel); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		if delErr := s.hotels.DeleteHotel(context.WithoutCancel(ctx), hotel.ID); delErr != nil {
			s.log.Error("failed to roll back hotel creation", sl.Hotel(hotel.ID), sl.Err(delErr))
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := actor.Entry(models.ActionHotelCreate, "hotel")
	entry.EntityID = hotel.ID.Hex()
	entry.TargetHotelID = hotel.ID.Hex()
	entry.TargetUserID = admin.ID.Hex()
	entry.Metadata["slug"] = hotel.Slug
	s.audit.Write(ctx, entry)

	s.log.Info("hotel created", sl.Hotel(hotel.ID), slog.String("slug", hotel.Slug))
	return hotel, admin, nil
}

// ListHotels отели в области видимости оператора.
func (s *Service) ListHotels(ctx context.Context, scope models.Scope) ([]models.Hotel, error) {
	const op = "platform.ListHotels"
	res, err := s.hotels.ListHotels(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetHotel отель в области видимости оператора.
func (s *Service) GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error) {
	const op = "platform.GetHotel"
	h, err := s.hotels.GetHotel(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// UpdateStatus меняет статус подписки. Отель активен только при статусе active
// и неистекшей подписке.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, scope models.Scope, status models.SubscriptionStatus) (*models.Hotel, error) {
	const op = "platform.UpdateStatus"
	if !status.Valid() {
		return nil, apperr.Validation("unknown subscription status")
	}
	current, err := s.hotels.GetHotel(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active := status.AllowsAccess() && !period.IsExpiredAt(current.Subscription.EndDate, s.now())

	h, err := s.hotels.UpdateHotelStatus(ctx, id, scope, status, active)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := actor.Entry(models.ActionHotelStatus, "hotel")
	entry.EntityID = id.Hex()
	entry.TargetHotelID = id.Hex()
	entry.Metadata["from"] = string(current.Subscription.Status)
	entry.Metadata["to"] = string(status)
	entry.Metadata["isActive"] = active
	s.audit.Write(ctx, entry)
	return h, nil
}

// Renew продлевает подписку на days дней (0 означает окно по умолчанию) от
// более поздней из дат: сейчас или текущее окончание.
func (s *Service) Renew(ctx context.Context, actor models.Actor, id primitive.ObjectID, scope models.Scope, days int) (*models.Hotel, error) {
	const op = "platform.Renew"
	if days < 0 {
		return nil, apperr.Validation("days must be positive")
	}
	if days == 0 {
		days = period.RenewalWindowDays
	}
	current, err := s.hotels.GetHotel(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current.Subscription.Status == models.SubscriptionCancelled {
		return nil, apperr.Conflict("cancelled subscription cannot be renewed")
	}

	now := s.now()
	base := now
	if end := current.Subscription.EndDate; end != nil && end.After(now) {
		base = *end
	}
	newEnd := period.AddDays(base, days)

	h, err := s.hotels.RenewHotel(ctx, id, scope, newEnd, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := actor.Entry(models.ActionHotelRenew, "hotel")
	entry.EntityID = id.Hex()
	entry.TargetHotelID = id.Hex()
	entry.Metadata["days"] = days
	entry.Metadata["endDate"] = newEnd.Format(time.RFC3339)
	s.audit.Write(ctx, entry)
	return h, nil
}

// AuditLogs журнал аудита. Саб-админ видит свои действия и записи о своих отелях.
func (s *Service) AuditLogs(ctx context.Context, actor models.Actor, scope models.Scope, f models.AuditFilter) ([]models.AuditLog, error) {
	const op = "platform.AuditLogs"
	f.HotelIDs = nil
	f.ActorScope = ""
	if !scope.All() {
		ids, err := s.hotels.HotelIDs(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		f.HotelIDs = make([]string, 0, len(ids))
		for _, id := range ids {
			f.HotelIDs = append(f.HotelIDs, id.Hex())
		}
		f.ActorScope = scope.CreatedBy.Hex()
	}

	res, err := s.logs.ListAuditLogs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := actor.Entry(models.ActionAuditLogsViewed, "audit_log")
	entry.Metadata["count"] = len(res)
	s.audit.Write(ctx, entry)
	return res, nil
}

// CreateOperator создаёт саб-админа платформы. Новый саб-админ не проверен.
func (s *Service) CreateOperator(ctx context.Context, actor models.Actor, req models.CreateOperatorRequest) (*models.User, error) {
	const op = "platform.CreateOperator"
	creator, err := actorObjectID(actor)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(req.Email)
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return nil, apperr.Conflict("email is already used by an operator")
	}
	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, apperr.Validation("password is too short")
	}

	now := s.now()
	u := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Email:        email,
		Role:         models.RoleSubSuperAdmin,
		Permissions:  []models.Permission{},
		IsActive:     true,
		PasswordHash: hash,
		CreatedBy:    creator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := actor.Entry(models.ActionOperatorCreate, "user")
	entry.EntityID = u.ID.Hex()
	entry.TargetUserID = u.ID.Hex()
	s.audit.Write(ctx, entry)
	return u, nil
}

// ListOperators платформенные операторы.
func (s *Service) ListOperators(ctx context.Context) ([]models.User, error) {
	const op = "platform.ListOperators"
	res, err := s.users.ListPlatformOperators(ctx, models.RoleSuperAdmin, models.RoleSubSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) platformOperator(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.Role.IsPlatform() {
		return nil, apperr.NotFound("operator")
	}
	return u, nil
}

// VerifyOperator отмечает саб-админа проверенным.
func (s *Service) VerifyOperator(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	const op = "platform.VerifyOperator"
	by, err := actorObjectID(actor)
	if err != nil {
		return err
	}
	if _, err := s.platformOperator(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetVerified(ctx, id, *by, s.now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.profiles.Invalidate(ctx, id)

	entry := actor.Entry(models.ActionOperatorVerify, "user")
	entry.EntityID = id.Hex()
	entry.TargetUserID = id.Hex()
	s.audit.Write(ctx, entry)
	return nil
}

// ErrSelfDeactivation оператор пытается отключить сам себя.
var ErrSelfDeactivation = errors.New("operator cannot deactivate itself")

// SetOperatorActive включает или отключает платформенного оператора.
func (s *Service) SetOperatorActive(ctx context.Context, actor models.Actor, id primitive.ObjectID, active bool) error {
	const op = "platform.SetOperatorActive"
	if !active && actor.ID == id.Hex() {
		return apperr.ErrValidation.WithMessage("operator cannot deactivate itself").Wrap(ErrSelfDeactivation)
	}
	if _, err := s.platformOperator(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.profiles.Invalidate(ctx, id)

	entry := actor.Entry(models.ActionOperatorActive, "user")
	entry.EntityID = id.Hex()
	entry.TargetUserID = id.Hex()
	entry.Metadata["isActive"] = active
	s.audit.Write(ctx, entry)
	return nil
}
