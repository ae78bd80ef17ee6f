// Package services отвечает за вход операторов, проверку токенов и загрузку профиля.
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
	"github.com/magabrotheeeer/hotel-console/internal/cache"
	"github.com/magabrotheeeer/hotel-console/internal/lib/jwt"
	"github.com/magabrotheeeer/hotel-console/internal/lib/password"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// UserRepository описывает контракт для работы с операторами в базе данных.
type UserRepository interface {
	// FindUserByEmail ищет оператора внутри отеля или среди платформенных, если hotelID == nil.
	FindUserByEmail(ctx context.Context, email string, hotelID *primitive.ObjectID) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// HotelLookup поиск отеля по slug при входе сотрудника.
type HotelLookup interface {
	GetHotelBySlug(ctx context.Context, slug string) (*models.Hotel, error)
}

// ProfileCache кэш профилей операторов.
type ProfileCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// AuthService отвечает за вход и валидацию JWT.
type AuthService struct {
	users      UserRepository
	hotels     HotelLookup
	cache      ProfileCache
	jwtMaker   jwt.Maker
	profileTTL time.Duration
	log        *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService. profiles может быть nil.
func NewAuthService(users UserRepository, hotels HotelLookup, profiles ProfileCache, jwtMaker jwt.Maker, profileTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		hotels:     hotels,
		cache:      profiles,
		jwtMaker:   jwtMaker,
		profileTTL: profileTTL,
		log:        log,
	}
}

var errBadCredentials = apperr.ErrInvalidCredential.WithMessage("invalid credentials")

// Login проверяет пароль оператора и выдаёт токен доступа.
// Со slug ищется сотрудник отеля, без него платформенный оператор.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.OperatorProfile, error) {
	const op = "auth.Login"

	var hotelID *primitive.ObjectID
	if req.HotelSlug != "" {
		h, err := s.hotels.GetHotelBySlug(ctx, strings.ToLower(req.HotelSlug))
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, errBadCredentials
		}
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		hotelID = &h.ID
	}

	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(req.Email), hotelID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, errBadCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", nil, errBadCredentials
	}
	if !user.IsActive {
		return "", nil, apperr.ErrInactiveAccount
	}

	token, err := s.jwtMaker.GenerateToken(user.ID.Hex())
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.TouchLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.log.Warn("failed to record login time", slog.String("operator_id", user.ID.Hex()), sl.Err(err))
	}
	return token, models.ProfileOf(user), nil
}

// Authenticate проверяет токен и возвращает актуальный профиль оператора.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.OperatorProfile, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, apperr.ErrInvalidCredential.Wrap(err)
	}
	id, err := primitive.ObjectIDFromHex(claims.OperatorID())
	if err != nil {
		return nil, apperr.ErrInvalidCredential.Wrap(err)
	}
	return s.LoadOperator(ctx, id)
}

// LoadOperator возвращает профиль оператора, сначала из кэша.
func (s *AuthService) LoadOperator(ctx context.Context, id primitive.ObjectID) (*models.OperatorProfile, error) {
	const op = "auth.LoadOperator"
	key := cache.OperatorKey(id.Hex())

	if s.cache != nil {
		var cached models.OperatorProfile
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("operator cache read failed", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidCredential.WithMessage("operator no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile := models.ProfileOf(user)

	if s.cache != nil && s.profileTTL > 0 {
		if err := s.cache.Set(ctx, key, profile, s.profileTTL); err != nil {
			s.log.Warn("operator cache write failed", slog.String("key", key), sl.Err(err))
		}
	}
	return profile, nil
}

// Invalidate сбрасывает профиль из кэша после изменения оператора.
func (s *AuthService) Invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.OperatorKey(id.Hex())); err != nil {
		s.log.Warn("operator cache invalidation failed", slog.String("operator_id", id.Hex()), sl.Err(err))
	}
}

// Bootstrap создаёт главного супер-админа, если его ещё нет.
func (s *AuthService) Bootstrap(ctx context.Context, email, rawPassword string) error {
	const op = "auth.Bootstrap"
	if email == "" || rawPassword == "" {
		s.log.Info("super admin bootstrap skipped: credentials not configured")
		return nil
	}

	n, err := s.users.CountByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now().UTC()
	user := &models.User{
		Name:         "Super Admin",
		Email:        strings.ToLower(email),
		Role:         models.RoleSuperAdmin,
		Permissions:  []models.Permission{},
		IsActive:     true,
		Verification: models.Verification{IsVerified: true, VerifiedAt: &now},
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("super admin created", slog.String("email", user.Email))
	return nil
}
