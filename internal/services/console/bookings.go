package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/password"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// CreateBooking бронирует номер для гостя. Номер и гость должны принадлежать
// отелю из контекста, иначе NotFound.
func (s *Service) CreateBooking(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error) {
	const op = "console.CreateBooking"
	if _, err := hotelFrom(ctx); err != nil {
		return nil, err
	}
	roomID, err := primitive.ObjectIDFromHex(req.RoomID)
	if err != nil {
		return nil, apperr.Validation("invalid room_id")
	}
	guestID, err := primitive.ObjectIDFromHex(req.GuestID)
	if err != nil {
		return nil, apperr.Validation("invalid guest_id")
	}
	if !req.CheckOut.After(req.CheckIn) {
		return nil, apperr.Validation("check_out must be after check_in")
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, wrap(op, err)
	}
	if _, err := s.repo.GetGuest(ctx, guestID); err != nil {
		return nil, wrap(op, err)
	}
	createdBy, _ := primitive.ObjectIDFromHex(actor.ID)

	b := &models.Booking{
		RoomID:    room.ID,
		GuestID:   guestID,
		CheckIn:   req.CheckIn.UTC(),
		CheckOut:  req.CheckOut.UTC(),
		Status:    models.BookingConfirmed,
		CreatedBy: createdBy,
	}
	b.TotalAmount = math.Round(float64(b.Nights())*room.Price*100) / 100
	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionBookingCreate, "booking", b.ID)
	return b, nil
}

// ListBookings бронирования отеля.
func (s *Service) ListBookings(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	const op = "console.ListBookings"
	res, err := s.repo.ListBookings(ctx, status)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// GetBooking бронирование отеля.
func (s *Service) GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	const op = "console.GetBooking"
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return b, nil
}

// CancelBooking отменяет бронирование.
func (s *Service) CancelBooking(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Booking, error) {
	const op = "console.CancelBooking"
	b, err := s.repo.CancelBooking(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionBookingCancel, "booking", id)
	return b, nil
}

// Dashboard сводка отеля за текущие сутки UTC.
func (s *Service) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	const op = "console.Dashboard"
	hotelID, err := hotelFrom(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d, err := s.repo.Dashboard(ctx, dayStart)
	if err != nil {
		return nil, wrap(op, err)
	}
	d.HotelID = hotelID
	return d, nil
}

// GetSettings настройки отеля.
func (s *Service) GetSettings(ctx context.Context) (*models.Settings, error) {
	const op = "console.GetSettings"
	hotelID, err := hotelFrom(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.repo.GetHotel(ctx, hotelID, models.Scope{})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &h.Settings, nil
}

// UpdateSettings заменяет настройки отеля.
func (s *Service) UpdateSettings(ctx context.Context, actor models.Actor, settings models.Settings) (*models.Settings, error) {
	const op = "console.UpdateSettings"
	hotelID, err := hotelFrom(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.repo.UpdateSettings(ctx, hotelID, settings)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionSettingsUpdate, "hotel", hotelID)
	return &h.Settings, nil
}

// ListStaff сотрудники отеля.
func (s *Service) ListStaff(ctx context.Context) ([]models.User, error) {
	const op = "console.ListStaff"
	res, err := s.repo.ListStaff(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// CreateStaff добавляет сотрудника. Email уникален внутри отеля.
func (s *Service) CreateStaff(ctx context.Context, actor models.Actor, req models.CreateStaffRequest) (*models.User, error) {
	const op = "console.CreateStaff"
	hotelID, err := hotelFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Role.Valid() || req.Role.IsPlatform() {
		return nil, apperr.Validation("role is not allowed for hotel staff")
	}
	for _, p := range req.Permissions {
		if !slices.Contains(models.AllPermissions, p) {
			return nil, apperr.Validation("unknown permission " + string(p))
		}
	}

	email := strings.ToLower(req.Email)
	_, err = s.repo.FindUserByEmail(ctx, email, &hotelID)
	switch {
	case err == nil:
		return nil, apperr.Conflict("email is already used in this hotel")
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, wrap(op, err)
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, apperr.Validation("password is too short")
	}
	createdBy, _ := primitive.ObjectIDFromHex(actor.ID)
	now := s.now()
	perms := req.Permissions
	if perms == nil {
		perms = []models.Permission{}
	}
	u := &models.User{
		ID:           primitive.NewObjectID(),
		HotelID:      &hotelID,
		Name:         req.Name,
		Email:        email,
		Role:         req.Role,
		Permissions:  perms,
		IsActive:     true,
		PasswordHash: hash,
		CreatedBy:    &createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, wrap(op, err)
	}
	entry := actor.Entry(models.ActionStaffCreate, "user")
	entry.EntityID = u.ID.Hex()
	entry.TargetUserID = u.ID.Hex()
	entry.TargetHotelID = hotelID.Hex()
	entry.Metadata["role"] = string(u.Role)
	s.audit.Write(ctx, entry)
	return u, nil
}
