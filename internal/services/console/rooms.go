package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

func validRoomStatus(st models.RoomStatus) bool {
	switch st {
	case models.RoomAvailable, models.RoomOccupied, models.RoomCleaning, models.RoomMaintenance:
		return true
	}
	return false
}

// CreateRoom добавляет номер. Повтор номера внутри отеля даёт Conflict.
func (s *Service) CreateRoom(ctx context.Context, actor models.Actor, r models.Room) (*models.Room, error) {
	const op = "console.CreateRoom"
	if _, err := hotelFrom(ctx); err != nil {
		return nil, err
	}
	if r.Status != "" && !validRoomStatus(r.Status) {
		return nil, apperr.Validation("unknown room status")
	}
	r.HotelID = primitive.NilObjectID
	if err := s.repo.CreateRoom(ctx, &r); err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionRoomCreate, "room", r.ID)
	return &r, nil
}

// ListRooms номера отеля, при пустом status все.
func (s *Service) ListRooms(ctx context.Context, status models.RoomStatus) ([]models.Room, error) {
	const op = "console.ListRooms"
	if status != "" && !validRoomStatus(status) {
		return nil, apperr.Validation("unknown room status")
	}
	res, err := s.repo.ListRooms(ctx, status)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// GetRoom номер отеля.
func (s *Service) GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	const op = "console.GetRoom"
	r, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return r, nil
}

// UpdateRoom обновляет номер.
func (s *Service) UpdateRoom(ctx context.Context, actor models.Actor, id primitive.ObjectID, r models.Room) (*models.Room, error) {
	const op = "console.UpdateRoom"
	if r.Status == "" {
		r.Status = models.RoomAvailable
	}
	if !validRoomStatus(r.Status) {
		return nil, apperr.Validation("unknown room status")
	}
	out, err := s.repo.UpdateRoom(ctx, id, &r)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionRoomUpdate, "room", id)
	return out, nil
}

// DeleteRoom удаляет номер.
func (s *Service) DeleteRoom(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	const op = "console.DeleteRoom"
	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return wrap(op, err)
	}
	s.record(ctx, actor, models.ActionRoomDelete, "room", id)
	return nil
}

// CreateGuest добавляет гостя.
func (s *Service) CreateGuest(ctx context.Context, actor models.Actor, g models.Guest) (*models.Guest, error) {
	const op = "console.CreateGuest"
	if _, err := hotelFrom(ctx); err != nil {
		return nil, err
	}
	g.HotelID = primitive.NilObjectID
	if err := s.repo.CreateGuest(ctx, &g); err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionGuestCreate, "guest", g.ID)
	return &g, nil
}

// ListGuests гости отеля, search задаёт префикс фамилии или точный email.
func (s *Service) ListGuests(ctx context.Context, search string) ([]models.Guest, error) {
	const op = "console.ListGuests"
	res, err := s.repo.ListGuests(ctx, search)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// GetGuest гость отеля.
func (s *Service) GetGuest(ctx context.Context, id primitive.ObjectID) (*models.Guest, error) {
	const op = "console.GetGuest"
	g, err := s.repo.GetGuest(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return g, nil
}

// UpdateGuest обновляет гостя.
func (s *Service) UpdateGuest(ctx context.Context, actor models.Actor, id primitive.ObjectID, g models.Guest) (*models.Guest, error) {
	const op = "console.UpdateGuest"
	out, err := s.repo.UpdateGuest(ctx, id, &g)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.record(ctx, actor, models.ActionGuestUpdate, "guest", id)
	return out, nil
}

// DeleteGuest удаляет гостя.
func (s *Service) DeleteGuest(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	const op = "console.DeleteGuest"
	if err := s.repo.DeleteGuest(ctx, id); err != nil {
		return wrap(op, err)
	}
	s.record(ctx, actor, models.ActionGuestDelete, "guest", id)
	return nil
}
