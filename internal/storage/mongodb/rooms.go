package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

var afterUpdate = options.FindOneAndUpdate().SetReturnDocument(options.After)

// CreateRoom сохраняет номер отеля из контекста. Повтор номера возвращает apperr.ErrConflict.
func (s *Storage) CreateRoom(ctx context.Context, r *models.Room) error {
	const op = "mongodb.CreateRoom"

	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = models.RoomAvailable
	}
	if _, err := s.rooms.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListRooms возвращает номера отеля, опционально по статусу.
func (s *Storage) ListRooms(ctx context.Context, status models.RoomStatus) ([]models.Room, error) {
	const op = "mongodb.ListRooms"

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	res := []models.Room{}
	if err := s.rooms.FindAll(ctx, filter, &res, options.Find().SetSort(bson.D{{Key: "number", Value: 1}})); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetRoom возвращает номер отеля из контекста.
func (s *Storage) GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	const op = "mongodb.GetRoom"

	var r models.Room
	if err := s.rooms.FindOne(ctx, bson.M{"_id": id}, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// UpdateRoom заменяет изменяемые поля номера.
func (s *Storage) UpdateRoom(ctx context.Context, id primitive.ObjectID, r *models.Room) (*models.Room, error) {
	const op = "mongodb.UpdateRoom"

	var out models.Room
	err := s.rooms.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"number":    r.Number,
		"type":      r.Type,
		"floor":     r.Floor,
		"capacity":  r.Capacity,
		"price":     r.Price,
		"status":    r.Status,
		"updatedAt": time.Now().UTC(),
	}}, &out, afterUpdate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// SetRoomStatus меняет статус номера.
func (s *Storage) SetRoomStatus(ctx context.Context, id primitive.ObjectID, status models.RoomStatus) error {
	const op = "mongodb.SetRoomStatus"

	res, err := s.rooms.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("room"))
	}
	return nil
}

// DeleteRoom удаляет номер отеля из контекста.
func (s *Storage) DeleteRoom(ctx context.Context, id primitive.ObjectID) error {
	const op = "mongodb.DeleteRoom"

	n, err := s.rooms.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("room"))
	}
	return nil
}

// CreateGuest сохраняет гостя отеля из контекста.
func (s *Storage) CreateGuest(ctx context.Context, g *models.Guest) error {
	const op = "mongodb.CreateGuest"

	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.CreatedAt, g.UpdatedAt = now, now
	if _, err := s.guests.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListGuests возвращает гостей отеля; search ищет по фамилии без учёта регистра.
func (s *Storage) ListGuests(ctx context.Context, search string) ([]models.Guest, error) {
	const op = "mongodb.ListGuests"

	filter := bson.M{}
	if search != "" {
		filter["$or"] = bson.A{
			bson.M{"lastName": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(search), Options: "i"}},
			bson.M{"email": search},
		}
	}
	res := []models.Guest{}
	if err := s.guests.FindAll(ctx, filter, &res, options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}})); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetGuest возвращает гостя отеля из контекста.
func (s *Storage) GetGuest(ctx context.Context, id primitive.ObjectID) (*models.Guest, error) {
	const op = "mongodb.GetGuest"

	var g models.Guest
	if err := s.guests.FindOne(ctx, bson.M{"_id": id}, &g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &g, nil
}

// UpdateGuest заменяет изменяемые поля гостя.
func (s *Storage) UpdateGuest(ctx context.Context, id primitive.ObjectID, g *models.Guest) (*models.Guest, error) {
	const op = "mongodb.UpdateGuest"

	var out models.Guest
	err := s.guests.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"firstName": g.FirstName,
		"lastName":  g.LastName,
		"email":     g.Email,
		"phone":     g.Phone,
		"document":  g.Document,
		"notes":     g.Notes,
		"updatedAt": time.Now().UTC(),
	}}, &out, afterUpdate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// DeleteGuest удаляет гостя отеля из контекста.
func (s *Storage) DeleteGuest(ctx context.Context, id primitive.ObjectID) error {
	const op = "mongodb.DeleteGuest"

	n, err := s.guests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("guest"))
	}
	return nil
}
