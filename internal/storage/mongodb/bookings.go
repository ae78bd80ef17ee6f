package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// CreateBooking сохраняет бронирование отеля из контекста.
func (s *Storage) CreateBooking(ctx context.Context, b *models.Booking) error {
	const op = "mongodb.CreateBooking"

	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Status == "" {
		b.Status = models.BookingConfirmed
	}
	if _, err := s.bookings.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListBookings возвращает бронирования отеля, ближайший заезд первым.
func (s *Storage) ListBookings(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	const op = "mongodb.ListBookings"

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	res := []models.Booking{}
	if err := s.bookings.FindAll(ctx, filter, &res, options.Find().SetSort(bson.D{{Key: "checkIn", Value: 1}})); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetBooking возвращает бронирование отеля из контекста.
func (s *Storage) GetBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	const op = "mongodb.GetBooking"

	var b models.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}, &b); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &b, nil
}

// CancelBooking отменяет бронирование, если оно ещё не отменено и не завершено.
func (s *Storage) CancelBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	const op = "mongodb.CancelBooking"

	var out models.Booking
	err := s.bookings.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$nin": bson.A{models.BookingCancelled, models.BookingCheckedOut}}},
		bson.M{"$set": bson.M{"status": models.BookingCancelled, "updatedAt": time.Now().UTC()}},
		&out, afterUpdate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// Dashboard собирает сводку по отелю из контекста за сутки [dayStart, dayStart+24h).
func (s *Storage) Dashboard(ctx context.Context, dayStart time.Time) (*models.Dashboard, error) {
	const op = "mongodb.Dashboard"

	dayEnd := dayStart.Add(24 * time.Hour)
	d := &models.Dashboard{}

	var byStatus []struct {
		Status models.RoomStatus `bson:"_id"`
		N      int64             `bson:"n"`
	}
	if err := s.rooms.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}, &byStatus); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range byStatus {
		d.RoomsTotal += r.N
		if r.Status == models.RoomOccupied {
			d.RoomsOccupied = r.N
		}
	}

	var err error
	if d.GuestsTotal, err = s.guests.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active := bson.M{"$in": bson.A{models.BookingConfirmed, models.BookingCheckedIn}}
	if d.ActiveBookings, err = s.bookings.CountDocuments(ctx, bson.M{"status": active}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if d.ArrivalsToday, err = s.bookings.CountDocuments(ctx, bson.M{
		"status":  active,
		"checkIn": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if d.DeparturesToday, err = s.bookings.CountDocuments(ctx, bson.M{
		"status":   bson.M{"$ne": models.BookingCancelled},
		"checkOut": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var revenue []struct {
		Total float64 `bson:"total"`
	}
	if err := s.bookings.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: bson.D{{Key: "$ne", Value: models.BookingCancelled}}}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "total", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}}}}},
	}, &revenue); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(revenue) > 0 {
		d.Revenue = revenue[0].Total
	}
	if d.RoomsTotal > 0 {
		d.OccupancyPercent = float64(d.RoomsOccupied) * 100 / float64(d.RoomsTotal)
	}
	return d, nil
}
