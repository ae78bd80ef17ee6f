// Package mongodb реализует документное хранилище консоли: отели, операторы и данные отелей.
//
// Коллекции, принадлежащие отелю (users, rooms, guests, bookings), доступны только
// через tenancy.Collection. Коллекция hotels сама хранит тенантов и ограничивается
// областью видимости платформенного оператора (createdBy).
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	"github.com/magabrotheeeer/hotel-console/internal/storage/tenancy"
)

// Имена коллекций.
const (
	HotelsCollection   = "hotels"
	UsersCollection    = "users"
	RoomsCollection    = "rooms"
	GuestsCollection   = "guests"
	BookingsCollection = "bookings"
)

// Storage хранилище поверх одной базы MongoDB.
type Storage struct {
	client   *mongo.Client
	db       *mongo.Database
	hotels   *mongo.Collection
	users    *tenancy.Collection
	rooms    *tenancy.Collection
	guests   *tenancy.Collection
	bookings *tenancy.Collection
	timeout  time.Duration
}

// New подключается к MongoDB, проверяет соединение и создаёт индексы.
func New(ctx context.Context, uri, database string, timeout time.Duration, guard *tenancy.Guard) (*Storage, error) {
	const op = "mongodb.New"

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := NewFromDatabase(client.Database(database), guard)
	s.client = client
	s.timeout = timeout
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// NewFromDatabase строит хранилище поверх уже открытой базы.
func NewFromDatabase(db *mongo.Database, guard *tenancy.Guard) *Storage {
	return &Storage{
		db:       db,
		hotels:   db.Collection(HotelsCollection),
		users:    guard.Wrap(db.Collection(UsersCollection)),
		rooms:    guard.Wrap(db.Collection(RoomsCollection)),
		guests:   guard.Wrap(db.Collection(GuestsCollection)),
		bookings: guard.Wrap(db.Collection(BookingsCollection)),
	}
}

// Close отключается от MongoDB.
func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes создаёт индексы уникальности и выборок.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	const op = "mongodb.EnsureIndexes"

	if _, err := s.hotels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "subscription.endDate", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("%s: hotels: %w", op, err)
	}
	// hotelId отсутствует у платформенных ролей: их email уникален глобально.
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: tenancy.Field, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: tenancy.Field, Value: 1}, {Key: "role", Value: 1}, {Key: "createdAt", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("%s: users: %w", op, err)
	}
	if _, err := s.rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: tenancy.Field, Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("%s: rooms: %w", op, err)
	}
	if _, err := s.guests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: tenancy.Field, Value: 1}, {Key: "lastName", Value: 1}},
	}); err != nil {
		return fmt.Errorf("%s: guests: %w", op, err)
	}
	if _, err := s.bookings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: tenancy.Field, Value: 1}, {Key: "roomId", Value: 1}, {Key: "checkIn", Value: 1}},
	}); err != nil {
		return fmt.Errorf("%s: bookings: %w", op, err)
	}
	return nil
}

// scoped добавляет к фильтру отелей ограничение области видимости оператора.
func scoped(scope models.Scope, filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	if !scope.All() {
		filter["createdBy"] = *scope.CreatedBy
	}
	return filter
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.ErrNotFound.Wrap(err)
	case mongo.IsDuplicateKeyError(err):
		return apperr.ErrConflict.Wrap(err)
	}
	return err
}
