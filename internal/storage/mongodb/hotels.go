package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// CreateHotel сохраняет новый отель.
func (s *Storage) CreateHotel(ctx context.Context, h *models.Hotel) error {
	const op = "mongodb.CreateHotel"

	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	if _, err := s.hotels.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return nil
}

// DeleteHotel удаляет отель. Используется только для отката незавершённого создания.
func (s *Storage) DeleteHotel(ctx context.Context, id primitive.ObjectID) error {
	const op = "mongodb.DeleteHotel"

	if _, err := s.hotels.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetHotel возвращает отель в области видимости scope.
// Отель вне области неотличим от несуществующего.
func (s *Storage) GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error) {
	const op = "mongodb.GetHotel"

	var h models.Hotel
	if err := s.hotels.FindOne(ctx, scoped(scope, bson.M{"_id": id})).Decode(&h); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &h, nil
}

// GetHotelBySlug возвращает отель по slug.
func (s *Storage) GetHotelBySlug(ctx context.Context, slug string) (*models.Hotel, error) {
	const op = "mongodb.GetHotelBySlug"

	var h models.Hotel
	if err := s.hotels.FindOne(ctx, bson.M{"slug": slug}).Decode(&h); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &h, nil
}

// HotelExists сообщает, занят ли email или slug другим отелем.
func (s *Storage) HotelExists(ctx context.Context, email, slug string) (bool, error) {
	const op = "mongodb.HotelExists"

	n, err := s.hotels.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"slug": slug},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// ListHotels возвращает отели области видимости, новые первыми.
func (s *Storage) ListHotels(ctx context.Context, scope models.Scope) ([]models.Hotel, error) {
	const op = "mongodb.ListHotels"

	cur, err := s.hotels.Find(ctx, scoped(scope, nil),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetProjection(bson.M{"notificationsLog": 0}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := []models.Hotel{}
	if err := cur.All(ctx, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// HotelIDs возвращает идентификаторы отелей области видимости.
func (s *Storage) HotelIDs(ctx context.Context, scope models.Scope) ([]primitive.ObjectID, error) {
	const op = "mongodb.HotelIDs"

	cur, err := s.hotels.Find(ctx, scoped(scope, nil), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ListHotelsWithEndDate возвращает отели области видимости с ограниченной подпиской.
func (s *Storage) ListHotelsWithEndDate(ctx context.Context, scope models.Scope) ([]models.Hotel, error) {
	const op = "mongodb.ListHotelsWithEndDate"

	cur, err := s.hotels.Find(ctx, scoped(scope, bson.M{"subscription.endDate": bson.M{"$ne": nil}}),
		options.Find().SetProjection(bson.M{"notificationsLog": 0}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := []models.Hotel{}
	if err := cur.All(ctx, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// expiredFilter выбирает отели с истекшей подпиской, ещё не приведённые к suspended/isActive=false.
func expiredFilter(now time.Time) bson.M {
	return bson.M{
		"subscription.endDate": bson.M{"$ne": nil, "$lt": now},
		"subscription.status":  bson.M{"$ne": models.SubscriptionCancelled},
		"$or": bson.A{
			bson.M{"subscription.status": bson.M{"$ne": models.SubscriptionSuspended}},
			bson.M{"isActive": true},
		},
	}
}

// FindExpiredHotelIDs возвращает отели области видимости, которые нужно приостановить.
func (s *Storage) FindExpiredHotelIDs(ctx context.Context, scope models.Scope, now time.Time) ([]primitive.ObjectID, error) {
	const op = "mongodb.FindExpiredHotelIDs"

	cur, err := s.hotels.Find(ctx, scoped(scope, expiredFilter(now)), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// SuspendHotels переводит отели ids в suspended и возвращает те, что перевёл именно
// этот вызов. Условие отбора повторяется в фильтре каждого обновления, поэтому
// отель, уже приостановленный параллельным запуском, в результат не попадает.
func (s *Storage) SuspendHotels(ctx context.Context, ids []primitive.ObjectID, now time.Time) ([]primitive.ObjectID, error) {
	const op = "mongodb.SuspendHotels"

	suspended := make([]primitive.ObjectID, 0, len(ids))
	update := bson.M{"$set": bson.M{
		"subscription.status": models.SubscriptionSuspended,
		"isActive":            false,
		"updatedAt":           now,
	}}
	for _, id := range ids {
		filter := expiredFilter(now)
		filter["_id"] = id
		res, err := s.hotels.UpdateOne(ctx, filter, update)
		if err != nil {
			return suspended, fmt.Errorf("%s: %w", op, err)
		}
		if res.ModifiedCount == 1 {
			suspended = append(suspended, id)
		}
	}
	return suspended, nil
}

// GetHotelsByIDs возвращает отели ids одним запросом. Отсутствующие пропускаются.
func (s *Storage) GetHotelsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Hotel, error) {
	const op = "mongodb.GetHotelsByIDs"

	res := []models.Hotel{}
	if len(ids) == 0 {
		return res, nil
	}
	cur, err := s.hotels.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"notificationsLog": 0}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cur.All(ctx, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// UpdateHotelStatus меняет статус подписки и флаг активности отеля.
func (s *Storage) UpdateHotelStatus(ctx context.Context, id primitive.ObjectID, scope models.Scope, status models.SubscriptionStatus, isActive bool) (*models.Hotel, error) {
	const op = "mongodb.UpdateHotelStatus"

	var h models.Hotel
	err := s.hotels.FindOneAndUpdate(ctx, scoped(scope, bson.M{"_id": id}),
		bson.M{"$set": bson.M{
			"subscription.status": status,
			"isActive":            isActive,
			"updatedAt":           time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &h, nil
}

// RenewHotel продлевает подписку до end и активирует отель.
func (s *Storage) RenewHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope, end, paidAt time.Time) (*models.Hotel, error) {
	const op = "mongodb.RenewHotel"

	var h models.Hotel
	err := s.hotels.FindOneAndUpdate(ctx, scoped(scope, bson.M{"_id": id}),
		bson.M{"$set": bson.M{
			"subscription.endDate":     end,
			"subscription.paymentDate": paidAt,
			"subscription.status":      models.SubscriptionActive,
			"isActive":                 true,
			"updatedAt":                paidAt,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &h, nil
}

// UpdateSettings заменяет настройки отеля.
func (s *Storage) UpdateSettings(ctx context.Context, id primitive.ObjectID, settings models.Settings) (*models.Hotel, error) {
	const op = "mongodb.UpdateSettings"

	var h models.Hotel
	err := s.hotels.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"settings": settings, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return &h, nil
}

// PushNotification добавляет запись в журнал уведомлений отеля,
// оставляя не больше models.NotificationLogLimit последних.
func (s *Storage) PushNotification(ctx context.Context, id primitive.ObjectID, entry models.NotificationEntry) error {
	const op = "mongodb.PushNotification"

	res, err := s.hotels.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{
		"notificationsLog": bson.M{
			"$each":  bson.A{entry},
			"$slice": -models.NotificationLogLimit,
		},
	}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("hotel"))
	}
	return nil
}
