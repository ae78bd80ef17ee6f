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
	"github.com/magabrotheeeer/hotel-console/internal/storage/tenancy"
	"github.com/magabrotheeeer/hotel-console/internal/tenantctx"
)

// CreateUser сохраняет оператора.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "mongodb.CreateUser"

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteUser удаляет оператора. Используется только для отката незавершённого создания.
func (s *Storage) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	const op = "mongodb.DeleteUser"

	if _, err := s.users.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByID возвращает оператора по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	const op = "mongodb.GetUserByID"

	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// FindUserByEmail ищет оператора по email внутри отеля hotelID
// или среди платформенных операторов, если hotelID == nil.
func (s *Storage) FindUserByEmail(ctx context.Context, email string, hotelID *primitive.ObjectID) (*models.User, error) {
	const op = "mongodb.FindUserByEmail"

	filter := bson.M{"email": email, tenancy.Field: bson.M{"$exists": false}}
	if hotelID != nil {
		filter[tenancy.Field] = *hotelID
	}
	var u models.User
	if err := s.users.FindOne(ctx, filter, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// EmailTaken сообщает, использует ли email хоть один оператор любого отеля.
func (s *Storage) EmailTaken(ctx context.Context, email string) (bool, error) {
	const op = "mongodb.EmailTaken"

	n, err := s.users.CountDocuments(tenantctx.Without(ctx), bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// ListPlatformOperators возвращает платформенных операторов с ролями roles.
func (s *Storage) ListPlatformOperators(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	const op = "mongodb.ListPlatformOperators"

	res := []models.User{}
	err := s.users.FindAll(ctx,
		bson.M{"role": bson.M{"$in": roles}, tenancy.Field: bson.M{"$exists": false}},
		&res,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListStaff возвращает сотрудников отеля из контекста запроса.
func (s *Storage) ListStaff(ctx context.Context) ([]models.User, error) {
	const op = "mongodb.ListStaff"

	res := []models.User{}
	if err := s.users.FindAll(ctx, bson.M{}, &res, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// EarliestAdmin возвращает первого созданного администратора отеля.
func (s *Storage) EarliestAdmin(ctx context.Context, hotelID primitive.ObjectID) (*models.User, error) {
	const op = "mongodb.EarliestAdmin"

	var u models.User
	err := s.users.FindOne(ctx,
		bson.M{tenancy.Field: hotelID, "role": models.RoleAdmin},
		&u,
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// SetVerified отмечает учётную запись проверенной.
func (s *Storage) SetVerified(ctx context.Context, id, by primitive.ObjectID, at time.Time) error {
	const op = "mongodb.SetVerified"

	return s.updateUser(ctx, op, id, bson.M{
		"verification.isVerified": true,
		"verification.verifiedBy": by,
		"verification.verifiedAt": at,
		"updatedAt":               at,
	})
}

// SetActive включает или выключает учётную запись.
func (s *Storage) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	const op = "mongodb.SetActive"

	return s.updateUser(ctx, op, id, bson.M{"isActive": active, "updatedAt": time.Now().UTC()})
}

// TouchLogin запоминает время последнего входа.
func (s *Storage) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	const op = "mongodb.TouchLogin"

	return s.updateUser(ctx, op, id, bson.M{"lastLoginAt": at})
}

// CountByRole считает операторов с ролью role.
func (s *Storage) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	const op = "mongodb.CountByRole"

	n, err := s.users.CountDocuments(ctx, bson.M{"role": role})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Storage) updateUser(ctx context.Context, op string, id primitive.ObjectID, set bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("operator"))
	}
	return nil
}
