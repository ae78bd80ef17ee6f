package tenancy

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/tenantctx"
)

// ErrMissingOwner: документ отеля вставляется без hotelId и вне контекста отеля.
var ErrMissingOwner = errors.New("tenancy: document has no owner hotel")

// Collection коллекция, все операции которой проходят через Guard.
// Прямого доступа к *mongo.Collection нет, иначе изоляцию можно обойти.
type Collection struct {
	coll  *mongo.Collection
	guard *Guard
}

// Wrap оборачивает коллекцию.
func (g *Guard) Wrap(coll *mongo.Collection) *Collection {
	return &Collection{coll: coll, guard: g}
}

// Name имя коллекции.
func (c *Collection) Name() string { return c.coll.Name() }

// Indexes доступ к индексам коллекции.
func (c *Collection) Indexes() mongo.IndexView { return c.coll.Indexes() }

func (c *Collection) filter(ctx context.Context, filter any) (any, error) {
	return c.guard.scope(ctx, c.coll.Name(), filter)
}

// FindAll декодирует все документы, подходящие под фильтр, в results.
func (c *Collection) FindAll(ctx context.Context, filter, results any, opts ...*options.FindOptions) error {
	const op = "tenancy.Collection.FindAll"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	cur, err := c.coll.Find(ctx, f, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindOne декодирует первый подходящий документ в result.
// Отсутствие документа возвращается как apperr.ErrNotFound.
func (c *Collection) FindOne(ctx context.Context, filter, result any, opts ...*options.FindOneOptions) error {
	const op = "tenancy.Collection.FindOne"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.coll.FindOne(ctx, f, opts...).Decode(result); err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err))
	}
	return nil
}

// CountDocuments считает документы под фильтром.
func (c *Collection) CountDocuments(ctx context.Context, filter any, opts ...*options.CountOptions) (int64, error) {
	const op = "tenancy.Collection.CountDocuments"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := c.coll.CountDocuments(ctx, f, opts...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// InsertOne вставляет документ. Документу отеля без владельца проставляется
// отель из контекста; документ чужого отеля отклоняется.
func (c *Collection) InsertOne(ctx context.Context, doc any, opts ...*options.InsertOneOptions) (primitive.ObjectID, error) {
	const op = "tenancy.Collection.InsertOne"

	if owned, ok := doc.(Ownable); ok {
		id, inCtx := tenantctx.FromContext(ctx)
		switch owner := owned.OwnerHotel(); {
		case owner.IsZero() && inCtx:
			owned.SetOwnerHotel(id)
		case owner.IsZero():
			return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ErrMissingOwner)
		case inCtx && owner != id:
			metrics.ObserveMismatch(c.coll.Name(), "rejected")
			return primitive.NilObjectID, fmt.Errorf("%s: %w", op, apperr.ErrTenantMismatch)
		}
	}
	res, err := c.coll.InsertOne(ctx, doc, opts...)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, conflict(err))
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// UpdateOne обновляет один документ под фильтром.
func (c *Collection) UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	const op = "tenancy.Collection.UpdateOne"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := c.coll.UpdateOne(ctx, f, update, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, conflict(err))
	}
	return res, nil
}

// UpdateMany обновляет все документы под фильтром.
func (c *Collection) UpdateMany(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	const op = "tenancy.Collection.UpdateMany"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := c.coll.UpdateMany(ctx, f, update, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, conflict(err))
	}
	return res, nil
}

// FindOneAndUpdate обновляет документ и декодирует результат в result.
func (c *Collection) FindOneAndUpdate(ctx context.Context, filter, update, result any, opts ...*options.FindOneAndUpdateOptions) error {
	const op = "tenancy.Collection.FindOneAndUpdate"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.coll.FindOneAndUpdate(ctx, f, update, opts...).Decode(result); err != nil {
		return fmt.Errorf("%s: %w", op, conflict(notFound(err)))
	}
	return nil
}

// DeleteOne удаляет один документ под фильтром.
func (c *Collection) DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (int64, error) {
	const op = "tenancy.Collection.DeleteOne"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	res, err := c.coll.DeleteOne(ctx, f, opts...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.DeletedCount, nil
}

// DeleteMany удаляет все документы под фильтром.
func (c *Collection) DeleteMany(ctx context.Context, filter any, opts ...*options.DeleteOptions) (int64, error) {
	const op = "tenancy.Collection.DeleteMany"

	f, err := c.filter(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	res, err := c.coll.DeleteMany(ctx, f, opts...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.DeletedCount, nil
}

// Aggregate выполняет конвейер, ограниченный отелем из контекста, и декодирует результат.
func (c *Collection) Aggregate(ctx context.Context, pipeline, results any, opts ...*options.AggregateOptions) error {
	const op = "tenancy.Collection.Aggregate"

	p, err := c.guard.scopePipeline(ctx, c.coll.Name(), pipeline)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	cur, err := c.coll.Aggregate(ctx, p, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.ErrNotFound.Wrap(err)
	}
	return err
}

func conflict(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ErrConflict.Wrap(err)
	}
	return err
}
