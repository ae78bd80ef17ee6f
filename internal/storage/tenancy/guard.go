package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/tenantctx"
)

// ErrUnsupportedFilter возвращается для фильтров, которые слой не может разобрать.
var ErrUnsupportedFilter = errors.New("tenancy: unsupported filter type")

// Guard применяет изоляцию отелей к фильтрам и конвейерам агрегации.
//
// Если явный фильтр называет другой отель, чем контекст запроса, Guard в обычном
// режиме оставляет фильтр как есть, пишет предупреждение и считает метрику;
// в строгом режиме операция отклоняется с apperr.ErrTenantMismatch.
type Guard struct {
	log    *slog.Logger
	strict bool
}

// NewGuard создаёт Guard.
func NewGuard(log *slog.Logger, strict bool) *Guard {
	return &Guard{log: log, strict: strict}
}

// Strict сообщает, включён ли строгий режим.
func (g *Guard) Strict() bool { return g.strict }

// ScopeFilter возвращает фильтр, ограниченный отелем из контекста.
// Без отеля в контексте фильтр возвращается без изменений: это путь
// платформенных межтенантных запросов, которые задают фильтр сами.
func (g *Guard) ScopeFilter(ctx context.Context, filter any) (any, error) {
	return g.scope(ctx, "", filter)
}

func (g *Guard) scope(ctx context.Context, collection string, filter any) (any, error) {
	const op = "tenancy.ScopeFilter"

	if !supported(filter) {
		return nil, fmt.Errorf("%s: %w: %T", op, ErrUnsupportedFilter, filter)
	}
	id, ok := tenantctx.FromContext(ctx)
	if !ok {
		if filter == nil {
			return bson.M{}, nil
		}
		return filter, nil
	}
	if !HasTenantCondition(filter) {
		return inject(filter, id), nil
	}
	if err := g.checkExplicit(collection, id, TenantValues(filter), OpenConditions(filter)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return filter, nil
}

// checkExplicit проверяет явные идентификаторы вызывающего на совпадение с контекстом.
// Открытые условия (open) считаются чужими: они не ограничивают выборку отелем запроса.
func (g *Guard) checkExplicit(collection string, ctxID primitive.ObjectID, ids []primitive.ObjectID, open []string) error {
	foreign := open
	for _, v := range ids {
		if v != ctxID {
			foreign = append(foreign, v.Hex())
		}
	}
	if len(foreign) == 0 {
		return nil
	}
	if g.strict {
		metrics.ObserveMismatch(collection, "rejected")
		g.log.Error("explicit hotel filter rejected",
			slog.String("collection", collection),
			sl.Hotel(ctxID),
			slog.Any("filter_hotels", foreign),
		)
		return apperr.ErrTenantMismatch
	}
	metrics.ObserveMismatch(collection, "honored")
	g.log.Warn("explicit hotel filter differs from request hotel",
		slog.String("collection", collection),
		sl.Hotel(ctxID),
		slog.Any("filter_hotels", foreign),
	)
	return nil
}

// ScopePipeline добавляет в начало конвейера стадию $match по отелю из контекста,
// если ни одна стадия $match уже не содержит условия на hotelId.
func (g *Guard) ScopePipeline(ctx context.Context, pipeline any) (any, error) {
	return g.scopePipeline(ctx, "", pipeline)
}

func (g *Guard) scopePipeline(ctx context.Context, collection string, pipeline any) (any, error) {
	const op = "tenancy.ScopePipeline"

	stages, ok := pipelineStages(pipeline)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %T", op, ErrUnsupportedFilter, pipeline)
	}
	id, ok := tenantctx.FromContext(ctx)
	if !ok {
		return pipeline, nil
	}

	var explicit []primitive.ObjectID
	var open []string
	found := false
	for _, st := range stages {
		match, has := matchOf(st)
		if !has || !HasTenantCondition(match) {
			continue
		}
		found = true
		explicit = append(explicit, TenantValues(match)...)
		open = append(open, OpenConditions(match)...)
	}
	if !found {
		out := make(bson.A, 0, len(stages)+1)
		out = append(out, bson.D{{Key: "$match", Value: bson.D{{Key: Field, Value: id}}}})
		return append(out, stages...), nil
	}
	if err := g.checkExplicit(collection, id, explicit, open); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pipeline, nil
}

func pipelineStages(pipeline any) ([]any, bool) {
	switch p := pipeline.(type) {
	case nil:
		return nil, true
	case mongo.Pipeline:
		return list([]bson.D(p)), true
	case []bson.D:
		return list(p), true
	case []bson.M:
		return list(p), true
	case bson.A:
		return p, true
	case []any:
		return p, true
	}
	return nil, false
}

func matchOf(stage any) (any, bool) {
	switch s := stage.(type) {
	case bson.D:
		for _, e := range s {
			if e.Key == "$match" {
				return e.Value, true
			}
		}
	case bson.M:
		v, ok := s["$match"]
		return v, ok
	case map[string]any:
		v, ok := s["$match"]
		return v, ok
	}
	return nil, false
}
