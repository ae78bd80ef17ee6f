// Package tenantctx хранит идентификатор текущего отеля в context.Context запроса.
//
// Значение живёт в цепочке контекстов: всё, что получает ctx (включая горутины,
// которым он передан), видит отель своего запроса и только его. Глобального
// изменяемого состояния в пакете нет.
package tenantctx

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type key struct{}

// WithHotel возвращает производный контекст с отелем id.
func WithHotel(ctx context.Context, id primitive.ObjectID) context.Context {
	return context.WithValue(ctx, key{}, id)
}

// FromContext возвращает отель текущего запроса. ok == false вне установленной области.
func FromContext(ctx context.Context) (primitive.ObjectID, bool) {
	if ctx == nil {
		return primitive.NilObjectID, false
	}
	id, ok := ctx.Value(key{}).(primitive.ObjectID)
	if !ok || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}

// RunWithTenant выполняет fn с отелем id в контексте.
// Внешний контекст не меняется: после возврата (в том числе с ошибкой или паникой)
// вызывающий продолжает видеть прежнее значение.
func RunWithTenant(ctx context.Context, id primitive.ObjectID, fn func(ctx context.Context) error) error {
	return fn(WithHotel(ctx, id))
}

// Without возвращает контекст, в котором отель не установлен.
// Нужен платформенным операциям, которые сами строят межтенантный фильтр.
func Without(ctx context.Context) context.Context {
	return context.WithValue(ctx, key{}, primitive.NilObjectID)
}
