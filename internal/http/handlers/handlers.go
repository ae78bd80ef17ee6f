// Package handlers общие помощники HTTP-обработчиков консоли.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	auditservice "github.com/magabrotheeeer/hotel-console/internal/services/audit"
)

// RequestLog логгер с операцией и идентификатором запроса.
func RequestLog(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Profile профиль оператора из контекста, nil для открытых маршрутов.
func Profile(r *http.Request) *models.OperatorProfile {
	p, _ := middlewarectx.OperatorFromContext(r.Context())
	return p
}

// Actor инициатор запроса для журнала аудита.
func Actor(r *http.Request) models.Actor {
	return auditservice.ActorFromRequest(r, Profile(r))
}

// Scope область видимости отелей оператора запроса.
func Scope(r *http.Request) models.Scope {
	return models.ScopeOf(Profile(r))
}

// ObjectID разбирает идентификатор из параметра маршрута.
func ObjectID(r *http.Request, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + param).Wrap(err)
	}
	return id, nil
}

// IntQuery целое из параметра запроса или def, если параметр не задан.
func IntQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("query parameter " + name + " must be an integer")
	}
	return v, nil
}

// BoolQuery логическое значение из параметра запроса или def.
func BoolQuery(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation("query parameter " + name + " must be a boolean")
	}
	return v, nil
}
