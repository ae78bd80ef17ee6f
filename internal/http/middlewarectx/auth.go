// Package middlewarectx содержит HTTP middleware консоли.
//
// Цепочка для запросов консоли отеля: Authenticate → OriginGuard → ResolveTenant →
// RequirePermission → обработчик. Платформенные маршруты вместо ResolveTenant и
// RequirePermission используют RequireRole. Каждый отказ завершает запрос ответом
// со стабильным кодом ошибки.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Operator ключ профиля оператора в контексте.
const Operator Key = "operator"

// Authenticator проверяет токен и возвращает актуальный профиль оператора.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.OperatorProfile, error)
}

// WithOperator кладёт профиль оператора в контекст.
func WithOperator(ctx context.Context, p *models.OperatorProfile) context.Context {
	return context.WithValue(ctx, Operator, p)
}

// OperatorFromContext профиль аутентифицированного оператора.
func OperatorFromContext(ctx context.Context) (*models.OperatorProfile, bool) {
	p, ok := ctx.Value(Operator).(*models.OperatorProfile)
	return p, ok && p != nil
}

func requestLog(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Authenticate проверяет Bearer-токен в заголовке Authorization и загружает
// текущее состояние оператора. Неактивный оператор отклоняется.
func Authenticate(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"
			log := requestLog(log, r, op)

			authHeader := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				response.Fail(w, r, log, apperr.ErrMissingCredential)
				return
			}

			profile, err := auth.Authenticate(r.Context(), strings.TrimSpace(tokenStr))
			if err != nil {
				response.Fail(w, r, log, err)
				return
			}
			if !profile.IsActive {
				response.Fail(w, r, log, apperr.ErrInactiveAccount)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), profile)))
		})
	}
}

// RequireRole пропускает только операторов с ролью из списка roles.
func RequireRole(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"
			profile, ok := OperatorFromContext(r.Context())
			if !ok {
				response.Fail(w, r, requestLog(log, r, op), apperr.ErrMissingCredential)
				return
			}
			for _, role := range roles {
				if profile.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Fail(w, r, requestLog(log, r, op), apperr.ErrForbiddenRole)
		})
	}
}

// RequirePermission пропускает только операторов с правом perm.
func RequirePermission(log *slog.Logger, perm models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequirePermission"
			profile, ok := OperatorFromContext(r.Context())
			if !ok {
				response.Fail(w, r, requestLog(log, r, op), apperr.ErrMissingCredential)
				return
			}
			if !profile.Has(perm) {
				response.Fail(w, r, requestLog(log, r, op),
					apperr.ErrMissingPermission.WithMessage("permission "+string(perm)+" is required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
