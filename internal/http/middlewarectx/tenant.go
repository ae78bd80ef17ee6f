package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
	"github.com/magabrotheeeer/hotel-console/internal/lib/period"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	"github.com/magabrotheeeer/hotel-console/internal/tenantctx"
)

const (
	// HotelHeader явный выбор отеля платформенным оператором.
	HotelHeader = "X-Hotel-Id"
	// HotelQuery то же через параметр запроса.
	HotelQuery = "hotelId"
)

// HotelLookup загрузка отеля для проверки его состояния.
type HotelLookup interface {
	GetHotel(ctx context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error)
}

// ResolveTenant определяет отель запроса и кладёт его в контекст.
// Назначенный оператору отель всегда имеет приоритет. Платформенный оператор
// выбирает отель заголовком X-Hotel-Id или параметром hotelId в пределах своей
// области видимости. Неактивный отель доступен только платформенным операторам.
func ResolveTenant(hotels HotelLookup, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.ResolveTenant"
			log := requestLog(log, r, op)

			profile, ok := OperatorFromContext(r.Context())
			if !ok {
				response.Fail(w, r, log, apperr.ErrMissingCredential)
				return
			}

			hotelID, err := tenantOf(profile, r)
			if err != nil {
				response.Fail(w, r, log, err)
				return
			}

			hotel, err := hotels.GetHotel(r.Context(), hotelID, models.ScopeOf(profile))
			if err != nil {
				response.Fail(w, r, log, err)
				return
			}
			if !profile.Role.IsPlatform() && (!hotel.IsActive || period.IsSubscriptionExpired(hotel.Subscription.EndDate)) {
				response.Fail(w, r, log, apperr.ErrInactiveTenant)
				return
			}

			_ = tenantctx.RunWithTenant(r.Context(), hotelID, func(ctx context.Context) error {
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			})
		})
	}
}

func tenantOf(profile *models.OperatorProfile, r *http.Request) (primitive.ObjectID, error) {
	if profile.HotelID != nil {
		return *profile.HotelID, nil
	}
	if !profile.Role.IsPlatform() {
		return primitive.NilObjectID, apperr.ErrMissingTenant
	}
	raw := strings.TrimSpace(r.Header.Get(HotelHeader))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get(HotelQuery))
	}
	if raw == "" {
		return primitive.NilObjectID, apperr.ErrMissingTenant
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.ErrInvalidTenantID.Wrap(err)
	}
	return id, nil
}

var mutating = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// OriginGuard отклоняет изменяющие запросы, чей Origin (или Referer) не совпадает
// с хостом сервера и не входит в allowed. Запросы без обоих заголовков пропускаются:
// их шлют не браузеры.
func OriginGuard(allowed []string, log *slog.Logger) func(http.Handler) http.Handler {
	allow := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allow[strings.ToLower(strings.TrimRight(a, "/"))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.OriginGuard"
			if !slices.Contains(mutating, r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			declared := r.Header.Get("Origin")
			if declared == "" {
				declared = r.Header.Get("Referer")
			}
			if declared == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := url.Parse(declared)
			if err != nil || u.Host == "" {
				response.Fail(w, r, requestLog(log, r, op), apperr.ErrForbiddenOrigin)
				return
			}
			origin := strings.ToLower(u.Scheme + "://" + u.Host)
			if _, ok := allow[origin]; ok || strings.EqualFold(u.Host, r.Host) {
				next.ServeHTTP(w, r)
				return
			}
			response.Fail(w, r, requestLog(log, r, op).With(slog.String("origin", origin)), apperr.ErrForbiddenOrigin)
		})
	}
}
