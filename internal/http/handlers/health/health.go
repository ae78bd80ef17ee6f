package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/http/handlers"
	"github.com/magabrotheeeer/hotel-console/internal/http/response"
)

// Pinger проверка доступности зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log      *slog.Logger
	storages map[string]Pinger
}

func New(log *slog.Logger, storages map[string]Pinger) *Handler {
	return &Handler{
		log:      log,
		storages: storages,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	log := handlers.RequestLog(h.log, r, op)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, s := range h.storages {
		if err := s.Ping(ctx); err != nil {
			response.Fail(w, r, log.With(slog.String("dependency", name)), apperr.ErrInternal.Wrap(err))
			return
		}
	}
	response.OK(w, r, map[string]any{
		"status": "ok",
	})
}
