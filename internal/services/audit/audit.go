// Package services содержит запись журнала аудита привилегированных действий.
package services

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/hotel-console/internal/lib/metrics"
	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// DefaultTimeout ограничение на одну запись в хранилище.
const DefaultTimeout = 5 * time.Second

// AuditRepository хранилище журнала аудита.
type AuditRepository interface {
	InsertAuditLog(ctx context.Context, entry models.AuditLog) error
}

// Recorder принимает записи аудита, не блокируя вызывающего.
type Recorder interface {
	Write(ctx context.Context, entry models.AuditLog)
}

// Writer пишет журнал асинхронно: ошибка записи логируется и не влияет
// на результат основной операции.
type Writer struct {
	repo    AuditRepository
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewWriter создает Writer. timeout <= 0 заменяется на DefaultTimeout.
func NewWriter(repo AuditRepository, log *slog.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Writer{repo: repo, log: log, timeout: timeout}
}

// Write сохраняет запись в фоне. Отмена ctx запроса на запись не влияет.
func (w *Writer) Write(ctx context.Context, entry models.AuditLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	detached := context.WithoutCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(detached, w.timeout)
		defer cancel()

		err := w.repo.InsertAuditLog(ctx, entry)
		metrics.ObserveAudit(err)
		if err != nil {
			w.log.Error("failed to write audit log",
				slog.String("action", entry.Action),
				slog.String("actor_id", entry.ActorID),
				sl.Err(err),
			)
		}
	}()
}

// Close дожидается завершения начатых записей.
func (w *Writer) Close() {
	w.wg.Wait()
}

// ActorFromRequest описывает оператора и клиента запроса.
func ActorFromRequest(r *http.Request, profile *models.OperatorProfile) models.Actor {
	a := models.Actor{IP: ClientIP(r), UserAgent: r.UserAgent()}
	if profile != nil {
		a.ID = profile.ID.Hex()
		a.Role = profile.Role
	}
	return a
}

// FromRequest заполняет запись данными оператора и запроса.
// Отель оператора становится целевым отелем записи.
func FromRequest(r *http.Request, profile *models.OperatorProfile, action, entityType string) models.AuditLog {
	entry := ActorFromRequest(r, profile).Entry(action, entityType)
	if profile != nil && profile.HotelID != nil {
		entry.TargetHotelID = profile.HotelID.Hex()
	}
	return entry
}

// ClientIP адрес клиента: первый адрес X-Forwarded-For, затем X-Real-IP, затем RemoteAddr без порта.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
