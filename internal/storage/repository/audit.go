package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/hotel-console/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// InsertAuditLog добавляет запись в журнал. ID и время назначаются сервером, если не заданы.
func (s *Storage) InsertAuditLog(ctx context.Context, entry models.AuditLog) error {
	const op = "storage.InsertAuditLog"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id,
			      target_user_id, target_hotel_id, ip_address, user_agent, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()))`
	var createdAt *time.Time
	if !entry.CreatedAt.IsZero() {
		createdAt = &entry.CreatedAt
	}
	if _, err := s.DB.ExecContext(ctx, query,
		entry.ID, entry.ActorID, string(entry.ActorRole), entry.Action, entry.EntityType, entry.EntityID,
		entry.TargetUserID, entry.TargetHotelID, entry.IPAddress, entry.UserAgent, meta, createdAt,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAuditLogs возвращает записи журнала, новые первыми.
// Если задан ActorScope или HotelIDs, выборка ограничена записями этого оператора
// или записями об отелях из списка.
func (s *Storage) ListAuditLogs(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error) {
	const op = "storage.ListAuditLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Action != "" {
		where = append(where, "action = "+arg(f.Action))
	}
	if f.ActorID != "" {
		where = append(where, "actor_id = "+arg(f.ActorID))
	}
	if f.ActorScope != "" || f.HotelIDs != nil {
		hotels := f.HotelIDs
		if hotels == nil {
			hotels = []string{}
		}
		where = append(where, fmt.Sprintf("(actor_id = %s OR target_hotel_id = ANY(%s))", arg(f.ActorScope), arg(hotels)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	query := `SELECT id, actor_id, actor_role, action, entity_type, entity_id, target_user_id,
			      target_hotel_id, ip_address, user_agent, metadata, created_at
			  FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %s OFFSET %s", arg(limit), arg(max(f.Offset, 0)))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []models.AuditLog
	for rows.Next() {
		var (
			l    models.AuditLog
			role string
			meta []byte
		)
		if err := rows.Scan(&l.ID, &l.ActorID, &role, &l.Action, &l.EntityType, &l.EntityID,
			&l.TargetUserID, &l.TargetHotelID, &l.IPAddress, &l.UserAgent, &meta, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		l.ActorRole = models.Role(role)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &l.Metadata); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		res = append(res, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// OperatorActivity агрегирует журнал по операторам: действия с момента since,
// число чувствительных действий за всё время и время последнего действия.
// Операторы без записей в результат не попадают.
func (s *Storage) OperatorActivity(ctx context.Context, actorIDs, sensitive []string, since time.Time) (map[string]models.OperatorActivity, error) {
	const op = "storage.OperatorActivity"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res := make(map[string]models.OperatorActivity, len(actorIDs))
	if len(actorIDs) == 0 {
		return res, nil
	}

	query := `SELECT actor_id,
			      COUNT(*) FILTER (WHERE created_at >= $2),
			      COUNT(*) FILTER (WHERE action = ANY($3)),
			      MAX(created_at)
			  FROM audit_logs
			  WHERE actor_id = ANY($1)
			  GROUP BY actor_id`
	rows, err := s.DB.QueryContext(ctx, query, actorIDs, since, sensitive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a    models.OperatorActivity
			last time.Time
		)
		if err := rows.Scan(&a.ActorID, &a.Operations24h, &a.SensitiveTotal, &last); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.LastActivityAt = &last
		res[a.ActorID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
