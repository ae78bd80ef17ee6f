package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hotel-console/internal/models"
)

func TestStorage_InsertAuditLog(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	err := storage.InsertAuditLog(ctx, models.AuditLog{
		ActorID:       "actor-1",
		ActorRole:     models.RoleSuperAdmin,
		Action:        models.ActionHotelCreate,
		EntityType:    "hotel",
		EntityID:      "h1",
		TargetHotelID: "h1",
		Metadata:      map[string]any{"slug": "grand"},
	})
	require.NoError(t, err)

	logs, err := storage.ListAuditLogs(ctx, models.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.NotEmpty(t, logs[0].ID)
	assert.Equal(t, models.RoleSuperAdmin, logs[0].ActorRole)
	assert.Equal(t, "grand", logs[0].Metadata["slug"])
	assert.WithinDuration(t, time.Now(), logs[0].CreatedAt, time.Minute)

	_, err = storage.DB.ExecContext(ctx, `UPDATE audit_logs SET action = 'x'`)
	assert.Error(t, err, "audit log must be append-only")
}

func TestStorage_InsertAuditLogCancelled(t *testing.T) {
	s := &Storage{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.InsertAuditLog(ctx, models.AuditLog{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.ListAuditLogs(ctx, models.AuditFilter{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.OperatorActivity(ctx, []string{"a"}, nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStorage_ListAuditLogs(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	now := time.Now().UTC()
	factory.CreateAuditLog(t, "sub-a", models.ActionHotelCreate, "hotel-a", now.Add(-3*time.Hour))
	factory.CreateAuditLog(t, "sub-a", models.ActionHotelRenew, "hotel-b", now.Add(-2*time.Hour))
	factory.CreateAuditLog(t, "super", models.ActionHotelStatus, "hotel-b", now.Add(-time.Hour))
	factory.CreateAuditLog(t, "sub-z", models.ActionHotelCreate, "hotel-z", now)

	tests := []struct {
		name    string
		filter  models.AuditFilter
		actions []string
	}{
		{
			name:    "all newest first",
			filter:  models.AuditFilter{},
			actions: []string{models.ActionHotelCreate, models.ActionHotelStatus, models.ActionHotelRenew, models.ActionHotelCreate},
		},
		{
			name:    "by action",
			filter:  models.AuditFilter{Action: models.ActionHotelCreate},
			actions: []string{models.ActionHotelCreate, models.ActionHotelCreate},
		},
		{
			name:    "scoped to sub admin hotels",
			filter:  models.AuditFilter{ActorScope: "sub-a", HotelIDs: []string{"hotel-a", "hotel-b"}},
			actions: []string{models.ActionHotelStatus, models.ActionHotelRenew, models.ActionHotelCreate},
		},
		{
			name:    "scope with no hotels",
			filter:  models.AuditFilter{ActorScope: "nobody", HotelIDs: []string{}},
			actions: nil,
		},
		{
			name:    "pagination",
			filter:  models.AuditFilter{Limit: 1, Offset: 1},
			actions: []string{models.ActionHotelStatus},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.ListAuditLogs(context.Background(), tt.filter)
			require.NoError(t, err)
			var actions []string
			for _, l := range got {
				actions = append(actions, l.Action)
			}
			assert.Equal(t, tt.actions, actions)
		})
	}
}

func TestStorage_OperatorActivity(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	now := time.Now().UTC()
	factory.CreateAuditLog(t, "op-1", models.ActionHotelCreate, "h", now.Add(-48*time.Hour))
	factory.CreateAuditLog(t, "op-1", models.ActionLogin, "", now.Add(-time.Hour))
	factory.CreateAuditLog(t, "op-1", models.ActionHotelStatus, "h", now.Add(-30*time.Minute))
	factory.CreateAuditLog(t, "op-2", models.ActionLogin, "", now.Add(-72*time.Hour))

	got, err := storage.OperatorActivity(context.Background(),
		[]string{"op-1", "op-2", "op-3"}, models.SensitiveActions, now.Add(-24*time.Hour))
	require.NoError(t, err)

	require.Contains(t, got, "op-1")
	assert.Equal(t, 2, got["op-1"].Operations24h)
	assert.Equal(t, 2, got["op-1"].SensitiveTotal)
	require.NotNil(t, got["op-1"].LastActivityAt)
	assert.WithinDuration(t, now.Add(-30*time.Minute), *got["op-1"].LastActivityAt, time.Second)

	assert.Equal(t, 0, got["op-2"].Operations24h)
	assert.NotContains(t, got, "op-3")

	empty, err := storage.OperatorActivity(context.Background(), nil, models.SensitiveActions, now)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
