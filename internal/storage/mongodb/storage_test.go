package mongodb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/period"
	"github.com/magabrotheeeer/hotel-console/internal/models"
	"github.com/magabrotheeeer/hotel-console/internal/storage/tenancy"
	"github.com/magabrotheeeer/hotel-console/internal/tenantctx"
)

func setupStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}
	ctx := context.Background()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:7",
				ExposedPorts: []string{"27017/tcp"},
				WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
			},
			Started: true,
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := container.Terminate(ctx); err != nil {
				t.Logf("failed to terminate mongo container: %v", err)
			}
		})
		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "27017/tcp")
		require.NoError(t, err)
		uri = fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	}

	guard := tenancy.NewGuard(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	s, err := New(ctx, uri, fmt.Sprintf("console_test_%d", time.Now().UnixNano()), 10*time.Second, guard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newHotel(creator primitive.ObjectID, slug string, end *time.Time, status models.SubscriptionStatus) *models.Hotel {
	now := time.Now().UTC()
	return &models.Hotel{
		Name:  slug,
		Slug:  slug,
		Email: slug + "@example.com",
		Subscription: models.Subscription{
			Plan: "basic", Status: status, StartDate: now, EndDate: end,
		},
		Settings:  models.DefaultSettings(),
		IsActive:  status == models.SubscriptionActive,
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHotelsScopeAndUniqueness(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()
	subA, subB := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, s.CreateHotel(ctx, newHotel(subA, "alpha", nil, models.SubscriptionActive)))
	require.NoError(t, s.CreateHotel(ctx, newHotel(subA, "bravo", nil, models.SubscriptionActive)))
	other := newHotel(subB, "charlie", nil, models.SubscriptionActive)
	require.NoError(t, s.CreateHotel(ctx, other))

	err := s.CreateHotel(ctx, newHotel(subB, "alpha", nil, models.SubscriptionActive))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	list, err := s.ListHotels(ctx, models.Scope{CreatedBy: &subA})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := s.ListHotels(ctx, models.Scope{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.GetHotel(ctx, other.ID, models.Scope{CreatedBy: &subA})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	exists, err := s.HotelExists(ctx, "nobody@example.com", "bravo")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSuspendHotelsIsIdempotent(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()
	creator := primitive.NewObjectID()
	now := time.Now().UTC()
	past := period.AddDays(now, -2)
	future := period.AddDays(now, 5)

	expired := newHotel(creator, "expired", &past, models.SubscriptionActive)
	cancelled := newHotel(creator, "cancelled", &past, models.SubscriptionCancelled)
	live := newHotel(creator, "live", &future, models.SubscriptionActive)
	unlimited := newHotel(creator, "unlimited", nil, models.SubscriptionActive)
	for _, h := range []*models.Hotel{expired, cancelled, live, unlimited} {
		require.NoError(t, s.CreateHotel(ctx, h))
	}

	ids, err := s.FindExpiredHotelIDs(ctx, models.Scope{}, now)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{expired.ID}, ids)

	suspended, err := s.SuspendHotels(ctx, ids, now)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{expired.ID}, suspended)

	// Устаревшая выборка: отель уже переведён, повторно он не возвращается.
	suspended, err = s.SuspendHotels(ctx, ids, now)
	require.NoError(t, err)
	assert.Empty(t, suspended)

	loaded, err := s.GetHotelsByIDs(ctx, []primitive.ObjectID{expired.ID, live.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	ids, err = s.FindExpiredHotelIDs(ctx, models.Scope{}, now)
	require.NoError(t, err)
	assert.Empty(t, ids)

	h, err := s.GetHotel(ctx, expired.ID, models.Scope{})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionSuspended, h.Subscription.Status)
	assert.False(t, h.IsActive)
}

func TestPushNotificationIsBounded(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()
	h := newHotel(primitive.NewObjectID(), "bounded", nil, models.SubscriptionActive)
	require.NoError(t, s.CreateHotel(ctx, h))

	for i := 0; i < models.NotificationLogLimit+5; i++ {
		require.NoError(t, s.PushNotification(ctx, h.ID, models.NotificationEntry{
			Kind: models.NoticeExpiring, Message: fmt.Sprintf("n%d", i), Channel: "email", CreatedAt: time.Now().UTC(),
		}))
	}
	var got models.Hotel
	require.NoError(t, s.hotels.FindOne(ctx, map[string]any{"_id": h.ID}).Decode(&got))
	require.Len(t, got.NotificationsLog, models.NotificationLogLimit)
	assert.Equal(t, fmt.Sprintf("n%d", models.NotificationLogLimit+4), got.NotificationsLog[models.NotificationLogLimit-1].Message)

	err := s.PushNotification(ctx, primitive.NewObjectID(), models.NotificationEntry{Kind: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUsersAndStaffScoping(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()
	hotelA, hotelB := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	first := &models.User{HotelID: &hotelA, Name: "First", Email: "first@a.io", Role: models.RoleAdmin, CreatedAt: base}
	second := &models.User{HotelID: &hotelA, Name: "Second", Email: "second@a.io", Role: models.RoleAdmin, CreatedAt: base.Add(time.Minute)}
	foreign := &models.User{HotelID: &hotelB, Name: "B", Email: "first@a.io", Role: models.RoleAdmin, CreatedAt: base}
	platform := &models.User{Name: "Root", Email: "root@console.io", Role: models.RoleSuperAdmin, CreatedAt: base}
	for _, u := range []*models.User{second, first, foreign, platform} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	err := s.CreateUser(ctx, &models.User{HotelID: &hotelA, Email: "first@a.io", Role: models.RoleManager})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	owner, err := s.EarliestAdmin(ctx, hotelA)
	require.NoError(t, err)
	assert.Equal(t, first.ID, owner.ID)

	staff, err := s.ListStaff(tenantctx.WithHotel(ctx, hotelA))
	require.NoError(t, err)
	assert.Len(t, staff, 2)

	u, err := s.FindUserByEmail(ctx, "root@console.io", nil)
	require.NoError(t, err)
	assert.Equal(t, platform.ID, u.ID)

	_, err = s.FindUserByEmail(ctx, "root@console.io", &hotelA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	taken, err := s.EmailTaken(tenantctx.WithHotel(ctx, hotelB), "second@a.io")
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, s.SetVerified(ctx, second.ID, platform.ID, time.Now().UTC()))
	got, err := s.GetUserByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.Verification.IsVerified)

	assert.ErrorIs(t, s.SetActive(ctx, primitive.NewObjectID(), false), apperr.ErrNotFound)
}

func TestRoomsBookingsDashboard(t *testing.T) {
	s := setupStorage(t)
	hotelA, hotelB := primitive.NewObjectID(), primitive.NewObjectID()
	ctxA := tenantctx.WithHotel(context.Background(), hotelA)
	ctxB := tenantctx.WithHotel(context.Background(), hotelB)

	r1 := &models.Room{Number: "101", Type: "double", Capacity: 2, Price: 100}
	r2 := &models.Room{Number: "102", Type: "single", Capacity: 1, Price: 60, Status: models.RoomOccupied}
	require.NoError(t, s.CreateRoom(ctxA, r1))
	require.NoError(t, s.CreateRoom(ctxA, r2))
	require.NoError(t, s.CreateRoom(ctxB, &models.Room{Number: "101", Type: "double", Capacity: 2}))
	assert.ErrorIs(t, s.CreateRoom(ctxA, &models.Room{Number: "101", Type: "x", Capacity: 1}), apperr.ErrConflict)

	_, err := s.GetRoom(ctxB, r1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	g := &models.Guest{FirstName: "Ann", LastName: "Smith", Email: "ann@example.com"}
	require.NoError(t, s.CreateGuest(ctxA, g))
	found, err := s.ListGuests(ctxA, "smi")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	b := &models.Booking{RoomID: r1.ID, GuestID: g.ID, CheckIn: today.Add(14 * time.Hour), CheckOut: today.Add(38 * time.Hour), TotalAmount: 100}
	require.NoError(t, s.CreateBooking(ctxA, b))
	assert.Equal(t, hotelA, b.HotelID)

	d, err := s.Dashboard(ctxA, today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.RoomsTotal)
	assert.Equal(t, int64(1), d.RoomsOccupied)
	assert.Equal(t, int64(1), d.GuestsTotal)
	assert.Equal(t, int64(1), d.ActiveBookings)
	assert.Equal(t, int64(1), d.ArrivalsToday)
	assert.InDelta(t, 100.0, d.Revenue, 0.001)
	assert.InDelta(t, 50.0, d.OccupancyPercent, 0.001)

	_, err = s.CancelBooking(ctxB, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	cancelled, err := s.CancelBooking(ctxA, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	_, err = s.CancelBooking(ctxA, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, s.DeleteRoom(ctxA, r2.ID))
	assert.ErrorIs(t, s.DeleteRoom(ctxB, r1.ID), apperr.ErrNotFound)
}
