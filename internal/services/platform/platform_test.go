package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/magabrotheeeer/hotel-console/internal/apperr"
	"github.com/magabrotheeeer/hotel-console/internal/lib/period"
	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// memStore держит отели и операторов в памяти.
type memStore struct {
	mu           sync.Mutex
	hotels       []models.Hotel
	users        []models.User
	failNextUser error
}

func (m *memStore) visible(h models.Hotel, scope models.Scope) bool {
	return scope.All() || h.CreatedBy == *scope.CreatedBy
}

func (m *memStore) HotelExists(_ context.Context, email, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hotels {
		if h.Email == email || h.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateHotel(_ context.Context, h *models.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels = append(m.hotels, *h)
	return nil
}

func (m *memStore) DeleteHotel(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, h := range m.hotels {
		if h.ID == id {
			m.hotels = append(m.hotels[:i], m.hotels[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) GetHotel(_ context.Context, id primitive.ObjectID, scope models.Scope) (*models.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hotels {
		if h.ID == id && m.visible(h, scope) {
			cp := h
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("hotel")
}

func (m *memStore) ListHotels(_ context.Context, scope models.Scope) ([]models.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []models.Hotel{}
	for _, h := range m.hotels {
		if m.visible(h, scope) {
			res = append(res, h)
		}
	}
	return res, nil
}

func (m *memStore) HotelIDs(ctx context.Context, scope models.Scope) ([]primitive.ObjectID, error) {
	hs, _ := m.ListHotels(ctx, scope)
	ids := []primitive.ObjectID{}
	for _, h := range hs {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (m *memStore) update(id primitive.ObjectID, scope models.Scope, fn func(h *models.Hotel)) (*models.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.hotels {
		if m.hotels[i].ID == id && m.visible(m.hotels[i], scope) {
			fn(&m.hotels[i])
			cp := m.hotels[i]
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("hotel")
}

func (m *memStore) UpdateHotelStatus(_ context.Context, id primitive.ObjectID, scope models.Scope, status models.SubscriptionStatus, isActive bool) (*models.Hotel, error) {
	return m.update(id, scope, func(h *models.Hotel) {
		h.Subscription.Status = status
		h.IsActive = isActive
	})
}

func (m *memStore) RenewHotel(_ context.Context, id primitive.ObjectID, scope models.Scope, end, paidAt time.Time) (*models.Hotel, error) {
	return m.update(id, scope, func(h *models.Hotel) {
		h.Subscription.EndDate = &end
		h.Subscription.PaymentDate = &paidAt
		h.Subscription.Status = models.SubscriptionActive
		h.IsActive = true
	})
}

func (m *memStore) EmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNextUser; err != nil {
		m.failNextUser = nil
		return err
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *memStore) DeleteUser(context.Context, primitive.ObjectID) error { return nil }

func (m *memStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("operator")
}

func (m *memStore) ListPlatformOperators(_ context.Context, roles ...models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []models.User{}
	for _, u := range m.users {
		for _, r := range roles {
			if u.Role == r {
				res = append(res, u)
			}
		}
	}
	return res, nil
}

func (m *memStore) setUser(id primitive.ObjectID, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			fn(&m.users[i])
			return nil
		}
	}
	return apperr.NotFound("operator")
}

func (m *memStore) SetVerified(_ context.Context, id, by primitive.ObjectID, at time.Time) error {
	return m.setUser(id, func(u *models.User) {
		u.Verification = models.Verification{IsVerified: true, VerifiedBy: &by, VerifiedAt: &at}
	})
}

func (m *memStore) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	return m.setUser(id, func(u *models.User) { u.IsActive = active })
}

type MockLogs struct {
	mock.Mock
}

func (m *MockLogs) ListAuditLogs(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLog), args.Error(1)
}

type recorder struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *recorder) Write(_ context.Context, e models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type invalidator struct {
	ids []primitive.ObjectID
}

func (i *invalidator) Invalidate(_ context.Context, id primitive.ObjectID) {
	i.ids = append(i.ids, id)
}

var fixedNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newTestService(store *memStore, logs AuditLogRepository) (*Service, *recorder, *invalidator) {
	rec := &recorder{}
	inv := &invalidator{}
	s := NewService(store, store, logs, rec, inv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return fixedNow }
	return s, rec, inv
}

func actorFor(id primitive.ObjectID, role models.Role) models.Actor {
	return models.Actor{ID: id.Hex(), Role: role, IP: "127.0.0.1"}
}

func createReq(slug, email, adminEmail string) models.CreateHotelRequest {
	return models.CreateHotelRequest{
		Name:          "Hotel " + slug,
		Slug:          slug,
		Email:         email,
		AdminName:     "Admin",
		AdminEmail:    adminEmail,
		AdminPassword: "adminpassword",
	}
}

func TestCreateHotel(t *testing.T) {
	store := &memStore{}
	s, rec, _ := newTestService(store, nil)
	creator := primitive.NewObjectID()

	hotel, admin, err := s.CreateHotel(context.Background(), actorFor(creator, models.RoleSuperAdmin),
		createReq("Seaside", "Info@Seaside.io", "admin@seaside.io"))
	require.NoError(t, err)

	assert.Equal(t, "seaside", hotel.Slug)
	assert.Equal(t, "info@seaside.io", hotel.Email)
	assert.True(t, hotel.IsActive)
	assert.Equal(t, models.SubscriptionActive, hotel.Subscription.Status)
	require.NotNil(t, hotel.Subscription.EndDate)
	assert.Equal(t, period.AddDays(fixedNow, period.RenewalWindowDays), *hotel.Subscription.EndDate)
	assert.Equal(t, creator, hotel.CreatedBy)

	assert.Equal(t, models.RoleAdmin, admin.Role)
	require.NotNil(t, admin.HotelID)
	assert.Equal(t, hotel.ID, *admin.HotelID)
	assert.NotEqual(t, "adminpassword", admin.PasswordHash)
	assert.Equal(t, []string{models.ActionHotelCreate}, rec.actions())
}

func TestCreateHotel_DuplicateIsAllOrNothing(t *testing.T) {
	store := &memStore{}
	s, _, _ := newTestService(store, nil)
	actor := actorFor(primitive.NewObjectID(), models.RoleSuperAdmin)

	_, _, err := s.CreateHotel(context.Background(), actor, createReq("first", "first@hotel.io", "owner@hotel.io"))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  models.CreateHotelRequest
	}{
		{name: "admin email used by operator", req: createReq("second", "second@hotel.io", "owner@hotel.io")},
		{name: "admin email used by hotel", req: createReq("third", "third@hotel.io", "first@hotel.io")},
		{name: "hotel email used by operator", req: createReq("fourth", "owner@hotel.io", "new@hotel.io")},
		{name: "slug taken", req: createReq("first", "fifth@hotel.io", "fifth-admin@hotel.io")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.CreateHotel(context.Background(), actor, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrConflict)

			hotels, err := s.ListHotels(context.Background(), models.Scope{})
			require.NoError(t, err)
			assert.Len(t, hotels, 1)
			assert.Len(t, store.users, 1)
		})
	}
}

func TestCreateHotel_RollsBackWhenAdminFails(t *testing.T) {
	store := &memStore{failNextUser: apperr.Conflict("duplicate key")}
	s, rec, _ := newTestService(store, nil)

	_, _, err := s.CreateHotel(context.Background(), actorFor(primitive.NewObjectID(), models.RoleSuperAdmin),
		createReq("racy", "racy@hotel.io", "racy-admin@hotel.io"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Empty(t, store.hotels)
	assert.Empty(t, rec.actions())
}

func TestSubAdminScoping(t *testing.T) {
	store := &memStore{}
	s, _, _ := newTestService(store, nil)
	subA, subB := primitive.NewObjectID(), primitive.NewObjectID()

	var mine []primitive.ObjectID
	for i, slug := range []string{"a", "b"} {
		h, _, err := s.CreateHotel(context.Background(), actorFor(subA, models.RoleSubSuperAdmin),
			createReq(slug, slug+"@hotel.io", slug+"-admin@hotel.io"))
		require.NoError(t, err, i)
		mine = append(mine, h.ID)
	}
	for _, slug := range []string{"c", "d", "e"} {
		_, _, err := s.CreateHotel(context.Background(), actorFor(subB, models.RoleSubSuperAdmin),
			createReq(slug, slug+"@hotel.io", slug+"-admin@hotel.io"))
		require.NoError(t, err)
	}

	scope := models.Scope{CreatedBy: &subA}
	hotels, err := s.ListHotels(context.Background(), scope)
	require.NoError(t, err)
	var got []primitive.ObjectID
	for _, h := range hotels {
		got = append(got, h.ID)
	}
	assert.ElementsMatch(t, mine, got)

	all, err := s.ListHotels(context.Background(), models.Scope{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	foreign := all[len(all)-1].ID
	_, err = s.GetHotel(context.Background(), foreign, scope)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	logs := new(MockLogs)
	logs.On("ListAuditLogs", mock.Anything, mock.MatchedBy(func(f models.AuditFilter) bool {
		return f.ActorScope == subA.Hex() &&
			assert.ElementsMatch(t, []string{mine[0].Hex(), mine[1].Hex()}, f.HotelIDs)
	})).Return([]models.AuditLog{}, nil).Once()
	s.logs = logs

	_, err = s.AuditLogs(context.Background(), actorFor(subA, models.RoleSubSuperAdmin), scope,
		models.AuditFilter{HotelIDs: []string{"spoofed"}, ActorScope: "spoofed"})
	require.NoError(t, err)
	logs.AssertExpectations(t)
}

func TestUpdateStatus(t *testing.T) {
	store := &memStore{}
	s, rec, _ := newTestService(store, nil)
	actor := actorFor(primitive.NewObjectID(), models.RoleSuperAdmin)
	h, _, err := s.CreateHotel(context.Background(), actor, createReq("x", "x@hotel.io", "x-admin@hotel.io"))
	require.NoError(t, err)

	tests := []struct {
		status     models.SubscriptionStatus
		wantActive bool
	}{
		{models.SubscriptionSuspended, false},
		{models.SubscriptionActive, true},
		{models.SubscriptionCancelled, false},
	}
	for _, tt := range tests {
		got, err := s.UpdateStatus(context.Background(), actor, h.ID, models.Scope{}, tt.status)
		require.NoError(t, err)
		assert.Equal(t, tt.status, got.Subscription.Status)
		assert.Equal(t, tt.wantActive, got.IsActive, tt.status)
	}

	_, err = s.UpdateStatus(context.Background(), actor, h.ID, models.Scope{}, "paused")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, rec.actions(), models.ActionHotelStatus)
}

func TestUpdateStatus_ExpiredStaysInactive(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	h := models.Hotel{ID: primitive.NewObjectID(), Subscription: models.Subscription{Status: models.SubscriptionSuspended, EndDate: &past}}
	store := &memStore{hotels: []models.Hotel{h}}
	s, _, _ := newTestService(store, nil)

	got, err := s.UpdateStatus(context.Background(), actorFor(primitive.NewObjectID(), models.RoleSuperAdmin), h.ID, models.Scope{}, models.SubscriptionActive)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestRenew(t *testing.T) {
	past := fixedNow.Add(-72 * time.Hour)
	future := fixedNow.Add(5 * 24 * time.Hour)
	expired := models.Hotel{ID: primitive.NewObjectID(), Subscription: models.Subscription{Status: models.SubscriptionSuspended, EndDate: &past}}
	running := models.Hotel{ID: primitive.NewObjectID(), Subscription: models.Subscription{Status: models.SubscriptionActive, EndDate: &future}, IsActive: true}
	cancelled := models.Hotel{ID: primitive.NewObjectID(), Subscription: models.Subscription{Status: models.SubscriptionCancelled}}
	store := &memStore{hotels: []models.Hotel{expired, running, cancelled}}
	s, _, _ := newTestService(store, nil)
	actor := actorFor(primitive.NewObjectID(), models.RoleSuperAdmin)

	got, err := s.Renew(context.Background(), actor, expired.ID, models.Scope{}, 0)
	require.NoError(t, err)
	assert.Equal(t, period.AddDays(fixedNow, period.RenewalWindowDays), *got.Subscription.EndDate)
	assert.True(t, got.IsActive)
	assert.Equal(t, models.SubscriptionActive, got.Subscription.Status)

	got, err = s.Renew(context.Background(), actor, running.ID, models.Scope{}, 10)
	require.NoError(t, err)
	assert.Equal(t, period.AddDays(future, 10), *got.Subscription.EndDate)

	_, err = s.Renew(context.Background(), actor, cancelled.ID, models.Scope{}, 10)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.Renew(context.Background(), actor, primitive.NewObjectID(), models.Scope{}, 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOperators(t *testing.T) {
	store := &memStore{}
	s, rec, inv := newTestService(store, nil)
	rootID := primitive.NewObjectID()
	store.users = append(store.users, models.User{ID: rootID, Email: "root@console.io", Role: models.RoleSuperAdmin, IsActive: true})
	root := actorFor(rootID, models.RoleSuperAdmin)

	sub, err := s.CreateOperator(context.Background(), root, models.CreateOperatorRequest{
		Name: "Sub", Email: "Sub@console.io", Password: "subpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSubSuperAdmin, sub.Role)
	assert.Nil(t, sub.HotelID)
	assert.False(t, sub.Verification.IsVerified)
	assert.Equal(t, rootID, *sub.CreatedBy)

	_, err = s.CreateOperator(context.Background(), root, models.CreateOperatorRequest{
		Name: "Dup", Email: "sub@console.io", Password: "subpassword",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, s.VerifyOperator(context.Background(), root, sub.ID))
	require.NoError(t, s.SetOperatorActive(context.Background(), root, sub.ID, false))

	stored, err := store.GetUserByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Verification.IsVerified)
	assert.Equal(t, rootID, *stored.Verification.VerifiedBy)
	assert.False(t, stored.IsActive)
	assert.Equal(t, []primitive.ObjectID{sub.ID, sub.ID}, inv.ids)

	err = s.SetOperatorActive(context.Background(), root, rootID, false)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.True(t, errors.Is(err, ErrSelfDeactivation))

	ops, err := s.ListOperators(context.Background())
	require.NoError(t, err)
	assert.Len(t, ops, 2)

	assert.Equal(t, []string{models.ActionOperatorCreate, models.ActionOperatorVerify, models.ActionOperatorActive}, rec.actions())
}

func TestVerifyOperator_RejectsHotelStaff(t *testing.T) {
	hotelID := primitive.NewObjectID()
	staff := models.User{ID: primitive.NewObjectID(), HotelID: &hotelID, Role: models.RoleManager}
	store := &memStore{users: []models.User{staff}}
	s, _, _ := newTestService(store, nil)

	err := s.VerifyOperator(context.Background(), actorFor(primitive.NewObjectID(), models.RoleSuperAdmin), staff.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
