package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role роль оператора.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleSubSuperAdmin Role = "sub_super_admin"
	RoleAdmin         Role = "admin"
	RoleManager       Role = "manager"
	RoleReceptionist  Role = "receptionist"
	RoleHousekeeping  Role = "housekeeping"
	RoleAccountant    Role = "accountant"
)

// IsPlatform сообщает, что роль не привязана к отелю.
func (r Role) IsPlatform() bool {
	return r == RoleSuperAdmin || r == RoleSubSuperAdmin
}

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permission право на операцию.
type Permission string

const (
	PermDashboardRead Permission = "dashboard:read"
	PermRoomsRead     Permission = "rooms:read"
	PermRoomsWrite    Permission = "rooms:write"
	PermGuestsRead    Permission = "guests:read"
	PermGuestsWrite   Permission = "guests:write"
	PermBookingsRead  Permission = "bookings:read"
	PermBookingsWrite Permission = "bookings:write"
	PermFinanceRead   Permission = "finance:read"
	PermSettingsRead  Permission = "settings:read"
	PermSettingsWrite Permission = "settings:write"
	PermUsersManage   Permission = "users:manage"
)

// AllPermissions все права консоли отеля.
var AllPermissions = []Permission{
	PermDashboardRead,
	PermRoomsRead, PermRoomsWrite,
	PermGuestsRead, PermGuestsWrite,
	PermBookingsRead, PermBookingsWrite,
	PermFinanceRead,
	PermSettingsRead, PermSettingsWrite,
	PermUsersManage,
}

var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin:    AllPermissions,
	RoleSubSuperAdmin: AllPermissions,
	RoleAdmin:         AllPermissions,
	RoleManager: {
		PermDashboardRead, PermRoomsRead, PermRoomsWrite, PermGuestsRead, PermGuestsWrite,
		PermBookingsRead, PermBookingsWrite, PermFinanceRead, PermSettingsRead,
	},
	RoleReceptionist: {
		PermDashboardRead, PermRoomsRead, PermGuestsRead, PermGuestsWrite,
		PermBookingsRead, PermBookingsWrite,
	},
	RoleHousekeeping: {PermRoomsRead},
	RoleAccountant:   {PermDashboardRead, PermFinanceRead, PermBookingsRead},
}

// DefaultPermissions права роли по умолчанию.
func DefaultPermissions(r Role) []Permission {
	return slices.Clone(rolePermissions[r])
}

// EffectivePermissions возвращает права роли по умолчанию, объединённые с явно выданными.
func EffectivePermissions(r Role, explicit []Permission) []Permission {
	out := DefaultPermissions(r)
	for _, p := range explicit {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Verification состояние проверки учётной записи оператора.
type Verification struct {
	IsVerified bool                `json:"isVerified" bson:"isVerified"`
	VerifiedBy *primitive.ObjectID `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt *time.Time          `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
}

// User оператор консоли. HotelID == nil только у платформенных ролей.
type User struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	HotelID          *primitive.ObjectID `json:"hotelId,omitempty" bson:"hotelId,omitempty"`
	Name             string              `json:"name" bson:"name"`
	Email            string              `json:"email" bson:"email"`
	Role             Role                `json:"role" bson:"role"`
	Permissions      []Permission        `json:"permissions" bson:"permissions"`
	IsActive         bool                `json:"isActive" bson:"isActive"`
	Verification     Verification        `json:"verification" bson:"verification"`
	PasswordHash     string              `json:"-" bson:"passwordHash"`
	RefreshTokenHash string              `json:"-" bson:"refreshTokenHash,omitempty"`
	CreatedBy        *primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	LastLoginAt      *time.Time          `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// OperatorProfile текущее состояние оператора, загружаемое на каждом запросе.
type OperatorProfile struct {
	ID          primitive.ObjectID  `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        Role                `json:"role"`
	HotelID     *primitive.ObjectID `json:"hotelId,omitempty"`
	Permissions []Permission        `json:"permissions"`
	IsActive    bool                `json:"isActive"`
	IsVerified  bool                `json:"isVerified"`
}

// ProfileOf строит профиль оператора из записи пользователя.
func ProfileOf(u *User) *OperatorProfile {
	return &OperatorProfile{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		HotelID:     u.HotelID,
		Permissions: EffectivePermissions(u.Role, u.Permissions),
		IsActive:    u.IsActive,
		IsVerified:  u.Verification.IsVerified,
	}
}

// Has сообщает, есть ли у оператора право p.
func (p *OperatorProfile) Has(perm Permission) bool {
	return slices.Contains(p.Permissions, perm)
}

// OwnerContact контактное лицо отеля для уведомлений.
type OwnerContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnknownOwner возвращается, если у отеля нет администратора.
var UnknownOwner = OwnerContact{ID: "unknown", Name: "unknown", Email: "unknown"}

// LoginRequest данные входа оператора.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	HotelSlug string `json:"hotel_slug" validate:"omitempty,alphanum"`
}

// CreateOperatorRequest создание платформенного саб-админа.
type CreateOperatorRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateStaffRequest создание сотрудника отеля.
type CreateStaffRequest struct {
	Name        string       `json:"name" validate:"required,min=2,max=120"`
	Email       string       `json:"email" validate:"required,email"`
	Password    string       `json:"password" validate:"required,min=8"`
	Role        Role         `json:"role" validate:"required"`
	Permissions []Permission `json:"permissions"`
}

// SetActiveRequest включение/выключение учётной записи.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
