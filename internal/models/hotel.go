// Package models содержит доменные структуры консоли: отели (тенанты), операторов,
// принадлежащие отелю сущности, записи аудита и производные отчёты.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus статус подписки отеля.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Valid сообщает, известен ли статус.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionSuspended, SubscriptionCancelled:
		return true
	}
	return false
}

// AllowsAccess сообщает, допускает ли статус isActive=true.
func (s SubscriptionStatus) AllowsAccess() bool {
	return s == SubscriptionActive
}

// Subscription описывает оплаченный период отеля. EndDate == nil означает бессрочную подписку.
type Subscription struct {
	Plan        string             `json:"plan" bson:"plan"`
	Status      SubscriptionStatus `json:"status" bson:"status"`
	StartDate   time.Time          `json:"startDate" bson:"startDate"`
	PaymentDate *time.Time         `json:"paymentDate,omitempty" bson:"paymentDate,omitempty"`
	EndDate     *time.Time         `json:"endDate" bson:"endDate"`
}

// NotificationSettings переключатели уведомлений отеля.
type NotificationSettings struct {
	Email          bool `json:"email" bson:"email"`
	SubscriptionUp bool `json:"subscription" bson:"subscription"`
	Bookings       bool `json:"bookings" bson:"bookings"`
}

// Settings настройки отеля.
type Settings struct {
	Currency      string               `json:"currency" bson:"currency" validate:"omitempty,len=3"`
	Timezone      string               `json:"timezone" bson:"timezone"`
	Language      string               `json:"language" bson:"language" validate:"omitempty,min=2,max=5"`
	CheckInTime   string               `json:"checkInTime" bson:"checkInTime"`
	CheckOutTime  string               `json:"checkOutTime" bson:"checkOutTime"`
	TaxRate       float64              `json:"taxRate" bson:"taxRate" validate:"gte=0,lte=100"`
	Theme         string               `json:"theme" bson:"theme"`
	Notifications NotificationSettings `json:"notifications" bson:"notifications"`
}

// DefaultSettings настройки нового отеля.
func DefaultSettings() Settings {
	return Settings{
		Currency:     "USD",
		Timezone:     "UTC",
		Language:     "en",
		CheckInTime:  "14:00",
		CheckOutTime: "12:00",
		Theme:        "light",
		Notifications: NotificationSettings{
			Email:          true,
			SubscriptionUp: true,
			Bookings:       true,
		},
	}
}

// NotificationLogLimit сколько последних уведомлений хранится в отеле.
const NotificationLogLimit = 50

// NotificationEntry запись журнала уведомлений отеля.
type NotificationEntry struct {
	Kind      string    `json:"kind" bson:"kind"`
	Message   string    `json:"message" bson:"message"`
	Channel   string    `json:"channel" bson:"channel"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Hotel тенант консоли. Никогда не удаляется физически.
type Hotel struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name             string              `json:"name" bson:"name"`
	Slug             string              `json:"slug" bson:"slug"`
	Email            string              `json:"email" bson:"email"`
	Phone            string              `json:"phone" bson:"phone"`
	Address          string              `json:"address" bson:"address"`
	Subscription     Subscription        `json:"subscription" bson:"subscription"`
	Settings         Settings            `json:"settings" bson:"settings"`
	IsActive         bool                `json:"isActive" bson:"isActive"`
	NotificationsLog []NotificationEntry `json:"notificationsLog,omitempty" bson:"notificationsLog,omitempty"`
	CreatedBy        primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Scope ограничивает выборку отелей для платформенных операторов.
// CreatedBy == nil открывает все отели (главный супер-админ).
type Scope struct {
	CreatedBy *primitive.ObjectID
}

// All сообщает, что ограничение не задано.
func (s Scope) All() bool { return s.CreatedBy == nil }

// ScopeOf возвращает область видимости оператора: sub_super_admin видит только созданные им отели.
func ScopeOf(p *OperatorProfile) Scope {
	if p != nil && p.Role == RoleSubSuperAdmin {
		id := p.ID
		return Scope{CreatedBy: &id}
	}
	return Scope{}
}

// CreateHotelRequest данные создания отеля вместе с его администратором.
type CreateHotelRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	Slug          string `json:"slug" validate:"required,min=2,max=60,alphanum"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	Address       string `json:"address" validate:"omitempty,max=240"`
	Plan          string `json:"plan" validate:"omitempty,max=32"`
	AdminName     string `json:"admin_name" validate:"required,min=2,max=120"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required,min=8"`
}

// UpdateStatusRequest смена статуса подписки отеля.
type UpdateStatusRequest struct {
	Status SubscriptionStatus `json:"status" validate:"required"`
}

// RenewRequest продление подписки; Days == 0 означает окно по умолчанию.
type RenewRequest struct {
	Days int `json:"days" validate:"omitempty,gte=1,lte=366"`
}

// MaintenanceResult итог одного прогона приостановки истекших отелей.
type MaintenanceResult struct {
	UpdatedCount int                  `json:"updatedCount"`
	AffectedIDs  []primitive.ObjectID `json:"affectedIds"`
}
