package models

import "time"

// Действия, записываемые в журнал аудита.
const (
	ActionLogin           = "auth.login"
	ActionHotelCreate     = "hotel.create"
	ActionHotelStatus     = "hotel.status_update"
	ActionHotelRenew      = "hotel.renew"
	ActionMaintenanceRun  = "subscription.maintenance"
	ActionOperatorCreate  = "operator.create"
	ActionOperatorVerify  = "operator.verify"
	ActionOperatorActive  = "operator.set_active"
	ActionStaffCreate     = "staff.create"
	ActionSettingsUpdate  = "settings.update"
	ActionRoomCreate      = "room.create"
	ActionRoomUpdate      = "room.update"
	ActionRoomDelete      = "room.delete"
	ActionGuestCreate     = "guest.create"
	ActionGuestUpdate     = "guest.update"
	ActionGuestDelete     = "guest.delete"
	ActionBookingCreate   = "booking.create"
	ActionBookingCancel   = "booking.cancel"
	ActionAlertsViewed    = "alerts.view"
	ActionRiskViewed      = "risk.view"
	ActionAuditLogsViewed = "audit.view"
)

// SensitiveActions действия, учитываемые в риск-оценке как чувствительные.
var SensitiveActions = []string{
	ActionHotelCreate,
	ActionHotelStatus,
	ActionHotelRenew,
	ActionMaintenanceRun,
	ActionOperatorCreate,
	ActionOperatorVerify,
	ActionOperatorActive,
	ActionStaffCreate,
	ActionSettingsUpdate,
	ActionRoomDelete,
	ActionGuestDelete,
}

// AuditLog неизменяемая запись журнала действий оператора.
type AuditLog struct {
	ID            string         `json:"id"`
	ActorID       string         `json:"actorId"`
	ActorRole     Role           `json:"actorRole"`
	Action        string         `json:"action"`
	EntityType    string         `json:"entityType"`
	EntityID      string         `json:"entityId,omitempty"`
	TargetUserID  string         `json:"targetUserId,omitempty"`
	TargetHotelID string         `json:"targetHotelId,omitempty"`
	IPAddress     string         `json:"ipAddress"`
	UserAgent     string         `json:"userAgent"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// AuditFilter условия выборки журнала. HotelIDs == nil и ActorScope == "" снимают ограничения.
type AuditFilter struct {
	Action     string
	ActorID    string
	HotelIDs   []string
	ActorScope string
	Limit      int
	Offset     int
}

// OperatorActivity агрегаты журнала по одному оператору.
type OperatorActivity struct {
	ActorID        string
	Operations24h  int
	SensitiveTotal int
	LastActivityAt *time.Time
}

// Actor инициатор действия для журнала аудита.
type Actor struct {
	ID        string
	Role      Role
	IP        string
	UserAgent string
}

// SystemActor инициатор фоновых задач.
var SystemActor = Actor{ID: "system", Role: "system"}

// Entry создаёт запись журнала от имени инициатора.
func (a Actor) Entry(action, entityType string) AuditLog {
	return AuditLog{
		ActorID:    a.ID,
		ActorRole:  a.Role,
		Action:     action,
		EntityType: entityType,
		IPAddress:  a.IP,
		UserAgent:  a.UserAgent,
		Metadata:   map[string]any{},
	}
}
