package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Severity важность предупреждения о подписке.
type Severity string

const (
	SeverityExpired  Severity = "expired"
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank порядок сортировки: меньше значит важнее.
func (s Severity) Rank() int {
	switch s {
	case SeverityExpired:
		return 0
	case SeverityCritical:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

// Alert предупреждение об истекающей или истекшей подписке отеля.
type Alert struct {
	HotelID       primitive.ObjectID `json:"hotelId"`
	HotelName     string             `json:"hotelName"`
	Slug          string             `json:"slug"`
	Email         string             `json:"email"`
	EndDate       time.Time          `json:"endDate"`
	DaysRemaining int                `json:"daysRemaining"`
	Severity      Severity           `json:"severity"`
	Status        SubscriptionStatus `json:"status"`
	IsActive      bool               `json:"isActive"`
	Owner         OwnerContact       `json:"owner"`
}

// AlertSummary счётчики предупреждений по важности.
type AlertSummary struct {
	Total    int `json:"total"`
	Expired  int `json:"expired"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// AlertReport ответ на запрос предупреждений.
type AlertReport struct {
	WindowDays  int                `json:"windowDays"`
	Summary     AlertSummary       `json:"summary"`
	Alerts      []Alert            `json:"alerts"`
	Maintenance *MaintenanceResult `json:"maintenance,omitempty"`
}

// RiskLevel уровень риска оператора.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskStats входные данные риск-оценки. SinceLastActivity == nil, если активности не было.
type RiskStats struct {
	IsVerified          bool           `json:"isVerified"`
	IsActive            bool           `json:"isActive"`
	AccountAge          time.Duration  `json:"-"`
	Operations24h       int            `json:"operations24h"`
	SensitiveOperations int            `json:"sensitiveOperations"`
	SinceLastActivity   *time.Duration `json:"-"`
}

// RiskScore результат риск-оценки.
type RiskScore struct {
	Score int       `json:"score"`
	Level RiskLevel `json:"level"`
	Flags []string  `json:"flags"`
}

// OperatorRisk строка отчёта риск-монитора.
type OperatorRisk struct {
	OperatorID     primitive.ObjectID `json:"operatorId"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Role           Role               `json:"role"`
	IsActive       bool               `json:"isActive"`
	IsVerified     bool               `json:"isVerified"`
	Operations24h  int                `json:"operations24h"`
	SensitiveTotal int                `json:"sensitiveTotal"`
	LastActivityAt *time.Time         `json:"lastActivityAt,omitempty"`
	Risk           RiskScore          `json:"risk"`
}

// ExpiryNotice сообщение в очередь уведомлений о подписке.
type ExpiryNotice struct {
	Kind          string    `json:"kind"`
	HotelID       string    `json:"hotel_id"`
	HotelName     string    `json:"hotel_name"`
	Email         string    `json:"email"`
	OwnerEmail    string    `json:"owner_email"`
	EndDate       time.Time `json:"end_date"`
	DaysRemaining int       `json:"days_remaining"`
	Severity      Severity  `json:"severity"`
}

// Виды уведомлений.
const (
	NoticeExpiring  = "expiring"
	NoticeSuspended = "suspended"
)
