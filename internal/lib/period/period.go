// Package period содержит чистые функции расчёта сроков подписки отеля.
//
// Все моменты времени нормализуются в UTC, дни считаются календарными
// через time.AddDate, поэтому переходы на летнее время не влияют на результат.
package period

import (
	"math"
	"time"
)

// RenewalWindowDays длительность подписки по умолчанию при создании отеля и продлении.
const RenewalWindowDays = 30

// Day длина суток для расчёта оставшихся дней.
const Day = 24 * time.Hour

// AddDays возвращает момент через n календарных дней после date.
func AddDays(date time.Time, n int) time.Time {
	return date.UTC().AddDate(0, 0, n)
}

// IsSubscriptionExpired сообщает, истекла ли подписка относительно текущего момента.
// nil (бессрочная или пробная подписка) никогда не считается истекшей.
func IsSubscriptionExpired(endDate *time.Time) bool {
	return IsExpiredAt(endDate, time.Now())
}

// IsExpiredAt то же, что IsSubscriptionExpired, но относительно now.
func IsExpiredAt(endDate *time.Time, now time.Time) bool {
	if endDate == nil {
		return false
	}
	return endDate.Before(now)
}

// DaysRemaining возвращает ceil((endDate - now) / 1 день).
// Для истекших подписок значение отрицательное или ноль.
func DaysRemaining(endDate, now time.Time) int {
	diff := endDate.Sub(now)
	return int(math.Ceil(float64(diff) / float64(Day)))
}
