// Package services оценивает риск платформенных операторов по журналу аудита.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/hotel-console/internal/models"
)

// Флаги риск-оценки.
const (
	FlagUnverified       = "unverified_account"
	FlagExtremeActivity  = "extreme_24h_activity"
	FlagHighActivity     = "high_24h_activity"
	FlagElevatedActivity = "elevated_24h_activity"
	FlagHeavySensitive   = "heavy_sensitive_actions"
	FlagSensitive        = "sensitive_actions"
	FlagSomeSensitive    = "some_sensitive_actions"
	FlagInactive         = "inactive_account"
	FlagNewAccountBurst  = "new_account_burst"
	FlagNoActivity       = "no_activity"
	FlagStaleActivity    = "stale_activity"
)

const (
	highLevelScore   = 70
	mediumLevelScore = 35

	newAccountAge   = 7 * 24 * time.Hour
	newAccountBurst = 20
	staleAfter      = 45 * 24 * time.Hour
)

type tier struct {
	min    int
	weight int
	flag   string
}

// Пороговые ступени проверяются сверху вниз, срабатывает только первая.
var (
	activityTiers = []tier{
		{min: 80, weight: 35, flag: FlagExtremeActivity},
		{min: 40, weight: 25, flag: FlagHighActivity},
		{min: 20, weight: 12, flag: FlagElevatedActivity},
	}
	sensitiveTiers = []tier{
		{min: 8, weight: 30, flag: FlagHeavySensitive},
		{min: 4, weight: 18, flag: FlagSensitive},
		{min: 1, weight: 8, flag: FlagSomeSensitive},
	}
)

func matchTier(tiers []tier, v int) (tier, bool) {
	for _, t := range tiers {
		if v >= t.min {
			return t, true
		}
	}
	return tier{}, false
}

// Score вычисляет балл, уровень и флаги риска. Функция чистая.
func Score(s models.RiskStats) models.RiskScore {
	res := models.RiskScore{Flags: []string{}}
	add := func(weight int, flag string) {
		res.Score += weight
		res.Flags = append(res.Flags, flag)
	}

	if !s.IsVerified {
		add(30, FlagUnverified)
	}
	if t, ok := matchTier(activityTiers, s.Operations24h); ok {
		add(t.weight, t.flag)
	}
	if t, ok := matchTier(sensitiveTiers, s.SensitiveOperations); ok {
		add(t.weight, t.flag)
	}
	if !s.IsActive {
		add(8, FlagInactive)
	}
	if s.AccountAge < newAccountAge && s.Operations24h > newAccountBurst {
		add(10, FlagNewAccountBurst)
	}
	switch {
	case s.SinceLastActivity == nil:
		add(6, FlagNoActivity)
	case *s.SinceLastActivity > staleAfter:
		add(6, FlagStaleActivity)
	}

	switch {
	case res.Score >= highLevelScore:
		res.Level = models.RiskHigh
	case res.Score >= mediumLevelScore:
		res.Level = models.RiskMedium
	default:
		res.Level = models.RiskLow
	}
	return res
}

// OperatorRepository источник платформенных операторов.
type OperatorRepository interface {
	ListPlatformOperators(ctx context.Context, roles ...models.Role) ([]models.User, error)
}

// ActivityRepository агрегаты журнала аудита.
type ActivityRepository interface {
	OperatorActivity(ctx context.Context, actorIDs, sensitive []string, since time.Time) (map[string]models.OperatorActivity, error)
}

// Monitor строит риск-отчёт по саб-админам платформы.
type Monitor struct {
	operators OperatorRepository
	activity  ActivityRepository
	log       *slog.Logger
	now       func() time.Time
}

// NewMonitor создает Monitor.
func NewMonitor(operators OperatorRepository, activity ActivityRepository, log *slog.Logger) *Monitor {
	return &Monitor{
		operators: operators,
		activity:  activity,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает оценки всех саб-админов, самые рискованные первыми.
func (m *Monitor) List(ctx context.Context) ([]models.OperatorRisk, error) {
	const op = "risk.List"

	users, err := m.operators.ListPlatformOperators(ctx, models.RoleSubSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID.Hex())
	}

	now := m.now()
	activity, err := m.activity.OperatorActivity(ctx, ids, models.SensitiveActions, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]models.OperatorRisk, 0, len(users))
	for _, u := range users {
		a := activity[u.ID.Hex()]
		stats := models.RiskStats{
			IsVerified:          u.Verification.IsVerified,
			IsActive:            u.IsActive,
			AccountAge:          now.Sub(u.CreatedAt),
			Operations24h:       a.Operations24h,
			SensitiveOperations: a.SensitiveTotal,
		}
		if a.LastActivityAt != nil {
			since := now.Sub(*a.LastActivityAt)
			stats.SinceLastActivity = &since
		}
		res = append(res, models.OperatorRisk{
			OperatorID:     u.ID,
			Name:           u.Name,
			Email:          u.Email,
			Role:           u.Role,
			IsActive:       u.IsActive,
			IsVerified:     u.Verification.IsVerified,
			Operations24h:  a.Operations24h,
			SensitiveTotal: a.SensitiveTotal,
			LastActivityAt: a.LastActivityAt,
			Risk:           Score(stats),
		})
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Risk.Score > res[j].Risk.Score
	})
	m.log.Debug("risk report built", slog.Int("operators", len(res)))
	return res, nil
}
