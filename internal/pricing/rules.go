package pricing

import (
	"fmt"
	"time"

	"github.com/Domenick1991/tutorbooking/config"
	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/shopspring/decimal"
)

// Rules holds the configured discount magnitudes. Only the session tier
// percentages have fixed defaults; the rest are business configuration.
type Rules struct {
	DoubleTierPercent     decimal.Decimal
	TriplePlusTierPercent decimal.Decimal
	OnlinePercent         decimal.Decimal
	OffPeakPercent        decimal.Decimal
	PeakPremiumPercent    decimal.Decimal
	WeekdayPercent        decimal.Decimal
	WeekendPremiumPercent decimal.Decimal
	// Peak window as offsets from midnight, [PeakStart, PeakEnd).
	PeakStart time.Duration
	PeakEnd   time.Duration
}

// DefaultRules carries the 3% and 5% session tier discounts and no other
// adjustment.
func DefaultRules() Rules {
	return Rules{
		DoubleTierPercent:     decimal.NewFromInt(3),
		TriplePlusTierPercent: decimal.NewFromInt(5),
	}
}

func NewRules(cfg config.PricingConfig) (Rules, error) {
	rules := DefaultRules()
	if cfg.DoubleTierPercent > 0 {
		rules.DoubleTierPercent = decimal.NewFromFloat(cfg.DoubleTierPercent)
	}
	if cfg.TriplePlusTierPercent > 0 {
		rules.TriplePlusTierPercent = decimal.NewFromFloat(cfg.TriplePlusTierPercent)
	}
	rules.OnlinePercent = decimal.NewFromFloat(cfg.OnlinePercent)
	rules.OffPeakPercent = decimal.NewFromFloat(cfg.OffPeakPercent)
	rules.PeakPremiumPercent = decimal.NewFromFloat(cfg.PeakPremiumPercent)
	rules.WeekdayPercent = decimal.NewFromFloat(cfg.WeekdayPercent)
	rules.WeekendPremiumPercent = decimal.NewFromFloat(cfg.WeekendPremiumPercent)

	var err error
	if cfg.PeakStart != "" {
		if rules.PeakStart, err = ParseClock(cfg.PeakStart); err != nil {
			return Rules{}, fmt.Errorf("peak_start: %w", err)
		}
	}
	if cfg.PeakEnd != "" {
		if rules.PeakEnd, err = ParseClock(cfg.PeakEnd); err != nil {
			return Rules{}, fmt.Errorf("peak_end: %w", err)
		}
	}
	return rules, nil
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// SessionTier keys the discount to multiples of the program minimum.
func (r Rules) SessionTier(minSessions, sessionCount int) (domain.DiscountTier, decimal.Decimal) {
	switch {
	case sessionCount >= 3*minSessions:
		return domain.TierTriplePlus, r.TriplePlusTierPercent
	case sessionCount >= 2*minSessions:
		return domain.TierDouble, r.DoubleTierPercent
	default:
		return domain.TierMinimum, decimal.Zero
	}
}

// Adjustments evaluates every factor. Time of day and day of week are
// neutral without a target date.
func (r Rules) Adjustments(program domain.Program, sessionCount int, targetDate *time.Time) Adjustments {
	tier, tierPct := r.SessionTier(program.MinSessions, sessionCount)
	adj := Adjustments{
		Tier:        tier,
		SessionTier: tierPct,
		Setting:     decimal.Zero,
		TimeOfDay:   decimal.Zero,
		DayOfWeek:   decimal.Zero,
	}
	if program.Setting == domain.SettingOnline {
		adj.Setting = r.OnlinePercent
	}
	if targetDate == nil {
		return adj
	}

	if r.isPeak(program.StartTime) {
		adj.TimeOfDay = r.PeakPremiumPercent.Neg()
	} else {
		adj.TimeOfDay = r.OffPeakPercent
	}

	switch targetDate.Weekday() {
	case time.Saturday, time.Sunday:
		adj.DayOfWeek = r.WeekendPremiumPercent.Neg()
	default:
		adj.DayOfWeek = r.WeekdayPercent
	}
	return adj
}

func (r Rules) isPeak(start time.Duration) bool {
	if r.PeakEnd <= r.PeakStart {
		return false
	}
	return start >= r.PeakStart && start < r.PeakEnd
}
