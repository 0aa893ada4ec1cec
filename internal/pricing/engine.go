package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Adjustments are the four independent price factors, in percent. A negative
// value is a premium.
type Adjustments struct {
	Tier        domain.DiscountTier
	SessionTier decimal.Decimal
	Setting     decimal.Decimal
	TimeOfDay   decimal.Decimal
	DayOfWeek   decimal.Decimal
}

func (a Adjustments) Total() decimal.Decimal {
	total := a.SessionTier.Add(a.Setting).Add(a.TimeOfDay).Add(a.DayOfWeek)
	if total.GreaterThan(hundred) {
		return hundred
	}
	if total.LessThan(hundred.Neg()) {
		return hundred.Neg()
	}
	return total
}

func ValidateRequest(program domain.Program, sessionCount int) error {
	if program.MinSessions < 1 {
		return domain.Validationf("program %d has invalid minimum sessions %d", program.ID, program.MinSessions)
	}
	if !program.BasePrice.IsPositive() {
		return domain.Validationf("program %d has non-positive base price", program.ID)
	}
	if sessionCount < program.MinSessions {
		return domain.Validationf("session count %d is below program minimum %d", sessionCount, program.MinSessions)
	}
	return nil
}

// Compose applies the summed adjustments once to the subtotal. The total is
// rounded half-up to the minor unit exactly once; the per-session price is
// rounded separately and only informs display.
func Compose(program domain.Program, sessionCount int, targetDate *time.Time, adj Adjustments, authoritative bool) (domain.PriceQuote, error) {
	if err := ValidateRequest(program, sessionCount); err != nil {
		return domain.PriceQuote{}, err
	}

	total := adj.Total()
	keep := hundred.Sub(total)
	subtotal := program.BasePrice.Mul(decimal.NewFromInt(int64(sessionCount)))
	finalTotal := subtotal.Mul(keep).Div(hundred).Round(2)
	perSession := program.BasePrice.Mul(keep).Div(hundred).Round(2)

	var date *time.Time
	if targetDate != nil {
		d := *targetDate
		date = &d
	}

	return domain.PriceQuote{
		ProgramID:            program.ID,
		BasePricePerSession:  program.BasePrice,
		FinalPricePerSession: perSession,
		SessionCount:         sessionCount,
		SessionTierDiscount:  adj.SessionTier,
		SettingDiscount:      adj.Setting,
		TimeOfDayDiscount:    adj.TimeOfDay,
		DayOfWeekDiscount:    adj.DayOfWeek,
		TotalDiscount:        total,
		FinalTotal:           finalTotal,
		Breakdown:            breakdown(program, sessionCount, subtotal, adj, total, finalTotal),
		Tier:                 adj.Tier,
		TargetDate:           date,
		Authoritative:        authoritative,
	}, nil
}

func breakdown(program domain.Program, n int, subtotal decimal.Decimal, adj Adjustments, total, finalTotal decimal.Decimal) string {
	parts := []string{fmt.Sprintf("%d sessions x %s = %s", n, program.BasePrice.StringFixed(2), subtotal.StringFixed(2))}
	factors := []struct {
		label string
		pct   decimal.Decimal
	}{
		{"session tier " + tierLabel(adj.Tier), adj.SessionTier},
		{"setting " + string(program.Setting), adj.Setting},
		{"time of day", adj.TimeOfDay},
		{"day of week", adj.DayOfWeek},
	}
	for _, f := range factors {
		switch {
		case f.pct.IsPositive():
			parts = append(parts, fmt.Sprintf("%s: %s%% off", f.label, f.pct.String()))
		case f.pct.IsNegative():
			parts = append(parts, fmt.Sprintf("%s: %s%% premium", f.label, f.pct.Neg().String()))
		}
	}
	parts = append(parts, fmt.Sprintf("total adjustment %s%% = %s", total.String(), finalTotal.StringFixed(2)))
	return strings.Join(parts, "; ")
}

func tierLabel(t domain.DiscountTier) string {
	if t == domain.TierNone {
		return "none"
	}
	return string(t)
}
