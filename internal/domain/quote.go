package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountTier string

const (
	TierNone       DiscountTier = ""
	TierMinimum    DiscountTier = "minimum"
	TierDouble     DiscountTier = "double"
	TierTriplePlus DiscountTier = "triple_plus"
)

// PriceQuote is the itemized price of a program for a number of sessions.
// Discount fields are percentages; a negative value is a premium.
type PriceQuote struct {
	ProgramID            int64
	BasePricePerSession  decimal.Decimal
	FinalPricePerSession decimal.Decimal
	SessionCount         int
	SessionTierDiscount  decimal.Decimal
	SettingDiscount      decimal.Decimal
	TimeOfDayDiscount    decimal.Decimal
	DayOfWeekDiscount    decimal.Decimal
	TotalDiscount        decimal.Decimal
	FinalTotal           decimal.Decimal
	Breakdown            string
	Tier                 DiscountTier
	TargetDate           *time.Time
	// Authoritative is false when the quote was produced in degraded mode.
	Authoritative bool
}
