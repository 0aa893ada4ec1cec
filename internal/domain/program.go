package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Setting string

const (
	SettingHub    Setting = "hub"
	SettingOnline Setting = "online"
)

// Program is a bookable offering. StartTime and EndTime are offsets from
// midnight.
type Program struct {
	ID          int64
	Name        string
	BasePrice   decimal.Decimal
	MinSessions int
	Setting     Setting
	Days        []string
	StartTime   time.Duration
	EndTime     time.Duration
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Tutor struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
