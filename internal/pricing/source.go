package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// PricingSource supplies the adjustments Compose turns into a quote.
type PricingSource interface {
	Adjustments(ctx context.Context, program domain.Program, sessionCount int, targetDate *time.Time) (Adjustments, error)
}

// RulesSource evaluates the locally configured rules.
type RulesSource struct {
	rules Rules
}

func NewRulesSource(rules Rules) *RulesSource {
	return &RulesSource{rules: rules}
}

func (s *RulesSource) Adjustments(_ context.Context, program domain.Program, sessionCount int, targetDate *time.Time) (Adjustments, error) {
	return s.rules.Adjustments(program, sessionCount, targetDate), nil
}

// StaticSource is the degraded-mode source: no discount of any kind.
type StaticSource struct{}

func (StaticSource) Adjustments(context.Context, domain.Program, int, *time.Time) (Adjustments, error) {
	return Adjustments{
		Tier:        domain.TierNone,
		SessionTier: decimal.Zero,
		Setting:     decimal.Zero,
		TimeOfDay:   decimal.Zero,
		DayOfWeek:   decimal.Zero,
	}, nil
}

// RemoteSource asks the external pricing service for the adjustments. Any
// failure to obtain a complete answer is reported as
// domain.ErrExternalServiceUnavailable.
type RemoteSource struct {
	baseURL string
	client  *http.Client
}

func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	return &RemoteSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *RemoteSource) Adjustments(ctx context.Context, program domain.Program, sessionCount int, targetDate *time.Time) (Adjustments, error) {
	q := url.Values{}
	q.Set("prog_id", strconv.FormatInt(program.ID, 10))
	q.Set("session_count", strconv.Itoa(sessionCount))
	if targetDate != nil {
		q.Set("date", targetDate.Format(time.DateOnly))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return Adjustments{}, fmt.Errorf("build pricing request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Adjustments{}, domain.Unavailablef("pricing service: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Adjustments{}, domain.Unavailablef("read pricing response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Adjustments{}, domain.Unavailablef("pricing service returned %d", resp.StatusCode)
	}
	return parseRemoteAdjustments(body)
}

func parseRemoteAdjustments(body []byte) (Adjustments, error) {
	if !gjson.ValidBytes(body) {
		return Adjustments{}, domain.Unavailablef("pricing service returned malformed json")
	}

	fields := gjson.GetManyBytes(body,
		"discount_tier",
		"discounts.session_tier",
		"discounts.setting",
		"discounts.time_of_day",
		"discounts.day_of_week",
	)
	for i, f := range fields[1:] {
		if f.Type != gjson.Number {
			return Adjustments{}, domain.Unavailablef("pricing response field %d is missing or not a number", i+1)
		}
	}

	tier := domain.DiscountTier(fields[0].String())
	if tier == "none" {
		tier = domain.TierNone
	}
	switch tier {
	case domain.TierNone, domain.TierMinimum, domain.TierDouble, domain.TierTriplePlus:
	default:
		return Adjustments{}, domain.Unavailablef("pricing service returned unknown tier %q", tier)
	}

	var adj Adjustments
	adj.Tier = tier
	targets := []*decimal.Decimal{&adj.SessionTier, &adj.Setting, &adj.TimeOfDay, &adj.DayOfWeek}
	for i, target := range targets {
		v, err := decimal.NewFromString(fields[i+1].Raw)
		if err != nil {
			return Adjustments{}, domain.Unavailablef("pricing response: %v", err)
		}
		*target = v
	}
	return adj, nil
}
