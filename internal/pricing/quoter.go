package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"go.uber.org/zap"
)

// Quoter prices through a primary source and falls back to StaticSource when
// the primary is unavailable. Fallback quotes are marked non-authoritative.
type Quoter struct {
	primary  PricingSource
	fallback PricingSource
	timeout  time.Duration
	logger   *zap.Logger
}

func NewQuoter(primary PricingSource, timeout time.Duration, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{
		primary:  primary,
		fallback: StaticSource{},
		timeout:  timeout,
		logger:   logger,
	}
}

func (q *Quoter) Quote(ctx context.Context, program domain.Program, sessionCount int, targetDate *time.Time) (domain.PriceQuote, error) {
	if err := ValidateRequest(program, sessionCount); err != nil {
		return domain.PriceQuote{}, err
	}

	adj, err := q.fromPrimary(ctx, program, sessionCount, targetDate)
	if err == nil {
		return Compose(program, sessionCount, targetDate, adj, true)
	}
	if !errors.Is(err, domain.ErrExternalServiceUnavailable) {
		return domain.PriceQuote{}, err
	}

	q.logger.Warn("pricing source unavailable, quoting without discounts",
		zap.Int64("program_id", program.ID),
		zap.Int("session_count", sessionCount),
		zap.Error(err),
	)
	adj, err = q.fallback.Adjustments(ctx, program, sessionCount, targetDate)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	return Compose(program, sessionCount, targetDate, adj, false)
}

func (q *Quoter) fromPrimary(ctx context.Context, program domain.Program, sessionCount int, targetDate *time.Time) (Adjustments, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	adj, err := q.primary.Adjustments(ctx, program, sessionCount, targetDate)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return Adjustments{}, domain.Unavailablef("pricing source timed out: %v", err)
	}
	return adj, err
}
