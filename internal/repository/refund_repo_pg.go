package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type RefundRepository interface {
	Create(ctx context.Context, refund *domain.RefundRequest) error
	GetByID(ctx context.Context, id int64) (*domain.RefundRequest, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.RefundRequest, error)
	// Decide stores a decision only if the request is still pending. A second
	// approval for the same booking fails with domain.ErrPreconditionFailed.
	Decide(ctx context.Context, refund *domain.RefundRequest) error
}

type PGRefundRepository struct {
	db DB
}

func NewRefundRepository(db DB) RefundRepository {
	return &PGRefundRepository{db: db}
}

const refundColumns = `id, booking_id, reason, amount, status, admin_notes, created_at, decided_at`

func (r *PGRefundRepository) Create(ctx context.Context, refund *domain.RefundRequest) error {
	err := r.db.QueryRow(ctx, `INSERT INTO refund_requests (booking_id, reason, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		refund.BookingID, refund.Reason, refund.Amount, refund.Status).
		Scan(&refund.ID, &refund.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Preconditionf("booking %d already has a pending refund request", refund.BookingID)
		}
		return fmt.Errorf("create refund request: %w", err)
	}
	return nil
}

func (r *PGRefundRepository) GetByID(ctx context.Context, id int64) (*domain.RefundRequest, error) {
	refund, err := scanRefund(r.db.QueryRow(ctx, `SELECT `+refundColumns+` FROM refund_requests WHERE id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("refund request %d not found", id)
		}
		return nil, fmt.Errorf("get refund request: %w", err)
	}
	return refund, nil
}

func (r *PGRefundRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.RefundRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+refundColumns+` FROM refund_requests WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list refund requests: %w", err)
	}
	defer rows.Close()

	refunds := make([]domain.RefundRequest, 0)
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refund request: %w", err)
		}
		refunds = append(refunds, *refund)
	}
	return refunds, rows.Err()
}

func (r *PGRefundRepository) Decide(ctx context.Context, refund *domain.RefundRequest) error {
	cmd, err := r.db.Exec(ctx, `UPDATE refund_requests SET status=$1, admin_notes=$2, decided_at=$3
		WHERE id=$4 AND status=$5`,
		refund.Status, refund.AdminNotes, refund.DecidedAt, refund.ID, domain.RefundPending)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Preconditionf("booking %d already has an approved refund", refund.BookingID)
		}
		return fmt.Errorf("decide refund request: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.TransitionError{Axis: "refund", From: "decided", To: string(refund.Status)}
	}
	return nil
}

func scanRefund(row pgx.Row) (*domain.RefundRequest, error) {
	var (
		refund domain.RefundRequest
		status string
	)
	if err := row.Scan(&refund.ID, &refund.BookingID, &refund.Reason, &refund.Amount, &status, &refund.AdminNotes, &refund.CreatedAt, &refund.DecidedAt); err != nil {
		return nil, err
	}
	refund.Status = domain.RefundStatus(status)
	return &refund, nil
}

var _ RefundRepository = (*PGRefundRepository)(nil)
