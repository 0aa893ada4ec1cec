package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tutorbooking/internal/domain"
)

// ReceiptRepository is append-only: there is no update or delete.
type ReceiptRepository interface {
	// Append inserts the receipt and bumps the booking version in one
	// transaction. It fails with domain.ErrConcurrentModification if the
	// booking changed since bookingVersion was read, and returns the new
	// version otherwise.
	Append(ctx context.Context, bookingVersion int64, receipt *domain.Receipt) (int64, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Receipt, error)
}

type PGReceiptRepository struct {
	db DB
}

func NewReceiptRepository(db DB) ReceiptRepository {
	return &PGReceiptRepository{db: db}
}

func (r *PGReceiptRepository) Append(ctx context.Context, bookingVersion int64, receipt *domain.Receipt) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin receipt tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var version int64
	err = tx.QueryRow(ctx, `UPDATE bookings SET version=version+1, updated_at=now()
		WHERE id=$1 AND version=$2 RETURNING version`, receipt.BookingID, bookingVersion).Scan(&version)
	if err != nil {
		if isNoRows(err) {
			return 0, domain.ErrConcurrentModification
		}
		return 0, fmt.Errorf("bump booking version: %w", err)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO receipts (booking_id, amount, payment_type, method, paid_at, proof_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		receipt.BookingID, receipt.Amount, receipt.Type, receipt.Method, receipt.PaidAt, receipt.ProofRef, receipt.Status).
		Scan(&receipt.ID, &receipt.CreatedAt); err != nil {
		return 0, fmt.Errorf("insert receipt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit receipt: %w", err)
	}
	return version, nil
}

func (r *PGReceiptRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Receipt, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, amount, payment_type, method, paid_at, proof_ref, status, created_at
		FROM receipts WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]domain.Receipt, 0)
	for rows.Next() {
		var (
			rc          domain.Receipt
			typ, status string
		)
		if err := rows.Scan(&rc.ID, &rc.BookingID, &rc.Amount, &typ, &rc.Method, &rc.PaidAt, &rc.ProofRef, &status, &rc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		rc.Type = domain.ReceiptType(typ)
		rc.Status = domain.ReceiptStatus(status)
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

var _ ReceiptRepository = (*PGReceiptRepository)(nil)
