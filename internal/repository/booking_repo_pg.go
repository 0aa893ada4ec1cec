package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// Update persists status fields if the stored version still matches
	// booking.Version, then advances booking.Version.
	Update(ctx context.Context, booking *domain.Booking) error
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, program_id, learner_id, parent_id, tutor_id, book_date, session_count, amount,
	approval_status, execution_status, decline_reason, notes, version, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings
		(program_id, learner_id, parent_id, book_date, session_count, amount, approval_status, execution_status, notes, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		RETURNING id, version, created_at, updated_at`,
		booking.ProgramID, booking.LearnerID, booking.ParentID, booking.BookDate, booking.SessionCount,
		booking.Amount, booking.Approval, booking.Execution, booking.Notes).
		Scan(&booking.ID, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("booking %d not found", id)
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `UPDATE bookings
		SET tutor_id=$1, approval_status=$2, execution_status=$3, decline_reason=$4, notes=$5,
		    version=version+1, updated_at=now()
		WHERE id=$6 AND version=$7
		RETURNING version, updated_at`,
		booking.TutorID, booking.Approval, booking.Execution, booking.DeclineReason, booking.Notes,
		booking.ID, booking.Version).
		Scan(&booking.Version, &booking.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrConcurrentModification
		}
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                   domain.Booking
		approval, execution string
	)
	if err := row.Scan(&b.ID, &b.ProgramID, &b.LearnerID, &b.ParentID, &b.TutorID, &b.BookDate, &b.SessionCount, &b.Amount,
		&approval, &execution, &b.DeclineReason, &b.Notes, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Approval = domain.ApprovalStatus(approval)
	b.Execution = domain.ExecutionStatus(execution)
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
