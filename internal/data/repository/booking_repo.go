package repository

import (
	"context"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingFilter struct {
	SalonID       uuid.UUID
	Status        entity.BookingStatus
	PaymentStatus entity.PaymentStatus
	Date          *time.Time
	Limit         int
	Offset        int
}

type BookingRepository interface {
	// Create inserts the booking and, when txn is not nil, its opening
	// transaction in one database transaction.
	Create(ctx context.Context, booking *entity.Booking, txn *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*entity.Booking, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindBySalon(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
	CountBySalon(ctx context.Context, filter BookingFilter) (int64, error)

	// FindActiveBySalonAndDate returns pending, confirmed and completed
	// bookings of the salon on date, ordered by start time. Callers decide
	// which pending rows still hold their slot.
	FindActiveBySalonAndDate(ctx context.Context, salonID uuid.UUID, date time.Time) ([]*entity.Booking, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus entity.PaymentStatus) error
	SetStatuses(ctx context.Context, id uuid.UUID, status entity.BookingStatus, paymentStatus entity.PaymentStatus) error
	AttachPayment(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, paymentID string, holdExpiresAt *time.Time) error
	// MarkPaid sets payment_status=completed and confirms a pending booking.
	MarkPaid(ctx context.Context, id uuid.UUID, method entity.PaymentMethod) error

	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error)
	// CancelExpired cancels the given bookings if they still match the
	// expiry criteria, together with their pending transactions, and
	// returns the ids that were cancelled.
	CancelExpired(ctx context.Context, ids []uuid.UUID, cutoff time.Time) ([]uuid.UUID, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, customer_id, salon_id, service_id, booking_date,
	to_char(booking_time, 'HH24:MI'), duration_minutes, customer_name, customer_email,
	customer_phone, notes, price, status, payment_status, payment_method, payment_id,
	hold_expires_at, created_at, updated_at`

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&b.SalonID,
		&b.ServiceID,
		&b.BookingDate,
		&b.BookingTime,
		&b.DurationMinutes,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&b.Notes,
		&b.Price,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentMethod,
		&b.PaymentID,
		&b.HoldExpiresAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking, txn *entity.Transaction) error {
	query := `
		INSERT INTO bookings (id, customer_id, salon_id, service_id, booking_date, booking_time,
		                      duration_minutes, customer_name, customer_email, customer_phone,
		                      notes, price, status, payment_status, payment_method, payment_id,
		                      hold_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::time, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19)
	`

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			booking.ID,
			booking.CustomerID,
			booking.SalonID,
			booking.ServiceID,
			booking.BookingDate,
			booking.BookingTime,
			booking.DurationMinutes,
			booking.CustomerName,
			booking.CustomerEmail,
			booking.CustomerPhone,
			booking.Notes,
			booking.Price,
			booking.Status,
			booking.PaymentStatus,
			booking.PaymentMethod,
			booking.PaymentID,
			booking.HoldExpiresAt,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create booking",
				zap.Error(err),
				zap.String("salon_id", booking.SalonID.String()),
				zap.String("customer_id", booking.CustomerID.String()),
			)
			return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
		}

		if txn != nil {
			if err := insertTransaction(ctx, tx, txn); err != nil {
				r.log.Error("Failed to create opening transaction",
					zap.Error(err),
					zap.String("booking_id", booking.ID.String()),
				)
				return err
			}
		}

		return nil
	})
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByPaymentID(ctx context.Context, paymentID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_id = $1 ORDER BY created_at DESC LIMIT 1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, paymentID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by payment ID",
			zap.Error(err),
			zap.String("payment_id", paymentID),
		)
		return nil, fmt.Errorf("find booking by payment ID %s: %w", paymentID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1
		ORDER BY booking_date DESC, booking_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by customer",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by customer %s: %w", customerID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE customer_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, customerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by customer",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return 0, fmt.Errorf("count bookings by customer %s: %w", customerID.String(), err)
	}

	return count, nil
}

func bookingWhere(filter BookingFilter) (string, []any) {
	args := []any{filter.SalonID}
	where := `WHERE salon_id = $1`

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		where += fmt.Sprintf(" AND booking_date = $%d", len(args))
	}

	return where, args
}

func (r *bookingRepository) FindBySalon(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error) {
	where, args := bookingWhere(filter)
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		%s
		ORDER BY booking_date DESC, booking_time DESC
		LIMIT $%d OFFSET $%d
	`, bookingColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings by salon",
			zap.Error(err),
			zap.String("salon_id", filter.SalonID.String()),
		)
		return nil, fmt.Errorf("find bookings by salon %s: %w", filter.SalonID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountBySalon(ctx context.Context, filter BookingFilter) (int64, error) {
	where, args := bookingWhere(filter)
	query := `SELECT COUNT(*) FROM bookings ` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by salon",
			zap.Error(err),
			zap.String("salon_id", filter.SalonID.String()),
		)
		return 0, fmt.Errorf("count bookings by salon %s: %w", filter.SalonID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindActiveBySalonAndDate(ctx context.Context, salonID uuid.UUID, date time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE salon_id = $1
		  AND booking_date = $2
		  AND status IN ('pending', 'confirmed', 'completed')
		ORDER BY booking_time
	`

	rows, err := r.db.Query(ctx, query, salonID, date)
	if err != nil {
		r.log.Error("Failed to find active bookings",
			zap.Error(err),
			zap.String("salon_id", salonID.String()),
			zap.Time("date", date),
		)
		return nil, fmt.Errorf("find active bookings of salon %s: %w", salonID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) exec(ctx context.Context, id uuid.UUID, action, query string, args ...any) error {
	result, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		r.log.Error("Failed to "+action,
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("%s %s: %w", action, id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	return r.exec(ctx, id, "update booking status",
		`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, status)
}

func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus entity.PaymentStatus) error {
	return r.exec(ctx, id, "update booking payment status",
		`UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`, paymentStatus)
}

func (r *bookingRepository) SetStatuses(ctx context.Context, id uuid.UUID, status entity.BookingStatus, paymentStatus entity.PaymentStatus) error {
	return r.exec(ctx, id, "update booking statuses",
		`UPDATE bookings SET status = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`,
		status, paymentStatus)
}

func (r *bookingRepository) AttachPayment(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, paymentID string, holdExpiresAt *time.Time) error {
	return r.exec(ctx, id, "attach booking payment",
		`UPDATE bookings
		 SET payment_method = $2, payment_id = $3, payment_status = 'pending',
		     hold_expires_at = $4, updated_at = NOW()
		 WHERE id = $1`,
		method, paymentID, holdExpiresAt)
}

func (r *bookingRepository) MarkPaid(ctx context.Context, id uuid.UUID, method entity.PaymentMethod) error {
	return r.exec(ctx, id, "mark booking paid",
		`UPDATE bookings
		 SET payment_status = 'completed',
		     payment_method = $2,
		     status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
		     hold_expires_at = NULL,
		     updated_at = NOW()
		 WHERE id = $1`,
		method)
}

const expiredPendingWhere = `
	status = 'pending'
	AND payment_status = 'pending'
	AND payment_method <> 'pay_later'
	AND created_at < $1
`

func (r *bookingRepository) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + expiredPendingWhere + ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to find expired pending bookings", zap.Error(err), zap.Time("cutoff", cutoff))
		return nil, fmt.Errorf("find expired pending bookings: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CancelExpired(ctx context.Context, ids []uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var cancelled []uuid.UUID
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE bookings
			SET status = 'cancelled', updated_at = NOW()
			WHERE id = ANY($2) AND `+expiredPendingWhere+`
			RETURNING id`, cutoff, ids)
		if err != nil {
			r.log.Error("Failed to cancel expired bookings", zap.Error(err), zap.Int("candidates", len(ids)))
			return fmt.Errorf("cancel expired bookings: %w", err)
		}
		cancelled, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("collect cancelled bookings: %w", err)
		}
		if len(cancelled) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions
			SET status = 'cancelled', updated_at = NOW()
			WHERE booking_id = ANY($1) AND status = 'pending'`, cancelled)
		if err != nil {
			r.log.Error("Failed to cancel transactions of expired bookings", zap.Error(err))
			return fmt.Errorf("cancel transactions of expired bookings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}
