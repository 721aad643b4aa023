package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type TransactionFilter struct {
	SalonID uuid.UUID
	Status  entity.TransactionStatus
	Limit   int
	Offset  int
}

// TransactionSummary aggregates a salon's transactions.
type TransactionSummary struct {
	TotalRevenue      float64
	PendingPayments   float64
	TotalPlatformFees float64
	TransactionCount  int64
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByProviderID(ctx context.Context, providerID string) (*entity.Transaction, error)
	FindPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Transaction, error)
	FindCompletedPayment(ctx context.Context, bookingID uuid.UUID) (*entity.Transaction, error)
	UpdateProvider(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, providerID string) error

	// MarkCompleted moves a pending or processing transaction to completed.
	// applied is false when the transaction was already in another state.
	MarkCompleted(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, providerTxnID string, metadata map[string]any) (applied bool, err error)
	// SettleLate moves a cancelled or failed transaction whose payment the
	// provider captured anyway to status (completed or refunded). applied is
	// false when another request settled it first.
	SettleLate(ctx context.Context, id uuid.UUID, status entity.TransactionStatus, method entity.PaymentMethod, providerTxnID string, metadata map[string]any) (applied bool, err error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (applied bool, err error)
	FailPendingByBooking(ctx context.Context, bookingID uuid.UUID, reason string) (int64, error)
	CancelPendingByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) (applied bool, err error)

	ListBySalon(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error)
	CountBySalon(ctx context.Context, filter TransactionFilter) (int64, error)
	SummaryBySalon(ctx context.Context, salonID uuid.UUID) (*TransactionSummary, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Transaction, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type transactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactionRepository(db database.PgxIface, log *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "transaction")),
	}
}

const transactionColumns = `id, booking_id, customer_id, salon_id, transaction_type, amount, currency,
	status, payment_method, payment_provider_id, payment_provider_transaction_id, platform_fee,
	salon_payout, description, metadata, processed_at, created_at, updated_at`

func scanTransaction(row rowScanner) (*entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(
		&t.ID,
		&t.BookingID,
		&t.CustomerID,
		&t.SalonID,
		&t.Type,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.PaymentMethod,
		&t.ProviderID,
		&t.ProviderTransactionID,
		&t.PlatformFee,
		&t.SalonPayout,
		&t.Description,
		&t.Metadata,
		&t.ProcessedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTransaction(ctx context.Context, db execer, t *entity.Transaction) error {
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}

	query := `
		INSERT INTO transactions (id, booking_id, customer_id, salon_id, transaction_type, amount,
		                          currency, status, payment_method, payment_provider_id,
		                          payment_provider_transaction_id, platform_fee, salon_payout,
		                          description, metadata, processed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18)
	`

	_, err := db.Exec(ctx, query,
		t.ID,
		t.BookingID,
		t.CustomerID,
		t.SalonID,
		t.Type,
		t.Amount,
		t.Currency,
		t.Status,
		t.PaymentMethod,
		t.ProviderID,
		t.ProviderTransactionID,
		t.PlatformFee,
		t.SalonPayout,
		t.Description,
		t.Metadata,
		t.ProcessedAt,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transaction for booking %s: %w", t.BookingID.String(), err)
	}

	return nil
}

func (r *transactionRepository) collect(rows pgx.Rows) ([]*entity.Transaction, error) {
	defer rows.Close()

	var txns []*entity.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.log.Error("Failed to scan transaction row", zap.Error(err))
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txns, nil
}

func (r *transactionRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Transaction, error) {
	txn, err := scanTransaction(r.db.QueryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	if err := insertTransaction(ctx, r.db, txn); err != nil {
		r.log.Error("Failed to create transaction",
			zap.Error(err),
			zap.String("booking_id", txn.BookingID.String()),
			zap.String("type", string(txn.Type)),
		)
		return err
	}
	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	txn, err := r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to find transaction", zap.Error(err), zap.String("transaction_id", id.String()))
		return nil, fmt.Errorf("find transaction %s: %w", id.String(), err)
	}
	return txn, nil
}

func (r *transactionRepository) FindByProviderID(ctx context.Context, providerID string) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payment_provider_id = $1 AND transaction_type = 'payment'
		ORDER BY created_at DESC
		LIMIT 1
	`

	txn, err := r.findOne(ctx, query, providerID)
	if err != nil {
		r.log.Error("Failed to find transaction by provider id", zap.Error(err), zap.String("provider_id", providerID))
		return nil, fmt.Errorf("find transaction by provider id %s: %w", providerID, err)
	}
	return txn, nil
}

func (r *transactionRepository) FindPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE booking_id = $1 AND transaction_type = 'payment' AND status IN ('pending', 'processing')
		ORDER BY created_at DESC
		LIMIT 1
	`

	txn, err := r.findOne(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find pending transaction", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("find pending transaction of booking %s: %w", bookingID.String(), err)
	}
	return txn, nil
}

func (r *transactionRepository) FindCompletedPayment(ctx context.Context, bookingID uuid.UUID) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE booking_id = $1 AND transaction_type = 'payment' AND status = 'completed'
		ORDER BY processed_at DESC NULLS LAST
		LIMIT 1
	`

	txn, err := r.findOne(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find completed payment", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("find completed payment of booking %s: %w", bookingID.String(), err)
	}
	return txn, nil
}

func (r *transactionRepository) UpdateProvider(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, providerID string) error {
	query := `
		UPDATE transactions
		SET payment_method = $2, payment_provider_id = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`

	result, err := r.db.Exec(ctx, query, id, method, providerID)
	if err != nil {
		r.log.Error("Failed to update transaction provider", zap.Error(err), zap.String("transaction_id", id.String()))
		return fmt.Errorf("update provider of transaction %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending transaction %s not found", id.String())
	}

	return nil
}

func (r *transactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, providerTxnID string, metadata map[string]any) (bool, error) {
	query := `
		UPDATE transactions
		SET status = 'completed',
		    payment_method = $2,
		    payment_provider_transaction_id = NULLIF($3, ''),
		    metadata = metadata || $4::jsonb,
		    processed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`

	if metadata == nil {
		metadata = map[string]any{}
	}

	result, err := r.db.Exec(ctx, query, id, method, providerTxnID, metadata)
	if err != nil {
		r.log.Error("Failed to complete transaction", zap.Error(err), zap.String("transaction_id", id.String()))
		return false, fmt.Errorf("complete transaction %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *transactionRepository) SettleLate(ctx context.Context, id uuid.UUID, status entity.TransactionStatus, method entity.PaymentMethod, providerTxnID string, metadata map[string]any) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $2,
		    payment_method = $3,
		    payment_provider_transaction_id = COALESCE(NULLIF($4, ''), payment_provider_transaction_id),
		    metadata = metadata || $5::jsonb,
		    processed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('cancelled', 'failed')
	`

	if metadata == nil {
		metadata = map[string]any{}
	}

	result, err := r.db.Exec(ctx, query, id, status, method, providerTxnID, metadata)
	if err != nil {
		r.log.Error("Failed to settle late payment", zap.Error(err), zap.String("transaction_id", id.String()))
		return false, fmt.Errorf("settle late transaction %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *transactionRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE transactions
		SET status = 'failed',
		    metadata = metadata || jsonb_build_object('failure_reason', $2::text),
		    processed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`

	result, err := r.db.Exec(ctx, query, id, reason)
	if err != nil {
		r.log.Error("Failed to fail transaction", zap.Error(err), zap.String("transaction_id", id.String()))
		return false, fmt.Errorf("fail transaction %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *transactionRepository) FailPendingByBooking(ctx context.Context, bookingID uuid.UUID, reason string) (int64, error) {
	query := `
		UPDATE transactions
		SET status = 'failed',
		    metadata = metadata || jsonb_build_object('failure_reason', $2::text),
		    processed_at = NOW(),
		    updated_at = NOW()
		WHERE booking_id = $1 AND transaction_type = 'payment' AND status IN ('pending', 'processing')
	`

	result, err := r.db.Exec(ctx, query, bookingID, reason)
	if err != nil {
		r.log.Error("Failed to fail pending transactions", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return 0, fmt.Errorf("fail pending transactions of booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *transactionRepository) CancelPendingByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	query := `
		UPDATE transactions
		SET status = 'cancelled', updated_at = NOW()
		WHERE booking_id = $1 AND transaction_type = 'payment' AND status IN ('pending', 'processing')
	`

	result, err := r.db.Exec(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to cancel pending transactions", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return 0, fmt.Errorf("cancel pending transactions of booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *transactionRepository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE transactions SET status = 'refunded', updated_at = NOW() WHERE id = $1 AND status = 'completed'`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to refund transaction", zap.Error(err), zap.String("transaction_id", id.String()))
		return false, fmt.Errorf("refund transaction %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func transactionWhere(filter TransactionFilter) (string, []any) {
	args := []any{filter.SalonID}
	where := `WHERE salon_id = $1`

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	return where, args
}

func (r *transactionRepository) ListBySalon(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error) {
	where, args := transactionWhere(filter)
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list salon transactions", zap.Error(err), zap.String("salon_id", filter.SalonID.String()))
		return nil, fmt.Errorf("list transactions of salon %s: %w", filter.SalonID.String(), err)
	}

	return r.collect(rows)
}

func (r *transactionRepository) CountBySalon(ctx context.Context, filter TransactionFilter) (int64, error) {
	where, args := transactionWhere(filter)

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count salon transactions", zap.Error(err), zap.String("salon_id", filter.SalonID.String()))
		return 0, fmt.Errorf("count transactions of salon %s: %w", filter.SalonID.String(), err)
	}

	return count, nil
}

func (r *transactionRepository) SummaryBySalon(ctx context.Context, salonID uuid.UUID) (*TransactionSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'completed' AND transaction_type = 'payment'
			                  THEN CASE WHEN salon_payout > 0 THEN salon_payout ELSE amount END END), 0),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN platform_fee END), 0),
			COUNT(*)
		FROM transactions
		WHERE salon_id = $1
	`

	var summary TransactionSummary
	err := r.db.QueryRow(ctx, query, salonID).Scan(
		&summary.TotalRevenue,
		&summary.PendingPayments,
		&summary.TotalPlatformFees,
		&summary.TransactionCount,
	)
	if err != nil {
		r.log.Error("Failed to summarize salon transactions", zap.Error(err), zap.String("salon_id", salonID.String()))
		return nil, fmt.Errorf("summarize transactions of salon %s: %w", salonID.String(), err)
	}

	return &summary, nil
}

func (r *transactionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list customer transactions", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, fmt.Errorf("list transactions of customer %s: %w", customerID.String(), err)
	}

	return r.collect(rows)
}

func (r *transactionRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE customer_id = $1`, customerID).Scan(&count); err != nil {
		r.log.Error("Failed to count customer transactions", zap.Error(err), zap.String("customer_id", customerID.String()))
		return 0, fmt.Errorf("count transactions of customer %s: %w", customerID.String(), err)
	}
	return count, nil
}
