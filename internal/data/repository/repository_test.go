package repository

import (
	"context"
	"testing"
	"time"

	"salon-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var bookingRowColumns = []string{
	"id", "customer_id", "salon_id", "service_id", "booking_date", "booking_time",
	"duration_minutes", "customer_name", "customer_email", "customer_phone", "notes", "price",
	"status", "payment_status", "payment_method", "payment_id", "hold_expires_at",
	"created_at", "updated_at",
}

func TestBookingFindActiveBySalonAndDate(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock, zap.NewNop())

	salonID := uuid.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	hold := created.Add(15 * time.Minute)
	paymentID := "cs_1"

	rows := pgxmock.NewRows(bookingRowColumns).
		AddRow(uuid.New(), uuid.New(), salonID, uuid.New(), day, "10:00",
			60, "Maria", "maria@example.com", "", (*string)(nil), 500.0,
			entity.BookingStatusConfirmed, entity.PaymentStatusCompleted, entity.PaymentMethodStripe, &paymentID, (*time.Time)(nil),
			created, created).
		AddRow(uuid.New(), uuid.New(), salonID, uuid.New(), day, "14:30",
			90, "Ana", "ana@example.com", "0917", (*string)(nil), 1200.0,
			entity.BookingStatusPending, entity.PaymentStatusPending, entity.PaymentMethodPayPal, (*string)(nil), &hold,
			created, created)

	mock.ExpectQuery(`FROM bookings\s+WHERE salon_id = \$1\s+AND booking_date = \$2\s+AND status IN \('pending', 'confirmed', 'completed'\)`).
		WithArgs(salonID, day).
		WillReturnRows(rows)

	bookings, err := repo.FindActiveBySalonAndDate(context.Background(), salonID, day)
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	assert.Equal(t, "10:00", bookings[0].BookingTime)
	assert.Equal(t, entity.BookingStatusConfirmed, bookings[0].Status)
	assert.Equal(t, "cs_1", *bookings[0].PaymentID)
	assert.Equal(t, 90, bookings[1].DurationMinutes)
	require.NotNil(t, bookings[1].HoldExpiresAt)
	assert.Equal(t, hold, *bookings[1].HoldExpiresAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingFindByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	booking, err := repo.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventMarkProcessed(t *testing.T) {
	mock := newMock(t)
	repo := NewWebhookEventRepository(mock, zap.NewNop())

	event := &entity.ProcessedWebhookEvent{
		Provider:    "stripe",
		EventID:     "evt_1",
		EventType:   "checkout.session.completed",
		ProcessedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`(?s)INSERT INTO processed_webhook_events .* ON CONFLICT \(provider, event_id\) DO NOTHING`).
		WithArgs("stripe", "evt_1", "checkout.session.completed", event.ProcessedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO processed_webhook_events`).
		WithArgs("stripe", "evt_1", "checkout.session.completed", event.ProcessedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.MarkProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.MarkProcessed(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, inserted, "a redelivered event id is not inserted twice")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionMarkCompletedOnlyFromOpenStates(t *testing.T) {
	mock := newMock(t)
	repo := NewTransactionRepository(mock, zap.NewNop())

	id := uuid.New()
	meta := map[string]any{"stripe_payment_intent": "pi_123"}

	mock.ExpectExec(`(?s)UPDATE transactions\s+SET status = 'completed'.*WHERE id = \$1 AND status IN \('pending', 'processing'\)`).
		WithArgs(id, entity.PaymentMethodStripe, "pi_123", meta).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE transactions`).
		WithArgs(id, entity.PaymentMethodStripe, "pi_123", meta).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.MarkCompleted(context.Background(), id, entity.PaymentMethodStripe, "pi_123", meta)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.MarkCompleted(context.Background(), id, entity.PaymentMethodStripe, "pi_123", meta)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPClaimIsSingleUse(t *testing.T) {
	mock := newMock(t)
	repo := NewOTPRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectExec(`UPDATE otps SET is_used = true WHERE id = \$1 AND is_used = false`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE otps SET is_used = true WHERE id = \$1 AND is_used = false`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	claimed, err := repo.Claim(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.Claim(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionSettleLateOnlyFromClosedStates(t *testing.T) {
	mock := newMock(t)
	repo := NewTransactionRepository(mock, zap.NewNop())

	id := uuid.New()
	meta := map[string]any{"late_settlement": "reopened"}

	mock.ExpectExec(`(?s)UPDATE transactions\s+SET status = \$2.*WHERE id = \$1 AND status IN \('cancelled', 'failed'\)`).
		WithArgs(id, entity.TransactionStatusCompleted, entity.PaymentMethodStripe, "pi_late", meta).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE transactions`).
		WithArgs(id, entity.TransactionStatusCompleted, entity.PaymentMethodStripe, "pi_late", meta).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.SettleLate(context.Background(), id, entity.TransactionStatusCompleted, entity.PaymentMethodStripe, "pi_late", meta)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.SettleLate(context.Background(), id, entity.TransactionStatusCompleted, entity.PaymentMethodStripe, "pi_late", meta)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func approvedSalon() *entity.Salon {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return &entity.Salon{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OwnerID:  uuid.New(),
		Name:     "Maria's Hair Lounge",
		Address:  "45 Rizal Ave",
		City:     "Quezon City",
		IsActive: true,
	}
}

func expectSalonInsert(mock pgxmock.PgxPoolIface, salon *entity.Salon) {
	mock.ExpectExec(`INSERT INTO salons`).
		WithArgs(salon.ID, salon.OwnerID, salon.Name, pgxmock.AnyArg(), salon.Address, salon.City,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), true, salon.CreatedAt, salon.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestSalonApplicationApprove(t *testing.T) {
	mock := newMock(t)
	repo := NewSalonApplicationRepository(mock, zap.NewNop())

	id, admin := uuid.New(), uuid.New()
	notes := "Welcome aboard"
	salon := approvedSalon()

	mock.ExpectBeginTx(pgx.TxOptions{})
	expectSalonInsert(mock, salon)
	mock.ExpectExec(`(?s)UPDATE salon_applications\s+SET status = 'approved'.*WHERE id = \$1 AND status = 'pending'`).
		WithArgs(id, admin, &notes, salon.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`(?s)UPDATE users SET role = 'salon_owner'.*WHERE id = \$1 AND role = 'customer'`).
		WithArgs(salon.OwnerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	applied, err := repo.Approve(context.Background(), id, admin, &notes, salon)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalonApplicationApproveRollsBackWhenReviewed(t *testing.T) {
	mock := newMock(t)
	repo := NewSalonApplicationRepository(mock, zap.NewNop())

	id, admin := uuid.New(), uuid.New()
	salon := approvedSalon()

	mock.ExpectBeginTx(pgx.TxOptions{})
	expectSalonInsert(mock, salon)
	mock.ExpectExec(`UPDATE salon_applications`).
		WithArgs(id, admin, (*string)(nil), salon.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	applied, err := repo.Approve(context.Background(), id, admin, nil, salon)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalonApplicationReject(t *testing.T) {
	mock := newMock(t)
	repo := NewSalonApplicationRepository(mock, zap.NewNop())

	id, admin := uuid.New(), uuid.New()
	notes := "Business permit missing"

	mock.ExpectExec(`(?s)UPDATE salon_applications\s+SET status = 'rejected'.*WHERE id = \$1 AND status = 'pending'`).
		WithArgs(id, admin, &notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE salon_applications`).
		WithArgs(id, admin, &notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.Reject(context.Background(), id, admin, &notes)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Reject(context.Background(), id, admin, &notes)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.NoError(t, mock.ExpectationsWereMet())
}
