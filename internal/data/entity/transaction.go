package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
	TransactionTypeFee     TransactionType = "fee"
	TransactionTypePayout  TransactionType = "payout"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
	TransactionStatusRefunded   TransactionStatus = "refunded"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending: {
		TransactionStatusProcessing,
		TransactionStatusCompleted,
		TransactionStatusFailed,
		TransactionStatusCancelled,
	},
	TransactionStatusProcessing: {
		TransactionStatusCompleted,
		TransactionStatusFailed,
	},
	TransactionStatusCompleted: {
		TransactionStatusRefunded,
	},
}

// CanTransition reports whether from -> to is an allowed lifecycle step.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	for _, next := range transactionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Transaction struct {
	BaseNoDelete
	BookingID             uuid.UUID         `db:"booking_id"`
	CustomerID            uuid.UUID         `db:"customer_id"`
	SalonID               uuid.UUID         `db:"salon_id"`
	Type                  TransactionType   `db:"transaction_type"`
	Amount                float64           `db:"amount"`
	Currency              string            `db:"currency"`
	Status                TransactionStatus `db:"status"`
	PaymentMethod         PaymentMethod     `db:"payment_method"`
	ProviderID            *string           `db:"payment_provider_id"`
	ProviderTransactionID *string           `db:"payment_provider_transaction_id"`
	PlatformFee           float64           `db:"platform_fee"`
	SalonPayout           float64           `db:"salon_payout"`
	Description           string            `db:"description"`
	Metadata              map[string]any    `db:"metadata"`
	ProcessedAt           *time.Time        `db:"processed_at"`
}

// CalculatePlatformFee splits Amount into the platform fee (rounded to cents)
// and the salon payout so that PlatformFee + SalonPayout == Amount.
func (t *Transaction) CalculatePlatformFee(rate float64) {
	t.PlatformFee = roundCents(t.Amount * rate)
	t.SalonPayout = roundCents(t.Amount - t.PlatformFee)
}

// NetRevenue is the salon payout, or the gross amount when no split was recorded.
func (t *Transaction) NetRevenue() float64 {
	if t.SalonPayout == 0 {
		return t.Amount
	}
	return t.SalonPayout
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
