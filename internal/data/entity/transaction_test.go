package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePlatformFee(t *testing.T) {
	tests := []struct {
		amount      float64
		fee, payout float64
	}{
		{500, 15, 485},
		{1999.99, 60, 1939.99},
		{0.01, 0, 0.01},
		{149.9, 4.5, 145.4},
	}
	for _, tt := range tests {
		txn := &Transaction{Amount: tt.amount}
		txn.CalculatePlatformFee(0.03)
		assert.InDelta(t, tt.fee, txn.PlatformFee, 1e-9, "fee of %.2f", tt.amount)
		assert.InDelta(t, tt.payout, txn.SalonPayout, 1e-9, "payout of %.2f", tt.amount)
		assert.InDelta(t, tt.amount, txn.PlatformFee+txn.SalonPayout, 1e-9)
	}
}

func TestTransactionStatusTransitions(t *testing.T) {
	assert.True(t, TransactionStatusPending.CanTransition(TransactionStatusCompleted))
	assert.True(t, TransactionStatusProcessing.CanTransition(TransactionStatusFailed))
	assert.True(t, TransactionStatusCompleted.CanTransition(TransactionStatusRefunded))
	assert.False(t, TransactionStatusCompleted.CanTransition(TransactionStatusPending))
	assert.False(t, TransactionStatusFailed.CanTransition(TransactionStatusCompleted))
	assert.False(t, TransactionStatusRefunded.CanTransition(TransactionStatusCompleted))
}
