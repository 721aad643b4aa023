package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type TransactionResponse struct {
	ID                    string                   `json:"id"`
	BookingID             string                   `json:"booking_id"`
	CustomerID            string                   `json:"customer_id"`
	SalonID               string                   `json:"salon_id"`
	Type                  entity.TransactionType   `json:"transaction_type"`
	Amount                float64                  `json:"amount"`
	Currency              string                   `json:"currency"`
	Status                entity.TransactionStatus `json:"status"`
	PaymentMethod         entity.PaymentMethod     `json:"payment_method"`
	ProviderID            *string                  `json:"payment_provider_id,omitempty"`
	ProviderTransactionID *string                  `json:"payment_provider_transaction_id,omitempty"`
	PlatformFee           float64                  `json:"platform_fee"`
	SalonPayout           float64                  `json:"salon_payout"`
	NetRevenue            float64                  `json:"net_revenue"`
	Description           string                   `json:"description,omitempty"`
	ProcessedAt           *time.Time               `json:"processed_at,omitempty"`
	CreatedAt             time.Time                `json:"created_at"`
}

func TransactionToResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.ID.String(),
		BookingID:             t.BookingID.String(),
		CustomerID:            t.CustomerID.String(),
		SalonID:               t.SalonID.String(),
		Type:                  t.Type,
		Amount:                t.Amount,
		Currency:              t.Currency,
		Status:                t.Status,
		PaymentMethod:         t.PaymentMethod,
		ProviderID:            t.ProviderID,
		ProviderTransactionID: t.ProviderTransactionID,
		PlatformFee:           t.PlatformFee,
		SalonPayout:           t.SalonPayout,
		NetRevenue:            t.NetRevenue(),
		Description:           t.Description,
		ProcessedAt:           t.ProcessedAt,
		CreatedAt:             t.CreatedAt,
	}
}

type TransactionSummaryResponse struct {
	TotalRevenue      float64 `json:"total_revenue"`
	PendingPayments   float64 `json:"pending_payments"`
	TotalPlatformFees float64 `json:"total_platform_fees"`
	TransactionCount  int64   `json:"transaction_count"`
}

type SalonTransactionsResponse struct {
	Transactions []TransactionResponse      `json:"transactions"`
	Summary      TransactionSummaryResponse `json:"summary"`
	Pagination   OffsetMeta                 `json:"pagination"`
}

// PaymentIntentResponse is returned when a provider payment is started.
type PaymentIntentResponse struct {
	BookingID     string `json:"booking_id"`
	TransactionID string `json:"transaction_id"`
	Provider      string `json:"provider"`
	PaymentID     string `json:"payment_id"`
	RedirectURL   string `json:"approval_url"`
}

type PaymentResultResponse struct {
	Booking     BookingResponse      `json:"booking"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Applied     bool                 `json:"applied"`
}
