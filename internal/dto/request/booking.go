package request

type CreateBookingRequest struct {
	SalonID       string  `json:"salon_id" validate:"required,uuid4"`
	ServiceID     string  `json:"service_id" validate:"required,uuid4"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string  `json:"time" validate:"required,datetime=15:04"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=paypal stripe pay_later"`
	CustomerName  string  `json:"customer_name,omitempty" validate:"omitempty,max=100"`
	CustomerEmail string  `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone string  `json:"customer_phone,omitempty" validate:"omitempty,max=20"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

// UpdatePaymentStatusRequest is sent by the client after returning from the
// provider; ProviderID is the PayPal order or Stripe session.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=completed failed"`
	ProviderID    string `json:"payment_id,omitempty"`
}

type RefundRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=300"`
}

type PayPalCreateRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid4"`
}

type PayPalExecuteRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	PayerID   string `json:"payer_id,omitempty"`
}

type SalonBookingsQuery struct {
	PaginatedRequest
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	PaymentStatus string `json:"payment_status,omitempty" validate:"omitempty,oneof=pending completed refunded failed"`
	Date          string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// TransactionQuery uses limit/offset paging; Limit defaults to 20 and is capped at 100.
type TransactionQuery struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending processing completed failed cancelled refunded"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
