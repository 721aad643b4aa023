package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/internal/payment"
	"salon-booking/pkg/lock"
	"salon-booking/pkg/metrics"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	providerTimeout = 15 * time.Second

	defaultTransactionLimit = 20
	maxTransactionLimit     = 100
	exportPageSize          = 500
)

type PaymentService interface {
	CreatePayPalPayment(ctx context.Context, customerID uuid.UUID, req *request.PayPalCreateRequest) (*response.PaymentIntentResponse, error)
	ExecutePayPalPayment(ctx context.Context, customerID uuid.UUID, req *request.PayPalExecuteRequest) (*response.PaymentResultResponse, error)
	CreateStripeCheckout(ctx context.Context, customerID uuid.UUID, bookingID string) (*response.PaymentIntentResponse, error)
	VerifyStripePayment(ctx context.Context, customerID uuid.UUID, bookingID string) (*response.PaymentResultResponse, error)
	// HandleStripeWebhook verifies and applies a Stripe event. Redelivered
	// events are acknowledged without side effects.
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	UpdatePaymentStatus(ctx context.Context, customerID uuid.UUID, bookingID string, req *request.UpdatePaymentStatusRequest) (*response.PaymentResultResponse, error)
	RefundBooking(ctx context.Context, ownerID uuid.UUID, bookingID string, req *request.RefundRequest) (*response.PaymentResultResponse, error)

	GetSalonTransactions(ctx context.Context, ownerID uuid.UUID, req *request.TransactionQuery) (*response.SalonTransactionsResponse, error)
	ExportSalonTransactions(ctx context.Context, ownerID uuid.UUID, req *request.TransactionQuery) ([]byte, string, error)
	GetMyTransactions(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TransactionResponse], error)
}

type paymentService struct {
	repo     *repository.Repository
	config   *utils.Config
	gateways *payment.Registry
	locker   lock.Locker
	notify   *notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, config *utils.Config, deps Deps, notify *notifier, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		config:   config,
		gateways: deps.Payments,
		locker:   deps.Locker,
		notify:   notify,
		now:      deps.Now,
		log:      log.With(zap.String("service", "payment")),
	}
}

// customerBooking loads a booking owned by customerID.
func (s *paymentService) customerBooking(ctx context.Context, customerID uuid.UUID, bookingID string) (*entity.Booking, error) {
	booking, err := findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, fmt.Errorf("%w: booking %s", utils.ErrNotFound, bookingID)
	}
	return booking, nil
}

func (s *paymentService) paymentWindow() time.Duration {
	minutes := s.config.Booking.PaymentWindowMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// startPayment creates a provider intent for booking and records the
// pending transaction keyed by the provider reference.
func (s *paymentService) startPayment(ctx context.Context, booking *entity.Booking, method entity.PaymentMethod) (*response.PaymentIntentResponse, error) {
	switch {
	case booking.Status != entity.BookingStatusPending:
		return nil, fmt.Errorf("%w: booking is %s", utils.ErrInvalidState, booking.Status)
	case booking.PaymentStatus != entity.PaymentStatusPending:
		return nil, fmt.Errorf("%w: payment is %s", utils.ErrInvalidState, booking.PaymentStatus)
	case booking.HoldExpiresAt != nil && !s.now().Before(*booking.HoldExpiresAt):
		return nil, fmt.Errorf("%w: payment window has expired", utils.ErrInvalidState)
	}

	gateway, err := s.gateways.Get(method)
	if err != nil {
		return nil, err
	}

	salon, serviceName := s.notify.names(ctx, booking)
	frontend := strings.TrimRight(s.config.App.FrontendURL, "/")

	providerCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	intent, err := gateway.CreateIntent(providerCtx, payment.IntentRequest{
		BookingID:     booking.ID,
		Amount:        booking.Price,
		Currency:      s.config.Payment.Currency,
		Description:   fmt.Sprintf("%s at %s", serviceName, salonName(salon)),
		CustomerEmail: booking.CustomerEmail,
		ReturnURL:     fmt.Sprintf("%s/bookings/%s/payment/success", frontend, booking.ID),
		CancelURL:     fmt.Sprintf("%s/bookings/%s/payment/cancel", frontend, booking.ID),
	})
	if err != nil {
		metrics.IncPayment(string(method), "intent_failed")
		s.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.String("provider", string(method)),
			zap.String("booking_id", booking.ID.String()))
		return nil, err
	}

	txn, err := s.repo.Transaction.FindPendingByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find pending transaction: %w", err)
	}
	if txn == nil {
		booking.PaymentMethod = method
		txn = newPaymentTransaction(booking, s.config.Payment, fmt.Sprintf("Payment for %s at %s", serviceName, salonName(salon)), s.now())
		txn.ProviderID = &intent.ProviderID
		if err := s.repo.Transaction.Create(ctx, txn); err != nil {
			s.log.Error("Failed to record transaction", zap.Error(err), zap.String("booking_id", booking.ID.String()))
			return nil, fmt.Errorf("create transaction: %w", err)
		}
	} else if err := s.repo.Transaction.UpdateProvider(ctx, txn.ID, method, intent.ProviderID); err != nil {
		return nil, fmt.Errorf("update transaction provider: %w", err)
	}

	hold := booking.HoldExpiresAt
	if hold == nil {
		expires := s.now().Add(s.paymentWindow())
		hold = &expires
	}
	if err := s.repo.Booking.AttachPayment(ctx, booking.ID, method, intent.ProviderID, hold); err != nil {
		return nil, fmt.Errorf("attach payment to booking: %w", err)
	}

	metrics.IncPayment(string(method), "created")
	s.log.Info("Payment started",
		zap.String("provider", string(method)),
		zap.String("booking_id", booking.ID.String()),
		zap.String("provider_id", intent.ProviderID),
		zap.String("transaction_id", txn.ID.String()))

	return &response.PaymentIntentResponse{
		BookingID:     booking.ID.String(),
		TransactionID: txn.ID.String(),
		Provider:      string(method),
		PaymentID:     intent.ProviderID,
		RedirectURL:   intent.RedirectURL,
	}, nil
}

// complete applies a provider-confirmed payment exactly once. applied is
// false when the transaction had already left the pending state.
func (s *paymentService) complete(ctx context.Context, booking *entity.Booking, txn *entity.Transaction, method entity.PaymentMethod, conf *payment.Confirmation) (bool, error) {
	details := map[string]any{}
	providerTxnID := ""
	if conf != nil {
		for k, v := range conf.Details {
			details[k] = v
		}
		providerTxnID = conf.ProviderTransactionID
	}

	applied, err := s.repo.Transaction.MarkCompleted(ctx, txn.ID, method, providerTxnID, details)
	if err != nil {
		s.log.Error("Failed to complete transaction", zap.Error(err), zap.String("transaction_id", txn.ID.String()))
		return false, fmt.Errorf("complete transaction: %w", err)
	}

	if !applied {
		if booking.IsPaid() || booking.PaymentStatus == entity.PaymentStatusRefunded {
			return false, nil
		}
		current, err := s.repo.Transaction.FindByID(ctx, txn.ID)
		if err != nil {
			return false, fmt.Errorf("reload transaction: %w", err)
		}
		if current == nil {
			return false, nil
		}

		switch current.Status {
		case entity.TransactionStatusCompleted:
			// A completion recorded before a failed booking update is
			// finished here without repeating side effects.
			if booking.Status != entity.BookingStatusCancelled {
				if err := s.repo.Booking.MarkPaid(ctx, booking.ID, method); err != nil {
					return false, fmt.Errorf("mark booking paid: %w", err)
				}
			}
		case entity.TransactionStatusCancelled, entity.TransactionStatusFailed:
			return s.settleLate(ctx, booking, current, method, providerTxnID, details)
		}
		return false, nil
	}

	if err := s.repo.Booking.MarkPaid(ctx, booking.ID, method); err != nil {
		s.log.Error("Failed to mark booking paid", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return true, fmt.Errorf("mark booking paid: %w", err)
	}

	now := s.now()
	txn.Status = entity.TransactionStatusCompleted
	txn.PaymentMethod = method
	txn.ProcessedAt = &now
	if providerTxnID != "" {
		txn.ProviderTransactionID = &providerTxnID
	}
	booking.PaymentStatus = entity.PaymentStatusCompleted
	booking.PaymentMethod = method
	booking.HoldExpiresAt = nil
	if booking.Status == entity.BookingStatusPending {
		booking.Status = entity.BookingStatusConfirmed
	}

	metrics.IncPayment(string(method), string(entity.TransactionStatusCompleted))
	s.log.Info("Payment completed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.String("provider", string(method)))

	s.notify.PaymentCompleted(ctx, booking, txn)
	return true, nil
}

// settleLate handles money the provider captured after the booking lost its
// payment window: the sweeper cancelled it or the payment was marked failed.
// The booking is reopened when its slot is still free, otherwise the payment
// is refunded at the provider. Either way the customer is told.
func (s *paymentService) settleLate(ctx context.Context, booking *entity.Booking, txn *entity.Transaction, method entity.PaymentMethod, providerTxnID string, details map[string]any) (bool, error) {
	log := s.log.With(
		zap.String("booking_id", booking.ID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.String("transaction_status", string(txn.Status)),
		zap.String("provider", string(method)))

	release, err := lock.Acquire(ctx, s.locker, lock.SlotKey(booking.SalonID.String(), booking.BookingDate),
		s.config.Booking.LockTTL, s.config.Booking.LockWait, lock.DefaultBackoff)
	if err != nil {
		log.Error("Slot lock not acquired for late payment", zap.Error(err))
		return false, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			log.Warn("Failed to release slot lock", zap.Error(err))
		}
	}()

	start, end, err := booking.Window()
	if err != nil {
		return false, fmt.Errorf("booking window: %w", err)
	}
	existing, err := s.repo.Booking.FindActiveBySalonAndDate(ctx, booking.SalonID, booking.BookingDate)
	if err != nil {
		return false, fmt.Errorf("load bookings: %w", err)
	}
	others := make([]*entity.Booking, 0, len(existing))
	for _, b := range existing {
		if b.ID != booking.ID {
			others = append(others, b)
		}
	}

	conflict := findConflict(others, start, end, s.now())
	if conflict == nil {
		return s.reopenLate(ctx, log, booking, txn, method, providerTxnID, details)
	}
	return s.refundLate(ctx, log, booking, txn, method, providerTxnID, details, conflict)
}

func (s *paymentService) reopenLate(ctx context.Context, log *zap.Logger, booking *entity.Booking, txn *entity.Transaction, method entity.PaymentMethod, providerTxnID string, details map[string]any) (bool, error) {
	details["late_settlement"] = "reopened"
	applied, err := s.repo.Transaction.SettleLate(ctx, txn.ID, entity.TransactionStatusCompleted, method, providerTxnID, details)
	if err != nil {
		return false, fmt.Errorf("settle late transaction: %w", err)
	}
	if !applied {
		return false, nil
	}

	if booking.Status != entity.BookingStatusConfirmed {
		if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed); err != nil {
			return true, fmt.Errorf("reopen booking: %w", err)
		}
	}
	if err := s.repo.Booking.MarkPaid(ctx, booking.ID, method); err != nil {
		return true, fmt.Errorf("mark booking paid: %w", err)
	}

	now := s.now()
	txn.Status = entity.TransactionStatusCompleted
	txn.PaymentMethod = method
	txn.ProcessedAt = &now
	if providerTxnID != "" {
		txn.ProviderTransactionID = &providerTxnID
	}
	booking.Status = entity.BookingStatusConfirmed
	booking.PaymentStatus = entity.PaymentStatusCompleted
	booking.PaymentMethod = method
	booking.HoldExpiresAt = nil

	metrics.IncPayment(string(method), "late_confirmed")
	log.Error("Payment arrived after the booking expired, booking reopened")
	s.notify.PaymentCompleted(ctx, booking, txn)
	return true, nil
}

func (s *paymentService) refundLate(ctx context.Context, log *zap.Logger, booking *entity.Booking, txn *entity.Transaction, method entity.PaymentMethod, providerTxnID string, details map[string]any, conflict *entity.Booking) (bool, error) {
	const reason = "payment arrived after the slot was released"

	gateway, err := s.gateways.Get(method)
	if err != nil {
		return false, err
	}

	// Refund before recording so a provider error leaves the row retryable.
	providerCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	result, err := gateway.Refund(providerCtx, payment.RefundRequest{
		ProviderID:            deref(txn.ProviderID),
		ProviderTransactionID: firstNonEmpty(providerTxnID, deref(txn.ProviderTransactionID)),
		Amount:                txn.Amount,
		Currency:              txn.Currency,
		Reason:                reason,
	})
	if err != nil {
		metrics.IncPayment(string(method), "refund_failed")
		log.Error("Refund of late payment failed", zap.Error(err))
		return false, err
	}

	details["late_settlement"] = "refunded"
	details["conflicting_booking_id"] = conflict.ID.String()
	applied, err := s.repo.Transaction.SettleLate(ctx, txn.ID, entity.TransactionStatusRefunded, method, providerTxnID, details)
	if err != nil {
		return false, fmt.Errorf("settle late transaction: %w", err)
	}
	if !applied {
		return false, nil
	}

	now := s.now()
	refund := &entity.Transaction{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:             booking.ID,
		CustomerID:            booking.CustomerID,
		SalonID:               booking.SalonID,
		Type:                  entity.TransactionTypeRefund,
		Amount:                txn.Amount,
		Currency:              txn.Currency,
		Status:                entity.TransactionStatusCompleted,
		PaymentMethod:         method,
		ProviderID:            txn.ProviderID,
		ProviderTransactionID: &result.RefundID,
		Description:           "Refund: " + reason,
		Metadata: map[string]any{
			"reason":                  reason,
			"original_transaction_id": txn.ID.String(),
			"refund_status":           result.Status,
		},
		ProcessedAt: &now,
	}
	if err := s.repo.Transaction.Create(ctx, refund); err != nil {
		log.Error("Failed to record refund transaction", zap.Error(err))
		return true, fmt.Errorf("create refund transaction: %w", err)
	}

	if err := s.repo.Booking.SetStatuses(ctx, booking.ID, entity.BookingStatusCancelled, entity.PaymentStatusRefunded); err != nil {
		return true, fmt.Errorf("update refunded booking: %w", err)
	}
	booking.Status = entity.BookingStatusCancelled
	booking.PaymentStatus = entity.PaymentStatusRefunded

	metrics.IncPayment(string(method), "late_refunded")
	log.Error("Payment arrived after the slot was rebooked, payment refunded",
		zap.String("conflicting_booking_id", conflict.ID.String()),
		zap.String("refund_transaction_id", refund.ID.String()),
		zap.Float64("amount", refund.Amount))
	s.notify.PaymentRefunded(ctx, booking, refund, reason)
	return true, nil
}

// fail marks txn failed and the booking payment failed, which releases the slot.
func (s *paymentService) fail(ctx context.Context, booking *entity.Booking, txn *entity.Transaction, reason string) (bool, error) {
	applied := false
	if txn != nil {
		var err error
		applied, err = s.repo.Transaction.MarkFailed(ctx, txn.ID, reason)
		if err != nil {
			return false, fmt.Errorf("fail transaction: %w", err)
		}
	} else {
		n, err := s.repo.Transaction.FailPendingByBooking(ctx, booking.ID, reason)
		if err != nil {
			return false, fmt.Errorf("fail pending transactions: %w", err)
		}
		applied = n > 0
	}

	if booking.IsPaid() || booking.PaymentStatus == entity.PaymentStatusRefunded {
		return applied, nil
	}

	if booking.PaymentStatus != entity.PaymentStatusFailed {
		if err := s.repo.Booking.UpdatePaymentStatus(ctx, booking.ID, entity.PaymentStatusFailed); err != nil {
			return applied, fmt.Errorf("update booking payment status: %w", err)
		}
		booking.PaymentStatus = entity.PaymentStatusFailed
		applied = true
	}

	if applied {
		metrics.IncPayment(string(booking.PaymentMethod), string(entity.TransactionStatusFailed))
		s.log.Info("Payment failed", zap.String("booking_id", booking.ID.String()), zap.String("reason", reason))
		s.notify.PaymentFailed(ctx, booking, reason)
	}
	return applied, nil
}

func (s *paymentService) result(booking *entity.Booking, txn *entity.Transaction, applied bool) *response.PaymentResultResponse {
	resp := &response.PaymentResultResponse{
		Booking: response.BookingToResponse(booking),
		Applied: applied,
	}
	if txn != nil {
		t := response.TransactionToResponse(txn)
		resp.Transaction = &t
	}
	return resp
}

// reload refreshes txn after a state change so responses reflect the row.
func (s *paymentService) reload(ctx context.Context, txn *entity.Transaction) *entity.Transaction {
	if txn == nil {
		return nil
	}
	if current, err := s.repo.Transaction.FindByID(ctx, txn.ID); err == nil && current != nil {
		return current
	}
	return txn
}

func (s *paymentService) confirm(ctx context.Context, method entity.PaymentMethod, providerID string) (*payment.Confirmation, error) {
	gateway, err := s.gateways.Get(method)
	if err != nil {
		return nil, err
	}

	providerCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	return gateway.Confirm(providerCtx, providerID)
}

// applyConfirmation moves booking and txn according to a provider report.
func (s *paymentService) applyConfirmation(ctx context.Context, booking *entity.Booking, txn *entity.Transaction, method entity.PaymentMethod, conf *payment.Confirmation) (*response.PaymentResultResponse, error) {
	switch conf.Status {
	case payment.ConfirmationCompleted:
		applied, err := s.complete(ctx, booking, txn, method, conf)
		if err != nil {
			return nil, err
		}
		return s.result(booking, s.reload(ctx, txn), applied), nil
	case payment.ConfirmationFailed:
		applied, err := s.fail(ctx, booking, txn, "payment was not completed at "+string(method))
		if err != nil {
			return nil, err
		}
		return s.result(booking, s.reload(ctx, txn), applied), nil
	default:
		return nil, fmt.Errorf("%w: payment has not been approved yet", utils.ErrInvalidState)
	}
}

func (s *paymentService) CreatePayPalPayment(ctx context.Context, customerID uuid.UUID, req *request.PayPalCreateRequest) (*response.PaymentIntentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.customerBooking(ctx, customerID, req.BookingID)
	if err != nil {
		return nil, err
	}
	return s.startPayment(ctx, booking, entity.PaymentMethodPayPal)
}

func (s *paymentService) ExecutePayPalPayment(ctx context.Context, customerID uuid.UUID, req *request.PayPalExecuteRequest) (*response.PaymentResultResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	txn, err := s.repo.Transaction.FindByProviderID(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	if txn == nil {
		return nil, fmt.Errorf("%w: payment %s", utils.ErrNotFound, req.PaymentID)
	}

	booking, err := s.customerBooking(ctx, customerID, txn.BookingID.String())
	if err != nil {
		return nil, err
	}

	if txn.Status == entity.TransactionStatusCompleted {
		return s.result(booking, txn, false), nil
	}

	conf, err := s.confirm(ctx, entity.PaymentMethodPayPal, req.PaymentID)
	if err != nil {
		s.log.Warn("PayPal capture failed", zap.Error(err), zap.String("order_id", req.PaymentID))
		if _, failErr := s.fail(ctx, booking, txn, "paypal capture failed: "+err.Error()); failErr != nil {
			s.log.Error("Failed to record failed PayPal payment", zap.Error(failErr))
		}
		return nil, err
	}

	return s.applyConfirmation(ctx, booking, txn, entity.PaymentMethodPayPal, conf)
}

func (s *paymentService) CreateStripeCheckout(ctx context.Context, customerID uuid.UUID, bookingID string) (*response.PaymentIntentResponse, error) {
	booking, err := s.customerBooking(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.startPayment(ctx, booking, entity.PaymentMethodStripe)
}

func (s *paymentService) VerifyStripePayment(ctx context.Context, customerID uuid.UUID, bookingID string) (*response.PaymentResultResponse, error) {
	booking, err := s.customerBooking(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsPaid() {
		txn, _ := s.repo.Transaction.FindCompletedPayment(ctx, booking.ID)
		return s.result(booking, txn, false), nil
	}
	if booking.PaymentMethod != entity.PaymentMethodStripe || booking.PaymentID == nil {
		return nil, fmt.Errorf("%w: booking has no Stripe checkout", utils.ErrInvalidState)
	}

	txn, err := s.transactionFor(ctx, booking, *booking.PaymentID)
	if err != nil {
		return nil, err
	}

	conf, err := s.confirm(ctx, entity.PaymentMethodStripe, *booking.PaymentID)
	if err != nil {
		return nil, err
	}
	if conf.Status == payment.ConfirmationPending {
		return s.result(booking, txn, false), nil
	}
	return s.applyConfirmation(ctx, booking, txn, entity.PaymentMethodStripe, conf)
}

// transactionFor finds the payment transaction of booking for providerID,
// creating a pending one when the provider reports a payment the store
// never recorded.
func (s *paymentService) transactionFor(ctx context.Context, booking *entity.Booking, providerID string) (*entity.Transaction, error) {
	if providerID != "" {
		txn, err := s.repo.Transaction.FindByProviderID(ctx, providerID)
		if err != nil {
			return nil, fmt.Errorf("find transaction: %w", err)
		}
		if txn != nil {
			return txn, nil
		}
	}

	txn, err := s.repo.Transaction.FindPendingByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find pending transaction: %w", err)
	}
	if txn != nil {
		return txn, nil
	}

	txn = newPaymentTransaction(booking, s.config.Payment, "Payment reconciled from provider", s.now())
	if providerID != "" {
		txn.ProviderID = &providerID
	}
	if err := s.repo.Transaction.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return txn, nil
}

func (s *paymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	const provider = "stripe"

	parser, err := s.gateways.WebhookParser(entity.PaymentMethodStripe)
	if err != nil {
		return err
	}

	event, err := parser.ParseWebhook(payload, signature)
	if err != nil {
		metrics.IncWebhook(provider, "rejected")
		s.log.Warn("Rejected Stripe webhook", zap.Error(err))
		return err
	}

	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	processed, err := s.repo.WebhookEvent.IsProcessed(ctx, provider, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		metrics.IncWebhook(provider, "duplicate")
		log.Info("Duplicate webhook event acknowledged")
		return nil
	}

	result, err := s.applyStripeEvent(ctx, event)
	if err != nil {
		metrics.IncWebhook(provider, "failed")
		log.Error("Failed to apply webhook event", zap.Error(err))
		return err
	}

	inserted, err := s.repo.WebhookEvent.MarkProcessed(ctx, &entity.ProcessedWebhookEvent{
		Provider:    provider,
		EventID:     event.ID,
		EventType:   string(event.Type),
		ProcessedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if !inserted {
		result = "duplicate"
	}

	metrics.IncWebhook(provider, result)
	log.Info("Webhook event processed", zap.String("result", result))
	return nil
}

// applyStripeEvent returns the metrics result label of the event.
func (s *paymentService) applyStripeEvent(ctx context.Context, event *payment.WebhookEvent) (string, error) {
	switch event.Type {
	case payment.WebhookCheckoutCompleted:
		// Delayed payment methods complete the session before funds arrive.
		if event.PaymentStatus != "" && event.PaymentStatus != "paid" {
			return "ignored", nil
		}
		booking, txn, err := s.locateStripePayment(ctx, event)
		if err != nil || booking == nil {
			return "ignored", err
		}
		applied, err := s.complete(ctx, booking, txn, entity.PaymentMethodStripe, &payment.Confirmation{
			ProviderID:            event.ProviderID,
			ProviderTransactionID: event.ProviderTransactionID,
			Status:                payment.ConfirmationCompleted,
			Details: map[string]any{
				"stripe_session_id":     event.ProviderID,
				"stripe_payment_intent": event.ProviderTransactionID,
				"stripe_event_id":       event.ID,
			},
		})
		if err != nil {
			return "", err
		}
		if !applied {
			return "duplicate", nil
		}
		return "applied", nil

	case payment.WebhookCheckoutExpired:
		booking, txn, err := s.locateStripePayment(ctx, event)
		if err != nil || booking == nil {
			return "ignored", err
		}
		if _, err := s.fail(ctx, booking, txn, "checkout session expired"); err != nil {
			return "", err
		}
		return "applied", nil

	case payment.WebhookPaymentFailed:
		booking, err := s.bookingFromEvent(ctx, event)
		if err != nil || booking == nil {
			return "ignored", err
		}
		reason := event.Reason
		if reason == "" {
			reason = "payment failed"
		}
		if _, err := s.fail(ctx, booking, nil, reason); err != nil {
			return "", err
		}
		return "applied", nil
	}

	return "ignored", nil
}

func (s *paymentService) bookingFromEvent(ctx context.Context, event *payment.WebhookEvent) (*entity.Booking, error) {
	if event.BookingID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(event.BookingID)
	if err != nil {
		s.log.Warn("Webhook carries an invalid booking id", zap.String("booking_id", event.BookingID))
		return nil, nil
	}
	return s.repo.Booking.FindByID(ctx, id)
}

// locateStripePayment resolves the booking and transaction of a checkout
// session event, preferring the transaction keyed by the session id.
func (s *paymentService) locateStripePayment(ctx context.Context, event *payment.WebhookEvent) (*entity.Booking, *entity.Transaction, error) {
	var txn *entity.Transaction
	if event.ProviderID != "" {
		var err error
		txn, err = s.repo.Transaction.FindByProviderID(ctx, event.ProviderID)
		if err != nil {
			return nil, nil, fmt.Errorf("find transaction: %w", err)
		}
	}

	var booking *entity.Booking
	var err error
	if txn != nil {
		booking, err = s.repo.Booking.FindByID(ctx, txn.BookingID)
	} else {
		booking, err = s.bookingFromEvent(ctx, event)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		s.log.Warn("Webhook references an unknown booking",
			zap.String("session_id", event.ProviderID),
			zap.String("booking_id", event.BookingID))
		return nil, nil, nil
	}

	if txn == nil {
		txn, err = s.transactionFor(ctx, booking, event.ProviderID)
		if err != nil {
			return nil, nil, err
		}
	}
	return booking, txn, nil
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, customerID uuid.UUID, bookingID string, req *request.UpdatePaymentStatusRequest) (*response.PaymentResultResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.customerBooking(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsPaid() {
		txn, _ := s.repo.Transaction.FindCompletedPayment(ctx, booking.ID)
		return s.result(booking, txn, false), nil
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking is cancelled", utils.ErrInvalidState)
	}

	providerID := req.ProviderID
	if providerID == "" && booking.PaymentID != nil {
		providerID = *booking.PaymentID
	}

	if entity.PaymentStatus(req.PaymentStatus) == entity.PaymentStatusFailed {
		txn, err := s.repo.Transaction.FindPendingByBooking(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("find pending transaction: %w", err)
		}
		applied, err := s.fail(ctx, booking, txn, "reported by customer")
		if err != nil {
			return nil, err
		}
		return s.result(booking, s.reload(ctx, txn), applied), nil
	}

	// A completed status is only trusted once the provider confirms it.
	method := booking.PaymentMethod
	if method != entity.PaymentMethodPayPal && method != entity.PaymentMethodStripe {
		return nil, fmt.Errorf("%w: %s bookings are settled by the salon", utils.ErrInvalidState, method)
	}
	if providerID == "" {
		return nil, fmt.Errorf("%w: payment_id is required", utils.ErrValidation)
	}

	txn, err := s.transactionFor(ctx, booking, providerID)
	if err != nil {
		return nil, err
	}
	if txn.ProviderID != nil && *txn.ProviderID != providerID {
		return nil, fmt.Errorf("%w: payment %s does not belong to this booking", utils.ErrValidation, providerID)
	}

	conf, err := s.confirm(ctx, method, providerID)
	if err != nil {
		return nil, err
	}
	if conf.Status != payment.ConfirmationCompleted {
		return nil, fmt.Errorf("%w: payment not confirmed by %s", utils.ErrInvalidState, method)
	}
	return s.applyConfirmation(ctx, booking, txn, method, conf)
}

func (s *paymentService) RefundBooking(ctx context.Context, ownerID uuid.UUID, bookingID string, req *request.RefundRequest) (*response.PaymentResultResponse, error) {
	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	booking, err := findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.SalonID != salon.ID {
		return nil, fmt.Errorf("%w: booking %s", utils.ErrNotFound, bookingID)
	}
	if !booking.IsPaid() {
		return nil, fmt.Errorf("%w: only paid bookings can be refunded", utils.ErrInvalidState)
	}

	original, err := s.repo.Transaction.FindCompletedPayment(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find completed payment: %w", err)
	}
	if original == nil {
		return nil, fmt.Errorf("%w: no completed payment for booking %s", utils.ErrInvalidState, bookingID)
	}

	reason := req.Reason
	if reason == "" {
		reason = "requested by salon"
	}

	refundMeta := map[string]any{"reason": reason, "original_transaction_id": original.ID.String()}
	var providerRefundID *string
	if original.PaymentMethod == entity.PaymentMethodPayPal || original.PaymentMethod == entity.PaymentMethodStripe {
		gateway, err := s.gateways.Get(original.PaymentMethod)
		if err != nil {
			return nil, err
		}

		providerCtx, cancel := context.WithTimeout(ctx, providerTimeout)
		defer cancel()

		result, err := gateway.Refund(providerCtx, payment.RefundRequest{
			ProviderID:            deref(original.ProviderID),
			ProviderTransactionID: deref(original.ProviderTransactionID),
			Amount:                original.Amount,
			Currency:              original.Currency,
			Reason:                reason,
		})
		if err != nil {
			metrics.IncPayment(string(original.PaymentMethod), "refund_failed")
			s.log.Error("Provider refund failed", zap.Error(err), zap.String("booking_id", bookingID))
			return nil, err
		}
		providerRefundID = &result.RefundID
		refundMeta["refund_status"] = result.Status
	}

	applied, err := s.repo.Transaction.MarkRefunded(ctx, original.ID)
	if err != nil {
		return nil, fmt.Errorf("mark transaction refunded: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: payment was already refunded", utils.ErrConflict)
	}

	now := s.now()
	refund := &entity.Transaction{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:             booking.ID,
		CustomerID:            booking.CustomerID,
		SalonID:               booking.SalonID,
		Type:                  entity.TransactionTypeRefund,
		Amount:                original.Amount,
		Currency:              original.Currency,
		Status:                entity.TransactionStatusCompleted,
		PaymentMethod:         original.PaymentMethod,
		ProviderID:            original.ProviderID,
		ProviderTransactionID: providerRefundID,
		Description:           "Refund: " + reason,
		Metadata:              refundMeta,
		ProcessedAt:           &now,
	}
	if err := s.repo.Transaction.Create(ctx, refund); err != nil {
		s.log.Error("Failed to record refund transaction", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("create refund transaction: %w", err)
	}

	if err := s.repo.Booking.SetStatuses(ctx, booking.ID, entity.BookingStatusCancelled, entity.PaymentStatusRefunded); err != nil {
		return nil, fmt.Errorf("update refunded booking: %w", err)
	}
	booking.Status = entity.BookingStatusCancelled
	booking.PaymentStatus = entity.PaymentStatusRefunded

	metrics.IncPayment(string(original.PaymentMethod), string(entity.TransactionStatusRefunded))
	s.log.Info("Booking refunded",
		zap.String("booking_id", bookingID),
		zap.String("refund_transaction_id", refund.ID.String()),
		zap.Float64("amount", refund.Amount))
	s.notify.PaymentRefunded(ctx, booking, refund, reason)

	return s.result(booking, refund, true), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *paymentService) transactionFilter(salonID uuid.UUID, req *request.TransactionQuery) (repository.TransactionFilter, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return repository.TransactionFilter{}, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	return repository.TransactionFilter{
		SalonID: salonID,
		Status:  entity.TransactionStatus(req.Status),
		Limit:   utils.ClampLimit(req.Limit, defaultTransactionLimit, maxTransactionLimit),
		Offset:  offset,
	}, nil
}

func (s *paymentService) GetSalonTransactions(ctx context.Context, ownerID uuid.UUID, req *request.TransactionQuery) (*response.SalonTransactionsResponse, error) {
	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	filter, err := s.transactionFilter(salon.ID, req)
	if err != nil {
		return nil, err
	}

	txns, err := s.repo.Transaction.ListBySalon(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list salon transactions", zap.Error(err), zap.String("salon_id", salon.ID.String()))
		return nil, fmt.Errorf("list salon transactions: %w", err)
	}

	total, err := s.repo.Transaction.CountBySalon(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count salon transactions: %w", err)
	}

	summary, err := s.repo.Transaction.SummaryBySalon(ctx, salon.ID)
	if err != nil {
		return nil, fmt.Errorf("summarise salon transactions: %w", err)
	}

	resp := &response.SalonTransactionsResponse{
		Transactions: make([]response.TransactionResponse, len(txns)),
		Summary: response.TransactionSummaryResponse{
			TotalRevenue:      summary.TotalRevenue,
			PendingPayments:   summary.PendingPayments,
			TotalPlatformFees: summary.TotalPlatformFees,
			TransactionCount:  summary.TransactionCount,
		},
		Pagination: response.NewOffsetMeta(total, filter.Limit, filter.Offset),
	}
	for i, t := range txns {
		resp.Transactions[i] = response.TransactionToResponse(t)
	}
	return resp, nil
}

var exportHeaders = []string{
	"Date", "Transaction ID", "Booking ID", "Type", "Status", "Method",
	"Amount", "Currency", "Platform Fee", "Salon Payout", "Provider Reference",
}

// ExportSalonTransactions renders every transaction of the owner's salon
// matching the status filter as an xlsx workbook.
func (s *paymentService) ExportSalonTransactions(ctx context.Context, ownerID uuid.UUID, req *request.TransactionQuery) ([]byte, string, error) {
	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, "", err
	}

	filter, err := s.transactionFilter(salon.ID, req)
	if err != nil {
		return nil, "", err
	}
	filter.Limit = exportPageSize
	filter.Offset = 0

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	_ = f.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

	row := 2
	for {
		txns, err := s.repo.Transaction.ListBySalon(ctx, filter)
		if err != nil {
			return nil, "", fmt.Errorf("list salon transactions: %w", err)
		}
		for _, t := range txns {
			values := []any{
				t.CreatedAt.Format("2006-01-02 15:04"),
				t.ID.String(),
				t.BookingID.String(),
				string(t.Type),
				string(t.Status),
				string(t.PaymentMethod),
				t.Amount,
				t.Currency,
				t.PlatformFee,
				t.SalonPayout,
				deref(t.ProviderID),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			row++
		}
		if len(txns) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}
	_ = f.SetColWidth(sheet, "A", "K", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	s.log.Info("Transactions exported", zap.String("salon_id", salon.ID.String()), zap.Int("rows", row-2))
	name := fmt.Sprintf("transactions_%s.xlsx", s.now().Format("20060102"))
	return buf.Bytes(), name, nil
}

func (s *paymentService) GetMyTransactions(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TransactionResponse], error) {
	txns, err := s.repo.Transaction.ListByCustomer(ctx, customerID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list customer transactions", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, fmt.Errorf("list customer transactions: %w", err)
	}

	total, err := s.repo.Transaction.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("count customer transactions: %w", err)
	}

	data := make([]response.TransactionResponse, len(txns))
	for i, t := range txns {
		data[i] = response.TransactionToResponse(t)
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}
