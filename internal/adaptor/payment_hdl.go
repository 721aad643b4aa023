package adaptor

import (
	"errors"
	"io"
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxWebhookBody = 64 << 10
	xlsxMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreatePayPalPayment handles POST /api/bookings/paypal/create
func (h *PaymentHandler) CreatePayPalPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.PayPalCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	intent, err := h.service.CreatePayPalPayment(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create paypal payment")
		return
	}

	utils.ResponseCreated(w, "PayPal payment created", intent)
}

// ExecutePayPalPayment handles POST /api/bookings/paypal/execute
func (h *PaymentHandler) ExecutePayPalPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.PayPalExecuteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.ExecutePayPalPayment(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "execute paypal payment")
		return
	}

	utils.ResponseSuccess(w, "Payment completed", result)
}

// CreateStripeCheckout handles POST /api/bookings/{id}/stripe/create-checkout
func (h *PaymentHandler) CreateStripeCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	intent, err := h.service.CreateStripeCheckout(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "create stripe checkout")
		return
	}

	utils.ResponseCreated(w, "Checkout session created", intent)
}

// VerifyStripePayment handles POST /api/bookings/{id}/stripe/verify
func (h *PaymentHandler) VerifyStripePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.service.VerifyStripePayment(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "verify stripe payment")
		return
	}

	utils.ResponseSuccess(w, "Payment verified", result)
}

// StripeWebhook handles POST /api/bookings/stripe/webhook. The raw body is
// needed for signature verification. Bad signatures get 400 and processing
// failures get 500 so Stripe redelivers.
func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Unable to read request body", nil)
		return
	}

	err = h.service.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		utils.ResponseSuccess(w, "received", nil)
	case errors.Is(err, utils.ErrValidation):
		h.log.Warn("Stripe webhook rejected", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid webhook", nil)
	default:
		h.log.Error("Stripe webhook processing failed", zap.Error(err))
		utils.ResponseInternalError(w, "Webhook processing failed")
	}
}

// UpdatePaymentStatus handles POST /api/bookings/{id}/update-payment-status
func (h *PaymentHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.UpdatePaymentStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.UpdatePaymentStatus(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update payment status")
		return
	}

	utils.ResponseSuccess(w, "Payment status updated", result)
}

// RefundBooking handles POST /api/bookings/{id}/refund
func (h *PaymentHandler) RefundBooking(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.RefundRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.RefundBooking(r.Context(), ownerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "refund booking")
		return
	}

	utils.ResponseSuccess(w, "Booking refunded", result)
}

func transactionQuery(r *http.Request) request.TransactionQuery {
	query := r.URL.Query()
	return request.TransactionQuery{
		Status: query.Get("status"),
		Limit:  utils.ParseInt(query.Get("limit"), 20),
		Offset: utils.ParseOffset(query.Get("offset")),
	}
}

// GetSalonTransactions handles GET /api/bookings/salon-transactions?status=&limit=&offset=
func (h *PaymentHandler) GetSalonTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req := transactionQuery(r)
	result, err := h.service.GetSalonTransactions(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get salon transactions")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// ExportSalonTransactions handles GET /api/bookings/salon-transactions/export
func (h *PaymentHandler) ExportSalonTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req := transactionQuery(r)
	content, filename, err := h.service.ExportSalonTransactions(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "export salon transactions")
		return
	}

	if err := utils.ResponseAttachment(w, xlsxMediaType, filename, content); err != nil {
		h.log.Warn("Failed to write export", zap.Error(err))
	}
}

// GetMyTransactions handles GET /api/bookings/my-transactions
func (h *PaymentHandler) GetMyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req := pageFromQuery(r)
	result, err := h.service.GetMyTransactions(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get my transactions")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
