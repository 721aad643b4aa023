package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/utils"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(config utils.StripeConfig) *StripeGateway {
	return &StripeGateway{
		api:           client.New(config.SecretKey, nil),
		webhookSecret: config.WebhookSecret,
	}
}

func (g *StripeGateway) Provider() entity.PaymentMethod {
	return entity.PaymentMethodStripe
}

func stripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("stripe %s: %w: %s", op, utils.ErrUpstream, se.Msg)
	}
	return fmt.Errorf("stripe %s: %w: %v", op, utils.ErrUpstream, err)
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	bookingID := req.BookingID.String()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.ReturnURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(bookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"booking_id": bookingID},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("booking_id", bookingID)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, stripeError("create checkout session", err)
	}

	return &Intent{ProviderID: sess.ID, RedirectURL: sess.URL}, nil
}

func (g *StripeGateway) Confirm(ctx context.Context, sessionID string) (*Confirmation, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, stripeError("retrieve checkout session", err)
	}

	return sessionConfirmation(sess), nil
}

func sessionConfirmation(sess *stripe.CheckoutSession) *Confirmation {
	c := &Confirmation{
		ProviderID: sess.ID,
		BookingID:  sessionBookingID(sess),
		Status:     ConfirmationPending,
		Details: map[string]any{
			"stripe_session_id": sess.ID,
			"payment_status":    string(sess.PaymentStatus),
		},
	}
	if sess.PaymentIntent != nil {
		c.ProviderTransactionID = sess.PaymentIntent.ID
		c.Details["stripe_payment_intent"] = sess.PaymentIntent.ID
	}

	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		c.Status = ConfirmationCompleted
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		c.Status = ConfirmationFailed
	}
	return c
}

func sessionBookingID(sess *stripe.CheckoutSession) string {
	if sess.ClientReferenceID != "" {
		return sess.ClientReferenceID
	}
	return sess.Metadata["booking_id"]
}

func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if req.ProviderTransactionID == "" {
		return nil, fmt.Errorf("stripe refund: %w: missing payment intent", utils.ErrInvalidState)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ProviderTransactionID),
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	ref, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, stripeError("refund", err)
	}

	return &RefundResult{RefundID: ref.ID, Status: string(ref.Status)}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the events
// used for reconciliation. Other event types are returned with only ID and Type.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("stripe webhook: %w: %v", utils.ErrValidation, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: WebhookEventType(event.Type)}

	switch out.Type {
	case WebhookCheckoutCompleted, WebhookCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("stripe webhook: %w: decode session: %v", utils.ErrValidation, err)
		}
		out.ProviderID = sess.ID
		out.BookingID = sessionBookingID(&sess)
		out.PaymentStatus = string(sess.PaymentStatus)
		if sess.PaymentIntent != nil {
			out.ProviderTransactionID = sess.PaymentIntent.ID
		}

	case WebhookPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe webhook: %w: decode payment intent: %v", utils.ErrValidation, err)
		}
		out.ProviderTransactionID = pi.ID
		out.BookingID = pi.Metadata["booking_id"]
		if pi.LastPaymentError != nil {
			out.Reason = pi.LastPaymentError.Msg
		}
	}

	return out, nil
}
