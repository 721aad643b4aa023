// Package payment adapts the external payment providers to a common gateway.
package payment

import (
	"context"
	"fmt"
	"math"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
)

type IntentRequest struct {
	BookingID     uuid.UUID
	Amount        float64
	Currency      string
	Description   string
	CustomerEmail string
	ReturnURL     string
	CancelURL     string
}

// Intent is a payment started at the provider that the customer must approve.
type Intent struct {
	ProviderID  string
	RedirectURL string
}

type ConfirmationStatus string

const (
	ConfirmationCompleted ConfirmationStatus = "completed"
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationFailed    ConfirmationStatus = "failed"
)

type Confirmation struct {
	ProviderID            string
	ProviderTransactionID string
	Status                ConfirmationStatus
	BookingID             string
	Details               map[string]any
}

type RefundRequest struct {
	ProviderID            string
	ProviderTransactionID string
	Amount                float64
	Currency              string
	Reason                string
}

type RefundResult struct {
	RefundID string
	Status   string
}

// Gateway is implemented by every payment provider adapter.
type Gateway interface {
	Provider() entity.PaymentMethod
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// Confirm settles the payment identified by providerID if the customer
	// approved it and reports its state.
	Confirm(ctx context.Context, providerID string) (*Confirmation, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

type WebhookEventType string

const (
	WebhookCheckoutCompleted WebhookEventType = "checkout.session.completed"
	WebhookCheckoutExpired   WebhookEventType = "checkout.session.expired"
	WebhookPaymentFailed     WebhookEventType = "payment_intent.payment_failed"
)

// WebhookEvent is a verified provider notification reduced to what
// reconciliation needs.
type WebhookEvent struct {
	ID                    string
	Type                  WebhookEventType
	ProviderID            string
	ProviderTransactionID string
	BookingID             string
	PaymentStatus         string
	Reason                string
}

// WebhookParser verifies and decodes provider webhooks.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Registry resolves gateways by payment method.
type Registry struct {
	gateways map[entity.PaymentMethod]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[entity.PaymentMethod]Gateway)}
	for _, g := range gateways {
		if g != nil {
			r.gateways[g.Provider()] = g
		}
	}
	return r
}

func (r *Registry) Get(method entity.PaymentMethod) (Gateway, error) {
	g, ok := r.gateways[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s payments are not configured", utils.ErrUnavailable, method)
	}
	return g, nil
}

// WebhookParser returns the parser of method, if its gateway has one.
func (r *Registry) WebhookParser(method entity.PaymentMethod) (WebhookParser, error) {
	g, err := r.Get(method)
	if err != nil {
		return nil, err
	}
	p, ok := g.(WebhookParser)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no webhook support", utils.ErrUnavailable, method)
	}
	return p, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
