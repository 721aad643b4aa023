package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/utils"

	"github.com/plutov/paypal/v4"
)

const (
	paypalOrderCompleted = "COMPLETED"
	paypalOrderApproved  = "APPROVED"
	paypalOrderVoided    = "VOIDED"
)

type PayPalGateway struct {
	client *paypal.Client
	mu     sync.Mutex
}

func NewPayPalGateway(config utils.PayPalConfig) (*PayPalGateway, error) {
	base := paypal.APIBaseSandBox
	if strings.EqualFold(config.Mode, "live") {
		base = paypal.APIBaseLive
	}
	return newPayPalGateway(config.ClientID, config.ClientSecret, base)
}

func newPayPalGateway(clientID, secret, apiBase string) (*PayPalGateway, error) {
	c, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("create paypal client: %w", err)
	}
	return &PayPalGateway{client: c}, nil
}

func (g *PayPalGateway) Provider() entity.PaymentMethod {
	return entity.PaymentMethodPayPal
}

func paypalError(op string, err error) error {
	var re *paypal.ErrorResponse
	if errors.As(err, &re) && re.Message != "" {
		return fmt.Errorf("paypal %s: %w: %s", op, utils.ErrUpstream, re.Message)
	}
	return fmt.Errorf("paypal %s: %w: %v", op, utils.ErrUpstream, err)
}

func (g *PayPalGateway) authorize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client.Token != nil {
		return nil
	}
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return paypalError("authenticate", err)
	}
	return nil
}

func (g *PayPalGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := g.authorize(ctx); err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: req.BookingID.String(),
			CustomID:    req.BookingID.String(),
			Description: req.Description,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: strings.ToUpper(req.Currency),
				Value:    formatAmount(req.Amount),
			},
		},
	}
	appCtx := &paypal.ApplicationContext{
		ReturnURL:  req.ReturnURL,
		CancelURL:  req.CancelURL,
		UserAction: "PAY_NOW",
	}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, paypalError("create order", err)
	}

	intent := &Intent{ProviderID: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			intent.RedirectURL = link.Href
			break
		}
	}
	if intent.RedirectURL == "" {
		return nil, fmt.Errorf("paypal create order: %w: no approval link returned", utils.ErrUpstream)
	}

	return intent, nil
}

// Confirm captures an approved order. An order that was already captured
// is reported as completed without capturing again.
func (g *PayPalGateway) Confirm(ctx context.Context, orderID string) (*Confirmation, error) {
	if err := g.authorize(ctx); err != nil {
		return nil, err
	}

	order, err := g.client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, paypalError("get order", err)
	}

	c := &Confirmation{
		ProviderID: order.ID,
		Status:     ConfirmationPending,
		Details:    map[string]any{"paypal_order_id": order.ID, "paypal_status": order.Status},
	}
	if len(order.PurchaseUnits) > 0 {
		c.BookingID = order.PurchaseUnits[0].ReferenceID
	}

	switch order.Status {
	case paypalOrderCompleted:
		c.Status = ConfirmationCompleted
		c.ProviderTransactionID = firstOrderCapture(order)

	case paypalOrderApproved:
		captured, err := g.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
		if err != nil {
			return nil, paypalError("capture order", err)
		}
		c.Details["paypal_status"] = captured.Status
		if captured.Status == paypalOrderCompleted {
			c.Status = ConfirmationCompleted
		} else {
			c.Status = ConfirmationFailed
		}
		for _, unit := range captured.PurchaseUnits {
			if unit.Payments != nil && len(unit.Payments.Captures) > 0 {
				c.ProviderTransactionID = unit.Payments.Captures[0].ID
				break
			}
		}

	case paypalOrderVoided:
		c.Status = ConfirmationFailed
	}

	if c.ProviderTransactionID != "" {
		c.Details["paypal_capture_id"] = c.ProviderTransactionID
	}

	return c, nil
}

func firstOrderCapture(order *paypal.Order) string {
	for _, unit := range order.PurchaseUnits {
		if unit.Payments != nil && len(unit.Payments.Captures) > 0 {
			return unit.Payments.Captures[0].ID
		}
	}
	return ""
}

func (g *PayPalGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if req.ProviderTransactionID == "" {
		return nil, fmt.Errorf("paypal refund: %w: missing capture id", utils.ErrInvalidState)
	}
	if err := g.authorize(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.RefundCapture(ctx, req.ProviderTransactionID, paypal.RefundCaptureRequest{
		Amount: &paypal.Money{
			Currency: strings.ToUpper(req.Currency),
			Value:    formatAmount(req.Amount),
		},
		NoteToPayer: req.Reason,
	})
	if err != nil {
		return nil, paypalError("refund capture", err)
	}

	return &RefundResult{RefundID: resp.ID, Status: resp.Status}, nil
}
