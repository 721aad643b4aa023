package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"salon-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", at.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeParseWebhook(t *testing.T) {
	g := NewStripeGateway(utils.StripeConfig{SecretKey: "sk_test", WebhookSecret: testWebhookSecret})

	t.Run("CheckoutCompleted", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_1",
			"object": "event",
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_test_42",
				"object": "checkout.session",
				"client_reference_id": "b-42",
				"payment_status": "paid",
				"payment_intent": "pi_123",
				"metadata": {"booking_id": "b-42"}
			}}
		}`)

		ev, err := g.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, WebhookCheckoutCompleted, ev.Type)
		assert.Equal(t, "cs_test_42", ev.ProviderID)
		assert.Equal(t, "pi_123", ev.ProviderTransactionID)
		assert.Equal(t, "b-42", ev.BookingID)
		assert.Equal(t, "paid", ev.PaymentStatus)
	})

	t.Run("BookingIDFromMetadata", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_2",
			"object": "event",
			"type": "checkout.session.expired",
			"data": {"object": {"id": "cs_test_43", "object": "checkout.session", "metadata": {"booking_id": "b-43"}}}
		}`)

		ev, err := g.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, WebhookCheckoutExpired, ev.Type)
		assert.Equal(t, "b-43", ev.BookingID)
	})

	t.Run("PaymentFailed", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_3",
			"object": "event",
			"type": "payment_intent.payment_failed",
			"data": {"object": {
				"id": "pi_999",
				"object": "payment_intent",
				"metadata": {"booking_id": "b-44"},
				"last_payment_error": {"message": "Your card was declined."}
			}}
		}`)

		ev, err := g.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, WebhookPaymentFailed, ev.Type)
		assert.Equal(t, "pi_999", ev.ProviderTransactionID)
		assert.Equal(t, "b-44", ev.BookingID)
		assert.Equal(t, "Your card was declined.", ev.Reason)
	})

	t.Run("BadSignature", func(t *testing.T) {
		payload := []byte(`{"id":"evt_4","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

		_, err := g.ParseWebhook(payload, signPayload(payload, "whsec_other", time.Now()))
		assert.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("StaleTimestamp", func(t *testing.T) {
		payload := []byte(`{"id":"evt_5","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

		_, err := g.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, utils.ErrValidation)
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(150000), toMinorUnits(1500))
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, "19.90", formatAmount(19.9))
}
