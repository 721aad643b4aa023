package adaptor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubBookings struct {
	usecase.BookingService
	create func(req *request.CreateBookingRequest) (*response.BookingResponse, error)
}

func (s *stubBookings) CreateBooking(_ context.Context, _ uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	return s.create(req)
}

type stubAvailability struct {
	err error
}

func (s *stubAvailability) GetAvailableSlots(_ context.Context, salonID, date, _ string) (*response.AvailableSlotsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &response.AvailableSlotsResponse{SalonID: salonID, Date: date}, nil
}

type stubPayments struct {
	usecase.PaymentService
	webhookErr error
	signature  string
}

func (s *stubPayments) HandleStripeWebhook(_ context.Context, _ []byte, signature string) error {
	s.signature = signature
	return s.webhookErr
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func authed(r *http.Request) *http.Request {
	return r.WithContext(utils.SetUserContext(r.Context(), uuid.New(), string(entity.RoleCustomer)))
}

const validBooking = `{
	"salon_id": "6f1c1c2e-8d4e-4f4a-9a51-1f0f3f2b6a10",
	"service_id": "0b7f6a8e-2c1d-4e5f-8a9b-3c4d5e6f7a8b",
	"date": "2025-06-02",
	"time": "10:00",
	"payment_method": "stripe"
}`

func TestCreateBookingConflictReturns409(t *testing.T) {
	conflict := &usecase.SlotConflictError{
		Booking:     &entity.Booking{BookingTime: "10:00", DurationMinutes: 60},
		ServiceName: "Haircut",
	}
	h := NewBookingHandler(&stubBookings{create: func(*request.CreateBookingRequest) (*response.BookingResponse, error) {
		return nil, conflict
	}}, &stubAvailability{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.CreateBooking(rec, authed(httptest.NewRequest(http.MethodPost, "/api/bookings/create", strings.NewReader(validBooking))))

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Status)

	var data struct {
		Conflicting response.ConflictingBooking `json:"conflicting_booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, response.ConflictingBooking{Time: "10:00", Service: "Haircut", Duration: 60}, data.Conflicting)
}

func TestCreateBookingValidation(t *testing.T) {
	called := false
	h := NewBookingHandler(&stubBookings{create: func(*request.CreateBookingRequest) (*response.BookingResponse, error) {
		called = true
		return &response.BookingResponse{}, nil
	}}, &stubAvailability{}, zap.NewNop())

	tests := []struct {
		name string
		body string
	}{
		{"MalformedJSON", `{"salon_id":`},
		{"MissingFields", `{"salon_id": "6f1c1c2e-8d4e-4f4a-9a51-1f0f3f2b6a10"}`},
		{"BadTime", strings.Replace(validBooking, `"10:00"`, `"10am"`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CreateBooking(rec, authed(httptest.NewRequest(http.MethodPost, "/api/bookings/create", strings.NewReader(tt.body))))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.False(t, called)

	rec := httptest.NewRecorder()
	h.CreateBooking(rec, httptest.NewRequest(http.MethodPost, "/api/bookings/create", strings.NewReader(validBooking)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateBooking(rec, authed(httptest.NewRequest(http.MethodPost, "/api/bookings/create", strings.NewReader(validBooking))))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad date", utils.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: booking is cancelled", utils.ErrInvalidState), http.StatusBadRequest},
		{fmt.Errorf("%w: login", utils.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: not yours", utils.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: salon", utils.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: already refunded", utils.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: lock", utils.ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: stripe down", utils.ErrUpstream), http.StatusInternalServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, zap.NewNop(), tt.err, "test")
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, zap.NewNop(), fmt.Errorf("%w: stripe: card_declined: Your card was declined.", utils.ErrUpstream), "test")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "card_declined: Your card was declined.")
}

func TestCheckAvailableSlotsRequiresParams(t *testing.T) {
	h := NewBookingHandler(&stubBookings{}, &stubAvailability{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.CheckAvailableSlots(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/check-available-slots?date=2025-06-02", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CheckAvailableSlots(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/check-available-slots?salon_id=abc&date=2025-06-02", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStripeWebhookResponses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"Accepted", nil, http.StatusOK},
		{"BadSignature", fmt.Errorf("%w: signature", utils.ErrValidation), http.StatusBadRequest},
		{"ApplyFailed", fmt.Errorf("database down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &stubPayments{webhookErr: tt.err}
			h := NewPaymentHandler(payments, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/bookings/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()
			h.StripeWebhook(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "t=1,v1=abc", payments.signature)
		})
	}
}
