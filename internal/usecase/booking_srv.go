package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/calendar"
	"salon-booking/pkg/lock"
	"salon-booking/pkg/metrics"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotConflictError reports the booking that already occupies a requested
// interval. It unwraps to utils.ErrConflict.
type SlotConflictError struct {
	Booking     *entity.Booking
	ServiceName string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("time slot conflicts with an existing booking at %s", e.Booking.BookingTime)
}

func (e *SlotConflictError) Unwrap() error {
	return utils.ErrConflict
}

func (e *SlotConflictError) Conflicting() response.ConflictingBooking {
	return response.ConflictingBooking{
		Time:     e.Booking.BookingTime,
		Service:  e.ServiceName,
		Duration: e.Booking.DurationMinutes,
	}
}

type BookingService interface {
	CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetMyBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelBooking(ctx context.Context, customerID uuid.UUID, bookingID string) (*response.BookingResponse, error)

	// Salon owner endpoints
	GetSalonBookings(ctx context.Context, ownerID uuid.UUID, req *request.SalonBookingsQuery) (*response.PaginatedResponse[response.BookingResponse], error)
	UpdateBookingStatus(ctx context.Context, ownerID uuid.UUID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)

	GetCalendarLink(ctx context.Context, userID uuid.UUID, bookingID string) (*response.CalendarLinkResponse, error)
}

// bookingTransitions lists the status changes a salon owner may make.
var bookingTransitions = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPending:   {entity.BookingStatusConfirmed, entity.BookingStatusCompleted, entity.BookingStatusCancelled},
	entity.BookingStatusConfirmed: {entity.BookingStatusCompleted, entity.BookingStatusCancelled},
}

func canTransitionBooking(from, to entity.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type bookingService struct {
	repo   *repository.Repository
	config *utils.Config
	locker lock.Locker
	notify *notifier
	grid   slotGrid
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
}

func NewBookingService(repo *repository.Repository, config *utils.Config, deps Deps, notify *notifier, log *zap.Logger) BookingService {
	return &bookingService{
		repo:   repo,
		config: config,
		locker: deps.Locker,
		notify: notify,
		grid:   newSlotGrid(config.Booking),
		loc:    config.App.Location(),
		now:    deps.Now,
		log:    log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) paymentWindow() time.Duration {
	minutes := s.config.Booking.PaymentWindowMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func (s *bookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	salonID, err := uuid.Parse(req.SalonID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salon id", utils.ErrValidation)
	}
	day, err := time.ParseInLocation(entity.DateLayout, req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must use YYYY-MM-DD", utils.ErrValidation)
	}
	start, err := entity.ParseClock(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: time must use HH:MM", utils.ErrValidation)
	}

	salon, err := s.repo.Salon.FindByID(ctx, salonID)
	if err != nil {
		s.log.Error("Failed to find salon", zap.Error(err), zap.String("salon_id", req.SalonID))
		return nil, fmt.Errorf("find salon: %w", err)
	}
	if salon == nil || !salon.IsActive {
		return nil, fmt.Errorf("%w: salon %s", utils.ErrNotFound, req.SalonID)
	}

	service, err := loadSalonService(ctx, s.repo, salon.ID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	end := start + service.DurationMinutes
	if !s.grid.Fits(start, end) {
		return nil, fmt.Errorf("%w: %s-%s is outside business hours", utils.ErrValidation,
			entity.FormatClock(start), entity.FormatClock(end))
	}

	now := s.now()
	startsAt := day.Add(time.Duration(start) * time.Minute)
	if startsAt.Before(now) {
		return nil, fmt.Errorf("%w: cannot book a time in the past", utils.ErrValidation)
	}

	customer, err := s.repo.User.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: customer account", utils.ErrUnauthorized)
	}

	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID:      customer.ID,
		SalonID:         salon.ID,
		ServiceID:       service.ID,
		BookingDate:     day,
		BookingTime:     entity.FormatClock(start),
		DurationMinutes: service.DurationMinutes,
		CustomerName:    firstNonEmpty(req.CustomerName, customer.DisplayName()),
		CustomerEmail:   firstNonEmpty(req.CustomerEmail, customer.Email),
		CustomerPhone:   req.CustomerPhone,
		Notes:           req.Notes,
		Price:           service.Price,
		Status:          entity.BookingStatusPending,
		PaymentStatus:   entity.PaymentStatusPending,
		PaymentMethod:   entity.PaymentMethod(req.PaymentMethod),
	}
	if booking.CustomerPhone == "" && customer.Phone != nil {
		booking.CustomerPhone = *customer.Phone
	}

	// Online payments hold the slot for the payment window; pay-later
	// bookings hold it until their status changes.
	var txn *entity.Transaction
	if booking.PaymentMethod == entity.PaymentMethodPayLater {
		txn = newPaymentTransaction(booking, s.config.Payment, fmt.Sprintf("Pay at salon: %s at %s", service.Name, salon.Name), now)
	} else {
		expires := now.Add(s.paymentWindow())
		booking.HoldExpiresAt = &expires
	}

	release, err := lock.Acquire(ctx, s.locker, lock.SlotKey(salon.ID.String(), day),
		s.config.Booking.LockTTL, s.config.Booking.LockWait, lock.DefaultBackoff)
	if err != nil {
		metrics.IncBooking("lock_timeout")
		s.log.Warn("Slot lock not acquired", zap.Error(err), zap.String("salon_id", req.SalonID), zap.String("date", req.Date))
		return nil, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.log.Warn("Failed to release slot lock", zap.Error(err), zap.String("salon_id", req.SalonID))
		}
	}()

	existing, err := s.repo.Booking.FindActiveBySalonAndDate(ctx, salon.ID, day)
	if err != nil {
		metrics.IncBooking("error")
		s.log.Error("Failed to load bookings for conflict check", zap.Error(err), zap.String("salon_id", req.SalonID))
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	if conflict := findConflict(existing, start, end, now); conflict != nil {
		metrics.IncBooking("conflict")
		s.log.Info("Booking rejected, slot taken",
			zap.String("salon_id", req.SalonID),
			zap.String("date", req.Date),
			zap.String("time", booking.BookingTime),
			zap.String("conflicting_booking_id", conflict.ID.String()))
		return nil, &SlotConflictError{Booking: conflict, ServiceName: s.serviceName(ctx, conflict.ServiceID)}
	}

	if err := s.repo.Booking.Create(ctx, booking, txn); err != nil {
		metrics.IncBooking("error")
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.String("salon_id", req.SalonID))
		return nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.IncBooking("created")

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("salon_id", req.SalonID),
		zap.String("date", req.Date),
		zap.String("time", booking.BookingTime),
		zap.String("payment_method", req.PaymentMethod))

	s.notify.BookingCreated(ctx, booking, salon, service.Name)

	resp := response.BookingToResponse(booking)
	resp.SalonName = salon.Name
	resp.ServiceName = service.Name
	resp.CalendarLink = s.calendarLink(booking, salon, service.Name)
	return &resp, nil
}

func (s *bookingService) serviceName(ctx context.Context, id uuid.UUID) string {
	service, err := s.repo.Service.FindByID(ctx, id)
	if err != nil || service == nil {
		return ""
	}
	return service.Name
}

func (s *bookingService) calendarLink(b *entity.Booking, salon *entity.Salon, serviceName string) string {
	startsAt, err := b.StartsAt(s.loc)
	if err != nil {
		return ""
	}
	return calendar.Link(calendar.Entry{
		Title:    fmt.Sprintf("%s at %s", serviceName, salon.Name),
		Details:  fmt.Sprintf("Booking %s (%d minutes)", b.ID.String(), b.DurationMinutes),
		Location: salon.Location(),
		Start:    startsAt,
		End:      startsAt.Add(time.Duration(b.DurationMinutes) * time.Minute),
	})
}

func (s *bookingService) GetMyBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindByCustomer(ctx, customerID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get customer bookings",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("page", req.Page))
		return nil, fmt.Errorf("get customer bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByCustomer(ctx, customerID)
	if err != nil {
		s.log.Error("Failed to count customer bookings", zap.Error(err))
		return nil, fmt.Errorf("count customer bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.describe(ctx, bookings), req.Page, req.Limit(), total), nil
}

// describe converts bookings and fills salon and service names.
func (s *bookingService) describe(ctx context.Context, bookings []*entity.Booking) []response.BookingResponse {
	salons := make(map[uuid.UUID]string)
	services := make(map[uuid.UUID]string)

	result := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp := response.BookingToResponse(b)

		name, ok := salons[b.SalonID]
		if !ok {
			if salon, _ := s.repo.Salon.FindByID(ctx, b.SalonID); salon != nil {
				name = salon.Name
			}
			salons[b.SalonID] = name
		}
		resp.SalonName = name

		svc, ok := services[b.ServiceID]
		if !ok {
			svc = s.serviceName(ctx, b.ServiceID)
			services[b.ServiceID] = svc
		}
		resp.ServiceName = svc

		result[i] = resp
	}
	return result
}

func (s *bookingService) CancelBooking(ctx context.Context, customerID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	booking, err := findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, fmt.Errorf("%w: booking %s", utils.ErrNotFound, bookingID)
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: only pending bookings can be cancelled, booking is %s", utils.ErrInvalidState, booking.Status)
	}

	if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusCancelled); err != nil {
		s.log.Error("Failed to cancel booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if _, err := s.repo.Transaction.CancelPendingByBooking(ctx, booking.ID); err != nil {
		s.log.Warn("Failed to cancel pending transactions", zap.Error(err), zap.String("booking_id", bookingID))
	}

	previous := booking.Status
	booking.Status = entity.BookingStatusCancelled
	booking.UpdatedAt = s.now()

	s.log.Info("Booking cancelled by customer", zap.String("booking_id", bookingID))
	s.notify.BookingStatusChanged(ctx, booking, previous, customerID)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// ownedSalon returns the salon managed by ownerID.
func ownedSalon(ctx context.Context, repo *repository.Repository, ownerID uuid.UUID) (*entity.Salon, error) {
	salon, err := repo.Salon.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find owner salon: %w", err)
	}
	if salon == nil {
		return nil, fmt.Errorf("%w: no salon is linked to this account", utils.ErrForbidden)
	}
	return salon, nil
}

func findBooking(ctx context.Context, repo *repository.Repository, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id %q", utils.ErrValidation, bookingID)
	}

	booking, err := repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", utils.ErrNotFound, bookingID)
	}
	return booking, nil
}

func (s *bookingService) GetSalonBookings(ctx context.Context, ownerID uuid.UUID, req *request.SalonBookingsQuery) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	filter := repository.BookingFilter{
		SalonID:       salon.ID,
		Status:        entity.BookingStatus(req.Status),
		PaymentStatus: entity.PaymentStatus(req.PaymentStatus),
		Limit:         req.Limit(),
		Offset:        req.Offset(),
	}
	if req.Date != "" {
		day, err := time.ParseInLocation(entity.DateLayout, req.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date must use YYYY-MM-DD", utils.ErrValidation)
		}
		filter.Date = &day
	}

	bookings, err := s.repo.Booking.FindBySalon(ctx, filter)
	if err != nil {
		s.log.Error("Failed to get salon bookings", zap.Error(err), zap.String("salon_id", salon.ID.String()))
		return nil, fmt.Errorf("get salon bookings: %w", err)
	}

	total, err := s.repo.Booking.CountBySalon(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count salon bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.describe(ctx, bookings), req.Page, req.Limit(), total), nil
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, ownerID uuid.UUID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

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

	next := entity.BookingStatus(req.Status)
	if !canTransitionBooking(booking.Status, next) {
		return nil, fmt.Errorf("%w: cannot change booking from %s to %s", utils.ErrInvalidState, booking.Status, next)
	}

	if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, next); err != nil {
		s.log.Error("Failed to update booking status", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	previous := booking.Status
	booking.Status = next
	booking.UpdatedAt = s.now()

	switch {
	case next == entity.BookingStatusCompleted && booking.PaymentMethod == entity.PaymentMethodPayLater && !booking.IsPaid():
		if err := s.settleCash(ctx, booking); err != nil {
			return nil, err
		}
	case next == entity.BookingStatusCancelled && !booking.IsPaid():
		if _, err := s.repo.Transaction.CancelPendingByBooking(ctx, booking.ID); err != nil {
			s.log.Warn("Failed to cancel pending transactions", zap.Error(err), zap.String("booking_id", bookingID))
		}
	}

	s.log.Info("Booking status updated",
		zap.String("booking_id", bookingID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))
	s.notify.BookingStatusChanged(ctx, booking, previous, ownerID)

	resp := response.BookingToResponse(booking)
	resp.SalonName = salon.Name
	return &resp, nil
}

// settleCash completes the pending transaction of a pay-later booking as a
// cash payment.
func (s *bookingService) settleCash(ctx context.Context, booking *entity.Booking) error {
	txn, err := s.repo.Transaction.FindPendingByBooking(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("find pending transaction: %w", err)
	}
	if txn == nil {
		txn = newPaymentTransaction(booking, s.config.Payment, "Cash payment at salon", s.now())
		if err := s.repo.Transaction.Create(ctx, txn); err != nil {
			return fmt.Errorf("create cash transaction: %w", err)
		}
	}

	applied, err := s.repo.Transaction.MarkCompleted(ctx, txn.ID, entity.PaymentMethodCash, "", map[string]any{"settled_by": "salon_owner"})
	if err != nil {
		return fmt.Errorf("complete cash transaction: %w", err)
	}
	if err := s.repo.Booking.MarkPaid(ctx, booking.ID, entity.PaymentMethodCash); err != nil {
		return fmt.Errorf("mark booking paid: %w", err)
	}

	booking.PaymentStatus = entity.PaymentStatusCompleted
	booking.PaymentMethod = entity.PaymentMethodCash
	booking.HoldExpiresAt = nil

	if applied {
		txn.Status = entity.TransactionStatusCompleted
		txn.PaymentMethod = entity.PaymentMethodCash
		metrics.IncPayment(string(entity.PaymentMethodCash), string(entity.TransactionStatusCompleted))
		s.notify.PaymentCompleted(ctx, booking, txn)
	}
	return nil
}

func (s *bookingService) GetCalendarLink(ctx context.Context, userID uuid.UUID, bookingID string) (*response.CalendarLinkResponse, error) {
	booking, err := findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}

	salon, err := s.repo.Salon.FindByID(ctx, booking.SalonID)
	if err != nil {
		return nil, fmt.Errorf("find salon: %w", err)
	}
	if salon == nil {
		return nil, fmt.Errorf("%w: salon of booking %s", utils.ErrNotFound, bookingID)
	}
	if booking.CustomerID != userID && salon.OwnerID != userID {
		return nil, fmt.Errorf("%w: booking %s", utils.ErrNotFound, bookingID)
	}

	return &response.CalendarLinkResponse{
		BookingID:    booking.ID.String(),
		CalendarLink: s.calendarLink(booking, salon, s.serviceName(ctx, booking.ServiceID)),
	}, nil
}

// newPaymentTransaction builds the pending payment row of a booking with
// the platform fee split applied.
func newPaymentTransaction(b *entity.Booking, config utils.PaymentConfig, description string, now time.Time) *entity.Transaction {
	txn := &entity.Transaction{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		SalonID:       b.SalonID,
		Type:          entity.TransactionTypePayment,
		Amount:        b.Price,
		Currency:      config.Currency,
		Status:        entity.TransactionStatusPending,
		PaymentMethod: b.PaymentMethod,
		Description:   description,
		Metadata:      map[string]any{},
	}
	txn.CalculatePlatformFee(config.PlatformFeeRate)
	return txn
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsSlotConflict extracts a SlotConflictError from err.
func IsSlotConflict(err error) (*SlotConflictError, bool) {
	var conflict *SlotConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
