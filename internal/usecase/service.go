package usecase

import (
	"context"
	"time"

	"salon-booking/internal/data/repository"
	"salon-booking/internal/payment"
	"salon-booking/pkg/events"
	"salon-booking/pkg/googleauth"
	"salon-booking/pkg/lock"
	"salon-booking/pkg/mailer"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

// IdentityVerifier checks Google ID tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*googleauth.Identity, error)
}

// Deps carries the infrastructure shared by the services. Nil fields fall
// back to in-process defaults.
type Deps struct {
	Locker   lock.Locker
	Payments *payment.Registry
	Mailer   mailer.Sender
	Events   *events.EventBus
	Google   IdentityVerifier
	Now      func() time.Time
}

func (d *Deps) defaults() {
	if d.Locker == nil {
		d.Locker = lock.NewMemoryLocker()
	}
	if d.Payments == nil {
		d.Payments = payment.NewRegistry()
	}
	if d.Events == nil {
		d.Events = events.NewEventBus()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

type Service struct {
	Auth         AuthService
	User         UserService
	Salon        SalonService
	Availability AvailabilityService
	Booking      BookingService
	Payment      PaymentService
	Expiry       ExpiryService
	Chat         ChatService
	Notification NotificationService
	Review       ReviewService
	Application  SalonApplicationService
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	deps.defaults()
	notify := newNotifier(repo, config, deps, log)

	return &Service{
		Auth:         NewAuthService(repo, config, deps, log),
		User:         NewUserService(repo, log),
		Salon:        NewSalonService(repo, log),
		Availability: NewAvailabilityService(repo, config, deps, log),
		Booking:      NewBookingService(repo, config, deps, notify, log),
		Payment:      NewPaymentService(repo, config, deps, notify, log),
		Expiry:       NewExpiryService(repo, deps, notify, log),
		Chat:         NewChatService(repo, notify, log),
		Notification: NewNotificationService(repo, log),
		Review:       NewReviewService(repo, notify, log),
		Application:  NewSalonApplicationService(repo, deps, notify, log),
	}
}
