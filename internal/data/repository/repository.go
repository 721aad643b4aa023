package repository

import (
	"errors"

	"salon-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	OTP          OTPRepository
	Salon        SalonRepository
	Service      ServiceRepository
	Booking      BookingRepository
	Transaction  TransactionRepository
	WebhookEvent WebhookEventRepository
	Notification NotificationRepository
	Chat         ChatRepository
	Review       ReviewRepository
	Application  SalonApplicationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		OTP:          NewOTPRepository(db, log),
		Salon:        NewSalonRepository(db, log),
		Service:      NewServiceRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		Transaction:  NewTransactionRepository(db, log),
		WebhookEvent: NewWebhookEventRepository(db, log),
		Notification: NewNotificationRepository(db, log),
		Chat:         NewChatRepository(db, log),
		Review:       NewReviewRepository(db, log),
		Application:  NewSalonApplicationRepository(db, log),
	}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
