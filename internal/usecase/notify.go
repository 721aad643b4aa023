package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/pkg/events"
	"salon-booking/pkg/mailer"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const emailTimeout = 10 * time.Second

// notifier fans booking and payment changes out to email, the in-app inbox,
// the activity log and the event bus. Every channel is advisory: failures
// are logged and never returned to the business operation.
type notifier struct {
	repo     *repository.Repository
	config   *utils.Config
	mailer   mailer.Sender
	bus      *events.EventBus
	now      func() time.Time
	activity *zap.Logger
	log      *zap.Logger
}

func newNotifier(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *notifier {
	return &notifier{
		repo:     repo,
		config:   config,
		mailer:   deps.Mailer,
		bus:      deps.Events,
		now:      deps.Now,
		activity: utils.ActivityLogger(log),
		log:      log.With(zap.String("service", "notifier")),
	}
}

// sendEmail delivers msg and returns the typed delivery error, if any.
func (n *notifier) sendEmail(ctx context.Context, msg mailer.Message) error {
	if n.mailer == nil {
		n.log.Debug("Email skipped, no mailer configured", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, emailTimeout)
	defer cancel()

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.log.Warn("Email delivery failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Bool("delivery_error", mailer.IsDeliveryError(err)),
			zap.Error(err))
		return err
	}
	return nil
}

func (n *notifier) push(ctx context.Context, userID uuid.UUID, typ entity.NotificationType, title, message string, bookingID *uuid.UUID) {
	if n.repo.Notification == nil {
		return
	}

	notification := &entity.Notification{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: n.now(),
		},
		UserID:           userID,
		Type:             typ,
		Title:            title,
		Message:          message,
		RelatedBookingID: bookingID,
		Metadata:         map[string]any{},
	}

	if err := n.repo.Notification.Create(ctx, notification); err != nil {
		n.log.Warn("Failed to create notification",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("type", string(typ)))
	}
}

func (n *notifier) publish(eventType string, b *entity.Booking, reason, changedBy string) {
	payload := events.BookingEventPayload{
		BookingID:     b.ID.String(),
		CustomerID:    b.CustomerID.String(),
		SalonID:       b.SalonID.String(),
		ServiceID:     b.ServiceID.String(),
		Date:          b.BookingDate.Format(entity.DateLayout),
		Time:          b.BookingTime,
		Duration:      b.DurationMinutes,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		PaymentMethod: string(b.PaymentMethod),
		Amount:        b.Price,
		Reason:        reason,
		ChangedBy:     changedBy,
		OccurredAt:    n.now(),
	}

	if err := n.bus.PublishJSON(eventType, payload); err != nil {
		n.log.Warn("Event subscriber failed", zap.String("event", eventType), zap.Error(err))
	}
}

// names resolves the salon and service labels used in messages.
func (n *notifier) names(ctx context.Context, b *entity.Booking) (*entity.Salon, string) {
	var salon *entity.Salon
	if n.repo.Salon != nil {
		salon, _ = n.repo.Salon.FindByID(ctx, b.SalonID)
	}
	serviceName := "your appointment"
	if n.repo.Service != nil {
		if svc, _ := n.repo.Service.FindByID(ctx, b.ServiceID); svc != nil {
			serviceName = svc.Name
		}
	}
	return salon, serviceName
}

func salonName(salon *entity.Salon) string {
	if salon == nil {
		return "the salon"
	}
	return salon.Name
}

func bookingSummary(b *entity.Booking, salon *entity.Salon, serviceName string) string {
	return fmt.Sprintf("%s at %s on %s at %s (%d minutes)",
		serviceName, salonName(salon), b.BookingDate.Format(entity.DateLayout), b.BookingTime, b.DurationMinutes)
}

func (n *notifier) logActivity(action string, b *entity.Booking, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("action", action),
		zap.String("booking_id", b.ID.String()),
		zap.String("salon_id", b.SalonID.String()),
		zap.String("customer_id", b.CustomerID.String()),
		zap.String("status", string(b.Status)),
		zap.String("payment_status", string(b.PaymentStatus)),
	}, fields...)
	n.activity.Info("booking activity", fields...)
}

func (n *notifier) BookingCreated(ctx context.Context, b *entity.Booking, salon *entity.Salon, serviceName string) {
	summary := bookingSummary(b, salon, serviceName)

	_ = n.sendEmail(ctx, mailer.Message{
		To:       b.CustomerEmail,
		ToName:   b.CustomerName,
		Subject:  "Booking received - " + salonName(salon),
		TextBody: fmt.Sprintf("Hi %s,\n\nWe received your booking for %s.\nStatus: %s\nPayment: %s\n", b.CustomerName, summary, b.Status, b.PaymentMethod),
	})

	if salon != nil {
		n.push(ctx, salon.OwnerID, entity.NotificationSystem, "New booking",
			fmt.Sprintf("%s booked %s", b.CustomerName, summary), &b.ID)
	}

	n.publish(events.EventBookingCreated, b, "", b.CustomerID.String())
	n.logActivity("booking_created", b, zap.String("payment_method", string(b.PaymentMethod)), zap.Float64("price", b.Price))
}

var statusNotifications = map[entity.BookingStatus]entity.NotificationType{
	entity.BookingStatusConfirmed: entity.NotificationBookingConfirmed,
	entity.BookingStatusCancelled: entity.NotificationBookingCancelled,
	entity.BookingStatusCompleted: entity.NotificationBookingCompleted,
}

var statusEvents = map[entity.BookingStatus]string{
	entity.BookingStatusConfirmed: events.EventBookingConfirmed,
	entity.BookingStatusCancelled: events.EventBookingCancelled,
	entity.BookingStatusCompleted: events.EventBookingCompleted,
}

// BookingStatusChanged informs the other party of a status change made by actor.
func (n *notifier) BookingStatusChanged(ctx context.Context, b *entity.Booking, previous entity.BookingStatus, actor uuid.UUID) {
	salon, serviceName := n.names(ctx, b)
	summary := bookingSummary(b, salon, serviceName)
	title := "Booking " + string(b.Status)
	typ, ok := statusNotifications[b.Status]
	if !ok {
		typ = entity.NotificationSystem
	}

	if actor == b.CustomerID {
		if salon != nil {
			n.push(ctx, salon.OwnerID, typ, title, fmt.Sprintf("%s changed their booking for %s to %s", b.CustomerName, summary, b.Status), &b.ID)
		}
	} else {
		n.push(ctx, b.CustomerID, typ, title, fmt.Sprintf("Your booking for %s is now %s", summary, b.Status), &b.ID)
		_ = n.sendEmail(ctx, mailer.Message{
			To:       b.CustomerEmail,
			ToName:   b.CustomerName,
			Subject:  title + " - " + salonName(salon),
			TextBody: fmt.Sprintf("Hi %s,\n\nYour booking for %s changed from %s to %s.\n", b.CustomerName, summary, previous, b.Status),
		})
	}

	if eventType, ok := statusEvents[b.Status]; ok {
		n.publish(eventType, b, "", actor.String())
	}
	n.logActivity("booking_status_changed", b, zap.String("previous_status", string(previous)), zap.String("changed_by", actor.String()))
}

func (n *notifier) PaymentCompleted(ctx context.Context, b *entity.Booking, txn *entity.Transaction) {
	salon, serviceName := n.names(ctx, b)
	summary := bookingSummary(b, salon, serviceName)

	_ = n.sendEmail(ctx, mailer.Message{
		To:      b.CustomerEmail,
		ToName:  b.CustomerName,
		Subject: "Booking confirmed - " + salonName(salon),
		TextBody: fmt.Sprintf("Hi %s,\n\nYour payment of %.2f %s for %s was received. Your booking is %s.\n",
			b.CustomerName, txn.Amount, strings.ToUpper(txn.Currency), summary, b.Status),
	})

	n.push(ctx, b.CustomerID, entity.NotificationPaymentSuccess, "Payment received",
		fmt.Sprintf("Your payment for %s was successful", summary), &b.ID)
	if salon != nil {
		n.push(ctx, salon.OwnerID, entity.NotificationBookingConfirmed, "Booking paid",
			fmt.Sprintf("%s paid for %s", b.CustomerName, summary), &b.ID)
	}

	n.publish(events.EventPaymentCompleted, b, "", "")
	if b.Status == entity.BookingStatusConfirmed {
		n.publish(events.EventBookingConfirmed, b, "", "")
	}
	n.logActivity("payment_completed", b,
		zap.String("transaction_id", txn.ID.String()),
		zap.String("payment_method", string(txn.PaymentMethod)),
		zap.Float64("amount", txn.Amount),
		zap.Float64("platform_fee", txn.PlatformFee),
		zap.Float64("salon_payout", txn.SalonPayout))
}

func (n *notifier) PaymentFailed(ctx context.Context, b *entity.Booking, reason string) {
	salon, serviceName := n.names(ctx, b)
	n.push(ctx, b.CustomerID, entity.NotificationPaymentFailed, "Payment failed",
		fmt.Sprintf("Your payment for %s did not go through: %s", bookingSummary(b, salon, serviceName), reason), &b.ID)

	n.publish(events.EventPaymentFailed, b, reason, "")
	n.logActivity("payment_failed", b, zap.String("reason", reason))
}

func (n *notifier) PaymentRefunded(ctx context.Context, b *entity.Booking, refund *entity.Transaction, reason string) {
	salon, serviceName := n.names(ctx, b)
	summary := bookingSummary(b, salon, serviceName)

	_ = n.sendEmail(ctx, mailer.Message{
		To:       b.CustomerEmail,
		ToName:   b.CustomerName,
		Subject:  "Refund issued - " + salonName(salon),
		TextBody: fmt.Sprintf("Hi %s,\n\nA refund of %.2f %s for %s has been issued.\n", b.CustomerName, refund.Amount, strings.ToUpper(refund.Currency), summary),
	})
	n.push(ctx, b.CustomerID, entity.NotificationBookingCancelled, "Booking refunded",
		fmt.Sprintf("Your booking for %s was cancelled and refunded", summary), &b.ID)

	n.publish(events.EventPaymentRefunded, b, reason, "")
	n.publish(events.EventBookingCancelled, b, reason, "")
	n.logActivity("payment_refunded", b, zap.String("refund_transaction_id", refund.ID.String()), zap.Float64("amount", refund.Amount))
}

func (n *notifier) BookingExpired(b *entity.Booking) {
	n.publish(events.EventBookingExpired, b, "payment window elapsed", "system")
	n.logActivity("booking_expired", b, zap.Time("created_at", b.CreatedAt))
}

func (n *notifier) MessageReceived(ctx context.Context, recipient uuid.UUID, senderName string) {
	n.push(ctx, recipient, entity.NotificationMessageReceived, "New message",
		fmt.Sprintf("You have a new message from %s", senderName), nil)
}

func (n *notifier) ReviewReceived(ctx context.Context, ownerID uuid.UUID, rating int) {
	n.push(ctx, ownerID, entity.NotificationReviewReceived, "New review",
		fmt.Sprintf("Your salon received a %d-star review", rating), nil)
}

func (n *notifier) ReviewResponded(ctx context.Context, customerID uuid.UUID, salon string) {
	n.push(ctx, customerID, entity.NotificationReviewResponse, "Review response",
		fmt.Sprintf("%s responded to your review", salon), nil)
}

// ApplicationReviewed tells the applicant about an approval or rejection.
// salon is nil for rejections.
func (n *notifier) ApplicationReviewed(ctx context.Context, applicant *entity.User, app *entity.SalonApplication, salon *entity.Salon) {
	var subject, body, title, message string
	if app.Status == entity.ApplicationStatusApproved {
		subject = "Your salon application was approved - " + app.SalonName
		body = fmt.Sprintf("Hi %s,\n\n%s is now listed. Sign in to add your services and start taking bookings.\n", applicant.DisplayName(), app.SalonName)
		title = "Application approved"
		message = fmt.Sprintf("%s was approved and is now listed", app.SalonName)
	} else {
		subject = "Your salon application - " + app.SalonName
		body = fmt.Sprintf("Hi %s,\n\nWe could not approve the application for %s at this time.\n", applicant.DisplayName(), app.SalonName)
		title = "Application rejected"
		message = fmt.Sprintf("The application for %s was not approved", app.SalonName)
	}
	if app.AdminNotes != nil && *app.AdminNotes != "" {
		body += "\nNotes from our team: " + *app.AdminNotes + "\n"
	}

	_ = n.sendEmail(ctx, mailer.Message{
		To:       applicant.Email,
		ToName:   applicant.DisplayName(),
		Subject:  subject,
		TextBody: body,
	})
	n.push(ctx, applicant.ID, entity.NotificationApplicationUpdate, title, message, nil)

	fields := []zap.Field{
		zap.String("action", "application_"+string(app.Status)),
		zap.String("application_id", app.ID.String()),
		zap.String("user_id", applicant.ID.String()),
	}
	if salon != nil {
		fields = append(fields, zap.String("salon_id", salon.ID.String()))
	}
	n.activity.Info("salon application activity", fields...)
}
