package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salon-booking/internal/data/repository"
	"salon-booking/pkg/calendar"
	"salon-booking/pkg/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalendarInserter creates events on a shared calendar.
type CalendarInserter interface {
	Insert(ctx context.Context, e calendar.Entry) (string, error)
}

// CalendarSync mirrors confirmed bookings to the salon calendar.
type CalendarSync struct {
	repo     *repository.Repository
	inserter CalendarInserter
	loc      *time.Location
	log      *zap.Logger
}

func NewCalendarSync(repo *repository.Repository, inserter CalendarInserter, loc *time.Location, log *zap.Logger) *CalendarSync {
	return &CalendarSync{
		repo:     repo,
		inserter: inserter,
		loc:      loc,
		log:      log.With(zap.String("component", "calendar_sync")),
	}
}

// Subscribe registers the sync on the bus. Pushes run in the background so
// publishers are never held up by the calendar API.
func (c *CalendarSync) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingConfirmed, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode booking event: %w", err)
		}

		go func() {
			if _, err := c.Push(context.Background(), payload.BookingID); err != nil {
				c.log.Warn("Calendar push failed", zap.String("booking_id", payload.BookingID), zap.Error(err))
			}
		}()
		return nil
	})
}

// Push inserts the calendar entry of bookingID and returns the event id.
func (c *CalendarSync) Push(ctx context.Context, bookingID string) (string, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return "", fmt.Errorf("invalid booking id %q: %w", bookingID, err)
	}

	booking, err := c.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if booking == nil {
		return "", fmt.Errorf("booking %s not found", bookingID)
	}

	salon, err := c.repo.Salon.FindByID(ctx, booking.SalonID)
	if err != nil {
		return "", err
	}
	if salon == nil {
		return "", fmt.Errorf("salon %s not found", booking.SalonID.String())
	}

	serviceName := "Appointment"
	if svc, err := c.repo.Service.FindByID(ctx, booking.ServiceID); err == nil && svc != nil {
		serviceName = svc.Name
	}

	startsAt, err := booking.StartsAt(c.loc)
	if err != nil {
		return "", err
	}

	eventID, err := c.inserter.Insert(ctx, calendar.Entry{
		Title:    fmt.Sprintf("%s at %s", serviceName, salon.Name),
		Details:  fmt.Sprintf("Booking %s (%d minutes)", booking.ID.String(), booking.DurationMinutes),
		Location: salon.Location(),
		Start:    startsAt,
		End:      startsAt.Add(time.Duration(booking.DurationMinutes) * time.Minute),
	})
	if err != nil {
		return "", err
	}

	c.log.Info("Booking pushed to calendar",
		zap.String("booking_id", bookingID),
		zap.String("event_id", eventID))
	return eventID, nil
}
