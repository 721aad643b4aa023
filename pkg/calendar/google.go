package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Pusher inserts events into a Google Calendar with a service account.
type Pusher struct {
	service    *gcal.Service
	calendarID string
}

func NewPusher(ctx context.Context, credentialsFile, calendarID string) (*Pusher, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &Pusher{service: srv, calendarID: calendarID}, nil
}

// Insert creates the event and returns its id.
func (p *Pusher) Insert(ctx context.Context, e Entry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	event := &gcal.Event{
		Summary:     e.Title,
		Description: e.Details,
		Location:    e.Location,
		Start:       &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339)},
	}

	created, err := p.service.Events.Insert(p.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	return created.Id, nil
}
