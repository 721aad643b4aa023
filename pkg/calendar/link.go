// Package calendar builds "add to calendar" links and optionally pushes
// confirmed bookings to a shared Google Calendar.
package calendar

import (
	"net/url"
	"time"
)

const templateURL = "https://calendar.google.com/calendar/render"

const linkDateFormat = "20060102T150405"

type Entry struct {
	Title    string
	Details  string
	Location string
	Start    time.Time
	End      time.Time
}

// Link returns a Google Calendar event template URL for e.
func Link(e Entry) string {
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", e.Title)
	params.Set("dates", e.Start.Format(linkDateFormat)+"/"+e.End.Format(linkDateFormat))
	params.Set("details", e.Details)
	params.Set("location", e.Location)
	return templateURL + "?" + params.Encode()
}
