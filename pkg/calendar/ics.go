package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"senac-reservas-backend/pkg/models"
)

// FeedOptions controls the generated ICS document.
type FeedOptions struct {
	Name     string
	Host     string
	Location *time.Location
	Stamp    time.Time
}

// BuildICS renders every non-rejected reservation as a VEVENT.
func BuildICS(reservations []models.Reservation, spaces []models.Space, opts FeedOptions) string {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	host := opts.Host
	if host == "" {
		host = "reservas.local"
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	names := make(map[int]string, len(spaces))
	for _, sp := range spaces {
		names[sp.ID] = sp.Name
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//SENAC//Sistema de Reservas//PT")
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	for _, r := range reservations {
		if r.Status == models.StatusRejected {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("reservation-%d@%s", r.ID, host))
		event.SetDtStampTime(stamp)
		if !r.CreatedAt.IsZero() {
			event.SetCreatedTime(r.CreatedAt)
		}
		event.SetStartAt(r.StartTime.On(r.Date, loc))
		event.SetEndAt(r.EndTime.On(r.Date, loc))
		event.SetSummary(r.Title)
		if r.Description != "" {
			event.SetDescription(r.Description)
		}

		location := names[r.SpaceID]
		if location == "" {
			location = r.SpaceName
		}
		if location != "" {
			event.SetLocation(location)
		}

		if r.Status == models.StatusApproved {
			event.SetStatus(ical.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ical.ObjectStatusTentative)
		}
	}

	return cal.Serialize()
}
