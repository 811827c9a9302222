// Package calendar projects reservations onto month grids and ICS feeds.
package calendar

import (
	"fmt"
	"time"

	"senac-reservas-backend/pkg/models"
)

// MonthGrid describes the layout of one month.
type MonthGrid struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	FirstWeekday int        `json:"firstWeekday"` // 0 = Sunday
	DaysInMonth  int        `json:"daysInMonth"`
}

// DayCell is one day of the month with its reservations.
type DayCell struct {
	Day          int                  `json:"day"`
	Date         models.Date          `json:"date"`
	Count        int                  `json:"count"`
	Reservations []models.Reservation `json:"reservations"`
}

// MonthView is a grid plus its per-day cells.
type MonthView struct {
	MonthGrid
	Days []DayCell `json:"days"`
}

// Month computes the grid of the given month.
func Month(year int, month time.Month) (MonthGrid, error) {
	if month < time.January || month > time.December {
		return MonthGrid{}, fmt.Errorf("invalid month %d", month)
	}
	if year < 1 {
		return MonthGrid{}, fmt.Errorf("invalid year %d", year)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return MonthGrid{
		Year:         year,
		Month:        month,
		FirstWeekday: int(first.Weekday()),
		DaysInMonth:  models.DaysIn(year, month),
	}, nil
}

// Navigate moves delta months from year/month, wrapping the year.
func Navigate(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// Project attaches to each day of grid the reservations on that date.
// Reservations keep the order they were given in.
func Project(grid MonthGrid, reservations []models.Reservation) MonthView {
	view := MonthView{MonthGrid: grid, Days: make([]DayCell, grid.DaysInMonth)}
	for i := range view.Days {
		view.Days[i] = DayCell{
			Day:          i + 1,
			Date:         models.Date{Year: grid.Year, Month: grid.Month, Day: i + 1},
			Reservations: []models.Reservation{},
		}
	}

	for _, r := range reservations {
		if r.Date.Year != grid.Year || r.Date.Month != grid.Month {
			continue
		}
		if r.Date.Day < 1 || r.Date.Day > grid.DaysInMonth {
			continue
		}
		cell := &view.Days[r.Date.Day-1]
		cell.Reservations = append(cell.Reservations, r)
		cell.Count++
	}
	return view
}
