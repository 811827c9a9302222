package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day. It is stored as "DD/MM/YYYY".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// EndOfDay allows a booking to run until midnight ("24:00").
const EndOfDay TimeOfDay = 24 * 60

// NewDate builds a Date, normalizing overflowing days and months.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current date in loc.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// ParseDate accepts "DD/MM/YYYY" (padding optional) and ISO "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	var parts []string
	iso := false
	switch {
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
		iso = true
	}
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY", s)
	}
	if iso {
		parts[0], parts[2] = parts[2], parts[0]
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := parseDigits(p)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		nums[i] = n
	}

	d := Date{Year: nums[2], Month: time.Month(nums[1]), Day: nums[0]}
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 || d.Day > DaysIn(d.Year, d.Month) {
		return Date{}, fmt.Errorf("invalid date %q: out of range", s)
	}
	return d, nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date canonically, e.g. "05/10/2025".
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// ISO formats the date as "YYYY-MM-DD".
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time(time.UTC).Before(other.Time(time.UTC))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseTimeOfDay converts "HH:MM" into minutes since midnight. A trailing
// ":SS" is accepted and dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := parseDigits(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", s, err)
		}
		nums[i] = n
	}
	h, m := nums[0], nums[1]
	if m > 59 || h > 24 || (h == 24 && m != 0) || (len(nums) == 3 && nums[2] > 59) {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// parseDigits accepts plain decimal digits only, no sign.
func parseDigits(p string) (int, error) {
	if p == "" || len(p) > 4 {
		return 0, fmt.Errorf("%q is not a number", p)
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a number", p)
		}
	}
	return strconv.Atoi(p)
}

// MustTime is ParseTimeOfDay for literals; it panics on bad input.
func MustTime(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return int(t)
}

// String formats the time as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On returns the instant t on date d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return d.Time(loc).Add(time.Duration(t) * time.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
