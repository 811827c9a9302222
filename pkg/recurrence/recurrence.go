// Package recurrence expands RFC 5545 recurrence rules into booking dates.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"senac-reservas-backend/pkg/models"
)

// MaxOccurrences caps every expansion.
const MaxOccurrences = 52

var ErrEmptyRule = errors.New("empty recurrence rule")

// Expand returns the dates produced by rule starting at first, at most
// limit of them. An optional "RRULE:" prefix is accepted. A rule without
// COUNT or UNTIL is cut at limit.
func Expand(rule string, first models.Date, limit int) ([]models.Date, error) {
	rule = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if rule == "" {
		return nil, ErrEmptyRule
	}
	if limit <= 0 || limit > MaxOccurrences {
		limit = MaxOccurrences
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", rule, err)
	}
	r.DTStart(first.Time(time.UTC))

	next := r.Iterator()
	dates := make([]models.Date, 0, limit)
	for len(dates) < limit {
		t, ok := next()
		if !ok {
			break
		}
		dates = append(dates, models.DateOf(t))
	}
	return dates, nil
}
