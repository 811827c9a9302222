package store

import (
	"errors"
	"strings"

	"senac-reservas-backend/pkg/models"
)

var (
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrSpaceNotFound        = errors.New("space not found")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
)

var (
	// ErrConflict means the requested slot overlaps a live reservation.
	ErrConflict = errors.New("time slot already booked")
	// ErrInvalidTransition means the reservation is no longer pending.
	ErrInvalidTransition = errors.New("reservation is not pending")
	// ErrNotPersisted is returned alongside a valid result when the
	// in-memory change succeeded but the backing store write failed.
	ErrNotPersisted = errors.New("state not persisted")
	// ErrStateHeld means writes are refused because the stored state could
	// not be loaded and would be lost by overwriting it.
	ErrStateHeld = errors.New("stored state not loaded, writes refused")
)

// SeriesConflictError lists the dates of a series that could not be booked.
type SeriesConflictError struct {
	Dates []models.Date
}

func (e *SeriesConflictError) Error() string {
	dates := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		dates[i] = d.String()
	}
	return "time slot already booked on " + strings.Join(dates, ", ")
}

func (e *SeriesConflictError) Unwrap() error {
	return ErrConflict
}
