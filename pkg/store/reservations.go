package store

import (
	"log/slog"

	"github.com/google/uuid"

	"senac-reservas-backend/pkg/models"
)

func reservationID(r models.Reservation) int { return r.ID }

// ListReservations returns the reservations, most recently added first.
func (s *Store) ListReservations() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Reservation{}, s.state.Reservations...)
}

// FilterReservations returns the reservations matching f, in list order.
func (s *Store) FilterReservations(f models.ReservationFilter) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Reservation{}
	for _, r := range s.state.Reservations {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// GetReservation looks a reservation up by id.
func (s *Store) GetReservation(id int) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.reservationIndex(id); i >= 0 {
		return s.state.Reservations[i], true
	}
	return models.Reservation{}, false
}

func (s *Store) reservationIndex(id int) int {
	for i, r := range s.state.Reservations {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// AddReservation stores a new reservation without checking for conflicts.
// The returned reservation is valid even when the error wraps ErrNotPersisted.
func (s *Store) AddReservation(draft models.ReservationDraft) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.insertReservationLocked(draft, "")
	return r, s.persistLocked()
}

// BookReservation checks the slot and adds the reservation under one lock.
func (s *Store) BookReservation(draft models.ReservationDraft) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasConflictLocked(draft.SpaceID, draft.Date, draft.StartTime, draft.EndTime, 0) {
		return models.Reservation{}, ErrConflict
	}
	r := s.insertReservationLocked(draft, "")
	s.logger.Info("reservation booked",
		slog.Int("id", r.ID),
		slog.Int("space_id", r.SpaceID),
		slog.String("date", r.Date.String()),
		slog.String("status", string(r.Status)))
	return r, s.persistLocked()
}

// BookSeries books draft once per date, all or nothing. The dates must be
// free of existing reservations and of each other.
func (s *Store) BookSeries(draft models.ReservationDraft, dates []models.Date) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []models.Date
	seen := make(map[models.Date]bool, len(dates))
	for _, d := range dates {
		if seen[d] || s.hasConflictLocked(draft.SpaceID, d, draft.StartTime, draft.EndTime, 0) {
			conflicts = append(conflicts, d)
		}
		seen[d] = true
	}
	if len(conflicts) > 0 {
		return nil, &SeriesConflictError{Dates: conflicts}
	}

	seriesID := uuid.NewString()
	out := make([]models.Reservation, 0, len(dates))
	for _, d := range dates {
		occurrence := draft
		occurrence.Date = d
		out = append(out, s.insertReservationLocked(occurrence, seriesID))
	}
	s.logger.Info("reservation series booked",
		slog.String("series_id", seriesID),
		slog.Int("space_id", draft.SpaceID),
		slog.Int("count", len(out)))
	return out, s.persistLocked()
}

func (s *Store) insertReservationLocked(draft models.ReservationDraft, seriesID string) models.Reservation {
	status := models.StatusApproved
	if s.settingsLocked().RequireApproval {
		status = models.StatusPending
	}

	spaceName := draft.SpaceName
	if spaceName == "" {
		if i := s.spaceIndex(draft.SpaceID); i >= 0 {
			spaceName = s.state.Spaces[i].Name
		}
	}

	r := models.Reservation{
		ID:             nextID(s.state.Reservations, reservationID),
		SpaceID:        draft.SpaceID,
		SpaceName:      spaceName,
		RequestorName:  draft.RequestorName,
		RequestorEmail: draft.RequestorEmail,
		RequestorPhone: draft.RequestorPhone,
		Type:           draft.Type,
		Date:           draft.Date,
		StartTime:      draft.StartTime,
		EndTime:        draft.EndTime,
		Title:          draft.Title,
		Description:    draft.Description,
		Participants:   draft.Participants,
		Status:         status,
		SeriesID:       seriesID,
		CreatedAt:      s.now(),
	}

	s.state.Reservations = append([]models.Reservation{r}, s.state.Reservations...)
	return r
}

// UpdateReservation shallow-merges patch onto the reservation. It does not
// check for conflicts.
func (s *Store) UpdateReservation(id int, patch models.ReservationPatch) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.reservationIndex(id)
	if i < 0 {
		return models.Reservation{}, ErrReservationNotFound
	}
	patch.Apply(&s.state.Reservations[i])
	return s.state.Reservations[i], s.persistLocked()
}

// EditReservation is UpdateReservation with a conflict check, excluding the
// reservation itself, whenever the patch moves a live reservation or brings
// a rejected one back to life.
func (s *Store) EditReservation(id int, patch models.ReservationPatch) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.reservationIndex(id)
	if i < 0 {
		return models.Reservation{}, ErrReservationNotFound
	}

	current := s.state.Reservations[i]
	merged := current
	patch.Apply(&merged)
	revived := current.Status == models.StatusRejected && merged.Status != models.StatusRejected
	if (patch.TouchesSlot() || revived) && merged.Status != models.StatusRejected &&
		s.hasConflictLocked(merged.SpaceID, merged.Date, merged.StartTime, merged.EndTime, id) {
		return models.Reservation{}, ErrConflict
	}

	s.state.Reservations[i] = merged
	return merged, s.persistLocked()
}

// ApproveReservation moves a pending reservation to approved.
func (s *Store) ApproveReservation(id int) (models.Reservation, error) {
	return s.transition(id, models.StatusApproved)
}

// RejectReservation moves a pending reservation to rejected, freeing its slot.
func (s *Store) RejectReservation(id int) (models.Reservation, error) {
	return s.transition(id, models.StatusRejected)
}

func (s *Store) transition(id int, to models.ReservationStatus) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.reservationIndex(id)
	if i < 0 {
		return models.Reservation{}, ErrReservationNotFound
	}
	r := &s.state.Reservations[i]
	if r.Status != models.StatusPending {
		return *r, ErrInvalidTransition
	}
	r.Status = to
	s.logger.Info("reservation status changed", slog.Int("id", id), slog.String("status", string(to)))
	return *r, s.persistLocked()
}

// DeleteReservation removes a reservation. It reports false, and persists
// nothing, when the id is unknown.
func (s *Store) DeleteReservation(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.reservationIndex(id)
	if i < 0 {
		return false, nil
	}
	s.state.Reservations = append(s.state.Reservations[:i], s.state.Reservations[i+1:]...)
	return true, s.persistLocked()
}

// CheckConflict reports whether [start, end) on date overlaps a reservation
// of the same space that is not rejected. excludeID skips one reservation;
// pass 0 to consider all of them. Touching endpoints do not conflict.
func (s *Store) CheckConflict(spaceID int, date models.Date, start, end models.TimeOfDay, excludeID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasConflictLocked(spaceID, date, start, end, excludeID)
}

// Conflicts returns every reservation CheckConflict would trip on.
func (s *Store) Conflicts(spaceID int, date models.Date, start, end models.TimeOfDay, excludeID int) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Reservation{}
	for _, r := range s.state.Reservations {
		if blocks(r, spaceID, date, excludeID) && r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) hasConflictLocked(spaceID int, date models.Date, start, end models.TimeOfDay, excludeID int) bool {
	for _, r := range s.state.Reservations {
		if blocks(r, spaceID, date, excludeID) && r.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func blocks(r models.Reservation, spaceID int, date models.Date, excludeID int) bool {
	return r.ID != excludeID &&
		r.SpaceID == spaceID &&
		r.Date == date &&
		r.Status != models.StatusRejected
}

// Stats computes the dashboard counters for today.
func (s *Store) Stats(today models.Date) models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := models.Stats{Total: len(s.state.Reservations)}
	for _, r := range s.state.Reservations {
		if r.Date == today {
			st.Today++
		}
		switch r.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusApproved:
			st.Approved++
		case models.StatusRejected:
			st.Rejected++
		}
	}
	return st
}
