// Package store owns the reservation, space and collaborator collections.
// State is hydrated once from a key-value backend and the whole blob is
// written back after every mutation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"senac-reservas-backend/pkg/database"
	"senac-reservas-backend/pkg/models"
)

// DefaultKey is the storage key of the serialized state.
const DefaultKey = "senac_reservations_data"

// UnreadableSuffix is appended to the storage key to keep a stored blob that
// could not be decoded, before the store falls back to the default state.
const UnreadableSuffix = ".unreadable"

// Backend is the key-value storage the store persists into.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Store is safe for concurrent use. Every call runs to completion
// before the next one observes the state.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	key     string
	logger  *slog.Logger
	now     func() time.Time
	loc     *time.Location
	empty   bool

	state models.State
	// held blocks every write while the stored blob may still hold data
	// that was never loaded.
	held error
}

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithEmptyState starts from empty collections instead of the demo data
// when nothing usable is stored.
func WithEmptyState() Option {
	return func(s *Store) { s.empty = true }
}

// New builds a store and hydrates it from backend. Read or decode
// failures are logged and the store falls back to the default state.
// An undecodable blob is first copied to key+UnreadableSuffix. When that
// copy or the read itself fails, writes are refused until Reload succeeds.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logger:  slog.Default(),
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := s.backend.Get(s.key)
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			s.logger.Info("no stored state, using defaults", slog.String("key", s.key))
		} else {
			s.logger.Warn("cannot read stored state, using defaults until reload",
				slog.String("key", s.key), slog.Any("error", err))
			s.held = fmt.Errorf("%w: %w", ErrStateHeld, err)
		}
		s.state = s.defaultState()
		return s
	}

	state, err := decodeState(raw)
	if err != nil {
		s.logger.Warn("cannot decode stored state, using defaults",
			slog.String("key", s.key), slog.Any("error", err))
		s.keepUnreadable(raw)
		s.state = s.defaultState()
		return s
	}

	s.logger.Info("state loaded",
		slog.String("key", s.key),
		slog.Int("reservations", len(state.Reservations)),
		slog.Int("spaces", len(state.Spaces)),
		slog.Int("collaborators", len(state.Collaborators)))
	s.state = state
	return s
}

// keepUnreadable copies a blob that failed to decode next to the state key.
func (s *Store) keepUnreadable(raw string) {
	side := s.key + UnreadableSuffix
	if err := s.backend.Set(side, raw); err != nil {
		s.logger.Error("cannot keep unreadable state, refusing writes until reload",
			slog.String("key", side), slog.Any("error", err))
		s.held = fmt.Errorf("%w: %w", ErrStateHeld, err)
		return
	}
	s.logger.Warn("unreadable state kept", slog.String("key", side))
}

func (s *Store) read() (models.State, error) {
	raw, err := s.backend.Get(s.key)
	if err != nil {
		return models.State{}, err
	}
	return decodeState(raw)
}

func decodeState(raw string) (models.State, error) {
	var state models.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return models.State{}, fmt.Errorf("decode state: %w", err)
	}
	normalize(&state)
	return state, nil
}

func normalize(state *models.State) {
	if state.Reservations == nil {
		state.Reservations = []models.Reservation{}
	}
	if state.Spaces == nil {
		state.Spaces = []models.Space{}
	}
	if state.Collaborators == nil {
		state.Collaborators = []models.Collaborator{}
	}
}

func (s *Store) defaultState() models.State {
	if !s.empty {
		seed, err := SeedState(s.today(), s.now())
		if err == nil {
			return seed
		}
		s.logger.Error("seed data unusable", slog.Any("error", err))
	}
	settings := models.DefaultSettings()
	return models.State{
		Reservations:  []models.Reservation{},
		Spaces:        []models.Space{},
		Collaborators: []models.Collaborator{},
		Settings:      &settings,
	}
}

func (s *Store) today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// Today returns the current date in the store's timezone.
func (s *Store) Today() models.Date {
	return s.today()
}

// Location returns the store's timezone.
func (s *Store) Location() *time.Location {
	return s.loc
}

// persistLocked writes the full state. Callers hold the write lock.
// A failure leaves the in-memory change in place.
func (s *Store) persistLocked() error {
	if s.held != nil {
		s.logger.Error("persist state", slog.String("key", s.key), slog.Any("error", s.held))
		return fmt.Errorf("%w: %w", ErrNotPersisted, s.held)
	}
	raw, err := json.Marshal(s.state)
	if err == nil {
		err = s.backend.Set(s.key, string(raw))
	}
	if err != nil {
		s.logger.Error("persist state", slog.String("key", s.key), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return nil
}

// Save persists the current state without changing it.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// Reload re-reads the state from the backend. On failure the current
// state is kept. A missing key reloads the default state. Success lifts
// a write block set by New.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	switch {
	case errors.Is(err, database.ErrKeyNotFound):
		state = s.defaultState()
	case err != nil:
		return fmt.Errorf("reload state: %w", err)
	}
	s.state = state
	s.held = nil
	return nil
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Export writes the state as indented JSON.
func (s *Store) Export(w io.Writer) error {
	snapshot := s.Snapshot()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	return nil
}

// ExportFileName names an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("senac-reservas-%d.json", t.UnixMilli())
}

// nextID returns max(id)+1, or 1 for an empty collection. Deleting the
// highest id and then adding reuses that id.
func nextID[T any](items []T, id func(T) int) int {
	highest := 0
	for _, it := range items {
		if v := id(it); v > highest {
			highest = v
		}
	}
	return highest + 1
}
