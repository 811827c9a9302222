package backup

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"senac-reservas-backend/pkg/database"
	"senac-reservas-backend/pkg/store"
)

type failingExporter struct{}

func (failingExporter) Export(io.Writer) error { return errors.New("boom") }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceWritesExportAndPrunes(t *testing.T) {
	dir := t.TempDir()
	st := store.New(database.NewMemoryDatabase(), store.WithLogger(newTestLogger()))

	s := NewScheduler(st, dir, 2, time.UTC, newTestLogger())
	base := time.Date(2025, time.October, 5, 8, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := s.RunOnce()
		require.NoError(t, err)
		paths = append(paths, p)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Base(paths[1]), entries[0].Name())
	assert.Equal(t, filepath.Base(paths[2]), entries[1].Name())

	data, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reservations": [`)
}

func TestRunOnceRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(failingExporter{}, dir, 0, time.UTC, newTestLogger())

	_, err := s.RunOnce()
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(failingExporter{}, t.TempDir(), 0, time.UTC, newTestLogger())
	assert.Error(t, s.Start("every tuesday"))
}
