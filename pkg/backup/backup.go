// Package backup writes periodic exports of the reservation state to disk.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"senac-reservas-backend/pkg/store"
)

// Exporter is the part of the store a backup needs.
type Exporter interface {
	Export(w io.Writer) error
}

// Scheduler runs exports on a cron schedule.
type Scheduler struct {
	exporter Exporter
	dir      string
	keep     int
	logger   *slog.Logger
	now      func() time.Time
	cron     *cron.Cron
}

// NewScheduler prepares a scheduler writing into dir and keeping the newest
// keep files (0 keeps everything).
func NewScheduler(exporter Exporter, dir string, keep int, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		exporter: exporter,
		dir:      dir,
		keep:     keep,
		logger:   logger,
		now:      time.Now,
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// Start registers the cron schedule and starts the loop.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("backup scheduler started", slog.String("schedule", schedule), slog.String("dir", s.dir))
	return nil
}

// Stop waits for a running backup to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	path, err := s.RunOnce()
	if err != nil {
		s.logger.Error("backup failed", slog.Any("error", err))
		return
	}
	s.logger.Info("backup written", slog.String("path", path))
}

// RunOnce writes one export and prunes old ones.
func (s *Scheduler) RunOnce() (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(s.dir, store.ExportFileName(s.now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	if err := s.exporter.Export(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}

	if err := s.prune(); err != nil {
		s.logger.Warn("backup prune failed", slog.Any("error", err))
	}
	return path, nil
}

func (s *Scheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "senac-reservas-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	// millisecond timestamps have the same width for centuries, so
	// lexical order is chronological
	sort.Strings(names)

	for len(names) > s.keep {
		if err := os.Remove(filepath.Join(s.dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
