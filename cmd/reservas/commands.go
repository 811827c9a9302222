package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	handler "senac-reservas-backend/api"
	"senac-reservas-backend/pkg/backup"
	"senac-reservas-backend/pkg/config"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

// openApp loads configuration and opens the storage. The caller closes
// the returned app's database.
func openApp() (*handler.App, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return handler.NewApp(cfg, cfg.NewLogger(os.Stderr))
}

func closeApp(app *handler.App) {
	if err := app.DB.Close(); err != nil {
		app.Logger.Warn("close storage", slog.Any("error", err))
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app)
		},
	}
}

func serve(ctx context.Context, app *handler.App) error {
	cfg, logger := app.Config, app.Logger

	var scheduler *backup.Scheduler
	if cfg.BackupCron != "" {
		scheduler = backup.NewScheduler(app.Store, cfg.BackupDir, cfg.BackupKeep, cfg.Location(), logger)
		if err := scheduler.Start(cfg.BackupCron); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			slog.String("addr", srv.Addr),
			slog.String("environment", cfg.Environment),
			slog.Bool("auth", cfg.AuthEnabled()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full reservation state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(app)
			return export(app.Store, out, cmd.OutOrStdout(), time.Now())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file or directory to write to (default stdout)")
	return cmd
}

// export writes the state to stdout when out is empty or "-". A directory
// gets a timestamped file name.
func export(s *store.Store, out string, stdout io.Writer, now time.Time) error {
	if out == "" || out == "-" {
		return s.Export(stdout)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, store.ExportFileName(now))
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := s.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func newBackupCommand() *cobra.Command {
	var dir string
	var keep int
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write one backup into the backup directory and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			if dir == "" {
				dir = app.Config.BackupDir
			}
			if !cmd.Flags().Changed("keep") {
				keep = app.Config.BackupKeep
			}
			path, err := backup.NewScheduler(app.Store, dir, keep, app.Config.Location(), app.Logger).RunOnce()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default BACKUP_DIR)")
	cmd.Flags().IntVar(&keep, "keep", 0, "number of backups to keep, 0 keeps all (default BACKUP_KEEP)")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a collaborator",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(app)
			if !app.Config.AuthEnabled() {
				return errors.New("JWT_SECRET is not set")
			}

			c, ok := app.Store.FindCollaboratorByEmail(email)
			if !ok {
				return fmt.Errorf("%w: %s", store.ErrCollaboratorNotFound, email)
			}
			token, expiresIn, err := utils.NewJWTService(app.Config.JWTSecret, app.Config.TokenTTL).GenerateAccessToken(c)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "role %s, expires in %ds\n", c.Role, expiresIn)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "collaborator email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSecretCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random value for JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := utils.GenerateSecret(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 32, "random bytes before encoding (minimum 32)")
	return cmd
}

func newCheckCommand() *cobra.Command {
	var (
		spaceID   int
		date      string
		start     string
		end       string
		excludeID int
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a slot is free",
		Example: "  reservas check --space 1 --date 05/10/2025 --start 09:00 --end 10:00",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := models.ParseDate(date)
			if err != nil {
				return err
			}
			from, err := models.ParseTimeOfDay(start)
			if err != nil {
				return err
			}
			to, err := models.ParseTimeOfDay(end)
			if err != nil {
				return err
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(app)
			return check(app.Store, cmd.OutOrStdout(), spaceID, d, from, to, excludeID)
		},
	}
	cmd.Flags().IntVar(&spaceID, "space", 0, "space id")
	cmd.Flags().StringVar(&date, "date", "", "date, DD/MM/YYYY or YYYY-MM-DD")
	cmd.Flags().StringVar(&start, "start", "", "start time HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time HH:MM")
	cmd.Flags().IntVar(&excludeID, "exclude", 0, "reservation id to ignore")
	for _, f := range []string{"space", "date", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

var errSlotTaken = errors.New("slot is taken")

// check prints the reservations blocking the slot and fails when there are any.
func check(s *store.Store, w io.Writer, spaceID int, date models.Date, start, end models.TimeOfDay, excludeID int) error {
	conflicts := s.Conflicts(spaceID, date, start, end, excludeID)
	if len(conflicts) == 0 {
		fmt.Fprintf(w, "space %d is free on %s %s-%s\n", spaceID, date, start, end)
		return nil
	}
	lines := make([]string, len(conflicts))
	for i, r := range conflicts {
		lines[i] = fmt.Sprintf("  #%d %s-%s %s (%s)", r.ID, r.StartTime, r.EndTime, r.Title, r.Status)
	}
	fmt.Fprintf(w, "space %d is booked on %s:\n%s\n", spaceID, date, strings.Join(lines, "\n"))
	return errSlotTaken
}
