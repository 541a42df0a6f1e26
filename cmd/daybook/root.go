package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/config"
	"github.com/hyperengineering/daybook/internal/prefs"
	"github.com/hyperengineering/daybook/internal/repository"
	"github.com/hyperengineering/daybook/internal/session"
	"github.com/hyperengineering/daybook/internal/store"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	dbPathOverride string
	jsonOutput     bool
)

var rootCmd = &cobra.Command{
	Use:          "daybook",
	Short:        "Daybook - journals, dated entries and moods",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and DAYBOOK_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(moodCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration and applies the --db override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathOverride != "" {
		p, err := homedir.Expand(dbPathOverride)
		if err != nil {
			return nil, fmt.Errorf("expand --db: %w", err)
		}
		cfg.Database.Path = p
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the process logger from the log section.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app is what one-shot commands work against.
type app struct {
	cfg     *config.Config
	store   *store.SQLiteStore
	session *session.Coordinator
}

// openApp opens the database and session for a one-shot command. Only
// warnings are logged, to stderr, so command output stays clean.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	quiet := cfg.Log
	if parseLogLevel(quiet.Level) < slog.LevelWarn {
		quiet.Level = "warn"
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), quiet))

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	c := session.New(ctx, repository.New(db), prefs.NewDiskStore(cfg.Prefs.Path))
	return &app{cfg: cfg, store: db, session: c}, nil
}

func (a *app) repo() *repository.Repository {
	return a.session.Repository()
}

// Close drains pending entry operations and closes the database.
func (a *app) Close() {
	a.session.Close()
	if err := a.store.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}
}

// awaitEntryOp waits for the fire-and-forget entry operations issued so far
// and returns the last outcome as an error when it failed.
func (a *app) awaitEntryOp() (session.OperationState, error) {
	a.session.Wait()
	st := a.session.OperationState().Get()
	if st.Status == session.StatusError {
		return st, errors.New(st.Message)
	}
	return st, nil
}

