package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/daybook/internal/api"
	"github.com/hyperengineering/daybook/internal/prefs"
	"github.com/hyperengineering/daybook/internal/repository"
	"github.com/hyperengineering/daybook/internal/session"
	"github.com/hyperengineering/daybook/internal/snapshot"
	"github.com/hyperengineering/daybook/internal/store"
	"github.com/hyperengineering/daybook/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the snapshot worker",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("configuration loaded")
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// 4. Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Session over the store, restoring the last selected journal
	coord := session.New(ctx, repository.New(db), prefs.NewDiskStore(cfg.Prefs.Path))
	slog.Info("session initialized", "prefs", cfg.Prefs.Path)

	// 6. Initialize HTTP router
	router := api.NewRouter(api.NewHandler(coord, cfg.Auth.APIKey, Version))
	slog.Info("router initialized")

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
		// Live-view streams end as soon as shutdown begins.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	// 8. Workers
	if cfg.Snapshot.Enabled {
		uploader, err := snapshot.NewUploader(cfg.SnapshotStorage)
		if err != nil {
			coord.Close()
			db.Close()
			return err
		}
		sw := worker.NewSnapshotWorker(db, cfg.Snapshot.Dir, cfg.Snapshot.Keep,
			time.Duration(cfg.Snapshot.Interval), uploader)
		startWorker(gctx, g, sw.Run)
	}

	// 9. Start HTTP server
	g.Go(func() error {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	// 10. Block until signal received or the server fails, then shut down
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown initiated")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout))
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()

	// 11. Drain entry operations, then close the store
	coord.Close()
	if cerr := db.Close(); cerr != nil {
		slog.Error("store close error", "error", cerr)
	}

	if err != nil {
		slog.Error("server error", "error", err)
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

// startWorker launches a background worker in g. Workers stop when ctx is
// cancelled and log their own lifecycle.
func startWorker(ctx context.Context, g *errgroup.Group, fn func(ctx context.Context)) {
	g.Go(func() error {
		fn(ctx)
		return nil
	})
}
