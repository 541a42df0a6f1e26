package worker

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/daybook/internal/snapshot"
)

const (
	snapshotPrefix = "daybook-"
	snapshotSuffix = ".db"
)

// SnapshotStore defines the store operations needed by the snapshot worker.
type SnapshotStore interface {
	Backup(ctx context.Context, dest string) error
}

// SnapshotInfo describes one local snapshot.
type SnapshotInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	TakenAt time.Time `json:"taken_at"`
}

// SnapshotWorker copies the database into a directory of time-ordered
// snapshots, uploads each copy when storage is configured and keeps only
// the newest few.
type SnapshotWorker struct {
	store    SnapshotStore
	uploader snapshot.Uploader
	dir      string
	keep     int
	interval time.Duration

	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewSnapshotWorker creates a worker writing into dir and keeping the newest
// keep snapshots. A nil uploader keeps snapshots local.
func NewSnapshotWorker(store SnapshotStore, dir string, keep int, interval time.Duration, uploader snapshot.Uploader) *SnapshotWorker {
	if uploader == nil {
		uploader = &snapshot.NoopUploader{}
	}
	if keep < 1 {
		keep = 1
	}
	return &SnapshotWorker{
		store:    store,
		uploader: uploader,
		dir:      dir,
		keep:     keep,
		interval: interval,
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Run starts the worker loop. Takes a snapshot immediately on start, then
// on each interval, until ctx is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "snapshot",
		"action", "worker_started",
		"dir", w.dir,
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "snapshot",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SnapshotWorker) runOnce(ctx context.Context) {
	info, err := w.TakeSnapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("snapshot failed",
			"component", "worker",
			"worker", "snapshot",
			"action", "snapshot_failed",
			"error", err,
		)
		return
	}
	slog.Info("snapshot taken",
		"component", "worker",
		"worker", "snapshot",
		"action", "snapshot_taken",
		"name", info.Name,
		"size", info.Size,
	)
}

func (w *SnapshotWorker) newName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(w.now()), w.entropy)
	return snapshotPrefix + id.String() + snapshotSuffix
}

// TakeSnapshot writes one snapshot, uploads it and prunes old ones.
// Upload and prune failures are logged; the local snapshot stays valid.
func (w *SnapshotWorker) TakeSnapshot(ctx context.Context) (*SnapshotInfo, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	name := w.newName()
	path := filepath.Join(w.dir, name)
	if err := w.store.Backup(ctx, path); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("backup: %w", err)
	}

	info, err := snapshotInfo(w.dir, name)
	if err != nil {
		return nil, err
	}

	if err := w.uploader.Upload(ctx, name, path); err != nil {
		slog.Warn("snapshot upload failed",
			"component", "worker",
			"worker", "snapshot",
			"action", "snapshot_upload_failed",
			"name", name,
			"error", err,
		)
	}

	if _, err := w.Prune(ctx); err != nil {
		slog.Warn("snapshot prune failed",
			"component", "worker",
			"worker", "snapshot",
			"action", "snapshot_prune_failed",
			"error", err,
		)
	}
	return info, nil
}

// List returns the local snapshots, newest first. A missing directory has
// no snapshots.
func (w *SnapshotWorker) List() ([]SnapshotInfo, error) {
	return ListSnapshots(w.dir)
}

// Prune removes all but the newest keep snapshots, locally and remotely,
// and returns the names removed.
func (w *SnapshotWorker) Prune(ctx context.Context) ([]string, error) {
	snaps, err := ListSnapshots(w.dir)
	if err != nil {
		return nil, err
	}
	if len(snaps) <= w.keep {
		return nil, nil
	}

	var removed []string
	for _, s := range snaps[w.keep:] {
		if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove snapshot %s: %w", s.Name, err)
		}
		removed = append(removed, s.Name)
		if err := w.uploader.Remove(ctx, s.Name); err != nil {
			slog.Warn("remote snapshot removal failed",
				"component", "worker",
				"worker", "snapshot",
				"action", "snapshot_remove_failed",
				"name", s.Name,
				"error", err,
			)
		}
	}
	return removed, nil
}

// ListSnapshots returns the snapshots in dir, newest first. Files not named
// like a snapshot are ignored.
func ListSnapshots(dir string) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	var out []SnapshotInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := snapshotInfo(dir, e.Name())
		if err != nil {
			continue
		}
		out = append(out, *info)
	}
	// ULIDs sort lexically in time order.
	slices.SortFunc(out, func(a, b SnapshotInfo) int { return strings.Compare(b.Name, a.Name) })
	return out, nil
}

func snapshotInfo(dir, name string) (*SnapshotInfo, error) {
	raw, ok := strings.CutPrefix(name, snapshotPrefix)
	if !ok {
		return nil, fmt.Errorf("%s is not a snapshot", name)
	}
	raw, ok = strings.CutSuffix(raw, snapshotSuffix)
	if !ok {
		return nil, fmt.Errorf("%s is not a snapshot", name)
	}
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not a snapshot: %w", name, err)
	}

	path := filepath.Join(dir, name)
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	return &SnapshotInfo{
		Name:    name,
		Path:    path,
		Size:    st.Size(),
		TakenAt: ulid.Time(id.Time()).UTC(),
	}, nil
}
