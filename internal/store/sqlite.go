package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hyperengineering/daybook/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore represents the SQLite-backed journal database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	wmu    sync.Mutex
	closed atomic.Bool

	feed *feed
	opts options
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
// The path ":memory:" opens a private in-memory database.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: writes are serialized and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
		feed: newFeed(),
		opts: buildOptions(opts),
	}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close ends every live view and closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.feed.close()
	return s.db.Close()
}

// write runs fn in a transaction. Live views are notified after a commit in
// which fn reports a change.
func (s *SQLiteStore) write(ctx context.Context, op Op, fn func(tx *sql.Tx) (bool, error)) error {
	if err := s.opts.faults.check(op); err != nil {
		return writeFailure(string(op), err)
	}
	if s.closed.Load() {
		return ErrClosed
	}

	s.wmu.Lock()
	changed, err := s.inTx(ctx, fn)
	s.wmu.Unlock()
	if err != nil {
		return writeFailure(string(op), err)
	}

	if changed {
		s.feed.publish()
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) (bool, error)) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	changed, err := fn(tx)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return changed, nil
}

func (s *SQLiteStore) read(op Op) error {
	if err := s.opts.faults.check(op); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// InsertJournal upserts j and returns its id.
func (s *SQLiteStore) InsertJournal(ctx context.Context, j types.Journal) (int64, error) {
	j = normalizeJournal(j)
	var id int64
	err := s.write(ctx, OpInsertJournal, func(tx *sql.Tx) (bool, error) {
		return true, tx.QueryRowContext(ctx, `
			INSERT INTO journals (id, name, color, icon, created_at, is_deleted)
			VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				color = excluded.color,
				icon = excluded.icon,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted
			RETURNING id
		`, j.ID, j.Name, j.Color, j.Icon, j.CreatedAt.UnixMilli(), j.IsDeleted).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateJournal replaces the journal at j.ID if it exists.
func (s *SQLiteStore) UpdateJournal(ctx context.Context, j types.Journal) error {
	j = normalizeJournal(j)
	return s.write(ctx, OpUpdateJournal, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE journals
			SET name = ?, color = ?, icon = ?, created_at = ?, is_deleted = ?
			WHERE id = ?
		`, j.Name, j.Color, j.Icon, j.CreatedAt.UnixMilli(), j.IsDeleted, j.ID)
		if err != nil {
			return false, err
		}
		return affected(res)
	})
}

// DeleteJournal hard-deletes the journal with j.ID.
func (s *SQLiteStore) DeleteJournal(ctx context.Context, j types.Journal) error {
	return s.deleteRow(ctx, OpDeleteJournal, "journals", j.ID)
}

// DeleteJournalByID hard-deletes the journal with id.
func (s *SQLiteStore) DeleteJournalByID(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, OpDeleteJournalByID, "journals", id)
}

func (s *SQLiteStore) deleteRow(ctx context.Context, op Op, table string, id int64) error {
	return s.write(ctx, op, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
		if err != nil {
			return false, err
		}
		return affected(res)
	})
}

const journalColumns = "id, name, color, icon, created_at, is_deleted"

func scanJournal(scanner interface{ Scan(...any) error }) (*types.Journal, error) {
	var (
		j         types.Journal
		createdAt int64
	)
	if err := scanner.Scan(&j.ID, &j.Name, &j.Color, &j.Icon, &createdAt, &j.IsDeleted); err != nil {
		return nil, err
	}
	j.CreatedAt = types.FromMillis(createdAt)
	return &j, nil
}

// GetJournal returns the journal with id, or nil if there is none.
func (s *SQLiteStore) GetJournal(ctx context.Context, id int64) (*types.Journal, error) {
	if err := s.read(OpGetJournal); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+journalColumns+" FROM journals WHERE id = ?", id)
	j, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get journal %d: %w", id, err)
	}
	return j, nil
}

// ListJournals returns the current result of q.
func (s *SQLiteStore) ListJournals(ctx context.Context, q Query) ([]types.Journal, error) {
	if err := q.checkJournal(); err != nil {
		return nil, err
	}
	return s.listJournals(ctx, q)
}

func (s *SQLiteStore) listJournals(ctx context.Context, q Query) ([]types.Journal, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	clause, args := q.sqlClause()
	rows, err := s.db.QueryContext(ctx, "SELECT "+journalColumns+" FROM journals "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q, err)
	}
	defer rows.Close()

	out := []types.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// WatchJournals returns a live view of q.
func (s *SQLiteStore) WatchJournals(ctx context.Context, q Query) (<-chan []types.Journal, error) {
	if err := q.checkJournal(); err != nil {
		return nil, err
	}
	return watch(ctx, s.feed, q.String(), func(ctx context.Context) ([]types.Journal, error) {
		return s.listJournals(ctx, q)
	})
}

func nullableMood(m *int) any {
	if m == nil {
		return nil
	}
	return int64(*m)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// InsertEntry upserts e and returns its id.
func (s *SQLiteStore) InsertEntry(ctx context.Context, e types.JournalEntry) (int64, error) {
	e = normalizeEntry(e)
	var id int64
	err := s.write(ctx, OpInsertEntry, func(tx *sql.Tx) (bool, error) {
		return true, tx.QueryRowContext(ctx, `
			INSERT INTO journal_entries (id, journal_id, title, content, date, mood, image_uri, created_at, updated_at)
			VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				journal_id = excluded.journal_id,
				title = excluded.title,
				content = excluded.content,
				date = excluded.date,
				mood = excluded.mood,
				image_uri = excluded.image_uri,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
			RETURNING id
		`, e.ID, e.JournalID, e.Title, e.Content, e.Date.UnixMilli(),
			nullableMood(e.Mood), nullableString(e.ImageURI),
			e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli()).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateEntry replaces the entry at e.ID if it exists and stamps UpdatedAt
// with the store clock, never moving it backwards.
func (s *SQLiteStore) UpdateEntry(ctx context.Context, e types.JournalEntry) error {
	e = normalizeEntry(e)
	now := s.opts.now()
	return s.write(ctx, OpUpdateEntry, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE journal_entries
			SET journal_id = ?, title = ?, content = ?, date = ?, mood = ?, image_uri = ?,
				created_at = ?, updated_at = MAX(?, updated_at)
			WHERE id = ?
		`, e.JournalID, e.Title, e.Content, e.Date.UnixMilli(),
			nullableMood(e.Mood), nullableString(e.ImageURI),
			e.CreatedAt.UnixMilli(), now.UnixMilli(), e.ID)
		if err != nil {
			return false, err
		}
		return affected(res)
	})
}

// DeleteEntry hard-deletes the entry with e.ID.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, e types.JournalEntry) error {
	return s.deleteRow(ctx, OpDeleteEntry, "journal_entries", e.ID)
}

// DeleteEntryByID hard-deletes the entry with id.
func (s *SQLiteStore) DeleteEntryByID(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, OpDeleteEntryByID, "journal_entries", id)
}

const entryColumns = "id, journal_id, title, content, date, mood, image_uri, created_at, updated_at"

func scanEntry(scanner interface{ Scan(...any) error }) (*types.JournalEntry, error) {
	var (
		e                          types.JournalEntry
		date, createdAt, updatedAt int64
		mood                       sql.NullInt64
		imageURI                   sql.NullString
	)
	if err := scanner.Scan(&e.ID, &e.JournalID, &e.Title, &e.Content, &date,
		&mood, &imageURI, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Date = types.FromMillis(date)
	e.CreatedAt = types.FromMillis(createdAt)
	e.UpdatedAt = types.FromMillis(updatedAt)
	if mood.Valid {
		m := int(mood.Int64)
		e.Mood = &m
	}
	if imageURI.Valid {
		u := imageURI.String
		e.ImageURI = &u
	}
	return &e, nil
}

// GetEntry returns the entry with id, or nil if there is none.
func (s *SQLiteStore) GetEntry(ctx context.Context, id int64) (*types.JournalEntry, error) {
	if err := s.read(OpGetEntry); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM journal_entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// ListEntries returns the current result of q.
func (s *SQLiteStore) ListEntries(ctx context.Context, q Query) ([]types.JournalEntry, error) {
	if err := q.checkEntry(); err != nil {
		return nil, err
	}
	return s.listEntries(ctx, q)
}

func (s *SQLiteStore) listEntries(ctx context.Context, q Query) ([]types.JournalEntry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	clause, args := q.sqlClause()
	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM journal_entries "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q, err)
	}
	defer rows.Close()

	out := []types.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// WatchEntries returns a live view of q.
func (s *SQLiteStore) WatchEntries(ctx context.Context, q Query) (<-chan []types.JournalEntry, error) {
	if err := q.checkEntry(); err != nil {
		return nil, err
	}
	return watch(ctx, s.feed, q.String(), func(ctx context.Context) ([]types.JournalEntry, error) {
		return s.listEntries(ctx, q)
	})
}

// Stats returns aggregate counts.
func (s *SQLiteStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var stats types.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM journals WHERE is_deleted = 0),
			(SELECT COUNT(*) FROM journals WHERE is_deleted = 1),
			(SELECT COUNT(*) FROM journal_entries),
			(SELECT COUNT(*) FROM journal_entries WHERE mood IS NOT NULL)
	`).Scan(&stats.ActiveJournals, &stats.DeletedJournals, &stats.Entries, &stats.MoodEntries)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

// Backup writes a consistent copy of the database to dest using VACUUM INTO.
// dest must not exist.
func (s *SQLiteStore) Backup(ctx context.Context, dest string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}
