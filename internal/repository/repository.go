// Package repository is the single entry point consumers use to reach
// journals and entries. It adds named views on top of a store.Store and
// nothing else.
package repository

import (
	"context"
	"time"

	"github.com/hyperengineering/daybook/internal/store"
	"github.com/hyperengineering/daybook/internal/types"
)

// Repository aggregates journal and entry access over one store.
type Repository struct {
	store store.Store
}

// New returns a Repository backed by s. The caller owns s and closes it.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// Store returns the underlying store.
func (r *Repository) Store() store.Store {
	return r.store
}

// Journals

func (r *Repository) InsertJournal(ctx context.Context, j types.Journal) (int64, error) {
	return r.store.InsertJournal(ctx, j)
}

func (r *Repository) UpdateJournal(ctx context.Context, j types.Journal) error {
	return r.store.UpdateJournal(ctx, j)
}

func (r *Repository) DeleteJournal(ctx context.Context, j types.Journal) error {
	return r.store.DeleteJournal(ctx, j)
}

func (r *Repository) DeleteJournalByID(ctx context.Context, id int64) error {
	return r.store.DeleteJournalByID(ctx, id)
}

func (r *Repository) GetJournal(ctx context.Context, id int64) (*types.Journal, error) {
	return r.store.GetJournal(ctx, id)
}

// ActiveJournals is the live view of journals not soft-deleted.
func (r *Repository) ActiveJournals(ctx context.Context) (<-chan []types.Journal, error) {
	return r.store.WatchJournals(ctx, store.ActiveJournals())
}

// DeletedJournals is the live view of the "Recently Deleted" journals.
func (r *Repository) DeletedJournals(ctx context.Context) (<-chan []types.Journal, error) {
	return r.store.WatchJournals(ctx, store.DeletedJournals())
}

// ListJournals returns one snapshot of the active or deleted view.
func (r *Repository) ListJournals(ctx context.Context, deleted bool) ([]types.Journal, error) {
	q := store.ActiveJournals()
	if deleted {
		q = store.DeletedJournals()
	}
	return r.store.ListJournals(ctx, q)
}

// Entries

func (r *Repository) InsertEntry(ctx context.Context, e types.JournalEntry) (int64, error) {
	return r.store.InsertEntry(ctx, e)
}

func (r *Repository) UpdateEntry(ctx context.Context, e types.JournalEntry) error {
	return r.store.UpdateEntry(ctx, e)
}

func (r *Repository) DeleteEntry(ctx context.Context, e types.JournalEntry) error {
	return r.store.DeleteEntry(ctx, e)
}

func (r *Repository) DeleteEntryByID(ctx context.Context, id int64) error {
	return r.store.DeleteEntryByID(ctx, id)
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (*types.JournalEntry, error) {
	return r.store.GetEntry(ctx, id)
}

// AllEntries is the live view of every entry.
func (r *Repository) AllEntries(ctx context.Context) (<-chan []types.JournalEntry, error) {
	return r.store.WatchEntries(ctx, store.AllEntries())
}

// EntriesByJournal is the live view of one journal's entries.
func (r *Repository) EntriesByJournal(ctx context.Context, journalID int64) (<-chan []types.JournalEntry, error) {
	return r.store.WatchEntries(ctx, store.EntriesByJournal(journalID))
}

// EntriesByDate is the live view of entries dated in [from, to).
func (r *Repository) EntriesByDate(ctx context.Context, from, to time.Time) (<-chan []types.JournalEntry, error) {
	return r.store.WatchEntries(ctx, store.EntriesByDate(from, to))
}

// ListEntries returns one snapshot of q.
func (r *Repository) ListEntries(ctx context.Context, q store.Query) ([]types.JournalEntry, error) {
	return r.store.ListEntries(ctx, q)
}

// WatchEntries returns the live view of q.
func (r *Repository) WatchEntries(ctx context.Context, q store.Query) (<-chan []types.JournalEntry, error) {
	return r.store.WatchEntries(ctx, q)
}

// Stats returns aggregate counts.
func (r *Repository) Stats(ctx context.Context) (*types.StoreStats, error) {
	return r.store.Stats(ctx)
}
