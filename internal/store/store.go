package store

import (
	"context"

	"github.com/hyperengineering/daybook/internal/types"
)

// JournalStore holds journals.
//
// InsertJournal assigns the next unused id when j.ID is zero and upserts at
// j.ID otherwise. UpdateJournal replaces the journal at j.ID and is a no-op
// when the id is zero or absent. Deletes are idempotent. GetJournal returns
// (nil, nil) when the id is absent.
type JournalStore interface {
	InsertJournal(ctx context.Context, j types.Journal) (int64, error)
	UpdateJournal(ctx context.Context, j types.Journal) error
	DeleteJournal(ctx context.Context, j types.Journal) error
	DeleteJournalByID(ctx context.Context, id int64) error
	GetJournal(ctx context.Context, id int64) (*types.Journal, error)
	ListJournals(ctx context.Context, q Query) ([]types.Journal, error)
	WatchJournals(ctx context.Context, q Query) (<-chan []types.Journal, error)
}

// EntryStore holds journal entries. It follows the JournalStore contract,
// except that UpdateEntry always stamps UpdatedAt from the store's clock and
// never moves it backwards.
type EntryStore interface {
	InsertEntry(ctx context.Context, e types.JournalEntry) (int64, error)
	UpdateEntry(ctx context.Context, e types.JournalEntry) error
	DeleteEntry(ctx context.Context, e types.JournalEntry) error
	DeleteEntryByID(ctx context.Context, id int64) error
	GetEntry(ctx context.Context, id int64) (*types.JournalEntry, error)
	ListEntries(ctx context.Context, q Query) ([]types.JournalEntry, error)
	WatchEntries(ctx context.Context, q Query) (<-chan []types.JournalEntry, error)
}

// Store defines the interface contract for all journal storage operations.
//
// Writes are serialized and all-or-nothing. Watch methods return a channel
// that receives the full ordered result immediately and again after every
// write that changes it; the channel is closed when ctx is done. A slow
// reader only ever sees the latest result.
type Store interface {
	JournalStore
	EntryStore
	Stats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
