package store

import (
	"context"
	"sync"

	"github.com/hyperengineering/daybook/internal/types"
)

// MemoryStore is a Store kept entirely in process memory. It behaves like
// SQLiteStore and backs tests and ephemeral sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	journals map[int64]types.Journal
	entries  map[int64]types.JournalEntry
	nextJID  int64
	nextEID  int64
	closed   bool

	feed *feed
	opts options
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		journals: make(map[int64]types.Journal),
		entries:  make(map[int64]types.JournalEntry),
		nextJID:  1,
		nextEID:  1,
		feed:     newFeed(),
		opts:     buildOptions(opts),
	}
}

// Close releases every live view. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.feed.close()
	return nil
}

// write runs fn under the write lock after the fault check and notifies
// live views when fn reports a change.
func (s *MemoryStore) write(op Op, fn func() bool) error {
	if err := s.opts.faults.check(op); err != nil {
		return writeFailure(string(op), err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	changed := fn()
	s.mu.Unlock()

	if changed {
		s.feed.publish()
	}
	return nil
}

func (s *MemoryStore) read(op Op) error {
	if err := s.opts.faults.check(op); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// InsertJournal upserts j and returns its id.
func (s *MemoryStore) InsertJournal(ctx context.Context, j types.Journal) (int64, error) {
	j = normalizeJournal(j)
	err := s.write(OpInsertJournal, func() bool {
		if j.ID == 0 {
			j.ID = s.nextJID
		}
		if j.ID >= s.nextJID {
			s.nextJID = j.ID + 1
		}
		s.journals[j.ID] = j
		return true
	})
	if err != nil {
		return 0, err
	}
	return j.ID, nil
}

// UpdateJournal replaces the journal at j.ID if it exists.
func (s *MemoryStore) UpdateJournal(ctx context.Context, j types.Journal) error {
	j = normalizeJournal(j)
	return s.write(OpUpdateJournal, func() bool {
		if _, ok := s.journals[j.ID]; !ok {
			return false
		}
		s.journals[j.ID] = j
		return true
	})
}

// DeleteJournal hard-deletes the journal with j.ID.
func (s *MemoryStore) DeleteJournal(ctx context.Context, j types.Journal) error {
	return s.deleteJournal(OpDeleteJournal, j.ID)
}

// DeleteJournalByID hard-deletes the journal with id.
func (s *MemoryStore) DeleteJournalByID(ctx context.Context, id int64) error {
	return s.deleteJournal(OpDeleteJournalByID, id)
}

func (s *MemoryStore) deleteJournal(op Op, id int64) error {
	return s.write(op, func() bool {
		if _, ok := s.journals[id]; !ok {
			return false
		}
		delete(s.journals, id)
		return true
	})
}

// GetJournal returns the journal with id, or nil if there is none.
func (s *MemoryStore) GetJournal(ctx context.Context, id int64) (*types.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.read(OpGetJournal); err != nil {
		return nil, err
	}
	j, ok := s.journals[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

// ListJournals returns the current result of q.
func (s *MemoryStore) ListJournals(ctx context.Context, q Query) ([]types.Journal, error) {
	if err := q.checkJournal(); err != nil {
		return nil, err
	}
	return s.listJournals(q)
}

func (s *MemoryStore) listJournals(q Query) ([]types.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	all := make([]types.Journal, 0, len(s.journals))
	for _, j := range s.journals {
		all = append(all, j)
	}
	return q.FilterJournals(all), nil
}

// WatchJournals returns a live view of q.
func (s *MemoryStore) WatchJournals(ctx context.Context, q Query) (<-chan []types.Journal, error) {
	if err := q.checkJournal(); err != nil {
		return nil, err
	}
	return watch(ctx, s.feed, q.String(), func(context.Context) ([]types.Journal, error) {
		return s.listJournals(q)
	})
}

// InsertEntry upserts e and returns its id.
func (s *MemoryStore) InsertEntry(ctx context.Context, e types.JournalEntry) (int64, error) {
	e = cloneEntry(normalizeEntry(e))
	err := s.write(OpInsertEntry, func() bool {
		if e.ID == 0 {
			e.ID = s.nextEID
		}
		if e.ID >= s.nextEID {
			s.nextEID = e.ID + 1
		}
		s.entries[e.ID] = e
		return true
	})
	if err != nil {
		return 0, err
	}
	return e.ID, nil
}

// UpdateEntry replaces the entry at e.ID if it exists and stamps UpdatedAt
// with the store clock, never moving it backwards.
func (s *MemoryStore) UpdateEntry(ctx context.Context, e types.JournalEntry) error {
	e = cloneEntry(normalizeEntry(e))
	now := s.opts.now()
	return s.write(OpUpdateEntry, func() bool {
		old, ok := s.entries[e.ID]
		if !ok {
			return false
		}
		e.UpdatedAt = laterOf(now, old.UpdatedAt)
		s.entries[e.ID] = e
		return true
	})
}

// DeleteEntry hard-deletes the entry with e.ID.
func (s *MemoryStore) DeleteEntry(ctx context.Context, e types.JournalEntry) error {
	return s.deleteEntry(OpDeleteEntry, e.ID)
}

// DeleteEntryByID hard-deletes the entry with id.
func (s *MemoryStore) DeleteEntryByID(ctx context.Context, id int64) error {
	return s.deleteEntry(OpDeleteEntryByID, id)
}

func (s *MemoryStore) deleteEntry(op Op, id int64) error {
	return s.write(op, func() bool {
		if _, ok := s.entries[id]; !ok {
			return false
		}
		delete(s.entries, id)
		return true
	})
}

// GetEntry returns the entry with id, or nil if there is none.
func (s *MemoryStore) GetEntry(ctx context.Context, id int64) (*types.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.read(OpGetEntry); err != nil {
		return nil, err
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	e = cloneEntry(e)
	return &e, nil
}

// ListEntries returns the current result of q.
func (s *MemoryStore) ListEntries(ctx context.Context, q Query) ([]types.JournalEntry, error) {
	if err := q.checkEntry(); err != nil {
		return nil, err
	}
	return s.listEntries(q)
}

func (s *MemoryStore) listEntries(q Query) ([]types.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	all := make([]types.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, cloneEntry(e))
	}
	return q.FilterEntries(all), nil
}

// WatchEntries returns a live view of q.
func (s *MemoryStore) WatchEntries(ctx context.Context, q Query) (<-chan []types.JournalEntry, error) {
	if err := q.checkEntry(); err != nil {
		return nil, err
	}
	return watch(ctx, s.feed, q.String(), func(context.Context) ([]types.JournalEntry, error) {
		return s.listEntries(q)
	})
}

// Stats returns aggregate counts.
func (s *MemoryStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var stats types.StoreStats
	for _, j := range s.journals {
		if j.IsDeleted {
			stats.DeletedJournals++
		} else {
			stats.ActiveJournals++
		}
	}
	for _, e := range s.entries {
		stats.Entries++
		if e.HasMood() {
			stats.MoodEntries++
		}
	}
	return &stats, nil
}

// cloneEntry detaches the optional fields so callers never share them with
// the stored copy.
func cloneEntry(e types.JournalEntry) types.JournalEntry {
	if e.Mood != nil {
		m := *e.Mood
		e.Mood = &m
	}
	if e.ImageURI != nil {
		u := *e.ImageURI
		e.ImageURI = &u
	}
	return e
}
