package store

import (
	"sync"
	"time"

	"github.com/hyperengineering/daybook/internal/types"
)

// Op names a store operation that can be made to fail.
type Op string

const (
	OpInsertJournal     Op = "insert_journal"
	OpUpdateJournal     Op = "update_journal"
	OpDeleteJournal     Op = "delete_journal"
	OpDeleteJournalByID Op = "delete_journal_by_id"
	OpGetJournal        Op = "get_journal"
	OpInsertEntry       Op = "insert_entry"
	OpUpdateEntry       Op = "update_entry"
	OpDeleteEntry       Op = "delete_entry"
	OpDeleteEntryByID   Op = "delete_entry_by_id"
	OpGetEntry          Op = "get_entry"
)

// Faults injects errors into store operations, e.g. to simulate I/O faults
// in tests. A failing operation returns before touching any data. The zero
// value injects nothing and is safe for concurrent use.
type Faults struct {
	mu   sync.Mutex
	errs map[Op]error
}

// Set makes every subsequent op fail with err until cleared.
func (f *Faults) Set(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[Op]error)
	}
	f.errs[op] = err
}

// Clear removes the fault for op.
func (f *Faults) Clear(op Op) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, op)
}

// Reset removes every fault.
func (f *Faults) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = nil
}

func (f *Faults) check(op Op) error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

// Clock returns the current time. Stores stamp UpdatedAt with it.
type Clock func() time.Time

type options struct {
	clock  Clock
	faults *Faults
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the clock used to stamp entry updates.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithFaults attaches a fault injector to the store.
func WithFaults(f *Faults) Option {
	return func(o *options) {
		o.faults = f
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: types.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) now() time.Time {
	return types.Millis(o.clock())
}

// normalizeJournal brings timestamps to stored precision.
func normalizeJournal(j types.Journal) types.Journal {
	j.CreatedAt = types.Millis(j.CreatedAt)
	return j
}

func normalizeEntry(e types.JournalEntry) types.JournalEntry {
	e.Date = types.Millis(e.Date)
	e.CreatedAt = types.Millis(e.CreatedAt)
	e.UpdatedAt = types.Millis(e.UpdatedAt)
	return e
}

// laterOf returns the later of two instants.
func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
