package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/daybook/internal/types"
)

// Every Store implementation must pass the same suite.

type storeFactory func(t *testing.T, opts ...Option) Store

func storeImpls() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, opts ...Option) Store {
			s := NewMemoryStore(opts...)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite": func(t *testing.T, opts ...Option) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "daybook.db"), opts...)
			if err != nil {
				t.Fatalf("failed to create store: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, newStore storeFactory)) {
	t.Helper()
	for name, factory := range storeImpls() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory)
		})
	}
}

var epoch = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func at(offset time.Duration) time.Time {
	return epoch.Add(offset)
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func journal(name string, created time.Time) types.Journal {
	j := types.NewJournal(name)
	j.CreatedAt = created
	return j
}

func entry(journalID int64, title string, date, created time.Time) types.JournalEntry {
	e := types.NewJournalEntry(journalID, title, "content of "+title, date)
	e.CreatedAt = created
	e.UpdatedAt = created
	return e
}

func mustInsertJournal(t *testing.T, s Store, j types.Journal) int64 {
	t.Helper()
	id, err := s.InsertJournal(context.Background(), j)
	if err != nil {
		t.Fatalf("InsertJournal: %v", err)
	}
	return id
}

func mustInsertEntry(t *testing.T, s Store, e types.JournalEntry) int64 {
	t.Helper()
	id, err := s.InsertEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	return id
}

func journalIDs(js []types.Journal) []int64 {
	ids := make([]int64, 0, len(js))
	for _, j := range js {
		ids = append(ids, j.ID)
	}
	return ids
}

func entryIDs(es []types.JournalEntry) []int64 {
	ids := make([]int64, 0, len(es))
	for _, e := range es {
		ids = append(ids, e.ID)
	}
	return ids
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live view")
	}
	var zero T
	return zero
}

func TestStore_InsertGetJournal(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		in := journal("Work", at(1500*time.Microsecond))
		in.Color = "#112233"
		in.Icon = "work"

		id := mustInsertJournal(t, s, in)
		if id == 0 {
			t.Fatal("expected a nonzero id")
		}

		got, err := s.GetJournal(ctx, id)
		if err != nil {
			t.Fatalf("GetJournal: %v", err)
		}
		if got == nil {
			t.Fatal("expected journal, got nil")
		}

		want := in
		want.ID = id
		want.CreatedAt = types.Millis(in.CreatedAt)
		if !reflect.DeepEqual(*got, want) {
			t.Errorf("got %+v, want %+v", *got, want)
		}
	})
}

func TestStore_InsertGetEntry(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		plain := entry(7, "plain", at(0), at(time.Second))
		rich := entry(7, "rich", at(time.Hour), at(2*time.Second)).WithMood(73).WithImage("file:///tmp/a.png")

		for _, in := range []types.JournalEntry{plain, rich} {
			id := mustInsertEntry(t, s, in)
			got, err := s.GetEntry(ctx, id)
			if err != nil {
				t.Fatalf("GetEntry: %v", err)
			}
			if got == nil {
				t.Fatal("expected entry, got nil")
			}
			want := in
			want.ID = id
			if !reflect.DeepEqual(*got, want) {
				t.Errorf("got %+v, want %+v", *got, want)
			}
		}
	})
}

func TestStore_GetAbsentReturnsNil(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		j, err := s.GetJournal(ctx, 42)
		if err != nil || j != nil {
			t.Errorf("GetJournal(absent) = %v, %v; want nil, nil", j, err)
		}
		e, err := s.GetEntry(ctx, 42)
		if err != nil || e != nil {
			t.Errorf("GetEntry(absent) = %v, %v; want nil, nil", e, err)
		}
	})
}

func TestStore_UpdateWithZeroIDIsNoOp(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		jid := mustInsertJournal(t, s, journal("Work", at(0)))
		eid := mustInsertEntry(t, s, entry(jid, "day one", at(0), at(0)))

		beforeJ, _ := s.ListJournals(ctx, ActiveJournals())
		beforeE, _ := s.ListEntries(ctx, AllEntries())

		if err := s.UpdateJournal(ctx, journal("Renamed", at(0))); err != nil {
			t.Fatalf("UpdateJournal: %v", err)
		}
		if err := s.UpdateEntry(ctx, entry(jid, "renamed", at(0), at(0))); err != nil {
			t.Fatalf("UpdateEntry: %v", err)
		}

		afterJ, _ := s.ListJournals(ctx, ActiveJournals())
		afterE, _ := s.ListEntries(ctx, AllEntries())
		if !reflect.DeepEqual(beforeJ, afterJ) {
			t.Errorf("journals changed: %+v -> %+v", beforeJ, afterJ)
		}
		if !reflect.DeepEqual(beforeE, afterE) {
			t.Errorf("entries changed: %+v -> %+v", beforeE, afterE)
		}
		if eid == 0 {
			t.Error("expected nonzero entry id")
		}
	})
}

func TestStore_UpdateAbsentIDDoesNotInsert(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		ghost := journal("Ghost", at(0))
		ghost.ID = 99
		if err := s.UpdateJournal(ctx, ghost); err != nil {
			t.Fatalf("UpdateJournal: %v", err)
		}
		if got, _ := s.GetJournal(ctx, 99); got != nil {
			t.Errorf("update inserted journal %+v", got)
		}
	})
}

func TestStore_UpdateJournalReplaces(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		id := mustInsertJournal(t, s, journal("Work", at(0)))
		j, _ := s.GetJournal(ctx, id)
		j.Name = "Office"
		j.IsDeleted = true
		if err := s.UpdateJournal(ctx, *j); err != nil {
			t.Fatalf("UpdateJournal: %v", err)
		}

		got, _ := s.GetJournal(ctx, id)
		if got.Name != "Office" || !got.IsDeleted {
			t.Errorf("got %+v, want renamed and deleted", got)
		}
	})
}

func TestStore_UpdateEntryStampsUpdatedAtMonotonically(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		clock := &fakeClock{now: at(10 * time.Second)}
		s := newStore(t, WithClock(clock.Now))
		ctx := context.Background()

		id := mustInsertEntry(t, s, entry(1, "draft", at(0), at(5*time.Second)))

		// Given: the caller supplies a stale updatedAt
		e, _ := s.GetEntry(ctx, id)
		e.Title = "edited"
		e.UpdatedAt = at(0)
		if err := s.UpdateEntry(ctx, *e); err != nil {
			t.Fatalf("UpdateEntry: %v", err)
		}
		got, _ := s.GetEntry(ctx, id)
		if !got.UpdatedAt.Equal(at(10 * time.Second)) {
			t.Errorf("UpdatedAt = %v, want store clock %v", got.UpdatedAt, at(10*time.Second))
		}
		if got.Title != "edited" {
			t.Errorf("Title = %q, want edited", got.Title)
		}

		// When: the clock moves backwards
		clock.Set(at(3 * time.Second))
		if err := s.UpdateEntry(ctx, *got); err != nil {
			t.Fatalf("UpdateEntry: %v", err)
		}
		again, _ := s.GetEntry(ctx, id)
		if again.UpdatedAt.Before(got.UpdatedAt) {
			t.Errorf("UpdatedAt moved backwards: %v -> %v", got.UpdatedAt, again.UpdatedAt)
		}

		// When: real time advances
		clock.Set(at(20 * time.Second))
		if err := s.UpdateEntry(ctx, *again); err != nil {
			t.Fatalf("UpdateEntry: %v", err)
		}
		last, _ := s.GetEntry(ctx, id)
		if !last.UpdatedAt.After(again.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want strictly after %v", last.UpdatedAt, again.UpdatedAt)
		}
	})
}

func TestStore_WorkHomeScenario(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		work := mustInsertJournal(t, s, journal("Work", at(0)))
		home := journal("Home", at(time.Second))
		home.IsDeleted = true
		homeID := mustInsertJournal(t, s, home)

		if work != 1 || homeID != 2 {
			t.Fatalf("ids = %d, %d; want 1, 2", work, homeID)
		}

		active, _ := s.ListJournals(ctx, ActiveJournals())
		deleted, _ := s.ListJournals(ctx, DeletedJournals())
		if got := journalIDs(active); !reflect.DeepEqual(got, []int64{1}) {
			t.Errorf("active = %v, want [1]", got)
		}
		if got := journalIDs(deleted); !reflect.DeepEqual(got, []int64{2}) {
			t.Errorf("deleted = %v, want [2]", got)
		}
	})
}

func TestStore_SoftDeletePartition(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		var ids []int64
		for i, name := range []string{"a", "b", "c", "d", "e"} {
			j := journal(name, at(time.Duration(i)*time.Second))
			j.IsDeleted = i%2 == 0
			ids = append(ids, mustInsertJournal(t, s, j))
		}

		check := func(stage string) {
			active, _ := s.ListJournals(ctx, ActiveJournals())
			deleted, _ := s.ListJournals(ctx, DeletedJournals())
			seen := make(map[int64]int)
			for _, j := range active {
				if j.IsDeleted {
					t.Errorf("%s: deleted journal %d in active view", stage, j.ID)
				}
				seen[j.ID]++
			}
			for _, j := range deleted {
				if !j.IsDeleted {
					t.Errorf("%s: active journal %d in deleted view", stage, j.ID)
				}
				seen[j.ID]++
			}
			for _, id := range ids {
				j, _ := s.GetJournal(ctx, id)
				if j == nil {
					if seen[id] != 0 {
						t.Errorf("%s: hard-deleted journal %d still listed", stage, id)
					}
					continue
				}
				if seen[id] != 1 {
					t.Errorf("%s: journal %d listed %d times", stage, id, seen[id])
				}
			}
		}

		check("initial")

		j, _ := s.GetJournal(ctx, ids[1])
		j.IsDeleted = true
		_ = s.UpdateJournal(ctx, *j)
		check("after trash")

		j, _ = s.GetJournal(ctx, ids[0])
		j.IsDeleted = false
		_ = s.UpdateJournal(ctx, *j)
		check("after restore")

		_ = s.DeleteJournalByID(ctx, ids[2])
		check("after hard delete")
	})
}

func TestStore_JournalOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		a := mustInsertJournal(t, s, journal("old", at(0)))
		b := mustInsertJournal(t, s, journal("new", at(time.Hour)))
		c := mustInsertJournal(t, s, journal("tie", at(time.Hour)))

		active, _ := s.ListJournals(ctx, ActiveJournals())
		if got, want := journalIDs(active), []int64{c, b, a}; !reflect.DeepEqual(got, want) {
			t.Errorf("active order = %v, want %v", got, want)
		}
	})
}

func TestStore_EntryOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		e1 := mustInsertEntry(t, s, entry(1, "older date", at(0), at(5*time.Second)))
		e2 := mustInsertEntry(t, s, entry(1, "newer date early", at(time.Hour), at(time.Second)))
		e3 := mustInsertEntry(t, s, entry(2, "newer date late", at(time.Hour), at(2*time.Second)))
		e4 := mustInsertEntry(t, s, entry(1, "tie", at(time.Hour), at(2*time.Second)))

		all, _ := s.ListEntries(ctx, AllEntries())
		if got, want := entryIDs(all), []int64{e4, e3, e2, e1}; !reflect.DeepEqual(got, want) {
			t.Errorf("all entries = %v, want %v", got, want)
		}

		byJournal, _ := s.ListEntries(ctx, EntriesByJournal(1))
		if got, want := entryIDs(byJournal), []int64{e4, e2, e1}; !reflect.DeepEqual(got, want) {
			t.Errorf("entries by journal = %v, want %v", got, want)
		}

		none, err := s.ListEntries(ctx, EntriesByJournal(404))
		if err != nil {
			t.Fatalf("ListEntries: %v", err)
		}
		if none == nil || len(none) != 0 {
			t.Errorf("entries for missing journal = %#v, want empty slice", none)
		}
	})
}

func TestStore_DateRangeView(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		ids := make(map[int64]int64)
		for i, ms := range []int64{999, 1000, 1999, 2000} {
			e := entry(1, "e", time.UnixMilli(ms), at(time.Duration(i)*time.Second))
			ids[ms] = mustInsertEntry(t, s, e)
		}
		// Creation order, not date order, decides the result.
		early := mustInsertEntry(t, s, entry(1, "early", time.UnixMilli(1500), at(-time.Hour)))
		late := mustInsertEntry(t, s, entry(1, "late", time.UnixMilli(1000), at(time.Hour)))

		got, err := s.ListEntries(ctx, EntriesByDate(time.UnixMilli(1000), time.UnixMilli(2000)))
		if err != nil {
			t.Fatalf("ListEntries: %v", err)
		}
		want := []int64{late, ids[1999], ids[1000], early}
		if !reflect.DeepEqual(entryIDs(got), want) {
			t.Errorf("range [1000, 2000) = %v, want %v", entryIDs(got), want)
		}
	})
}

func TestStore_DateRangeView_Boundaries(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		var ids []int64
		for i, ms := range []int64{999, 1000, 1999, 2000} {
			ids = append(ids, mustInsertEntry(t, s, entry(1, "e", time.UnixMilli(ms), at(time.Duration(i)*time.Second))))
		}

		got, _ := s.ListEntries(ctx, EntriesByDate(time.UnixMilli(1000), time.UnixMilli(2000)))
		if want := []int64{ids[2], ids[1]}; !reflect.DeepEqual(entryIDs(got), want) {
			t.Errorf("range [1000, 2000) = %v, want %v", entryIDs(got), want)
		}
	})
}

func TestStore_ExplicitIDUpsert(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		j := journal("Restored", at(0))
		j.ID = 40
		if id := mustInsertJournal(t, s, j); id != 40 {
			t.Fatalf("explicit id = %d, want 40", id)
		}

		j.Name = "Replaced"
		if id := mustInsertJournal(t, s, j); id != 40 {
			t.Fatalf("upsert id = %d, want 40", id)
		}
		got, _ := s.GetJournal(ctx, 40)
		if got == nil || got.Name != "Replaced" {
			t.Errorf("got %+v, want name Replaced", got)
		}

		all, _ := s.ListJournals(ctx, ActiveJournals())
		if len(all) != 1 {
			t.Errorf("upsert produced %d rows, want 1", len(all))
		}

		if next := mustInsertJournal(t, s, journal("Next", at(0))); next <= 40 {
			t.Errorf("auto id after explicit 40 = %d, want > 40", next)
		}

		e := entry(1, "restored entry", at(0), at(0))
		e.ID = 12
		if id := mustInsertEntry(t, s, e); id != 12 {
			t.Errorf("explicit entry id = %d, want 12", id)
		}
	})
}

func TestStore_IDsNeverReused(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		first := mustInsertEntry(t, s, entry(1, "first", at(0), at(0)))
		second := mustInsertEntry(t, s, entry(1, "second", at(0), at(0)))
		if err := s.DeleteEntryByID(ctx, second); err != nil {
			t.Fatalf("DeleteEntryByID: %v", err)
		}
		third := mustInsertEntry(t, s, entry(1, "third", at(0), at(0)))
		if third == first || third == second {
			t.Errorf("id %d reused (first %d, second %d)", third, first, second)
		}
	})
}

func TestStore_DeletesAreIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		jid := mustInsertJournal(t, s, journal("Work", at(0)))
		eid := mustInsertEntry(t, s, entry(jid, "day", at(0), at(0)))

		// Journal delete does not cascade.
		j, _ := s.GetJournal(ctx, jid)
		for i := 0; i < 2; i++ {
			if err := s.DeleteJournal(ctx, *j); err != nil {
				t.Fatalf("DeleteJournal #%d: %v", i+1, err)
			}
		}
		if got, _ := s.GetJournal(ctx, jid); got != nil {
			t.Errorf("journal still present: %+v", got)
		}
		if got, _ := s.GetEntry(ctx, eid); got == nil {
			t.Error("entry removed by journal delete")
		}

		e, _ := s.GetEntry(ctx, eid)
		for i := 0; i < 2; i++ {
			if err := s.DeleteEntry(ctx, *e); err != nil {
				t.Fatalf("DeleteEntry #%d: %v", i+1, err)
			}
		}
		if err := s.DeleteEntryByID(ctx, 12345); err != nil {
			t.Errorf("DeleteEntryByID(absent): %v", err)
		}
		if err := s.DeleteJournalByID(ctx, 12345); err != nil {
			t.Errorf("DeleteJournalByID(absent): %v", err)
		}
	})
}

func TestStore_EntryMayReferenceMissingJournal(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		if id := mustInsertEntry(t, s, entry(777, "orphan", at(0), at(0))); id == 0 {
			t.Error("expected orphan entry to be stored")
		}
	})
}

func TestStore_InjectedFaultsLeaveDataIntact(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		faults := &Faults{}
		s := newStore(t, WithFaults(faults))
		ctx := context.Background()

		jid := mustInsertJournal(t, s, journal("Work", at(0)))
		eid := mustInsertEntry(t, s, entry(jid, "day", at(0), at(0)))
		beforeJ, _ := s.ListJournals(ctx, ActiveJournals())
		beforeE, _ := s.ListEntries(ctx, AllEntries())

		ioErr := errors.New("disk I/O error")
		for _, op := range []Op{
			OpInsertJournal, OpUpdateJournal, OpDeleteJournal, OpDeleteJournalByID,
			OpInsertEntry, OpUpdateEntry, OpDeleteEntry, OpDeleteEntryByID,
		} {
			faults.Set(op, ioErr)
		}

		renamed := beforeJ[0]
		renamed.Name = "Changed"
		edited := beforeE[0]
		edited.Title = "Changed"

		results := map[string]error{}
		_, results["insert journal"] = s.InsertJournal(ctx, journal("New", at(0)))
		results["update journal"] = s.UpdateJournal(ctx, renamed)
		results["delete journal"] = s.DeleteJournal(ctx, renamed)
		results["delete journal by id"] = s.DeleteJournalByID(ctx, jid)
		_, results["insert entry"] = s.InsertEntry(ctx, entry(jid, "new", at(0), at(0)))
		results["update entry"] = s.UpdateEntry(ctx, edited)
		results["delete entry"] = s.DeleteEntry(ctx, edited)
		results["delete entry by id"] = s.DeleteEntryByID(ctx, eid)

		for name, err := range results {
			if !errors.Is(err, ErrWriteFailure) {
				t.Errorf("%s: error %v, want ErrWriteFailure", name, err)
			}
			if !errors.Is(err, ioErr) {
				t.Errorf("%s: error %v does not wrap the cause", name, err)
			}
		}

		afterJ, _ := s.ListJournals(ctx, ActiveJournals())
		afterE, _ := s.ListEntries(ctx, AllEntries())
		if !reflect.DeepEqual(beforeJ, afterJ) {
			t.Errorf("journals changed under fault: %+v -> %+v", beforeJ, afterJ)
		}
		if !reflect.DeepEqual(beforeE, afterE) {
			t.Errorf("entries changed under fault: %+v -> %+v", beforeE, afterE)
		}

		// Clearing the fault restores normal operation.
		faults.Reset()
		if _, err := s.InsertJournal(ctx, journal("New", at(0))); err != nil {
			t.Errorf("InsertJournal after reset: %v", err)
		}
	})
}

func TestStore_ReadFaultPropagates(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		faults := &Faults{}
		s := newStore(t, WithFaults(faults))
		ioErr := errors.New("read error")
		faults.Set(OpGetEntry, ioErr)

		if _, err := s.GetEntry(context.Background(), 1); !errors.Is(err, ioErr) {
			t.Errorf("GetEntry error = %v, want %v", err, ioErr)
		}
	})
}

func TestStore_InvalidQueryKind(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.ListJournals(ctx, AllEntries()); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("ListJournals(entry query) error = %v, want ErrInvalidQuery", err)
		}
		if _, err := s.ListEntries(ctx, ActiveJournals()); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("ListEntries(journal query) error = %v, want ErrInvalidQuery", err)
		}
		if _, err := s.WatchEntries(ctx, Query{Kind: QueryKind(99)}); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("WatchEntries(unknown) error = %v, want ErrInvalidQuery", err)
		}
	})
}

func TestStore_WatchJournals(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mustInsertJournal(t, s, journal("Work", at(0)))

		active, err := s.WatchJournals(ctx, ActiveJournals())
		if err != nil {
			t.Fatalf("WatchJournals: %v", err)
		}
		deleted, err := s.WatchJournals(ctx, DeletedJournals())
		if err != nil {
			t.Fatalf("WatchJournals: %v", err)
		}

		if got := receive(t, active); len(got) != 1 {
			t.Fatalf("initial active = %+v, want one journal", got)
		}
		if got := receive(t, deleted); len(got) != 0 {
			t.Fatalf("initial deleted = %+v, want none", got)
		}

		home := journal("Home", at(time.Second))
		home.IsDeleted = true
		homeID := mustInsertJournal(t, s, home)

		got := receive(t, deleted)
		if !reflect.DeepEqual(journalIDs(got), []int64{homeID}) {
			t.Errorf("deleted view = %v, want [%d]", journalIDs(got), homeID)
		}

		// The active view did not change, so it emits nothing new.
		select {
		case v := <-active:
			t.Errorf("unexpected active emission %+v", v)
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestStore_WatchEntriesDeliversLatest(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		view, err := s.WatchEntries(ctx, EntriesByJournal(1))
		if err != nil {
			t.Fatalf("WatchEntries: %v", err)
		}
		if got := receive(t, view); len(got) != 0 {
			t.Fatalf("initial = %+v, want empty", got)
		}

		// Writes to other journals never change this view.
		mustInsertEntry(t, s, entry(2, "elsewhere", at(0), at(0)))

		var last int64
		for i := 0; i < 5; i++ {
			last = mustInsertEntry(t, s, entry(1, "mine", at(time.Duration(i)*time.Hour), at(0)))
		}

		deadline := time.After(2 * time.Second)
		for {
			select {
			case got, ok := <-view:
				if !ok {
					t.Fatal("view closed")
				}
				if len(got) == 5 {
					if got[0].ID != last {
						t.Errorf("first entry = %d, want newest %d", got[0].ID, last)
					}
					return
				}
			case <-deadline:
				t.Fatal("never observed all five entries")
			}
		}
	})
}

func TestStore_WatchCancelClosesChannel(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		view, err := s.WatchEntries(ctx, AllEntries())
		if err != nil {
			t.Fatalf("WatchEntries: %v", err)
		}
		receive(t, view)
		cancel()

		select {
		case _, ok := <-view:
			if ok {
				// A pending result may still be buffered; the next read must close.
				if _, ok := <-view; ok {
					t.Error("view still open after cancel")
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatal("view not closed after cancel")
		}

		// Cancelling a view has no effect on the store.
		if _, err := s.InsertEntry(context.Background(), entry(1, "after", at(0), at(0))); err != nil {
			t.Errorf("InsertEntry after cancel: %v", err)
		}
	})
}

func TestStore_CloseEndsViews(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)

		view, err := s.WatchJournals(context.Background(), ActiveJournals())
		if err != nil {
			t.Fatalf("WatchJournals: %v", err)
		}
		receive(t, view)

		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		select {
		case _, ok := <-view:
			if ok {
				t.Error("expected closed view")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("view not closed after store Close")
		}

		if _, err := s.WatchJournals(context.Background(), ActiveJournals()); !errors.Is(err, ErrClosed) {
			t.Errorf("WatchJournals after Close error = %v, want ErrClosed", err)
		}
		if _, err := s.InsertJournal(context.Background(), journal("late", at(0))); !errors.Is(err, ErrClosed) {
			t.Errorf("InsertJournal after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestStore_Stats(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)

		mustInsertJournal(t, s, journal("Work", at(0)))
		trashed := journal("Old", at(0))
		trashed.IsDeleted = true
		mustInsertJournal(t, s, trashed)
		mustInsertEntry(t, s, entry(1, "a", at(0), at(0)))
		mustInsertEntry(t, s, entry(1, "b", at(0), at(0)).WithMood(40))

		stats, err := s.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		want := types.StoreStats{ActiveJournals: 1, DeletedJournals: 1, Entries: 2, MoodEntries: 1}
		if *stats != want {
			t.Errorf("stats = %+v, want %+v", *stats, want)
		}
	})
}

func TestStore_ConcurrentWritesAreSerialized(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		ids := make(chan int64, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := s.InsertEntry(ctx, entry(1, "concurrent", at(time.Duration(i)*time.Second), at(0)))
				if err != nil {
					t.Errorf("InsertEntry: %v", err)
					return
				}
				ids <- id
			}(i)
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			if seen[id] {
				t.Errorf("duplicate id %d", id)
			}
			seen[id] = true
		}
		all, _ := s.ListEntries(ctx, AllEntries())
		if len(all) != n {
			t.Errorf("stored %d entries, want %d", len(all), n)
		}
	})
}
