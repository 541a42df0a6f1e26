package store

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/hyperengineering/daybook/internal/types"
)

// QueryKind identifies a live view shape.
type QueryKind int

const (
	// QueryActiveJournals selects journals not soft-deleted, newest first.
	QueryActiveJournals QueryKind = iota
	// QueryDeletedJournals selects soft-deleted journals, newest first.
	QueryDeletedJournals
	// QueryAllEntries selects every entry by date, then creation time, descending.
	QueryAllEntries
	// QueryEntriesByJournal is QueryAllEntries restricted to one journal id.
	QueryEntriesByJournal
	// QueryEntriesByDate selects entries with From <= Date < To ordered by
	// creation time descending, not by date.
	QueryEntriesByDate
)

func (k QueryKind) String() string {
	switch k {
	case QueryActiveJournals:
		return "active_journals"
	case QueryDeletedJournals:
		return "deleted_journals"
	case QueryAllEntries:
		return "all_entries"
	case QueryEntriesByJournal:
		return "entries_by_journal"
	case QueryEntriesByDate:
		return "entries_by_date"
	default:
		return fmt.Sprintf("query(%d)", int(k))
	}
}

// Query describes a filtered, ordered view. Only the fields relevant to
// Kind are read.
type Query struct {
	Kind      QueryKind
	JournalID int64
	From      time.Time
	To        time.Time
}

// ActiveJournals returns the query for journals not soft-deleted.
func ActiveJournals() Query { return Query{Kind: QueryActiveJournals} }

// DeletedJournals returns the query for soft-deleted journals.
func DeletedJournals() Query { return Query{Kind: QueryDeletedJournals} }

// AllEntries returns the query for every entry.
func AllEntries() Query { return Query{Kind: QueryAllEntries} }

// EntriesByJournal returns the query for entries of one journal.
func EntriesByJournal(journalID int64) Query {
	return Query{Kind: QueryEntriesByJournal, JournalID: journalID}
}

// EntriesByDate returns the query for entries dated in [from, to).
func EntriesByDate(from, to time.Time) Query {
	return Query{Kind: QueryEntriesByDate, From: types.Millis(from), To: types.Millis(to)}
}

func (q Query) String() string {
	switch q.Kind {
	case QueryEntriesByJournal:
		return fmt.Sprintf("%s(%d)", q.Kind, q.JournalID)
	case QueryEntriesByDate:
		return fmt.Sprintf("%s[%d,%d)", q.Kind, q.From.UnixMilli(), q.To.UnixMilli())
	default:
		return q.Kind.String()
	}
}

// IsJournalQuery reports whether q selects journals.
func (q Query) IsJournalQuery() bool {
	return q.Kind == QueryActiveJournals || q.Kind == QueryDeletedJournals
}

// IsEntryQuery reports whether q selects entries.
func (q Query) IsEntryQuery() bool {
	switch q.Kind {
	case QueryAllEntries, QueryEntriesByJournal, QueryEntriesByDate:
		return true
	}
	return false
}

func (q Query) checkJournal() error {
	if !q.IsJournalQuery() {
		return fmt.Errorf("%w: %s is not a journal query", ErrInvalidQuery, q)
	}
	return nil
}

func (q Query) checkEntry() error {
	if !q.IsEntryQuery() {
		return fmt.Errorf("%w: %s is not an entry query", ErrInvalidQuery, q)
	}
	return nil
}

// MatchJournal reports whether j belongs in the view.
func (q Query) MatchJournal(j types.Journal) bool {
	switch q.Kind {
	case QueryActiveJournals:
		return !j.IsDeleted
	case QueryDeletedJournals:
		return j.IsDeleted
	}
	return false
}

// MatchEntry reports whether e belongs in the view.
func (q Query) MatchEntry(e types.JournalEntry) bool {
	switch q.Kind {
	case QueryAllEntries:
		return true
	case QueryEntriesByJournal:
		return e.JournalID == q.JournalID
	case QueryEntriesByDate:
		ms := e.Date.UnixMilli()
		return ms >= q.From.UnixMilli() && ms < q.To.UnixMilli()
	}
	return false
}

// Id descending is the final tie-break in every view so that both store
// implementations agree on rows the view's own keys cannot order.

func compareJournals(a, b types.Journal) int {
	if c := cmp.Compare(b.CreatedAt.UnixMilli(), a.CreatedAt.UnixMilli()); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// compareEntries returns the ordering for q's view.
func (q Query) compareEntries(a, b types.JournalEntry) int {
	if q.Kind != QueryEntriesByDate {
		if c := cmp.Compare(b.Date.UnixMilli(), a.Date.UnixMilli()); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(b.CreatedAt.UnixMilli(), a.CreatedAt.UnixMilli()); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// FilterJournals applies q to an unordered set of journals.
func (q Query) FilterJournals(all []types.Journal) []types.Journal {
	out := make([]types.Journal, 0, len(all))
	for _, j := range all {
		if q.MatchJournal(j) {
			out = append(out, j)
		}
	}
	slices.SortFunc(out, compareJournals)
	return out
}

// FilterEntries applies q to an unordered set of entries.
func (q Query) FilterEntries(all []types.JournalEntry) []types.JournalEntry {
	out := make([]types.JournalEntry, 0, len(all))
	for _, e := range all {
		if q.MatchEntry(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, q.compareEntries)
	return out
}

// sqlClause renders the WHERE/ORDER BY tail of q and its arguments.
func (q Query) sqlClause() (string, []any) {
	switch q.Kind {
	case QueryActiveJournals:
		return "WHERE is_deleted = 0 ORDER BY created_at DESC, id DESC", nil
	case QueryDeletedJournals:
		return "WHERE is_deleted = 1 ORDER BY created_at DESC, id DESC", nil
	case QueryAllEntries:
		return "ORDER BY date DESC, created_at DESC, id DESC", nil
	case QueryEntriesByJournal:
		return "WHERE journal_id = ? ORDER BY date DESC, created_at DESC, id DESC", []any{q.JournalID}
	case QueryEntriesByDate:
		return "WHERE date >= ? AND date < ? ORDER BY created_at DESC, id DESC",
			[]any{q.From.UnixMilli(), q.To.UnixMilli()}
	}
	return "", nil
}
