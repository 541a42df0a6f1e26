// Package session holds the state a user interface observes while working
// with journals: the selected journal, the selected entry, the selected day
// and the outcome of the last entry operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/daybook/internal/prefs"
	"github.com/hyperengineering/daybook/internal/repository"
	"github.com/hyperengineering/daybook/internal/types"
)

// ErrClosed is reported for operations issued after Close.
var ErrClosed = errors.New("session closed")

// Coordinator owns the session state over a repository.
//
// Entry mutations are fire-and-forget: they return at once and their
// outcome lands in OperationState in completion order. Journal mutations
// are synchronous and return their error to the caller.
type Coordinator struct {
	repo  *repository.Repository
	prefs prefs.SelectionStore

	selectedJournal *Value[types.Selection]
	selectedEntry   *Value[*types.JournalEntry]
	selectedDate    *Value[time.Time]
	operation       *Value[OperationState]

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New builds a Coordinator and restores the last selected journal from p.
// An unreadable preference is logged and treated as no selection.
func New(ctx context.Context, repo *repository.Repository, p prefs.SelectionStore) *Coordinator {
	sel, err := p.LoadSelectedJournal(ctx)
	if err != nil {
		slog.Warn("could not restore selected journal",
			"component", "session",
			"action", "load_selection_failed",
			"error", err,
		)
		sel = types.NoSelection
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Coordinator{
		repo:            repo,
		prefs:           p,
		selectedJournal: NewValue(sel),
		selectedEntry:   NewValue[*types.JournalEntry](nil),
		selectedDate:    NewValue(time.Now()),
		operation:       NewValue(Idle),
		ctx:             runCtx,
		cancel:          cancel,
	}
}

// Repository returns the repository the coordinator works on.
func (c *Coordinator) Repository() *repository.Repository { return c.repo }

// SelectedJournal is the selected journal id.
func (c *Coordinator) SelectedJournal() *Value[types.Selection] { return c.selectedJournal }

// SelectedEntry is the entry last loaded with LoadEntry, nil when absent.
func (c *Coordinator) SelectedEntry() *Value[*types.JournalEntry] { return c.selectedEntry }

// SelectedDate is the day whose entries EntriesForSelectedDate shows.
func (c *Coordinator) SelectedDate() *Value[time.Time] { return c.selectedDate }

// OperationState is the outcome of the last completed entry operation.
func (c *Coordinator) OperationState() *Value[OperationState] { return c.operation }

// SetSelectedJournal selects a journal, or clears the selection when sel is
// not valid, and persists the choice.
func (c *Coordinator) SetSelectedJournal(ctx context.Context, sel types.Selection) error {
	c.selectedJournal.Set(sel)
	if err := c.prefs.SaveSelectedJournal(ctx, sel); err != nil {
		return fmt.Errorf("persist selected journal: %w", err)
	}
	return nil
}

// SetSelectedDate changes the day shown by EntriesForSelectedDate.
func (c *Coordinator) SetSelectedDate(t time.Time) {
	c.selectedDate.Set(t)
}

// ClearSelectedEntry forgets the loaded entry.
func (c *Coordinator) ClearSelectedEntry() {
	c.selectedEntry.Set(nil)
}

// ClearOperationState returns the operation state to Idle.
func (c *Coordinator) ClearOperationState() {
	c.operation.Set(Idle)
}

// launch runs fn in the background. A failure lands in OperationState.
func (c *Coordinator) launch(action string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.fail(action, ErrClosed)
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if err := fn(c.ctx); err != nil {
			c.fail(action, err)
		}
	}()
}

func (c *Coordinator) fail(action string, err error) {
	slog.Warn("entry operation failed",
		"component", "session",
		"action", action,
		"error", err,
	)
	c.operation.Set(Failed(err.Error()))
}

// LoadEntry fetches entry id in the background into SelectedEntry. An
// absent id yields nil. Failures go to OperationState.
func (c *Coordinator) LoadEntry(id int64) {
	c.launch("load_entry", func(ctx context.Context) error {
		e, err := c.repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		c.selectedEntry.Set(e)
		return nil
	})
}

// InsertEntry saves e in the background.
func (c *Coordinator) InsertEntry(e types.JournalEntry) {
	c.launch("insert_entry", func(ctx context.Context) error {
		id, err := c.repo.InsertEntry(ctx, e)
		if err != nil {
			return err
		}
		c.operation.Set(Success(id))
		return nil
	})
}

// UpdateEntry replaces e in the background.
func (c *Coordinator) UpdateEntry(e types.JournalEntry) {
	c.launch("update_entry", func(ctx context.Context) error {
		if err := c.repo.UpdateEntry(ctx, e); err != nil {
			return err
		}
		c.operation.Set(Success(e.ID))
		return nil
	})
}

// DeleteEntry removes e in the background.
func (c *Coordinator) DeleteEntry(e types.JournalEntry) {
	c.launch("delete_entry", func(ctx context.Context) error {
		if err := c.repo.DeleteEntry(ctx, e); err != nil {
			return err
		}
		c.operation.Set(Success(e.ID))
		return nil
	})
}

// DeleteEntryByID removes entry id in the background.
func (c *Coordinator) DeleteEntryByID(id int64) {
	c.launch("delete_entry_by_id", func(ctx context.Context) error {
		if err := c.repo.DeleteEntryByID(ctx, id); err != nil {
			return err
		}
		c.operation.Set(Success(id))
		return nil
	})
}

// SaveDraft inserts the composed entry when it is new and updates it
// otherwise.
func (c *Coordinator) SaveDraft(d *Composer) {
	e := d.Entry()
	if e.ID == 0 {
		c.InsertEntry(e)
		return
	}
	c.UpdateEntry(e)
}

// InsertJournal saves j and returns its id.
func (c *Coordinator) InsertJournal(ctx context.Context, j types.Journal) (int64, error) {
	return c.repo.InsertJournal(ctx, j)
}

// UpdateJournal replaces j.
func (c *Coordinator) UpdateJournal(ctx context.Context, j types.Journal) error {
	return c.repo.UpdateJournal(ctx, j)
}

// DeleteJournal hard-deletes j.
func (c *Coordinator) DeleteJournal(ctx context.Context, j types.Journal) error {
	return c.repo.DeleteJournal(ctx, j)
}

// DeleteJournalByID hard-deletes journal id.
func (c *Coordinator) DeleteJournalByID(ctx context.Context, id int64) error {
	return c.repo.DeleteJournalByID(ctx, id)
}

// ErrJournalNotFound is returned by TrashJournal and RestoreJournal for an
// unknown id.
var ErrJournalNotFound = errors.New("journal not found")

// TrashJournal soft-deletes journal id, moving it to the deleted view.
func (c *Coordinator) TrashJournal(ctx context.Context, id int64) error {
	return c.setJournalDeleted(ctx, id, true)
}

// RestoreJournal moves journal id back to the active view.
func (c *Coordinator) RestoreJournal(ctx context.Context, id int64) error {
	return c.setJournalDeleted(ctx, id, false)
}

func (c *Coordinator) setJournalDeleted(ctx context.Context, id int64, deleted bool) error {
	j, err := c.repo.GetJournal(ctx, id)
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("%w: %d", ErrJournalNotFound, id)
	}
	if j.IsDeleted == deleted {
		return nil
	}
	j.IsDeleted = deleted
	return c.repo.UpdateJournal(ctx, *j)
}

// EntriesForSelectedDate streams the entries dated on the selected day,
// following both writes to the store and changes of the selected day.
func (c *Coordinator) EntriesForSelectedDate(ctx context.Context) (<-chan []types.JournalEntry, error) {
	ctx, stop := context.WithCancel(ctx)
	dates := c.selectedDate.Watch(ctx)

	view, closeView, err := c.openDay(ctx, <-dates)
	if err != nil {
		stop()
		return nil, err
	}

	out := make(chan []types.JournalEntry, 1)
	go func() {
		defer close(out)
		defer stop()
		defer func() { closeView() }()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-dates:
				if !ok {
					return
				}
				closeView()
				view, closeView, err = c.openDay(ctx, d)
				if err != nil {
					closeView = func() {}
					slog.Warn("could not open day view",
						"component", "session",
						"action", "day_view_failed",
						"date", d.Format(time.DateOnly),
						"error", err,
					)
					return
				}
			case entries, ok := <-view:
				if !ok {
					return
				}
				offer(out, entries)
			}
		}
	}()
	return out, nil
}

func (c *Coordinator) openDay(ctx context.Context, day time.Time) (<-chan []types.JournalEntry, context.CancelFunc, error) {
	start, end := types.DayBounds(day)
	viewCtx, cancel := context.WithCancel(ctx)
	ch, err := c.repo.EntriesByDate(viewCtx, start, end)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// Wait blocks until every background operation issued so far has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close refuses new entry operations, cancels those in flight and waits for
// them. An operation whose fetch already started may still publish.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
