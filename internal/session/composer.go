package session

import (
	"sync"

	"github.com/hyperengineering/daybook/internal/history"
	"github.com/hyperengineering/daybook/internal/types"
)

// Composer is an entry being written, with undo and redo over its title and
// content.
type Composer struct {
	mu   sync.Mutex
	base types.JournalEntry
	buf  *history.Buffer
}

// NewComposer starts composing from e. Use an entry with ID 0 for a new one.
func NewComposer(e types.JournalEntry) *Composer {
	c := &Composer{base: e, buf: history.New()}
	c.buf.Reset(history.TextState{Title: e.Title, Content: e.Content})
	return c
}

// Set records a new title and content. It reports false when nothing changed.
func (c *Composer) Set(title, content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Record(history.TextState{Title: title, Content: content})
}

// SetTitle records a new title, keeping the content.
func (c *Composer) SetTitle(title string) bool {
	cur := c.Current()
	return c.Set(title, cur.Content)
}

// SetContent records new content, keeping the title.
func (c *Composer) SetContent(content string) bool {
	cur := c.Current()
	return c.Set(cur.Title, content)
}

// Undo steps back one edit.
func (c *Composer) Undo() (history.TextState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Undo()
}

// Redo re-applies the last undone edit.
func (c *Composer) Redo() (history.TextState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Redo()
}

// CanUndo reports whether there is an edit to undo.
func (c *Composer) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.CanUndo()
}

// CanRedo reports whether there is an edit to redo.
func (c *Composer) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.CanRedo()
}

// Current returns the text being composed.
func (c *Composer) Current() history.TextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := c.buf.Current()
	return cur
}

// SetMood sets or, with nil, clears the mood of the entry being composed.
func (c *Composer) SetMood(mood *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base.Mood = mood
}

// Entry returns the composed entry: the starting entry with the current
// title and content.
func (c *Composer) Entry() types.JournalEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.base
	cur, _ := c.buf.Current()
	e.Title = cur.Title
	e.Content = cur.Content
	return e
}
