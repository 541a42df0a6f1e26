// Package history keeps a bounded undo/redo trail of an entry being
// composed. Nothing in it is persisted.
package history

// DefaultCapacity is the number of states a Buffer keeps before evicting
// the oldest.
const DefaultCapacity = 50

// TextState is the composable part of an entry.
type TextState struct {
	Title   string
	Content string
}

// Buffer is an undo stack plus a redo stack. The undo stack ends with the
// current state; undoing moves the current state onto the redo stack, so
// the two stacks together always hold every reachable state exactly once.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	undo     []TextState
	redo     []TextState
	capacity int
}

// New returns an empty Buffer with DefaultCapacity.
func New() *Buffer {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity returns an empty Buffer keeping at most capacity states.
// A capacity below 1 is treated as 1.
func NewWithCapacity(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{capacity: capacity}
}

// Record makes s the current state. It reports false and changes nothing
// when s equals the current state. Otherwise the redo stack is discarded
// and, past capacity, the oldest state is evicted.
func (b *Buffer) Record(s TextState) bool {
	if n := len(b.undo); n > 0 && b.undo[n-1] == s {
		return false
	}
	b.undo = append(b.undo, s)
	b.redo = b.redo[:0]
	if over := len(b.undo) - b.capacity; over > 0 {
		b.undo = append(b.undo[:0], b.undo[over:]...)
	}
	return true
}

// Undo steps back one state and returns it. At the first state it returns
// the current state and false.
func (b *Buffer) Undo() (TextState, bool) {
	if len(b.undo) < 2 {
		cur, _ := b.Current()
		return cur, false
	}
	last := len(b.undo) - 1
	b.redo = append(b.redo, b.undo[last])
	b.undo = b.undo[:last]
	return b.undo[last-1], true
}

// Redo re-applies the most recently undone state and returns it. With
// nothing to redo it returns the current state and false.
func (b *Buffer) Redo() (TextState, bool) {
	if len(b.redo) == 0 {
		cur, _ := b.Current()
		return cur, false
	}
	last := len(b.redo) - 1
	s := b.redo[last]
	b.redo = b.redo[:last]
	b.undo = append(b.undo, s)
	return s, true
}

// Reset discards all history and seeds the buffer with initial.
func (b *Buffer) Reset(initial TextState) {
	b.undo = append(b.undo[:0], initial)
	b.redo = b.redo[:0]
}

// Clear discards all history.
func (b *Buffer) Clear() {
	b.undo = b.undo[:0]
	b.redo = b.redo[:0]
}

// Current returns the current state, or false when nothing was recorded.
func (b *Buffer) Current() (TextState, bool) {
	if len(b.undo) == 0 {
		return TextState{}, false
	}
	return b.undo[len(b.undo)-1], true
}

// CanUndo reports whether Undo would move.
func (b *Buffer) CanUndo() bool { return len(b.undo) > 1 }

// CanRedo reports whether Redo would move.
func (b *Buffer) CanRedo() bool { return len(b.redo) > 0 }

// Index is the position of the current state in the undo stack, -1 when empty.
func (b *Buffer) Index() int { return len(b.undo) - 1 }

// Len is the number of states on the undo stack.
func (b *Buffer) Len() int { return len(b.undo) }

// RedoLen is the number of states on the redo stack.
func (b *Buffer) RedoLen() int { return len(b.redo) }

// Capacity is the maximum number of states kept.
func (b *Buffer) Capacity() int { return b.capacity }
