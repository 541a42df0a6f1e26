// Package prefs persists the small bits of session state that must survive
// a restart, such as the last selected journal.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/hyperengineering/daybook/internal/types"
)

const (
	selectedJournalKey = "selected_journal_id"
	noneValue          = "none"
)

// ErrCorrupt is returned when a stored preference cannot be parsed.
var ErrCorrupt = errors.New("corrupt preference")

// SelectionStore loads and saves the last selected journal.
type SelectionStore interface {
	LoadSelectedJournal(ctx context.Context) (types.Selection, error)
	SaveSelectedJournal(ctx context.Context, sel types.Selection) error
}

// DiskStore keeps preferences as one small file per key under a directory.
type DiskStore struct {
	d *diskv.Diskv
}

var _ SelectionStore = (*DiskStore)(nil)

// NewDiskStore opens (creating on first write) the preference directory at basePath.
func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 64 * 1024,
	})}
}

// LoadSelectedJournal returns the stored selection. A missing file means
// nothing was ever selected.
func (s *DiskStore) LoadSelectedJournal(ctx context.Context) (types.Selection, error) {
	raw, err := s.d.Read(selectedJournalKey)
	if errors.Is(err, os.ErrNotExist) {
		return types.NoSelection, nil
	}
	if err != nil {
		return types.NoSelection, fmt.Errorf("read %s: %w", selectedJournalKey, err)
	}
	return decodeSelection(string(raw))
}

// SaveSelectedJournal stores sel. An empty selection is written explicitly.
func (s *DiskStore) SaveSelectedJournal(ctx context.Context, sel types.Selection) error {
	if err := s.d.Write(selectedJournalKey, []byte(encodeSelection(sel))); err != nil {
		return fmt.Errorf("write %s: %w", selectedJournalKey, err)
	}
	return nil
}

func encodeSelection(sel types.Selection) string {
	if !sel.Valid {
		return noneValue
	}
	return strconv.FormatInt(sel.ID, 10)
}

func decodeSelection(raw string) (types.Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == noneValue || raw == "" {
		return types.NoSelection, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return types.NoSelection, fmt.Errorf("%w: %s=%q", ErrCorrupt, selectedJournalKey, raw)
	}
	return types.Selected(id), nil
}

// Memory is a SelectionStore held in memory.
type Memory struct {
	mu  sync.Mutex
	sel types.Selection

	// Err, when set, is returned by every call.
	Err error
}

var _ SelectionStore = (*Memory)(nil)

func (m *Memory) LoadSelectedJournal(ctx context.Context) (types.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.NoSelection, m.Err
	}
	return m.sel, nil
}

func (m *Memory) SaveSelectedJournal(ctx context.Context, sel types.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sel = sel
	return nil
}
