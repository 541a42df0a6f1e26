package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/daybook/internal/types"
)

func TestDiskStore_MissingMeansNoSelection(t *testing.T) {
	s := NewDiskStore(t.TempDir())

	sel, err := s.LoadSelectedJournal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.NoSelection, sel)
}

func TestDiskStore_RoundTripAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, NewDiskStore(dir).SaveSelectedJournal(ctx, types.Selected(42)))

	sel, err := NewDiskStore(dir).LoadSelectedJournal(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Selected(42), sel)

	raw, err := os.ReadFile(filepath.Join(dir, selectedJournalKey))
	require.NoError(t, err)
	assert.Equal(t, "42", string(raw))
}

func TestDiskStore_ClearWritesNone(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := NewDiskStore(dir)

	require.NoError(t, s.SaveSelectedJournal(ctx, types.Selected(7)))
	require.NoError(t, s.SaveSelectedJournal(ctx, types.NoSelection))

	raw, err := os.ReadFile(filepath.Join(dir, selectedJournalKey))
	require.NoError(t, err)
	assert.Equal(t, noneValue, string(raw))

	sel, err := NewDiskStore(dir).LoadSelectedJournal(ctx)
	require.NoError(t, err)
	assert.False(t, sel.Valid)
}

func TestDiskStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, selectedJournalKey), []byte("twelve"), 0o600))

	_, err := NewDiskStore(dir).LoadSelectedJournal(context.Background())
	assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestDecodeSelection(t *testing.T) {
	tests := []struct {
		raw  string
		want types.Selection
	}{
		{"none", types.NoSelection},
		{"", types.NoSelection},
		{" 3\n", types.Selected(3)},
		{"0", types.Selected(0)},
	}
	for _, tt := range tests {
		got, err := decodeSelection(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestMemory(t *testing.T) {
	m := &Memory{}
	ctx := context.Background()

	require.NoError(t, m.SaveSelectedJournal(ctx, types.Selected(5)))
	sel, err := m.LoadSelectedJournal(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Selected(5), sel)

	m.Err = errors.New("unavailable")
	assert.Error(t, m.SaveSelectedJournal(ctx, types.NoSelection))
	_, err = m.LoadSelectedJournal(ctx)
	assert.Error(t, err)
}
