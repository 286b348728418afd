package datastores

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	_, err := slot.Read(ctx)
	require.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, slot.Write(ctx, []byte(`[1]`)))
	require.NoError(t, slot.Write(ctx, []byte(`[2]`)))
	b, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(b))
}

func TestMemorySlot(t *testing.T) {
	slot := NewMemorySlot(nil)
	testSlot(t, slot)
	assert.Equal(t, 2, slot.Writes())
}

func TestFileSlot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	slot := &FileSlot{Dir: dir, Key: "contacts"}
	testSlot(t, slot)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
	assert.Equal(t, "contacts.json", entries[0].Name())
}

func TestSQLiteSlot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.sqlite")

	slot, err := OpenSQLiteSlot(ctx, path, "contacts")
	require.NoError(t, err)
	testSlot(t, slot)

	other, err := OpenSQLiteSlot(ctx, path, "other")
	require.NoError(t, err)
	_, err = other.Read(ctx)
	require.ErrorIs(t, err, ErrSlotEmpty, "keys are independent")
	require.NoError(t, other.Close())
	require.NoError(t, slot.Close())

	reopened, err := OpenSQLiteSlot(ctx, path, "contacts")
	require.NoError(t, err)
	defer reopened.Close()
	b, err := reopened.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(b))
}

func TestContactsPersisted_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := NewContactsPersisted(&FileSlot{Dir: dir, Key: "contacts"}, nil)
	s.Load(ctx)
	_, want, err := s.Add(ctx, ContactData{Name: "Ann", Phone: "555"})
	require.NoError(t, err)

	got := NewContactsPersisted(&FileSlot{Dir: dir, Key: "contacts"}, nil).Load(ctx)
	assert.Equal(t, want, got)
}
