package cartstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	items, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, store.Save(ctx, []Item{eggs(2), shirt("M", 1)}))
	_, err = os.Stat(filepath.Join(dir, "guest_cart.json"))
	require.NoError(t, err)

	items, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, eggs(2), items[0])

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	items, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFileStorageCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guest_cart.json"), []byte("{"), 0o600))
	store, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryStorageCopies(t *testing.T) {
	store := NewMemoryStorage(eggs(1))
	items, err := store.Load(context.Background())
	require.NoError(t, err)
	items[0].Quantity = 99

	again, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Quantity)
}
