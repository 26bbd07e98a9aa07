package cartstate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GuestDispatchPersists(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage(eggs(1))
	store, err := NewStore(ctx, storage, nil)
	require.NoError(t, err)
	assert.Equal(t, 300, store.State().SubtotalCents)

	state, err := store.Dispatch(ctx, AddItem{Item: shirt("M", 2)})
	require.NoError(t, err)
	assert.Equal(t, 5300, state.SubtotalCents)

	saved, _ := storage.Load(ctx)
	assert.Equal(t, []Item{eggs(1), shirt("M", 2)}, saved)

	_, err = store.Dispatch(ctx, RemoveItem{Key: eggs(0).Key()})
	require.NoError(t, err)
	saved, _ = storage.Load(ctx)
	assert.Equal(t, []Item{shirt("M", 2)}, saved)
}

func TestStore_LoginMergesAndHydrates(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store, err := NewStore(ctx, storage, nil)
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, AddItem{Item: eggs(2)})
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, AddItem{Item: shirt("M", 1)})
	require.NoError(t, err)

	api := &stubCartAPI{
		outcome: &MergeOutcome{
			Merged:   1,
			Rejected: []RejectedLine{{MergeLine: lineFromItem(shirt("M", 1)), Reason: "out of stock"}},
		},
		server: []Item{eggs(5)},
	}
	outcome, err := store.Login(ctx, api)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Merged)
	require.Len(t, api.got, 2)

	assert.True(t, store.Authenticated())
	state := store.State()
	assert.Equal(t, []Item{eggs(5)}, state.Items)
	assert.Equal(t, 1500, state.SubtotalCents)
	require.Len(t, store.Rejected(), 1)
	assert.Equal(t, "out of stock", store.Rejected()[0].Reason)

	// signed-in mutations no longer touch guest storage
	_, err = store.Dispatch(ctx, AddItem{Item: eggs(1)})
	require.NoError(t, err)
	saved, _ := storage.Load(ctx)
	assert.Equal(t, []Item{shirt("M", 1)}, saved)

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.Authenticated())
	assert.Equal(t, []Item{shirt("M", 1)}, store.State().Items)
}

func TestStore_LoginFailureStaysGuest(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage(eggs(2))
	store, err := NewStore(ctx, storage, nil)
	require.NoError(t, err)

	_, err = store.Login(ctx, &stubCartAPI{err: errors.New("offline")})
	require.Error(t, err)
	assert.False(t, store.Authenticated())
	assert.Equal(t, []Item{eggs(2)}, store.State().Items)

	_, err = store.Dispatch(ctx, AddItem{Item: eggs(1)})
	require.NoError(t, err)
	saved, _ := storage.Load(ctx)
	require.Len(t, saved, 1)
	assert.Equal(t, 3, saved[0].Quantity)
}

func TestStore_FetchFailureAfterMerge(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, NewMemoryStorage(eggs(2)), nil)
	require.NoError(t, err)

	_, err = store.Login(ctx, &stubCartAPI{outcome: &MergeOutcome{Merged: 1}, fetchErr: errors.New("timeout")})
	require.Error(t, err)
	assert.True(t, store.Authenticated())
	assert.Equal(t, []Item{eggs(2)}, store.State().Items)
}
