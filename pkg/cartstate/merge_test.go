package cartstate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCartAPI struct {
	outcome  *MergeOutcome
	err      error
	got      []MergeLine
	server   []Item
	fetchErr error
}

func (s *stubCartAPI) MergeGuestCart(_ context.Context, lines []MergeLine) (*MergeOutcome, error) {
	s.got = lines
	return s.outcome, s.err
}

func (s *stubCartAPI) FetchCart(context.Context) ([]Item, error) {
	return s.server, s.fetchErr
}

func TestMerger_ClearsOnFullMerge(t *testing.T) {
	store := NewMemoryStorage(eggs(2), shirt("M", 1))
	api := &stubCartAPI{outcome: &MergeOutcome{Merged: 2}}
	merger, err := NewMerger(store, api, nil)
	require.NoError(t, err)

	outcome, err := merger.Merge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Merged)
	require.Len(t, api.got, 2)
	assert.Equal(t, "M", api.got[1].Size)

	left, _ := store.Load(context.Background())
	assert.Empty(t, left)
}

func TestMerger_KeepsOnlyRejected(t *testing.T) {
	store := NewMemoryStorage(eggs(2), shirt("M", 1))
	rejected := lineFromItem(shirt("M", 1))
	api := &stubCartAPI{outcome: &MergeOutcome{
		Merged:   1,
		Rejected: []RejectedLine{{MergeLine: rejected, Reason: "out of stock"}},
	}}
	merger, err := NewMerger(store, api, nil)
	require.NoError(t, err)

	_, err = merger.Merge(context.Background())
	require.NoError(t, err)

	left, _ := store.Load(context.Background())
	require.Len(t, left, 1)
	assert.Equal(t, shirt("M", 1), left[0])
}

func TestMerger_TransportErrorKeepsEverything(t *testing.T) {
	store := NewMemoryStorage(eggs(2))
	merger, err := NewMerger(store, &stubCartAPI{err: errors.New("offline")}, nil)
	require.NoError(t, err)

	_, err = merger.Merge(context.Background())
	require.Error(t, err)

	left, _ := store.Load(context.Background())
	assert.Len(t, left, 1)
}

func TestMerger_EmptyGuestCartSkipsServer(t *testing.T) {
	api := &stubCartAPI{err: errors.New("should not be called")}
	merger, err := NewMerger(NewMemoryStorage(), api, nil)
	require.NoError(t, err)

	outcome, err := merger.Merge(context.Background())
	require.NoError(t, err)
	assert.Zero(t, outcome.Merged)
	assert.Nil(t, api.got)
}

func TestHTTPClient_MergeGuestCart(t *testing.T) {
	var gotAuth, gotKey string
	var body struct {
		Items []MergeLine `json:"items"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/cart/merge", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"merged":1,"rejected":[{"entity_type":"clothes","entity_id":"22222222-2222-2222-2222-222222222222","quantity":1,"size":"M","color":"Blue","reason":"out of stock"}]}}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/", "token", server.Client())
	require.NoError(t, err)

	outcome, err := client.MergeGuestCart(context.Background(), []MergeLine{lineFromItem(eggs(1)), lineFromItem(shirt("M", 1))})
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.NotEmpty(t, gotKey)
	assert.Len(t, body.Items, 2)
	assert.Equal(t, 1, outcome.Merged)
	require.Len(t, outcome.Rejected, 1)
	assert.Equal(t, "out of stock", outcome.Rejected[0].Reason)
	assert.Equal(t, shirt("M", 0).Key(), outcome.Rejected[0].key())
}

func TestHTTPClient_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "token", nil)
	require.NoError(t, err)

	_, err = client.MergeGuestCart(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)

	_, err = NewHTTPClient("", "token", nil)
	assert.Error(t, err)
}

func TestHTTPClient_FetchCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		assert.Empty(t, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"items":[{"id":"33333333-3333-3333-3333-333333333333","entity_type":"grocery","entity_id":"11111111-1111-1111-1111-111111111111","name":"Brown Eggs","price_cents":300,"quantity":4,"line_total_cents":1200}],"item_count":4}}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "token", server.Client())
	require.NoError(t, err)

	items, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, eggs(4), items[0])
}
