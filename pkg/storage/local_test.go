package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "run-1/probability.json", []byte(`{"value": 0.5}`)))
	require.NoError(t, store.Put(ctx, "run-1/importance.json", []byte(`{}`)))

	data, err := store.Get(ctx, "run-1/probability.json")
	require.NoError(t, err)
	assert.Equal(t, `{"value": 0.5}`, string(data))

	keys, err := store.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestLocalStoreListMissingPrefix(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	keys, err := store.List(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
