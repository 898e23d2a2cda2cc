package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{Prefix: "test"})

	type payload struct {
		ID string `json:"id"`
	}
	require.NoError(t, store.SetJSON(ctx, "k", payload{ID: "a"}, time.Minute))

	var got payload
	ok, err := store.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)

	ok, err = store.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "raw", 42, time.Minute))
	_, err = store.GetJSON(ctx, "raw", &got)
	assert.Error(t, err)
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	root := NewStore(Options{})
	a := root.Namespace("a")
	b := root.Namespace("b")

	require.NoError(t, a.Set(ctx, "key", "one", 0))
	_, ok := b.Get(ctx, "key")
	assert.False(t, ok)

	v, ok := root.Get(ctx, "a:key")
	require.True(t, ok)
	assert.Equal(t, "one", v)

	a.Delete(ctx, "key")
	_, ok = a.Get(ctx, "key")
	assert.False(t, ok)
}

func TestIncrement(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Increment(ctx, "hits", 1, time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := store.Increment(ctx, "hits", 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	ttl, ok := store.TTL(ctx, "hits")
	require.True(t, ok)
	assert.LessOrEqual(t, ttl, time.Minute)

	_, err = store.Increment(ctx, " ", 1, time.Minute)
	assert.Error(t, err)
}
