package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("providers.govinfo.api_key", "gk"))
	require.NoError(t, store.Set("cache.max_entries", int64(500)))
	require.NoError(t, store.Set("retrieval.default_limit", float64(8)))
	require.NoError(t, store.Set("providers.courtlistener.enabled", true))
	require.NoError(t, store.Set("cache.ttl", "15m"))
	require.NoError(t, store.Set("retrieval.provider_timeout", 3*time.Second))
	require.NoError(t, store.Set("server.allowed_origins", []any{"https://a.example", 7, "https://b.example"}))

	assert.Equal(t, "gk", store.GetString("providers.govinfo.api_key"))
	assert.Equal(t, 500, store.GetInt("cache.max_entries"))
	assert.Equal(t, 8, store.GetInt("retrieval.default_limit"))
	assert.True(t, store.GetBool("providers.courtlistener.enabled"))
	assert.Equal(t, 15*time.Minute, store.GetDuration("cache.ttl"))
	assert.Equal(t, 3*time.Second, store.GetDuration("retrieval.provider_timeout"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, store.GetStringSlice("server.allowed_origins"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("cache.ttl", "soon"))
	require.NoError(t, store.Set("cache.max_entries", "many"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("cache.max_entries"))
	assert.False(t, store.GetBool("cache.ttl"))
	assert.Zero(t, store.GetDuration("cache.ttl"))
	assert.Nil(t, store.GetStringSlice("cache.ttl"))
}

func TestConfigStore_SaveLoadAreNoOps(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("store.backend", "memory"))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "memory", store.GetString("store.backend"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", i))
		}()
	}
	wg.Wait()

	for i := range 50 {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}

func TestConfigStore_SnapshotAndReplace(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("retrieval.provider_timeout", int64(5)))

	snap := store.Snapshot()
	snap["retrieval.provider_timeout"] = int64(99)
	assert.Equal(t, 5*time.Second, store.GetDuration("retrieval.provider_timeout"), "snapshot is a copy")

	store.Replace(map[string]any{"store.backend": "sqlite"})
	assert.Equal(t, "sqlite", store.GetString("store.backend"))
	_, ok := store.Get("retrieval.provider_timeout")
	assert.False(t, ok)

	store.Replace(nil)
	assert.Empty(t, store.Snapshot())
	require.NoError(t, store.Set("after.reset", true))
	assert.True(t, store.GetBool("after.reset"))
}
