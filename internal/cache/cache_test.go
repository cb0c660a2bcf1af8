package cache

import (
	"context"
	"testing"
	"time"

	"github.com/gonzacha/nordia-pos/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "product:1", []byte(`{"id":1}`), time.Minute))
	val, err := c.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(val))

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "product:1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "product:2", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "products:all", []byte("c"), time.Minute))

	require.NoError(t, c.DeleteByPattern(ctx, "product:*"))

	_, err := c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "product:2")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "products:all")
	assert.NoError(t, err)

	require.NoError(t, c.DeleteByPattern(ctx, "products:all"))
	_, err = c.Get(ctx, "products:all")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type entry struct {
		Name  string `json:"name"`
		Stock int    `json:"stock"`
	}

	require.NoError(t, SetJSON(ctx, c, "product:1", entry{Name: "Café", Stock: 100}, TTL(60)))

	var got entry
	require.NoError(t, GetJSON(ctx, c, "product:1", &got))
	assert.Equal(t, entry{Name: "Café", Stock: 100}, got)

	assert.ErrorIs(t, GetJSON(ctx, c, "product:2", &got), ErrCacheMiss)
}

func TestNew_DisabledUsesMemory(t *testing.T) {
	c := New(&config.Config{UseCache: false}, zap.NewNop())
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}
