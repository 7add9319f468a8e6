package cache

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 0)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "categories:tree", payload{Name: "rings", Count: 3}, 0))

	var got payload
	found, err := m.Get(ctx, "categories:tree", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "rings", Count: 3}, got)

	found, err = m.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryExpiration(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 0)
	defer m.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)

	var v int
	found, err := m.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)

	m.purge()
	assert.Equal(t, 0, m.Size())
}

func TestMemoryDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 0)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "products:list:a", 1, 0))
	require.NoError(t, m.Set(ctx, "products:id:b", 2, 0))
	require.NoError(t, m.Set(ctx, "categories:tree", 3, 0))

	require.NoError(t, m.DeleteByPrefix(ctx, "products:"))
	assert.Equal(t, 1, m.Size())
}

func TestQueryKeyIsOrderIndependent(t *testing.T) {
	a := url.Values{}
	a.Set("page", "1")
	a.Set("search", "ring")
	b := url.Values{}
	b.Set("search", "ring")
	b.Set("page", "1")

	assert.Equal(t, QueryKey("products:list:", a), QueryKey("products:list:", b))

	b.Set("page", "2")
	assert.NotEqual(t, QueryKey("products:list:", a), QueryKey("products:list:", b))
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	require.NoError(t, s.Set(context.Background(), "k", 1, 0))
	var v int
	found, err := s.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
