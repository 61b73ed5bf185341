package bigcache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/batchload/codec"
)

type user struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name"`
}

func newCache(t *testing.T, capacity int64) *Cache[user] {
	t.Helper()
	c, err := New(Config[user]{Codec: codec.MustCBOR[user](true), Capacity: capacity})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutGetRemove(t *testing.T) {
	c := newCache(t, 0)
	want := user{ID: "1", Name: "Ada"}

	_, ok := c.Get("u:1")
	assert.False(t, ok)

	c.Put("u:1", want)
	got, ok := c.Get("u:1")
	require.True(t, ok)
	assert.Equal(t, want, got)

	c.Remove("u:1")
	_, ok = c.Get("u:1")
	assert.False(t, ok)
}

func TestSelfHealOnCorrupt(t *testing.T) {
	c := newCache(t, 0)
	require.NoError(t, c.c.Set("u:1", []byte("not a frame")))
	require.Equal(t, 1, c.Len())

	_, ok := c.Get("u:1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "corrupt entry must be deleted")
}

func TestResizeKeepsEntries(t *testing.T) {
	c := newCache(t, 4<<20)
	for i := 0; i < 50; i++ {
		c.Put(fmt.Sprintf("u:%d", i), user{ID: fmt.Sprint(i)})
	}

	c.Resize(8 << 20)
	assert.Equal(t, 8, c.conf.HardMaxCacheSize)
	assert.Equal(t, 50, c.Len())

	got, ok := c.Get("u:7")
	require.True(t, ok)
	assert.Equal(t, "7", got.ID)
}

func TestResizeToZeroHoldsNothing(t *testing.T) {
	c := newCache(t, 4<<20)
	c.Put("u:1", user{ID: "1"})

	c.Resize(0)
	_, ok := c.Get("u:1")
	assert.False(t, ok, "entries must be evicted")
	c.Put("u:2", user{ID: "2"})
	_, ok = c.Get("u:2")
	assert.False(t, ok, "zero capacity must not store")
	assert.Equal(t, 0, c.Len())

	c.Resize(1 << 20)
	c.Put("u:3", user{ID: "3"})
	_, ok = c.Get("u:3")
	assert.True(t, ok)
}

func TestCapacityRoundsUpToMiB(t *testing.T) {
	assert.Equal(t, 0, toMiB(0))
	assert.Equal(t, 1, toMiB(1))
	assert.Equal(t, 1, toMiB(1<<20))
	assert.Equal(t, 2, toMiB(1<<20+1))
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config[user]{})
	assert.Error(t, err)
	_, err = New(Config[user]{Codec: codec.JSON[user]{}, Capacity: -1})
	assert.Error(t, err)
}
