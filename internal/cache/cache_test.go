package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance simulated time.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestGetAfterPut(t *testing.T) {
	c := New(60*time.Second, 10)

	value := []byte(`{"c":123.45}`)
	c.Put("AAPL", value)

	got, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func TestGetMissingKey(t *testing.T) {
	c := New(60*time.Second, 10)

	_, ok := c.Get("MSFT")
	assert.False(t, ok)
}

func TestGetAfterTTLExpires(t *testing.T) {
	clock := newFakeClock()
	c := New(60*time.Second, 10)
	c.SetClock(clock.now)

	c.Put("AAPL", []byte(`{}`))

	clock.advance(59 * time.Second)
	_, ok := c.Get("AAPL")
	assert.True(t, ok, "entry should still be fresh just under the TTL")

	clock.advance(1 * time.Second)
	_, ok = c.Get("AAPL")
	assert.False(t, ok, "entry should expire once its age reaches the TTL")
}

func TestGetStaleIgnoresTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(60*time.Second, 10)
	c.SetClock(clock.now)

	value := []byte(`{"c":1}`)
	c.Put("AAPL", value)

	clock.advance(10 * time.Minute)

	_, ok := c.Get("AAPL")
	require.False(t, ok)

	got, ok := c.GetStale("AAPL")
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func TestPutEvictsOldestAtCapacity(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Hour, 3)
	c.SetClock(clock.now)

	// Insert in a known order so "oldest" is unambiguous.
	for i, key := range []string{"A", "B", "C"} {
		c.Put(key, []byte(fmt.Sprintf(`{"n":%d}`, i)))
		clock.advance(time.Second)
	}
	require.Equal(t, 3, c.Len())

	c.Put("D", []byte(`{"n":3}`))

	// Exactly one eviction: the globally-oldest entry.
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("A")
	assert.False(t, ok, "oldest entry should have been evicted")

	for _, key := range []string{"B", "C", "D"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "entry %s should survive eviction", key)
	}
}

func TestPutOverwriteDoesNotGrow(t *testing.T) {
	c := New(time.Hour, 3)

	c.Put("A", []byte(`1`))
	c.Put("A", []byte(`2`))

	assert.Equal(t, 1, c.Len())
	got, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, []byte(`2`), got)
}

func TestPutCopiesValue(t *testing.T) {
	c := New(time.Hour, 10)

	value := []byte(`{"c":1}`)
	c.Put("AAPL", value)
	value[0] = 'X'

	got, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"c":1}`), got)
}
