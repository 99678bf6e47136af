// ABOUTME: Tests for the dedupe window
// ABOUTME: Covers expiry, eviction order and concurrent Seen calls

package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestWindow(ttl time.Duration, size int) (*Window, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	w := New(ttl, size)
	w.now = clock.now
	return w, clock
}

func TestWindow_SeenMarksKey(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("update-1"))
	assert.True(t, w.Seen("update-1"))
	assert.False(t, w.Seen("update-2"))
	assert.Equal(t, 2, w.Len())
}

func TestWindow_KeysExpire(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("a"))
	clock.advance(30 * time.Second)
	assert.False(t, w.Seen("b"))

	clock.advance(31 * time.Second)
	assert.False(t, w.Seen("a"), "a expired and is new again")
	assert.True(t, w.Seen("b"))
}

func TestWindow_EvictsOldestWhenFull(t *testing.T) {
	w, _ := newTestWindow(time.Hour, 3)

	for _, k := range []string{"1", "2", "3", "4"} {
		assert.False(t, w.Seen(k))
	}
	assert.Equal(t, 3, w.Len())

	assert.True(t, w.Seen("4"))
	assert.True(t, w.Seen("3"))
	assert.False(t, w.Seen("1"), "1 was evicted first")
}

func TestWindow_MinimumSize(t *testing.T) {
	w := New(time.Hour, 0)
	assert.False(t, w.Seen("a"))
	assert.False(t, w.Seen("b"))
	assert.Equal(t, 1, w.Len())
}

func TestWindow_ConcurrentSeenAdmitsOnce(t *testing.T) {
	w := New(time.Minute, 100)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.Seen("same") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
}

func TestWindow_ManyKeys(t *testing.T) {
	w := New(time.Minute, 1000)
	for i := 0; i < 1000; i++ {
		assert.False(t, w.Seen(fmt.Sprintf("k%d", i)))
	}
	assert.Equal(t, 1000, w.Len())
}
