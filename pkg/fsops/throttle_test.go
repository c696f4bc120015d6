package fsops

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowProvider records the peak number of concurrent Stat calls
type slowProvider struct {
	Provider
	active atomic.Int32
	peak   atomic.Int32
}

func (s *slowProvider) Stat(ctx context.Context, path string) (Stats, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return Stats{Type: TypeFile}, nil
}

func TestThrottle_BoundsConcurrency(t *testing.T) {
	inner := &slowProvider{Provider: NewMemory(nil)}
	p := Throttle(inner, 3)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Stat(context.Background(), "/x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int32(3))
	assert.Positive(t, inner.peak.Load())
}

func TestThrottle_Disabled(t *testing.T) {
	inner := NewMemory(nil)
	assert.Same(t, Provider(inner), Throttle(inner, 0))
}

func TestThrottle_Delegates(t *testing.T) {
	ctx := context.Background()
	p := Throttle(NewMemory(nil), 2)

	require.NoError(t, p.WriteFile(ctx, "/a/b.txt", []byte("b")))
	data, err := p.ReadFile(ctx, "/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	assert.True(t, p.Access(ctx, "/a/b.txt").OK())
}

func TestThrottle_CancelledContext(t *testing.T) {
	inner := NewMemory(nil)
	p := Throttle(inner, 1).(*Throttled)

	require.NoError(t, p.sem.Acquire(context.Background(), 1))
	defer p.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Stat(ctx, "/x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.Access(ctx, "/x").OK())
}
