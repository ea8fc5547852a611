package remote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted(t *testing.T) {
	s := NewScripted(Result{Balance: 1, OK: true}, Result{OK: false})
	ctx := context.Background()

	v, ok := s.Fetch(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = s.Fetch(ctx)
	assert.False(t, ok)
	// exhausted: repeats the last step
	_, ok = s.Fetch(ctx)
	assert.False(t, ok)
	assert.Equal(t, 3, s.Calls())

	_, ok = NewScripted().Fetch(ctx)
	assert.False(t, ok)
}

func TestRandom_BothOutcomesReachable(t *testing.T) {
	r := NewRandom(DefaultRandomConfig())
	var numbers, absents int
	for i := 0; i < 1000; i++ {
		v, ok := r.Fetch(context.Background())
		if !ok {
			absents++
			continue
		}
		numbers++
		require.GreaterOrEqual(t, v, int64(0))
		require.LessOrEqual(t, v, int64(DefaultMaxBalance))
	}
	assert.Positive(t, numbers)
	assert.Positive(t, absents)
}

func TestRandom_FailureRateExtremes(t *testing.T) {
	never := NewRandom(RandomConfig{MaxBalance: 5, FailureRate: 0})
	always := NewRandom(RandomConfig{FailureRate: 1})
	for i := 0; i < 200; i++ {
		v, ok := never.Fetch(context.Background())
		require.True(t, ok)
		require.LessOrEqual(t, v, int64(5))

		_, ok = always.Fetch(context.Background())
		require.False(t, ok)
	}
}

func TestRandom_ClampsConfig(t *testing.T) {
	r := NewRandom(RandomConfig{MaxBalance: -1, FailureRate: 7})
	assert.Equal(t, int64(DefaultMaxBalance), r.cfg.MaxBalance)
	assert.Equal(t, 1.0, r.cfg.FailureRate)
}

func TestRandom_LatencyHonoursContext(t *testing.T) {
	r := NewRandom(RandomConfig{FailureRate: 0, Latency: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, ok := r.Fetch(ctx)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRandom_Concurrent(t *testing.T) {
	r := NewRandom(RandomConfig{Latency: 10 * time.Millisecond, FailureRate: 0})
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := r.Fetch(context.Background())
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	// fetches run in parallel, not one after another
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestWithTimeout(t *testing.T) {
	slow := NewRandom(RandomConfig{FailureRate: 0, Latency: time.Second})
	src := WithTimeout(slow, 20*time.Millisecond)

	start := time.Now()
	_, ok := src.Fetch(context.Background())
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	fast := WithTimeout(NewScripted(Result{Balance: 8, OK: true}), time.Second)
	v, ok := fast.Fetch(context.Background())
	assert.True(t, ok)
	assert.Equal(t, int64(8), v)

	s := NewScripted()
	assert.Same(t, s, WithTimeout(s, 0))
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	s := NewScripted(Result{OK: false}, Result{OK: false}, Result{Balance: 30, OK: true})
	b := NewBreaker(s, BreakerConfig{
		Name:                "test",
		ConsecutiveFailures: 2,
		OpenTimeout:         50 * time.Millisecond,
	}, zerolog.Nop())
	ctx := context.Background()

	_, ok := b.Fetch(ctx)
	assert.False(t, ok)
	_, ok = b.Fetch(ctx)
	assert.False(t, ok)
	assert.Equal(t, "open", b.State())

	// open: the wrapped source is not called
	_, ok = b.Fetch(ctx)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Calls())

	time.Sleep(80 * time.Millisecond)
	v, ok := b.Fetch(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(30), v)
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, 3, s.Calls())
}
