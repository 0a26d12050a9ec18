package scraper

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeThrottle(delay time.Duration) (*Throttle, *time.Time, *[]time.Duration) {
	now := time.Unix(0, 0)
	var slept []time.Duration

	th := NewThrottle(delay)
	th.now = func() time.Time { return now }
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}
	return th, &now, &slept
}

func TestThrottle_FirstCallDoesNotWait(t *testing.T) {
	th, _, slept := fakeThrottle(2 * time.Second)

	require.NoError(t, th.Wait(context.Background()))
	assert.Empty(t, *slept)
}

func TestThrottle_SleepsRemainder(t *testing.T) {
	th, now, slept := fakeThrottle(2 * time.Second)
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx))
	th.Mark()

	*now = now.Add(500 * time.Millisecond)
	require.NoError(t, th.Wait(ctx))
	th.Mark()

	*now = now.Add(3 * time.Second)
	require.NoError(t, th.Wait(ctx))

	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, *slept)
}

func TestThrottle_CancelledContext(t *testing.T) {
	th := NewThrottle(time.Hour)
	th.Mark()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, th.Wait(ctx), context.Canceled)
}

func TestThrottle_ReservesSlotsBeforeSleeping(t *testing.T) {
	th := NewThrottle(2 * time.Second)
	now := time.Unix(0, 0)
	th.now = func() time.Time { return now }
	var slept []time.Duration
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	ctx := context.Background()

	// three callers arrive at the same instant, before any fetch finishes
	for range 3 {
		require.NoError(t, th.Wait(ctx))
	}

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}

func TestThrottle_ConcurrentWaitersAreSpaced(t *testing.T) {
	const delay = 50 * time.Millisecond
	th := NewThrottle(delay)
	ctx := context.Background()
	require.NoError(t, th.Wait(ctx))
	th.Mark()

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := th.Wait(ctx); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, starts, 3)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, delay-5*time.Millisecond, "fetches %d and %d only %s apart", i-1, i, gap)
	}
}
