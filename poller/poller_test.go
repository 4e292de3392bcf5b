package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 5 * time.Millisecond

func counting(n *atomic.Int32) Func {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func TestStartWaitsOneIntervalThenRepeats(t *testing.T) {
	const interval = 100 * time.Millisecond
	var n atomic.Int32
	p := New(nil)
	start := time.Now()
	require.True(t, p.Start(context.Background(), func(context.Context) error {
		if n.Add(1) == 1 {
			assert.GreaterOrEqual(t, time.Since(start), interval-10*time.Millisecond)
		}
		return nil
	}, interval))
	defer p.Stop()

	time.Sleep(interval / 4)
	assert.Zero(t, n.Load(), "no poll before the first interval elapses")
	assert.True(t, p.Active())

	require.Eventually(t, func() bool { return n.Load() >= 2 }, 2*time.Second, time.Millisecond)
}

func TestStartTwiceKeepsOneLoop(t *testing.T) {
	var first, second atomic.Int32
	p := New(nil)
	require.True(t, p.Start(context.Background(), counting(&first), tick))
	assert.False(t, p.Start(context.Background(), counting(&second), tick))

	require.Eventually(t, func() bool { return first.Load() >= 2 }, time.Second, time.Millisecond)
	p.Stop()
	assert.Zero(t, second.Load())
}

func TestStopIsIdempotentAndFinal(t *testing.T) {
	var n atomic.Int32
	p := New(nil)
	p.Stop() // never started

	require.True(t, p.Start(context.Background(), counting(&n), tick))
	require.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()
	assert.False(t, p.Active())

	after := n.Load()
	time.Sleep(5 * tick)
	assert.Equal(t, after, n.Load(), "no callback may run after Stop returns")
}

func TestStopCancelsCallbackContext(t *testing.T) {
	entered := make(chan struct{})
	var sawCancel atomic.Bool
	p := New(nil)
	p.Start(context.Background(), func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	}, tick)

	<-entered
	p.Stop()
	assert.True(t, sawCancel.Load())
}

func TestRestartAfterStop(t *testing.T) {
	var n atomic.Int32
	p := New(nil)
	require.True(t, p.Start(context.Background(), counting(&n), tick))
	p.Stop()
	require.True(t, p.Start(context.Background(), counting(&n), tick))
	defer p.Stop()
	assert.True(t, p.Active())
}

func TestErrStopPollingEndsLoop(t *testing.T) {
	var n atomic.Int32
	p := New(nil)
	p.Start(context.Background(), func(context.Context) error {
		if n.Add(1) == 3 {
			return ErrStopPolling
		}
		return nil
	}, tick)

	require.Eventually(t, func() bool { return !p.Active() }, time.Second, time.Millisecond)
	assert.Equal(t, int32(3), n.Load())

	// A loop that ended on its own can be started again.
	assert.True(t, p.Start(context.Background(), counting(&n), tick))
	p.Stop()
}

func TestCallbackErrorsKeepPolling(t *testing.T) {
	var n atomic.Int32
	p := New(nil)
	p.Start(context.Background(), func(context.Context) error {
		n.Add(1)
		return errors.New("backend down")
	}, tick)
	defer p.Stop()

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestParentContextEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	p := New(nil)
	p.Start(ctx, counting(&n), tick)
	cancel()

	require.Eventually(t, func() bool { return !p.Active() }, time.Second, time.Millisecond)
	p.Stop()
}

func TestDefaultInterval(t *testing.T) {
	var n atomic.Int32
	p := New(nil)
	p.Start(context.Background(), counting(&n), 0)
	defer p.Stop()

	time.Sleep(10 * tick)
	assert.True(t, p.Active())
	assert.Zero(t, n.Load(), "zero interval must fall back to the default, not spin")
}

func TestRunReleasesOnEveryExit(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		var n atomic.Int32
		wantErr := errors.New("view closed")
		err := Run(context.Background(), tick, counting(&n), func(context.Context) error {
			require.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, time.Millisecond)
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		after := n.Load()
		time.Sleep(5 * tick)
		assert.Equal(t, after, n.Load())
	})

	t.Run("panic", func(t *testing.T) {
		var n atomic.Int32
		assert.Panics(t, func() {
			_ = Run(context.Background(), tick, counting(&n), func(context.Context) error {
				panic("render failed")
			})
		})
		after := n.Load()
		time.Sleep(5 * tick)
		assert.Equal(t, after, n.Load())
	})
}

func TestScopeRelease(t *testing.T) {
	var n atomic.Int32
	release := Scope(context.Background(), counting(&n), tick, nil)
	require.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, time.Millisecond)
	release()
	release()

	after := n.Load()
	time.Sleep(5 * tick)
	assert.Equal(t, after, n.Load())
}

func TestDoneClosesWhenLoopEnds(t *testing.T) {
	p := New(nil)
	select {
	case <-p.Done():
	default:
		t.Fatal("idle poller must report done")
	}

	var n atomic.Int32
	require.True(t, p.Start(context.Background(), func(context.Context) error {
		if n.Add(1) == 2 {
			return ErrStopPolling
		}
		return nil
	}, tick))

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not end")
	}
	assert.EqualValues(t, 2, n.Load())
}
