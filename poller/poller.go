package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is used when Start is given a non-positive interval.
const DefaultInterval = 5 * time.Second

// ErrStopPolling, returned from a callback, ends polling without an error being
// logged.
var ErrStopPolling = errors.New("stop polling")

// Func is one poll. ctx is cancelled when the poller stops. A Func must not call
// Stop on its own poller; it returns ErrStopPolling instead.
type Func func(ctx context.Context) error

// Poller owns at most one polling loop.
type Poller struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	logger *zap.Logger
}

// New returns an idle Poller. A nil logger discards callback errors.
func New(logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{logger: logger}
}

// Start runs fn every interval until Stop, ctx ends, or fn returns
// ErrStopPolling. The first call comes one interval after Start; a caller that
// wants an immediate result calls fn itself first. Start returns false without
// doing anything when a loop is already active.
func (p *Poller) Start(ctx context.Context, fn Func, interval time.Duration) bool {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		select {
		case <-p.done:
			// The previous loop ended on its own.
		default:
			return false
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.loop(loopCtx, cancel, done, fn, interval)
	return true
}

func (p *Poller) loop(ctx context.Context, cancel context.CancelFunc, done chan struct{}, fn Func, interval time.Duration) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !p.poll(ctx, fn) {
			return
		}
	}
}

// poll runs fn once and reports whether the loop should continue.
func (p *Poller) poll(ctx context.Context, fn Func) bool {
	if ctx.Err() != nil {
		return false
	}
	err := fn(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrStopPolling):
		return false
	case ctx.Err() != nil:
		return false
	default:
		p.logger.Warn("goSession: poll failed", zap.Error(err))
		return true
	}
}

// Stop cancels the loop and waits for it to exit. It is safe to call at any time
// and any number of times, except from inside the callback.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether a loop is running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current loop exits. With no loop it
// returns a closed channel.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

// Scope starts a new poller and returns its release func, for use with defer.
func Scope(ctx context.Context, fn Func, interval time.Duration, logger *zap.Logger) (release func()) {
	p := New(logger)
	p.Start(ctx, fn, interval)
	return p.Stop
}

// Run polls fn while body runs and stops the poller before returning, whether
// body returns normally, with an error, or panics.
func Run(ctx context.Context, interval time.Duration, fn Func, body func(ctx context.Context) error) error {
	release := Scope(ctx, fn, interval, nil)
	defer release()
	return body(ctx)
}
