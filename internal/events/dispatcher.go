package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrUndelivered is returned by Close when its deadline passes before the buffer
// is drained. The abandoned events are counted as dropped.
var ErrUndelivered = errors.New("events: undelivered at close")

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher relays events to a sink on its own goroutine. A nil *Dispatcher is
// valid and discards everything.
type Dispatcher struct {
	cfg  Config
	sink Sink
	ch   chan Event

	// closing is closed by Close; drainCtx is set before it and bounds the drain.
	closing  chan struct{}
	drainCtx context.Context
	stopped  chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	dropped   [kindCount]atomic.Uint64
	abandoned atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is
// disabled or there is no sink.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled || sink == nil {
		return nil
	}
	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		ch:      make(chan Event, max(cfg.BufferSize, 1)),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		// Once closing, the drain deadline applies to every remaining event.
		select {
		case <-d.closing:
			d.drain(d.drainCtx)
			return
		default:
		}

		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.closing:
			d.drain(d.drainCtx)
			return
		}
	}
}

// drain delivers what is buffered until ctx ends, then counts the rest as dropped.
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case event := <-d.ch:
			if ctx.Err() != nil {
				d.drop(event.Kind)
				d.abandoned.Add(1)
				continue
			}
			d.sink.Emit(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) drop(kind Kind) {
	if kind < kindCount {
		d.dropped[kind].Add(1)
	}
}

// Emit queues event for delivery. With DropIfFull a full buffer drops the event
// and counts it. Otherwise Emit blocks until there is room, ctx ends or the
// dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.closing:
		default:
			d.drop(event.Kind)
		}
		return
	}
	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.drop(event.Kind)
	case <-d.closing:
	}
}

// Close stops accepting events and delivers what is buffered until ctx ends.
// Events still queued at the deadline are dropped and Close returns
// ErrUndelivered. Later calls wait on the first one's drain.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.drainCtx = ctx
		close(d.closing)
	})
	select {
	case <-d.stopped:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrUndelivered, ctx.Err())
	}
	if n := d.abandoned.Load(); n > 0 {
		return fmt.Errorf("%w: %d events", ErrUndelivered, n)
	}
	return nil
}

// Dropped reports the events discarded so far, by kind. Kinds with no drops are
// omitted.
func (d *Dispatcher) Dropped() map[Kind]uint64 {
	out := make(map[Kind]uint64, kindCount)
	if d == nil {
		return out
	}
	for k := range d.dropped {
		if n := d.dropped[k].Load(); n > 0 {
			out[Kind(k)] = n
		}
	}
	return out
}

// DroppedTotal sums Dropped over every kind.
func (d *Dispatcher) DroppedTotal() uint64 {
	var total uint64
	for _, n := range d.Dropped() {
		total += n
	}
	return total
}
