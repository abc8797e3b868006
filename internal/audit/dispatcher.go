package audit

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
)

// Config controls how the dispatcher buffers events on their way to a sink.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events when the queue is full instead of blocking the
	// caller. Types listed in Retain are exempt and always wait for room.
	DropIfFull bool
	Retain     []string
}

// Dispatcher forwards audit events to a sink from a single worker so sinks
// see events in emit order. A nil *Dispatcher is valid and drops everything.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool
	retain     map[string]struct{}

	queue chan Event
	stop  chan struct{}
	wg    sync.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once

	dropMu  sync.Mutex
	dropped map[string]uint64
	total   atomic.Uint64
}

// NewDispatcher starts the delivery worker, or returns nil when cfg is
// disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		retain:     make(map[string]struct{}, len(cfg.Retain)),
		queue:      make(chan Event, cfg.BufferSize),
		stop:       make(chan struct{}),
		dropped:    make(map[string]uint64),
	}
	for _, t := range cfg.Retain {
		d.retain[t] = struct{}{}
	}

	d.wg.Add(1)
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		case <-d.stop:
			for {
				select {
				case ev := <-d.queue:
					d.sink.Emit(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

// Emit queues ev. A full queue drops ev when DropIfFull is set and its type is
// not retained; otherwise Emit waits for room until ctx ends or the dispatcher
// closes. Events that never reach the queue are counted by type.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case d.queue <- ev:
		return
	default:
	}

	if _, keep := d.retain[ev.EventType]; d.dropIfFull && !keep {
		d.drop(ev.EventType)
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.drop(ev.EventType)
	case <-d.stop:
		d.drop(ev.EventType)
	}
}

func (d *Dispatcher) drop(eventType string) {
	d.total.Add(1)
	d.dropMu.Lock()
	d.dropped[eventType]++
	d.dropMu.Unlock()
}

// Close stops accepting events and returns once everything already queued
// has reached the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.wg.Wait()
	})
}

// Dropped reports how many events never reached the queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.total.Load()
}

// DroppedByType breaks Dropped down by event type.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	if d == nil {
		return map[string]uint64{}
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	return maps.Clone(d.dropped)
}
