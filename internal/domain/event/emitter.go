package event

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes a single delivered event. Handlers run synchronously on
// the flushing goroutine; a returned error is logged but never propagated,
// because the mutation that produced the event has already committed.
type Handler func(ctx context.Context, ev Event) error

// Bus routes flushed events to handlers registered per kind.
// Registration normally happens once during wiring; Subscribe is still safe
// to call concurrently with Buffer flushes.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logger   *slog.Logger
}

// NewBus creates an event bus with no registered handlers.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Buffer returns an empty event buffer bound to this bus. One buffer belongs
// to one unit of work and is not safe for concurrent use.
func (b *Bus) Buffer() *Buffer {
	return &Buffer{bus: b}
}

// dispatch delivers one event to every handler of its kind.
func (b *Bus) dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Kind()]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.logger.Warn("event handler failed",
				slog.String("kind", string(ev.Kind())),
				slog.Any("error", err))
		}
	}
}

// Buffer accumulates events raised during a mutation. Events are held until
// Flush is called once the surrounding transaction is known to have
// committed; Discard drops them when the transaction aborts.
type Buffer struct {
	bus     *Bus
	pending []Event
}

// Raise appends an event to the pending list without delivering it.
func (buf *Buffer) Raise(ev Event) {
	buf.pending = append(buf.pending, ev)
}

// Flush delivers all pending events in raise order and empties the buffer.
// Consumers may assume entities referenced by delivered events are durably
// visible to subsequent reads.
func (buf *Buffer) Flush(ctx context.Context) {
	pending := buf.pending
	buf.pending = nil
	for _, ev := range pending {
		buf.bus.dispatch(ctx, ev)
	}
}

// Discard drops all pending events without delivering them.
func (buf *Buffer) Discard() {
	buf.pending = nil
}

// Len returns the number of buffered events.
func (buf *Buffer) Len() int {
	return len(buf.pending)
}
