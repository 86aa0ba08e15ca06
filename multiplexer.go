package wsmux

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type pendingEntry[T any] struct {
	source Source[T]
	value  T
}

// Multiplexer merges a growing set of Sources into a single sequence.
//
// Each added source is read by a pump goroutine that fetches exactly one
// value, appends it to a shared buffer and resolves the current Signal. The
// consumer side (Iterate) waits for the signal, hands out every buffered
// value in arrival order and re-pumps the source of each value it handed
// out. Values therefore come out in the order their Next calls completed,
// not the order sources were added.
//
// The Multiplexer runs until Stop is called, and then only finishes at the
// start of the next drain cycle:
//
//	WAITING  -> DRAINING   [signal resolved]
//	DRAINING -> WAITING    [buffer exhausted; buffer cleared, signal replaced]
//	WAITING  -> STOPPED    [Stop observed before waiting on the signal]
//
// Stop does not wake a consumer that is already waiting on the signal. If
// every live source is blocked, Iterate stays blocked after Stop until one of
// them produces. Use IterateContext to bound that wait.
type Multiplexer[T any] struct {
	// OnSourceDone is called when a source reports exhaustion (or panics) so
	// the caller can release whatever is tied to it.
	OnSourceDone func(m *Multiplexer[T], src Source[T])

	log zerolog.Logger

	mu      sync.Mutex
	pending []pendingEntry[T]
	signal  *Signal

	stop     atomic.Bool
	draining atomic.Bool
	live     atomic.Int64
	cycles   atomic.Uint64
}

// MultiplexerOption is a functional option for configuring a Multiplexer
type MultiplexerOption[T any] func(*Multiplexer[T])

// WithOnSourceDone sets the callback invoked when a source is dropped.
func WithOnSourceDone[T any](fn func(*Multiplexer[T], Source[T])) MultiplexerOption[T] {
	return func(m *Multiplexer[T]) {
		m.OnSourceDone = fn
	}
}

// WithLogger sets the logger for dropped sources and stops. Defaults to the
// global zerolog logger.
func WithLogger[T any](l zerolog.Logger) MultiplexerOption[T] {
	return func(m *Multiplexer[T]) {
		m.log = l
	}
}

// NewMultiplexer creates an empty Multiplexer. Nothing runs until a source is
// added.
func NewMultiplexer[T any](opts ...MultiplexerOption[T]) *Multiplexer[T] {
	out := &Multiplexer[T]{
		signal: NewSignal(),
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Add registers one or more sources and immediately starts reading from each.
// Sources may be added at any time, including after Stop, in which case
// whatever they produce is buffered but never delivered.
// Panics if any source is nil.
func (m *Multiplexer[T]) Add(sources ...Source[T]) {
	for _, src := range sources {
		if src == nil {
			panic("wsmux: cannot add a nil source")
		}
		m.live.Add(1)
		m.pump(src)
	}
}

// Stop requests termination. It takes effect the next time the drain loop
// returns to its top, so values of the cycle in progress are still
// delivered. Stop always returns nil.
func (m *Multiplexer[T]) Stop() error {
	m.stop.Store(true)
	return nil
}

// Stopped reports whether Stop has been called.
func (m *Multiplexer[T]) Stopped() bool {
	return m.stop.Load()
}

// IsRunning returns true while a consumer is iterating.
func (m *Multiplexer[T]) IsRunning() bool {
	return m.draining.Load()
}

// Count returns the number of sources that have been added and not yet
// observed to be exhausted.
func (m *Multiplexer[T]) Count() int {
	return int(m.live.Load())
}

// Pending returns the number of values buffered and not yet handed out.
func (m *Multiplexer[T]) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Cycles returns the number of completed drain cycles.
func (m *Multiplexer[T]) Cycles() uint64 {
	return m.cycles.Load()
}

// All returns the merged sequence. It is the same as Iterate.
func (m *Multiplexer[T]) All() iter.Seq[T] {
	return m.Iterate()
}

// Iterate returns the merged sequence of values from all sources. The
// sequence is single use and single consumer: ranging over it from two
// goroutines at once panics. It ends only when Stop has been observed.
func (m *Multiplexer[T]) Iterate() iter.Seq[T] {
	return m.IterateContext(context.Background())
}

// IterateContext is like Iterate but also ends when ctx is done, including
// while it is waiting for a source to produce.
func (m *Multiplexer[T]) IterateContext(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		if !m.draining.CompareAndSwap(false, true) {
			panic("wsmux: Multiplexer is already being iterated")
		}
		defer m.draining.Store(false)
		m.drain(ctx, yield)
	}
}

func (m *Multiplexer[T]) drain(ctx context.Context, yield func(T) bool) {
	for !m.stop.Load() {
		m.mu.Lock()
		signal := m.signal
		m.mu.Unlock()

		select {
		case <-signal.Done():
		case <-ctx.Done():
			return
		}

		// Entries appended while we are handing out values belong to this
		// cycle, so the bound is re-read on every step.
		for i := 0; ; i++ {
			m.mu.Lock()
			if i >= len(m.pending) {
				clear(m.pending)
				m.pending = m.pending[:0]
				m.signal = NewSignal()
				m.mu.Unlock()
				break
			}
			entry := m.pending[i]
			m.mu.Unlock()

			if !yield(entry.value) {
				m.mu.Lock()
				rest := make([]pendingEntry[T], len(m.pending)-i-1)
				copy(rest, m.pending[i+1:])
				m.pending = rest
				m.mu.Unlock()
				m.pump(entry.source)
				return
			}
			m.pump(entry.source)
		}
		m.cycles.Add(1)
	}
	m.log.Debug().Int("pending", m.Pending()).Int("sources", m.Count()).Msg("Multiplexer stopped")
}

// pump reads a single value from src and reports it back. The signal is
// resolved even when the source is exhausted.
func (m *Multiplexer[T]) pump(src Source[T]) {
	go func() {
		value, ok := m.next(src)

		m.mu.Lock()
		if ok {
			m.pending = append(m.pending, pendingEntry[T]{source: src, value: value})
		}
		signal := m.signal
		m.mu.Unlock()

		if !ok {
			m.sourceDone(src)
		}
		signal.Resolve()
	}()
}

func (m *Multiplexer[T]) next(src Source[T]) (value T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn().Interface("panic", r).Msg("Source panicked, dropping it")
			var zero T
			value, ok = zero, false
		}
	}()
	return src.Next()
}

func (m *Multiplexer[T]) sourceDone(src Source[T]) {
	m.live.Add(-1)
	if m.OnSourceDone != nil {
		m.OnSourceDone(m, src)
	}
}
