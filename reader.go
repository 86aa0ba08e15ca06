package wsmux

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ReaderFunc is the type of the read method used by the Reader goroutine.
type ReaderFunc[R any] func() (msg R, err error)

// Reader turns a fallible read function into a Source. It calls Read in its
// own goroutine and forwards every successful result over a channel that
// Next receives from.
//
// Timeouts reported as a net.Error are skipped and the read is retried. Any
// other error ends the Reader: the output channel is closed (so Next reports
// exhaustion) and the error is delivered on ClosedChan.
type Reader[R any] struct {
	Read   ReaderFunc[R]
	OnDone func(r *Reader[R])

	log         zerolog.Logger
	msgChannel  chan R
	closedChan  chan error
	stopReading chan struct{}
	stopOnce    sync.Once
	running     atomic.Bool
	err         error
}

// ReaderOption is a functional option for configuring a Reader
type ReaderOption[R any] func(*Reader[R])

// WithOutputBuffer sets the buffer size for the output channel
func WithOutputBuffer[R any](size int) ReaderOption[R] {
	return func(r *Reader[R]) {
		r.msgChannel = make(chan R, size)
	}
}

// WithOnDone sets the callback to be called when the reader finishes
func WithOnDone[R any](fn func(*Reader[R])) ReaderOption[R] {
	return func(r *Reader[R]) {
		r.OnDone = fn
	}
}

// WithReaderLogger sets the logger read errors are reported to. Defaults to
// the global zerolog logger.
func WithReaderLogger[R any](l zerolog.Logger) ReaderOption[R] {
	return func(r *Reader[R]) {
		r.log = l
	}
}

// NewReader creates a new reader instance with functional options and starts
// reading right away.
//
// Examples:
//
//	// Simple usage
//	reader := NewReader(myReaderFunc)
//
//	// With options
//	reader := NewReader(myReaderFunc,
//	    WithOutputBuffer[int](100),
//	    WithOnDone(func(r *Reader[int]) { log.Info().Msg("done") }))
func NewReader[R any](read ReaderFunc[R], opts ...ReaderOption[R]) *Reader[R] {
	out := &Reader[R]{
		Read:        read,
		log:         log.Logger,
		closedChan:  make(chan error, 1),
		msgChannel:  make(chan R), // default unbuffered
		stopReading: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(out)
	}

	out.start()
	return out
}

// Next receives the next value read. It reports false once the reader has
// finished and every buffered value has been received.
func (r *Reader[R]) Next() (R, bool) {
	v, ok := <-r.msgChannel
	return v, ok
}

// OutputChan returns the channel on which read values can be received.
func (r *Reader[R]) OutputChan() <-chan R {
	return r.msgChannel
}

// ClosedChan delivers the error that ended the reader (nil when it was
// stopped or the connection was closed) and is then closed.
func (r *Reader[R]) ClosedChan() <-chan error {
	return r.closedChan
}

// Err returns the error that ended the reader. Only meaningful after
// ClosedChan has been closed.
func (r *Reader[R]) Err() error {
	return r.err
}

// IsRunning returns true until the read goroutine has exited.
func (r *Reader[R]) IsRunning() bool {
	return r.running.Load()
}

// Stop asks the reader to finish. A Read call in progress is not interrupted;
// the reader exits once it returns. Stop always returns nil.
func (r *Reader[R]) Stop() error {
	r.stopOnce.Do(func() {
		close(r.stopReading)
	})
	return nil
}

func (r *Reader[R]) start() {
	r.running.Store(true)
	go func() {
		defer r.cleanup()
		for {
			select {
			case <-r.stopReading:
				return
			default:
			}

			msg, err := r.Read()
			if err != nil {
				var nerr net.Error
				if errors.As(err, &nerr) && nerr.Timeout() {
					continue
				}
				if !errors.Is(err, net.ErrClosed) {
					r.log.Debug().Err(err).Msg("Read error")
					r.err = err
				}
				return
			}

			select {
			case <-r.stopReading:
				return
			case r.msgChannel <- msg:
			}
		}
	}()
}

func (r *Reader[R]) cleanup() {
	r.running.Store(false)
	if r.OnDone != nil {
		r.OnDone(r)
	}
	close(r.msgChannel)
	r.closedChan <- r.err
	close(r.closedChan)
}
