package wsmux

import "sync"

// Signal is a one-shot wake-up token. Any number of producers may call
// Resolve; the first call closes the Done channel and every later call is a
// no-op. A resolved Signal is never reset, callers replace it with a new one.
type Signal struct {
	once sync.Once
	done chan struct{}
}

// NewSignal creates a pending Signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Resolve wakes whoever is waiting on Done. Safe to call concurrently and
// more than once.
func (s *Signal) Resolve() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Done returns a channel that is closed once the signal has been resolved.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Resolved reports whether Resolve has been called, without blocking.
func (s *Signal) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
