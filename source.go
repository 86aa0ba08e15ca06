package wsmux

import "iter"

// Source is an asynchronous sequence of values consumed by a Multiplexer.
//
// Next blocks until the next value is available and returns it with ok set
// to true. Once the sequence is exhausted Next returns ok == false, after
// which the Multiplexer never calls it again. Next must not fail: sources
// backed by fallible operations should translate failures into exhaustion
// (see Reader) before being added.
type Source[T any] interface {
	Next() (value T, ok bool)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc[T any] func() (T, bool)

// Next calls f.
func (f SourceFunc[T]) Next() (T, bool) {
	return f()
}

// FromChan returns a Source that receives from ch until it is closed.
// The channel is owned by the caller.
func FromChan[T any](ch <-chan T) Source[T] {
	return SourceFunc[T](func() (T, bool) {
		v, ok := <-ch
		return v, ok
	})
}

// FromSlice returns a Source that yields the items in order and is then
// exhausted.
func FromSlice[T any](items []T) Source[T] {
	next := 0
	return SourceFunc[T](func() (value T, ok bool) {
		if next >= len(items) {
			return
		}
		value = items[next]
		next++
		return value, true
	})
}

// FromSeq returns a Source pulling from seq. The underlying pull iterator is
// released once seq is exhausted; a source that is abandoned before that
// keeps its goroutine parked until the process exits.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	next, stop := iter.Pull(seq)
	done := false
	return SourceFunc[T](func() (value T, ok bool) {
		if done {
			return
		}
		value, ok = next()
		if !ok {
			done = true
			stop()
		}
		return
	})
}
