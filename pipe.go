package wsmux

func idMapperFunc[T any](input T) (output T, skip bool, stop bool) {
	output = input
	return
}

// Mapper is a Source that transforms and/or filters the values of another
// Source.
type Mapper[I any, O any] struct {
	input Source[I]

	// MapFunc is applied to each value of the input source and returns a
	// tuple of 3 things - outval, skip, stop.
	// If skip is false, outval is returned from Next.
	// If stop is true, the mapper reports exhaustion on the following call
	// and the input is not read again.
	MapFunc func(I) (O, bool, bool)

	stopped bool
}

// NewMapper creates a new mapper over an input source. The input is owned by
// the caller; the mapper only reads from it.
// The mapper function returns (output, skip, stop) where:
// - output: the transformed value
// - skip: if true, the output is dropped and the next input is read
// - stop: if true, the mapper stops processing further elements
func NewMapper[I any, O any](input Source[I], mapper func(I) (O, bool, bool)) *Mapper[I, O] {
	return &Mapper[I, O]{
		input:   input,
		MapFunc: mapper,
	}
}

// Next reads from the input until a value is not skipped, the mapper is
// told to stop, or the input is exhausted.
func (m *Mapper[I, O]) Next() (out O, ok bool) {
	for !m.stopped {
		value, more := m.input.Next()
		if !more {
			m.stopped = true
			break
		}
		outval, skip, stop := m.MapFunc(value)
		if stop {
			m.stopped = true
		}
		if !skip {
			return outval, true
		}
	}
	return
}

// NewPipe creates a mapper with the identity function, so it simply
// forwards all values of the input source.
func NewPipe[T any](input Source[T]) *Mapper[T, T] {
	return NewMapper(input, idMapperFunc[T])
}
