// Package wsmux merges many asynchronous value sources into one stream.
//
// The central type is Multiplexer, an open-ended fan-in: sources can be
// added at any time, each one is read a single value at a time, and the
// values are delivered to one consumer in the order they became available.
// The merged stream runs until Stop is requested.
//
// The main components include:
//
//   - Signal: a one-shot wake-up token resolved by many producers and awaited by one consumer
//   - Source: the pull contract consumed by a Multiplexer, with FromChan, FromSlice and FromSeq adapters
//   - Reader: a goroutine that turns a fallible read function into a Source
//   - Mapper: transform and/or filter the values of a Source
//   - Multiplexer: merge a growing set of Sources into a single iter.Seq
//   - Block: stop a group of Components together
//
// Sources are expected never to fail. Fallible producers (network reads,
// decoders) should be wrapped in a Reader, which ends the source on the
// first non-timeout error instead of surfacing it to the consumer.
//
// The server subpackage uses a Multiplexer to expose the events of every
// websocket connection as a single sequence.
package wsmux
