package bus

import (
	"assetverse/internal/schema"
)

// Emitter is anything that accepts events.
type Emitter interface {
	Emit(schema.Event) error
}

// Fanout emits every event to each of its sinks in order. Every sink is
// tried; the first error is returned.
type Fanout []Emitter

// Emit implements Emitter.
func (f Fanout) Emit(e schema.Event) error {
	var first error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Emit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
