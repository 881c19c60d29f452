package checker

import (
	"errors"
	"sync"

	"github.com/jonathan/preflight/internal/types"
)

// ResultSink receives the events of a run. Emit is never called
// concurrently for one run.
type ResultSink interface {
	Emit(event types.Event) error
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(event types.Event) error

func (f SinkFunc) Emit(event types.Event) error { return f(event) }

// Discard drops every event.
var Discard ResultSink = SinkFunc(func(types.Event) error { return nil })

// MultiSink forwards every event to each sink and joins their errors.
func MultiSink(sinks ...ResultSink) ResultSink {
	return SinkFunc(func(event types.Event) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Emit(event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *Recorder) Emit(event types.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Event(nil), r.events...)
}

// Kinds returns the kind of each recorded event in order.
func (r *Recorder) Kinds() []types.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]types.EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}
