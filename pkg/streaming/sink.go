// Package streaming delivers progress events to clients. The Sink interface
// keeps generation loops transport-agnostic; SSEWriter is the HTTP transport.
package streaming

import (
	"errors"
	"sync"

	"github.com/flarelab/storylab/pkg/events"
)

// ErrStreamClosed is returned by sends after the stream reached a terminal
// event or the client went away.
var ErrStreamClosed = errors.New("stream closed")

// Event is anything with a progress event type.
type Event interface {
	GetType() events.EventType
}

// Sink receives progress events in emission order. Send returns
// ErrStreamClosed once the stream has terminated; senders stop on that.
type Sink interface {
	Send(event Event) error
}

// Collector is an in-memory sink recording events for assertions.
type Collector struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

// NewCollector creates an empty collector sink.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrStreamClosed
	}

	c.events = append(c.events, event)

	if isTerminal(event) {
		c.closed = true
	}

	return nil
}

// Events returns the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Event, len(c.events))
	copy(out, c.events)

	return out
}

// Types returns the recorded event types in order.
func (c *Collector) Types() []events.EventType {
	recorded := c.Events()

	types := make([]events.EventType, len(recorded))
	for i, event := range recorded {
		types[i] = event.GetType()
	}

	return types
}

func isTerminal(event Event) bool {
	switch e := event.(type) {
	case events.Complete:
		return true
	case *events.Complete:
		return true
	case events.Error:
		return e.Fatal
	case *events.Error:
		return e.Fatal
	}

	return false
}
