package streaming

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"
)

// SSEWriter encodes events as server-sent events on a buffered writer,
// flushing after each event so clients see progress immediately.
//
// The writer closes itself after a complete event or a fatal error; further
// sends return ErrStreamClosed. A write failure (client disconnect) also
// closes the stream instead of propagating a panic into the generation loop.
type SSEWriter struct {
	mu     sync.Mutex
	writer *bufio.Writer
	closed bool
}

// NewSSEWriter wraps a buffered writer as a sink.
func NewSSEWriter(writer *bufio.Writer) *SSEWriter {
	return &SSEWriter{writer: writer}
}

func (w *SSEWriter) Send(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStreamClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", event.GetType(), payload); err != nil {
		w.closed = true

		return ErrStreamClosed
	}

	if err := w.writer.Flush(); err != nil {
		w.closed = true

		return ErrStreamClosed
	}

	if isTerminal(event) {
		w.closed = true
	}

	return nil
}

// Closed reports whether the stream has terminated.
func (w *SSEWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.closed
}
