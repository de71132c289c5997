package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// State identifies the relay's position in its lifecycle.
type State int

const (
	// StateStreaming is the initial state: chunks are read and events emitted.
	StateStreaming State = iota

	// StateDone is terminal: the end marker has been emitted (or the
	// request was cancelled) and all further input is ignored.
	StateDone

	// StateErrored is terminal: the stream failed and an error event was
	// emitted in-band. No end marker follows an error.
	StateErrored
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// DeltaFunc extracts the incremental text content from one SSE data
// payload. It reports false when the payload is malformed JSON or carries
// no text delta; the relay drops such payloads silently.
type DeltaFunc func(payload []byte) (string, bool)

// EventSink receives the relay's normalized output events.
// Done is called at most once per stream, and never after Error.
type EventSink interface {
	// Delta emits one incremental content event.
	Delta(content string) error

	// Done emits the terminal end-of-stream marker.
	Done() error

	// Error emits an in-band stream error event.
	Error(message string) error
}

// doneMarker is the literal payload providers send to terminate a stream.
const doneMarker = "[DONE]"

// dataPrefix introduces an SSE data line; all other lines are ignored.
const dataPrefix = "data: "

// Relay drives one streaming response: it reads raw chunks from the
// upstream body, accumulates partial lines, and emits normalized events to
// the sink. The pending buffer holds at most the one incomplete trailing
// line of the last chunk.
type Relay struct {
	src     io.ReadCloser
	extract DeltaFunc
	sink    EventSink
	pending string
	state   State
	deltas  int
}

// New creates a relay over an upstream SSE body.
func New(src io.ReadCloser, extract DeltaFunc, sink EventSink) *Relay {
	return &Relay{
		src:     src,
		extract: extract,
		sink:    sink,
		state:   StateStreaming,
	}
}

// State returns the relay's current state.
func (r *Relay) State() State {
	return r.state
}

// Deltas returns the number of content events emitted so far.
func (r *Relay) Deltas() int {
	return r.deltas
}

// Run consumes the upstream body until the stream terminates. It returns
// nil when the stream ended normally (explicit end marker or natural EOF)
// and the context's error when the request was cancelled. Upstream
// transport failures are emitted in-band through the sink and returned.
//
// The upstream body is closed before Run returns.
func (r *Relay) Run(ctx context.Context) error {
	defer r.src.Close()

	buf := make([]byte, 4096)
	for r.state == StateStreaming {
		if err := ctx.Err(); err != nil {
			// Cancellation closes the upstream read and stops cleanly;
			// nothing more is written to the client.
			r.state = StateDone
			return err
		}

		n, readErr := r.src.Read(buf)
		if n > 0 {
			if err := r.feed(buf[:n]); err != nil {
				r.state = StateErrored
				return err
			}
		}

		if readErr != nil {
			return r.finish(ctx, readErr)
		}
	}

	// The end marker arrived mid-body. Any bytes still in flight upstream
	// are discarded along with the pending buffer.
	return nil
}

// finish handles the end of the upstream body.
func (r *Relay) finish(ctx context.Context, readErr error) error {
	if errors.Is(readErr, io.EOF) {
		if r.state == StateStreaming {
			// Natural closure without an explicit marker still terminates
			// the outbound stream exactly once.
			r.state = StateDone
			return r.sink.Done()
		}
		return nil
	}

	if ctx.Err() != nil {
		r.state = StateDone
		return ctx.Err()
	}

	r.state = StateErrored
	slog.WarnContext(ctx, "upstream stream failed", "error", readErr)
	if err := r.sink.Error(readErr.Error()); err != nil {
		return err
	}
	return readErr
}

// feed appends one chunk to the pending buffer and processes every
// complete line in it. The trailing element after the last newline stays
// buffered until a later chunk completes it.
func (r *Relay) feed(chunk []byte) error {
	r.pending += string(chunk)

	for r.state == StateStreaming {
		idx := strings.IndexByte(r.pending, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(r.pending[:idx], "\r")
		r.pending = r.pending[idx+1:]

		if err := r.processLine(line); err != nil {
			return err
		}
	}

	return nil
}

// processLine handles one complete SSE line.
func (r *Relay) processLine(line string) error {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		// Blank keep-alive lines, comments, and event/id fields carry no
		// content for this protocol.
		return nil
	}

	if payload == doneMarker {
		r.state = StateDone
		return r.sink.Done()
	}

	delta, ok := r.extract([]byte(payload))
	if !ok || delta == "" {
		return nil
	}

	r.deltas++
	return r.sink.Delta(delta)
}
