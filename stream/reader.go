package stream

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// readBufferSize is deliberately small; progress events are short lines and
// a small buffer exercises chunk reassembly under real network conditions.
const readBufferSize = 4 * 1024

// ProgressEvent is one step of server-side resume processing, e.g.
// parse-started, chunk-embedded, done. Events are transient: forwarded to
// the callback and never stored.
type ProgressEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ProgressFunc receives each decoded event in stream order.
type ProgressFunc func(event ProgressEvent)

// Reader consumes an NDJSON byte stream and forwards decoded events.
// Malformed lines are logged and skipped; they never abort the stream.
type Reader struct {
	framer LineFramer
	log    zerolog.Logger
}

// NewReader builds a Reader that logs skipped lines to the given logger.
func NewReader(log zerolog.Logger) *Reader {
	return &Reader{log: log}
}

// Consume reads body to EOF, decoding one event per line and invoking
// onEvent for each. The body is single-consumer; Consume drives it to
// completion or to the first read error. Cancelling ctx stops consumption
// between reads.
func (r *Reader) Consume(ctx context.Context, body io.Reader, onEvent ProgressFunc) error {
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "[Reader.Consume] cancelled")
		}
		n, err := body.Read(buf)
		if n > 0 {
			for _, line := range r.framer.Append(buf[:n]) {
				r.emit(line, onEvent)
			}
		}
		if err == io.EOF {
			if last := r.framer.Flush(); last != nil {
				r.emit(last, onEvent)
			}
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "[Reader.Consume] read stream")
		}
	}
}

func (r *Reader) emit(line []byte, onEvent ProgressFunc) {
	if len(line) == 0 {
		return
	}
	var event ProgressEvent
	if err := json.Unmarshal(line, &event); err != nil {
		r.log.Warn().Err(err).Str("line", string(line)).Msg("skipping malformed stream line")
		return
	}
	if onEvent != nil {
		onEvent(event)
	}
}
