// Package stream handles newline-delimited JSON progress streams emitted by
// the resume processing endpoint. The framer is transport-independent: bytes
// go in at whatever chunk boundaries the network produced, complete lines
// come out.
package stream

import "bytes"

// LineFramer reassembles complete lines from arbitrarily chunked input,
// retaining any trailing partial line between appends. Not safe for
// concurrent use; a framer belongs to a single stream.
type LineFramer struct {
	remainder []byte
}

// Append adds a chunk and returns every line completed by it, without the
// trailing newline. The final partial line, if any, is held back until the
// next Append or Flush.
func (f *LineFramer) Append(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}
	data := append(f.remainder, chunk...)

	var lines [][]byte
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(data[:idx], []byte("\r"))
		lines = append(lines, line)
		data = data[idx+1:]
	}
	// Copy the tail so returned lines never alias the retained buffer.
	f.remainder = append([]byte(nil), data...)
	return lines
}

// Flush returns the retained partial line, if any, and resets the framer.
// Call once at end of stream: a server that omits the final newline still
// gets its last event delivered.
func (f *LineFramer) Flush() []byte {
	line := f.remainder
	f.remainder = nil
	if len(line) == 0 {
		return nil
	}
	return bytes.TrimSuffix(line, []byte("\r"))
}
