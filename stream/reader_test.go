package stream_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/careercompass/compass-client/stream"
)

// chunkedReader yields its payload in fixed-size chunks to exercise line
// reassembly across read boundaries.
type chunkedReader struct {
	data      []byte
	chunkSize int
	offset    int
}

func (cr *chunkedReader) Read(p []byte) (int, error) {
	if cr.offset >= len(cr.data) {
		return 0, io.EOF
	}
	end := cr.offset + cr.chunkSize
	if end > len(cr.data) {
		end = len(cr.data)
	}
	n := copy(p, cr.data[cr.offset:end])
	cr.offset += n
	return n, nil
}

func TestReaderDecodesEventsAcrossChunkBoundaries(t *testing.T) {
	payload := `{"type":"parse-started"}` + "\n" +
		`{"type":"chunk-embedded","data":{"index":1}}` + "\n" +
		`{"type":"done"}` + "\n"

	// Chunk sizes chosen so lines split mid-JSON.
	for _, chunkSize := range []int{1, 3, 7, 1024} {
		var got []stream.ProgressEvent
		reader := stream.NewReader(zerolog.Nop())
		err := reader.Consume(context.Background(), &chunkedReader{data: []byte(payload), chunkSize: chunkSize}, func(event stream.ProgressEvent) {
			got = append(got, event)
		})
		require.NoError(t, err)
		require.Len(t, got, 3, "chunk size %d", chunkSize)
		require.Equal(t, "parse-started", got[0].Type)
		require.Equal(t, "chunk-embedded", got[1].Type)
		require.JSONEq(t, `{"index":1}`, string(got[1].Data))
		require.Equal(t, "done", got[2].Type)
	}
}

func TestReaderSkipsMalformedLines(t *testing.T) {
	payload := `{"type":"parse-started"}` + "\n" +
		"{not json at all\n" +
		`{"type":"done"}` + "\n"

	var logBuf bytes.Buffer
	logger := zerolog.New(&logBuf)

	var got []stream.ProgressEvent
	reader := stream.NewReader(logger)
	err := reader.Consume(context.Background(), bytes.NewReader([]byte(payload)), func(event stream.ProgressEvent) {
		got = append(got, event)
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	require.Equal(t, "parse-started", got[0].Type)
	require.Equal(t, "done", got[1].Type)

	logged := logBuf.String()
	require.Contains(t, logged, "skipping malformed stream line")
	require.Equal(t, 1, bytes.Count(logBuf.Bytes(), []byte("warn")))
}

func TestReaderDeliversFinalLineWithoutNewline(t *testing.T) {
	payload := `{"type":"parse-started"}` + "\n" + `{"type":"done"}`

	var got []stream.ProgressEvent
	reader := stream.NewReader(zerolog.Nop())
	err := reader.Consume(context.Background(), bytes.NewReader([]byte(payload)), func(event stream.ProgressEvent) {
		got = append(got, event)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "done", got[1].Type)
}

func TestReaderStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := stream.NewReader(zerolog.Nop())
	err := reader.Consume(ctx, bytes.NewReader([]byte("{}\n")), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
