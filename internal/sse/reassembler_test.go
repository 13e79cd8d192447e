package sse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n" +
	"data: [DONE]\n\n"

var sampleEvents = []string{
	"data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}",
	"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}",
	"data: [DONE]",
}

// feedChunks feeds stream split at the given offsets and collects every
// event drained after each chunk.
func feedChunks(stream string, cuts ...int) ([]string, *Reassembler) {
	r := &Reassembler{}
	var events []string
	prev := 0
	for _, cut := range append(cuts, len(stream)) {
		r.Feed([]byte(stream[prev:cut]))
		events = append(events, r.Drain()...)
		prev = cut
	}
	return events, r
}

func TestReassembler_SingleChunk(t *testing.T) {
	events, r := feedChunks(sampleStream)

	assert.Equal(t, sampleEvents, events)
	assert.Equal(t, 0, r.Pending())
}

func TestReassembler_EveryTwoWaySplit(t *testing.T) {
	for i := 0; i <= len(sampleStream); i++ {
		events, r := feedChunks(sampleStream, i)
		require.Equal(t, sampleEvents, events, "split at %d", i)
		require.Equal(t, 0, r.Pending(), "split at %d", i)
	}
}

func TestReassembler_EveryThreeWaySplit(t *testing.T) {
	for i := 0; i <= len(sampleStream); i++ {
		for j := i; j <= len(sampleStream); j++ {
			events, _ := feedChunks(sampleStream, i, j)
			require.Equal(t, sampleEvents, events, "split at %d,%d", i, j)
		}
	}
}

func TestReassembler_ByteAtATime(t *testing.T) {
	r := &Reassembler{}
	var events []string
	for i := 0; i < len(sampleStream); i++ {
		r.Feed([]byte{sampleStream[i]})
		events = append(events, r.Drain()...)
	}
	assert.Equal(t, sampleEvents, events)
}

func TestReassembler_PartialEventStaysBuffered(t *testing.T) {
	r := &Reassembler{}
	r.Feed([]byte("data: one\n\ndata: tw"))

	assert.Equal(t, []string{"data: one"}, r.Drain())
	assert.Equal(t, len("data: tw"), r.Pending())

	r.Feed([]byte("o\n"))
	assert.Empty(t, r.Drain())

	r.Feed([]byte("\n"))
	assert.Equal(t, []string{"data: two"}, r.Drain())
	assert.Equal(t, 0, r.Pending())
}

func TestReassembler_NoDelimiterLeftAfterDrain(t *testing.T) {
	r := &Reassembler{}
	r.Feed([]byte("a\n\nb\n\nc\n\n\n\nd"))
	r.Drain()

	rest := string(r.buf[r.start:])
	assert.NotContains(t, rest, "\n\n")
	assert.Equal(t, "d", rest)
}

func TestReassembler_SplitMultibyteRune(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"Привет\"}}]}\n\n"
	// Cut inside the two-byte encoding of 'П'.
	cut := strings.Index(stream, "П") + 1

	events, _ := feedChunks(stream, cut)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], "Привет")
	assert.NotContains(t, events[0], "�")
}

func TestReassembler_InvalidBytesAreReplaced(t *testing.T) {
	r := &Reassembler{}
	r.Feed([]byte("data: a\xffb\n\n"))

	events := r.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, "data: a�b", events[0])
}

func TestReassembler_CompactsConsumedPrefix(t *testing.T) {
	r := &Reassembler{}
	for i := 0; i < 1000; i++ {
		r.Feed([]byte("data: x\n\ndata: y"))
		r.Drain()
		r.Feed([]byte("\n\n"))
		require.Equal(t, []string{"data: y"}, r.Drain())
	}
	assert.Equal(t, 0, r.Pending())
	assert.Less(t, cap(r.buf), 1024)
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"event: x", "data: y"}, Lines("event: x\r\ndata: y"))
	assert.Equal(t, []string{"data: y"}, Lines("data: y"))
}

func TestPayload(t *testing.T) {
	tests := []struct {
		line    string
		payload string
		ok      bool
	}{
		{"data: [DONE]", "[DONE]", true},
		{"data: {}", "{}", true},
		{"data:{}", "", false},
		{": keep-alive", "", false},
		{"event: message", "", false},
	}
	for _, tt := range tests {
		payload, ok := Payload(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.payload, payload, tt.line)
	}
}
