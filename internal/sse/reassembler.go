// Package sse reassembles Server-Sent-Events from a body that arrives in
// arbitrarily sized network chunks.
package sse

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// DataPrefix is the literal prefix of a payload line.
const DataPrefix = "data: "

// DoneSentinel is the payload that terminates an OpenAI-compatible stream.
const DoneSentinel = "[DONE]"

var delimiter = []byte("\n\n")

// Reassembler buffers raw bytes until they form complete events.
// Events are delimited by a blank line ("\n\n").
//
// The buffer is read through an offset and only compacted when the
// consumed prefix dominates it, and the delimiter search resumes where the
// previous unsuccessful search stopped. Each byte is therefore scanned a
// bounded number of times regardless of how the network splits the body.
//
// A Reassembler is owned by a single stream and is not safe for concurrent use.
type Reassembler struct {
	buf     []byte
	start   int // first unconsumed byte
	scanned int // bytes after start known not to begin a delimiter
}

// Feed appends a network chunk to the pending buffer.
func (r *Reassembler) Feed(chunk []byte) {
	if r.start > 0 && r.start >= len(r.buf)/2 {
		n := copy(r.buf, r.buf[r.start:])
		r.buf = r.buf[:n]
		r.start = 0
	}
	r.buf = append(r.buf, chunk...)
}

// Next returns the next complete event, without its delimiter, decoded
// as UTF-8 with invalid sequences replaced by U+FFFD. It returns false
// when no complete event is buffered.
func (r *Reassembler) Next() (string, bool) {
	pending := r.buf[r.start:]
	idx := bytes.Index(pending[r.scanned:], delimiter)
	if idx < 0 {
		// The last byte may be the first half of a delimiter.
		if len(pending) > 0 {
			r.scanned = len(pending) - 1
		}
		return "", false
	}

	end := r.scanned + idx
	event := decode(pending[:end])
	r.start += end + len(delimiter)
	r.scanned = 0
	if r.start == len(r.buf) {
		r.buf = r.buf[:0]
		r.start = 0
	}
	return event, true
}

// Drain returns every complete event currently buffered, in order. After
// it returns, the buffer holds no delimiter.
func (r *Reassembler) Drain() []string {
	var events []string
	for {
		event, ok := r.Next()
		if !ok {
			return events
		}
		events = append(events, event)
	}
}

// Pending reports the number of buffered bytes that do not yet form a complete event.
func (r *Reassembler) Pending() int {
	return len(r.buf) - r.start
}

// Lines splits an event into lines, dropping one trailing '\r' per line.
func Lines(event string) []string {
	lines := strings.Split(event, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Payload returns the text following the "data: " prefix of line.
func Payload(line string) (string, bool) {
	return strings.CutPrefix(line, DataPrefix)
}

func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
