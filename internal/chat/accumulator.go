package chat

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"chatstream/internal/sse"
)

var (
	errMalformedPayload = errors.New("payload is not valid JSON")
	errUnexpectedShape  = errors.New("payload is not a chat completion chunk")
)

// Step is what one SSE event contributed to a stream.
type Step struct {
	// Fragments are the content fragments in arrival order.
	Fragments []string
	// Skipped counts payloads that could not be read as a delta.
	Skipped int
	// Done is set when the event carried the [DONE] sentinel.
	Done bool
}

// Accumulator folds SSE events into the assistant text. It performs no I/O:
// Apply reports the fragments it appended and the caller decides where to
// forward them.
type Accumulator struct {
	text      strings.Builder
	fragments int
	skipped   int
	done      bool
}

// Apply folds one event. Processing stops at a [DONE] payload; lines after
// it are ignored.
func (a *Accumulator) Apply(event string) Step {
	var step Step
	for _, line := range sse.Lines(event) {
		payload, ok := sse.Payload(line)
		if !ok {
			continue
		}
		if payload == sse.DoneSentinel {
			a.done = true
			step.Done = true
			return step
		}

		content, ok, err := parseDelta(payload)
		if err != nil {
			a.skipped++
			step.Skipped++
			continue
		}
		if ok {
			a.text.WriteString(content)
			a.fragments++
			step.Fragments = append(step.Fragments, content)
		}
	}
	return step
}

// Text returns the concatenation of every fragment applied so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Done reports whether the [DONE] sentinel was seen.
func (a *Accumulator) Done() bool {
	return a.done
}

// parseDelta reads choices[0].delta.content from a chunk. ok is false for
// well-formed chunks without content (role-only deltas, empty choices,
// null content).
func parseDelta(payload string) (content string, ok bool, err error) {
	if !gjson.Valid(payload) {
		return "", false, errMalformedPayload
	}
	root := gjson.Parse(payload)
	choices := root.Get("choices")
	if !root.IsObject() || !choices.IsArray() {
		return "", false, errUnexpectedShape
	}

	first := choices.Get("0")
	if !first.Exists() {
		return "", false, nil
	}
	delta := first.Get("delta")
	if !delta.IsObject() {
		return "", false, errUnexpectedShape
	}

	c := delta.Get("content")
	switch c.Type {
	case gjson.Null:
		return "", false, nil
	case gjson.String:
		return c.Str, true, nil
	default:
		return "", false, errUnexpectedShape
	}
}
