// Package codeblock extracts BSL code from fenced Markdown regions.
package codeblock

import "strings"

const fence = "```"

// tags are the language markers recognised on an opening fence. Both name
// the same language; each gets its own pass over the text.
var tags = []string{"bsl", "1c"}

// Tags returns the recognised fence tags in scan order.
func Tags() []string {
	return append([]string(nil), tags...)
}

// Extract returns the trimmed contents of every fenced region opened by
// "```bsl" or "```1c" and closed by the next "```". Regions of the first tag
// come first, each tag in order of occurrence. An opening fence without a
// closing one ends the pass for that tag.
func Extract(text string) []string {
	var blocks []string
	for _, tag := range tags {
		blocks = appendTagged(blocks, text, fence+tag)
	}
	return blocks
}

func appendTagged(blocks []string, text, opener string) []string {
	pos := 0
	for {
		start := strings.Index(text[pos:], opener)
		if start < 0 {
			return blocks
		}
		body := pos + start + len(opener)

		end := strings.Index(text[body:], fence)
		if end < 0 {
			return blocks
		}

		blocks = append(blocks, strings.TrimSpace(text[body:body+end]))
		pos = body + end + len(fence)
	}
}
