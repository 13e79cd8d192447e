package chat

import (
	"context"
	"errors"
	"io"
)

// ErrSinkFull is returned by ChannelSink when the consumer is not keeping up.
var ErrSinkFull = errors.New("fragment channel is full")

// ChannelSink delivers fragments into a buffered channel without ever
// blocking the stream: when the buffer is full the fragment is dropped and
// ErrSinkFull returned. The accumulated text is unaffected by drops.
type ChannelSink struct {
	ch chan string
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan string, size)}
}

// Fragments returns the receive side of the channel.
func (s *ChannelSink) Fragments() <-chan string {
	return s.ch
}

// OnFragment implements core.FragmentSink.
func (s *ChannelSink) OnFragment(_ context.Context, fragment string) error {
	select {
	case s.ch <- fragment:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close closes the channel. Call it after the stream has returned.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// WriterSink writes each fragment to an io.Writer as it arrives.
type WriterSink struct {
	W io.Writer
}

// OnFragment implements core.FragmentSink.
func (s WriterSink) OnFragment(_ context.Context, fragment string) error {
	_, err := io.WriteString(s.W, fragment)
	return err
}
