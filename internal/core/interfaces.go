package core

import "context"

// ProfileResolver supplies provider profiles. It is always passed in
// explicitly; nothing in this module looks profiles up globally.
type ProfileResolver interface {
	// ActiveProfile returns the currently selected profile, if any.
	ActiveProfile() (Profile, bool)

	// Lookup returns the profile registered under name.
	Lookup(name string) (Profile, bool)
}

// FragmentSink receives every content fragment of a stream as it arrives.
// A returned error is reported but never aborts the stream.
type FragmentSink interface {
	OnFragment(ctx context.Context, fragment string) error
}

// SinkFunc adapts an ordinary function to FragmentSink.
type SinkFunc func(ctx context.Context, fragment string) error

// OnFragment calls f(ctx, fragment).
func (f SinkFunc) OnFragment(ctx context.Context, fragment string) error {
	return f(ctx, fragment)
}

// DiscardSink drops every fragment.
var DiscardSink FragmentSink = SinkFunc(func(context.Context, string) error { return nil })
