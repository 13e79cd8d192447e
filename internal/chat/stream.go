package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"chatstream/internal/core"
	"chatstream/internal/metrics"
	"chatstream/internal/sse"
)

// Completion is the outcome of one streaming call.
type Completion struct {
	// Text is the accumulated assistant text. On a stream error it holds
	// whatever arrived before the failure.
	Text string
	// Fragments is the number of content fragments received.
	Fragments int
	// Skipped is the number of payloads that could not be parsed.
	Skipped int
	// Done is true when the provider sent [DONE]; false on a plain close.
	Done bool
}

// StreamChatCompletion sends messages to the chat completions endpoint of
// profile and streams the answer. Each content fragment is appended to the
// result and then handed to sink; sink failures are logged and counted but
// never abort the stream. The call ends on [DONE] or when the provider
// closes the body, both successes.
//
// On a read error the returned error is a stream_error and the returned
// Completion still carries the partial text. Other errors return a nil
// Completion.
func (c *Client) StreamChatCompletion(ctx context.Context, messages []core.Message, profile core.Profile, sink core.FragmentSink) (*Completion, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = core.DiscardSink
	}
	provider := string(profile.Provider)
	logger := core.LoggerFor(ctx, c.logger).With("provider", provider, "model", profile.Model)

	req, err := BuildChatRequest(messages, profile)
	if err != nil {
		return nil, err
	}

	body, err := c.llm.DoStream(ctx, req)
	if err != nil {
		c.metrics.ObserveStream(provider, metrics.OutcomeFailed, 0, 0)
		logger.Warn("chat completion request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = body.Close()
	}()

	var (
		reassembler  sse.Reassembler
		acc          Accumulator
		sinkFailures int
	)
	completion := func() *Completion {
		return &Completion{
			Text:      acc.Text(),
			Fragments: acc.fragments,
			Skipped:   acc.skipped,
			Done:      acc.Done(),
		}
	}

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			reassembler.Feed(buf[:n])
			for {
				event, ok := reassembler.Next()
				if !ok {
					break
				}
				step := acc.Apply(event)
				for _, fragment := range step.Fragments {
					if err := sink.OnFragment(ctx, fragment); err != nil {
						sinkFailures++
						c.metrics.SinkFailure()
						if sinkFailures == 1 {
							logger.Warn("fragment sink failed, continuing without it", "error", err)
						}
					}
				}
				if step.Skipped > 0 {
					logger.Debug("skipped unparseable stream payload", "count", step.Skipped)
				}
				if step.Done {
					result := completion()
					c.metrics.ObserveStream(provider, metrics.OutcomeDone, result.Fragments, result.Skipped)
					logStreamEnd(logger, result, sinkFailures)
					return result, nil
				}
			}
		}

		if readErr != nil {
			result := completion()
			if errors.Is(readErr, io.EOF) {
				c.metrics.ObserveStream(provider, metrics.OutcomeEOF, result.Fragments, result.Skipped)
				logStreamEnd(logger, result, sinkFailures, "pending_bytes", reassembler.Pending())
				return result, nil
			}
			c.metrics.ObserveStream(provider, metrics.OutcomeAborted, result.Fragments, result.Skipped)
			logger.Warn("chat stream aborted", "error", readErr, "partial_length", len(result.Text))
			return result, core.NewStreamError(provider, result.Text, readErr)
		}
	}
}

func logStreamEnd(logger *slog.Logger, result *Completion, sinkFailures int, extra ...any) {
	args := []any{
		"done", result.Done,
		"fragments", result.Fragments,
		"skipped", result.Skipped,
		"sink_failures", sinkFailures,
	}
	logger.Debug("chat stream finished", append(args, extra...)...)
}
