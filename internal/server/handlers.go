package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"chatstream/internal/chat"
	"chatstream/internal/codeblock"
	"chatstream/internal/core"
)

const (
	authErrorType     = "authentication_error"
	invalidReqType    = "invalid_request_error"
	internalErrorType = "internal_error"

	// chunkBufferSize is how many fragments may wait for a slow UI client
	// before further ones are dropped from the live channel. chat-done
	// always carries the full text.
	chunkBufferSize = 1024
)

// ChatService is the part of chat.Service the handlers use.
type ChatService interface {
	Stream(ctx context.Context, profile string, messages []core.Message, sink core.FragmentSink) (*chat.Completion, error)
	Models(ctx context.Context, profile string) ([]string, error)
	Probe(ctx context.Context, profile string) (string, error)
}

// ProfileLister reports the configured profile names.
type ProfileLister interface {
	Active() string
	Names() []string
}

// Handler holds the HTTP handlers
type Handler struct {
	chat     ChatService
	profiles ProfileLister
	logger   *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(chat ChatService, profiles ProfileLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chat:     chat,
		profiles: profiles,
		logger:   logger,
	}
}

type chatRequest struct {
	Profile  string         `json:"profile"`
	Messages []core.Message `json:"messages"`
}

type chatDone struct {
	Text       string   `json:"text"`
	CodeBlocks []string `json:"code_blocks"`
	Skipped    int      `json:"skipped"`
}

type chatFailure struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Partial string `json:"partial"`
}

// Chat handles POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(invalidReqType, "invalid request body: "+err.Error()))
	}
	if len(req.Messages) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody(invalidReqType, "messages must not be empty"))
	}

	ctx := c.Request().Context()
	logger := core.LoggerFor(ctx, h.logger)
	stream := newSSEWriter(c)

	// The provider stream never waits on the UI connection: fragments go
	// through a buffered channel drained by a single writer.
	fragments := chat.NewChannelSink(chunkBufferSize)
	written := make(chan struct{})
	go func() {
		defer close(written)
		failed := false
		for fragment := range fragments.Fragments() {
			if failed {
				continue
			}
			if err := stream.event(eventChunk, fragment); err != nil {
				failed = true
				logger.Debug("failed to write chat-chunk event", "error", err)
			}
		}
	}()

	result, err := h.chat.Stream(ctx, req.Profile, req.Messages, fragments)
	fragments.Close()
	<-written

	if err != nil && result == nil && !stream.started {
		return handleError(c, err)
	}

	if err != nil {
		failure := chatFailure{Type: internalErrorType, Message: err.Error()}
		var coreErr *core.Error
		if errors.As(err, &coreErr) {
			failure.Type = string(coreErr.Type)
			failure.Message = coreErr.Message
			failure.Partial = coreErr.Partial
		}
		if writeErr := stream.event(eventError, failure); writeErr != nil {
			logger.Debug("failed to write chat-error event", "error", writeErr)
		}
		return nil
	}

	done := chatDone{
		Text:       result.Text,
		CodeBlocks: blocksOf(result.Text),
		Skipped:    result.Skipped,
	}
	if writeErr := stream.event(eventDone, done); writeErr != nil {
		logger.Debug("failed to write chat-done event", "error", writeErr)
	}
	return nil
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListModels handles GET /v1/models
func (h *Handler) ListModels(c echo.Context) error {
	models, err := h.chat.Models(c.Request().Context(), c.QueryParam("profile"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"models": models})
}

// TestConnection handles GET /v1/connection
func (h *Handler) TestConnection(c echo.Context) error {
	msg, err := h.chat.Probe(c.Request().Context(), c.QueryParam("profile"))
	if err != nil {
		status := http.StatusBadGateway
		errType := internalErrorType
		var coreErr *core.Error
		if errors.As(err, &coreErr) {
			status = coreErr.HTTPStatusCode()
			errType = string(coreErr.Type)
		}
		return c.JSON(status, errorBody(errType, err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// CodeBlocks handles POST /v1/code-blocks
func (h *Handler) CodeBlocks(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(invalidReqType, "invalid request body: "+err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"blocks": blocksOf(req.Text)})
}

// Profiles handles GET /v1/profiles
func (h *Handler) Profiles(c echo.Context) error {
	active, names := "", []string{}
	if h.profiles != nil {
		active = h.profiles.Active()
		names = h.profiles.Names()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"active":   active,
		"profiles": names,
	})
}

func blocksOf(text string) []string {
	blocks := codeblock.Extract(text)
	if blocks == nil {
		return []string{}
	}
	return blocks
}

func errorBody(errType, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}
}

// handleError converts client errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return c.JSON(coreErr.HTTPStatusCode(), coreErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, errorBody(internalErrorType, "an unexpected error occurred"))
}
