package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Events written to the UI channel.
const (
	eventChunk = "chat-chunk"
	eventDone  = "chat-done"
	eventError = "chat-error"
)

// sseWriter writes named events to the UI channel. Headers are sent with
// the first event, so a call that fails before any output can still answer
// with a plain JSON error. It is used by one goroutine at a time.
type sseWriter struct {
	res     *echo.Response
	started bool
}

func newSSEWriter(c echo.Context) *sseWriter {
	return &sseWriter{res: c.Response()}
}

func (w *sseWriter) start() {
	if w.started {
		return
	}
	w.started = true
	h := w.res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.res.WriteHeader(http.StatusOK)
}

func (w *sseWriter) event(name string, data interface{}) error {
	w.start()
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.res, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}
