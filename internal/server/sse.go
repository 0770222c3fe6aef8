package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/outreach-agent/internal/pipeline"
)

// SSE event names
const (
	EventProgress = "progress"
	EventError    = "error"
	EventComplete = "complete"
)

// errStreamClosed is returned for writes after a terminal event
var errStreamClosed = errors.New("event stream closed")

// SSEWriter writes Server-Sent Events. It is safe for concurrent use; each
// event carries an increasing id, and nothing is written after the error or
// complete event.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
	closed  bool
}

// NewSSEWriter sets the event-stream headers on w
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher, nextID: 1}, nil
}

// WriteEvent sends data as a JSON-encoded event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(event, data)
}

func (s *SSEWriter) write(event string, data any) error {
	if s.closed {
		return errStreamClosed
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, payload); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

// Progress forwards a pipeline progress event
func (s *SSEWriter) Progress(e pipeline.ProgressEvent) {
	_ = s.WriteEvent(EventProgress, e)
}

// WriteError sends the terminal error event
func (s *SSEWriter) WriteError(message, code string) {
	s.finish(EventError, map[string]string{"error": message, "code": code})
}

// WriteComplete sends the terminal event carrying the pipeline result
func (s *SSEWriter) WriteComplete(result *pipeline.Result) {
	s.finish(EventComplete, result)
}

func (s *SSEWriter) finish(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.write(event, data)
	s.closed = true
}
