package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonathan/outreach-agent/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriter_EventsAreNumbered(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	sse.Progress(pipeline.ProgressEvent{Step: pipeline.StepExtract, Index: -1, Message: "extracted 1 job postings"})
	sse.WriteComplete(&pipeline.Result{})

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: 1\nevent: progress\ndata: {\"step\":\"extract\""), body)
	assert.Contains(t, body, "id: 2\nevent: complete\n")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)
}

func TestSSEWriter_NothingAfterTerminalEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	sse.WriteError("boom", "internal_error")
	assert.ErrorIs(t, sse.WriteEvent(EventProgress, "late"), errStreamClosed)
	sse.WriteComplete(&pipeline.Result{})

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: "))
	assert.Contains(t, body, `"code":"internal_error"`)
}
