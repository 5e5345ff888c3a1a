package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sitequery/mcp-gateway/pkg/protocol"
)

const sseLogPrefix = "stream:sse"

// SSEWriter writes frames as server-sent events, one "data:" line per frame,
// flushed immediately so partial answers reach the client as they arrive.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares the response for event streaming and returns a
// writer. Fails if the transport does not support flushing.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("%s - response writer does not support streaming", sseLogPrefix)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteFrame encodes the frame and writes one SSE event.
func (s *SSEWriter) WriteFrame(frame protocol.StreamFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("%s - failed to encode frame: %w", sseLogPrefix, err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("%s - failed to write frame: %w", sseLogPrefix, err)
	}
	s.flusher.Flush()
	return nil
}
