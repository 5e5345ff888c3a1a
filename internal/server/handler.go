package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitequery/mcp-gateway/pkg/capability"
	"github.com/sitequery/mcp-gateway/pkg/dispatcher"
	"github.com/sitequery/mcp-gateway/pkg/events"
	"github.com/sitequery/mcp-gateway/pkg/metrics"
	"github.com/sitequery/mcp-gateway/pkg/protocol"
	"github.com/sitequery/mcp-gateway/pkg/stream"
)

const handlerLogPrefix = "server:handler"

// maxBodyBytes bounds request bodies; questions are short.
const maxBodyBytes = 1 << 20

// Handler serves the /ask and /mcp endpoints: normalize, dispatch, render.
type Handler struct {
	caps      *capability.Registry
	disp      *dispatcher.Dispatcher
	publisher events.Publisher
}

// NewHandlerParams holds parameters for NewHandler.
type NewHandlerParams struct {
	Caps      *capability.Registry
	Disp      *dispatcher.Dispatcher
	Publisher events.Publisher
}

// NewHandler creates a new Handler. A nil publisher disables telemetry.
func NewHandler(params NewHandlerParams) *Handler {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Handler{caps: params.Caps, disp: params.Disp, publisher: pub}
}

// ServeHTTP handles both endpoints; they are aliases with identical semantics.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		perr := protocol.NewError(protocol.KindMalformedRequest, "failed to read request body")
		h.writeError(w, perr)
		h.record(r.Context(), "unknown", "", perr, false, start)
		return
	}

	inv, perr := protocol.Normalize(body)
	if perr != nil {
		h.writeError(w, perr)
		h.record(r.Context(), "unknown", "", perr, false, start)
		return
	}

	if err := h.caps.CheckSchemaVersion(inv.SchemaVersion); err != nil {
		perr := protocol.NewError(protocol.KindInvalidArguments, err.Error())
		h.writeError(w, perr)
		h.record(r.Context(), string(inv.Function), "", perr, false, start)
		return
	}

	site, _ := protocol.StringArgument(inv, "site")

	// The streaming variant only exists for ask; everything else answers in
	// batch regardless of the flag.
	if inv.WantsStream && inv.Function == protocol.FunctionAsk {
		perr := h.serveStream(w, r, inv)
		h.record(r.Context(), string(inv.Function), site, perr, true, start)
		return
	}

	result, perr := h.disp.Dispatch(r.Context(), inv)
	if perr != nil {
		h.writeError(w, perr)
		h.record(r.Context(), string(inv.Function), site, perr, false, start)
		return
	}

	h.writeEnvelope(w, protocol.SuccessEnvelope(h.caps.Capabilities(), result.Items))
	h.record(r.Context(), string(inv.Function), site, nil, false, start)
}

// serveStream drives the streaming session for an ask invocation. A dispatch
// failure before any content still produces exactly one terminal error frame.
func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request, inv *protocol.Invocation) *protocol.Error {
	sw, err := stream.NewSSEWriter(w)
	if err != nil {
		perr := protocol.NewError(protocol.KindInternalError, "transport does not support streaming")
		h.writeError(w, perr)
		return perr
	}

	session := stream.NewSession(&countingWriter{w: sw})

	ch, perr := h.disp.Partials(r.Context(), inv)
	if perr != nil {
		if err := session.CloseError(perr.Message); err != nil {
			slog.Debug(fmt.Sprintf("%s - %v", handlerLogPrefix, err))
		}
		return perr
	}

	switch stream.Run(r.Context(), session, ch) {
	case stream.ClosedError:
		return protocol.NewError(protocol.KindBackendError, "stream terminated with error")
	case stream.ClosedCancelled:
		slog.Debug(fmt.Sprintf("%s - stream cancelled after %d frames", handlerLogPrefix, session.Emitted()))
	}
	return nil
}

// writeEnvelope renders a batch envelope. All logical outcomes use HTTP 200;
// business errors travel in-body.
func (h *Handler) writeEnvelope(w http.ResponseWriter, env *protocol.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode envelope: %v", handlerLogPrefix, err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, perr *protocol.Error) {
	h.writeEnvelope(w, protocol.ErrorEnvelope(h.caps.Capabilities(), perr))
}

// record updates metrics and publishes a telemetry event.
func (h *Handler) record(ctx context.Context, function, site string, perr *protocol.Error, streamed bool, start time.Time) {
	status := protocol.StatusSuccess
	errorKind := ""
	if perr != nil {
		status = protocol.StatusError
		errorKind = perr.Kind
	}

	metrics.RequestsTotal.WithLabelValues(function, status).Inc()
	metrics.RequestDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())

	event := &events.QueryEvent{
		Function:   function,
		Site:       site,
		Status:     status,
		ErrorKind:  errorKind,
		Streamed:   streamed,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.publisher.PublishQuery(ctx, event); err != nil {
		slog.Debug(fmt.Sprintf("%s - telemetry publish failed: %v", handlerLogPrefix, err))
	}
}

// countingWriter counts content frames for the stream metrics.
type countingWriter struct {
	w stream.FrameWriter
}

func (c *countingWriter) WriteFrame(frame protocol.StreamFrame) error {
	if err := c.w.WriteFrame(frame); err != nil {
		return err
	}
	if frame.Type == protocol.TypeStreamEvent {
		metrics.StreamFramesTotal.Inc()
	}
	return nil
}
