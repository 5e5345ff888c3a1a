package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/sitequery/mcp-gateway/pkg/commsutil"
)

const logPrefix = "retrieval:comms"

// Stream frame types sent by the backend on the reply inbox.
const (
	streamTypeChunk = "chunk"
	streamTypeEnd   = "end"
	streamTypeError = "error"
)

// searchResponse is the reply envelope for batch search and site enumeration.
type searchResponse struct {
	Ok      bool     `json:"ok"`
	Results []Result `json:"results,omitempty"`
	Sites   []string `json:"sites,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// streamMessage is one message on the streaming reply inbox.
type streamMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CommsRetrieverOpts configures CommsRetriever. Zero values use defaults.
type CommsRetrieverOpts struct {
	// SubjectPrefix overrides the retrieval subject prefix (default "retrieval").
	SubjectPrefix string
	// RequestTimeout bounds batch request/reply calls (default 30s).
	RequestTimeout time.Duration
}

// CommsRetriever is the Retriever implementation speaking request/reply (and
// reply-inbox streaming) to the retrieval backend over COMMS.
type CommsRetriever struct {
	nc             *comms.Conn
	searchSubject  string
	streamSubject  string
	sitesSubject   string
	requestTimeout time.Duration
}

// NewCommsRetriever creates a CommsRetriever. Pass nil opts for defaults.
func NewCommsRetriever(nc *comms.Conn, opts *CommsRetrieverOpts) *CommsRetriever {
	prefix := "retrieval"
	timeout := 30 * time.Second
	if opts != nil {
		if opts.SubjectPrefix != "" {
			prefix = opts.SubjectPrefix
		}
		if opts.RequestTimeout > 0 {
			timeout = opts.RequestTimeout
		}
	}
	return &CommsRetriever{
		nc:             nc,
		searchSubject:  commsutil.BuildRetrievalSubject(prefix, "search"),
		streamSubject:  commsutil.BuildRetrievalSubject(prefix, "search_stream"),
		sitesSubject:   commsutil.BuildRetrievalSubject(prefix, "sites"),
		requestTimeout: timeout,
	}
}

// Search performs a batch search request.
func (r *CommsRetriever) Search(ctx context.Context, q Query) ([]Result, error) {
	resp, err := r.request(ctx, r.searchSubject, q)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ListSites enumerates the sites the backend has indexed.
func (r *CommsRetriever) ListSites(ctx context.Context) ([]string, error) {
	resp, err := r.request(ctx, r.sitesSubject, struct{}{})
	if err != nil {
		return nil, err
	}
	return resp.Sites, nil
}

func (r *CommsRetriever) request(ctx context.Context, subject string, payload interface{}) (*searchResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode request: %w", logPrefix, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	msg, err := r.nc.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("%s - request to %s failed: %w", logPrefix, subject, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("%s - malformed backend response on %s: %w", logPrefix, subject, err)
	}
	if !resp.Ok {
		return nil, fmt.Errorf("%s - backend error on %s: %s", logPrefix, subject, resp.Error)
	}
	return &resp, nil
}

// SearchStream publishes a streaming search request and delivers backend
// frames as Chunks in arrival order. The returned channel is closed after the
// backend's end frame, after a terminal error chunk, or once ctx is done.
func (r *CommsRetriever) SearchStream(ctx context.Context, q Query) (<-chan Chunk, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode stream request: %w", logPrefix, err)
	}

	inbox := comms.NewInbox()
	msgCh := make(chan *comms.Msg, 64)
	sub, err := r.nc.ChanSubscribe(inbox, msgCh)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to reply inbox: %w", logPrefix, err)
	}

	if err := r.nc.PublishRequest(r.streamSubject, inbox, data); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("%s - failed to publish stream request: %w", logPrefix, err)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgCh:
				var frame streamMessage
				if err := json.Unmarshal(msg.Data, &frame); err != nil {
					r.deliver(ctx, out, Chunk{Err: fmt.Errorf("%s - malformed stream frame: %w", logPrefix, err)})
					return
				}
				switch frame.Type {
				case streamTypeChunk:
					if !r.deliver(ctx, out, Chunk{Text: frame.Content}) {
						return
					}
				case streamTypeEnd:
					return
				case streamTypeError:
					r.deliver(ctx, out, Chunk{Err: fmt.Errorf("%s - backend stream error: %s", logPrefix, frame.Error)})
					return
				default:
					slog.Debug(fmt.Sprintf("%s - ignoring unknown stream frame type %q", logPrefix, frame.Type))
				}
			}
		}
	}()

	return out, nil
}

// deliver sends a chunk unless the context has been cancelled.
func (r *CommsRetriever) deliver(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
