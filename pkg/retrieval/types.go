// Package retrieval defines the retrieval backend collaborator interface and
// its COMMS client. The gateway delegates all semantic search work here; it
// never ranks, retrieves or embeds on its own.
package retrieval

import (
	"context"
	"encoding/json"
)

// Result is one backend hit. SchemaObject is a Schema.org-typed record and is
// passed through to clients unmodified.
type Result struct {
	URL          string          `json:"url"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	SchemaObject json.RawMessage `json:"schema_object,omitempty"`
}

// Query is a search request against the backend. Site optionally restricts
// results to a single indexed site.
type Query struct {
	Text string `json:"query"`
	Site string `json:"site,omitempty"`
}

// Chunk is one unit of a streaming answer. Err, when set, is terminal: no
// further chunks follow it on the channel.
type Chunk struct {
	Text string
	Err  error
}

// Retriever is the backend collaborator interface. SearchStream returns a
// channel that is closed after the backend completes; a terminal failure is
// delivered as a final Chunk with Err set. Cancelling the context stops
// delivery and releases the underlying subscription.
type Retriever interface {
	Search(ctx context.Context, q Query) ([]Result, error)
	SearchStream(ctx context.Context, q Query) (<-chan Chunk, error)
	ListSites(ctx context.Context) ([]string, error)
}
