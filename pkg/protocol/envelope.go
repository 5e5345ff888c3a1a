package protocol

import "encoding/json"

// SchemaVersion is the wire schema version stamped on every envelope.
const SchemaVersion = "1.0"

// Envelope and frame type tags.
const (
	TypeFunctionResponse = "function_response"
	TypeStreamEvent      = "function_stream_event"
	TypeStreamEnd        = "function_stream_end"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Capabilities advertises the supported functions, streaming support and
// schema types. It is attached to every envelope, success or error, so
// capability negotiation never requires a successful call.
type Capabilities struct {
	Functions   []string `json:"functions"`
	Streaming   bool     `json:"streaming"`
	SchemaTypes []string `json:"schema_types"`
}

// AnswerItem is one result entry. SchemaObject is a Schema.org-typed record
// produced by the backend and passed through unmodified.
type AnswerItem struct {
	URL          string          `json:"url"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	SchemaObject json.RawMessage `json:"schema_object,omitempty"`
}

// Envelope is the batch wire-level response. Answer is present (possibly
// empty) exactly when Status is success; Response mirrors Answer under the
// legacy field name so pre-1.0 consumers keep working.
type Envelope struct {
	SchemaVersion string        `json:"schemaVersion"`
	Type          string        `json:"type"`
	Status        string        `json:"status"`
	Capabilities  Capabilities  `json:"capabilities"`
	Answer        *[]AnswerItem `json:"answer,omitempty"`
	Response      *[]AnswerItem `json:"response,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// SuccessEnvelope builds a success envelope. A nil item slice is rendered as
// an empty answer array, never omitted.
func SuccessEnvelope(caps Capabilities, items []AnswerItem) *Envelope {
	if items == nil {
		items = []AnswerItem{}
	}
	return &Envelope{
		SchemaVersion: SchemaVersion,
		Type:          TypeFunctionResponse,
		Status:        StatusSuccess,
		Capabilities:  caps,
		Answer:        &items,
		Response:      &items,
	}
}

// ErrorEnvelope builds an error envelope. The answer field is omitted.
func ErrorEnvelope(caps Capabilities, err *Error) *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		Type:          TypeFunctionResponse,
		Status:        StatusError,
		Capabilities:  caps,
		Error:         err.Message,
	}
}

// StreamContent carries one partial response unit.
type StreamContent struct {
	PartialResponse string `json:"partial_response"`
}

// StreamFrame is one line of a streaming response: either a partial-content
// event or the terminal event.
type StreamFrame struct {
	Type    string         `json:"type"`
	Content *StreamContent `json:"content,omitempty"`
	Status  string         `json:"status,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ContentFrame builds a partial-content frame.
func ContentFrame(partial string) StreamFrame {
	return StreamFrame{
		Type:    TypeStreamEvent,
		Content: &StreamContent{PartialResponse: partial},
	}
}

// EndFrame builds the success terminal frame.
func EndFrame() StreamFrame {
	return StreamFrame{Type: TypeStreamEnd, Status: StatusSuccess}
}

// ErrorFrame builds the failure terminal frame.
func ErrorFrame(message string) StreamFrame {
	return StreamFrame{Type: TypeStreamEnd, Status: StatusError, Error: message}
}
