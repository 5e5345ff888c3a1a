// Package events defines the query telemetry event and publisher interfaces.
package events

// QueryEvent is emitted after each handled request. Telemetry is fire and
// forget; it never affects the response path.
type QueryEvent struct {
	Function   string `json:"function"`
	Site       string `json:"site,omitempty"`
	Status     string `json:"status"`
	ErrorKind  string `json:"errorKind,omitempty"`
	Streamed   bool   `json:"streamed"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  string `json:"timestamp"`
}
