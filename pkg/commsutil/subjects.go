package commsutil

import "fmt"

// Default COMMS subjects for the retrieval backend and telemetry.
const (
	SubjectSearch       = "retrieval.search.v1"
	SubjectSearchStream = "retrieval.search_stream.v1"
	SubjectSites        = "retrieval.sites.v1"
	SubjectTelemetry    = "gateway.telemetry.queries"
)

// BuildRetrievalSubject builds a retrieval backend subject from a prefix and
// operation name, e.g. ("retrieval", "search") -> "retrieval.search.v1".
func BuildRetrievalSubject(prefix, op string) string {
	return fmt.Sprintf("%s.%s.v1", prefix, op)
}
