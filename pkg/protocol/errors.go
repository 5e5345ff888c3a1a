package protocol

// Error kinds form the closed wire-level error taxonomy. Normalization kinds
// (malformed, unknown function, invalid arguments) are detected before any
// backend call; the rest are produced during dispatch.
const (
	KindMalformedRequest = "MALFORMED_REQUEST"
	KindUnknownFunction  = "UNKNOWN_FUNCTION"
	KindInvalidArguments = "INVALID_ARGUMENTS"
	KindNotFound         = "NOT_FOUND"
	KindBackendError     = "BACKEND_ERROR"
	KindInternalError    = "INTERNAL_ERROR"
)

// Error is a structured adapter error with a closed kind.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Message
}

// NewError creates a new Error.
func NewError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
