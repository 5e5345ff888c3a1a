// Package protocol defines the gateway wire contract: the two accepted
// request shapes, the canonical Invocation they normalize into, the versioned
// response envelope, and the stream frame types.
package protocol

import (
	"encoding/json"
	"fmt"
)

// FunctionName identifies one of the supported gateway functions.
type FunctionName string

// Supported functions (closed set).
const (
	FunctionAsk         FunctionName = "ask"
	FunctionListTools   FunctionName = "list_tools"
	FunctionListPrompts FunctionName = "list_prompts"
	FunctionGetPrompt   FunctionName = "get_prompt"
	FunctionGetSites    FunctionName = "get_sites"
)

// AllFunctions returns the supported function names in advertised order.
func AllFunctions() []FunctionName {
	return []FunctionName{
		FunctionAsk,
		FunctionListTools,
		FunctionListPrompts,
		FunctionGetPrompt,
		FunctionGetSites,
	}
}

// ParseFunctionName maps a wire string to a FunctionName.
func ParseFunctionName(s string) (FunctionName, bool) {
	switch FunctionName(s) {
	case FunctionAsk, FunctionListTools, FunctionListPrompts, FunctionGetPrompt, FunctionGetSites:
		return FunctionName(s), true
	}
	return "", false
}

// Invocation is the shape-agnostic internal representation of a request:
// which function, with which arguments, streaming or not. Both accepted
// request shapes must normalize to identical Invocation values for
// equivalent semantic content.
type Invocation struct {
	Function      FunctionName
	Arguments     map[string]interface{}
	WantsStream   bool
	SchemaVersion string
}

// rawRequest covers both accepted body shapes; which one was sent is decided
// by the presence of the question or function_call key.
type rawRequest struct {
	Question      *string          `json:"question"`
	Site          string           `json:"site"`
	Stream        bool             `json:"stream"`
	SchemaVersion string           `json:"schemaVersion"`
	FunctionCall  *rawFunctionCall `json:"function_call"`
}

type rawFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Normalize detects the request shape and produces a canonical Invocation.
// Failures use the normalization error kinds: MALFORMED_REQUEST when the
// shape or function cannot even be identified, UNKNOWN_FUNCTION for a name
// outside the closed set, INVALID_ARGUMENTS when the shape is recognized but
// the payload is incomplete.
func Normalize(body []byte) (*Invocation, *Error) {
	var raw rawRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, NewError(KindMalformedRequest, "request body is not valid JSON")
	}

	switch {
	case raw.Question != nil:
		return normalizeSimple(&raw)
	case raw.FunctionCall != nil:
		return normalizeFunctionCall(&raw)
	default:
		return nil, NewError(KindMalformedRequest, "request must contain a question or a function_call")
	}
}

// normalizeSimple treats the whole body as arguments for the ask function.
func normalizeSimple(raw *rawRequest) (*Invocation, *Error) {
	args := map[string]interface{}{}
	if *raw.Question != "" {
		args["query"] = *raw.Question
	}
	if raw.Site != "" {
		args["site"] = raw.Site
	}

	inv := &Invocation{
		Function:      FunctionAsk,
		Arguments:     args,
		WantsStream:   raw.Stream,
		SchemaVersion: raw.SchemaVersion,
	}
	if err := validateArguments(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// normalizeFunctionCall parses the structured shape. The arguments field is a
// JSON-encoded string holding a nested object.
func normalizeFunctionCall(raw *rawRequest) (*Invocation, *Error) {
	fn, ok := ParseFunctionName(raw.FunctionCall.Name)
	if !ok {
		return nil, NewError(KindUnknownFunction, fmt.Sprintf("unsupported function: %q", raw.FunctionCall.Name))
	}

	args := map[string]interface{}{}
	if raw.FunctionCall.Arguments != "" {
		if err := json.Unmarshal([]byte(raw.FunctionCall.Arguments), &args); err != nil {
			return nil, NewError(KindInvalidArguments, "function_call.arguments is not a JSON object")
		}
	}

	wantsStream := raw.Stream
	if v, ok := args["streaming"]; ok {
		if b, ok := v.(bool); ok {
			wantsStream = b
		}
		// streaming is a delivery flag, not a function argument; drop it so
		// both shapes normalize to identical argument maps.
		delete(args, "streaming")
	}

	// Empty-string arguments are treated as absent.
	for _, key := range []string{"query", "site", "prompt_id"} {
		if s, ok := args[key].(string); ok && s == "" {
			delete(args, key)
		}
	}

	inv := &Invocation{
		Function:      fn,
		Arguments:     args,
		WantsStream:   wantsStream,
		SchemaVersion: raw.SchemaVersion,
	}
	if err := validateArguments(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// validateArguments enforces per-function required fields.
func validateArguments(inv *Invocation) *Error {
	switch inv.Function {
	case FunctionAsk:
		if _, ok := StringArgument(inv, "query"); !ok {
			return NewError(KindInvalidArguments, "ask requires a non-empty query")
		}
	case FunctionGetPrompt:
		if _, ok := StringArgument(inv, "prompt_id"); !ok {
			return NewError(KindInvalidArguments, "get_prompt requires a prompt_id")
		}
	}
	return nil
}

// StringArgument returns the named argument if present as a non-empty string.
func StringArgument(inv *Invocation, name string) (string, bool) {
	v, ok := inv.Arguments[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
