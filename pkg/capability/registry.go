// Package capability holds the process-wide capability registry: the closed
// function set, streaming support and the schema types the backend serves.
package capability

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/sitequery/mcp-gateway/pkg/protocol"
)

// supportedSchemaConstraint is the envelope schema versions this gateway can
// speak. Clients may send an optional schemaVersion hint; anything outside
// this constraint is rejected before dispatch.
const supportedSchemaConstraint = "^1.0"

// DefaultSchemaTypes are the Schema.org types advertised when no override is
// configured.
var DefaultSchemaTypes = []string{"FAQPage", "WebPage", "Article"}

// Registry is the immutable capability registry, constructed once at startup
// and read-only thereafter.
type Registry struct {
	caps       protocol.Capabilities
	constraint *masterminds.Constraints
	functions  map[protocol.FunctionName]bool
}

// New creates a Registry advertising the closed function set and the given
// schema types (nil or empty uses DefaultSchemaTypes).
func New(schemaTypes []string) *Registry {
	if len(schemaTypes) == 0 {
		schemaTypes = DefaultSchemaTypes
	}

	names := protocol.AllFunctions()
	functions := make([]string, 0, len(names))
	set := make(map[protocol.FunctionName]bool, len(names))
	for _, fn := range names {
		functions = append(functions, string(fn))
		set[fn] = true
	}

	// The constraint is a compile-time constant; a parse failure is a defect.
	constraint, err := masterminds.NewConstraint(supportedSchemaConstraint)
	if err != nil {
		panic(fmt.Sprintf("capability:registry - invalid schema constraint %q: %v", supportedSchemaConstraint, err))
	}

	return &Registry{
		caps: protocol.Capabilities{
			Functions:   functions,
			Streaming:   true,
			SchemaTypes: schemaTypes,
		},
		constraint: constraint,
		functions:  set,
	}
}

// Capabilities returns the advertised capability value.
func (r *Registry) Capabilities() protocol.Capabilities {
	return r.caps
}

// Supports reports whether the function is in the supported set.
func (r *Registry) Supports(fn protocol.FunctionName) bool {
	return r.functions[fn]
}

// CheckSchemaVersion validates an optional client schema-version hint against
// the supported constraint. An empty hint is accepted.
func (r *Registry) CheckSchemaVersion(requested string) error {
	if requested == "" {
		return nil
	}
	v, err := masterminds.NewVersion(requested)
	if err != nil {
		return fmt.Errorf("invalid schemaVersion %q", requested)
	}
	if !r.constraint.Check(v) {
		return fmt.Errorf("unsupported schemaVersion %q (supported: %s)", requested, supportedSchemaConstraint)
	}
	return nil
}
