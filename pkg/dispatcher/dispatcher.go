// Package dispatcher routes normalized invocations to the supported gateway
// functions, delegating semantic work to the retrieval backend and prompt
// store collaborators.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sitequery/mcp-gateway/pkg/capability"
	"github.com/sitequery/mcp-gateway/pkg/promptstore"
	"github.com/sitequery/mcp-gateway/pkg/protocol"
	"github.com/sitequery/mcp-gateway/pkg/retrieval"
)

const logPrefix = "dispatcher:dispatch"

// Descriptions advertised by list_tools.
var functionDescriptions = map[protocol.FunctionName]string{
	protocol.FunctionAsk:         "Answer a natural-language question against the indexed sites.",
	protocol.FunctionListTools:   "List the functions this gateway supports.",
	protocol.FunctionListPrompts: "List available prompt templates.",
	protocol.FunctionGetPrompt:   "Fetch a prompt template by prompt_id.",
	protocol.FunctionGetSites:    "List the sites the retrieval backend has indexed.",
}

// Dispatcher routes invocations to function handlers. It is stateless and
// safe for concurrent use across independent invocations.
type Dispatcher struct {
	caps      *capability.Registry
	retriever retrieval.Retriever
	prompts   promptstore.Store
}

// NewDispatcherParams holds parameters for NewDispatcher.
type NewDispatcherParams struct {
	Caps      *capability.Registry
	Retriever retrieval.Retriever
	Prompts   promptstore.Store
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	return &Dispatcher{
		caps:      params.Caps,
		retriever: params.Retriever,
		prompts:   params.Prompts,
	}
}

// Result is a successful dispatch outcome.
type Result struct {
	Items []protocol.AnswerItem
}

// Dispatch routes a valid Invocation to its handler and returns a Result or
// a structured protocol error. Collaborator failures never escape as their
// own types; they are always mapped into the closed error kinds.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *protocol.Invocation) (*Result, *protocol.Error) {
	slog.Debug(fmt.Sprintf("%s - function=%s stream=%t", logPrefix, inv.Function, inv.WantsStream))

	switch inv.Function {
	case protocol.FunctionAsk:
		return d.handleAsk(ctx, inv)
	case protocol.FunctionListTools:
		return d.handleListTools()
	case protocol.FunctionListPrompts:
		return d.handleListPrompts(ctx)
	case protocol.FunctionGetPrompt:
		return d.handleGetPrompt(ctx, inv)
	case protocol.FunctionGetSites:
		return d.handleGetSites(ctx)
	default:
		// The normalizer only produces known names; reaching here is a defect.
		return nil, protocol.NewError(protocol.KindInternalError,
			fmt.Sprintf("no handler for function %q", inv.Function))
	}
}

// Partials starts the backend's streaming search for an ask invocation and
// returns the chunk channel. Only ask has a streaming variant.
func (d *Dispatcher) Partials(ctx context.Context, inv *protocol.Invocation) (<-chan retrieval.Chunk, *protocol.Error) {
	if inv.Function != protocol.FunctionAsk {
		return nil, protocol.NewError(protocol.KindInvalidArguments,
			fmt.Sprintf("function %q does not support streaming", inv.Function))
	}

	ch, err := d.retriever.SearchStream(ctx, queryFromInvocation(inv))
	if err != nil {
		return nil, protocol.NewError(protocol.KindBackendError, err.Error())
	}
	return ch, nil
}

func (d *Dispatcher) handleAsk(ctx context.Context, inv *protocol.Invocation) (*Result, *protocol.Error) {
	results, err := d.retriever.Search(ctx, queryFromInvocation(inv))
	if err != nil {
		return nil, protocol.NewError(protocol.KindBackendError, err.Error())
	}

	// An empty hit set is a success with an empty answer, never an error.
	items := make([]protocol.AnswerItem, 0, len(results))
	for _, r := range results {
		items = append(items, protocol.AnswerItem{
			URL:          r.URL,
			Name:         r.Name,
			Description:  r.Description,
			SchemaObject: r.SchemaObject,
		})
	}
	return &Result{Items: items}, nil
}

func (d *Dispatcher) handleListTools() (*Result, *protocol.Error) {
	caps := d.caps.Capabilities()
	items := make([]protocol.AnswerItem, 0, len(caps.Functions))
	for _, fn := range caps.Functions {
		items = append(items, protocol.AnswerItem{
			Name:        fn,
			Description: functionDescriptions[protocol.FunctionName(fn)],
		})
	}
	return &Result{Items: items}, nil
}

func (d *Dispatcher) handleListPrompts(ctx context.Context) (*Result, *protocol.Error) {
	prompts, err := d.prompts.ListPrompts(ctx)
	if err != nil {
		return nil, protocol.NewError(protocol.KindBackendError, err.Error())
	}

	items := make([]protocol.AnswerItem, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, protocol.AnswerItem{
			Name:        p.ID,
			Description: p.Description,
		})
	}
	return &Result{Items: items}, nil
}

func (d *Dispatcher) handleGetPrompt(ctx context.Context, inv *protocol.Invocation) (*Result, *protocol.Error) {
	id, _ := protocol.StringArgument(inv, "prompt_id")

	p, err := d.prompts.GetPrompt(ctx, id)
	if errors.Is(err, promptstore.ErrNotFound) {
		return nil, protocol.NewError(protocol.KindNotFound, fmt.Sprintf("prompt not found: %s", id))
	}
	if err != nil {
		return nil, protocol.NewError(protocol.KindBackendError, err.Error())
	}

	obj, merr := json.Marshal(map[string]string{
		"@type": "DigitalDocument",
		"name":  p.Name,
		"text":  p.Template,
	})
	if merr != nil {
		return nil, protocol.NewError(protocol.KindInternalError, merr.Error())
	}

	return &Result{Items: []protocol.AnswerItem{{
		Name:         p.ID,
		Description:  p.Description,
		SchemaObject: obj,
	}}}, nil
}

func (d *Dispatcher) handleGetSites(ctx context.Context) (*Result, *protocol.Error) {
	sites, err := d.retriever.ListSites(ctx)
	if err != nil {
		return nil, protocol.NewError(protocol.KindBackendError, err.Error())
	}

	items := make([]protocol.AnswerItem, 0, len(sites))
	for _, site := range sites {
		items = append(items, protocol.AnswerItem{Name: site})
	}
	return &Result{Items: items}, nil
}

func queryFromInvocation(inv *protocol.Invocation) retrieval.Query {
	q, _ := protocol.StringArgument(inv, "query")
	site, _ := protocol.StringArgument(inv, "site")
	return retrieval.Query{Text: q, Site: site}
}
