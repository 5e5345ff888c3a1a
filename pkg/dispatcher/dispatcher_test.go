package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sitequery/mcp-gateway/pkg/capability"
	"github.com/sitequery/mcp-gateway/pkg/promptstore"
	"github.com/sitequery/mcp-gateway/pkg/protocol"
	"github.com/sitequery/mcp-gateway/pkg/retrieval"
)

const testPrefix = "dispatcher:dispatcher_test"

// fakeRetriever is a scripted Retriever for dispatch tests.
type fakeRetriever struct {
	results   []retrieval.Result
	sites     []string
	chunks    []retrieval.Chunk
	searchErr error
	sitesErr  error
	streamErr error
	lastQuery retrieval.Query
}

func (f *fakeRetriever) Search(_ context.Context, q retrieval.Query) ([]retrieval.Result, error) {
	f.lastQuery = q
	return f.results, f.searchErr
}

func (f *fakeRetriever) SearchStream(_ context.Context, q retrieval.Query) (<-chan retrieval.Chunk, error) {
	f.lastQuery = q
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan retrieval.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeRetriever) ListSites(_ context.Context) ([]string, error) {
	return f.sites, f.sitesErr
}

func newTestDispatcher(r retrieval.Retriever, store promptstore.Store) *Dispatcher {
	if store == nil {
		store = promptstore.NewStaticStore(nil)
	}
	return NewDispatcher(NewDispatcherParams{
		Caps:      capability.New(nil),
		Retriever: r,
		Prompts:   store,
	})
}

func askInvocation(query, site string) *protocol.Invocation {
	args := map[string]interface{}{"query": query}
	if site != "" {
		args["site"] = site
	}
	return &protocol.Invocation{Function: protocol.FunctionAsk, Arguments: args}
}

func TestDispatch_Ask_ForwardsQueryAndSite(t *testing.T) {
	r := &fakeRetriever{results: []retrieval.Result{
		{URL: "https://kismet.example/faq", Name: "FAQ", Description: "d", SchemaObject: json.RawMessage(`{"@type":"FAQPage"}`)},
	}}
	d := newTestDispatcher(r, nil)

	res, perr := d.Dispatch(context.Background(), askInvocation("What is Kismet?", "kismet"))
	if perr != nil {
		t.Fatalf("%s - dispatch failed: %v", testPrefix, perr)
	}
	if r.lastQuery.Text != "What is Kismet?" || r.lastQuery.Site != "kismet" {
		t.Errorf("%s - backend query = %+v", testPrefix, r.lastQuery)
	}
	if len(res.Items) != 1 || res.Items[0].Name != "FAQ" {
		t.Fatalf("%s - items = %+v", testPrefix, res.Items)
	}
	if string(res.Items[0].SchemaObject) != `{"@type":"FAQPage"}` {
		t.Errorf("%s - schema object not passed through verbatim: %s", testPrefix, res.Items[0].SchemaObject)
	}
}

func TestDispatch_Ask_EmptyResultSetIsSuccess(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{}, nil)

	res, perr := d.Dispatch(context.Background(), askInvocation("no hits", ""))
	if perr != nil {
		t.Fatalf("%s - dispatch failed: %v", testPrefix, perr)
	}
	if res.Items == nil {
		t.Fatalf("%s - expected empty item slice, got nil", testPrefix)
	}
	if len(res.Items) != 0 {
		t.Errorf("%s - expected no items, got %d", testPrefix, len(res.Items))
	}
}

func TestDispatch_Ask_BackendFailureMapsToBackendError(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{searchErr: errors.New("vector store timeout")}, nil)

	_, perr := d.Dispatch(context.Background(), askInvocation("x", ""))
	if perr == nil {
		t.Fatalf("%s - expected error", testPrefix)
	}
	if perr.Kind != protocol.KindBackendError {
		t.Errorf("%s - kind = %s, want %s", testPrefix, perr.Kind, protocol.KindBackendError)
	}
}

func TestDispatch_AllFunctionsHaveHandlers(t *testing.T) {
	store := promptstore.NewStaticStore([]promptstore.Prompt{
		{ID: "summarize", Name: "Summarize", Description: "d", Template: "t"},
	})
	d := newTestDispatcher(&fakeRetriever{sites: []string{"kismet"}}, store)

	for _, fn := range protocol.AllFunctions() {
		inv := &protocol.Invocation{Function: fn, Arguments: map[string]interface{}{}}
		switch fn {
		case protocol.FunctionAsk:
			inv.Arguments["query"] = "q"
		case protocol.FunctionGetPrompt:
			inv.Arguments["prompt_id"] = "summarize"
		}
		if _, perr := d.Dispatch(context.Background(), inv); perr != nil {
			t.Errorf("%s - function %s failed: %v", testPrefix, fn, perr)
		}
	}
}

func TestDispatch_ListTools_CoversCapabilityFunctions(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{}, nil)

	res, perr := d.Dispatch(context.Background(),
		&protocol.Invocation{Function: protocol.FunctionListTools, Arguments: map[string]interface{}{}})
	if perr != nil {
		t.Fatalf("%s - dispatch failed: %v", testPrefix, perr)
	}
	if len(res.Items) != len(protocol.AllFunctions()) {
		t.Fatalf("%s - expected %d tools, got %d", testPrefix, len(protocol.AllFunctions()), len(res.Items))
	}
	for _, item := range res.Items {
		if item.Description == "" {
			t.Errorf("%s - tool %s has no description", testPrefix, item.Name)
		}
	}
}

func TestDispatch_GetPrompt_NotFound(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{}, promptstore.NewStaticStore(nil))

	_, perr := d.Dispatch(context.Background(), &protocol.Invocation{
		Function:  protocol.FunctionGetPrompt,
		Arguments: map[string]interface{}{"prompt_id": "missing"},
	})
	if perr == nil {
		t.Fatalf("%s - expected error", testPrefix)
	}
	if perr.Kind != protocol.KindNotFound {
		t.Errorf("%s - kind = %s, want %s", testPrefix, perr.Kind, protocol.KindNotFound)
	}
}

func TestDispatch_GetPrompt_ReturnsTemplate(t *testing.T) {
	store := promptstore.NewStaticStore([]promptstore.Prompt{
		{ID: "summarize", Name: "Summarize", Description: "Condense results.", Template: "Summarize: {results}"},
	})
	d := newTestDispatcher(&fakeRetriever{}, store)

	res, perr := d.Dispatch(context.Background(), &protocol.Invocation{
		Function:  protocol.FunctionGetPrompt,
		Arguments: map[string]interface{}{"prompt_id": "summarize"},
	})
	if perr != nil {
		t.Fatalf("%s - dispatch failed: %v", testPrefix, perr)
	}
	if len(res.Items) != 1 {
		t.Fatalf("%s - expected 1 item, got %d", testPrefix, len(res.Items))
	}

	var obj map[string]string
	if err := json.Unmarshal(res.Items[0].SchemaObject, &obj); err != nil {
		t.Fatalf("%s - schema object not valid JSON: %v", testPrefix, err)
	}
	if obj["text"] != "Summarize: {results}" {
		t.Errorf("%s - template = %q", testPrefix, obj["text"])
	}
}

func TestDispatch_GetSites(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{sites: []string{"kismet", "docs"}}, nil)

	res, perr := d.Dispatch(context.Background(),
		&protocol.Invocation{Function: protocol.FunctionGetSites, Arguments: map[string]interface{}{}})
	if perr != nil {
		t.Fatalf("%s - dispatch failed: %v", testPrefix, perr)
	}
	if len(res.Items) != 2 || res.Items[0].Name != "kismet" {
		t.Errorf("%s - items = %+v", testPrefix, res.Items)
	}
}

func TestPartials_OnlyAskStreams(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{}, nil)

	_, perr := d.Partials(context.Background(),
		&protocol.Invocation{Function: protocol.FunctionGetSites, Arguments: map[string]interface{}{}})
	if perr == nil {
		t.Fatalf("%s - expected error", testPrefix)
	}
	if perr.Kind != protocol.KindInvalidArguments {
		t.Errorf("%s - kind = %s, want %s", testPrefix, perr.Kind, protocol.KindInvalidArguments)
	}
}

func TestPartials_StreamStartFailureMapsToBackendError(t *testing.T) {
	d := newTestDispatcher(&fakeRetriever{streamErr: fmt.Errorf("no responders")}, nil)

	_, perr := d.Partials(context.Background(), askInvocation("x", ""))
	if perr == nil {
		t.Fatalf("%s - expected error", testPrefix)
	}
	if perr.Kind != protocol.KindBackendError {
		t.Errorf("%s - kind = %s, want %s", testPrefix, perr.Kind, protocol.KindBackendError)
	}
}
