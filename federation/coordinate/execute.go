package coordinate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/request"
	"github.com/n9te9/go-graphql-federation-gateway/federation/response"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

// AuthorizeFunc is an optional hook invoked once per operation, before any
// fetch is dispatched. Returning an error aborts the operation before any
// subgraph is touched; absent by default.
type AuthorizeFunc func(ctx context.Context, op *operation.BoundOperation) error

// Options configures one Execute call. The zero value runs with no
// authorization hook and no whole-operation timeout (only whatever
// per-subgraph timeouts the schema itself declares).
type Options struct {
	Authorize        AuthorizeFunc
	OperationTimeout time.Duration
	RequestID        string
}

type subgraphBody struct {
	Data   json.RawMessage `json:"data"`
	Errors []subgraphError `json:"errors"`
}

type subgraphError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path"`
}

// Execute drives every fetch in p to completion in dependency-wave order and
// returns the assembled client-facing response. space and tree are the same
// solved solution-space Render needs to re-walk a fetch's own selection;
// Execute never mutates them.
func Execute(
	ctx context.Context,
	sch *schema.Schema,
	op *operation.BoundOperation,
	space *solve.Space,
	tree *solve.Tree,
	p *plan.Plan,
	vars operation.Variables,
	fetcher Fetcher,
	clock Clock,
	opts Options,
) *response.Response {
	asm := response.NewAssembler(sch, op, p)

	if opts.Authorize != nil {
		if err := opts.Authorize(ctx, op); err != nil {
			asm.RecordError(response.Error{Message: fmt.Sprintf("not authorized: %v", err)})
			return asm.Finish()
		}
	}

	if opts.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = withTimeout(ctx, clock, opts.OperationTimeout)
		defer cancel()
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c := &coordinator{
		sch: sch, op: op, space: space, tree: tree, plan: p, vars: vars,
		fetcher: fetcher, clock: clock, asm: asm, requestID: requestID,
		done: make(map[plan.FetchID]bool),
	}
	c.run(ctx)

	return asm.Finish()
}

// coordinator holds the mutable state threaded through one Execute call.
type coordinator struct {
	sch   *schema.Schema
	op    *operation.BoundOperation
	space *solve.Space
	tree  *solve.Tree
	plan  *plan.Plan
	vars  operation.Variables

	fetcher   Fetcher
	clock     Clock
	asm       *response.Assembler
	requestID string

	mu   sync.Mutex
	done map[plan.FetchID]bool
}

// run dispatches ready fetches wave by wave until every fetch has completed
// or no further progress can be made (which would indicate a cycle the
// planner should never have produced).
func (c *coordinator) run(ctx context.Context) {
	for {
		ready := c.readyFetches()
		if len(ready) == 0 {
			return
		}

		eg, egCtx := errgroup.WithContext(ctx)
		for _, id := range ready {
			id := id
			eg.Go(func() error {
				c.runFetch(egCtx, id)
				return nil
			})
		}
		_ = eg.Wait()

		c.mu.Lock()
		for _, id := range ready {
			c.done[id] = true
		}
		c.mu.Unlock()
	}
}

func (c *coordinator) readyFetches() []plan.FetchID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ready []plan.FetchID
	for i := range c.plan.Fetches {
		f := &c.plan.Fetches[i]
		if c.done[f.ID] {
			continue
		}
		allDepsDone := true
		for _, dep := range f.DependsOn {
			if !c.done[dep] {
				allDepsDone = false
				break
			}
		}
		if allDepsDone {
			ready = append(ready, f.ID)
		}
	}
	return ready
}

func (c *coordinator) runFetch(ctx context.Context, id plan.FetchID) {
	f := &c.plan.Fetches[id]
	sg := &c.sch.Subgraphs[f.Subgraph]

	var representations []map[string]interface{}
	if f.Kind == plan.EntityFetchKind {
		c.mu.Lock()
		reps, err := c.asm.RepresentationsFor(id)
		c.mu.Unlock()
		if err != nil {
			c.recordSubgraphError(sg, fmt.Errorf("building representations: %w", err))
			return
		}
		if len(reps) == 0 {
			return
		}
		representations = reps
	}

	doc, err := request.Render(c.sch, c.op, c.space, c.tree, c.plan, f, c.vars, representations)
	if err != nil {
		c.recordSubgraphError(sg, fmt.Errorf("rendering request: %w", err))
		return
	}

	body, err := json.Marshal(map[string]interface{}{"query": doc.Query, "variables": doc.Variables})
	if err != nil {
		c.recordSubgraphError(sg, fmt.Errorf("encoding request: %w", err))
		return
	}

	fetchCtx := ctx
	if sg.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = withTimeout(ctx, c.clock, time.Duration(sg.Timeout)*time.Millisecond)
		defer cancel()
	}

	reply, err := c.fetcher.Fetch(fetchCtx, c.buildRequest(sg, body))
	if err != nil {
		slog.Default().Warn("subgraph fetch failed", "subgraph", sg.Name, "error", err)
		c.recordSubgraphError(sg, fmt.Errorf("fetching from subgraph %q: %w", sg.Name, err))
		return
	}
	if reply.StatusCode < 200 || reply.StatusCode > 299 {
		c.recordSubgraphError(sg, fmt.Errorf("subgraph %q replied with HTTP status %d", sg.Name, reply.StatusCode))
		return
	}

	var parsed subgraphBody
	if err := json.Unmarshal(reply.Body, &parsed); err != nil {
		c.recordSubgraphError(sg, fmt.Errorf("decoding subgraph %q response: %w", sg.Name, err))
		return
	}
	for _, se := range parsed.Errors {
		c.asm.RecordError(response.Error{
			Message:    se.Message,
			Path:       se.Path,
			Extensions: map[string]interface{}{"serviceName": sg.Name},
		})
	}

	if f.Kind == plan.RootFetchKind {
		c.mergeRoot(parsed.Data)
		return
	}
	c.mergeEntities(id, sg, parsed.Data)
}

func (c *coordinator) mergeRoot(data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return
	}
	c.mu.Lock()
	c.asm.MergeRoot(m)
	c.mu.Unlock()
}

func (c *coordinator) mergeEntities(id plan.FetchID, sg *schema.Subgraph, data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var m struct {
		Entities []interface{} `json:"_entities"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		c.recordSubgraphError(sg, fmt.Errorf("decoding subgraph %q entities: %w", sg.Name, err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.asm.MergeEntities(id, m.Entities); err != nil {
		c.asm.RecordError(response.Error{
			Message:    fmt.Sprintf("merging entities from subgraph %q: %v", sg.Name, err),
			Extensions: map[string]interface{}{"serviceName": sg.Name},
		})
	}
}

func (c *coordinator) buildRequest(sg *schema.Subgraph, body []byte) FetchRequest {
	headers := make(map[string]string, len(sg.Headers)+3)
	for k, v := range sg.Headers {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	headers[request.RequestIDHeader] = c.requestID
	if sig, ok := request.Sign(sg, "POST", sg.URL, body); ok {
		headers[request.SignatureHeader] = sig
	}
	return FetchRequest{URL: sg.URL, Headers: headers, Body: body}
}

func (c *coordinator) recordSubgraphError(sg *schema.Subgraph, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asm.RecordError(response.Error{
		Message:    err.Error(),
		Extensions: map[string]interface{}{"serviceName": sg.Name},
	})
}

// withTimeout derives a child context that cancels after d, using clock
// instead of the wall clock directly so a fake Clock can drive a
// deterministic timeout in tests.
func withTimeout(parent context.Context, clock Clock, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	timer := clock.After(d)
	go func() {
		select {
		case <-timer:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
