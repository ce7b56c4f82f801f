// Package coordinate drives a materialized plan.Plan's fetches to completion
// in dependency-wave order, rendering and signing each one's GraphQL
// document, dispatching it through an injected Fetcher, and feeding the
// result into a response.Assembler until every fetch has run.
package coordinate

import (
	"context"
	"time"
)

// FetchRequest is the wire-level request a Fetcher sends to one subgraph.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// FetchResponse is the raw subgraph reply; Body is the undecoded response
// body, left to the caller to json.Unmarshal since only the caller knows
// the shape it expects ({"data": ..., "errors": ...}).
type FetchResponse struct {
	StatusCode int
	Body       []byte
}

// Fetcher sends one subgraph request and returns its raw reply. Production
// code implements this over *http.Client (gateway/httpfetcher.go); tests use
// a fake in-memory Fetcher keyed by subgraph name or URL.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// Clock abstracts time so tests can run a coordinator without real timeouts.
// Production code implements this over the time package
// (gateway/clock.go).
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
