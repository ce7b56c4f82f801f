package gateway

import (
	"fmt"
	"net/http"

	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// executionEngine bundles the read-only, composed schema a request is
// served against; nothing inside it is ever mutated after buildEngine
// returns.
type executionEngine struct {
	schema *schema.Schema
}

// schemaStore groups a set of raw SDLs, host URLs, and the engine built
// from them. No code in this package creates or stores one.
type schemaStore struct {
	sdls   map[string]string // subgraph name → SDL string
	hosts  map[string]string // subgraph name → base URL
	engine *executionEngine
}

// buildEngine composes a new Schema from the given SDLs and host map. The
// order subgraphs are processed follows the iteration order of sdls, which
// is non-deterministic in Go maps; schema.Build is order-independent.
// httpClient is accepted for parity with how a reload is triggered
// (schema_fetcher.go's own retry client) but isn't otherwise needed here:
// the engine carries no transport of its own, since federation/coordinate's
// Fetcher is built once at gateway start, not per schema reload.
func buildEngine(sdls, hosts map[string]string, httpClient *http.Client) (*executionEngine, error) {
	if len(sdls) == 0 {
		return nil, fmt.Errorf("no subgraphs to compose")
	}

	sources := make([]schema.SubgraphSource, 0, len(sdls))
	for name, sdl := range sdls {
		sources = append(sources, schema.SubgraphSource{Name: name, URL: hosts[name], SDL: sdl})
	}

	sch, err := schema.Build(sources)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	return &executionEngine{schema: sch}, nil
}

// copyMap returns a shallow copy of a string map.
func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
