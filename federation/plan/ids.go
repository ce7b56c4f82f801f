// Package plan materializes a solved solution-space tree into a forest of
// subgraph fetches: root fetches (one per subgraph with root-level work)
// and entity fetches (one per distinct parent position crossing into a new
// subgraph via a resolvable @key), wired together by dependency edges.
package plan

import (
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

// FetchID indexes a Plan's Fetches arena.
type FetchID int

// NoFetch is the sentinel for an absent fetch reference.
const NoFetch FetchID = -1

// FetchKind distinguishes a subgraph root-operation fetch from an entity
// (`_entities`) fetch.
type FetchKind int

const (
	RootFetchKind FetchKind = iota
	EntityFetchKind
)

// PlannedField is one field assigned to a Fetch: which solution-space nodes
// it came from, its response key, and its static selection path within the
// fetch's own response (field names only; list indices are a runtime
// concern resolved by response assembly, not a planning concern).
type PlannedField struct {
	Query       solve.NodeID
	Providable  solve.NodeID
	ResponseKey string
	Path        []string
}

// Fetch is one subgraph request the coordinator must issue.
type Fetch struct {
	ID   FetchID
	Kind FetchKind

	Subgraph schema.SubgraphID

	// EntityFetchKind only.
	EntityType schema.TypeID
	Key        schema.KeyID
	// ParentNode is the ProvidableFieldNode this fetch hops out from: the
	// object position whose selection the renderer must extend with
	// __typename and the Key's field set so a representation can be built.
	ParentNode    solve.NodeID
	InsertionPath []string

	Fields    []PlannedField
	DependsOn []FetchID
}

// Plan is the materialized fetch forest for one operation.
type Plan struct {
	Fetches []Fetch

	// NodeFetch maps each chosen ProvidableFieldNode to the Fetch it was
	// assigned to, so a document renderer can re-walk the solved tree and
	// decide, at any FieldEdge, whether to keep descending within the same
	// fetch or stop and emit a representation stub for a dependent fetch.
	NodeFetch map[solve.NodeID]FetchID
}
