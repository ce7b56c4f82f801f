package plan

import (
	"strconv"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

// MaterializeError is returned when a solved tree cannot be grouped into
// fetches, which would indicate a Build/Solve invariant violation rather
// than anything a caller can recover from.
type MaterializeError struct {
	Message string
}

func (e *MaterializeError) Error() string { return "plan: " + e.Message }

type fetchKey struct {
	parent   solve.NodeID
	subgraph schema.SubgraphID
}

type materializer struct {
	sch   *schema.Schema
	op    *operation.BoundOperation
	space *solve.Space
	tree  *solve.Tree

	fetches       []Fetch
	rootFetches   map[schema.SubgraphID]FetchID
	entityFetches map[fetchKey]FetchID
	fetchOf       map[solve.NodeID]FetchID
}

// Materialize groups every ProvidableFieldNode the solver chose into a
// forest of root and entity fetches: one root fetch per subgraph with
// root-level work, and one entity fetch per (parent position, subgraph)
// where resolution crosses into a new subgraph via a resolvable @key.
// Fields pulled in purely to satisfy a @requires are recorded on their
// fetch the same way user-selected fields are, with a synthesized
// ResponseKey and a DependsOn edge back to whichever fetch produces the
// required value.
func Materialize(sch *schema.Schema, op *operation.BoundOperation, space *solve.Space, tree *solve.Tree) (*Plan, error) {
	m := &materializer{
		sch:           sch,
		op:            op,
		space:         space,
		tree:          tree,
		rootFetches:   map[schema.SubgraphID]FetchID{},
		entityFetches: map[fetchKey]FetchID{},
		fetchOf:       map[solve.NodeID]FetchID{},
	}

	for _, e := range space.Out[space.Root] {
		if e.Kind != solve.FieldEdge {
			continue
		}
		if err := m.processField(NoFetch, 0, nil, solve.NoNode, e.To); err != nil {
			return nil, err
		}
	}

	return &Plan{Fetches: m.fetches, NodeFetch: m.fetchOf}, nil
}

// processField assigns qNode (a QueryFieldNode already resolved by the
// solver) to a fetch, recurses into its own children, and wires up any
// @requires siblings it declared. parentPNode is the enclosing
// ProvidableFieldNode (solve.NoNode at the operation root); parentFetchID/
// parentSubgraph/parentPath describe the fetch parentPNode belongs to.
func (m *materializer) processField(parentFetchID FetchID, parentSubgraph schema.SubgraphID, parentPath []string, parentPNode solve.NodeID, qNode solve.NodeID) error {
	chosen, ok := m.tree.Chosen[qNode]
	if !ok {
		return &MaterializeError{Message: "a query field reached by the solved tree has no chosen alternative"}
	}
	childSubgraph := m.space.Nodes[chosen].Subgraph
	responseKey := m.responseKeyFor(qNode)

	var fetchID FetchID
	var path []string

	switch {
	case parentPNode == solve.NoNode:
		fetchID = m.rootFetch(childSubgraph)
		path = []string{responseKey}
	case childSubgraph == parentSubgraph:
		fetchID = parentFetchID
		path = append(append([]string{}, parentPath...), responseKey)
	default:
		entityType := m.space.Nodes[qNode].ParentType
		id, err := m.entityFetch(parentPNode, childSubgraph, entityType, parentFetchID, parentPath)
		if err != nil {
			return err
		}
		fetchID = id
		path = []string{responseKey}
	}

	m.fetches[fetchID].Fields = append(m.fetches[fetchID].Fields, PlannedField{
		Query:       qNode,
		Providable:  chosen,
		ResponseKey: responseKey,
		Path:        path,
	})
	m.fetchOf[chosen] = fetchID

	for _, e := range m.space.Out[chosen] {
		if e.Kind == solve.FieldEdge {
			if err := m.processField(fetchID, childSubgraph, path, chosen, e.To); err != nil {
				return err
			}
		}
	}

	// @requires siblings attach at the SAME level as qNode itself (they are
	// peers under parentPNode, not children of chosen), since they feed the
	// representation this field's resolver needs, not a nested selection.
	for _, e := range m.space.Out[chosen] {
		if e.Kind != solve.RequiresEdge {
			continue
		}
		if err := m.processField(parentFetchID, parentSubgraph, parentPath, parentPNode, e.To); err != nil {
			return err
		}
		siblingChosen, ok := m.tree.Chosen[e.To]
		if !ok {
			return &MaterializeError{Message: "a required field has no chosen alternative"}
		}
		siblingFetch, ok := m.fetchOf[siblingChosen]
		if !ok {
			return &MaterializeError{Message: "a required field's fetch was not recorded"}
		}
		if siblingFetch != fetchID {
			m.addDependsOn(fetchID, siblingFetch)
		}
	}

	return nil
}

func (m *materializer) responseKeyFor(qNode solve.NodeID) string {
	n := m.space.Nodes[qNode]
	if n.Synthetic {
		// Extra fields pulled in only to satisfy a @requires never appear in
		// the client's selection, so their alias cannot collide with one the
		// client wrote; suffix with the field id anyway so two distinct
		// requirements on the same parent never collide with each other.
		return m.sch.FieldName(n.SchemaField) + "__" + strconv.FormatInt(int64(n.SchemaField), 16)
	}
	bf := m.op.Fields[n.Field]
	return m.sch.Interner.String(bf.ResponseKey)
}

func (m *materializer) rootFetch(subgraph schema.SubgraphID) FetchID {
	if id, ok := m.rootFetches[subgraph]; ok {
		return id
	}
	id := FetchID(len(m.fetches))
	m.fetches = append(m.fetches, Fetch{ID: id, Kind: RootFetchKind, Subgraph: subgraph})
	m.rootFetches[subgraph] = id
	return id
}

func (m *materializer) entityFetch(parentPNode solve.NodeID, subgraph schema.SubgraphID, entityType schema.TypeID, dependsOn FetchID, insertionPath []string) (FetchID, error) {
	k := fetchKey{parent: parentPNode, subgraph: subgraph}
	if id, ok := m.entityFetches[k]; ok {
		return id, nil
	}

	var keyID schema.KeyID = -1
	for _, kid := range m.sch.Types[entityType].Keys {
		if key := m.sch.Keys[kid]; key.Subgraph == subgraph && key.Resolvable {
			keyID = kid
			break
		}
	}
	if keyID == -1 {
		return NoFetch, &MaterializeError{Message: "entity " + m.sch.TypeName(entityType) + " has no resolvable key in the target subgraph"}
	}

	id := FetchID(len(m.fetches))
	m.fetches = append(m.fetches, Fetch{
		ID:            id,
		Kind:          EntityFetchKind,
		Subgraph:      subgraph,
		EntityType:    entityType,
		Key:           keyID,
		ParentNode:    parentPNode,
		InsertionPath: append([]string{}, insertionPath...),
		DependsOn:     []FetchID{dependsOn},
	})
	m.entityFetches[k] = id
	return id, nil
}

func (m *materializer) addDependsOn(from, to FetchID) {
	for _, d := range m.fetches[from].DependsOn {
		if d == to {
			return
		}
	}
	m.fetches[from].DependsOn = append(m.fetches[from].DependsOn, to)
}
