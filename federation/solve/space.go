package solve

import (
	"fmt"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// BuildError is returned when an operation cannot be reduced to a solution
// space at all (distinct from CouldNotPlanField, which names one field).
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string { return "solve: " + e.Message }

// CouldNotPlanField is returned when a query field has no reachable
// providable alternative and the recovery cascade (alternative.go) could
// not install one either.
type CouldNotPlanField struct {
	FieldName string
	TypeName  string
}

func (e *CouldNotPlanField) Error() string {
	return fmt.Sprintf("solve: could not plan field %q on type %q: no subgraph can produce it from the resolved parent", e.FieldName, e.TypeName)
}

// queryNodeKey identifies a QueryFieldNode by the context it was created
// in: the providable parent it hangs off (or Root) and the field it
// represents. The same operation field reached through two different
// parent alternatives gets two distinct QueryFieldNodes, since its
// reachable subgraph alternatives can differ per parent. Synthetic fields
// (added to satisfy @requires) are keyed by schema field id instead of
// operation field id, since they have no operation arena entry.
type queryNodeKey struct {
	parent      NodeID
	operationID operation.FieldID
	synthetic   schema.FieldID
}

type builder struct {
	sch *schema.Schema
	op  *operation.BoundOperation

	space     *Space
	queryNode map[queryNodeKey]NodeID
}

// Build constructs the solution-space DAG for op against sch, running the
// 4.3 recovery cascade inline whenever a user-selected field has no
// directly reachable alternative.
func Build(sch *schema.Schema, op *operation.BoundOperation) (*Space, error) {
	if op.Root == operation.NoSelectionSet {
		return nil, &BuildError{Message: "operation has no root selection set"}
	}

	b := &builder{
		sch:       sch,
		op:        op,
		space:     &Space{Terminals: map[NodeID][]NodeID{}},
		queryNode: map[queryNodeKey]NodeID{},
	}
	b.space.Root = b.space.addNode(Node{Kind: RootNode})

	if err := b.walkUserSelectionSet(op.Root, b.space.Root, op.Type, 0, true); err != nil {
		return nil, err
	}
	return b.space, nil
}

// walkUserSelectionSet expands every field of ssID, a real operation
// selection set, under parent (resolved at parentType, and at
// parentSubgraph unless parentIsRoot).
func (b *builder) walkUserSelectionSet(ssID operation.SelectionSetID, parent NodeID, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool) error {
	set := b.op.SelectionSets[ssID]
	for fid := set.Fields.Start; fid < set.Fields.End; fid++ {
		bf := b.op.Fields[fid]

		if bf.Kind == operation.TypenameFieldKind {
			node := b.space.addNode(Node{Kind: TypenameNodeKind, ParentType: parentType})
			b.space.addEdge(parent, Edge{To: node, Kind: TypenameFieldEdge, Cost: 0})
			continue
		}

		key := queryNodeKey{parent: parent, operationID: fid}
		if _, exists := b.queryNode[key]; exists {
			continue
		}
		qNode := b.space.addNode(Node{
			Kind:        QueryFieldNodeKind,
			Field:       fid,
			SchemaField: bf.SchemaField,
			ParentType:  parentType,
		})
		b.space.addEdge(parent, Edge{To: qNode, Kind: FieldEdge, Cost: 0})
		b.queryNode[key] = qNode

		if err := b.expandAlternatives(qNode, parent, bf.SchemaField, parentType, parentSubgraph, parentIsRoot, bf.SelectionSet); err != nil {
			return err
		}
	}
	return nil
}

// expandAlternatives creates one ProvidableFieldNode per subgraph that can
// produce schemaFieldID and is reachable from the parent's resolved
// position, recursing into each alternative's child selections (which may
// differ in reachable subgraphs depending on which alternative was taken).
// If no alternative is directly reachable, it defers to the 4.3 recovery
// cascade before giving up.
func (b *builder) expandAlternatives(qNode, parent NodeID, schemaFieldID schema.FieldID, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool, childSet operation.SelectionSetID) error {
	schemaField := b.sch.Fields[schemaFieldID]
	candidates := b.sch.SubgraphsForField(schemaFieldID)

	installed := 0
	for _, s := range candidates {
		reachable, cost := b.reachability(parentType, parentSubgraph, parentIsRoot, s)
		if !reachable {
			continue
		}
		pNode := b.installAlternative(qNode, schemaFieldID, schemaField, s, cost, parentType, parentSubgraph, parentIsRoot)
		installed++

		if childSet != operation.NoSelectionSet {
			if err := b.walkUserSelectionSet(childSet, pNode, schemaField.Type, s, false); err != nil {
				return err
			}
		}
	}

	if installed == 0 {
		return b.recover(qNode, parent, schemaFieldID, parentType, parentSubgraph, parentIsRoot, childSet)
	}
	return nil
}

// installAlternative records one ProvidableFieldNode for schemaFieldID in
// subgraph s, wiring its resolver, Requires edges, and terminal-group
// membership. Shared by expandAlternatives (user fields) and
// expandSyntheticAlternatives (fields added to satisfy @requires).
func (b *builder) installAlternative(qNode NodeID, schemaFieldID schema.FieldID, schemaField schema.Field, s schema.SubgraphID, cost int, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool) NodeID {
	resolver := b.findResolver(parentIsRoot, schemaFieldID, parentType, s)
	pNode := b.space.addNode(Node{
		Kind:       ProvidableFieldNodeKind,
		QueryField: qNode,
		Subgraph:   s,
		Resolver:   resolver,
	})
	b.space.addEdge(qNode, Edge{To: pNode, Kind: AlternativeEdge, Cost: cost})
	b.space.Terminals[qNode] = append(b.space.Terminals[qNode], pNode)

	if fs, ok := schemaField.Requires[s]; ok {
		for _, sel := range fs.Selections {
			b.requireField(pNode, sel, parentType, parentSubgraph, parentIsRoot)
		}
	}
	return pNode
}

// requireField ensures the sibling field named by sel exists as a
// (possibly synthetic) QueryFieldNode reachable from the same parent
// context as the field that requires it, wires a RequiresEdge from
// requirer to it, and recurses into sel.SubSet.
func (b *builder) requireField(requirer NodeID, sel schema.FieldSetSelection, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool) {
	fieldID, ok := b.sch.FieldByName(parentType, b.nameID(sel.FieldName))
	if !ok {
		// The schema builder already validated @requires/@key FieldSets
		// against the declaring type; an unresolvable name here would be a
		// composition bug, not a plannable-operation error.
		return
	}

	key := queryNodeKey{parent: requirer, synthetic: fieldID}
	node, exists := b.queryNode[key]
	if !exists {
		node = b.space.addNode(Node{Kind: QueryFieldNodeKind, Synthetic: true, SchemaField: fieldID, ParentType: parentType})
		b.queryNode[key] = node
		b.expandSyntheticAlternatives(node, fieldID, parentType, parentSubgraph, parentIsRoot, sel.SubSet)
	}
	b.space.addEdge(requirer, Edge{To: node, Kind: RequiresEdge, Cost: 0})
}

// expandSyntheticAlternatives is expandAlternatives' counterpart for fields
// introduced by @requires, whose child selections come from a schema
// FieldSet rather than the operation's own selection-set arena.
func (b *builder) expandSyntheticAlternatives(qNode NodeID, schemaFieldID schema.FieldID, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool, subSet schema.FieldSet) {
	schemaField := b.sch.Fields[schemaFieldID]
	candidates := b.sch.SubgraphsForField(schemaFieldID)

	for _, s := range candidates {
		reachable, cost := b.reachability(parentType, parentSubgraph, parentIsRoot, s)
		if !reachable {
			continue
		}
		pNode := b.installAlternative(qNode, schemaFieldID, schemaField, s, cost, parentType, parentSubgraph, parentIsRoot)
		for _, sub := range subSet.Selections {
			b.requireField(pNode, sub, schemaField.Type, s, false)
		}
	}
}

// reachability reports whether a field owned by target can be produced
// given the parent was resolved at parentType in parentSubgraph: directly
// (same subgraph, or any subgraph at all from the synthetic root), or via a
// resolvable @key on parentType that target declares (a new entity fetch).
func (b *builder) reachability(parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool, target schema.SubgraphID) (bool, int) {
	if parentIsRoot {
		return true, 0
	}
	if parentSubgraph == target {
		return true, 0
	}
	for _, k := range b.sch.ResolvableKeys(parentType) {
		if k.Subgraph == target {
			return true, 1
		}
	}
	return false, 0
}

func (b *builder) findResolver(parentIsRoot bool, schemaFieldID schema.FieldID, parentType schema.TypeID, subgraph schema.SubgraphID) schema.ResolverID {
	if parentIsRoot {
		for i, r := range b.sch.Resolvers {
			if r.Kind == schema.RootResolver && r.Subgraph == subgraph && r.RootField == schemaFieldID {
				return schema.ResolverID(i)
			}
		}
		return -1
	}
	for i, r := range b.sch.Resolvers {
		if r.Kind == schema.EntityResolver && r.Subgraph == subgraph && r.Entity == parentType {
			return schema.ResolverID(i)
		}
	}
	return -1
}

func (b *builder) nameID(s string) schema.NameID {
	id, _ := b.sch.Interner.Lookup(s)
	return id
}
