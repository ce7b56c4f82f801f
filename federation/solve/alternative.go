package solve

import (
	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// recover runs the 4.3 alternative-finding cascade for a query field with
// zero directly reachable providable alternatives: first retargeting
// through an implemented interface, then (if the parent itself is an
// interface) fanning out across concrete implementors. Either installs at
// least one alternative for qNode or returns CouldNotPlanField.
func (b *builder) recover(qNode, parent NodeID, schemaFieldID schema.FieldID, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool, childSet operation.SelectionSetID) error {
	if !parentIsRoot {
		if installed, err := b.retargetThroughInterface(qNode, schemaFieldID, parentType, parentSubgraph, parentIsRoot, childSet); err != nil {
			return err
		} else if installed {
			return nil
		}

		if b.sch.Types[parentType].Kind == schema.InterfaceKind {
			if installed, err := b.expandThroughImplementors(qNode, parent, schemaFieldID, parentType, parentSubgraph, childSet); err != nil {
				return err
			} else if installed {
				return nil
			}
		}
	}

	return &CouldNotPlanField{
		FieldName: b.sch.FieldName(schemaFieldID),
		TypeName:  b.sch.TypeName(parentType),
	}
}

// retargetThroughInterface looks for an interface parentType implements
// (in any subgraph) that declares a field of the same name, and if one is
// reachable, installs its alternatives onto qNode instead.
func (b *builder) retargetThroughInterface(qNode NodeID, schemaFieldID schema.FieldID, parentType schema.TypeID, parentSubgraph schema.SubgraphID, parentIsRoot bool, childSet operation.SelectionSetID) (bool, error) {
	fieldName := b.sch.Fields[schemaFieldID].Name
	t := b.sch.Types[parentType]

	seen := map[schema.TypeID]bool{}
	for _, ifaces := range t.Implements {
		for _, ifaceID := range ifaces {
			if seen[ifaceID] {
				continue
			}
			seen[ifaceID] = true

			ifaceFieldID, ok := b.sch.FieldByName(ifaceID, fieldName)
			if !ok {
				continue
			}
			ifaceField := b.sch.Fields[ifaceFieldID]
			candidates := b.sch.SubgraphsForField(ifaceFieldID)

			installed := 0
			for _, s := range candidates {
				reachable, cost := b.reachability(ifaceID, parentSubgraph, parentIsRoot, s)
				if !reachable {
					continue
				}
				pNode := b.installAlternative(qNode, ifaceFieldID, ifaceField, s, cost, ifaceID, parentSubgraph, parentIsRoot)
				installed++
				if childSet != operation.NoSelectionSet {
					if err := b.walkUserSelectionSet(childSet, pNode, ifaceField.Type, s, false); err != nil {
						return false, err
					}
				}
			}
			if installed > 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

// expandThroughImplementors fans qNode's field out across every concrete
// type implementing the interface parentType in parentSubgraph, requiring
// each implementor to declare the field itself. All inbound providers of
// an interface position necessarily share parentSubgraph (the resolver
// that produced the interface value is a single subgraph fetch), so this
// is only attempted once retargeting through a broader interface fails.
//
// Unlike retargetThroughInterface, this is not a choice between competing
// alternatives for the same field: at runtime exactly one implementor's
// branch will apply, decided by the concrete __typename the subgraph
// returns, but the planner cannot know which ahead of time and so must
// plan every implementor's resolution. Each implementor therefore gets its
// own sibling QueryFieldNode (hung off the same parent as qNode, which is
// left unused) with its own terminal group, rather than another
// alternative crammed into qNode's single-choice group — Solve can only
// pick one member per group, so stuffing every implementor into qNode's
// group would make it impossible to select more than one of them.
func (b *builder) expandThroughImplementors(qNode, parent NodeID, schemaFieldID schema.FieldID, parentType schema.TypeID, parentSubgraph schema.SubgraphID, childSet operation.SelectionSetID) (bool, error) {
	origField := b.space.Nodes[qNode].Field
	fieldName := b.sch.Fields[schemaFieldID].Name

	installed := 0
	for implID, implType := range b.sch.Types {
		ifaces, ok := implType.Implements[parentSubgraph]
		if !ok || implType.Kind != schema.ObjectKind {
			continue
		}
		implements := false
		for _, ifaceID := range ifaces {
			if ifaceID == parentType {
				implements = true
				break
			}
		}
		if !implements {
			continue
		}

		implFieldID, ok := b.sch.FieldByName(schema.TypeID(implID), fieldName)
		if !ok {
			return false, &CouldNotPlanField{FieldName: b.sch.Interner.String(fieldName), TypeName: b.sch.TypeName(schema.TypeID(implID))}
		}
		implField := b.sch.Fields[implFieldID]
		candidates := b.sch.SubgraphsForField(implFieldID)

		var reachableSubgraphs []schema.SubgraphID
		var reachableCosts []int
		for _, s := range candidates {
			if reachable, cost := b.reachability(schema.TypeID(implID), parentSubgraph, false, s); reachable {
				reachableSubgraphs = append(reachableSubgraphs, s)
				reachableCosts = append(reachableCosts, cost)
			}
		}
		if len(reachableSubgraphs) == 0 {
			continue
		}

		key := queryNodeKey{parent: parent, operationID: origField, synthetic: implFieldID}
		implQNode, exists := b.queryNode[key]
		if !exists {
			implQNode = b.space.addNode(Node{
				Kind:            QueryFieldNodeKind,
				Field:           origField,
				SchemaField:     implFieldID,
				ParentType:      schema.TypeID(implID),
				ImplementorOnly: true,
			})
			b.space.addEdge(parent, Edge{To: implQNode, Kind: FieldEdge, Cost: 0})
			b.queryNode[key] = implQNode
		}

		for i, s := range reachableSubgraphs {
			pNode := b.installAlternative(implQNode, implFieldID, implField, s, reachableCosts[i], schema.TypeID(implID), parentSubgraph, false)
			if childSet != operation.NoSelectionSet {
				if err := b.walkUserSelectionSet(childSet, pNode, implField.Type, s, false); err != nil {
					return false, err
				}
			}
		}
		installed++
	}

	return installed > 0, nil
}
