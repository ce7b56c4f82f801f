// Package operation binds a parsed client GraphQL operation to a supergraph
// schema and coerces its arguments and variables, producing the flat,
// id-indexed arena the solver and planner consume.
package operation

// FieldID indexes a BoundOperation's Fields arena.
type FieldID int

// SelectionSetID indexes a BoundOperation's SelectionSets arena.
type SelectionSetID int

// NoSelectionSet marks a leaf field (no sub-selection).
const NoSelectionSet SelectionSetID = -1

// FieldRange is a [Start, End) half-open range of FieldIDs.
type FieldRange struct {
	Start, End FieldID
}

func (r FieldRange) Len() int { return int(r.End - r.Start) }
