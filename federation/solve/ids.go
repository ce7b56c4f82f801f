// Package solve turns a bound operation into a minimum-cost subgraph fetch
// tree. It builds a directed solution-space graph of query fields, their
// providable alternatives and the resolvers that emit them, then runs an
// incremental shortest-path Steiner-tree construction over it.
package solve

import (
	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// NodeID indexes a Space's Nodes arena.
type NodeID int

// NoNode is the sentinel for an absent node reference.
const NoNode NodeID = -1

// NodeKind distinguishes the four node shapes of the solution space.
type NodeKind int

const (
	// RootNode is the single synthetic entry point the tree is rooted at.
	RootNode NodeKind = iota
	// QueryFieldNodeKind is a field of the user's operation.
	QueryFieldNodeKind
	// ProvidableFieldNodeKind is "field f providable by subgraph s".
	ProvidableFieldNodeKind
	// TypenameNodeKind is a __typename selection.
	TypenameNodeKind
)

// EdgeKind tags the relationship an Edge represents.
type EdgeKind int

const (
	// FieldEdge: parent query field/root to a child query field.
	FieldEdge EdgeKind = iota
	// AlternativeEdge: a query field to one of its providable alternatives.
	AlternativeEdge
	// ProvidesEdge: a providable field to one it provides without a hop.
	ProvidesEdge
	// RequiresEdge: a providable field to a sibling query field it needs
	// resolved (and sequenced) before it can run.
	RequiresEdge
	// TypenameFieldEdge: parent to a synthesized __typename node.
	TypenameFieldEdge
)

// Node is one entry of a Space's Nodes arena. Only the fields relevant to
// Kind are populated.
type Node struct {
	Kind NodeKind

	// QueryFieldNodeKind / TypenameNodeKind
	Field       operation.FieldID // valid when Synthetic is false
	Synthetic   bool              // true for fields added by the requires cascade, not user-selected
	SchemaField schema.FieldID
	ParentType  schema.TypeID

	// ImplementorOnly marks a QueryFieldNode created by the §4.3
	// implementor-fan-out cascade: it shares its Field with the interface
	// selection that triggered the cascade, but resolves a different
	// concrete implementor's own declaration of the field, and must be
	// rendered under an "... on <ParentType>" fragment rather than flatly.
	ImplementorOnly bool

	// ProvidableFieldNodeKind
	QueryField NodeID
	Subgraph   schema.SubgraphID
	Resolver   schema.ResolverID
}

// Edge is a directed, weighted connection from one node to another.
type Edge struct {
	To   NodeID
	Kind EdgeKind
	Cost int
}

// Space is the solution-space DAG built for one operation.
type Space struct {
	Nodes []Node
	Out   [][]Edge

	Root NodeID

	// Terminals groups, per QueryFieldNode, the ProvidableFieldNode
	// alternatives that could satisfy it. Exactly one member
	// of each group must end up in the solved tree.
	Terminals map[NodeID][]NodeID
}

func (s *Space) addNode(n Node) NodeID {
	id := NodeID(len(s.Nodes))
	s.Nodes = append(s.Nodes, n)
	s.Out = append(s.Out, nil)
	return id
}

func (s *Space) addEdge(from NodeID, e Edge) {
	s.Out[from] = append(s.Out[from], e)
}
