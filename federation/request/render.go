package request

import (
	"sort"
	"strings"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

// Render builds the GraphQL document for fetch f. representations carries
// one map per entity instance to resolve and is only consulted for an
// EntityFetchKind fetch; the coordinator builds it at runtime from whatever
// fetch f.DependsOn produced.
func Render(sch *schema.Schema, op *operation.BoundOperation, space *solve.Space, tree *solve.Tree, p *plan.Plan, f *plan.Fetch, vars operation.Variables, representations []map[string]interface{}) (*Document, error) {
	r := &renderer{sch: sch, op: op, space: space, tree: tree, plan: p, fetch: f, byQuery: map[solve.NodeID]plan.PlannedField{}}
	for _, pf := range f.Fields {
		r.byQuery[pf.Query] = pf
	}

	entries := r.topLevelEntries()
	usedVars := r.usedVariables()

	var sb strings.Builder
	switch f.Kind {
	case plan.RootFetchKind:
		r.writeHeader(&sb, usedVars, nil)
		sb.WriteString(" {\n")
		for _, q := range entries {
			if err := r.writeField(&sb, q, "\t"); err != nil {
				return nil, err
			}
		}
		sb.WriteString("}")

	case plan.EntityFetchKind:
		if len(representations) == 0 {
			return nil, &RenderError{Message: "entity fetch requires at least one representation"}
		}
		r.writeHeader(&sb, usedVars, []string{"representations"})
		sb.WriteString(" {\n\t_entities(representations: $representations) {\n\t\t... on ")
		sb.WriteString(sch.TypeName(f.EntityType))
		sb.WriteString(" {\n")
		for _, q := range entries {
			if err := r.writeField(&sb, q, "\t\t\t"); err != nil {
				return nil, err
			}
		}
		sb.WriteString("\t\t}\n\t}\n}")

	default:
		return nil, &RenderError{Message: "unknown fetch kind"}
	}

	outVars := make(map[string]interface{}, len(usedVars)+1)
	for name := range usedVars {
		iv, ok := vars[name]
		if !ok {
			return nil, &RenderError{Message: "variable $" + name + " is used by this fetch but absent from the coerced variables"}
		}
		outVars[name] = toJSONValue(sch, iv)
	}
	if f.Kind == plan.EntityFetchKind {
		outVars["representations"] = representations
	}

	return &Document{Query: sb.String(), Variables: outVars}, nil
}

// renderer holds the state threaded through one Render call.
type renderer struct {
	sch   *schema.Schema
	op    *operation.BoundOperation
	space *solve.Space
	tree  *solve.Tree
	plan  *plan.Plan
	fetch *plan.Fetch

	// byQuery indexes fetch.Fields by their QueryFieldNode, restricted to
	// this fetch only.
	byQuery map[solve.NodeID]plan.PlannedField
}

// topLevelEntries returns the QueryFieldNodes this fetch selects directly at
// its own root (Path length 1), in a deterministic order.
func (r *renderer) topLevelEntries() []solve.NodeID {
	var out []solve.NodeID
	for _, pf := range r.fetch.Fields {
		if len(pf.Path) == 1 {
			out = append(out, pf.Query)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// usedVariables collects the distinct variable names referenced by an
// argument anywhere within this fetch's own fields.
func (r *renderer) usedVariables() map[string]bool {
	used := map[string]bool{}
	for _, pf := range r.fetch.Fields {
		n := r.space.Nodes[pf.Query]
		if n.Synthetic {
			continue
		}
		bf := r.op.Fields[n.Field]
		for _, a := range bf.Arguments {
			if a.Value.Kind == operation.ValueVariable {
				used[a.Value.VariableName] = true
			}
		}
	}
	return used
}

func (r *renderer) operationKeyword() string {
	if r.fetch.Kind == plan.EntityFetchKind {
		// _entities is always a query root field, regardless of which
		// operation type originally selected the entity.
		return "query"
	}
	switch r.op.Kind {
	case ast.Mutation:
		return "mutation"
	case ast.Subscription:
		return "subscription"
	default:
		return "query"
	}
}

// variableType finds the schema type of the first argument referencing
// $name within this fetch, so the header can declare it.
func (r *renderer) variableType(name string) string {
	for _, pf := range r.fetch.Fields {
		n := r.space.Nodes[pf.Query]
		if n.Synthetic {
			continue
		}
		bf := r.op.Fields[n.Field]
		for _, a := range bf.Arguments {
			if a.Value.Kind == operation.ValueVariable && a.Value.VariableName == name {
				arg := r.sch.Arguments[a.Schema]
				return arg.Wrapping.TypeString(r.sch.TypeName(arg.Type))
			}
		}
	}
	return "String"
}

func (r *renderer) writeHeader(sb *strings.Builder, usedVars map[string]bool, extra []string) {
	sb.WriteString(r.operationKeyword())

	names := make([]string, 0, len(usedVars)+len(extra))
	names = append(names, extra...)
	rest := make([]string, 0, len(usedVars))
	for name := range usedVars {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	names = append(names, rest...)
	if len(names) == 0 {
		return
	}

	sb.WriteString(" (")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("$")
		sb.WriteString(name)
		sb.WriteString(": ")
		if name == "representations" {
			sb.WriteString("[_Any!]!")
			continue
		}
		sb.WriteString(r.variableType(name))
	}
	sb.WriteString(")")
}

func (r *renderer) fieldNameFor(qNode solve.NodeID) string {
	return r.sch.FieldName(r.space.Nodes[qNode].SchemaField)
}

// writeField renders qNode (already assigned to this fetch) and its
// same-fetch descendants, stopping at any position where resolution hops
// into a dependent fetch and emitting a representation stub there instead.
func (r *renderer) writeField(sb *strings.Builder, qNode solve.NodeID, indent string) error {
	pf, ok := r.byQuery[qNode]
	if !ok {
		return &RenderError{Message: "field not assigned to the fetch being rendered"}
	}
	n := r.space.Nodes[qNode]

	name := r.fieldNameFor(qNode)
	sb.WriteString(indent)
	if pf.ResponseKey != name {
		sb.WriteString(pf.ResponseKey)
		sb.WriteString(": ")
	}
	sb.WriteString(name)

	if !n.Synthetic {
		if err := r.writeArguments(sb, r.op.Fields[n.Field].Arguments); err != nil {
			return err
		}
	}

	body, err := r.childSelectionLines(pf.Providable, indent+"\t")
	if err != nil {
		return err
	}
	if body != "" {
		sb.WriteString(" {\n")
		sb.WriteString(body)
		sb.WriteString(indent)
		sb.WriteString("}")
	}
	sb.WriteString("\n")
	return nil
}

func (r *renderer) writeArguments(sb *strings.Builder, args []operation.BoundArgument) error {
	if len(args) == 0 {
		return nil
	}
	sb.WriteString("(")
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.sch.Interner.String(r.sch.Arguments[a.Schema].Name))
		sb.WriteString(": ")
		if err := writeValue(sb, r.sch, a.Value); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

// childSelectionLines renders the body of chosen's object selection: every
// child FieldEdge still assigned to this fetch, plus, for any dependent
// entity fetch rooted at chosen, a __typename and key-field stub so the
// coordinator can build that fetch's representation from this response.
// A child produced by the §4.3 implementor fan-out (Node.ImplementorOnly)
// is grouped with its siblings under the same concrete type and wrapped in
// a single "... on <Type>" fragment, rather than written flatly.
func (r *renderer) childSelectionLines(chosen solve.NodeID, indent string) (string, error) {
	var sb strings.Builder
	written := map[string]bool{}

	fanOut := map[schema.TypeID][]solve.NodeID{}
	var fanOutOrder []schema.TypeID

	for _, e := range r.space.Out[chosen] {
		if e.Kind != solve.FieldEdge {
			continue
		}
		fID, ok := r.fetchIDFor(e.To)
		if !ok {
			return "", &RenderError{Message: "a child field was never assigned to a fetch"}
		}
		if fID != r.fetch.ID {
			// Resolved by a dependent fetch; handled via the key stub below.
			continue
		}
		if n := r.space.Nodes[e.To]; n.ImplementorOnly {
			if _, seen := fanOut[n.ParentType]; !seen {
				fanOutOrder = append(fanOutOrder, n.ParentType)
			}
			fanOut[n.ParentType] = append(fanOut[n.ParentType], e.To)
			continue
		}
		if err := r.writeField(&sb, e.To, indent); err != nil {
			return "", err
		}
		written[r.fieldNameFor(e.To)] = true
	}

	sort.Slice(fanOutOrder, func(i, j int) bool { return fanOutOrder[i] < fanOutOrder[j] })
	for _, implType := range fanOutOrder {
		nodes := fanOut[implType]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

		sb.WriteString(indent)
		sb.WriteString("... on ")
		sb.WriteString(r.sch.TypeName(implType))
		sb.WriteString(" {\n")
		for _, n := range nodes {
			if err := r.writeField(&sb, n, indent+"\t"); err != nil {
				return "", err
			}
		}
		sb.WriteString(indent)
		sb.WriteString("}\n")
	}

	for i := range r.plan.Fetches {
		ef := &r.plan.Fetches[i]
		if ef.Kind != plan.EntityFetchKind || ef.ParentNode != chosen {
			continue
		}
		if !written["__typename"] {
			sb.WriteString(indent)
			sb.WriteString("__typename\n")
			written["__typename"] = true
		}
		writeFieldSetStub(&sb, indent, r.sch.Keys[ef.Key].FieldSet, written)
	}

	return sb.String(), nil
}

func (r *renderer) fetchIDFor(qNode solve.NodeID) (plan.FetchID, bool) {
	chosen, ok := r.tree.Chosen[qNode]
	if !ok {
		return plan.NoFetch, false
	}
	id, ok := r.plan.NodeFetch[chosen]
	return id, ok
}

// writeFieldSetStub renders a @key FieldSet as plain field selections (no
// arguments or aliases ever appear in a FieldSet literal), skipping names
// already present in written at the top level.
func writeFieldSetStub(sb *strings.Builder, indent string, fs schema.FieldSet, written map[string]bool) {
	for _, sel := range fs.Selections {
		if written[sel.FieldName] {
			continue
		}
		sb.WriteString(indent)
		sb.WriteString(sel.FieldName)
		if len(sel.SubSet.Selections) > 0 {
			sb.WriteString(" {\n")
			writeFieldSetStub(sb, indent+"\t", sel.SubSet, map[string]bool{})
			sb.WriteString(indent)
			sb.WriteString("}")
		}
		sb.WriteString("\n")
		written[sel.FieldName] = true
	}
}
