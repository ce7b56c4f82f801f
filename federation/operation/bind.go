package operation

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// FieldKind distinguishes the two shapes a BoundField can take. Fields the
// planner adds to satisfy a @requires are not BoundFields; they exist only
// as synthetic nodes in the solution space.
type FieldKind int

const (
	// QueryFieldKind is an ordinary field resolved against the schema.
	QueryFieldKind FieldKind = iota
	// TypenameFieldKind is a synthesized __typename selection.
	TypenameFieldKind
)

// BoundArgument is a field argument bound to its schema ArgumentID, carrying
// the (possibly variable-referencing) value written in the operation.
type BoundArgument struct {
	Schema schema.ArgumentID
	Value  InputValue
}

// BoundField is one flattened field selection, with fragment spreads and
// inline fragments already expanded onto it. TypeCondition records the
// concrete or abstract type the selection applies under, so the planner can
// restrict it to matching concrete types at execution time.
type BoundField struct {
	Kind FieldKind

	// ResponseKey is the alias if present, otherwise the field name.
	ResponseKey schema.NameID

	// TypeCondition is the type this selection was written under (the
	// parent selection set's type, possibly narrowed by an inline fragment
	// or fragment spread). It is always a concrete object type, an
	// interface type, or a union type.
	TypeCondition schema.TypeID

	// SchemaField is unset (zero value) for TypenameFieldKind.
	SchemaField schema.FieldID
	Arguments   []BoundArgument

	SelectionSet SelectionSetID

	// Skip/Include hold a variable-referencing @skip(if:)/@include(if:)
	// condition on this selection; nil when the directive is absent or its
	// condition is a literal boolean. A literal boolean
	// is resolved once, here, and never carried forward (the field is
	// simply dropped or kept unconditionally). A variable reference is
	// carried forward so ApplyConditionals can resolve it per request,
	// since the same BoundOperation may be reused across requests with
	// different variable values.
	Skip    *InputValue
	Include *InputValue
}

// SelectionSet is a contiguous run of BoundFields sharing a parent selection.
type SelectionSet struct {
	Fields FieldRange
}

// BoundOperation is a client operation flattened onto id-indexed arenas and
// bound against a single supergraph schema.
type BoundOperation struct {
	Type schema.TypeID // root type (Query/Mutation/Subscription)
	Kind ast.OperationType

	Fields        []BoundField
	SelectionSets []SelectionSet

	Root SelectionSetID
}

// BindError is returned when a client operation cannot be bound to the
// schema: unknown field, unknown fragment, wrong argument, and so on.
type BindError struct {
	Path    string
	Message string
}

func (e *BindError) Error() string {
	if e.Path == "" {
		return "operation: " + e.Message
	}
	return fmt.Sprintf("operation: at %s: %s", e.Path, e.Message)
}

func bindErrf(path, format string, args ...interface{}) *BindError {
	return &BindError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// binder holds the mutable state threaded through one Bind call.
type binder struct {
	schema *schema.Schema
	doc    *ast.Document

	fragments map[string]*ast.FragmentDefinition

	fields        []BoundField
	selectionSets []SelectionSet
}

// Bind resolves operationName (or the sole operation, if the document
// defines only one) against schema, flattening fragments and producing a
// BoundOperation ready for argument coercion and query planning.
func Bind(sch *schema.Schema, doc *ast.Document, operationName string) (*BoundOperation, error) {
	b := &binder{
		schema:    sch,
		doc:       doc,
		fragments: map[string]*ast.FragmentDefinition{},
	}

	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok {
			b.fragments[frag.Name.String()] = frag
		}
	}

	op, err := b.selectOperation(operationName)
	if err != nil {
		return nil, err
	}

	rootType, err := b.rootTypeFor(op.Operation)
	if err != nil {
		return nil, err
	}

	rootSet, err := b.bindSelectionSet(op.SelectionSet, rootType, "")
	if err != nil {
		return nil, err
	}

	return &BoundOperation{
		Type:          rootType,
		Kind:          op.Operation,
		Fields:        b.fields,
		SelectionSets: b.selectionSets,
		Root:          rootSet,
	}, nil
}

func (b *binder) selectOperation(name string) (*ast.OperationDefinition, error) {
	var ops []*ast.OperationDefinition
	for _, def := range b.doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 {
		return nil, bindErrf("", "document defines no operations")
	}
	if name == "" {
		if len(ops) == 1 {
			return ops[0], nil
		}
		return nil, bindErrf("", "document defines %d operations, operationName is required", len(ops))
	}
	for _, op := range ops {
		if op.Name != nil && op.Name.String() == name {
			return op, nil
		}
	}
	return nil, bindErrf("", "no operation named %q", name)
}

func (b *binder) rootTypeFor(kind ast.OperationType) (schema.TypeID, error) {
	switch kind {
	case ast.Query:
		return b.schema.Query, nil
	case ast.Mutation:
		if !b.schema.HasMutation() {
			return 0, bindErrf("", "schema defines no mutation type")
		}
		return b.schema.Mutation, nil
	case ast.Subscription:
		if !b.schema.HasSubscription() {
			return 0, bindErrf("", "schema defines no subscription type")
		}
		return b.schema.Subscription, nil
	default:
		return 0, bindErrf("", "unknown operation type")
	}
}

// bindSelectionSet flattens sel (expanding fragment spreads and inline
// fragments) into a contiguous run of BoundFields tagged with typeCondition,
// appends it to b.selectionSets, and returns its id.
func (b *binder) bindSelectionSet(sel []ast.Selection, typeCondition schema.TypeID, path string) (SelectionSetID, error) {
	start := FieldID(len(b.fields))

	if err := b.flattenInto(sel, typeCondition, path); err != nil {
		return NoSelectionSet, err
	}

	end := FieldID(len(b.fields))
	id := SelectionSetID(len(b.selectionSets))
	b.selectionSets = append(b.selectionSets, SelectionSet{Fields: FieldRange{Start: start, End: end}})
	return id, nil
}

// flattenInto appends bound fields for sel directly onto b.fields, recursing
// into fragment spreads and inline fragments without opening a new
// SelectionSet for them (they share their parent's field range), matching
// the flattening the teacher's query builder performs for a single subgraph
// fetch. Each field narrows its own TypeCondition independently so abstract
// selections keep track of which concrete type they apply under.
func (b *binder) flattenInto(sel []ast.Selection, typeCondition schema.TypeID, path string) error {
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			skip, include, drop, err := conditionalsFor(node.Directives, path)
			if err != nil {
				return err
			}
			if drop {
				continue
			}

			if node.Name != nil && node.Name.String() == "__typename" {
				b.fields = append(b.fields, BoundField{
					Kind:          TypenameFieldKind,
					ResponseKey:   b.responseKey(node),
					TypeCondition: typeCondition,
					SelectionSet:  NoSelectionSet,
					Skip:          skip,
					Include:       include,
				})
				continue
			}

			field, err := b.bindField(node, typeCondition, path)
			if err != nil {
				return err
			}
			field.Skip = skip
			field.Include = include
			b.fields = append(b.fields, field)

		case *ast.InlineFragment:
			cond := typeCondition
			if node.TypeCondition != nil {
				name := node.TypeCondition.Name.String()
				t, ok := b.schema.TypeByName(b.intern(name))
				if !ok {
					return bindErrf(path, "unknown type condition %q", name)
				}
				cond = t
			}
			if err := b.flattenInto(node.SelectionSet, cond, path); err != nil {
				return err
			}

		case *ast.FragmentSpread:
			name := node.Name.String()
			frag, ok := b.fragments[name]
			if !ok {
				return bindErrf(path, "unknown fragment %q", name)
			}
			cond := typeCondition
			if frag.TypeCondition != nil {
				condName := frag.TypeCondition.Name.String()
				t, ok := b.schema.TypeByName(b.intern(condName))
				if !ok {
					return bindErrf(path, "unknown type condition %q", condName)
				}
				cond = t
			}
			if err := b.flattenInto(frag.SelectionSet, cond, path); err != nil {
				return err
			}

		default:
			return bindErrf(path, "unsupported selection node")
		}
	}
	return nil
}

func (b *binder) responseKey(node *ast.Field) schema.NameID {
	if node.Alias != nil {
		return b.intern(node.Alias.String())
	}
	return b.intern(node.Name.String())
}

func (b *binder) bindField(node *ast.Field, typeCondition schema.TypeID, path string) (BoundField, error) {
	fieldName := node.Name.String()
	childPath := path + "." + fieldName

	fieldID, ok := b.schema.FieldByName(typeCondition, b.intern(fieldName))
	if !ok {
		return BoundField{}, bindErrf(childPath, "field %q does not exist on type %q", fieldName, b.schema.TypeName(typeCondition))
	}
	schemaField := b.schema.Fields[fieldID]
	if schemaField.Inaccessible {
		return BoundField{}, bindErrf(childPath, "field %q is @inaccessible on type %q", fieldName, b.schema.TypeName(typeCondition))
	}

	args, err := b.bindArguments(node.Arguments, schemaField.Arguments, childPath)
	if err != nil {
		return BoundField{}, err
	}

	selSet := NoSelectionSet
	if len(node.SelectionSet) > 0 {
		selSet, err = b.bindSelectionSet(node.SelectionSet, schemaField.Type, childPath)
		if err != nil {
			return BoundField{}, err
		}
	}

	return BoundField{
		Kind:          QueryFieldKind,
		ResponseKey:   b.responseKey(node),
		TypeCondition: typeCondition,
		SchemaField:   fieldID,
		Arguments:     args,
		SelectionSet:  selSet,
	}, nil
}

func (b *binder) bindArguments(args []*ast.Argument, schemaArgs schema.ArgumentRange, path string) ([]BoundArgument, error) {
	bound := make([]BoundArgument, 0, len(args))
	for _, a := range args {
		name := a.Name.String()
		argID, ok := b.argumentByName(schemaArgs, name)
		if !ok {
			return nil, bindErrf(path, "unknown argument %q", name)
		}
		bound = append(bound, BoundArgument{
			Schema: argID,
			Value:  valueFromLiteral(a.Value),
		})
	}

	// Arguments not supplied in the literal fall back to their schema
	// default, resolved by reference rather than copied.
	for i := schemaArgs.Start; i < schemaArgs.End; i++ {
		found := false
		for _, a := range bound {
			if a.Schema == i {
				found = true
				break
			}
		}
		if found {
			continue
		}
		if def := b.schema.Arguments[i].DefaultValue; def != nil {
			bound = append(bound, BoundArgument{
				Schema: i,
				Value:  InputValue{Kind: ValueSchemaDefault, Default: def},
			})
		}
	}

	return bound, nil
}

func (b *binder) argumentByName(r schema.ArgumentRange, name string) (schema.ArgumentID, bool) {
	nameID, ok := b.schema.Interner.Lookup(name)
	if !ok {
		return 0, false
	}
	for i := r.Start; i < r.End; i++ {
		if b.schema.Arguments[i].Name == nameID {
			return i, true
		}
	}
	return 0, false
}

func (b *binder) intern(s string) schema.NameID {
	if id, ok := b.schema.Interner.Lookup(s); ok {
		return id
	}
	// Unknown names (never interned during Build) can never match a schema
	// id; return a sentinel that will simply fail every lookup.
	return schema.NameID(-1)
}
