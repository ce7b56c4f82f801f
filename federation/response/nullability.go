package response

import (
	"fmt"
	"math"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/wrapping"
)

// pruneSelectionSet restricts obj to exactly the fields set selects (so
// synthesized @requires fields and entity-hop key stubs never reach the
// client), recovering __typename for abstract parentType positions. It
// reports nullOut when one of its own non-null children had to be nulled,
// so the caller bubbles the null one level further up rather than handing
// back a map with a field missing that the schema guarantees is present.
func (a *Assembler) pruneSelectionSet(setID operation.SelectionSetID, parentType schema.TypeID, obj map[string]interface{}, path []interface{}) (map[string]interface{}, bool) {
	set := a.op.SelectionSets[setID]
	out := make(map[string]interface{}, set.Fields.End-set.Fields.Start)

	for i := set.Fields.Start; i < set.Fields.End; i++ {
		f := a.op.Fields[i]
		if !a.typeSatisfiesCondition(parentType, f.TypeCondition) {
			continue
		}
		key := a.sch.Interner.String(f.ResponseKey)

		if f.Kind == operation.TypenameFieldKind {
			out[key] = a.typenameOf(parentType, obj)
			continue
		}

		sf := a.sch.Fields[f.SchemaField]
		raw, present := obj[key]
		if !present {
			raw = nil
			if sf.Wrapping.IsNonNull() {
				a.RecordError(Error{
					Message: fmt.Sprintf("subgraph response is missing required field %q", key),
					Path:    append(append([]interface{}{}, path...), key),
					Extensions: map[string]interface{}{
						"code": "SUBGRAPH_INVALID_RESPONSE_ERROR",
					},
				})
			}
		}

		val, nullOut := a.pruneValue(raw, sf.Wrapping, sf.Type, f.SelectionSet, append(path, key))
		if nullOut {
			return nil, true
		}
		out[key] = val
	}
	return out, false
}

// pruneValue prunes one field's value according to its wrapping, popping
// list levels outside-in and recursing into an object's own selection set
// once every list level is gone. path is the response path to this value,
// used only to tag an error if coerceLeaf has to refuse a malformed scalar.
func (a *Assembler) pruneValue(value interface{}, w wrapping.Wrapping, typeID schema.TypeID, selSet operation.SelectionSetID, path []interface{}) (interface{}, bool) {
	if value == nil {
		return nil, w.IsNonNull()
	}

	if inner, isList := w.WithoutList(); isList {
		list, ok := value.([]interface{})
		if !ok {
			return nil, w.IsNonNull()
		}
		out := make([]interface{}, len(list))
		for i, el := range list {
			v, bad := a.pruneValue(el, inner, typeID, selSet, append(path, i))
			if bad {
				return nil, w.IsNonNull()
			}
			out[i] = v
		}
		return out, false
	}

	if selSet == operation.NoSelectionSet {
		val, refused := coerceLeaf(a.sch.Types[typeID], value, w)
		if refused {
			a.RecordError(Error{
				Message: fmt.Sprintf("subgraph returned an invalid value for %s", w.TypeString(a.sch.TypeName(typeID))),
				Path:    append([]interface{}{}, path...),
				Extensions: map[string]interface{}{
					"code": "SUBGRAPH_INVALID_RESPONSE_ERROR",
				},
			})
			return nil, w.IsNonNull()
		}
		return val, false
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, w.IsNonNull()
	}

	pruned, bad := a.pruneSelectionSet(selSet, a.concreteType(typeID, obj, path), obj, path)
	if bad {
		return nil, w.IsNonNull()
	}
	return pruned, false
}

// concreteType resolves typeID to the concrete object type a response value
// actually carries, using the subgraph-supplied __typename when typeID is
// abstract (interface or union). A missing or unresolvable __typename at an
// abstract position is a malformed subgraph response, so it is reported as
// such rather than silently treated as the abstract type itself.
func (a *Assembler) concreteType(typeID schema.TypeID, obj map[string]interface{}, path []interface{}) schema.TypeID {
	t := a.sch.Types[typeID]
	if t.Kind != schema.InterfaceKind && t.Kind != schema.UnionKind {
		return typeID
	}
	tn, ok := obj["__typename"].(string)
	if ok {
		if nameID, ok := a.sch.Interner.Lookup(tn); ok {
			if id, ok := a.sch.TypeByName(nameID); ok {
				return id
			}
		}
	}
	a.RecordError(Error{
		Message: fmt.Sprintf("subgraph response is missing or has an unknown __typename for abstract type %q", a.sch.TypeName(typeID)),
		Path:    append([]interface{}{}, path...),
		Extensions: map[string]interface{}{
			"code": "SUBGRAPH_INVALID_RESPONSE_ERROR",
		},
	})
	return typeID
}

// typeSatisfiesCondition reports whether a response value of the concrete
// runtime type concrete can be produced by a selection written under
// condition (a BoundField's TypeCondition). It is used to restrict a
// flattened selection set — inline fragments and fragment spreads are
// merged into one Fields range by the binder — back down to only the
// branches that actually apply to the type the subgraph sent.
func (a *Assembler) typeSatisfiesCondition(concrete, condition schema.TypeID) bool {
	if concrete == condition {
		return true
	}
	ct := a.sch.Types[condition]
	switch ct.Kind {
	case schema.UnionKind:
		for _, m := range ct.UnionMembers {
			if m == concrete {
				return true
			}
		}
	case schema.InterfaceKind:
		concreteT := a.sch.Types[concrete]
		for _, ifaces := range concreteT.Implements {
			for _, ifaceID := range ifaces {
				if ifaceID == condition {
					return true
				}
			}
		}
	}
	return false
}

// coerceLeaf applies the one scalar coercion subgraph replies actually need:
// encoding/json decodes every JSON number as float64, so an Int-typed field
// arrives as a float64 that must be narrowed back to an int when it is
// integral. Anything else a subgraph sent for an Int field (a non-integral
// float, a string, an object) is refused rather than silently passed through.
func coerceLeaf(t schema.Type, value interface{}, w wrapping.Wrapping) (interface{}, bool) {
	if t.Kind != schema.ScalarKind || t.Scalar != schema.ScalarInt {
		return value, false
	}
	switch n := value.(type) {
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, true
		}
		return n, false
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, true
		}
		return int(n), false
	default:
		return nil, true
	}
}

func (a *Assembler) typenameOf(parentType schema.TypeID, obj map[string]interface{}) string {
	if tn, ok := obj["__typename"].(string); ok && tn != "" {
		return tn
	}
	return a.sch.TypeName(parentType)
}
