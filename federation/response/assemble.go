package response

import (
	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// Assembler accumulates subgraph fetch results into one client-shaped tree.
// A coordinator drives it one fetch at a time, in dependency order: a root
// fetch's data is merged directly; an entity fetch's representations are
// built from whatever root/ancestor data is already in the tree via
// RepresentationsFor, and its _entities result is spliced back in via
// MergeEntities.
type Assembler struct {
	sch  *schema.Schema
	op   *operation.BoundOperation
	plan *plan.Plan

	data   map[string]interface{}
	errors []Error
}

// NewAssembler starts a fresh assembly for one operation's plan.
func NewAssembler(sch *schema.Schema, op *operation.BoundOperation, p *plan.Plan) *Assembler {
	return &Assembler{sch: sch, op: op, plan: p, data: map[string]interface{}{}}
}

// MergeRoot merges a root fetch's top-level data fields directly into the
// response tree (a root fetch's Fetch.InsertionPath is always empty, since
// it resolves fields of the operation's own root type).
func (a *Assembler) MergeRoot(data map[string]interface{}) {
	for k, v := range data {
		a.data[k] = v
	}
}

// RepresentationsFor walks the tree already assembled to fetch.InsertionPath
// and builds one _Any representation per entity instance found there, using
// fetch's @key field set. An instance missing a key field (because its
// containing object resolved to null, or the owning fetch failed and left
// it absent) is skipped; MergeEntities skips the same instances in lockstep
// so the two stay aligned positionally.
func (a *Assembler) RepresentationsFor(fetchID plan.FetchID) ([]map[string]interface{}, error) {
	_, reps, err := a.targetsAndRepresentations(fetchID)
	return reps, err
}

// MergeEntities splices an _entities fetch's results back into the objects
// RepresentationsFor(fetchID) built representations from, in the same
// order.
func (a *Assembler) MergeEntities(fetchID plan.FetchID, entities []interface{}) error {
	targets, _, err := a.targetsAndRepresentations(fetchID)
	if err != nil {
		return err
	}
	// A subgraph may come back with fewer entities than representations were
	// sent for (it found nothing for a later key, or errored partway through
	// its own resolution). Splice positionally and leave any unmatched
	// target's fields absent, so they null-propagate per their own wrapping
	// instead of failing the whole fetch.
	for i, t := range targets {
		if i >= len(entities) {
			break
		}
		em, ok := entities[i].(map[string]interface{})
		if !ok {
			continue
		}
		for k, v := range em {
			if k == "__typename" {
				continue
			}
			t[k] = v
		}
	}
	return nil
}

// RecordError appends a client-facing error to the response.
func (a *Assembler) RecordError(err Error) {
	a.errors = append(a.errors, err)
}

// Finish prunes the assembled tree down to exactly what the client
// selected, recovers abstract __typename where needed, and bubbles a null
// for any non-null field that came back missing up to its nearest nullable
// ancestor.
func (a *Assembler) Finish() *Response {
	out, _ := a.pruneSelectionSet(a.op.Root, a.op.Type, a.data, nil)
	return &Response{Data: out, Errors: a.errors}
}

func (a *Assembler) targetsAndRepresentations(fetchID plan.FetchID) (targets, reps []map[string]interface{}, err error) {
	f := &a.plan.Fetches[fetchID]
	if f.Kind != plan.EntityFetchKind {
		return nil, nil, &AssembleError{Message: "only an entity fetch has representations"}
	}
	objs := collectObjectsAtPath(a.data, f.InsertionPath)
	typeName := a.sch.TypeName(f.EntityType)
	keyFieldSet := a.sch.Keys[f.Key].FieldSet

	for _, obj := range objs {
		if obj == nil {
			continue
		}
		rep := buildRepresentation(obj, typeName, keyFieldSet)
		if rep == nil {
			continue
		}
		targets = append(targets, obj)
		reps = append(reps, rep)
	}
	return targets, reps, nil
}

// collectObjectsAtPath navigates data through path, flattening any list
// encountered at any segment (including the final one), and returns the
// flat, positionally-ordered set of objects found there. A missing or null
// value along the way simply contributes nothing.
func collectObjectsAtPath(data map[string]interface{}, path []string) []map[string]interface{} {
	cur := []interface{}{map[string]interface{}(data)}
	for _, seg := range path {
		var next []interface{}
		for _, c := range cur {
			m, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			v, ok := m[seg]
			if !ok || v == nil {
				continue
			}
			next = append(next, v)
		}
		cur = flattenLists(next)
	}

	out := make([]map[string]interface{}, 0, len(cur))
	for _, c := range cur {
		if m, ok := c.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func flattenLists(vs []interface{}) []interface{} {
	var out []interface{}
	for _, v := range vs {
		if list, ok := v.([]interface{}); ok {
			out = append(out, flattenLists(list)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

// buildRepresentation reads fs's fields out of obj into an _Any
// representation, returning nil if any key field is absent (obj cannot be
// identified to the target subgraph, so it is simply left unresolved).
func buildRepresentation(obj map[string]interface{}, typeName string, fs schema.FieldSet) map[string]interface{} {
	rep := map[string]interface{}{"__typename": typeName}
	if !addFieldSet(rep, obj, fs) {
		return nil
	}
	return rep
}

func addFieldSet(rep, obj map[string]interface{}, fs schema.FieldSet) bool {
	for _, sel := range fs.Selections {
		v, ok := obj[sel.FieldName]
		if !ok {
			return false
		}
		if len(sel.SubSet.Selections) == 0 {
			rep[sel.FieldName] = v
			continue
		}
		sub, ok := v.(map[string]interface{})
		if !ok {
			return false
		}
		nested := map[string]interface{}{}
		if !addFieldSet(nested, sub, sel.SubSet) {
			return false
		}
		rep[sel.FieldName] = nested
	}
	return true
}
