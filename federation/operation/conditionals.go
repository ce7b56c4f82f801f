package operation

import (
	"github.com/n9te9/graphql-parser/ast"
)

// conditionalsFor inspects a selection's @skip/@include directives. A
// literal boolean is resolved immediately: drop reports whether the
// selection should be dropped outright (so it never enters the bound
// operation at all), and skip/include are left nil. A variable-referencing
// condition cannot be resolved until request time, so it is returned for
// ApplyConditionals to evaluate later.
func conditionalsFor(directives []*ast.Directive, path string) (skip, include *InputValue, drop bool, err error) {
	for _, d := range directives {
		switch d.Name {
		case "skip":
			v, resolved, litVal, derr := conditionalArgument(d, path)
			if derr != nil {
				return nil, nil, false, derr
			}
			if resolved {
				if litVal {
					return nil, nil, true, nil
				}
				continue
			}
			skip = v
		case "include":
			v, resolved, litVal, derr := conditionalArgument(d, path)
			if derr != nil {
				return nil, nil, false, derr
			}
			if resolved {
				if !litVal {
					return nil, nil, true, nil
				}
				continue
			}
			include = v
		}
	}
	return skip, include, false, nil
}

func conditionalArgument(d *ast.Directive, path string) (value *InputValue, resolved bool, litVal bool, err error) {
	for _, a := range d.Arguments {
		if a.Name.String() != "if" {
			continue
		}
		v := valueFromLiteral(a.Value)
		if v.Kind == ValueBoolean {
			return nil, true, v.Bool, nil
		}
		return &v, false, false, nil
	}
	return nil, false, false, bindErrf(path, "@%s requires an \"if\" argument", d.Name)
}

// ApplyConditionals resolves every variable-referencing @skip/@include left
// in op against vars and returns a new BoundOperation with the resulting
// dropped selections pruned. It is cheap to skip entirely when an operation
// carries no such conditions (the common case), but callers always go
// through it so a bound operation reused across requests with different
// variables is filtered correctly every time.
func ApplyConditionals(op *BoundOperation, vars Variables) (*BoundOperation, error) {
	p := &conditionalPruner{src: op, vars: vars}
	root, err := p.pruneSet(op.Root)
	if err != nil {
		return nil, err
	}
	return &BoundOperation{
		Type:          op.Type,
		Kind:          op.Kind,
		Fields:        p.fields,
		SelectionSets: p.selectionSets,
		Root:          root,
	}, nil
}

type conditionalPruner struct {
	src  *BoundOperation
	vars Variables

	fields        []BoundField
	selectionSets []SelectionSet
}

func (p *conditionalPruner) pruneSet(id SelectionSetID) (SelectionSetID, error) {
	if id == NoSelectionSet {
		return NoSelectionSet, nil
	}
	src := p.src.SelectionSets[id]
	start := FieldID(len(p.fields))

	for i := src.Fields.Start; i < src.Fields.End; i++ {
		f := p.src.Fields[i]
		keep, err := p.evaluate(f)
		if err != nil {
			return NoSelectionSet, err
		}
		if !keep {
			continue
		}
		child, err := p.pruneSet(f.SelectionSet)
		if err != nil {
			return NoSelectionSet, err
		}
		f.SelectionSet = child
		f.Skip = nil
		f.Include = nil
		p.fields = append(p.fields, f)
	}

	end := FieldID(len(p.fields))
	newID := SelectionSetID(len(p.selectionSets))
	p.selectionSets = append(p.selectionSets, SelectionSet{Fields: FieldRange{Start: start, End: end}})
	return newID, nil
}

func (p *conditionalPruner) evaluate(f BoundField) (bool, error) {
	if f.Skip != nil {
		b, err := resolveBoolVariable(*f.Skip, p.vars)
		if err != nil {
			return false, err
		}
		if b {
			return false, nil
		}
	}
	if f.Include != nil {
		b, err := resolveBoolVariable(*f.Include, p.vars)
		if err != nil {
			return false, err
		}
		if !b {
			return false, nil
		}
	}
	return true, nil
}

// conditionalVariableNames returns the distinct variable names referenced by
// any @skip/@include left on op's fields. op.Fields is already a single flat
// arena covering every selection set, so one pass suffices.
func conditionalVariableNames(op *BoundOperation) []string {
	seen := map[string]bool{}
	var names []string
	add := func(v *InputValue) {
		if v == nil || v.Kind != ValueVariable || seen[v.VariableName] {
			return
		}
		seen[v.VariableName] = true
		names = append(names, v.VariableName)
	}
	for _, f := range op.Fields {
		add(f.Skip)
		add(f.Include)
	}
	return names
}

func resolveBoolVariable(v InputValue, vars Variables) (bool, error) {
	if v.Kind != ValueVariable {
		return false, &BindError{Message: "@skip/@include condition is not a variable reference"}
	}
	val, ok := vars[v.VariableName]
	if !ok {
		return false, &BindError{Message: "undeclared variable $" + v.VariableName + " used in @skip/@include"}
	}
	if val.Kind != ValueBoolean {
		return false, &BindError{Message: "variable $" + v.VariableName + " used in @skip/@include must be a Boolean"}
	}
	return val.Bool, nil
}
