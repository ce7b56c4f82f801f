package operation

import (
	"fmt"
	"math"

	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/wrapping"
)

// Variables holds each client-declared variable's coerced value, keyed by
// name without the leading '$'. A coerced value never carries Kind
// ValueVariable or ValueSchemaDefault: both are resolved away by coercion.
type Variables map[string]InputValue

type variableUsage struct {
	typeID   schema.TypeID
	wrapping wrapping.Wrapping
}

// CoerceVariables infers each variable's declared type from its first usage
// site within op rather than from an explicit operation-level declaration
// (the parsed document carries none), then coerces raw JSON-decoded values
// against that inferred type.
func CoerceVariables(sch *schema.Schema, op *BoundOperation, raw map[string]interface{}) (Variables, error) {
	usages := collectVariableUsages(sch, op)

	out := make(Variables, len(usages))
	for name, u := range usages {
		val, present := raw[name]
		path := "$" + name
		if !present || val == nil {
			if u.wrapping.IsNonNull() {
				return nil, inputErrf(NullError, path, "required variable %q was not provided", name)
			}
			out[name] = InputValue{Kind: ValueNull}
			continue
		}
		cv, err := coerceRaw(sch, val, u.typeID, u.wrapping, path)
		if err != nil {
			return nil, err
		}
		out[name] = cv
	}

	// @skip/@include conditions are always Boolean! by the GraphQL spec,
	// independent of the schema, so a variable used only there (never in an
	// argument position) still needs coercing even though collectVariableUsages
	// never sees it.
	for _, name := range conditionalVariableNames(op) {
		if _, ok := out[name]; ok {
			continue
		}
		val, present := raw[name]
		path := "$" + name
		if !present || val == nil {
			return nil, inputErrf(NullError, path, "required variable %q was not provided", name)
		}
		b, ok := val.(bool)
		if !ok {
			return nil, inputErrf(TypeError, path, "variable %q used in @skip/@include must be a boolean", name)
		}
		out[name] = InputValue{Kind: ValueBoolean, Bool: b}
	}

	return out, nil
}

func collectVariableUsages(sch *schema.Schema, op *BoundOperation) map[string]variableUsage {
	usages := map[string]variableUsage{}
	for _, f := range op.Fields {
		for _, a := range f.Arguments {
			arg := sch.Arguments[a.Schema]
			recordVariableUsages(sch, a.Value, arg.Type, arg.Wrapping, usages)
		}
	}
	return usages
}

func recordVariableUsages(sch *schema.Schema, v InputValue, typeID schema.TypeID, wrap wrapping.Wrapping, usages map[string]variableUsage) {
	switch v.Kind {
	case ValueVariable:
		if _, exists := usages[v.VariableName]; !exists {
			usages[v.VariableName] = variableUsage{typeID: typeID, wrapping: wrap}
		}
	case ValueList:
		inner := wrap
		if popped, ok := wrap.WithoutList(); ok {
			inner = popped
		}
		for _, item := range v.List {
			recordVariableUsages(sch, item, typeID, inner, usages)
		}
	case ValueObject:
		t := sch.Types[typeID]
		for _, rf := range v.rawFields {
			fieldID, ok := inputFieldByName(sch, t.InputFields, rf.name)
			if !ok {
				continue
			}
			field := sch.InputFields[fieldID]
			recordVariableUsages(sch, rf.value, field.Type, field.Wrapping, usages)
		}
	}
}

func inputFieldByName(sch *schema.Schema, r schema.InputFieldRange, name string) (schema.InputFieldID, bool) {
	nameID, ok := sch.Interner.Lookup(name)
	if !ok {
		return 0, false
	}
	for i := r.Start; i < r.End; i++ {
		if sch.InputFields[i].Name == nameID {
			return i, true
		}
	}
	return 0, false
}

// ResolveArgument resolves a single bound argument's value to its final,
// variable-free InputValue: literals are coerced and validated against the
// argument's type, ValueVariable references are looked up in vars, and
// ValueSchemaDefault references are coerced from the schema default the
// first time they are needed (defaults are stored once, by reference, and
// never mutate the schema).
func ResolveArgument(sch *schema.Schema, a BoundArgument, vars Variables, path string) (InputValue, error) {
	arg := sch.Arguments[a.Schema]
	return resolveValue(sch, a.Value, arg.Type, arg.Wrapping, vars, path)
}

func resolveValue(sch *schema.Schema, v InputValue, typeID schema.TypeID, wrap wrapping.Wrapping, vars Variables, path string) (InputValue, error) {
	switch v.Kind {
	case ValueVariable:
		resolved, ok := vars[v.VariableName]
		if !ok {
			return InputValue{}, inputErrf(UndeclaredVariableError, path, "variable %q is not defined", v.VariableName)
		}
		if resolved.Kind == ValueNull && wrap.IsNonNull() {
			return InputValue{}, inputErrf(NullError, path, "variable %q is null but %q is required", v.VariableName, wrap.TypeString(sch.TypeName(typeID)))
		}
		return resolved, nil
	case ValueSchemaDefault:
		return coerceSchemaDefault(sch, v.Default, typeID, wrap, path)
	default:
		return coerceLiteral(sch, v, typeID, wrap, path)
	}
}

func coerceSchemaDefault(sch *schema.Schema, d *schema.DefaultValue, typeID schema.TypeID, wrap wrapping.Wrapping, path string) (InputValue, error) {
	if d == nil || d.Kind == schema.DefaultNull {
		if wrap.IsNonNull() {
			return InputValue{}, inputErrf(NullError, path, "default value is null but type is required")
		}
		return InputValue{Kind: ValueNull}, nil
	}
	switch d.Kind {
	case schema.DefaultString:
		return coerceLiteral(sch, InputValue{Kind: ValueString, Str: d.String}, typeID, wrap, path)
	case schema.DefaultInt:
		return coerceLiteral(sch, InputValue{Kind: ValueInt, Int: d.Int}, typeID, wrap, path)
	case schema.DefaultFloat:
		return coerceLiteral(sch, InputValue{Kind: ValueFloat, Float: d.Float}, typeID, wrap, path)
	case schema.DefaultBoolean:
		return coerceLiteral(sch, InputValue{Kind: ValueBoolean, Bool: d.Bool}, typeID, wrap, path)
	case schema.DefaultEnum:
		return coerceLiteral(sch, InputValue{Kind: ValueEnum, Str: sch.Interner.String(d.EnumRef)}, typeID, wrap, path)
	case schema.DefaultList:
		items := make([]InputValue, 0, len(d.List))
		inner := wrap
		if popped, ok := wrap.WithoutList(); ok {
			inner = popped
		}
		for i, item := range d.List {
			cv, err := coerceSchemaDefault(sch, item, typeID, inner, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return InputValue{}, err
			}
			items = append(items, cv)
		}
		return InputValue{Kind: ValueList, List: items}, nil
	case schema.DefaultObject:
		t := sch.Types[typeID]
		out := make([]ObjectFieldValue, 0, len(d.Object))
		for _, of := range d.Object {
			field := sch.InputFields[of.Field]
			cv, err := coerceSchemaDefault(sch, of.Value, field.Type, field.Wrapping, path+"."+sch.Interner.String(field.Name))
			if err != nil {
				return InputValue{}, err
			}
			out = append(out, ObjectFieldValue{Field: of.Field, Value: cv})
		}
		return InputValue{Kind: ValueObject, Object: out}, nil
	default:
		return InputValue{Kind: ValueNull}, nil
	}
}

// coerceLiteral validates and normalizes a query-literal InputValue (never a
// variable or schema-default reference) against typeID/wrap.
func coerceLiteral(sch *schema.Schema, v InputValue, typeID schema.TypeID, wrap wrapping.Wrapping, path string) (InputValue, error) {
	if v.Kind == ValueNull {
		if wrap.IsNonNull() {
			return InputValue{}, inputErrf(NullError, path, "null is not allowed, %q is required", wrap.TypeString(sch.TypeName(typeID)))
		}
		return InputValue{Kind: ValueNull}, nil
	}

	if wrap.IsList() {
		inner, _ := wrap.WithoutList()
		if v.Kind != ValueList {
			// GraphQL coerces a single non-list value into a one-item list.
			cv, err := coerceLiteral(sch, v, typeID, inner, path)
			if err != nil {
				return InputValue{}, err
			}
			return InputValue{Kind: ValueList, List: []InputValue{cv}}, nil
		}
		items := make([]InputValue, 0, len(v.List))
		for i, item := range v.List {
			cv, err := coerceLiteral(sch, item, typeID, inner, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return InputValue{}, err
			}
			items = append(items, cv)
		}
		return InputValue{Kind: ValueList, List: items}, nil
	}

	t := sch.Types[typeID]
	switch t.Kind {
	case schema.ScalarKind:
		return coerceScalar(sch, v, t, path)
	case schema.EnumKind:
		return coerceEnum(sch, v, t, path)
	case schema.InputObjectKind:
		return coerceInputObject(sch, v, t, path)
	default:
		return InputValue{}, inputErrf(TypeError, path, "%q cannot be used as an input type", sch.TypeName(typeID))
	}
}

func coerceScalar(sch *schema.Schema, v InputValue, t schema.Type, path string) (InputValue, error) {
	switch t.Scalar {
	case schema.ScalarString, schema.ScalarID:
		if v.Kind != ValueString {
			return InputValue{}, inputErrf(TypeError, path, "expected a string, got %s", kindName(v.Kind))
		}
		return v, nil
	case schema.ScalarBoolean:
		if v.Kind != ValueBoolean {
			return InputValue{}, inputErrf(TypeError, path, "expected a boolean, got %s", kindName(v.Kind))
		}
		return v, nil
	case schema.ScalarInt:
		if v.Kind != ValueInt {
			return InputValue{}, inputErrf(TypeError, path, "expected an integer, got %s", kindName(v.Kind))
		}
		if v.Int < math.MinInt32 || v.Int > math.MaxInt32 {
			return InputValue{}, inputErrf(TypeError, path, "%d does not fit in a 32-bit Int", v.Int)
		}
		return v, nil
	case schema.ScalarFloat:
		// Int literals widen to Float; Float literals pass through.
		switch v.Kind {
		case ValueInt:
			return InputValue{Kind: ValueFloat, Float: float64(v.Int)}, nil
		case ValueFloat:
			return v, nil
		default:
			return InputValue{}, inputErrf(TypeError, path, "expected a float, got %s", kindName(v.Kind))
		}
	default:
		// Unknown (custom) scalar: accept any literal shape verbatim.
		return v, nil
	}
}

func coerceEnum(sch *schema.Schema, v InputValue, t schema.Type, path string) (InputValue, error) {
	if v.Kind != ValueEnum {
		return InputValue{}, inputErrf(TypeError, path, "expected an enum value, got %s", kindName(v.Kind))
	}
	nameID, ok := sch.Interner.Lookup(v.Str)
	if !ok {
		return InputValue{}, inputErrf(TypeError, path, "%q is not a member of enum %q", v.Str, sch.Interner.String(t.Name))
	}
	for i := t.EnumValues.Start; i < t.EnumValues.End; i++ {
		if sch.EnumValues[i].Name == nameID {
			return InputValue{Kind: ValueEnum, EnumRef: nameID}, nil
		}
	}
	return InputValue{}, inputErrf(TypeError, path, "%q is not a valid enum member", v.Str)
}

func coerceInputObject(sch *schema.Schema, v InputValue, t schema.Type, path string) (InputValue, error) {
	if v.Kind != ValueObject {
		return InputValue{}, inputErrf(TypeError, path, "expected an input object, got %s", kindName(v.Kind))
	}

	supplied := map[schema.InputFieldID]InputValue{}
	for _, rf := range v.rawFields {
		fieldID, ok := inputFieldByName(sch, t.InputFields, rf.name)
		if !ok {
			return InputValue{}, inputErrf(UnknownFieldError, path, "field %q does not exist on input type", rf.name)
		}
		supplied[fieldID] = rf.value
	}

	out := make([]ObjectFieldValue, 0, t.InputFields.Len())
	for i := t.InputFields.Start; i < t.InputFields.End; i++ {
		field := sch.InputFields[i]
		fieldPath := path + "." + sch.Interner.String(field.Name)

		raw, ok := supplied[i]
		if !ok {
			if field.DefaultValue != nil {
				cv, err := coerceSchemaDefault(sch, field.DefaultValue, field.Type, field.Wrapping, fieldPath)
				if err != nil {
					return InputValue{}, err
				}
				out = append(out, ObjectFieldValue{Field: i, Value: cv})
				continue
			}
			if field.Wrapping.IsNonNull() {
				return InputValue{}, inputErrf(MissingFieldError, fieldPath, "required field %q was not supplied", sch.Interner.String(field.Name))
			}
			continue
		}

		cv, err := coerceLiteral(sch, raw, field.Type, field.Wrapping, fieldPath)
		if err != nil {
			return InputValue{}, err
		}
		out = append(out, ObjectFieldValue{Field: i, Value: cv})
	}

	if t.IsOneOf {
		if len(out) != 1 {
			return InputValue{}, inputErrf(OneOfError, path, "input type %q requires exactly one field to be set, got %d", sch.Interner.String(t.Name), len(out))
		}
		if out[0].Value.Kind == ValueNull {
			return InputValue{}, inputErrf(OneOfError, path, "input type %q's single field cannot be null", sch.Interner.String(t.Name))
		}
	}

	return InputValue{Kind: ValueObject, Object: out}, nil
}

// coerceRaw coerces a JSON-decoded variable value (nil, bool, string,
// float64, []interface{}, map[string]interface{} — encoding/json's decoding
// of any JSON document into interface{}) against typeID/wrap. It mirrors
// coerceLiteral's structure but works from raw decoded shapes rather than
// already-tagged query-literal InputValues, since JSON numbers decode to a
// single float64 regardless of whether the GraphQL type is Int or Float.
func coerceRaw(sch *schema.Schema, val interface{}, typeID schema.TypeID, wrap wrapping.Wrapping, path string) (InputValue, error) {
	if val == nil {
		if wrap.IsNonNull() {
			return InputValue{}, inputErrf(NullError, path, "null is not allowed, %q is required", wrap.TypeString(sch.TypeName(typeID)))
		}
		return InputValue{Kind: ValueNull}, nil
	}

	if wrap.IsList() {
		inner, _ := wrap.WithoutList()
		list, ok := val.([]interface{})
		if !ok {
			// GraphQL coerces a single non-list value into a one-item list.
			cv, err := coerceRaw(sch, val, typeID, inner, path)
			if err != nil {
				return InputValue{}, err
			}
			return InputValue{Kind: ValueList, List: []InputValue{cv}}, nil
		}
		items := make([]InputValue, 0, len(list))
		for i, item := range list {
			cv, err := coerceRaw(sch, item, typeID, inner, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return InputValue{}, err
			}
			items = append(items, cv)
		}
		return InputValue{Kind: ValueList, List: items}, nil
	}

	t := sch.Types[typeID]
	switch t.Kind {
	case schema.ScalarKind:
		return coerceRawScalar(val, t, path)
	case schema.EnumKind:
		s, ok := val.(string)
		if !ok {
			return InputValue{}, inputErrf(TypeError, path, "expected an enum value, got %T", val)
		}
		return coerceEnum(sch, InputValue{Kind: ValueEnum, Str: s}, t, path)
	case schema.InputObjectKind:
		obj, ok := val.(map[string]interface{})
		if !ok {
			return InputValue{}, inputErrf(TypeError, path, "expected an input object, got %T", val)
		}
		return coerceRawInputObject(sch, obj, t, path)
	default:
		return InputValue{}, inputErrf(TypeError, path, "%q cannot be used as an input type", sch.TypeName(typeID))
	}
}

func coerceRawScalar(val interface{}, t schema.Type, path string) (InputValue, error) {
	switch t.Scalar {
	case schema.ScalarString, schema.ScalarID:
		s, ok := val.(string)
		if !ok {
			return InputValue{}, inputErrf(TypeError, path, "expected a string, got %T", val)
		}
		return InputValue{Kind: ValueString, Str: s}, nil
	case schema.ScalarBoolean:
		b, ok := val.(bool)
		if !ok {
			return InputValue{}, inputErrf(TypeError, path, "expected a boolean, got %T", val)
		}
		return InputValue{Kind: ValueBoolean, Bool: b}, nil
	case schema.ScalarInt:
		f, ok := val.(float64)
		if !ok || f != math.Trunc(f) {
			return InputValue{}, inputErrf(TypeError, path, "expected an integer, got %T", val)
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return InputValue{}, inputErrf(TypeError, path, "%v does not fit in a 32-bit Int", f)
		}
		return InputValue{Kind: ValueInt, Int: int64(f)}, nil
	case schema.ScalarFloat:
		f, ok := val.(float64)
		if !ok {
			return InputValue{}, inputErrf(TypeError, path, "expected a float, got %T", val)
		}
		return InputValue{Kind: ValueFloat, Float: f}, nil
	default:
		// Unknown (custom) scalar: accept the decoded JSON shape verbatim,
		// stored best-effort against the closest InputValue kind.
		switch v := val.(type) {
		case string:
			return InputValue{Kind: ValueString, Str: v}, nil
		case bool:
			return InputValue{Kind: ValueBoolean, Bool: v}, nil
		case float64:
			return InputValue{Kind: ValueFloat, Float: v}, nil
		default:
			return InputValue{Kind: ValueString, Str: fmt.Sprintf("%v", v)}, nil
		}
	}
}

func coerceRawInputObject(sch *schema.Schema, obj map[string]interface{}, t schema.Type, path string) (InputValue, error) {
	out := make([]ObjectFieldValue, 0, t.InputFields.Len())
	for i := t.InputFields.Start; i < t.InputFields.End; i++ {
		field := sch.InputFields[i]
		name := sch.Interner.String(field.Name)
		fieldPath := path + "." + name

		raw, ok := obj[name]
		if !ok {
			if field.DefaultValue != nil {
				cv, err := coerceSchemaDefault(sch, field.DefaultValue, field.Type, field.Wrapping, fieldPath)
				if err != nil {
					return InputValue{}, err
				}
				out = append(out, ObjectFieldValue{Field: i, Value: cv})
				continue
			}
			if field.Wrapping.IsNonNull() {
				return InputValue{}, inputErrf(MissingFieldError, fieldPath, "required field %q was not supplied", name)
			}
			continue
		}

		cv, err := coerceRaw(sch, raw, field.Type, field.Wrapping, fieldPath)
		if err != nil {
			return InputValue{}, err
		}
		out = append(out, ObjectFieldValue{Field: i, Value: cv})
	}

	if t.IsOneOf {
		if len(out) != 1 {
			return InputValue{}, inputErrf(OneOfError, path, "input type %q requires exactly one field to be set, got %d", sch.Interner.String(t.Name), len(out))
		}
		if out[0].Value.Kind == ValueNull {
			return InputValue{}, inputErrf(OneOfError, path, "input type %q's single field cannot be null", sch.Interner.String(t.Name))
		}
	}

	return InputValue{Kind: ValueObject, Object: out}, nil
}

func kindName(k InputValueKind) string {
	switch k {
	case ValueNull:
		return "null"
	case ValueInt:
		return "an integer"
	case ValueFloat:
		return "a float"
	case ValueString:
		return "a string"
	case ValueBoolean:
		return "a boolean"
	case ValueEnum:
		return "an enum value"
	case ValueList:
		return "a list"
	case ValueObject:
		return "an object"
	default:
		return "a value"
	}
}
