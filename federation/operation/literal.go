package operation

import (
	"github.com/n9te9/graphql-parser/ast"
)

// valueFromLiteral converts a query-literal ast.Value into an InputValue.
// Variable references are preserved as ValueVariable and resolved lazily
// against coerced Variables at execution time.
func valueFromLiteral(v ast.Value) InputValue {
	if v == nil {
		return InputValue{Kind: ValueNull}
	}
	switch val := v.(type) {
	case *ast.Variable:
		return InputValue{Kind: ValueVariable, VariableName: val.Name}
	case *ast.StringValue:
		return InputValue{Kind: ValueString, Str: val.Value}
	case *ast.IntValue:
		return InputValue{Kind: ValueInt, Int: int64(val.Value)}
	case *ast.FloatValue:
		return InputValue{Kind: ValueFloat, Float: float64(val.Value)}
	case *ast.BooleanValue:
		return InputValue{Kind: ValueBoolean, Bool: val.Value}
	case *ast.EnumValue:
		return InputValue{Kind: ValueEnum, Str: val.Value}
	case *ast.ListValue:
		items := make([]InputValue, 0, len(val.Values))
		for _, item := range val.Values {
			items = append(items, valueFromLiteral(item))
		}
		return InputValue{Kind: ValueList, List: items}
	case *ast.ObjectValue:
		fields := make([]rawObjectField, 0, len(val.Fields))
		for _, f := range val.Fields {
			fields = append(fields, rawObjectField{name: f.Name.String(), value: valueFromLiteral(f.Value)})
		}
		return InputValue{Kind: ValueObject, rawFields: fields}
	default:
		return InputValue{Kind: ValueNull}
	}
}

// rawObjectField is an uncoerced query-literal object field, kept by name
// until coerce.go sorts it into schema InputFieldID order.
type rawObjectField struct {
	name  string
	value InputValue
}
