package schema

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
)

// ValueFromAST converts a constant GraphQL literal (as found in an argument
// or input-field default value) into a schema-owned DefaultValue. It never
// accepts a variable reference: default values must be constants.
func ValueFromAST(in *Interner, v ast.Value) (*DefaultValue, error) {
	if v == nil {
		return &DefaultValue{Kind: DefaultNull}, nil
	}
	switch val := v.(type) {
	case *ast.StringValue:
		return &DefaultValue{Kind: DefaultString, String: val.Value}, nil
	case *ast.IntValue:
		return &DefaultValue{Kind: DefaultInt, Int: int64(val.Value)}, nil
	case *ast.FloatValue:
		return &DefaultValue{Kind: DefaultFloat, Float: float64(val.Value)}, nil
	case *ast.BooleanValue:
		return &DefaultValue{Kind: DefaultBoolean, Bool: val.Value}, nil
	case *ast.EnumValue:
		return &DefaultValue{Kind: DefaultEnum, EnumRef: in.Intern(val.Value)}, nil
	case *ast.ListValue:
		items := make([]*DefaultValue, 0, len(val.Values))
		for _, item := range val.Values {
			dv, err := ValueFromAST(in, item)
			if err != nil {
				return nil, err
			}
			items = append(items, dv)
		}
		return &DefaultValue{Kind: DefaultList, List: items}, nil
	case *ast.ObjectValue:
		fields := make([]DefaultObjectField, 0, len(val.Fields))
		for _, f := range val.Fields {
			dv, err := ValueFromAST(in, f.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, DefaultObjectField{Value: dv})
			_ = f.Name
		}
		return &DefaultValue{Kind: DefaultObject, Object: fields}, nil
	case *ast.Variable:
		return nil, fmt.Errorf("schema: default value cannot reference variable $%s", val.Name)
	default:
		return &DefaultValue{Kind: DefaultNull}, nil
	}
}
