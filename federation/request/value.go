package request

import (
	"strconv"
	"strings"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// writeValue renders a coerced or literal-only InputValue as GraphQL value
// text, the way the teacher's query builder renders ast.Value nodes.
func writeValue(sb *strings.Builder, sch *schema.Schema, v operation.InputValue) error {
	switch v.Kind {
	case operation.ValueNull:
		sb.WriteString("null")
	case operation.ValueInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case operation.ValueFloat:
		sb.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case operation.ValueString:
		sb.WriteString(strconv.Quote(v.Str))
	case operation.ValueBoolean:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case operation.ValueEnum:
		sb.WriteString(sch.Interner.String(v.EnumRef))
	case operation.ValueList:
		sb.WriteString("[")
		for i, el := range v.List {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeValue(sb, sch, el); err != nil {
				return err
			}
		}
		sb.WriteString("]")
	case operation.ValueObject:
		sb.WriteString("{")
		for i, f := range v.Object {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(sch.Interner.String(sch.InputFields[f.Field].Name))
			sb.WriteString(": ")
			if err := writeValue(sb, sch, f.Value); err != nil {
				return err
			}
		}
		sb.WriteString("}")
	case operation.ValueVariable:
		sb.WriteString("$")
		sb.WriteString(v.VariableName)
	case operation.ValueSchemaDefault:
		return writeDefaultValue(sb, sch, v.Default)
	default:
		return &RenderError{Message: "unknown input value kind"}
	}
	return nil
}

// writeDefaultValue renders a schema-owned DefaultValue referenced by a
// ValueSchemaDefault argument, without copying it into operation.InputValue
// first.
func writeDefaultValue(sb *strings.Builder, sch *schema.Schema, d *schema.DefaultValue) error {
	switch d.Kind {
	case schema.DefaultNull:
		sb.WriteString("null")
	case schema.DefaultString:
		sb.WriteString(strconv.Quote(d.String))
	case schema.DefaultInt:
		sb.WriteString(strconv.FormatInt(d.Int, 10))
	case schema.DefaultFloat:
		sb.WriteString(strconv.FormatFloat(d.Float, 'g', -1, 64))
	case schema.DefaultBoolean:
		sb.WriteString(strconv.FormatBool(d.Bool))
	case schema.DefaultEnum:
		sb.WriteString(sch.Interner.String(d.EnumRef))
	case schema.DefaultList:
		sb.WriteString("[")
		for i, el := range d.List {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeDefaultValue(sb, sch, el); err != nil {
				return err
			}
		}
		sb.WriteString("]")
	case schema.DefaultObject:
		sb.WriteString("{")
		for i, f := range d.Object {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(sch.Interner.String(sch.InputFields[f.Field].Name))
			sb.WriteString(": ")
			if err := writeDefaultValue(sb, sch, f.Value); err != nil {
				return err
			}
		}
		sb.WriteString("}")
	default:
		return &RenderError{Message: "unknown default value kind"}
	}
	return nil
}

// toJSONValue converts a coerced InputValue (as produced by
// operation.CoerceVariables, which only ever emits Null/Int/Float/String/
// Boolean/Enum/List/Object) into the native Go value encoding/json expects
// for the outgoing variables payload.
func toJSONValue(sch *schema.Schema, v operation.InputValue) interface{} {
	switch v.Kind {
	case operation.ValueNull:
		return nil
	case operation.ValueInt:
		return v.Int
	case operation.ValueFloat:
		return v.Float
	case operation.ValueString:
		return v.Str
	case operation.ValueBoolean:
		return v.Bool
	case operation.ValueEnum:
		return sch.Interner.String(v.EnumRef)
	case operation.ValueList:
		out := make([]interface{}, len(v.List))
		for i, el := range v.List {
			out[i] = toJSONValue(sch, el)
		}
		return out
	case operation.ValueObject:
		out := make(map[string]interface{}, len(v.Object))
		for _, f := range v.Object {
			out[sch.Interner.String(sch.InputFields[f.Field].Name)] = toJSONValue(sch, f.Value)
		}
		return out
	default:
		return nil
	}
}
