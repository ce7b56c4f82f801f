package operation

import "github.com/n9te9/go-graphql-federation-gateway/federation/schema"

// InputValueKind tags the payload carried by an InputValue.
type InputValueKind int

const (
	ValueNull InputValueKind = iota
	ValueInt
	ValueFloat
	ValueString
	ValueBoolean
	ValueEnum
	ValueList
	ValueObject
	ValueVariable
	ValueSchemaDefault
)

// InputValue is a coerced (or, for query literals referencing a variable,
// not-yet-resolved) value attached to a field argument or nested inside an
// input object. A ValueSchemaDefault carries a *schema.DefaultValue by
// reference rather than copying its payload.
type InputValue struct {
	Kind InputValueKind

	Int     int64
	Float   float64
	Str     string
	Bool    bool
	EnumRef schema.NameID

	List []InputValue

	// Object fields, sorted by InputFieldID once coerced (see coerce.go).
	Object []ObjectFieldValue

	// rawFields holds ValueObject fields by name before coerce.go resolves
	// each name against the target input type and sorts into Object.
	rawFields []rawObjectField

	// ValueVariable: the variable name as written in the query literal.
	VariableName string

	// ValueSchemaDefault: the referenced default, owned by the schema.
	Default *schema.DefaultValue
}

// ObjectFieldValue is one field of a coerced input object value.
type ObjectFieldValue struct {
	Field schema.InputFieldID
	Value InputValue
}
