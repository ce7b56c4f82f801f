package schema

import "github.com/n9te9/go-graphql-federation-gateway/federation/wrapping"

// TypeKind distinguishes the GraphQL type system kinds a Type can be.
type TypeKind int

const (
	ScalarKind TypeKind = iota
	EnumKind
	InputObjectKind
	ObjectKind
	InterfaceKind
	UnionKind
)

// ScalarType tags the built-in scalar identity of a ScalarKind Type; any
// scalar not in this list (including custom scalars) is Unknown and is
// coerced leniently, storing the raw JSON value verbatim.
type ScalarType int

const (
	ScalarString ScalarType = iota
	ScalarInt
	ScalarFloat
	ScalarBoolean
	ScalarID
	ScalarUnknown
)

// Type is one entry of the schema's Types arena. Only the fields relevant
// to Kind are populated; see the Kind-specific accessors below.
type Type struct {
	Name NameID
	Kind TypeKind

	// ScalarKind
	Scalar ScalarType

	// EnumKind
	EnumValues EnumValueRange

	// InputObjectKind
	InputFields InputFieldRange
	IsOneOf     bool

	// ObjectKind / InterfaceKind
	Fields FieldRange
	// ExistsInSubgraphIDs: subgraphs defining this object/interface at all,
	// sorted. For objects, a field's ExistsInSubgraphIDs must be a subset.
	ExistsInSubgraphIDs []SubgraphID
	// Implements: interfaces this object/interface declares, per subgraph.
	Implements map[SubgraphID][]TypeID
	// Keys: every @key FieldSet declared for this type, including ones with
	// resolvable: false; empty if no subgraph declares a @key on it.
	Keys []KeyID

	// UnionKind
	UnionMembers []TypeID
}

// Field is one entry of the schema's Fields arena: an object/interface
// field, its type reference, and its per-subgraph federation metadata.
type Field struct {
	Parent    TypeID
	Name      NameID
	Type      TypeID
	Wrapping  wrapping.Wrapping
	Arguments ArgumentRange

	ExistsInSubgraphIDs []SubgraphID
	Requires            map[SubgraphID]FieldSet
	Provides            map[SubgraphID]FieldSet
	DistinctTypeInIDs   []SubgraphID
	External            map[SubgraphID]bool
	Shareable           map[SubgraphID]bool
	OverrideFrom         map[SubgraphID]string
}

// Argument is one entry of the schema's Arguments arena.
type Argument struct {
	Name         NameID
	Type         TypeID
	Wrapping     wrapping.Wrapping
	DefaultValue *DefaultValue
}

// InputField is one entry of the schema's InputFields arena. An input
// object's fields get ids in alphabetical order of their names, and
// coercion always iterates them in that id order.
type InputField struct {
	Parent       TypeID
	Name         NameID
	Type         TypeID
	Wrapping     wrapping.Wrapping
	DefaultValue *DefaultValue
}

// EnumValue is one entry of the schema's EnumValues arena.
type EnumValue struct {
	Parent        TypeID
	Name          NameID
	Inaccessible  bool
}

// DefaultValue is a schema-owned literal, referenced by id from coerced
// operations rather than copied (see operation.InputValue's
// ValueSchemaDefault kind).
type DefaultValue struct {
	Kind DefaultValueKind
	// Scalar/Enum payloads.
	String  string
	Int     int64
	Float   float64
	Bool    bool
	EnumRef NameID
	// List/Object payloads.
	List   []*DefaultValue
	Object []DefaultObjectField
}

// DefaultValueKind tags the payload carried by a DefaultValue.
type DefaultValueKind int

const (
	DefaultNull DefaultValueKind = iota
	DefaultString
	DefaultInt
	DefaultFloat
	DefaultBoolean
	DefaultEnum
	DefaultList
	DefaultObject
)

// DefaultObjectField is one field of a DefaultObject default value, kept in
// the input object's field-id order.
type DefaultObjectField struct {
	Field InputFieldID
	Value *DefaultValue
}
