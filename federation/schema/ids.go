package schema

// NameID indexes the schema's interned string table.
type NameID int

// TypeID indexes the schema's Types arena.
type TypeID int

// FieldID indexes the schema's Fields arena.
type FieldID int

// ArgumentID indexes the schema's Arguments arena.
type ArgumentID int

// EnumValueID indexes the schema's EnumValues arena.
type EnumValueID int

// InputFieldID indexes the schema's InputFields arena.
type InputFieldID int

// SubgraphID indexes the schema's Subgraphs arena.
type SubgraphID int

// ResolverID indexes the schema's Resolvers arena.
type ResolverID int

// KeyID indexes the schema's Keys arena.
type KeyID int

// FieldRange is a [Start, End) half-open range of FieldIDs, sorted.
type FieldRange struct {
	Start, End FieldID
}

func (r FieldRange) Len() int { return int(r.End - r.Start) }

// ArgumentRange is a [Start, End) half-open range of ArgumentIDs.
type ArgumentRange struct {
	Start, End ArgumentID
}

func (r ArgumentRange) Len() int { return int(r.End - r.Start) }

// EnumValueRange is a [Start, End) half-open range of EnumValueIDs.
type EnumValueRange struct {
	Start, End EnumValueID
}

func (r EnumValueRange) Len() int { return int(r.End - r.Start) }

// InputFieldRange is a [Start, End) half-open range of InputFieldIDs.
type InputFieldRange struct {
	Start, End InputFieldID
}

func (r InputFieldRange) Len() int { return int(r.End - r.Start) }
