// Package schema holds the interned, id-indexed supergraph schema model:
// types, fields, arguments, enums, input objects, resolvers, subgraphs and
// keys, composed once from federated SDL and immutable thereafter.
package schema

// Schema is the immutable, composed supergraph. It is built once and then
// freely shared, read-only, across every request.
type Schema struct {
	Interner *Interner

	Types       []Type
	Fields      []Field
	Arguments   []Argument
	EnumValues  []EnumValue
	InputFields []InputField
	Subgraphs   []Subgraph
	Resolvers   []Resolver
	Keys        []Key

	Query        TypeID
	Mutation     TypeID
	Subscription TypeID
	hasMutation  bool
	hasSubscr    bool

	// typeByName and fieldByName speed up binding; they are not part of the
	// portable arena model but are pure derived indices rebuilt on Build.
	typeByName  map[NameID]TypeID
	fieldByName map[TypeID]map[NameID]FieldID
}

// HasMutation/HasSubscription report whether the supergraph declares those
// root operation types at all.
func (s *Schema) HasMutation() bool     { return s.hasMutation }
func (s *Schema) HasSubscription() bool { return s.hasSubscr }

// TypeByName resolves an interned type name to its TypeID.
func (s *Schema) TypeByName(name NameID) (TypeID, bool) {
	id, ok := s.typeByName[name]
	return id, ok
}

// FieldByName resolves a field name within parent to its FieldID.
func (s *Schema) FieldByName(parent TypeID, name NameID) (FieldID, bool) {
	fields, ok := s.fieldByName[parent]
	if !ok {
		return 0, false
	}
	id, ok := fields[name]
	return id, ok
}

// FieldsIn returns the Field values in r, in id order.
func (s *Schema) FieldsIn(r FieldRange) []Field {
	return s.Fields[r.Start:r.End]
}

// TypeName resolves t's interned name to a string.
func (s *Schema) TypeName(t TypeID) string {
	return s.Interner.String(s.Types[t].Name)
}

// FieldName resolves f's interned name to a string.
func (s *Schema) FieldName(f FieldID) string {
	return s.Interner.String(s.Fields[f].Name)
}

// ResolvableKeys returns the resolvable Keys declared on entity t, across all
// subgraphs; keys declared with resolvable: false are left out.
func (s *Schema) ResolvableKeys(t TypeID) []Key {
	out := make([]Key, 0, len(s.Types[t].Keys))
	for _, kid := range s.Types[t].Keys {
		k := s.Keys[kid]
		if k.Resolvable {
			out = append(out, k)
		}
	}
	return out
}

// IsEntity reports whether t has at least one resolvable key.
func (s *Schema) IsEntity(t TypeID) bool {
	return len(s.ResolvableKeys(t)) > 0
}

// SubgraphsForField returns the Field.ExistsInSubgraphIDs for f, filtering
// out subgraphs where the field is @external (cannot be requested directly,
// only required/provided).
func (s *Schema) SubgraphsForField(f FieldID) []SubgraphID {
	field := s.Fields[f]
	out := make([]SubgraphID, 0, len(field.ExistsInSubgraphIDs))
	for _, sgID := range field.ExistsInSubgraphIDs {
		if field.External[sgID] {
			continue
		}
		out = append(out, sgID)
	}
	return out
}
