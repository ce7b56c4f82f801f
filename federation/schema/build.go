package schema

import (
	"fmt"
	"sort"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"

	"github.com/n9te9/go-graphql-federation-gateway/federation/wrapping"
)

// SubgraphSource is one subgraph's federated SDL plus the transport
// metadata the composed Subgraph record carries forward.
type SubgraphSource struct {
	Name           string
	URL            string
	WebsocketURL   string
	SDL            string
	Headers        map[string]string
	Timeout        DurationMillis
	RetryMax       int
	EntityCacheTTL DurationMillis
	SigningSecret  string
}

var builtinScalars = []struct {
	name string
	kind ScalarType
}{
	{"String", ScalarString},
	{"Int", ScalarInt},
	{"Float", ScalarFloat},
	{"Boolean", ScalarBoolean},
	{"ID", ScalarID},
}

// Build composes a set of federated subgraph SDLs into a single immutable
// Schema, or reports the first composition problem found.
func Build(sources []SubgraphSource) (*Schema, error) {
	if len(sources) == 0 {
		return nil, &BuildError{Message: "no subgraphs to compose"}
	}

	docs := make([]*ast.Document, len(sources))
	for i, src := range sources {
		l := lexer.New(src.SDL)
		p := parser.New(l)
		doc := p.ParseDocument()
		if len(p.Errors()) > 0 {
			return nil, buildErrf(src.Name, "parse error: %v", p.Errors())
		}
		docs[i] = doc
	}

	in := NewInterner()
	s := &Schema{
		Interner:    in,
		typeByName:  make(map[NameID]TypeID),
		fieldByName: make(map[TypeID]map[NameID]FieldID),
	}

	subgraphIdxByName := make(map[string]SubgraphID, len(sources))
	for i, src := range sources {
		subgraphIdxByName[src.Name] = SubgraphID(i)
		s.Subgraphs = append(s.Subgraphs, Subgraph{
			Name:           src.Name,
			URL:            src.URL,
			WebsocketURL:   src.WebsocketURL,
			Headers:        src.Headers,
			Timeout:        src.Timeout,
			RetryMax:       src.RetryMax,
			EntityCacheTTL: src.EntityCacheTTL,
			SigningSecret:  src.SigningSecret,
		})
	}

	b := &builder{schema: s, in: in, subgraphIdxByName: subgraphIdxByName}
	for i, doc := range docs {
		b.collect(SubgraphID(i), doc)
	}

	if err := b.buildScalarsAndEnums(); err != nil {
		return nil, err
	}
	if err := b.buildInputObjects(); err != nil {
		return nil, err
	}
	if err := b.buildObjectsAndInterfaces(); err != nil {
		return nil, err
	}
	if err := b.buildUnions(); err != nil {
		return nil, err
	}
	if err := b.resolveRootTypes(); err != nil {
		return nil, err
	}
	if err := b.buildKeysAndResolvers(); err != nil {
		return nil, err
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// objectAcc accumulates one object/interface type's merged field set while
// definitions from every subgraph are collected.
type objectAcc struct {
	typeName    string
	isInterface bool
	existsIn    map[SubgraphID]bool
	implements  map[SubgraphID][]string
	fields      map[string]*fieldAcc
	fieldOrder  []string
	keys        []rawKey
}

type fieldAcc struct {
	typeName     ast.Type
	typeBySubgraph map[SubgraphID]ast.Type
	argDefs      []*ast.InputValueDefinition
	existsIn     map[SubgraphID]bool
	external     map[SubgraphID]bool
	shareable    map[SubgraphID]bool
	requires     map[SubgraphID]string
	provides     map[SubgraphID]string
	overrideFrom map[SubgraphID]string
}

type rawKey struct {
	subgraph   SubgraphID
	fieldSet   string
	resolvable bool
}

type builder struct {
	schema            *Schema
	in                *Interner
	subgraphIdxByName map[string]SubgraphID

	objects     map[string]*objectAcc
	inputs      map[string]*inputAcc
	enums       map[string]*enumAcc
	scalarNames map[string]bool
	unions      map[string]*unionAcc

	pendingInputFieldRefs []pendingRef
	pendingArgumentRefs   []pendingRef
	pendingFieldRefs      []pendingRef
	pendingImplements     []pendingImplement
}

type pendingImplement struct {
	typeID   TypeID
	subgraph SubgraphID
	name     string
}

type inputAcc struct {
	fields  []*ast.InputValueDefinition
	isOneOf bool
}

type enumAcc struct {
	values       []string
	inaccessible map[string]bool
}

type unionAcc struct {
	members map[string]bool
}

func (b *builder) collect(sgID SubgraphID, doc *ast.Document) {
	if b.objects == nil {
		b.objects = make(map[string]*objectAcc)
		b.inputs = make(map[string]*inputAcc)
		b.enums = make(map[string]*enumAcc)
		b.scalarNames = make(map[string]bool)
		b.unions = make(map[string]*unionAcc)
	}

	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.ObjectTypeDefinition:
			b.collectObject(sgID, d.Name.String(), d.Fields, d.Directives, d.Interfaces, false)
		case *ast.ObjectTypeExtension:
			b.collectObject(sgID, d.Name.String(), d.Fields, d.Directives, d.Interfaces, true)
		case *ast.InterfaceTypeDefinition:
			acc := b.objectFor(d.Name.String())
			acc.isInterface = true
			b.mergeFields(acc, sgID, d.Fields)
			acc.existsIn[sgID] = true
		case *ast.InputObjectTypeDefinition:
			acc := b.inputFor(d.Name.String())
			acc.fields = append(acc.fields, d.Fields...)
			for _, dir := range d.Directives {
				if dir.Name == "oneOf" {
					acc.isOneOf = true
				}
			}
		case *ast.EnumTypeDefinition:
			acc := b.enumFor(d.Name.String())
			for _, v := range d.Values {
				name := v.Name.String()
				if !contains(acc.values, name) {
					acc.values = append(acc.values, name)
				}
				if hasDirectiveNamed(v.Directives, "inaccessible") {
					acc.inaccessible[name] = true
				}
			}
		case *ast.ScalarTypeDefinition:
			b.scalarNames[d.Name.String()] = true
		case *ast.UnionTypeDefinition:
			acc := b.unionFor(d.Name.String())
			for _, m := range d.Types {
				acc.members[typeNameOf(m)] = true
			}
		}
	}
}

func (b *builder) objectFor(name string) *objectAcc {
	acc, ok := b.objects[name]
	if !ok {
		acc = &objectAcc{
			typeName:   name,
			existsIn:   make(map[SubgraphID]bool),
			implements: make(map[SubgraphID][]string),
			fields:     make(map[string]*fieldAcc),
		}
		b.objects[name] = acc
	}
	return acc
}

func (b *builder) inputFor(name string) *inputAcc {
	acc, ok := b.inputs[name]
	if !ok {
		acc = &inputAcc{}
		b.inputs[name] = acc
	}
	return acc
}

func (b *builder) enumFor(name string) *enumAcc {
	acc, ok := b.enums[name]
	if !ok {
		acc = &enumAcc{inaccessible: make(map[string]bool)}
		b.enums[name] = acc
	}
	return acc
}

func (b *builder) unionFor(name string) *unionAcc {
	acc, ok := b.unions[name]
	if !ok {
		acc = &unionAcc{members: make(map[string]bool)}
		b.unions[name] = acc
	}
	return acc
}

func (b *builder) collectObject(sgID SubgraphID, name string, fields []*ast.FieldDefinition, directives []*ast.Directive, interfaces []ast.Type, isExtension bool) {
	acc := b.objectFor(name)
	acc.existsIn[sgID] = true
	for _, iface := range interfaces {
		acc.implements[sgID] = append(acc.implements[sgID], typeNameOf(iface))
	}
	b.mergeFields(acc, sgID, fields)

	for _, dir := range directives {
		if dir.Name != "key" {
			continue
		}
		k := rawKey{subgraph: sgID, resolvable: true}
		for _, arg := range dir.Arguments {
			switch arg.Name.String() {
			case "fields":
				k.fieldSet = unquote(arg.Value.String())
			case "resolvable":
				if arg.Value.String() == "false" {
					k.resolvable = false
				}
			}
		}
		acc.keys = append(acc.keys, k)
	}
	_ = isExtension
}

func (b *builder) mergeFields(acc *objectAcc, sgID SubgraphID, fields []*ast.FieldDefinition) {
	for _, f := range fields {
		name := f.Name.String()
		fa, ok := acc.fields[name]
		if !ok {
			fa = &fieldAcc{
				typeName:       f.Type,
				typeBySubgraph: make(map[SubgraphID]ast.Type),
				argDefs:        f.Arguments,
				existsIn:       make(map[SubgraphID]bool),
				external:       make(map[SubgraphID]bool),
				shareable:      make(map[SubgraphID]bool),
				requires:       make(map[SubgraphID]string),
				provides:       make(map[SubgraphID]string),
				overrideFrom:   make(map[SubgraphID]string),
			}
			acc.fields[name] = fa
			acc.fieldOrder = append(acc.fieldOrder, name)
		}
		fa.typeBySubgraph[sgID] = f.Type

		isExternal := false
		for _, dir := range f.Directives {
			switch dir.Name {
			case "external":
				isExternal = true
			case "shareable":
				fa.shareable[sgID] = true
			case "requires":
				if len(dir.Arguments) > 0 {
					fa.requires[sgID] = unquote(dir.Arguments[0].Value.String())
				}
			case "provides":
				if len(dir.Arguments) > 0 {
					fa.provides[sgID] = unquote(dir.Arguments[0].Value.String())
				}
			case "override":
				for _, arg := range dir.Arguments {
					if arg.Name.String() == "from" {
						fa.overrideFrom[sgID] = unquote(arg.Value.String())
					}
				}
			}
		}
		fa.existsIn[sgID] = true
		if isExternal {
			fa.external[sgID] = true
		}
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func hasDirectiveNamed(ds []*ast.Directive, name string) bool {
	for _, d := range ds {
		if d.Name == name {
			return true
		}
	}
	return false
}

func typeNameOf(t ast.Type) string {
	name, _ := typeWrapping(t)
	return name
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// typeWrapping converts a graphql-parser ast.Type into its base type name
// and a wrapping.Wrapping, matching the bit layout's innermost-first order.
func typeWrapping(t ast.Type) (string, wrapping.Wrapping) {
	type mod int
	const (
		modList mod = iota
		modNonNull
	)

	var name string
	var mods []mod

	var walk func(t ast.Type)
	walk = func(t ast.Type) {
		switch v := t.(type) {
		case *ast.NonNullType:
			mods = append(mods, modNonNull)
			walk(v.Type)
		case *ast.ListType:
			mods = append(mods, modList)
			walk(v.Type)
		case *ast.NamedType:
			name = v.Name.String()
		default:
			name = t.String()
		}
	}
	walk(t)

	var w wrapping.Wrapping
	for i := len(mods) - 1; i >= 0; i-- {
		switch mods[i] {
		case modList:
			w = w.List()
		case modNonNull:
			w = w.NonNull()
		}
	}
	return name, w
}

func (b *builder) buildScalarsAndEnums() error {
	s := b.schema
	names := make([]string, 0, len(b.scalarNames))
	for n := range b.scalarNames {
		names = append(names, n)
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	addScalar := func(name string, kind ScalarType) {
		if seen[name] {
			return
		}
		seen[name] = true
		nameID := s.Interner.Intern(name)
		tid := TypeID(len(s.Types))
		s.Types = append(s.Types, Type{Name: nameID, Kind: ScalarKind, Scalar: kind})
		s.typeByName[nameID] = tid
	}
	for _, bs := range builtinScalars {
		addScalar(bs.name, bs.kind)
	}
	for _, n := range names {
		addScalar(n, ScalarUnknown)
	}

	enumNames := make([]string, 0, len(b.enums))
	for n := range b.enums {
		enumNames = append(enumNames, n)
	}
	sort.Strings(enumNames)
	for _, n := range enumNames {
		acc := b.enums[n]
		sort.Strings(acc.values)
		nameID := s.Interner.Intern(n)
		start := EnumValueID(len(s.EnumValues))
		tid := TypeID(len(s.Types))
		for _, v := range acc.values {
			s.EnumValues = append(s.EnumValues, EnumValue{
				Parent:       tid,
				Name:         s.Interner.Intern(v),
				Inaccessible: acc.inaccessible[v],
			})
		}
		end := EnumValueID(len(s.EnumValues))
		s.Types = append(s.Types, Type{Name: nameID, Kind: EnumKind, EnumValues: EnumValueRange{start, end}})
		s.typeByName[nameID] = tid
	}
	return nil
}

func (b *builder) buildInputObjects() error {
	s := b.schema
	names := make([]string, 0, len(b.inputs))
	for n := range b.inputs {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		acc := b.inputs[n]
		nameID := s.Interner.Intern(n)
		tid := TypeID(len(s.Types))
		s.typeByName[nameID] = tid

		fieldNames := make([]string, 0, len(acc.fields))
		byName := make(map[string]*ast.InputValueDefinition, len(acc.fields))
		for _, f := range acc.fields {
			name := f.Name.String()
			if _, ok := byName[name]; !ok {
				fieldNames = append(fieldNames, name)
			}
			byName[name] = f
		}
		sort.Strings(fieldNames)

		start := InputFieldID(len(s.InputFields))
		for _, name := range fieldNames {
			f := byName[name]
			typeName, w := typeWrapping(f.Type)
			var def *DefaultValue
			if f.DefaultValue != nil {
				var err error
				def, err = ValueFromAST(s.Interner, f.DefaultValue)
				if err != nil {
					return buildErrf(name, "invalid default value: %v", err)
				}
			}
			s.InputFields = append(s.InputFields, InputField{
				Parent:       tid,
				Name:         s.Interner.Intern(name),
				Type:         0, // resolved in resolveTypeRefs
				Wrapping:     w,
				DefaultValue: def,
			})
			b.pendingInputFieldType(len(s.InputFields)-1, typeName)
		}
		end := InputFieldID(len(s.InputFields))

		s.Types = append(s.Types, Type{Name: nameID, Kind: InputObjectKind, InputFields: InputFieldRange{start, end}, IsOneOf: acc.isOneOf})
	}
	return b.resolvePendingInputFieldTypes()
}

// pending*Type bookkeeping resolves named type references to TypeIDs once
// every type in every kind has been registered, since objects can reference
// input types and vice versa in any declaration order.
type pendingRef struct {
	index int
	name  string
}

func (b *builder) pendingInputFieldType(idx int, name string) {
	b.pendingInputFieldRefs = append(b.pendingInputFieldRefs, pendingRef{idx, name})
}

func (b *builder) resolvePendingInputFieldTypes() error {
	s := b.schema
	for _, r := range b.pendingInputFieldRefs {
		tid, ok := s.typeByName[s.Interner.Intern(r.name)]
		if !ok {
			return buildErrf(r.name, "unknown type referenced by input field")
		}
		s.InputFields[r.index].Type = tid
	}
	b.pendingInputFieldRefs = nil
	return nil
}

func (b *builder) buildObjectsAndInterfaces() error {
	s := b.schema

	names := make([]string, 0, len(b.objects))
	for n := range b.objects {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		acc := b.objects[n]
		nameID := s.Interner.Intern(n)
		tid := TypeID(len(s.Types))
		s.typeByName[nameID] = tid

		sortedFieldNames := append([]string(nil), acc.fieldOrder...)
		sort.Strings(sortedFieldNames)

		existsIn := sortedSubgraphIDs(acc.existsIn)

		start := FieldID(len(s.Fields))
		for _, fname := range sortedFieldNames {
			fa := acc.fields[fname]
			typeName, w := typeWrapping(fa.typeName)

			argStart := ArgumentID(len(s.Arguments))
			argNames := make([]string, 0, len(fa.argDefs))
			argByName := make(map[string]*ast.InputValueDefinition)
			for _, a := range fa.argDefs {
				an := a.Name.String()
				if _, ok := argByName[an]; !ok {
					argNames = append(argNames, an)
				}
				argByName[an] = a
			}
			sort.Strings(argNames)
			for _, an := range argNames {
				a := argByName[an]
				atName, aw := typeWrapping(a.Type)
				var def *DefaultValue
				if a.DefaultValue != nil {
					var err error
					def, err = ValueFromAST(s.Interner, a.DefaultValue)
					if err != nil {
						return buildErrf(an, "invalid default value: %v", err)
					}
				}
				s.Arguments = append(s.Arguments, Argument{
					Name:         s.Interner.Intern(an),
					Type:         0,
					Wrapping:     aw,
					DefaultValue: def,
				})
				b.pendingArgumentRefs = append(b.pendingArgumentRefs, pendingRef{len(s.Arguments) - 1, atName})
			}
			argEnd := ArgumentID(len(s.Arguments))

			fieldExistsIn := sortedSubgraphIDs(fa.existsIn)

			var distinctTypeIn []SubgraphID
			for _, sgID := range fieldExistsIn {
				sgType, ok := fa.typeBySubgraph[sgID]
				if !ok {
					continue
				}
				sgTypeName, sgW := typeWrapping(sgType)
				if sgTypeName != typeName || sgW != w {
					distinctTypeIn = append(distinctTypeIn, sgID)
				}
			}

			field := Field{
				Parent:              tid,
				Name:                s.Interner.Intern(fname),
				Type:                0,
				Wrapping:            w,
				Arguments:           ArgumentRange{argStart, argEnd},
				ExistsInSubgraphIDs: fieldExistsIn,
				DistinctTypeInIDs:   distinctTypeIn,
				Requires:            make(map[SubgraphID]FieldSet),
				Provides:            make(map[SubgraphID]FieldSet),
				External:            copyBoolMap(fa.external),
				Shareable:           copyBoolMap(fa.shareable),
				OverrideFrom:        copyStringMap(fa.overrideFrom),
			}
			for sgID, fs := range fa.requires {
				parsed, err := ParseFieldSet(fs)
				if err != nil {
					return buildErrf(fmt.Sprintf("%s.%s", n, fname), "invalid @requires: %v", err)
				}
				field.Requires[sgID] = parsed
			}
			for sgID, fs := range fa.provides {
				parsed, err := ParseFieldSet(fs)
				if err != nil {
					return buildErrf(fmt.Sprintf("%s.%s", n, fname), "invalid @provides: %v", err)
				}
				field.Provides[sgID] = parsed
			}
			s.Fields = append(s.Fields, field)
			b.pendingFieldRefs = append(b.pendingFieldRefs, pendingRef{len(s.Fields) - 1, typeName})
		}
		end := FieldID(len(s.Fields))

		fieldIdx := make(map[NameID]FieldID, end-start)
		for fid := start; fid < end; fid++ {
			fieldIdx[s.Fields[fid].Name] = fid
		}
		s.fieldByName[tid] = fieldIdx

		kind := ObjectKind
		if acc.isInterface {
			kind = InterfaceKind
		}

		implements := make(map[SubgraphID][]TypeID)
		for sgID, ifaceNames := range acc.implements {
			for _, ifaceName := range ifaceNames {
				b.pendingImplements = append(b.pendingImplements, pendingImplement{
					typeID: tid, subgraph: sgID, name: ifaceName,
				})
			}
		}

		var keys []KeyID
		for _, rk := range acc.keys {
			parsed, err := ParseFieldSet(rk.fieldSet)
			if err != nil {
				return buildErrf(n, "invalid @key: %v", err)
			}
			kid := KeyID(len(s.Keys))
			s.Keys = append(s.Keys, Key{Entity: tid, Subgraph: rk.subgraph, FieldSet: parsed, Resolvable: rk.resolvable})
			keys = append(keys, kid)
		}

		s.Types = append(s.Types, Type{
			Name:                nameID,
			Kind:                kind,
			Fields:              FieldRange{start, end},
			ExistsInSubgraphIDs: existsIn,
			Implements:          implements,
			Keys:                keys,
		})
	}

	for _, r := range b.pendingFieldRefs {
		tid, ok := s.typeByName[s.Interner.Intern(r.name)]
		if !ok {
			return buildErrf(r.name, "unknown type referenced by field")
		}
		s.Fields[r.index].Type = tid
	}
	b.pendingFieldRefs = nil
	for _, r := range b.pendingArgumentRefs {
		tid, ok := s.typeByName[s.Interner.Intern(r.name)]
		if !ok {
			return buildErrf(r.name, "unknown type referenced by argument")
		}
		s.Arguments[r.index].Type = tid
	}
	b.pendingArgumentRefs = nil

	for _, r := range b.pendingImplements {
		ifaceID, ok := s.typeByName[s.Interner.Intern(r.name)]
		if !ok {
			return buildErrf(r.name, "unknown interface")
		}
		s.Types[r.typeID].Implements[r.subgraph] = append(s.Types[r.typeID].Implements[r.subgraph], ifaceID)
	}
	b.pendingImplements = nil

	return nil
}

func copyBoolMap(m map[SubgraphID]bool) map[SubgraphID]bool {
	out := make(map[SubgraphID]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStringMap(m map[SubgraphID]string) map[SubgraphID]string {
	out := make(map[SubgraphID]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedSubgraphIDs(m map[SubgraphID]bool) []SubgraphID {
	out := make([]SubgraphID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *builder) buildUnions() error {
	s := b.schema
	names := make([]string, 0, len(b.unions))
	for n := range b.unions {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		acc := b.unions[n]
		memberNames := make([]string, 0, len(acc.members))
		for m := range acc.members {
			memberNames = append(memberNames, m)
		}
		sort.Strings(memberNames)

		nameID := s.Interner.Intern(n)
		tid := TypeID(len(s.Types))
		s.typeByName[nameID] = tid

		var members []TypeID
		for _, m := range memberNames {
			mid, ok := s.typeByName[s.Interner.Intern(m)]
			if !ok {
				return buildErrf(n, "unknown union member %q", m)
			}
			members = append(members, mid)
		}

		s.Types = append(s.Types, Type{Name: nameID, Kind: UnionKind, UnionMembers: members})
	}
	return nil
}

func (b *builder) resolveRootTypes() error {
	s := b.schema
	if tid, ok := s.typeByName[s.Interner.Intern("Query")]; ok {
		s.Query = tid
	} else {
		return &BuildError{Message: "supergraph has no Query type"}
	}
	if tid, ok := s.typeByName[s.Interner.Intern("Mutation")]; ok {
		s.Mutation = tid
		s.hasMutation = true
	}
	if tid, ok := s.typeByName[s.Interner.Intern("Subscription")]; ok {
		s.Subscription = tid
		s.hasSubscr = true
	}
	return nil
}

func (b *builder) buildKeysAndResolvers() error {
	s := b.schema

	for fid, f := range s.Fields {
		if f.Parent != s.Query && (!s.hasMutation || f.Parent != s.Mutation) && (!s.hasSubscr || f.Parent != s.Subscription) {
			continue
		}
		for _, sgID := range s.SubgraphsForField(FieldID(fid)) {
			s.Resolvers = append(s.Resolvers, Resolver{Kind: RootResolver, Subgraph: sgID, RootField: FieldID(fid)})
		}
	}

	for kid, k := range s.Keys {
		if !k.Resolvable {
			continue
		}
		s.Resolvers = append(s.Resolvers, Resolver{Kind: EntityResolver, Subgraph: k.Subgraph, Entity: k.Entity, Key: KeyID(kid)})
	}

	return nil
}

func (b *builder) validate() error {
	s := b.schema

	for tid, t := range s.Types {
		if t.Kind != ObjectKind && t.Kind != InterfaceKind {
			continue
		}
		if !sort.SliceIsSorted(t.ExistsInSubgraphIDs, func(i, j int) bool { return t.ExistsInSubgraphIDs[i] < t.ExistsInSubgraphIDs[j] }) {
			return buildErrf(s.Interner.String(t.Name), "exists_in_subgraph_ids not sorted")
		}
		for fid := t.Fields.Start; fid < t.Fields.End; fid++ {
			f := s.Fields[fid]
			for _, sgID := range f.ExistsInSubgraphIDs {
				if !containsSubgraph(t.ExistsInSubgraphIDs, sgID) {
					return buildErrf(fmt.Sprintf("%s.%s", s.Interner.String(t.Name), s.Interner.String(f.Name)),
						"field exists in subgraph %d not declared on parent type", sgID)
				}
			}
			if len(f.ExistsInSubgraphIDs) == 0 {
				return buildErrf(fmt.Sprintf("%s.%s", s.Interner.String(t.Name), s.Interner.String(f.Name)),
					"field is not resolvable in any subgraph")
			}
			for sgID, fs := range f.Requires {
				if err := s.validateFieldSetAgainst(TypeID(tid), fs, sgID); err != nil {
					return buildErrf(fmt.Sprintf("%s.%s", s.Interner.String(t.Name), s.Interner.String(f.Name)), "@requires: %v", err)
				}
			}
		}
	}
	return nil
}

func containsSubgraph(ids []SubgraphID, id SubgraphID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// validateFieldSetAgainst checks that every field named in fs exists on
// parent and is declared in subgraph sgID, as an @external field or not.
func (s *Schema) validateFieldSetAgainst(parent TypeID, fs FieldSet, sgID SubgraphID) error {
	for _, sel := range fs.Selections {
		fid, ok := s.FieldByName(parent, s.Interner.Intern(sel.FieldName))
		if !ok {
			return fmt.Errorf("field %q not found on %s", sel.FieldName, s.Interner.String(s.Types[parent].Name))
		}
		f := s.Fields[fid]
		found := false
		for _, id := range f.ExistsInSubgraphIDs {
			if id == sgID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("field %q not resolvable in declaring subgraph", sel.FieldName)
		}
		if len(sel.SubSet.Selections) > 0 {
			if err := s.validateFieldSetAgainst(f.Type, sel.SubSet, sgID); err != nil {
				return err
			}
		}
	}
	return nil
}
