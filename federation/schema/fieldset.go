package schema

import (
	"fmt"
	"strings"
)

// FieldSet is a parsed FieldSet directive literal, e.g. `"id address { zip }"`
// from a `@key`/`@requires`/`@provides` argument. Each Selection names a
// field and, for composite keys, the nested selections under it.
type FieldSet struct {
	Selections []FieldSetSelection
}

// FieldSetSelection is one field named within a FieldSet, with its own
// nested FieldSet when the field set narrows further into that field's
// sub-selections (e.g. `address { zip }`).
type FieldSetSelection struct {
	FieldName string
	SubSet    FieldSet // zero value (no Selections) when the field is a leaf
}

// ParseFieldSet parses a FieldSet literal such as `id` or `id address { zip
// city }` into a FieldSet tree. It is deliberately small: FieldSet literals
// only ever name fields and braces, never arguments or aliases.
func ParseFieldSet(src string) (FieldSet, error) {
	toks := tokenizeFieldSet(src)
	fs, rest, err := parseFieldSetSelections(toks)
	if err != nil {
		return FieldSet{}, err
	}
	if len(rest) > 0 {
		return FieldSet{}, fmt.Errorf("schema: unexpected trailing token %q in field set %q", rest[0], src)
	}
	return fs, nil
}

func tokenizeFieldSet(src string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range src {
		switch {
		case r == '{' || r == '}':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseFieldSetSelections(toks []string) (FieldSet, []string, error) {
	var fs FieldSet
	for len(toks) > 0 {
		tok := toks[0]
		if tok == "}" {
			return fs, toks, nil
		}
		if tok == "{" {
			return fs, toks, fmt.Errorf("schema: field set: unexpected '{'")
		}
		toks = toks[1:]

		sel := FieldSetSelection{FieldName: tok}
		if len(toks) > 0 && toks[0] == "{" {
			sub, rest, err := parseFieldSetSelections(toks[1:])
			if err != nil {
				return fs, nil, err
			}
			if len(rest) == 0 || rest[0] != "}" {
				return fs, nil, fmt.Errorf("schema: field set: unterminated '{' after %q", tok)
			}
			sel.SubSet = sub
			toks = rest[1:]
		}
		fs.Selections = append(fs.Selections, sel)
	}
	return fs, toks, nil
}

// String renders the FieldSet back to its literal form.
func (fs FieldSet) String() string {
	parts := make([]string, 0, len(fs.Selections))
	for _, sel := range fs.Selections {
		if len(sel.SubSet.Selections) == 0 {
			parts = append(parts, sel.FieldName)
		} else {
			parts = append(parts, sel.FieldName+" { "+sel.SubSet.String()+" }")
		}
	}
	return strings.Join(parts, " ")
}
