package operation_test

import (
	"testing"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

func intArgSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "widgets", URL: "http://widgets.example.com", SDL: `
			type Query {
				widget(count: Int!): String
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}
	return s
}

func firstArg(t *testing.T, op *operation.BoundOperation) operation.BoundArgument {
	t.Helper()
	root := op.SelectionSets[op.Root]
	f := op.Fields[root.Fields.Start]
	if len(f.Arguments) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(f.Arguments))
	}
	return f.Arguments[0]
}

func TestCoerceLiteral_IntOutOfI32RangeIsRejected(t *testing.T) {
	s := intArgSchema(t)
	doc := parseDoc(t, `query { widget(count: 99999999999) }`)
	op, err := operation.Bind(s, doc, "")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	_, err = operation.ResolveArgument(s, firstArg(t, op), nil, "count")
	if err == nil {
		t.Fatal("expected an out-of-range Int literal to be rejected")
	}
}

func TestCoerceLiteral_IntWithinI32RangeIsAccepted(t *testing.T) {
	s := intArgSchema(t)
	doc := parseDoc(t, `query { widget(count: 42) }`)
	op, err := operation.Bind(s, doc, "")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	v, err := operation.ResolveArgument(s, firstArg(t, op), nil, "count")
	if err != nil {
		t.Fatalf("expected an in-range Int literal to be accepted, got %v", err)
	}
	if v.Int != 42 {
		t.Errorf("expected 42, got %d", v.Int)
	}
}

func TestCoerceVariables_IntOutOfI32RangeIsRejected(t *testing.T) {
	s := intArgSchema(t)
	doc := parseDoc(t, `query($count: Int!) { widget(count: $count) }`)
	op, err := operation.Bind(s, doc, "")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	_, err = operation.CoerceVariables(s, op, map[string]interface{}{"count": float64(5000000000)})
	if err == nil {
		t.Fatal("expected an out-of-range Int variable to be rejected")
	}
}

func TestCoerceVariables_IntWithinI32RangeIsAccepted(t *testing.T) {
	s := intArgSchema(t)
	doc := parseDoc(t, `query($count: Int!) { widget(count: $count) }`)
	op, err := operation.Bind(s, doc, "")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	vars, err := operation.CoerceVariables(s, op, map[string]interface{}{"count": float64(42)})
	if err != nil {
		t.Fatalf("expected an in-range Int variable to be accepted, got %v", err)
	}
	if vars["count"].Int != 42 {
		t.Errorf("expected 42, got %d", vars["count"].Int)
	}
}
