package response_test

import (
	"testing"

	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/response"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

func bindPlan(t *testing.T, s *schema.Schema, query string) (*operation.BoundOperation, *plan.Plan) {
	t.Helper()
	p := parser.New(lexer.New(query))
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	op, err := operation.Bind(s, doc, "")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	space, err := solve.Build(s, op)
	if err != nil {
		t.Fatalf("solve.Build failed: %v", err)
	}
	tree, err := solve.Solve(space)
	if err != nil {
		t.Fatalf("solve.Solve failed: %v", err)
	}
	pl, err := plan.Materialize(s, op, space, tree)
	if err != nil {
		t.Fatalf("plan.Materialize failed: %v", err)
	}
	return op, pl
}

func TestAssembler_MergeEntitiesSplicesByKeyAndPrunesStubs(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				users: [User!]!
			}

			type User @key(fields: "id") {
				id: ID!
				name: String!
			}
		`},
		{Name: "reviews", URL: "http://reviews.example.com", SDL: `
			type User @key(fields: "id") {
				id: ID!
				reviewCount: Int!
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { users { name reviewCount } }`)

	var entityFetchID plan.FetchID = -1
	for i := range pl.Fetches {
		if pl.Fetches[i].Kind == plan.EntityFetchKind {
			entityFetchID = pl.Fetches[i].ID
		}
	}
	if entityFetchID < 0 {
		t.Fatal("expected an entity fetch for reviewCount")
	}

	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"__typename": "User", "id": "1", "name": "Ada"},
			map[string]interface{}{"__typename": "User", "id": "2", "name": "Grace"},
		},
	})

	reps, err := a.RepresentationsFor(entityFetchID)
	if err != nil {
		t.Fatalf("RepresentationsFor failed: %v", err)
	}
	if len(reps) != 2 {
		t.Fatalf("expected 2 representations, got %d", len(reps))
	}
	if reps[0]["id"] != "1" || reps[1]["id"] != "2" {
		t.Errorf("expected representations in list order, got %#v", reps)
	}

	entities := []interface{}{
		map[string]interface{}{"reviewCount": float64(3)},
		map[string]interface{}{"reviewCount": float64(7)},
	}
	if err := a.MergeEntities(entityFetchID, entities); err != nil {
		t.Fatalf("MergeEntities failed: %v", err)
	}

	resp := a.Finish()
	users, ok := resp.Data["users"].([]interface{})
	if !ok || len(users) != 2 {
		t.Fatalf("expected 2 users in the final response, got %#v", resp.Data["users"])
	}
	first := users[0].(map[string]interface{})
	if first["name"] != "Ada" || first["reviewCount"] != 3 {
		t.Errorf("expected merged entity fields in the pruned response, got %#v", first)
	}
	if _, leaked := first["id"]; leaked {
		t.Errorf("expected the key stub field to be pruned out, got %#v", first)
	}
	if _, leaked := first["__typename"]; leaked {
		t.Errorf("expected the __typename stub to be pruned out since the client never asked for it, got %#v", first)
	}
}

func TestAssembler_NullBubblesToNearestNullableAncestor(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				user: User
			}

			type User @key(fields: "id") {
				id: ID!
				profile: Profile!
			}

			type Profile {
				bio: String!
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { user { id profile { bio } } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"user": map[string]interface{}{"id": "1", "profile": nil},
	})

	resp := a.Finish()
	if resp.Data["user"] != nil {
		t.Errorf("expected the non-null profile field's missing value to null out the whole User, got %#v", resp.Data["user"])
	}
}

func TestAssembler_TypenameRecoveredFromSubgraphData(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				user: User
			}

			type User @key(fields: "id") {
				id: ID!
				name: String!
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { user { __typename name } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"user": map[string]interface{}{"__typename": "User", "name": "Ada"},
	})

	resp := a.Finish()
	user := resp.Data["user"].(map[string]interface{})
	if user["__typename"] != "User" {
		t.Errorf("expected __typename to be recovered from the subgraph payload, got %#v", user)
	}
}

func TestAssembler_CoercesIntegralFloatToIntAndRefusesFractional(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				users: [User!]!
			}

			type User @key(fields: "id") {
				id: ID!
				age: Int!
				score: Int
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { users { age score } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"id": "1", "age": float64(30), "score": float64(1.5)},
		},
	})

	resp := a.Finish()
	users := resp.Data["users"].([]interface{})
	user := users[0].(map[string]interface{})
	if user["age"] != 30 {
		t.Errorf("expected an integral float64 Int field to be narrowed to int, got %#v", user["age"])
	}
	if user["score"] != nil {
		t.Errorf("expected a fractional float for a nullable Int field to null out rather than truncate, got %#v", user["score"])
	}

	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one error for the refused score field, got %#v", resp.Errors)
	}
	gotErr := resp.Errors[0]
	if gotErr.Extensions["code"] != "SUBGRAPH_INVALID_RESPONSE_ERROR" {
		t.Errorf("expected error code SUBGRAPH_INVALID_RESPONSE_ERROR, got %#v", gotErr.Extensions["code"])
	}
	wantPath := []interface{}{"users", 0, "score"}
	if len(gotErr.Path) != len(wantPath) {
		t.Fatalf("expected path %#v, got %#v", wantPath, gotErr.Path)
	}
	for i := range wantPath {
		if gotErr.Path[i] != wantPath[i] {
			t.Errorf("expected path %#v, got %#v", wantPath, gotErr.Path)
			break
		}
	}
}

// TestAssembler_NullableScalarCoercionFailureNullsFieldNotParent mirrors a
// subgraph replying with the wrong JSON type for a nullable Int field: the
// field itself nulls out but a sibling field and the parent survive.
func TestAssembler_NullableScalarCoercionFailureNullsFieldNotParent(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				user: User
			}

			type User @key(fields: "id") {
				id: ID!
				age: Int
				valid: String
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { user { age valid } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"user": map[string]interface{}{"id": "1", "age": "Bob", "valid": "yes"},
	})

	resp := a.Finish()
	user := resp.Data["user"].(map[string]interface{})
	if user["age"] != nil {
		t.Errorf("expected user.age to null out on a type mismatch, got %#v", user["age"])
	}
	if user["valid"] != "yes" {
		t.Errorf("expected user.valid to survive unaffected, got %#v", user["valid"])
	}

	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %#v", resp.Errors)
	}
	gotErr := resp.Errors[0]
	if gotErr.Extensions["code"] != "SUBGRAPH_INVALID_RESPONSE_ERROR" {
		t.Errorf("expected code SUBGRAPH_INVALID_RESPONSE_ERROR, got %#v", gotErr.Extensions["code"])
	}
	wantPath := []interface{}{"user", "age"}
	if len(gotErr.Path) != len(wantPath) || gotErr.Path[0] != wantPath[0] || gotErr.Path[1] != wantPath[1] {
		t.Errorf("expected path %#v, got %#v", wantPath, gotErr.Path)
	}
}

func interfaceSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "animals", URL: "http://animals.example.com", SDL: `
			type Query {
				animal: Animal
			}

			interface Animal {
				id: ID!
			}

			type Cat implements Animal @key(fields: "id") {
				id: ID!
				meow: String!
			}

			type Dog implements Animal @key(fields: "id") {
				id: ID!
				bark: String!
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}
	return s
}

// TestAssembler_InterfaceSelectionOnlyAppliesMatchingBranch covers S6: a
// query selecting fields under two different inline-fragment branches of an
// interface must only evaluate the branch matching the concrete __typename
// the subgraph actually returned, never the sibling branch's fields.
func TestAssembler_InterfaceSelectionOnlyAppliesMatchingBranch(t *testing.T) {
	s := interfaceSchema(t)
	op, pl := bindPlan(t, s, `query { animal { __typename ... on Cat { meow } ... on Dog { bark } } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"animal": map[string]interface{}{"__typename": "Cat", "meow": "purr"},
	})

	resp := a.Finish()
	if len(resp.Errors) != 0 {
		t.Fatalf("expected no errors, got %#v", resp.Errors)
	}
	animal := resp.Data["animal"].(map[string]interface{})
	if animal["meow"] != "purr" {
		t.Errorf("expected the Cat branch's meow field, got %#v", animal)
	}
	if _, present := animal["bark"]; present {
		t.Errorf("expected the Dog branch's required bark field to be skipped entirely for a Cat, got %#v", animal)
	}
}

// TestAssembler_MissingTypenameOnAbstractPositionRecordsError covers the
// §4.7 requirement that an abstract position without a resolvable
// __typename is a malformed subgraph response, not a silent fallback.
func TestAssembler_MissingTypenameOnAbstractPositionRecordsError(t *testing.T) {
	s := interfaceSchema(t)
	op, pl := bindPlan(t, s, `query { animal { ... on Cat { meow } } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"animal": map[string]interface{}{"meow": "purr"},
	})

	resp := a.Finish()
	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one error for the missing __typename, got %#v", resp.Errors)
	}
	if resp.Errors[0].Extensions["code"] != "SUBGRAPH_INVALID_RESPONSE_ERROR" {
		t.Errorf("expected code SUBGRAPH_INVALID_RESPONSE_ERROR, got %#v", resp.Errors[0].Extensions["code"])
	}
}

// TestAssembler_ResponseIntOutOfI32RangeIsRefused parallels the
// operation-side i32 bound tests: a subgraph sending an out-of-range
// integral float for an Int field must be refused like any other
// malformed scalar, not silently truncated.
func TestAssembler_ResponseIntOutOfI32RangeIsRefused(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				user: User
			}

			type User @key(fields: "id") {
				id: ID!
				views: Int
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { user { views } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"user": map[string]interface{}{"id": "1", "views": float64(99999999999)},
	})

	resp := a.Finish()
	user := resp.Data["user"].(map[string]interface{})
	if user["views"] != nil {
		t.Errorf("expected an out-of-i32-range Int field to null out, got %#v", user["views"])
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %#v", resp.Errors)
	}
	if resp.Errors[0].Extensions["code"] != "SUBGRAPH_INVALID_RESPONSE_ERROR" {
		t.Errorf("expected code SUBGRAPH_INVALID_RESPONSE_ERROR, got %#v", resp.Errors[0].Extensions["code"])
	}
}

// TestAssembler_RequiredScalarCoercionFailurePropagatesToParent mirrors the
// same failure as above but against a non-null field: the null bubbles up
// to the nearest nullable ancestor, which is the user itself.
func TestAssembler_RequiredScalarCoercionFailurePropagatesToParent(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: `
			type Query {
				user: User
			}

			type User @key(fields: "id") {
				id: ID!
				age: Int!
				valid: String
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, pl := bindPlan(t, s, `query { user { age valid } }`)
	a := response.NewAssembler(s, op, pl)
	a.MergeRoot(map[string]interface{}{
		"user": map[string]interface{}{"id": "1", "age": "Bob", "valid": "yes"},
	})

	resp := a.Finish()
	if resp.Data["user"] != nil {
		t.Errorf("expected user to null out since its required age field could not be coerced, got %#v", resp.Data["user"])
	}

	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %#v", resp.Errors)
	}
	gotErr := resp.Errors[0]
	if gotErr.Extensions["code"] != "SUBGRAPH_INVALID_RESPONSE_ERROR" {
		t.Errorf("expected code SUBGRAPH_INVALID_RESPONSE_ERROR, got %#v", gotErr.Extensions["code"])
	}
	wantPath := []interface{}{"user", "age"}
	if len(gotErr.Path) != len(wantPath) || gotErr.Path[0] != wantPath[0] || gotErr.Path[1] != wantPath[1] {
		t.Errorf("expected path %#v, got %#v", wantPath, gotErr.Path)
	}
}
