package coordinate_test

import (
	"context"
	"testing"
	"time"

	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"

	"github.com/n9te9/go-graphql-federation-gateway/federation/coordinate"
	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

// fakeFetcher answers each request from a fixed, URL-keyed script, so a test
// never opens a real socket.
type fakeFetcher struct {
	byURL map[string][]byte
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, req coordinate.FetchRequest) (*coordinate.FetchResponse, error) {
	f.calls++
	body, ok := f.byURL[req.URL]
	if !ok {
		return &coordinate.FetchResponse{StatusCode: 200, Body: []byte(`{"data":{}}`)}, nil
	}
	return &coordinate.FetchResponse{StatusCode: 200, Body: body}, nil
}

// realClock is a stand-in Clock with a fixed Now and timers that never
// fire, for tests that never exercise a timeout path.
type realClock struct{}

func (realClock) Now() time.Time                  { return time.Unix(0, 0) }
func (realClock) After(d time.Duration) <-chan time.Time { return make(chan time.Time) }

func bindSolvePlan(t *testing.T, s *schema.Schema, query string) (*operation.BoundOperation, *solve.Space, *solve.Tree, *plan.Plan, operation.Variables) {
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
	vars, err := operation.CoerceVariables(s, op, nil)
	if err != nil {
		t.Fatalf("CoerceVariables failed: %v", err)
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
	return op, space, tree, pl, vars
}

func TestExecute_SingleSubgraphRootFetch(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com/graphql", SDL: `
			type Query {
				users: [User!]!
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

	op, space, tree, pl, vars := bindSolvePlan(t, s, `query { users { name } }`)

	fetcher := &fakeFetcher{byURL: map[string][]byte{
		"http://users.example.com/graphql": []byte(`{"data":{"users":[{"name":"Ada"},{"name":"Grace"}]}}`),
	}}

	resp := coordinate.Execute(context.Background(), s, op, space, tree, pl, vars, fetcher, realClock{}, coordinate.Options{})
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	users, ok := resp.Data["users"].([]interface{})
	if !ok || len(users) != 2 {
		t.Fatalf("expected 2 users, got %#v", resp.Data["users"])
	}
	if users[0].(map[string]interface{})["name"] != "Ada" {
		t.Errorf("expected first user's name to be Ada, got %#v", users[0])
	}
	if fetcher.calls != 1 {
		t.Errorf("expected exactly 1 subgraph call for a single-subgraph query, got %d", fetcher.calls)
	}
}

func TestExecute_EntityFetchSplicesAcrossSubgraphs(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com/graphql", SDL: `
			type Query {
				users: [User!]!
			}

			type User @key(fields: "id") {
				id: ID!
				name: String!
			}
		`},
		{Name: "reviews", URL: "http://reviews.example.com/graphql", SDL: `
			type User @key(fields: "id") {
				id: ID!
				reviewCount: Int!
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, space, tree, pl, vars := bindSolvePlan(t, s, `query { users { name reviewCount } }`)

	fetcher := &fakeFetcher{byURL: map[string][]byte{
		"http://users.example.com/graphql": []byte(`{"data":{"users":[{"__typename":"User","id":"1","name":"Ada"},{"__typename":"User","id":"2","name":"Grace"}]}}`),
		"http://reviews.example.com/graphql": []byte(`{"data":{"_entities":[{"reviewCount":3},{"reviewCount":7}]}}`),
	}}

	resp := coordinate.Execute(context.Background(), s, op, space, tree, pl, vars, fetcher, realClock{}, coordinate.Options{})
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	users := resp.Data["users"].([]interface{})
	first := users[0].(map[string]interface{})
	if first["name"] != "Ada" || first["reviewCount"] != 3 {
		t.Errorf("expected the entity fetch result spliced into the root result, got %#v", first)
	}
	if fetcher.calls != 2 {
		t.Errorf("expected exactly 2 subgraph calls (root + entity fetch), got %d", fetcher.calls)
	}
}

func TestExecute_SubgraphErrorIsRecordedNotFatal(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com/graphql", SDL: `
			type Query {
				users: [User!]
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

	op, space, tree, pl, vars := bindSolvePlan(t, s, `query { users { name } }`)

	fetcher := &fakeFetcher{byURL: map[string][]byte{
		"http://users.example.com/graphql": []byte(`{"data":null,"errors":[{"message":"boom"}]}`),
	}}

	resp := coordinate.Execute(context.Background(), s, op, space, tree, pl, vars, fetcher, realClock{}, coordinate.Options{})
	if len(resp.Errors) != 1 || resp.Errors[0].Message != "boom" {
		t.Fatalf("expected the subgraph's GraphQL error to be recorded, got %+v", resp.Errors)
	}
	if resp.Data["users"] != nil {
		t.Errorf("expected a nullable root field with no data to surface as null, got %#v", resp.Data["users"])
	}
}

func TestExecute_AuthorizeHookAbortsBeforeAnyFetch(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com/graphql", SDL: `
			type Query {
				users: [User!]!
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

	op, space, tree, pl, vars := bindSolvePlan(t, s, `query { users { name } }`)
	fetcher := &fakeFetcher{byURL: map[string][]byte{}}

	resp := coordinate.Execute(context.Background(), s, op, space, tree, pl, vars, fetcher, realClock{}, coordinate.Options{
		Authorize: func(ctx context.Context, op *operation.BoundOperation) error {
			return errDenied
		},
	})
	if len(resp.Errors) != 1 {
		t.Fatalf("expected exactly one authorization error, got %+v", resp.Errors)
	}
	if fetcher.calls != 0 {
		t.Errorf("expected the authorize hook to prevent any subgraph fetch, got %d calls", fetcher.calls)
	}
}

var errDenied = denialError("denied")

type denialError string

func (e denialError) Error() string { return string(e) }
