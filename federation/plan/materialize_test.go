package plan_test

import (
	"strings"
	"testing"

	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
)

func buildFederatedSchema(t *testing.T) *schema.Schema {
	t.Helper()
	usersSDL := `
		type Query {
			users: [User!]!
		}

		type User @key(fields: "id") {
			id: ID!
			name: String!
		}
	`
	reviewsSDL := `
		type User @key(fields: "id") {
			id: ID!
			reviews: [Review!]!
		}

		type Review @key(fields: "id") {
			id: ID!
			body: String!
			author: User!
		}
	`
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: usersSDL},
		{Name: "reviews", URL: "http://reviews.example.com", SDL: reviewsSDL},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}
	return s
}

func bindAndSolve(t *testing.T, s *schema.Schema, query string) (*operation.BoundOperation, *solve.Space, *solve.Tree) {
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
		t.Fatalf("Build failed: %v", err)
	}
	tree, err := solve.Solve(space)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	return op, space, tree
}

func TestMaterialize_SingleSubgraphQueryIsOneRootFetch(t *testing.T) {
	s := buildFederatedSchema(t)
	op, space, tree := bindAndSolve(t, s, `query { users { id name } }`)

	p, err := plan.Materialize(s, op, space, tree)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(p.Fetches) != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", len(p.Fetches))
	}
	if p.Fetches[0].Kind != plan.RootFetchKind {
		t.Errorf("expected a root fetch")
	}
	if len(p.Fetches[0].DependsOn) != 0 {
		t.Errorf("a lone root fetch should have no dependencies")
	}
}

func TestMaterialize_CrossSubgraphHopCreatesEntityFetch(t *testing.T) {
	s := buildFederatedSchema(t)
	op, space, tree := bindAndSolve(t, s, `query { users { id reviews { id body } } }`)

	p, err := plan.Materialize(s, op, space, tree)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	var root, entity *plan.Fetch
	for i := range p.Fetches {
		f := &p.Fetches[i]
		switch f.Kind {
		case plan.RootFetchKind:
			root = f
		case plan.EntityFetchKind:
			entity = f
		}
	}
	if root == nil || entity == nil {
		t.Fatalf("expected one root fetch and one entity fetch, got %d fetches", len(p.Fetches))
	}
	if len(entity.DependsOn) != 1 || entity.DependsOn[0] != root.ID {
		t.Errorf("expected the entity fetch to depend on the root fetch, got %+v", entity.DependsOn)
	}
	if entity.Key < 0 {
		t.Errorf("expected the entity fetch to carry a resolvable key")
	}
	if len(entity.InsertionPath) == 0 {
		t.Errorf("expected a non-empty insertion path for the entity fetch")
	}
}

func TestMaterialize_RequiresAddsDependencyAndExtraField(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "products", URL: "http://products.example.com", SDL: `
			type Query {
				product(id: ID!): Product
			}

			type Product @key(fields: "id") {
				id: ID!
				weight: Float!
			}
		`},
		{Name: "shipping", URL: "http://shipping.example.com", SDL: `
			type Product @key(fields: "id") {
				id: ID!
				weight: Float! @external
				shippingEstimate: Float! @requires(fields: "weight")
			}
		`},
	})
	if err != nil {
		t.Fatalf("schema.Build failed: %v", err)
	}

	op, space, tree := bindAndSolve(t, s, `query { product(id: "1") { id shippingEstimate } }`)
	p, err := plan.Materialize(s, op, space, tree)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	var shippingFetch *plan.Fetch
	for i := range p.Fetches {
		for _, f := range p.Fetches[i].Fields {
			if f.ResponseKey == "shippingEstimate" {
				shippingFetch = &p.Fetches[i]
			}
		}
	}
	if shippingFetch == nil {
		t.Fatal("expected to find the fetch resolving shippingEstimate")
	}
	if len(shippingFetch.DependsOn) == 0 {
		t.Error("expected shippingEstimate's fetch to depend on whatever fetch resolves weight")
	}

	foundExtra := false
	for i := range p.Fetches {
		for _, f := range p.Fetches[i].Fields {
			if strings.HasPrefix(f.ResponseKey, "weight__") {
				foundExtra = true
			}
		}
	}
	if !foundExtra {
		t.Error("expected a synthesized extra field for the required weight")
	}
}
