package schema_test

import (
	"testing"

	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

func usersSDL() string {
	return `
		type Query {
			users: [User!]!
		}

		type User @key(fields: "id") {
			id: ID!
			name: String!
			organization: Organization
		}

		type Organization @key(fields: "id") {
			id: ID!
		}
	`
}

func orgsSDL() string {
	return `
		type Organization @key(fields: "id") {
			id: ID!
			name: String!
			plan: String!
		}
	`
}

func buildTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "users", URL: "http://users.example.com", SDL: usersSDL()},
		{Name: "orgs", URL: "http://orgs.example.com", SDL: orgsSDL()},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return s
}

func TestBuild_ComposesTypesAcrossSubgraphs(t *testing.T) {
	s := buildTestSchema(t)

	orgName := s.Interner.Intern("Organization")
	orgID, ok := s.TypeByName(orgName)
	if !ok {
		t.Fatal("Organization type not found")
	}

	org := s.Types[orgID]
	if len(org.ExistsInSubgraphIDs) != 2 {
		t.Errorf("expected Organization to exist in 2 subgraphs, got %d", len(org.ExistsInSubgraphIDs))
	}

	nameFieldID, ok := s.FieldByName(orgID, s.Interner.Intern("name"))
	if !ok {
		t.Fatal("Organization.name field not found")
	}
	nameField := s.Fields[nameFieldID]
	if len(nameField.ExistsInSubgraphIDs) != 1 {
		t.Errorf("expected Organization.name to exist in exactly 1 subgraph, got %d", len(nameField.ExistsInSubgraphIDs))
	}
}

// TestBuild_DistinctTypeInIDsRecordsSubgraphsWhoseTypeDiverges covers
// spec.md's distinct_type_in_ids: a field declared with a different return
// type in one subgraph than the supergraph's resolved type (taken from the
// first subgraph to declare it) must list that subgraph, while a field whose
// declared type agrees everywhere gets no entry at all.
func TestBuild_DistinctTypeInIDsRecordsSubgraphsWhoseTypeDiverges(t *testing.T) {
	s, err := schema.Build([]schema.SubgraphSource{
		{Name: "catalog", URL: "http://catalog.example.com", SDL: `
			type Query {
				products: [Product!]!
			}

			type Product @key(fields: "id") {
				id: ID!
				name: String!
				rating: Int!
			}
		`},
		{Name: "legacy", URL: "http://legacy.example.com", SDL: `
			type Product @key(fields: "id") {
				id: ID!
				rating: Float!
			}
		`},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	productID, ok := s.TypeByName(s.Interner.Intern("Product"))
	if !ok {
		t.Fatal("Product type not found")
	}

	ratingID, ok := s.FieldByName(productID, s.Interner.Intern("rating"))
	if !ok {
		t.Fatal("Product.rating field not found")
	}
	rating := s.Fields[ratingID]
	if len(rating.DistinctTypeInIDs) != 1 {
		t.Fatalf("expected rating to have exactly 1 distinct-type subgraph, got %v", rating.DistinctTypeInIDs)
	}
	var legacyID schema.SubgraphID = -1
	for i, sg := range s.Subgraphs {
		if sg.Name == "legacy" {
			legacyID = schema.SubgraphID(i)
		}
	}
	if rating.DistinctTypeInIDs[0] != legacyID {
		t.Errorf("expected the legacy subgraph to be flagged, got %v", rating.DistinctTypeInIDs)
	}

	nameID, ok := s.FieldByName(productID, s.Interner.Intern("name"))
	if !ok {
		t.Fatal("Product.name field not found")
	}
	if name := s.Fields[nameID]; len(name.DistinctTypeInIDs) != 0 {
		t.Errorf("expected name to have no distinct-type subgraphs, got %v", name.DistinctTypeInIDs)
	}
}

func TestBuild_KeysAndEntityResolvers(t *testing.T) {
	s := buildTestSchema(t)

	orgID, _ := s.TypeByName(s.Interner.Intern("Organization"))
	if !s.IsEntity(orgID) {
		t.Fatal("Organization should be an entity")
	}

	var entityResolvers int
	for _, r := range s.Resolvers {
		if r.Kind == schema.EntityResolver && r.Entity == orgID {
			entityResolvers++
		}
	}
	if entityResolvers != 2 {
		t.Errorf("expected 2 entity resolvers for Organization (one per subgraph), got %d", entityResolvers)
	}
}

func TestBuild_SlicesAreSorted(t *testing.T) {
	s := buildTestSchema(t)

	for _, ty := range s.Types {
		if ty.Kind != schema.ObjectKind && ty.Kind != schema.InterfaceKind {
			continue
		}
		for i := 1; i < len(ty.ExistsInSubgraphIDs); i++ {
			if ty.ExistsInSubgraphIDs[i-1] >= ty.ExistsInSubgraphIDs[i] {
				t.Errorf("%s.ExistsInSubgraphIDs not strictly increasing: %v", s.Interner.String(ty.Name), ty.ExistsInSubgraphIDs)
			}
		}
	}
}

func TestBuild_RejectsEmptySubgraphSet(t *testing.T) {
	if _, err := schema.Build(nil); err == nil {
		t.Fatal("expected error composing zero subgraphs")
	}
}

func TestParseFieldSet_Nested(t *testing.T) {
	fs, err := schema.ParseFieldSet(`id address { zip city }`)
	if err != nil {
		t.Fatalf("ParseFieldSet failed: %v", err)
	}
	if len(fs.Selections) != 2 {
		t.Fatalf("expected 2 top-level selections, got %d", len(fs.Selections))
	}
	if fs.Selections[1].FieldName != "address" || len(fs.Selections[1].SubSet.Selections) != 2 {
		t.Errorf("expected nested address { zip city }, got %+v", fs.Selections[1])
	}
}
