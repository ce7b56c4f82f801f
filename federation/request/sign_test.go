package request_test

import (
	"testing"

	"github.com/n9te9/go-graphql-federation-gateway/federation/request"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

func TestSignAndVerify_RoundTrips(t *testing.T) {
	sg := &schema.Subgraph{Name: "users", SigningSecret: "top-secret"}
	body := []byte(`{"query":"{ users { id } }"}`)

	sig, ok := request.Sign(sg, "POST", "/graphql", body)
	if !ok {
		t.Fatal("expected Sign to succeed for a subgraph with a SigningSecret")
	}
	if !request.Verify(sg, "POST", "/graphql", body, sig) {
		t.Error("expected Verify to accept the signature Sign produced")
	}
}

func TestSignAndVerify_RejectsTamperedBody(t *testing.T) {
	sg := &schema.Subgraph{Name: "users", SigningSecret: "top-secret"}
	sig, ok := request.Sign(sg, "POST", "/graphql", []byte(`{"query":"{ a }"}`))
	if !ok {
		t.Fatal("expected Sign to succeed")
	}
	if request.Verify(sg, "POST", "/graphql", []byte(`{"query":"{ b }"}`), sig) {
		t.Error("expected Verify to reject a signature computed over a different body")
	}
}

func TestSign_NoSecretSkipsSigning(t *testing.T) {
	sg := &schema.Subgraph{Name: "users"}
	if _, ok := request.Sign(sg, "POST", "/graphql", []byte("{}")); ok {
		t.Error("expected Sign to report ok=false for a subgraph with no SigningSecret")
	}
}
