package request

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// SignatureHeader is the HTTP header a signed subgraph request carries its
// HMAC in.
const SignatureHeader = "X-Signature"

// RequestIDHeader carries the per-operation request id forwarded to every
// subgraph, for trace correlation across the gateway and its subgraphs.
const RequestIDHeader = "X-Request-Id"

// Sign computes the hex-encoded HMAC-SHA256 of method, path and body under
// subgraph's SigningSecret, for the coordinator to attach as SignatureHeader
// before dispatching the request. A subgraph with no SigningSecret
// configured is not signed; Sign reports ok=false so the caller can skip
// setting the header rather than send a signature of an empty key.
func Sign(subgraph *schema.Subgraph, method, path string, body []byte) (signature string, ok bool) {
	if subgraph.SigningSecret == "" {
		return "", false
	}
	mac := hmac.New(sha256.New, []byte(subgraph.SigningSecret))
	mac.Write([]byte(method))
	mac.Write([]byte("\n"))
	mac.Write([]byte(path))
	mac.Write([]byte("\n"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), true
}

// Verify reports whether signature is the correct HMAC for method, path and
// body under subgraph's SigningSecret, using a constant-time comparison.
// Subgraphs primarily use this against requests forwarded to them in a test
// harness or mock subgraph server; the gateway itself only ever signs,
// never verifies its own outbound requests.
func Verify(subgraph *schema.Subgraph, method, path string, body []byte, signature string) bool {
	want, ok := Sign(subgraph, method, path, body)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	wantBytes, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	return hmac.Equal(wantBytes, got)
}
