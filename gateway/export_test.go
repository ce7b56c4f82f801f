package gateway

import "net/http"

// BuildEngineForTest exposes buildEngine to tests in package gateway_test.
func BuildEngineForTest(sdls, hosts map[string]string, httpClient *http.Client) (*executionEngine, error) {
	return buildEngine(sdls, hosts, httpClient)
}

// CopyMapForTest exposes copyMap to tests in package gateway_test.
func CopyMapForTest(m map[string]string) map[string]string {
	return copyMap(m)
}

// FetchSDLForTest exposes fetchSDL to tests in package gateway_test.
func FetchSDLForTest(host string, httpClient *http.Client, retry RetryOption) (string, error) {
	return fetchSDL(host, httpClient, retry)
}
