package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/n9te9/go-graphql-federation-gateway/federation/coordinate"
)

// httpFetcher implements coordinate.Fetcher over a real *http.Client, the
// same one the teacher's ExecutorV2.sendRequest used directly.
type httpFetcher struct {
	client *http.Client
}

// newHTTPFetcher wraps client (already carrying any otelhttp transport the
// gateway set up) as a coordinate.Fetcher.
func newHTTPFetcher(client *http.Client) *httpFetcher {
	return &httpFetcher{client: client}
}

func (f *httpFetcher) Fetch(ctx context.Context, req coordinate.FetchRequest) (*coordinate.FetchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, strings.NewReader(string(req.Body)))
	if err != nil {
		return nil, fmt.Errorf("building subgraph request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending subgraph request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading subgraph response: %w", err)
	}

	return &coordinate.FetchResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
