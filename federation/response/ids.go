// Package response assembles the subgraph fetch results a coordinator
// collects into the single client-shaped result: entity results spliced
// back into their insertion points, abstract-type __typename recovered,
// every field pruned down to exactly what the client selected, and nulls
// bubbled up to the nearest nullable ancestor per the field's wrapping.
package response

// Response is the final client-facing GraphQL result.
type Response struct {
	Data   map[string]interface{} `json:"data"`
	Errors []Error                `json:"errors,omitempty"`
}

// Error is a client-facing GraphQL error: a message, an optional response
// path, and optional extensions such as "code" or "serviceName".
type Error struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// AssembleError is returned when fetch results cannot be reconciled with the
// plan that produced them, which indicates a plan/coordinate invariant
// violation rather than anything a caller can recover from.
type AssembleError struct {
	Message string
}

func (e *AssembleError) Error() string { return "response: " + e.Message }
