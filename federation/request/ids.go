// Package request renders a materialized plan.Fetch into the GraphQL
// document (query text + variables) its subgraph expects, and signs the
// outbound HTTP request.
package request

// Document is a GraphQL request ready to send to a subgraph: the query or
// mutation text and the JSON-shaped variables map to send alongside it.
type Document struct {
	Query     string
	Variables map[string]interface{}
}

// RenderError is returned when a fetch cannot be rendered, which indicates a
// plan/solve invariant violation rather than anything a caller can recover
// from by retrying.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string { return "request: " + e.Message }
