package schema

import "fmt"

// BuildError is returned by Build when the federated SDL set cannot be
// composed into a valid supergraph. It is always fatal: a BuildError never
// reaches a request, only a deployment.
type BuildError struct {
	Site    string // e.g. "Product.price" or subgraph name
	Message string
}

func (e *BuildError) Error() string {
	if e.Site == "" {
		return e.Message
	}
	return fmt.Sprintf("at %s: %s", e.Site, e.Message)
}

func buildErrf(site, format string, args ...any) *BuildError {
	return &BuildError{Site: site, Message: fmt.Sprintf(format, args...)}
}
