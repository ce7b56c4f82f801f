package schema

// Subgraph records one upstream GraphQL service's transport-relevant
// metadata. The core never dials out itself; this is the data the
// coordinator's Fetcher needs per subgraph.
type Subgraph struct {
	Name           string
	URL            string
	WebsocketURL   string
	Headers        map[string]string
	Timeout        DurationMillis
	RetryMax       int
	EntityCacheTTL DurationMillis
	SigningSecret  string
}

// DurationMillis avoids pulling time.Duration into the schema's otherwise
// POD arenas; conversions happen at the coordinate/request boundary.
type DurationMillis int64

// ResolverKind distinguishes how a Resolver can be invoked.
type ResolverKind int

const (
	// RootResolver resolves one root (Query/Mutation/Subscription) field
	// directly from one subgraph.
	RootResolver ResolverKind = iota
	// EntityResolver resolves an entity type given a @key projection, via
	// the subgraph's `_entities` convention.
	EntityResolver
)

// Resolver is a tagged variant: a way to obtain a set of fields from one
// subgraph, either at the root or for a keyed entity.
type Resolver struct {
	Kind     ResolverKind
	Subgraph SubgraphID

	// RootResolver
	RootField FieldID

	// EntityResolver
	Entity TypeID
	Key    KeyID
}

// Key is one `@key(fields: "...")` on an entity type, as one subgraph
// declares it; Resolvable is false for a key declared resolvable: false.
type Key struct {
	Entity     TypeID
	Subgraph   SubgraphID
	FieldSet   FieldSet
	Resolvable bool
}
