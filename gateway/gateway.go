package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"

	"github.com/n9te9/go-graphql-federation-gateway/federation/coordinate"
	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type GatewayService struct {
	Name        string   `yaml:"name"`
	Host        string   `yaml:"host"`
	SchemaFiles []string `yaml:"schema_files"`

	Headers              map[string]string `yaml:"headers"`
	TimeoutMillis        int64             `yaml:"timeout_millis"`
	RetryMax             int               `yaml:"retry_max"`
	EntityCacheTTLMillis int64             `yaml:"entity_cache_ttl_millis"`
	SigningSecret        string            `yaml:"signing_secret"`
}

type GatewayOption struct {
	Endpoint                 string               `yaml:"endpoint"`
	ServiceName              string               `yaml:"service_name"`
	Port                     int                  `yaml:"port"`
	TimeoutDuration          string               `yaml:"timeout_duration" default:"5s"`
	OperationTimeoutDuration string               `yaml:"operation_timeout_duration"`
	Services                 []GatewayService     `yaml:"services"`
	Opentelemetry            OpentelemetrySetting `yaml:"opentelemetry"`
}

type OpentelemetrySetting struct {
	TracingSetting OpentelemetryTracingSetting `yaml:"tracing"`
}

type OpentelemetryTracingSetting struct {
	Enable bool `yaml:"enable" default:"false"`
}

type gateway struct {
	graphQLEndpoint string
	serviceName     string

	schema  *schema.Schema
	fetcher coordinate.Fetcher
	clock   coordinate.Clock

	operationTimeout           time.Duration
	enableOpentelemetryTracing bool
}

var _ http.Handler = (*gateway)(nil)

func NewGateway(settings GatewayOption) (*gateway, error) {
	sources := make([]schema.SubgraphSource, 0, len(settings.Services))
	for _, s := range settings.Services {
		var sdl []byte
		for _, f := range s.SchemaFiles {
			src, err := os.ReadFile(f)
			if err != nil {
				return nil, err
			}
			sdl = append(sdl, src...)
		}

		sources = append(sources, schema.SubgraphSource{
			Name:           s.Name,
			URL:            s.Host,
			Headers:        s.Headers,
			Timeout:        schema.DurationMillis(s.TimeoutMillis),
			RetryMax:       s.RetryMax,
			EntityCacheTTL: schema.DurationMillis(s.EntityCacheTTLMillis),
			SigningSecret:  s.SigningSecret,
			SDL:            string(sdl),
		})
	}

	sch, err := schema.Build(sources)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: 3 * time.Second, // 3 second timeout for subgraph requests
	}
	if settings.Opentelemetry.TracingSetting.Enable {
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	var operationTimeout time.Duration
	if settings.OperationTimeoutDuration != "" {
		operationTimeout, err = time.ParseDuration(settings.OperationTimeoutDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to parse operation_timeout_duration: %w", err)
		}
	}

	return &gateway{
		graphQLEndpoint:            settings.Endpoint,
		serviceName:                settings.ServiceName,
		schema:                     sch,
		fetcher:                    newHTTPFetcher(httpClient),
		clock:                      realClock{},
		operationTimeout:           operationTimeout,
		enableOpentelemetryTracing: settings.Opentelemetry.TracingSetting.Enable,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	w.Header().Set("Content-Type", "application/json")

	l := lexer.New(req.Query)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		json.NewEncoder(w).Encode(map[string]any{"errors": p.Errors()})
		return
	}

	op, err := operation.Bind(g.schema, doc, "")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": err.Error()}},
		})
		return
	}

	vars, err := operation.CoerceVariables(g.schema, op, req.Variables)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": err.Error()}},
		})
		return
	}

	op, err = operation.ApplyConditionals(op, vars)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": err.Error()}},
		})
		return
	}

	space, err := solve.Build(g.schema, op)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": err.Error()}},
		})
		return
	}

	tree, err := solve.Solve(space)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": err.Error()}},
		})
		return
	}

	pl, err := plan.Materialize(g.schema, op, space, tree)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": err.Error()}},
		})
		return
	}

	resp := coordinate.Execute(ctx, g.schema, op, space, tree, pl, vars, g.fetcher, g.clock, coordinate.Options{
		OperationTimeout: g.operationTimeout,
	})

	json.NewEncoder(w).Encode(resp)
}

func (g *gateway) Start(port int) error {
	fmt.Printf("Gateway started on port %d\n", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), g)
}
