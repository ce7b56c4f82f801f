package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
)

// Registry accepts dynamic subgraph registrations over HTTP and keeps the
// composed Schema they produce up to date, for deployments that register
// subgraphs at runtime instead of listing them in gateway.yaml.
type Registry struct {
	gatewayHosts atomic.Value
	addHostChan  chan string
	sources      atomic.Value // []schema.SubgraphSource
	composed     atomic.Value // *schema.Schema
	client       *http.Client
}

func NewRegistry() *Registry {
	gatewayHosts := atomic.Value{}
	gatewayHosts.Store(make(map[string]struct{}))

	sources := atomic.Value{}
	sources.Store(make([]schema.SubgraphSource, 0))

	return &Registry{
		gatewayHosts: gatewayHosts,
		addHostChan:  make(chan string),
		sources:      sources,
		client:       &http.Client{},
	}
}

func (r *Registry) Start() {
	go func() {
		for host := range r.addHostChan {
			r.addGatewayHost(host)
		}
	}()
}

func (r *Registry) addGatewayHost(host string) {
	gatewayHosts := r.gatewayHosts.Load().(map[string]struct{})
	gatewayHosts[host] = struct{}{}
	r.gatewayHosts.Store(gatewayHosts)
}

// Schema returns the most recently composed schema, or nil if no subgraph
// has registered yet.
func (r *Registry) Schema() *schema.Schema {
	v := r.composed.Load()
	if v == nil {
		return nil
	}
	return v.(*schema.Schema)
}

type RegistrationGraph struct {
	Name string `json:"name"`
	Host string `json:"host"`
	SDL  string `json:"sdl"`
}

type RegistrationRequest struct {
	RegistrationGraphs []RegistrationGraph `json:"registration_graphs"`
}

func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/schema/registration":
		r.RegisterGateway(w, req)
	}
}

// RegisterGateway adds the subgraphs in the request body to the registry,
// recomposes the schema, and fans the registration out to every gateway host
// that has previously registered with this registry.
func (r *Registry) RegisterGateway(w http.ResponseWriter, req *http.Request) {
	var body RegistrationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		return
	}

	sources := append([]schema.SubgraphSource{}, r.sources.Load().([]schema.SubgraphSource)...)
	for _, rg := range body.RegistrationGraphs {
		sources = append(sources, schema.SubgraphSource{Name: rg.Name, URL: rg.Host, SDL: rg.SDL})
		r.addHostChan <- rg.Host
	}

	sch, err := schema.Build(sources)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to compose schema: %v", err), http.StatusBadRequest)
		return
	}

	r.sources.Store(sources)
	r.composed.Store(sch)

	gatewayHosts := r.gatewayHosts.Load().(map[string]struct{})
	for sgHost := range gatewayHosts {
		reqBody, err := json.Marshal(body)
		if err != nil {
			http.Error(w, "Failed to marshal request body", http.StatusInternalServerError)
			return
		}

		registerGatewayRequest, err := http.NewRequestWithContext(req.Context(), http.MethodPost, sgHost+"/schema/registration", bytes.NewBuffer(reqBody))
		if err != nil {
			http.Error(w, "Failed to create gateway request", http.StatusInternalServerError)
			return
		}

		go func() {
			if _, err := r.client.Do(registerGatewayRequest); err != nil {
				http.Error(w, "Failed to register gateway", http.StatusInternalServerError)
				return
			}
		}()
	}
}
