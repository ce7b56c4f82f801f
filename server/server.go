package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n9te9/go-graphql-federation-gateway/gateway"
	"github.com/n9te9/go-graphql-federation-gateway/registry"
)

type registryServer struct {
	registry        *registry.Registry
	graphqlEndpoint string
}

func (s *registryServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/schema/registration":
		if req.Method == http.MethodPost {
			s.registry.RegisterGateway(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type Graph struct {
	Name string
	Host string
	SDL  string
}

// RunRegistry starts a standalone registration server subgraphs can report
// their SDL to at startup, composing a live schema as registrations arrive
// instead of reading a fixed gateway.yaml.
func RunRegistry(graphs []*Graph) error {
	if len(graphs) == 0 {
		return errors.New("no graphs provided")
	}

	reg := registry.NewRegistry()
	reg.Start()

	s := &registryServer{
		registry:        reg,
		graphqlEndpoint: "/graphql",
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: s,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt, os.Kill)
	defer stop()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}

// RunGateway starts a gateway built from settings on :8081, for callers that
// already hold a GatewayOption (e.g. one assembled from a Registry's
// composed schema) rather than loading gateway.yaml from disk.
func RunGateway(settings gateway.GatewayOption) error {
	gw, err := gateway.NewGateway(settings)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":8081",
		Handler: gw,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	return nil
}

const defaultGatewayConfig = `endpoint: /graphql
service_name: federation-gateway
port: 8080
timeout_duration: 5s
services:
  - name: example
    host: http://localhost:4001
    schema_files:
      - example.graphql
opentelemetry:
  tracing:
    enable: false
`

// Init scaffolds a gateway.yaml in the current directory so "serve" has
// something to load on first run.
func Init() {
	if _, err := os.Stat("gateway.yaml"); err == nil {
		fmt.Println("gateway.yaml already exists, leaving it untouched")
		return
	}

	if err := os.WriteFile("gateway.yaml", []byte(defaultGatewayConfig), 0o644); err != nil {
		log.Fatalf("failed to write gateway.yaml: %v", err)
	}

	fmt.Println("wrote gateway.yaml")
}
