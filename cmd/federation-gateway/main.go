package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
	"github.com/spf13/cobra"

	"github.com/n9te9/go-graphql-federation-gateway/federation/operation"
	"github.com/n9te9/go-graphql-federation-gateway/federation/plan"
	"github.com/n9te9/go-graphql-federation-gateway/federation/schema"
	"github.com/n9te9/go-graphql-federation-gateway/federation/solve"
	"github.com/n9te9/go-graphql-federation-gateway/gateway"
	"github.com/n9te9/go-graphql-federation-gateway/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Federation Gateway",
	Run: func(cmd *cobra.Command, args []string) {
		println("Federation Gateway v0.0.0-rc")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Federation Gateway project",
	Run: func(cmd *cobra.Command, args []string) {
		server.Init()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Federation Gateway server",
	Run: func(cmd *cobra.Command, args []string) {
		server.Run()
	},
}

var planConfigPath string
var planQueryPath string

// planCmd composes the schema from gateway.yaml and prints the materialized
// plan for a query as JSON, without starting a server or touching any
// subgraph. Useful for inspecting how an operation will be split and
// dispatched before wiring up real subgraphs.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the fetch plan for a query against the configured subgraphs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(planConfigPath, planQueryPath)
	},
}

func init() {
	planCmd.Flags().StringVar(&planConfigPath, "config", "gateway.yaml", "path to gateway.yaml")
	planCmd.Flags().StringVar(&planQueryPath, "query", "", "path to a .graphql file containing the operation (required)")
	planCmd.MarkFlagRequired("query")
}

func runPlan(configPath, queryPath string) error {
	cfg, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	var settings gateway.GatewayOption
	if err := yaml.Unmarshal(cfg, &settings); err != nil {
		return fmt.Errorf("parsing %s: %w", configPath, err)
	}

	sources := make([]schema.SubgraphSource, 0, len(settings.Services))
	for _, s := range settings.Services {
		var sdl []byte
		for _, f := range s.SchemaFiles {
			src, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("reading schema file %s: %w", f, err)
			}
			sdl = append(sdl, src...)
		}
		sources = append(sources, schema.SubgraphSource{Name: s.Name, URL: s.Host, SDL: string(sdl)})
	}

	sch, err := schema.Build(sources)
	if err != nil {
		return fmt.Errorf("composing schema: %w", err)
	}

	queryBytes, err := os.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("reading query file %s: %w", queryPath, err)
	}

	l := lexer.New(string(queryBytes))
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return fmt.Errorf("parsing query: %v", p.Errors())
	}

	op, err := operation.Bind(sch, doc, "")
	if err != nil {
		return fmt.Errorf("binding operation: %w", err)
	}

	space, err := solve.Build(sch, op)
	if err != nil {
		return fmt.Errorf("building solution space: %w", err)
	}

	tree, err := solve.Solve(space)
	if err != nil {
		return fmt.Errorf("solving: %w", err)
	}

	pl, err := plan.Materialize(sch, op, space, tree)
	if err != nil {
		return fmt.Errorf("materializing plan: %w", err)
	}

	out, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func main() {
	rootCmd := cobra.Command{}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
