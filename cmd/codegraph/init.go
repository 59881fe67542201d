package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"codegraph/internal/config"
)

const configTemplate = `project: %s
version: 1

neo4j:
  uri: bolt://localhost:7687
  username: neo4j
  password: changeme
  database: neo4j

model:
  provider: ollama
  name: devstral:24b
  temperature: 0
  timeout: 2m

query:
  max_attempts: 3
  # Quote Cypher values; "{name: ..." is not a valid plain YAML scalar.
  # examples:
  #   - question: "List all methods in the 'UserService' class"
  #     cypher: "MATCH (c:Class {name: 'UserService'})-[:HAS_METHOD]->(m:Method) RETURN m.name AS method"

ingest:
  paths:
    - ./models/
  exclude:
    - ./models/archive/

history:
  dsn: sqlite://codegraph-history.db

logging:
  level: info
  format: text

# Export query spans to an OTLP/gRPC collector.
# tracing:
#   endpoint: localhost:4317
#   insecure: true
`

func initCmd() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new codegraph project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			if err := runInit(projectName, configPath, schemaPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s.\n", configPath, schemaPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	return cmd
}

func runInit(projectName, configPath, schemaPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	schemaContents, err := yaml.Marshal(config.DefaultSchema())
	if err != nil {
		return fmt.Errorf("encoding default schema: %w", err)
	}

	configContents := fmt.Sprintf(configTemplate, projectName)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, schemaContents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}

	return nil
}
