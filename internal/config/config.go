package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

const (
	defaultModelName   = "devstral:24b"
	defaultMaxAttempts = 3
)

type ProjectConfig struct {
	Project string        `yaml:"project"`
	Version int           `yaml:"version"`
	Neo4j   Neo4jConfig   `yaml:"neo4j"`
	Model   ModelConfig   `yaml:"model"`
	Query   QueryConfig   `yaml:"query"`
	Ingest  IngestConfig  `yaml:"ingest"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type ModelConfig struct {
	Provider    string        `yaml:"provider"`
	Name        string        `yaml:"name"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type QueryConfig struct {
	MaxAttempts int       `yaml:"max_attempts"`
	Examples    []Example `yaml:"examples"`
}

// Example is a few-shot question/Cypher pair shown to the model.
type Example struct {
	Question string `yaml:"question"`
	Cypher   string `yaml:"cypher"`
}

type IngestConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type HistoryConfig struct {
	DSN string `yaml:"dsn"`
}

// TracingConfig points span export at an OTLP/gRPC collector. An empty
// endpoint leaves tracing off.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	ApplyEnv(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.Model.Provider) == "" {
		cfg.Model.Provider = ProviderOllama
	}
	cfg.Model.Provider = strings.ToLower(strings.TrimSpace(cfg.Model.Provider))
	if strings.TrimSpace(cfg.Model.Name) == "" && cfg.Model.Provider == ProviderOllama {
		cfg.Model.Name = defaultModelName
	}
	if cfg.Query.MaxAttempts == 0 {
		cfg.Query.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = "neo4j"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// ApplyEnv overrides connection settings and credentials from the environment.
func ApplyEnv(cfg *ProjectConfig) {
	setFromEnv(&cfg.Neo4j.URI, "NEO4J_URI")
	setFromEnv(&cfg.Neo4j.Username, "NEO4J_USERNAME")
	setFromEnv(&cfg.Neo4j.Password, "NEO4J_PASSWORD")
	setFromEnv(&cfg.Neo4j.Database, "NEO4J_DATABASE")
	setFromEnv(&cfg.Tracing.Endpoint, "CODEGRAPH_OTLP_ENDPOINT")

	if key := os.Getenv("CODEGRAPH_MODEL_API_KEY"); key != "" {
		cfg.Model.APIKey = key
		return
	}
	if cfg.Model.APIKey != "" {
		return
	}
	switch cfg.Model.Provider {
	case ProviderOpenAI:
		setFromEnv(&cfg.Model.APIKey, "OPENAI_API_KEY")
	case ProviderArk:
		setFromEnv(&cfg.Model.APIKey, "ARK_API_KEY")
	}
}

func setFromEnv(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Neo4j.URI) == "" {
		return fmt.Errorf("neo4j uri is required")
	}

	switch cfg.Model.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderArk:
	default:
		return fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		return fmt.Errorf("model name is required for provider %s", cfg.Model.Provider)
	}
	if cfg.Model.Provider != ProviderOllama && strings.TrimSpace(cfg.Model.APIKey) == "" {
		return fmt.Errorf("model api key is required for provider %s", cfg.Model.Provider)
	}
	if cfg.Model.Temperature < 0 || cfg.Model.Temperature > 2 {
		return fmt.Errorf("model temperature must be between 0 and 2")
	}
	if cfg.Model.Timeout < 0 {
		return fmt.Errorf("model timeout must not be negative")
	}

	if cfg.Query.MaxAttempts < 1 || cfg.Query.MaxAttempts > 10 {
		return fmt.Errorf("query max_attempts must be between 1 and 10")
	}
	for i, example := range cfg.Query.Examples {
		if strings.TrimSpace(example.Question) == "" {
			return fmt.Errorf("query example %d question is required", i)
		}
		if strings.TrimSpace(example.Cypher) == "" {
			return fmt.Errorf("query example %d cypher is required", i)
		}
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported logging format: %s", cfg.Logging.Format)
	}

	return nil
}
