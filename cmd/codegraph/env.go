package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/history"
	"codegraph/internal/history/postgres"
	"codegraph/internal/history/sqlite"
	"codegraph/internal/llm"
	"codegraph/internal/logging"
	"codegraph/internal/query"
	"codegraph/internal/schema"
	"codegraph/internal/tracing"
)

// loadDotEnv reads ./.env when present. Variables already set win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

type app struct {
	cfg    *config.ProjectConfig
	schema *config.Schema
	logger *slog.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}

	graphSchema, err := loadSchema(cmd)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(os.Stderr, logging.Config{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, schema: graphSchema, logger: logger}, nil
}

// loadSchema falls back to the built-in schema when the default schema file
// is absent. An explicitly named file must exist.
func loadSchema(cmd *cobra.Command) (*config.Schema, error) {
	if _, err := os.Stat(schemaPath); errors.Is(err, fs.ErrNotExist) {
		if flag := cmd.Flag("schema"); flag == nil || !flag.Changed {
			return config.DefaultSchema(), nil
		}
	}
	return config.LoadSchema(schemaPath)
}

func (a *app) openGraph(ctx context.Context) (*graph.Client, error) {
	neo := a.cfg.Neo4j
	return graph.NewClient(ctx, neo.URI, neo.Username, neo.Password, neo.Database)
}

// openHistory returns nil when no history DSN is configured.
func (a *app) openHistory(ctx context.Context) (history.Store, error) {
	dsn := strings.TrimSpace(a.cfg.History.DSN)
	if dsn == "" {
		return nil, nil
	}

	var (
		store history.Store
		err   error
	)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		store, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		store, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported history dsn: %s", dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		store.Close(ctx)
		return nil, err
	}
	return store, nil
}

// startTracing installs the OTLP tracer provider when an endpoint is
// configured. The returned func flushes pending spans.
func (a *app) startTracing(ctx context.Context) (func(), error) {
	cfg := tracing.Config{
		Endpoint:    a.cfg.Tracing.Endpoint,
		Insecure:    a.cfg.Tracing.Insecure,
		ServiceName: a.cfg.Tracing.ServiceName,
		Version:     version,
	}
	shutdown, err := tracing.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Enabled() {
		a.logger.Debug("span export enabled", "endpoint", cfg.Endpoint)
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			a.logger.Warn("flushing spans failed", "error", err)
		}
	}, nil
}

func (a *app) summarizer(client *graph.Client) *schema.Summarizer {
	return schema.NewSummarizer(client, schema.PatternsFromConfig(a.schema))
}

func (a *app) newOrchestrator(ctx context.Context, client *graph.Client, opts ...query.Option) (*query.Orchestrator, error) {
	chat, err := llm.NewChatModel(ctx, a.cfg.Model)
	if err != nil {
		return nil, err
	}

	summarizer := a.summarizer(client)
	summary, err := summarizer.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("schema summarized",
		"categories", len(summary.NodeCategories()),
		"relationships", len(summary.Relationships()))

	base := []query.Option{
		query.WithMaxAttempts(a.cfg.Query.MaxAttempts),
		query.WithLogger(a.logger),
		query.WithTracer(otel.Tracer("codegraph/query")),
		query.WithSummarizer(summarizer),
	}
	if len(a.cfg.Query.Examples) > 0 {
		base = append(base, query.WithExamples(examplesFromConfig(a.cfg.Query.Examples)))
	}

	completer := llm.NewChatCompleter(chat, a.cfg.Model.Provider)
	return query.New(summary, completer, client, append(base, opts...)...), nil
}

func examplesFromConfig(examples []config.Example) []query.Example {
	out := make([]query.Example, 0, len(examples))
	for _, example := range examples {
		out = append(out, query.Example{Question: example.Question, Cypher: example.Cypher})
	}
	return out
}
