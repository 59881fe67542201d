// Package mcp exposes the question-answering pipeline and the graph browsing
// queries as Model Context Protocol tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/internal/schema"
)

// Asker answers natural-language questions. *query.Orchestrator implements it.
type Asker interface {
	RunQuery(ctx context.Context, question string) query.QueryRun
	Summary() *schema.Summary
	RefreshSchema(ctx context.Context) error
}

// GraphQuerier is the read side of *graph.Client.
type GraphQuerier interface {
	RunCypher(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	GetNodes(ctx context.Context, name, label string) ([]graph.Node, error)
	GetRelationships(ctx context.Context, name, relType, direction string, depth int) ([]graph.Relationship, error)
	ListNodes(ctx context.Context, label, repository string) ([]graph.NodeSummary, error)
}

type Server struct {
	asker Asker
	graph GraphQuerier
	mcp   *sdk.Server
}

func NewServer(asker Asker, graph GraphQuerier, version string) *Server {
	s := &Server{
		asker: asker,
		graph: graph,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "codegraph",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
