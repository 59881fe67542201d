package ingest

import (
	"context"

	"codegraph/internal/config"
	"codegraph/internal/graph"
)

type GraphWriter interface {
	EnsureIndexes(ctx context.Context, schema *config.Schema) error
	ClearGraph(ctx context.Context) (int64, error)
	GetRepositoryHashes(ctx context.Context) (map[string]string, error)
	RemoveRepositoryContents(ctx context.Context, repository string) (int64, error)
	UpsertNode(ctx context.Context, n graph.NodeInput) error
	UpsertRelationship(ctx context.Context, from, to graph.NodeRef, relType string) error
}
