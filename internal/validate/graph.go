package validate

import (
	"context"

	"codegraph/internal/graph"
	"codegraph/internal/schema"
)

type GraphValidator interface {
	ListNodeCategories(ctx context.Context) ([]string, error)
	ListRelationshipPatterns(ctx context.Context) ([]schema.Pattern, error)
	ListOrphanedNodes(ctx context.Context) ([]graph.NodeSummary, error)
	ListPlaceholders(ctx context.Context) ([]graph.NodeSummary, error)
	ListMethodsWithoutClass(ctx context.Context) ([]graph.NodeSummary, error)
	ListClassesWithoutRepository(ctx context.Context) ([]graph.NodeSummary, error)
	ListNodesMissingSource(ctx context.Context) ([]graph.NodeSummary, error)
}
