package graph

import (
	"context"
	"fmt"
)

// ListOrphanedNodes returns nodes with no relationships at all.
func (c *Client) ListOrphanedNodes(ctx context.Context) ([]NodeSummary, error) {
	nodes, err := c.readNodeSummaries(ctx, "MATCH (n) WHERE NOT (n)--() RETURN n ORDER BY n.name", nil)
	if err != nil {
		return nil, fmt.Errorf("listing orphaned nodes: %w", err)
	}
	return nodes, nil
}

// ListPlaceholders returns relationship targets that were never ingested,
// such as calls into classes outside the ingested repositories.
func (c *Client) ListPlaceholders(ctx context.Context) ([]NodeSummary, error) {
	nodes, err := c.readNodeSummaries(ctx, "MATCH (n) WHERE n._placeholder = true RETURN n ORDER BY n.name", nil)
	if err != nil {
		return nil, fmt.Errorf("listing placeholders: %w", err)
	}
	return nodes, nil
}

func (c *Client) ListMethodsWithoutClass(ctx context.Context) ([]NodeSummary, error) {
	nodes, err := c.readNodeSummaries(ctx, `MATCH (n:Method)
WHERE n._placeholder IS NULL AND NOT (:Class)-[:HAS_METHOD]->(n)
RETURN n ORDER BY n.class, n.name`, nil)
	if err != nil {
		return nil, fmt.Errorf("listing methods without class: %w", err)
	}
	return nodes, nil
}

func (c *Client) ListClassesWithoutRepository(ctx context.Context) ([]NodeSummary, error) {
	nodes, err := c.readNodeSummaries(ctx, `MATCH (n:Class)
WHERE n._placeholder IS NULL AND NOT (:Repository)-[:HAS_CLASSES]->(n)
RETURN n ORDER BY n.name`, nil)
	if err != nil {
		return nil, fmt.Errorf("listing classes without repository: %w", err)
	}
	return nodes, nil
}

// ListNodesMissingSource returns ingested classes and methods whose source
// property is empty; they cannot be explained.
func (c *Client) ListNodesMissingSource(ctx context.Context) ([]NodeSummary, error) {
	nodes, err := c.readNodeSummaries(ctx, `MATCH (n)
WHERE (n:Class OR n:Method) AND n._placeholder IS NULL AND coalesce(n.source, '') = ''
RETURN n ORDER BY n.name`, nil)
	if err != nil {
		return nil, fmt.Errorf("listing nodes missing source: %w", err)
	}
	return nodes, nil
}
