package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ClearGraph deletes every node and relationship in the database.
func (c *Client) ClearGraph(ctx context.Context) (int64, error) {
	return c.deleteCount(ctx, "MATCH (n) DETACH DELETE n RETURN count(n) AS deleted", nil, "clearing graph")
}

// RemoveRepositoryContents deletes the controllers, classes and methods owned
// by a repository so a changed semantic model can be re-ingested cleanly.
// Stored procedures and the Repository node itself are kept.
func (c *Client) RemoveRepositoryContents(ctx context.Context, repository string) (int64, error) {
	return c.deleteCount(ctx, `
MATCH (n {repository: $repository})
WHERE (n:Controller OR n:Class OR n:Method)
  AND n._placeholder IS NULL
DETACH DELETE n
RETURN count(n) AS deleted
`, map[string]any{"repository": repository}, "removing repository contents")
}

func (c *Client) deleteCount(ctx context.Context, query string, params map[string]any, op string) (int64, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return result.(int64), nil
}
