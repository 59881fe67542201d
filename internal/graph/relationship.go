package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// UpsertRelationship links two nodes. The source must exist; a missing target
// is created as a placeholder carrying only its key.
func (c *Client) UpsertRelationship(ctx context.Context, from, to NodeRef, relType string) error {
	if !relTypePattern.MatchString(relType) {
		return fmt.Errorf("invalid relationship type: %s", relType)
	}
	fromPattern, fromParams, err := mergePattern("a", "from", from)
	if err != nil {
		return fmt.Errorf("upserting relationship: %w", err)
	}
	toPattern, toParams, err := mergePattern("b", "to", to)
	if err != nil {
		return fmt.Errorf("upserting relationship: %w", err)
	}

	query := fmt.Sprintf(`
MATCH %s
MERGE %s
ON CREATE SET b._placeholder = true
MERGE (a)-[r:%s]->(b)
RETURN count(r) AS linked
`, fromPattern, toPattern, relType)

	params := map[string]any{"from": fromParams["from"], "to": toParams["to"]}

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var linked int64
		if res.Next(ctx) {
			value, _ := res.Record().Get("linked")
			linked, _ = value.(int64)
		}
		return linked, res.Err()
	})
	if err != nil {
		return fmt.Errorf("upserting %s relationship: %w", relType, err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("upserting %s relationship: source %s node not found", relType, from.Label)
	}

	return nil
}
