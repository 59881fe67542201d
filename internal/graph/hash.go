package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GetRepositoryHashes maps each ingested semantic-model file to the content
// hash recorded on its Repository node.
func (c *Client) GetRepositoryHashes(ctx context.Context) (map[string]string, error) {
	if c == nil {
		return nil, fmt.Errorf("graph client is nil")
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (r:Repository)
WHERE r.source_file IS NOT NULL AND r._placeholder IS NULL
RETURN r.source_file AS source_file, r.source_hash AS source_hash`, nil)
		if err != nil {
			return nil, err
		}
		values := make(map[string]string)
		for res.Next(ctx) {
			record := res.Record()
			sourceFileValue, _ := record.Get("source_file")
			sourceFile := toString(sourceFileValue)
			if sourceFile == "" {
				continue
			}
			sourceHashValue, _ := record.Get("source_hash")
			values[sourceFile] = toString(sourceHashValue)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query repository hashes: %w", err)
	}

	return result.(map[string]string), nil
}
