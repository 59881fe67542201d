package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// QueryError is a failed execution of caller-supplied Cypher. Error returns
// the server's diagnostic so it can be fed back into query generation.
type QueryError struct {
	Code    string
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Execute runs cypher in a read transaction and returns its rows in order with
// driver values converted to plain maps, slices and scalars. Zero rows is a
// non-nil empty slice.
func (c *Client) Execute(ctx context.Context, cypher string) ([]map[string]any, error) {
	return c.RunCypher(ctx, cypher, nil)
}

// RunCypher is Execute with query parameters.
func (c *Client) RunCypher(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if strings.TrimSpace(cypher) == "" {
		return nil, &QueryError{Message: "query is empty"}
	}

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0)
		for res.Next(ctx) {
			record := res.Record()
			row := make(map[string]any, len(record.Keys))
			for i, key := range record.Keys {
				row[key] = normalizeValue(record.Values[i])
			}
			rows = append(rows, row)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, newQueryError(err)
	}

	return result.([]map[string]any), nil
}

func newQueryError(err error) *QueryError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &QueryError{Message: err.Error(), Err: err}
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return &QueryError{Code: neoErr.Code, Message: neoErr.Msg, Err: err}
	}
	return &QueryError{Message: err.Error(), Err: err}
}
