// Package graph is the Neo4j access layer for the code graph: read-only query
// execution, schema introspection, ingestion writes and browsing helpers.
package graph

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"codegraph/internal/config"
)

var (
	labelPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	relTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	keyPattern     = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
}

// EnsureIndexes creates a name index for every node category in the schema,
// plus the composite (class, name) index used to key methods.
func (c *Client) EnsureIndexes(ctx context.Context, schema *config.Schema) error {
	if schema == nil {
		schema = config.DefaultSchema()
	}

	statements := make([]string, 0, len(schema.NodeCategories)+1)
	for _, category := range schema.NodeCategories {
		if !labelPattern.MatchString(category.Name) {
			return fmt.Errorf("invalid label: %s", category.Name)
		}
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX %s_name IF NOT EXISTS FOR (n:%s) ON (n.name)",
			strings.ToLower(category.Name), category.Name))
	}
	statements = append(statements,
		"CREATE INDEX method_class_name IF NOT EXISTS FOR (n:Method) ON (n.class, n.name)")

	session := c.session(ctx)
	defer session.Close(ctx)

	for _, stmt := range statements {
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("ensuring indexes: %w", err)
		}
	}

	return nil
}
