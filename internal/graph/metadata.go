package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"codegraph/internal/schema"
)

func (c *Client) ListNodeCategories(ctx context.Context) ([]string, error) {
	labels, err := c.readStrings(ctx, "CALL db.labels() YIELD label RETURN label", "label")
	if err != nil {
		return nil, fmt.Errorf("listing node categories: %w", err)
	}
	return labels, nil
}

func (c *Client) ListRelationshipTypes(ctx context.Context) ([]string, error) {
	types, err := c.readStrings(ctx, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType", "relationshipType")
	if err != nil {
		return nil, fmt.Errorf("listing relationship types: %w", err)
	}
	return types, nil
}

// ListRelationshipPatterns returns the distinct (from)-[type]->(to) label
// triples observed in the data.
func (c *Client) ListRelationshipPatterns(ctx context.Context) ([]schema.Pattern, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (a)-[r]->(b)
UNWIND labels(a) AS from
UNWIND labels(b) AS to
RETURN DISTINCT from, type(r) AS type, to`, nil)
		if err != nil {
			return nil, err
		}
		var patterns []schema.Pattern
		for res.Next(ctx) {
			record := res.Record()
			from, _ := record.Get("from")
			relType, _ := record.Get("type")
			to, _ := record.Get("to")
			patterns = append(patterns, schema.Pattern{
				From: toString(from),
				Type: toString(relType),
				To:   toString(to),
			})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return patterns, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing relationship patterns: %w", err)
	}

	return result.([]schema.Pattern), nil
}

// ListNodeProperties maps each label to the property keys seen on it.
func (c *Client) ListNodeProperties(ctx context.Context) (map[string][]string, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `CALL db.schema.nodeTypeProperties()
YIELD nodeLabels, propertyName
RETURN nodeLabels, propertyName`, nil)
		if err != nil {
			return nil, err
		}
		properties := make(map[string][]string)
		for res.Next(ctx) {
			record := res.Record()
			labelsValue, _ := record.Get("nodeLabels")
			nameValue, _ := record.Get("propertyName")
			name := toString(nameValue)
			if name == "" || name[0] == '_' {
				continue
			}
			for _, label := range toStringSlice(labelsValue) {
				properties[label] = append(properties[label], name)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return properties, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing node properties: %w", err)
	}

	return result.(map[string][]string), nil
}

func (c *Client) readStrings(ctx context.Context, query, column string) ([]string, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var values []string
		for res.Next(ctx) {
			value, _ := res.Record().Get(column)
			if s := toString(value); s != "" {
				values = append(values, s)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}

	values := result.([]string)
	sort.Strings(values)
	return values, nil
}
