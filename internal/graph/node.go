package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NodeRef identifies a node by label and the property values it is merged on.
type NodeRef struct {
	Label string
	Key   map[string]any
}

// NodeInput is an upsert: the node is merged on Key and Props are set on top.
type NodeInput struct {
	Label string
	Key   map[string]any
	Props map[string]any
}

func (n NodeInput) Ref() NodeRef {
	return NodeRef{Label: n.Label, Key: n.Key}
}

// UpsertNode merges the node on its key and overwrites the given properties.
// A placeholder created earlier by UpsertRelationship becomes a real node.
func (c *Client) UpsertNode(ctx context.Context, n NodeInput) error {
	pattern, params, err := mergePattern("n", "key", NodeRef{Label: n.Label, Key: n.Key})
	if err != nil {
		return fmt.Errorf("upserting node: %w", err)
	}
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	params["props"] = props

	query := fmt.Sprintf(`
MERGE %s
SET n += $props,
    n.last_ingested = datetime()
REMOVE n._placeholder
`, pattern)

	session := c.session(ctx)
	defer session.Close(ctx)

	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	}); err != nil {
		return fmt.Errorf("upserting %s node: %w", n.Label, err)
	}

	return nil
}

// mergePattern renders "(v:Label {k: $param.k, ...})" with keys in sorted
// order. Labels and keys are validated because they cannot be parameterised.
func mergePattern(variable, param string, ref NodeRef) (string, map[string]any, error) {
	if !labelPattern.MatchString(ref.Label) {
		return "", nil, fmt.Errorf("invalid label: %s", ref.Label)
	}
	if len(ref.Key) == 0 {
		return "", nil, fmt.Errorf("node %s has no key properties", ref.Label)
	}

	keys := make([]string, 0, len(ref.Key))
	for key := range ref.Key {
		if !keyPattern.MatchString(key) {
			return "", nil, fmt.Errorf("invalid key property: %s", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: $%s.%s", key, param, key))
		values[key] = ref.Key[key]
	}

	pattern := fmt.Sprintf("(%s:%s {%s})", variable, ref.Label, strings.Join(parts, ", "))
	return pattern, map[string]any{param: values}, nil
}
