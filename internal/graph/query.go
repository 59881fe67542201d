package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Node is a full node as shown by the browsing commands.
type Node struct {
	Labels     []string
	Name       string
	Repository string
	Properties map[string]any
}

type NodeSummary struct {
	Label      string
	Name       string
	Class      string
	Repository string
}

type Relationship struct {
	From      NodeSummary
	To        NodeSummary
	Type      string
	Direction string
	Depth     int
}

var standardPropertyKeys = map[string]struct{}{
	"name":          {},
	"repository":    {},
	"source":        {},
	"last_ingested": {},
	"_placeholder":  {},
}

// GetNodes returns every node with the given name, compared case-insensitively,
// optionally restricted to one label. Method names are frequently shared
// between classes, so more than one match is normal.
func (c *Client) GetNodes(ctx context.Context, name, label string) ([]Node, error) {
	match := "MATCH (n)"
	if strings.TrimSpace(label) != "" {
		if !labelPattern.MatchString(label) {
			return nil, fmt.Errorf("invalid label: %s", label)
		}
		match = fmt.Sprintf("MATCH (n:%s)", label)
	}
	query := match + " WHERE toLower(n.name) = toLower($name) RETURN n ORDER BY n.repository, n.class"

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		var nodes []Node
		for res.Next(ctx) {
			value, _ := res.Record().Get("n")
			node, ok := value.(neo4j.Node)
			if !ok {
				continue
			}
			nodes = append(nodes, Node{
				Labels:     append([]string{}, node.Labels...),
				Name:       toString(node.Props["name"]),
				Repository: toString(node.Props["repository"]),
				Properties: extractProperties(node.Props),
			})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nodes, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}

	return result.([]Node), nil
}

// ListNodes lists nodes by label and owning repository; empty filters match
// everything.
func (c *Client) ListNodes(ctx context.Context, label, repository string) ([]NodeSummary, error) {
	query := "MATCH (n)"
	if strings.TrimSpace(label) != "" {
		if !labelPattern.MatchString(label) {
			return nil, fmt.Errorf("invalid label: %s", label)
		}
		query = fmt.Sprintf("MATCH (n:%s)", label)
	}
	params := map[string]any{}
	if strings.TrimSpace(repository) != "" {
		query += " WHERE n.repository = $repository OR (n:Repository AND n.name = $repository)"
		params["repository"] = strings.ToLower(repository)
	}
	query += " RETURN n ORDER BY n.name, n.class"

	summaries, err := c.readNodeSummaries(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	return summaries, nil
}

func (c *Client) GetRelationships(ctx context.Context, name, relType, direction string, depth int) ([]Relationship, error) {
	direction = strings.TrimSpace(direction)
	if direction == "" {
		direction = "both"
	}
	switch direction {
	case "outgoing", "incoming", "both":
	default:
		return nil, fmt.Errorf("invalid direction: %s", direction)
	}
	if depth < 1 || depth > 5 {
		return nil, fmt.Errorf("depth must be between 1 and 5")
	}
	if strings.TrimSpace(relType) != "" && !relTypePattern.MatchString(relType) {
		return nil, fmt.Errorf("invalid relationship type: %s", relType)
	}

	relPattern := ""
	if strings.TrimSpace(relType) != "" {
		relPattern = ":" + relType
	}

	var match string
	switch direction {
	case "outgoing":
		match = fmt.Sprintf("MATCH p=(start)-[%s*1..%d]->(n)", relPattern, depth)
	case "incoming":
		match = fmt.Sprintf("MATCH p=(start)<-[%s*1..%d]-(n)", relPattern, depth)
	case "both":
		match = fmt.Sprintf("MATCH p=(start)-[%s*1..%d]-(n)", relPattern, depth)
	}

	query := fmt.Sprintf(`
MATCH (start) WHERE toLower(start.name) = toLower($name)
%s
WITH p, nodes(p) AS ns, relationships(p) AS rs
UNWIND range(0, size(rs) - 1) AS idx
WITH ns[idx] AS hopFrom, ns[idx+1] AS hopTo, rs[idx] AS rel, idx
RETURN hopFrom, hopTo, type(rel) AS rel_type, startNode(rel) AS rel_start, idx
`, match)

	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		var relationships []Relationship
		for res.Next(ctx) {
			record := res.Record()
			hopFrom, _ := record.Get("hopFrom")
			hopTo, _ := record.Get("hopTo")
			relTypeValue, _ := record.Get("rel_type")
			relStart, _ := record.Get("rel_start")
			idxValue, _ := record.Get("idx")

			fromNode, okFrom := hopFrom.(neo4j.Node)
			toNode, okTo := hopTo.(neo4j.Node)
			relStartNode, okRelStart := relStart.(neo4j.Node)
			depthValue, _ := idxValue.(int64)
			if !okFrom || !okTo {
				continue
			}

			relDirection := "incoming"
			if okRelStart && relStartNode.ElementId == fromNode.ElementId {
				relDirection = "outgoing"
			}

			relationships = append(relationships, Relationship{
				From:      nodeSummaryFromNode(fromNode),
				To:        nodeSummaryFromNode(toNode),
				Type:      toString(relTypeValue),
				Direction: relDirection,
				Depth:     int(depthValue) + 1,
			})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return relationships, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting relationships: %w", err)
	}

	return result.([]Relationship), nil
}

func (c *Client) readNodeSummaries(ctx context.Context, query string, params map[string]any) ([]NodeSummary, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		summaries := make([]NodeSummary, 0)
		for res.Next(ctx) {
			value, _ := res.Record().Get("n")
			node, ok := value.(neo4j.Node)
			if !ok {
				continue
			}
			summaries = append(summaries, nodeSummaryFromNode(node))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]NodeSummary), nil
}

func nodeSummaryFromNode(node neo4j.Node) NodeSummary {
	label := ""
	if len(node.Labels) > 0 {
		label = node.Labels[0]
	}
	return NodeSummary{
		Label:      label,
		Name:       toString(node.Props["name"]),
		Class:      toString(node.Props["class"]),
		Repository: toString(node.Props["repository"]),
	}
}

func extractProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for key, value := range props {
		if _, ok := standardPropertyKeys[key]; ok {
			continue
		}
		out[key] = normalizeValue(value)
	}
	return out
}
