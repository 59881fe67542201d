package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/internal/schema"
)

const maxDepth = 5

type AskInput struct {
	Question string `json:"question" jsonschema:"natural-language question about the codebase"`
}

type RunCypherInput struct {
	Query  string         `json:"query" jsonschema:"read-only Cypher query"`
	Params map[string]any `json:"params,omitempty" jsonschema:"query parameters"`
}

type GetSchemaInput struct{}

type RefreshSchemaInput struct{}

type GetNodeInput struct {
	Name  string `json:"name" jsonschema:"node name, matched case-insensitively"`
	Label string `json:"label,omitempty" jsonschema:"optional node category such as Class or Method"`
}

type GetRelationshipsInput struct {
	Name      string `json:"name" jsonschema:"starting node name"`
	Type      string `json:"type,omitempty" jsonschema:"relationship type filter"`
	Depth     int    `json:"depth,omitempty" jsonschema:"maximum traversal depth"`
	Direction string `json:"direction,omitempty" jsonschema:"outgoing, incoming, or both"`
}

type ListNodesInput struct {
	Label      string `json:"label,omitempty" jsonschema:"node category filter"`
	Repository string `json:"repository,omitempty" jsonschema:"repository filter"`
}

type AttemptOutput struct {
	Number int    `json:"attempt"`
	Query  string `json:"query"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type AskOutput struct {
	ID         string           `json:"id"`
	Intent     string           `json:"intent"`
	Kind       string           `json:"kind"`
	Rows       []map[string]any `json:"rows,omitempty"`
	Text       string           `json:"text,omitempty"`
	Attempts   []AttemptOutput  `json:"attempts"`
	DurationMS int64            `json:"duration_ms"`
}

type RowsOutput struct {
	Rows []map[string]any `json:"rows"`
}

type CategoryOutput struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties,omitempty"`
}

type PatternOutput struct {
	From string `json:"from"`
	Type string `json:"type"`
	To   string `json:"to"`
}

type SchemaOutput struct {
	Summary        string           `json:"summary"`
	NodeCategories []CategoryOutput `json:"node_categories"`
	Relationships  []PatternOutput  `json:"relationships"`
}

type NodeOutput struct {
	Labels     []string       `json:"labels"`
	Name       string         `json:"name"`
	Repository string         `json:"repository,omitempty"`
	Properties map[string]any `json:"properties"`
}

type GetNodeOutput struct {
	Nodes []NodeOutput `json:"nodes"`
}

type NodeSummaryOutput struct {
	Label      string `json:"label"`
	Name       string `json:"name"`
	Class      string `json:"class,omitempty"`
	Repository string `json:"repository,omitempty"`
}

type RelationshipOutput struct {
	From      NodeSummaryOutput `json:"from"`
	To        NodeSummaryOutput `json:"to"`
	Type      string            `json:"type"`
	Direction string            `json:"direction"`
	Depth     int               `json:"depth"`
}

type GetRelationshipsOutput struct {
	Relationships []RelationshipOutput `json:"relationships"`
}

type ListNodesOutput struct {
	Nodes []NodeSummaryOutput `json:"nodes"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "ask_codebase",
		Description: "Answer a question about the codebase structure, or explain what a class or method does",
	}, s.handleAsk)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the node categories and relationship patterns of the code graph",
	}, s.handleGetSchema)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "refresh_schema",
		Description: "Re-read the graph schema after an ingestion run",
	}, s.handleRefreshSchema)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "run_cypher",
		Description: "Execute a read-only Cypher query against the code graph",
	}, s.handleRunCypher)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_node",
		Description: "Retrieve repositories, classes, methods or other nodes by name",
	}, s.handleGetNode)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_relationships",
		Description: "Traverse relationships from a node",
	}, s.handleGetRelationships)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_nodes",
		Description: "List nodes with optional label and repository filters",
	}, s.handleListNodes)
}

func (s *Server) handleAsk(ctx context.Context, req *sdk.CallToolRequest, input AskInput) (*sdk.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, fmt.Errorf("question is required")
	}
	run := s.asker.RunQuery(ctx, input.Question)
	return nil, askOutputFromRun(run), nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	return nil, schemaOutputFromSummary(s.asker.Summary()), nil
}

func (s *Server) handleRefreshSchema(ctx context.Context, req *sdk.CallToolRequest, input RefreshSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	if err := s.asker.RefreshSchema(ctx); err != nil {
		return nil, SchemaOutput{}, err
	}
	return nil, schemaOutputFromSummary(s.asker.Summary()), nil
}

func (s *Server) handleRunCypher(ctx context.Context, req *sdk.CallToolRequest, input RunCypherInput) (*sdk.CallToolResult, RowsOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RowsOutput{}, fmt.Errorf("query is required")
	}
	rows, err := s.graph.RunCypher(ctx, input.Query, input.Params)
	if err != nil {
		return nil, RowsOutput{}, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return nil, RowsOutput{Rows: rows}, nil
}

func (s *Server) handleGetNode(ctx context.Context, req *sdk.CallToolRequest, input GetNodeInput) (*sdk.CallToolResult, GetNodeOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, GetNodeOutput{}, fmt.Errorf("name is required")
	}
	nodes, err := s.graph.GetNodes(ctx, input.Name, input.Label)
	if err != nil {
		return nil, GetNodeOutput{}, err
	}
	if len(nodes) == 0 {
		return nil, GetNodeOutput{}, fmt.Errorf("node not found")
	}

	output := make([]NodeOutput, 0, len(nodes))
	for _, node := range nodes {
		output = append(output, nodeOutputFromGraph(node))
	}
	return nil, GetNodeOutput{Nodes: output}, nil
}

func (s *Server) handleGetRelationships(ctx context.Context, req *sdk.CallToolRequest, input GetRelationshipsInput) (*sdk.CallToolResult, GetRelationshipsOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("name is required")
	}
	depth := input.Depth
	if depth == 0 {
		depth = 1
	}
	if depth < 0 || depth > maxDepth {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("depth must be between 1 and %d", maxDepth)
	}
	rels, err := s.graph.GetRelationships(ctx, input.Name, input.Type, input.Direction, depth)
	if err != nil {
		return nil, GetRelationshipsOutput{}, err
	}

	output := make([]RelationshipOutput, 0, len(rels))
	for _, rel := range rels {
		output = append(output, RelationshipOutput{
			From:      nodeSummaryOutputFromGraph(rel.From),
			To:        nodeSummaryOutputFromGraph(rel.To),
			Type:      rel.Type,
			Direction: rel.Direction,
			Depth:     rel.Depth,
		})
	}
	return nil, GetRelationshipsOutput{Relationships: output}, nil
}

func (s *Server) handleListNodes(ctx context.Context, req *sdk.CallToolRequest, input ListNodesInput) (*sdk.CallToolResult, ListNodesOutput, error) {
	items, err := s.graph.ListNodes(ctx, input.Label, input.Repository)
	if err != nil {
		return nil, ListNodesOutput{}, err
	}

	output := make([]NodeSummaryOutput, 0, len(items))
	for _, item := range items {
		output = append(output, nodeSummaryOutputFromGraph(item))
	}
	return nil, ListNodesOutput{Nodes: output}, nil
}

func askOutputFromRun(run query.QueryRun) AskOutput {
	out := AskOutput{
		ID:         run.ID,
		Intent:     run.Intent.String(),
		Kind:       string(run.Result.Kind),
		Attempts:   make([]AttemptOutput, 0, len(run.Attempts)),
		DurationMS: run.Duration.Milliseconds(),
	}
	switch run.Result.Kind {
	case query.ResultRows:
		out.Rows = append(make([]map[string]any, 0, len(run.Result.Rows)), run.Result.Rows...)
	default:
		out.Text = run.Result.Text
	}
	for _, attempt := range run.Attempts {
		out.Attempts = append(out.Attempts, AttemptOutput{
			Number: attempt.Number,
			Query:  attempt.Query,
			Status: string(attempt.Status),
			Error:  attempt.ErrorMessage,
		})
	}
	return out
}

func schemaOutputFromSummary(summary *schema.Summary) SchemaOutput {
	if summary == nil {
		return SchemaOutput{NodeCategories: []CategoryOutput{}, Relationships: []PatternOutput{}}
	}

	categories := summary.NodeCategories()
	patterns := summary.Relationships()
	out := SchemaOutput{
		Summary:        summary.String(),
		NodeCategories: make([]CategoryOutput, 0, len(categories)),
		Relationships:  make([]PatternOutput, 0, len(patterns)),
	}
	for _, category := range categories {
		out.NodeCategories = append(out.NodeCategories, CategoryOutput{
			Name:       category,
			Properties: summary.Properties(category),
		})
	}
	for _, pattern := range patterns {
		out.Relationships = append(out.Relationships, PatternOutput{From: pattern.From, Type: pattern.Type, To: pattern.To})
	}
	return out
}

func nodeOutputFromGraph(node graph.Node) NodeOutput {
	properties := map[string]any{}
	for key, value := range node.Properties {
		properties[key] = value
	}
	return NodeOutput{
		Labels:     append([]string{}, node.Labels...),
		Name:       node.Name,
		Repository: node.Repository,
		Properties: properties,
	}
}

func nodeSummaryOutputFromGraph(node graph.NodeSummary) NodeSummaryOutput {
	return NodeSummaryOutput{
		Label:      node.Label,
		Name:       node.Name,
		Class:      node.Class,
		Repository: node.Repository,
	}
}
