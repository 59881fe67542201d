package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/internal/schema"
)

type mockAsker struct {
	run        query.QueryRun
	summary    *schema.Summary
	refreshed  *schema.Summary
	refreshErr error

	lastQuestion string
	refreshCalls int
}

func (m *mockAsker) RunQuery(ctx context.Context, question string) query.QueryRun {
	m.lastQuestion = question
	return m.run
}

func (m *mockAsker) Summary() *schema.Summary {
	return m.summary
}

func (m *mockAsker) RefreshSchema(ctx context.Context) error {
	m.refreshCalls++
	if m.refreshErr != nil {
		return m.refreshErr
	}
	if m.refreshed != nil {
		m.summary = m.refreshed
	}
	return nil
}

type mockGraphQuerier struct {
	cypherResult        []map[string]any
	cypherErr           error
	nodesResult         []graph.Node
	nodesErr            error
	listResult          []graph.NodeSummary
	listErr             error
	relationshipsResult []graph.Relationship
	relationshipsErr    error

	lastCypher             string
	lastCypherParams       map[string]any
	lastGetNodesName       string
	lastGetNodesLabel      string
	lastListLabel          string
	lastListRepository     string
	lastRelationshipsName  string
	lastRelationshipsType  string
	lastRelationshipsDir   string
	lastRelationshipsDepth int
}

func (m *mockGraphQuerier) RunCypher(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	m.lastCypher = cypher
	m.lastCypherParams = params
	return m.cypherResult, m.cypherErr
}

func (m *mockGraphQuerier) GetNodes(ctx context.Context, name, label string) ([]graph.Node, error) {
	m.lastGetNodesName = name
	m.lastGetNodesLabel = label
	return m.nodesResult, m.nodesErr
}

func (m *mockGraphQuerier) GetRelationships(ctx context.Context, name, relType, direction string, depth int) ([]graph.Relationship, error) {
	m.lastRelationshipsName = name
	m.lastRelationshipsType = relType
	m.lastRelationshipsDir = direction
	m.lastRelationshipsDepth = depth
	return m.relationshipsResult, m.relationshipsErr
}

func (m *mockGraphQuerier) ListNodes(ctx context.Context, label, repository string) ([]graph.NodeSummary, error) {
	m.lastListLabel = label
	m.lastListRepository = repository
	return m.listResult, m.listErr
}

func classMethodSummary() *schema.Summary {
	return schema.NewSummary(
		[]string{"Class", "Method"},
		[]schema.Pattern{{From: "Class", Type: "HAS_METHOD", To: "Method"}},
		map[string][]string{"Method": {"name", "class"}},
	)
}

func TestAsk(t *testing.T) {
	asker := &mockAsker{run: query.QueryRun{
		ID:     "run-1",
		Intent: query.IntentLookup,
		Result: query.RowsResult([]query.Row{{"m.name": "GetUser"}, {"m.name": "CreateUser"}}),
		Attempts: []query.QueryAttempt{
			{Number: 1, Query: "MATCH (m:Method) RETURN m.nam", Status: query.AttemptFailed, ErrorMessage: "unknown property"},
			{Number: 2, Query: "MATCH (m:Method) RETURN m.name", Status: query.AttemptSucceeded},
		},
		Duration: 1500 * time.Millisecond,
	}}
	server := NewServer(asker, &mockGraphQuerier{}, "test")

	_, output, err := server.handleAsk(context.Background(), nil, AskInput{Question: "List all methods in the 'UserService' class"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asker.lastQuestion != "List all methods in the 'UserService' class" {
		t.Fatalf("question not forwarded: %q", asker.lastQuestion)
	}
	if output.Kind != "rows" || output.Intent != "lookup" || len(output.Rows) != 2 {
		t.Fatalf("unexpected ask output: %+v", output)
	}
	if len(output.Attempts) != 2 || output.Attempts[0].Error != "unknown property" || output.Attempts[1].Status != "success" {
		t.Fatalf("unexpected attempts: %+v", output.Attempts)
	}
	if output.DurationMS != 1500 {
		t.Fatalf("expected 1500ms, got %d", output.DurationMS)
	}
}

func TestAsk_Failure(t *testing.T) {
	asker := &mockAsker{run: query.QueryRun{
		Intent: query.IntentUnknown,
		Result: query.FailureResult(query.MsgCannotAnswer),
	}}
	server := NewServer(asker, &mockGraphQuerier{}, "test")

	_, output, err := server.handleAsk(context.Background(), nil, AskInput{Question: "What is the weather?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Kind != "failure" || output.Text != query.MsgCannotAnswer || output.Rows != nil {
		t.Fatalf("unexpected ask output: %+v", output)
	}
	if output.Attempts == nil || len(output.Attempts) != 0 {
		t.Fatalf("expected empty attempt list, got %+v", output.Attempts)
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	asker := &mockAsker{}
	server := NewServer(asker, &mockGraphQuerier{}, "test")

	_, _, err := server.handleAsk(context.Background(), nil, AskInput{Question: "  "})
	if err == nil {
		t.Fatalf("expected error")
	}
	if asker.lastQuestion != "" {
		t.Fatalf("expected no run for empty question")
	}
}

func TestGetSchema(t *testing.T) {
	server := NewServer(&mockAsker{summary: classMethodSummary()}, &mockGraphQuerier{}, "test")

	_, output, err := server.handleGetSchema(context.Background(), nil, GetSchemaInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.NodeCategories) != 2 || output.NodeCategories[1].Name != "Method" {
		t.Fatalf("unexpected categories: %+v", output.NodeCategories)
	}
	if len(output.NodeCategories[1].Properties) != 2 {
		t.Fatalf("expected method properties, got %+v", output.NodeCategories[1])
	}
	if len(output.Relationships) != 1 || output.Relationships[0].Type != "HAS_METHOD" {
		t.Fatalf("unexpected relationships: %+v", output.Relationships)
	}
	if output.Summary != classMethodSummary().String() {
		t.Fatalf("unexpected summary text: %q", output.Summary)
	}
}

func TestGetSchema_NoSummary(t *testing.T) {
	server := NewServer(&mockAsker{}, &mockGraphQuerier{}, "test")

	_, output, err := server.handleGetSchema(context.Background(), nil, GetSchemaInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.NodeCategories == nil || output.Relationships == nil {
		t.Fatalf("expected empty lists, got %+v", output)
	}
}

func TestRefreshSchema(t *testing.T) {
	refreshed := schema.NewSummary([]string{"Repository"}, nil, nil)
	asker := &mockAsker{summary: classMethodSummary(), refreshed: refreshed}
	server := NewServer(asker, &mockGraphQuerier{}, "test")

	_, output, err := server.handleRefreshSchema(context.Background(), nil, RefreshSchemaInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asker.refreshCalls != 1 {
		t.Fatalf("expected one refresh, got %d", asker.refreshCalls)
	}
	if len(output.NodeCategories) != 1 || output.NodeCategories[0].Name != "Repository" {
		t.Fatalf("expected refreshed summary, got %+v", output)
	}
}

func TestRefreshSchema_Error(t *testing.T) {
	asker := &mockAsker{summary: classMethodSummary(), refreshErr: errors.New("connection refused")}
	server := NewServer(asker, &mockGraphQuerier{}, "test")

	if _, _, err := server.handleRefreshSchema(context.Background(), nil, RefreshSchemaInput{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunCypher(t *testing.T) {
	graphMock := &mockGraphQuerier{cypherResult: []map[string]any{{"count": int64(3)}}}
	server := NewServer(&mockAsker{}, graphMock, "test")

	params := map[string]any{"name": "UserService"}
	_, output, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{
		Query:  "MATCH (c:Class {name: $name})-[:HAS_METHOD]->(m) RETURN count(m) AS count",
		Params: params,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Rows) != 1 || output.Rows[0]["count"] != int64(3) {
		t.Fatalf("unexpected rows: %+v", output.Rows)
	}
	if graphMock.lastCypherParams["name"] != "UserService" {
		t.Fatalf("params not forwarded: %+v", graphMock.lastCypherParams)
	}
}

func TestRunCypher_Errors(t *testing.T) {
	graphMock := &mockGraphQuerier{cypherErr: &graph.QueryError{Code: "Neo.ClientError.Statement.SyntaxError", Message: "Invalid input"}}
	server := NewServer(&mockAsker{}, graphMock, "test")

	if _, _, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{}); err == nil {
		t.Fatalf("expected error for empty query")
	}
	if graphMock.lastCypher != "" {
		t.Fatalf("expected empty query not to reach the graph")
	}
	if _, _, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{Query: "MATCH (n RETURN n"}); err == nil {
		t.Fatalf("expected graph error")
	}
}

func TestRunCypher_NoRows(t *testing.T) {
	server := NewServer(&mockAsker{}, &mockGraphQuerier{}, "test")

	_, output, err := server.handleRunCypher(context.Background(), nil, RunCypherInput{Query: "MATCH (n:Nothing) RETURN n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Rows == nil || len(output.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %+v", output.Rows)
	}
}

func TestGetNode(t *testing.T) {
	graphMock := &mockGraphQuerier{nodesResult: []graph.Node{{
		Labels:     []string{"Class"},
		Name:       "UserService",
		Repository: "user-api",
		Properties: map[string]any{"file_path": "Services/UserService.cs"},
	}}}
	server := NewServer(&mockAsker{}, graphMock, "test")

	_, output, err := server.handleGetNode(context.Background(), nil, GetNodeInput{Name: "userservice", Label: "Class"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Nodes) != 1 || output.Nodes[0].Repository != "user-api" {
		t.Fatalf("unexpected node output: %+v", output)
	}
	if graphMock.lastGetNodesName != "userservice" || graphMock.lastGetNodesLabel != "Class" {
		t.Fatalf("unexpected get node params")
	}
}

func TestGetNode_NotFound(t *testing.T) {
	server := NewServer(&mockAsker{}, &mockGraphQuerier{}, "test")

	_, _, err := server.handleGetNode(context.Background(), nil, GetNodeInput{Name: "Missing"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestListNodes(t *testing.T) {
	graphMock := &mockGraphQuerier{
		listResult: []graph.NodeSummary{{Label: "Method", Name: "GetUser", Class: "UserService", Repository: "user-api"}},
	}
	server := NewServer(&mockAsker{}, graphMock, "test")

	_, output, err := server.handleListNodes(context.Background(), nil, ListNodesInput{Label: "Method", Repository: "user-api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Nodes) != 1 || output.Nodes[0].Class != "UserService" {
		t.Fatalf("unexpected list output: %+v", output)
	}
	if graphMock.lastListLabel != "Method" || graphMock.lastListRepository != "user-api" {
		t.Fatalf("unexpected list params")
	}
}

func TestGetRelationships(t *testing.T) {
	graphMock := &mockGraphQuerier{
		relationshipsResult: []graph.Relationship{{
			From:      graph.NodeSummary{Label: "Class", Name: "UserService", Repository: "user-api"},
			To:        graph.NodeSummary{Label: "Method", Name: "GetUser", Class: "UserService", Repository: "user-api"},
			Type:      "HAS_METHOD",
			Direction: "outgoing",
			Depth:     1,
		}},
	}
	server := NewServer(&mockAsker{}, graphMock, "test")

	_, output, err := server.handleGetRelationships(context.Background(), nil, GetRelationshipsInput{Name: "UserService", Type: "HAS_METHOD", Depth: 2, Direction: "both"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Relationships) != 1 || output.Relationships[0].To.Class != "UserService" {
		t.Fatalf("unexpected relationships output: %+v", output)
	}
	if graphMock.lastRelationshipsName != "UserService" || graphMock.lastRelationshipsType != "HAS_METHOD" || graphMock.lastRelationshipsDepth != 2 || graphMock.lastRelationshipsDir != "both" {
		t.Fatalf("unexpected relationships params")
	}
}

func TestGetRelationships_Depth(t *testing.T) {
	graphMock := &mockGraphQuerier{}
	server := NewServer(&mockAsker{}, graphMock, "test")

	if _, _, err := server.handleGetRelationships(context.Background(), nil, GetRelationshipsInput{Name: "UserService"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graphMock.lastRelationshipsDepth != 1 {
		t.Fatalf("expected default depth 1, got %d", graphMock.lastRelationshipsDepth)
	}
	if _, _, err := server.handleGetRelationships(context.Background(), nil, GetRelationshipsInput{Name: "UserService", Depth: 9}); err == nil {
		t.Fatalf("expected depth error")
	}
}
