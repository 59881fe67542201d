package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

func TestNormalizeValue(t *testing.T) {
	method := dbtype.Node{
		ElementId: "4:abc:1",
		Labels:    []string{"Method"},
		Props:     map[string]any{"name": "Save", "class": "OrderService"},
	}
	class := dbtype.Node{
		ElementId: "4:abc:0",
		Labels:    []string{"Class"},
		Props:     map[string]any{"name": "OrderService"},
	}
	rel := dbtype.Relationship{
		ElementId:      "5:abc:9",
		StartElementId: class.ElementId,
		EndElementId:   method.ElementId,
		Type:           "HAS_METHOD",
		Props:          map[string]any{},
	}

	t.Run("node", func(t *testing.T) {
		got := normalizeValue(method).(map[string]any)
		if got["name"] != "Save" || got["class"] != "OrderService" {
			t.Fatalf("unexpected properties: %v", got)
		}
		if got["_id"] != "4:abc:1" {
			t.Fatalf("unexpected id: %v", got["_id"])
		}
		if !reflect.DeepEqual(got["_labels"], []string{"Method"}) {
			t.Fatalf("unexpected labels: %v", got["_labels"])
		}
	})

	t.Run("relationship", func(t *testing.T) {
		got := normalizeValue(rel).(map[string]any)
		if got["_type"] != "HAS_METHOD" || got["_start"] != class.ElementId || got["_end"] != method.ElementId {
			t.Fatalf("unexpected relationship: %v", got)
		}
	})

	t.Run("path", func(t *testing.T) {
		got := normalizeValue(dbtype.Path{Nodes: []dbtype.Node{class, method}, Relationships: []dbtype.Relationship{rel}}).(map[string]any)
		if len(got["nodes"].([]any)) != 2 || len(got["relationships"].([]any)) != 1 {
			t.Fatalf("unexpected path: %v", got)
		}
	})

	t.Run("nested collections", func(t *testing.T) {
		got := normalizeValue([]any{method, map[string]any{"owner": class}, int64(3)}).([]any)
		if got[0].(map[string]any)["name"] != "Save" {
			t.Fatalf("list element not normalized: %v", got[0])
		}
		if got[1].(map[string]any)["owner"].(map[string]any)["name"] != "OrderService" {
			t.Fatalf("map value not normalized: %v", got[1])
		}
		if got[2] != int64(3) {
			t.Fatalf("scalar changed: %v", got[2])
		}
	})

	t.Run("temporal", func(t *testing.T) {
		date := dbtype.Date(time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC))
		if got := normalizeValue(date); got != "2025-04-02" {
			t.Fatalf("unexpected date: %v", got)
		}
		stamp := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
		if got := normalizeValue(stamp); got != "2025-04-02T10:30:00Z" {
			t.Fatalf("unexpected datetime: %v", got)
		}
	})

	t.Run("point", func(t *testing.T) {
		got := normalizeValue(dbtype.Point2D{X: 1, Y: 2, SpatialRefId: 7203}).(map[string]any)
		if got["x"] != 1.0 || got["y"] != 2.0 {
			t.Fatalf("unexpected point: %v", got)
		}
	})
}

func TestExtractProperties(t *testing.T) {
	got := extractProperties(map[string]any{
		"name":         "Save",
		"repository":   "billing",
		"source":       "void Save() {}",
		"return_type":  "void",
		"_placeholder": true,
	})
	if !reflect.DeepEqual(got, map[string]any{"return_type": "void"}) {
		t.Fatalf("unexpected properties: %v", got)
	}
}

func TestNewQueryError(t *testing.T) {
	t.Run("server diagnostic", func(t *testing.T) {
		cause := &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "Invalid input 'RETRUN'"}
		err := newQueryError(fmt.Errorf("executing: %w", cause))
		if err.Error() != "Invalid input 'RETRUN'" {
			t.Fatalf("unexpected message %q", err.Error())
		}
		if err.Code != "Neo.ClientError.Statement.SyntaxError" {
			t.Fatalf("unexpected code %q", err.Code)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("expected cause to be wrapped")
		}
	})

	t.Run("transport error", func(t *testing.T) {
		err := newQueryError(errors.New("connection reset"))
		if err.Error() != "connection reset" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		err := newQueryError(context.Canceled)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled")
		}
	})
}

func TestRunCypherEmptyQuery(t *testing.T) {
	client := &Client{}
	_, err := client.RunCypher(context.Background(), "   ", nil)
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected QueryError, got %v", err)
	}
	if !strings.Contains(queryErr.Error(), "empty") {
		t.Fatalf("unexpected message %q", queryErr.Error())
	}
}
