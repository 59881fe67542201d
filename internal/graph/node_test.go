package graph

import (
	"reflect"
	"testing"
)

func TestMergePattern(t *testing.T) {
	t.Run("sorted keys", func(t *testing.T) {
		pattern, params, err := mergePattern("n", "key", NodeRef{
			Label: "Method",
			Key:   map[string]any{"name": "Save", "class": "OrderService"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pattern != "(n:Method {class: $key.class, name: $key.name})" {
			t.Fatalf("unexpected pattern %q", pattern)
		}
		want := map[string]any{"key": map[string]any{"class": "OrderService", "name": "Save"}}
		if !reflect.DeepEqual(params, want) {
			t.Fatalf("unexpected params %v", params)
		}
	})

	t.Run("invalid label", func(t *testing.T) {
		if _, _, err := mergePattern("n", "key", NodeRef{Label: "Class) DETACH DELETE (x", Key: map[string]any{"name": "x"}}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if _, _, err := mergePattern("n", "key", NodeRef{Label: "Class", Key: map[string]any{"name}) DELETE n //": "x"}}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, _, err := mergePattern("n", "key", NodeRef{Label: "Class"}); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestNodeInputRef(t *testing.T) {
	input := NodeInput{Label: "Repository", Key: map[string]any{"name": "billing"}, Props: map[string]any{"source_hash": "h"}}
	ref := input.Ref()
	if ref.Label != "Repository" || ref.Key["name"] != "billing" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}
