package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	categoryPattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	relationshipPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// Schema is the curated description of the code graph. Its relationship
// patterns override automatic introspection when summarising the store.
type Schema struct {
	Version        int                   `yaml:"version"`
	NodeCategories []NodeCategory        `yaml:"node_categories"`
	Relationships  []RelationshipPattern `yaml:"relationships"`

	categoryIndex map[string]*NodeCategory
}

type NodeCategory struct {
	Name       string   `yaml:"name"`
	Properties []string `yaml:"properties"`
}

type RelationshipPattern struct {
	From string `yaml:"from"`
	Type string `yaml:"type"`
	To   string `yaml:"to"`
}

func (p RelationshipPattern) String() string {
	return fmt.Sprintf("(:%s)-[:%s]->(:%s)", p.From, p.Type, p.To)
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.buildIndex()
	return &schema, nil
}

// DefaultSchema describes the graph written by the semantic-model ingester.
func DefaultSchema() *Schema {
	schema := &Schema{
		Version: 1,
		NodeCategories: []NodeCategory{
			{Name: "Repository", Properties: []string{"name"}},
			{Name: "Controller", Properties: []string{"name"}},
			{Name: "Class", Properties: []string{"name", "file_path", "source", "ds", "inherits"}},
			{Name: "Method", Properties: []string{"name", "class", "source", "return_type"}},
			{Name: "StoredProcedure", Properties: []string{"name"}},
		},
		Relationships: []RelationshipPattern{
			{From: "Repository", Type: "DEPENDS_ON", To: "Repository"},
			{From: "Repository", Type: "HAS_ROUTES", To: "Controller"},
			{From: "Repository", Type: "HAS_CLASSES", To: "Class"},
			{From: "Class", Type: "HAS_METHOD", To: "Method"},
			{From: "Class", Type: "CALLS_SP", To: "StoredProcedure"},
			{From: "Method", Type: "CALLS_METHOD", To: "Method"},
		},
	}
	schema.buildIndex()
	return schema
}

func (s *Schema) buildIndex() {
	s.categoryIndex = make(map[string]*NodeCategory, len(s.NodeCategories))
	for i := range s.NodeCategories {
		category := &s.NodeCategories[i]
		s.categoryIndex[strings.ToLower(category.Name)] = category
	}
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.NodeCategories) == 0 {
		return fmt.Errorf("at least one node category is required")
	}

	names := make(map[string]struct{})
	for i, category := range s.NodeCategories {
		if strings.TrimSpace(category.Name) == "" {
			return fmt.Errorf("node category %d name is required", i)
		}
		if !categoryPattern.MatchString(category.Name) {
			return fmt.Errorf("invalid node category name: %s", category.Name)
		}
		key := strings.ToLower(category.Name)
		if _, exists := names[key]; exists {
			return fmt.Errorf("duplicate node category name: %s", category.Name)
		}
		names[key] = struct{}{}

		props := make(map[string]struct{})
		for _, prop := range category.Properties {
			name := strings.ToLower(strings.TrimSpace(prop))
			if name == "" {
				return fmt.Errorf("node category %s has property with empty name", category.Name)
			}
			if _, exists := props[name]; exists {
				return fmt.Errorf("node category %s has duplicate property: %s", category.Name, prop)
			}
			props[name] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	for i, rel := range s.Relationships {
		if strings.TrimSpace(rel.Type) == "" {
			return fmt.Errorf("relationship %d type is required", i)
		}
		if !relationshipPattern.MatchString(rel.Type) {
			return fmt.Errorf("invalid relationship type: %s", rel.Type)
		}
		for _, end := range []string{rel.From, rel.To} {
			if _, ok := names[strings.ToLower(end)]; !ok {
				return fmt.Errorf("relationship %s references unknown node category: %q", rel.Type, end)
			}
		}
		key := rel.String()
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate relationship pattern: %s", key)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func (s *Schema) NodeCategoryByName(name string) (*NodeCategory, bool) {
	if s == nil {
		return nil, false
	}
	category, ok := s.categoryIndex[strings.ToLower(name)]
	return category, ok
}

func (s *Schema) IsValidNodeCategory(name string) bool {
	_, ok := s.NodeCategoryByName(name)
	return ok
}
