// Package schema produces the compact description of the code graph that is
// injected into every query-generation prompt.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"codegraph/internal/config"
)

// Pattern is a directed, typed connection between two node categories.
type Pattern struct {
	From string `json:"from"`
	Type string `json:"type"`
	To   string `json:"to"`
}

func (p Pattern) String() string {
	return fmt.Sprintf("(:%s)-[:%s]->(:%s)", p.From, p.Type, p.To)
}

// PatternsFromConfig converts the curated relationships of a schema file.
func PatternsFromConfig(s *config.Schema) []Pattern {
	if s == nil {
		return nil
	}
	patterns := make([]Pattern, 0, len(s.Relationships))
	for _, rel := range s.Relationships {
		patterns = append(patterns, Pattern{From: rel.From, Type: rel.Type, To: rel.To})
	}
	return patterns
}

// Summary is an immutable snapshot of the node categories and relationship
// patterns present in the graph. Accessors return copies.
type Summary struct {
	categories    []string
	relationships []Pattern
	properties    map[string][]string
}

// NewSummary sorts and deduplicates its inputs. Properties for categories not
// in the category list are dropped.
func NewSummary(categories []string, relationships []Pattern, properties map[string][]string) *Summary {
	s := &Summary{
		categories:    sortedUnique(categories),
		relationships: sortedPatterns(relationships),
		properties:    make(map[string][]string),
	}
	for _, category := range s.categories {
		if props := sortedUnique(properties[category]); len(props) > 0 {
			s.properties[category] = props
		}
	}
	return s
}

func (s *Summary) NodeCategories() []string {
	return slices.Clone(s.categories)
}

func (s *Summary) Relationships() []Pattern {
	return slices.Clone(s.relationships)
}

func (s *Summary) Properties(category string) []string {
	return slices.Clone(s.properties[category])
}

func (s *Summary) HasCategory(name string) bool {
	_, found := slices.BinarySearch(s.categories, name)
	return found
}

func (s *Summary) Equal(other *Summary) bool {
	if s == nil || other == nil {
		return s == other
	}
	if !slices.Equal(s.categories, other.categories) || !slices.Equal(s.relationships, other.relationships) {
		return false
	}
	if len(s.properties) != len(other.properties) {
		return false
	}
	for category, props := range s.properties {
		if !slices.Equal(props, other.properties[category]) {
			return false
		}
	}
	return true
}

// String renders the summary in the form used inside prompts.
func (s *Summary) String() string {
	var b strings.Builder
	b.WriteString("Node categories:\n")
	if len(s.categories) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, category := range s.categories {
		b.WriteString("- ")
		b.WriteString(category)
		if props := s.properties[category]; len(props) > 0 {
			b.WriteString(" {")
			b.WriteString(strings.Join(props, ", "))
			b.WriteString("}")
		}
		b.WriteString("\n")
	}
	b.WriteString("Relationship patterns:\n")
	if len(s.relationships) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, pattern := range s.relationships {
		b.WriteString("- ")
		b.WriteString(pattern.String())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

func sortedPatterns(patterns []Pattern) []Pattern {
	out := slices.Clone(patterns)
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return slices.Compact(out)
}
