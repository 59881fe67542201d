package schema

import (
	"context"
	"fmt"
)

// MetadataSource answers introspection calls against the graph store.
type MetadataSource interface {
	ListNodeCategories(ctx context.Context) ([]string, error)
	ListRelationshipTypes(ctx context.Context) ([]string, error)
	ListRelationshipPatterns(ctx context.Context) ([]Pattern, error)
}

// NodePropertyLister is implemented by sources that can also report the
// property keys seen on each node category.
type NodePropertyLister interface {
	ListNodeProperties(ctx context.Context) (map[string][]string, error)
}

// BackendUnavailableError reports that the store could not answer a metadata
// call. Without a summary no query can be synthesised.
type BackendUnavailableError struct {
	Op  string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("graph backend unavailable: %s: %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

type Summarizer struct {
	source  MetadataSource
	curated []Pattern
}

// NewSummarizer builds a summarizer. When curated patterns are supplied they
// replace introspected connectivity, restricted to what exists in the store.
func NewSummarizer(source MetadataSource, curated []Pattern) *Summarizer {
	return &Summarizer{source: source, curated: append([]Pattern(nil), curated...)}
}

func (s *Summarizer) Summarize(ctx context.Context) (*Summary, error) {
	categories, err := s.source.ListNodeCategories(ctx)
	if err != nil {
		return nil, &BackendUnavailableError{Op: "list node categories", Err: err}
	}
	relTypes, err := s.source.ListRelationshipTypes(ctx)
	if err != nil {
		return nil, &BackendUnavailableError{Op: "list relationship types", Err: err}
	}

	candidates := s.curated
	if len(candidates) == 0 {
		candidates, err = s.source.ListRelationshipPatterns(ctx)
		if err != nil {
			return nil, &BackendUnavailableError{Op: "list relationship patterns", Err: err}
		}
	}

	present := toSet(categories)
	presentTypes := toSet(relTypes)
	patterns := make([]Pattern, 0, len(candidates))
	for _, pattern := range candidates {
		if _, ok := present[pattern.From]; !ok {
			continue
		}
		if _, ok := present[pattern.To]; !ok {
			continue
		}
		if _, ok := presentTypes[pattern.Type]; !ok {
			continue
		}
		patterns = append(patterns, pattern)
	}

	var properties map[string][]string
	if lister, ok := s.source.(NodePropertyLister); ok {
		properties, err = lister.ListNodeProperties(ctx)
		if err != nil {
			return nil, &BackendUnavailableError{Op: "list node properties", Err: err}
		}
	}

	return NewSummary(categories, patterns, properties), nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
