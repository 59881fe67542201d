// Package validate checks the ingested code graph for structural problems
// that make questions unanswerable or answers incomplete.
package validate

import (
	"context"
	"fmt"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/schema"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownLabel        = "unknown_label"
	codeUndeclaredPattern   = "undeclared_relationship"
	codeOrphanedNode        = "orphaned_node"
	codeUnresolvedReference = "unresolved_reference"
	codeMethodWithoutClass  = "method_without_class"
	codeClassWithoutRepo    = "class_without_repository"
	codeMissingSource       = "missing_source"
)

type Issue struct {
	Severity   Severity
	Code       string
	Message    string
	Label      string
	Name       string
	Repository string
}

type Report struct {
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

type nodeCheck struct {
	list     func(context.Context) ([]graph.NodeSummary, error)
	op       string
	severity Severity
	code     string
	message  string
}

func Run(ctx context.Context, cfgSchema *config.Schema, graphClient GraphValidator) (*Report, error) {
	if cfgSchema == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if graphClient == nil {
		return nil, fmt.Errorf("graph client is required")
	}

	issues := make([]Issue, 0)

	labels, err := graphClient.ListNodeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list node categories: %w", err)
	}
	for _, label := range labels {
		if !cfgSchema.IsValidNodeCategory(label) {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownLabel,
				Message:  fmt.Sprintf("label %s is not declared in the schema and will not be offered to the model", label),
				Label:    label,
			})
		}
	}

	patterns, err := graphClient.ListRelationshipPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relationship patterns: %w", err)
	}
	issues = append(issues, undeclaredPatterns(cfgSchema, patterns)...)

	checks := []nodeCheck{
		{graphClient.ListMethodsWithoutClass, "list methods without class", SeverityError, codeMethodWithoutClass, "method is not attached to any class"},
		{graphClient.ListClassesWithoutRepository, "list classes without repository", SeverityError, codeClassWithoutRepo, "class is not attached to any repository"},
		{graphClient.ListOrphanedNodes, "list orphaned nodes", SeverityWarn, codeOrphanedNode, "node has no relationships"},
		{graphClient.ListPlaceholders, "list placeholders", SeverityWarn, codeUnresolvedReference, "referenced but never ingested"},
		{graphClient.ListNodesMissingSource, "list nodes missing source", SeverityWarn, codeMissingSource, "no source code; it cannot be explained"},
	}
	for _, check := range checks {
		nodes, err := check.list(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", check.op, err)
		}
		for _, node := range nodes {
			issues = append(issues, issueFromNode(node, check.severity, check.code, check.message))
		}
	}

	return &Report{Issues: issues}, nil
}

// undeclaredPatterns flags connections present in the data that the curated
// schema omits. Only applies when the schema declares relationships at all.
func undeclaredPatterns(cfgSchema *config.Schema, patterns []schema.Pattern) []Issue {
	if len(cfgSchema.Relationships) == 0 {
		return nil
	}
	declared := make(map[string]struct{}, len(cfgSchema.Relationships))
	for _, rel := range cfgSchema.Relationships {
		declared[rel.String()] = struct{}{}
	}

	var issues []Issue
	for _, pattern := range patterns {
		if !cfgSchema.IsValidNodeCategory(pattern.From) || !cfgSchema.IsValidNodeCategory(pattern.To) {
			continue
		}
		if _, ok := declared[pattern.String()]; ok {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUndeclaredPattern,
			Message:  fmt.Sprintf("relationship %s is not declared in the schema", pattern),
			Label:    pattern.From,
		})
	}
	return issues
}

func issueFromNode(node graph.NodeSummary, severity Severity, code, message string) Issue {
	name := node.Name
	if node.Class != "" && node.Label == "Method" {
		name = node.Class + "." + node.Name
	}
	return Issue{
		Severity:   severity,
		Code:       code,
		Message:    message,
		Label:      node.Label,
		Name:       name,
		Repository: node.Repository,
	}
}
