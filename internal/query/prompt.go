package query

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	einoschema "github.com/cloudwego/eino/schema"
)

const lookupTemplate = `You are an expert Neo4j developer translating questions about a codebase into Cypher.
Rules:
- Use only the node categories, relationship patterns and properties listed in the schema. Do not invent labels, relationship types or properties.
- When the question names a specific repository, controller, class, method or stored procedure, match it with a name equality condition, for example {name: 'UserService'}.
- Return only the Cypher query. Do not add explanations, apologies, markdown or code fences.

Schema:
{{.schema}}
{{- if .examples}}

Examples:
{{- range .examples}}
Question: {{.Question}}
Cypher: {{.Cypher}}
{{- end}}
{{- end}}
{{- if .correction}}

{{.correction}}
{{- end}}

Question: {{.question}}
Cypher:`

const sourceFetchTemplate = `You are an expert Neo4j developer. Write a Cypher query that retrieves the source code of the class or method the question refers to.
Rules:
- Use only the node categories, relationship patterns and properties listed in the schema.
- Match the entity with a name equality condition on its name property.
- Return exactly three columns: the entity name AS name, its first label AS kind, and its source property AS source.
- Return only the Cypher query. Do not add explanations, apologies, markdown or code fences.

Schema:
{{.schema}}
{{- if .correction}}

{{.correction}}
{{- end}}

Question: {{.question}}
Cypher:`

const classifierTemplate = `Classify a question about a software codebase into exactly one category.
Categories:
- cypher_lookup: questions about structure, such as listing, counting or finding repositories, controllers, classes, methods and stored procedures, or how they are connected.
- method_explanation: requests to explain, summarise or describe what a specific class or method does.

Examples:
Question: List all methods in the 'UserService' class
Category: cypher_lookup
Question: Which repositories depend on billing-api?
Category: cypher_lookup
Question: Explain what the 'CalculateInvoice' method does
Category: method_explanation
Question: Summarise the behaviour of the OrderController class
Category: method_explanation

Answer with only the category name.
Question: {{.question}}
Category:`

const explanationTemplate = `You are a senior software engineer. Explain what the following {{.kind}} does.
Describe its purpose, inputs, outputs and notable side effects in plain language, using short paragraphs or bullet points.

Source code:
{{.source}}`

var (
	lookupPrompt      = prompt.FromMessages(einoschema.GoTemplate, einoschema.UserMessage(lookupTemplate))
	sourceFetchPrompt = prompt.FromMessages(einoschema.GoTemplate, einoschema.UserMessage(sourceFetchTemplate))
	classifierPrompt  = prompt.FromMessages(einoschema.GoTemplate, einoschema.UserMessage(classifierTemplate))
	explanationPrompt = prompt.FromMessages(einoschema.GoTemplate, einoschema.UserMessage(explanationTemplate))
)

// AssemblePrompt renders the generation prompt for one attempt.
func AssemblePrompt(ctx context.Context, pc PromptContext) (string, error) {
	// Templates render with missingkey=error, so every referenced key is set.
	vars := map[string]any{
		"question":   pc.Question,
		"schema":     "",
		"examples":   []Example(nil),
		"correction": "",
	}
	if pc.Schema != nil {
		vars["schema"] = pc.Schema.String()
	}
	if pc.Correction != nil {
		vars["correction"] = pc.Correction.Fragment()
	}

	tmpl := lookupPrompt
	switch pc.Task {
	case TaskLookup:
		vars["examples"] = pc.Examples
	case TaskSourceFetch:
		tmpl = sourceFetchPrompt
	default:
		return "", fmt.Errorf("%w: unknown prompt task %d", ErrPromptRender, pc.Task)
	}
	return render(ctx, tmpl, vars)
}

func classificationPrompt(ctx context.Context, question string) (string, error) {
	return render(ctx, classifierPrompt, map[string]any{"question": question})
}

func explanationPromptFor(ctx context.Context, req ExplanationRequest) (string, error) {
	kind := "method"
	if req.EntityKind == EntityClass {
		kind = "class"
	}
	return render(ctx, explanationPrompt, map[string]any{"kind": kind, "source": req.SourceCode})
}

func render(ctx context.Context, tmpl prompt.ChatTemplate, vars map[string]any) (string, error) {
	messages, err := tmpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPromptRender, err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: template produced no messages", ErrPromptRender)
	}
	return messages[0].Content, nil
}
