// Package ingest loads repository semantic models into the code graph.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/parser"
)

const (
	RelDependsOn   = "DEPENDS_ON"
	RelHasRoutes   = "HAS_ROUTES"
	RelHasClasses  = "HAS_CLASSES"
	RelHasMethod   = "HAS_METHOD"
	RelCallsSP     = "CALLS_SP"
	RelCallsMethod = "CALLS_METHOD"
)

type Result struct {
	FilesProcessed int
	FilesSkipped   int
	NodesUpserted  int
	EdgesUpserted  int
	NodesRemoved   int
	Errors         []error
}

type Options struct {
	// Full re-ingests every file regardless of stored hashes.
	Full bool
	// Clear deletes the whole graph before ingesting.
	Clear bool
}

type methodCall struct {
	from graph.NodeRef
	to   graph.NodeRef
}

func Run(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema, writer GraphWriter, options Options) (*Result, error) {
	result := &Result{}

	if options.Clear {
		deleted, err := writer.ClearGraph(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear graph: %w", err)
		}
		result.NodesRemoved += int(deleted)
	}

	if err := writer.EnsureIndexes(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	existingHashes := map[string]string{}
	if !options.Full && !options.Clear {
		var err error
		existingHashes, err = writer.GetRepositoryHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get repository hashes: %w", err)
		}
	}

	files, err := walkJSONFiles(cfg.Ingest.Paths, cfg.Ingest.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking semantic models: %w", err)
	}

	var calls []methodCall
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if existing, ok := existingHashes[path]; ok && existing == hash {
			result.FilesSkipped++
			continue
		}

		model, err := parser.ParseFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		fileCalls, err := writeModel(ctx, writer, model, hash, !options.Clear, result)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("ingesting %s: %w", path, err))
			continue
		}
		calls = append(calls, fileCalls...)
		result.FilesProcessed++
	}

	// Calls are linked after every model is written so targets in other
	// repositories resolve to real nodes instead of placeholders.
	for _, call := range calls {
		if err := writer.UpsertRelationship(ctx, call.from, call.to, RelCallsMethod); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("linking call %v -> %v: %w", call.from.Key, call.to.Key, err))
			continue
		}
		result.EdgesUpserted++
	}

	return result, nil
}

// writeModel upserts one repository. A node or edge failure aborts the file
// so its stored hash is not updated and it is retried on the next run.
func writeModel(ctx context.Context, writer GraphWriter, model *parser.Model, hash string, replace bool, result *Result) ([]methodCall, error) {
	repoName := parser.RepositoryName(model.Name)

	if replace {
		removed, err := writer.RemoveRepositoryContents(ctx, repoName)
		if err != nil {
			return nil, err
		}
		result.NodesRemoved += int(removed)
	}

	upsert := func(n graph.NodeInput) error {
		if err := writer.UpsertNode(ctx, n); err != nil {
			return err
		}
		result.NodesUpserted++
		return nil
	}
	link := func(from, to graph.NodeRef, relType string) error {
		if err := writer.UpsertRelationship(ctx, from, to, relType); err != nil {
			return err
		}
		result.EdgesUpserted++
		return nil
	}

	// The hash is recorded only after everything else has been written.
	repo := repositoryNode(repoName, model.Name)
	if err := upsert(repo); err != nil {
		return nil, err
	}

	for _, dep := range model.DependentRepositories {
		name := parser.RepositoryName(dep)
		if name == "" || name == repoName {
			continue
		}
		if err := link(repo.Ref(), repositoryRef(name), RelDependsOn); err != nil {
			return nil, err
		}
	}

	for _, controller := range model.Controllers {
		if controller.Name == "" {
			continue
		}
		node := graph.NodeInput{
			Label: "Controller",
			Key:   map[string]any{"name": controller.Name},
			Props: map[string]any{"repository": repoName, "http_call_type": controller.HTTPCallType},
		}
		if err := upsert(node); err != nil {
			return nil, err
		}
		if err := link(repo.Ref(), node.Ref(), RelHasRoutes); err != nil {
			return nil, err
		}
	}

	var calls []methodCall
	for _, class := range model.ClassDetails {
		classNode := graph.NodeInput{
			Label: "Class",
			Key:   map[string]any{"name": class.ClassName},
			Props: map[string]any{
				"repository": repoName,
				"file_path":  class.FilePath,
				"source":     class.ClassSourceCode,
				"inherits":   class.Inherits,
				"ds":         len(class.Methods) > 0,
			},
		}
		if err := upsert(classNode); err != nil {
			return nil, err
		}
		if err := link(repo.Ref(), classNode.Ref(), RelHasClasses); err != nil {
			return nil, err
		}

		for _, ref := range class.StoredProcedure {
			name, err := parser.StoredProcedureName(ref)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("class %s: %w", class.ClassName, err))
				continue
			}
			sp := graph.NodeInput{Label: "StoredProcedure", Key: map[string]any{"name": name}}
			if err := upsert(sp); err != nil {
				return nil, err
			}
			if err := link(classNode.Ref(), sp.Ref(), RelCallsSP); err != nil {
				return nil, err
			}
		}

		for _, method := range class.Methods {
			methodNode := graph.NodeInput{
				Label: "Method",
				Key:   methodKey(class.ClassName, method.MethodName),
				Props: map[string]any{
					"repository":  repoName,
					"source":      method.MethodSourceCode,
					"return_type": method.MethodReturnType,
				},
			}
			if err := upsert(methodNode); err != nil {
				return nil, err
			}
			if err := link(classNode.Ref(), methodNode.Ref(), RelHasMethod); err != nil {
				return nil, err
			}
			for _, call := range method.ExternalCalls {
				if strings.TrimSpace(call.DestinationMethod) == "" || strings.TrimSpace(call.DestinationClass) == "" {
					continue
				}
				calls = append(calls, methodCall{
					from: methodNode.Ref(),
					to: graph.NodeRef{
						Label: "Method",
						Key:   methodKey(strings.TrimSpace(call.DestinationClass), strings.TrimSpace(call.DestinationMethod)),
					},
				})
			}
		}
	}

	final := repositoryNode(repoName, model.Name)
	final.Props["source_file"] = model.SourceFile
	final.Props["source_hash"] = hash
	if err := writer.UpsertNode(ctx, final); err != nil {
		return nil, err
	}

	return calls, nil
}

func repositoryNode(name, displayName string) graph.NodeInput {
	return graph.NodeInput{
		Label: "Repository",
		Key:   map[string]any{"name": name},
		Props: map[string]any{"display_name": displayName},
	}
}

func repositoryRef(name string) graph.NodeRef {
	return graph.NodeRef{Label: "Repository", Key: map[string]any{"name": name}}
}

// methodKey identifies a method by its owning class and name; overloads
// collapse into one node.
func methodKey(class, name string) map[string]any {
	return map[string]any{"class": class, "name": name}
}

func walkJSONFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
