package ast

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/pkg/types"
)

// Stats summarizes one Ingest run.
type Stats struct {
	FilesScanned int
	FilesParsed  int
	FilesSkipped int // unchanged body_hash from a prior run
	Modules      int
	Classes      int
	Functions    int
	Interfaces   int
}

// Ingest walks rootDir, parses every recognized source file (skipping
// SKIP_DIRS, dotfiles, and files over 500KB per spec.md §4.4), and upserts
// Module/Class/Function/Interface nodes with DEFINES/INHERITS/MEMBER_OF/
// IMPORTS edges. A file whose body_hash matches the already-stored Module
// node is skipped entirely, making re-runs cheap on an unchanged tree.
func Ingest(ctx context.Context, api *graph.API, rootDir string) (Stats, error) {
	var stats Stats

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootDir && ShouldSkipPath(relOrSelf(rootDir, path)) {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel := relOrSelf(rootDir, path)
		if ShouldSkipPath(rel) {
			return nil
		}
		lang := DetectLanguage(path)
		if lang == "" {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}

		stats.FilesScanned++
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		result := ParseFile(rel, lang, string(content))

		existing, _ := api.GetNode(ctx, moduleID(rel))
		if existing != nil {
			if h, ok := existing.Properties["body_hash"].(string); ok && h == result.Module.BodyHash {
				stats.FilesSkipped++
				return nil
			}
		}

		if err := ingestFile(ctx, api, rel, result, &stats); err != nil {
			return fmt.Errorf("ast: ingest %s: %w", rel, err)
		}
		stats.FilesParsed++
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func relOrSelf(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}

func moduleID(filePath string) string {
	return types.CodeNodeID(filePath, filePath, types.LabelModule)
}

func ingestFile(ctx context.Context, api *graph.API, filePath string, result ParseResult, stats *Stats) error {
	modID := moduleID(filePath)
	modNode := &types.Node{
		ID:     modID,
		Labels: []string{types.LabelCode, types.LabelModule},
		Properties: map[string]interface{}{
			"file_path":    filePath,
			"language":     result.Module.Language,
			"line_count":   result.Module.LineCount,
			"import_count": result.Module.ImportCount,
			"body_hash":    result.Module.BodyHash,
		},
	}
	if err := api.AddNodeRaw(ctx, modNode); err != nil {
		return err
	}
	stats.Modules++

	classIDs := make(map[string]string, len(result.Classes))
	for _, c := range result.Classes {
		id := types.CodeNodeID(filePath, c.QualifiedName, types.LabelClass)
		classIDs[c.Name] = id
		node := &types.Node{
			ID:     id,
			Labels: []string{types.LabelCode, types.LabelClass},
			Properties: map[string]interface{}{
				"file_path":        c.FilePath,
				"language":         c.Language,
				"name":             c.Name,
				"qualified_name":   c.QualifiedName,
				"line_start":       c.LineStart,
				"line_end":         c.LineEnd,
				"docstring":        c.Docstring,
				"base_classes":     c.BaseClasses,
				"detected_pattern": c.DetectedPattern,
				"methods":          c.Methods,
			},
		}
		if err := api.AddNodeRaw(ctx, node); err != nil {
			return err
		}
		stats.Classes++
		if err := api.AddEdge(ctx, modID, id, types.EdgeDefines, 0, nil); err != nil {
			return err
		}
	}

	// INHERITS edges resolve in a second pass since a base class may be
	// defined later in the same file.
	for _, c := range result.Classes {
		childID := classIDs[c.Name]
		for _, base := range c.BaseClasses {
			baseID, ok := classIDs[base]
			if !ok {
				baseID = types.CodeNodeID(filePath, moduleName(filePath)+"."+base, types.LabelClass)
			}
			if err := api.AddEdge(ctx, childID, baseID, types.EdgeInherits, 0, nil); err != nil {
				return err
			}
		}
	}

	for _, iface := range result.Interfaces {
		id := types.CodeNodeID(filePath, iface.QualifiedName, types.LabelInterface)
		node := &types.Node{
			ID:     id,
			Labels: []string{types.LabelCode, types.LabelInterface},
			Properties: map[string]interface{}{
				"file_path":         iface.FilePath,
				"language":          iface.Language,
				"name":              iface.Name,
				"qualified_name":    iface.QualifiedName,
				"line_start":        iface.LineStart,
				"line_end":          iface.LineEnd,
				"method_signatures": iface.MethodSignatures,
			},
		}
		if err := api.AddNodeRaw(ctx, node); err != nil {
			return err
		}
		stats.Interfaces++
		if err := api.AddEdge(ctx, modID, id, types.EdgeDefines, 0, nil); err != nil {
			return err
		}
	}

	for _, fn := range result.Functions {
		id := types.CodeNodeID(filePath, fn.QualifiedName, types.LabelFunction)
		node := &types.Node{
			ID:     id,
			Labels: []string{types.LabelCode, types.LabelFunction},
			Properties: map[string]interface{}{
				"file_path":       fn.FilePath,
				"language":        fn.Language,
				"name":            fn.Name,
				"qualified_name":  fn.QualifiedName,
				"signature":       fn.Signature,
				"line_start":      fn.LineStart,
				"line_end":        fn.LineEnd,
				"is_method":       fn.IsMethod,
				"param_count":     fn.ParamCount,
				"complexity_hint": fn.ComplexityHint,
			},
		}
		if err := api.AddNodeRaw(ctx, node); err != nil {
			return err
		}
		stats.Functions++
		if err := api.AddEdge(ctx, modID, id, types.EdgeDefines, 0, nil); err != nil {
			return err
		}
		if fn.IsMethod {
			if ownerID, ok := classIDs[fn.OwnerClass]; ok {
				if err := api.AddEdge(ctx, id, ownerID, types.EdgeMemberOf, 0, nil); err != nil {
					return err
				}
			}
		}
	}

	for _, imp := range result.Module.Imports {
		target := resolveImportPath(filePath, imp)
		if target == "" {
			continue
		}
		targetID := moduleID(target)
		if err := api.AddEdge(ctx, modID, targetID, types.EdgeImports, 0, map[string]interface{}{"raw": imp}); err != nil {
			return err
		}
	}

	return nil
}

// resolveImportPath makes a best-effort guess at whether an import string
// refers to another file already ingested from this tree (relative imports
// only); external package imports are skipped since there's no corresponding
// Module node to point at.
func resolveImportPath(fromFile, imp string) string {
	if !strings.HasPrefix(imp, ".") {
		return ""
	}
	dir := filepath.Dir(fromFile)
	joined := filepath.ToSlash(filepath.Join(dir, imp))
	return joined
}
