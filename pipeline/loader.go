// Package pipeline loads HCL manifests declaring source → transform → sink
// graphs, builds the corresponding operator graph, and runs it end to end.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/eventflow/internal/ctxlog"
)

// Load reads a manifest file, or every .hcl file under a directory, and
// merges the declared blocks into a validated Pipeline.
func Load(ctx context.Context, path string) (*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findManifestFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl manifests under %s", path)
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	pipeline := &Pipeline{Sources: make(map[string]*Source)}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %s", file, diags.Error())
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %s", file, diags.Error())
		}
		for _, source := range root.Sources {
			if _, dup := pipeline.Sources[source.Name]; dup {
				return nil, fmt.Errorf("%s: duplicate source %q", file, source.Name)
			}
			pipeline.Sources[source.Name] = source
		}
		pipeline.Transforms = append(pipeline.Transforms, root.Transforms...)
		pipeline.Sinks = append(pipeline.Sinks, root.Sinks...)
	}

	if err := pipeline.validate(); err != nil {
		return nil, err
	}
	logger.Debug("Manifest loading complete.",
		"sources", len(pipeline.Sources), "transforms", len(pipeline.Transforms), "sinks", len(pipeline.Sinks))
	return pipeline, nil
}

// findManifestFiles accepts a single file or walks a directory for .hcl
// files.
func findManifestFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
