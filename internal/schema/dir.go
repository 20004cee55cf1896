package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LoadDir loads every descriptor in dir: all .cue files as one CUE instance,
// then each .yaml or .yml file in name order.
func LoadDir(dir string) ([]ObjectSchema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("descriptor directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("descriptor directory: %s is not a directory", dir)
	}

	var out []ObjectSchema

	cueFiles, err := findFiles(dir, ".cue")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(cueFiles) > 0 {
		schemas, err := LoadCUEDir(dir)
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded CUE descriptors", "dir", dir, "files", len(cueFiles), "types", len(schemas))
		out = append(out, schemas...)
	}

	yamlFiles, err := findFiles(dir, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	for _, path := range yamlFiles {
		schemas, err := LoadYAMLFile(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded YAML descriptors", "file", path, "types", len(schemas))
		out = append(out, schemas...)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no type descriptors found in %s", dir)
	}
	return out, nil
}

// LoadPath loads descriptors from a directory or a single .cue/.yaml file.
func LoadPath(path string) ([]ObjectSchema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file %s: %w", path, err)
	}
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		return LoadCUE(path, data)
	case ".yaml", ".yml":
		return LoadYAML(path, data)
	default:
		return nil, fmt.Errorf("unsupported descriptor file extension %q", ext)
	}
}
