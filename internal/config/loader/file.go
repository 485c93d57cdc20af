package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// includeKey names the directive listing files merged beneath the current one.
const includeKey = "@include"

// MaxIncludeDepth bounds nested @include directives.
const MaxIncludeDepth = 5

// parseFunc decodes raw file contents into a map.
type parseFunc func(source string, data []byte) (map[string]any, error)

// fileLoader is the format-independent part of TOMLLoader and YAMLLoader.
type fileLoader struct {
	fs    FileSystem
	path  string
	parse parseFunc
}

// Load reads configuration from the configured path.
func (l *fileLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads configuration from a specific path.
func (l *fileLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return l.parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *fileLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return l.parse("<reader>", data)
}

// LoadWithIncludes loads path and merges the files named by its @include
// directive beneath it. Relative includes resolve against the including
// file's directory.
func (l *fileLoader) LoadWithIncludes(path string, maxDepth int) (map[string]any, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeDepth)
	}

	config, err := l.LoadFrom(path)
	if err != nil || config == nil {
		return config, err
	}

	includes, ok := config[includeKey]
	if !ok {
		return config, nil
	}
	delete(config, includeKey)

	list, err := includeList(includes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	for _, inc := range list {
		incPath := inc
		if !filepath.IsAbs(inc) {
			incPath = filepath.Join(baseDir, inc)
		}

		incConfig, err := l.LoadWithIncludes(incPath, maxDepth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", incPath, err)
		}

		// The including file wins.
		config = DeepMerge(incConfig, config)
	}

	return config, nil
}

func includeList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be string or array of strings", includeKey)
			}
			list = append(list, s)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%s must be string or array of strings, got %T", includeKey, v)
	}
}

// IncludeLoader is a FileLoader that resolves @include directives.
type IncludeLoader interface {
	FileLoader
	ReaderLoader
	LoadWithIncludes(path string, maxDepth int) (map[string]any, error)
}

// ForPath returns the loader for path's extension: .toml, or .yaml/.yml.
func ForPath(fs FileSystem, path string) (IncludeLoader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoaderWithFS(fs, path), nil
	case ".yaml", ".yml":
		return NewYAMLLoaderWithFS(fs, path), nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}

	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = srcVal
		}
	}

	return dst
}
