// Package templgen compiles .templ views into their committed _templ.go
// companions and reports companions that have drifted from their source.
package templgen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a-h/templ/generator"
	"github.com/a-h/templ/parser/v2"
)

var ErrNoSources = errors.New("no templ files found")

// ErrStale is wrapped by Run in check mode when a generated file differs
// from what its source would produce.
var ErrStale = errors.New("generated file out of date")

type Config struct {
	Files []string
	Paths []string
	// BasePath is the root that file names in templ.Error values are
	// reported relative to, normally the module root.
	BasePath string
	// Check compares instead of writing.
	Check bool
}

// Result lists the generated files Run wrote, or in check mode the ones
// that were stale.
type Result struct {
	Written []string
	Stale   []string
}

func Run(cfg Config) (Result, error) {
	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath == "" {
		basePath = "."
	}

	sources, err := collectFiles(cfg.Files, cfg.Paths)
	if err != nil {
		return Result{}, err
	}
	if len(sources) == 0 {
		return Result{}, ErrNoSources
	}

	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return Result{}, fmt.Errorf("resolve base path %q: %w", basePath, err)
	}

	var result Result
	for _, source := range sources {
		generated, err := generateFile(source, baseAbs)
		if err != nil {
			return result, err
		}

		target := TargetName(source)
		if cfg.Check {
			current, readErr := os.ReadFile(target)
			if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
				return result, fmt.Errorf("read %q: %w", target, readErr)
			}
			if !bytes.Equal(current, generated) {
				result.Stale = append(result.Stale, target)
			}
			continue
		}

		if err := os.WriteFile(target, generated, 0o644); err != nil {
			return result, fmt.Errorf("write %q: %w", target, err)
		}
		result.Written = append(result.Written, target)
	}

	if len(result.Stale) > 0 {
		return result, fmt.Errorf("%w: %s", ErrStale, strings.Join(result.Stale, ", "))
	}
	return result, nil
}

// TargetName maps views/home.templ to views/home_templ.go.
func TargetName(source string) string {
	return strings.TrimSuffix(source, ".templ") + "_templ.go"
}

func collectFiles(files []string, paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	all := make([]string, 0, len(files)+8)

	add := func(fileName string) error {
		absPath, err := filepath.Abs(fileName)
		if err != nil {
			return fmt.Errorf("resolve file %q: %w", fileName, err)
		}
		if _, ok := seen[absPath]; ok {
			return nil
		}
		seen[absPath] = struct{}{}
		all = append(all, absPath)
		return nil
	}

	for _, fileName := range files {
		if filepath.Ext(fileName) != ".templ" {
			return nil, fmt.Errorf("file %q must have .templ extension", fileName)
		}
		if err := add(fileName); err != nil {
			return nil, err
		}
	}

	for _, root := range paths {
		walkErr := filepath.WalkDir(root, func(filePath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				if filePath != root && strings.HasPrefix(entry.Name(), "_") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(filePath) != ".templ" {
				return nil
			}
			return add(filePath)
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk path %q: %w", root, walkErr)
		}
	}

	sort.Strings(all)
	return all, nil
}

func generateFile(fileName string, baseAbs string) ([]byte, error) {
	t, err := parser.Parse(fileName)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", fileName, err)
	}

	relFileName, err := filepath.Rel(baseAbs, fileName)
	if err != nil {
		return nil, fmt.Errorf("compute relative filename for %q: %w", fileName, err)
	}

	var output bytes.Buffer
	if _, err := generator.Generate(t, &output, generator.WithFileName(filepath.ToSlash(relFileName))); err != nil {
		return nil, fmt.Errorf("generate %q: %w", fileName, err)
	}

	formatted, err := format.Source(output.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated output for %q: %w", fileName, err)
	}
	return formatted, nil
}
