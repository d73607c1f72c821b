package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"portfolio/framework/templgen"
)

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return errors.New("value cannot be empty")
	}
	*m = append(*m, trimmed)
	return nil
}

func main() {
	var files multiFlag
	var paths multiFlag
	var basePath string
	var check bool

	flag.Var(&files, "file", "templ file to compile (repeatable)")
	flag.Var(&paths, "path", "directory to scan for .templ files (repeatable)")
	flag.StringVar(&basePath, "base", ".", "base path for relative filenames embedded in generated output")
	flag.BoolVar(&check, "check", false, "fail if any committed _templ.go file differs from its source")
	flag.Parse()

	result, err := templgen.Run(templgen.Config{
		Files:    files,
		Paths:    paths,
		BasePath: basePath,
		Check:    check,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "templgen: %v\n", err)
		if errors.Is(err, templgen.ErrStale) {
			_, _ = fmt.Fprintln(os.Stderr, "templgen: run go generate ./internal/web/components")
		}
		os.Exit(1)
	}
	for _, written := range result.Written {
		_, _ = fmt.Fprintln(os.Stdout, written)
	}
}
