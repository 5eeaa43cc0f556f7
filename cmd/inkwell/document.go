package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/inkwell/internal/engine"
)

// formatOf picks the document format: the flag when set, otherwise the
// file extension, otherwise def.
func formatOf(flag, path string, def engine.Format) (engine.Format, error) {
	if flag != "" {
		return engine.ParseFormat(flag)
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		if f, err := engine.ParseFormat(strings.ToLower(ext)); err == nil {
			return f, nil
		}
	}
	return def, nil
}

// extension returns the file extension written for format.
func extension(f engine.Format) string {
	if f == engine.FormatHTML {
		return ".html"
	}
	return ".md"
}

// readDocument reads path, or stdin when path is "" or "-".
func readDocument(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeDocument writes content to path, or to stdout when path is "" or
// "-". A trailing newline is added when missing.
func writeDocument(stdout io.Writer, path, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// openEditor loads content in format with the configured engine options.
func (a *app) openEditor(format engine.Format, content string, extra ...engine.Option) (*engine.Editor, error) {
	opts := a.cfg.EngineOptions(a.logger)
	switch format {
	case engine.FormatHTML:
		opts = append(opts, engine.WithHTML(content))
	default:
		opts = append(opts, engine.WithMarkdown(content))
	}
	return engine.New(append(opts, extra...)...)
}

// convert parses content in from and serializes it in to.
func (a *app) convert(from, to engine.Format, content string) (string, error) {
	ed, err := a.openEditor(from, content, engine.WithReadOnly())
	if err != nil {
		return "", err
	}
	defer ed.Close()
	return ed.Export(to)
}
