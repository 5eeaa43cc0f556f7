package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/inkwell/internal/engine"
)

// execute runs the CLI with a quiet config file in a temp directory.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "inkwell.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]\nlevel = \"error\"\n\n[html]\npretty = false\n"), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertStdin(t *testing.T) {
	out, err := execute(t, "# Title\n\n*hi*", "convert")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1><p><em>hi</em></p>\n", out)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.html")
	dst := filepath.Join(dir, "page.md")
	require.NoError(t, os.WriteFile(src, []byte("<p><strong>bold</strong></p>"), 0o644))

	out, err := execute(t, "", "convert", src, "-o", dst)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "**bold**\n", string(data))
}

func TestConvertUnknownFormat(t *testing.T) {
	_, err := execute(t, "x", "convert", "--to", "rtf")
	assert.ErrorIs(t, err, engine.ErrUnknownFormat)
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "title.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
local inkwell = require("inkwell")
inkwell.dispatch("SelectAll")
inkwell.dispatch("SetHeadingLevel", 1)
`), 0o644))

	out, err := execute(t, "Hello", "run", script, "-")
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", out)

	out, err = execute(t, "Hello", "run", script, "-", "--to", "html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>\n", out)
}

func TestRunScriptError(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.lua")
	require.NoError(t, os.WriteFile(script, []byte(`error("boom")`), 0o644))

	_, err := execute(t, "", "run", script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestVersion(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Inkwell dev")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "inkwell.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[markdown]\nbullet = \"#\"\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("x"))
	cmd.SetArgs([]string{"--config", cfgPath, "convert"})
	assert.Error(t, cmd.Execute())
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		flag, path string
		want       engine.Format
	}{
		{"", "a.md", engine.FormatMarkdown},
		{"", "a.HTML", engine.FormatHTML},
		{"", "a.txt", engine.FormatMarkdown},
		{"html", "a.md", engine.FormatHTML},
		{"", "", engine.FormatMarkdown},
	}
	for _, tc := range tests {
		got, err := formatOf(tc.flag, tc.path, engine.FormatMarkdown)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "formatOf(%q, %q)", tc.flag, tc.path)
	}
}

func TestOutputPath(t *testing.T) {
	a := &app{}

	got, err := a.outputPath("/docs/readme.md", "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/docs", "readme.html"), got)

	got, err = a.outputPath("/docs/page.html", "", "/site")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/site", "page.md"), got)

	got, err = a.outputPath("/docs/readme.md", "md", "")
	require.NoError(t, err)
	assert.Equal(t, "/docs/readme.md", got)
}
