package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/golang"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestEnumerateSkipsHiddenDirsAndKeepsKnownExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "not go\n")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, root, "vendor/dep/dep.go", "package dep\n")

	reg := lang.NewRegistry(golang.New())
	scan, err := Enumerate(root, reg, FileConfig{SkipDirs: []string{"vendor"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go"}, scan.Files)
}

func TestEnumerateHonorsOnlyIncludeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/main.go", "package a\n")
	writeFile(t, root, "b/other.go", "package b\n")

	reg := lang.NewRegistry(golang.New())
	scan, err := Enumerate(root, reg, FileConfig{OnlyIncludeFiles: []string{"a/"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a/main.go"}, scan.Files)
}

func TestEnumerateKeepsKnownPackageFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/x\n\ngo 1.23\n")

	reg := lang.NewRegistry(golang.New())
	scan, err := Enumerate(root, reg, FileConfig{})
	require.NoError(t, err)

	assert.Contains(t, scan.Files, "go.mod")
}

func TestReaderReadsFileContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")

	r := NewReader(root)
	content, err := r.Read(context.Background(), "main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(content))
}

func TestReaderReturnsEmptyBodyForOversizedFile(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, MaxFileSize+1)
	writeFile(t, root, "big.go", string(big))

	r := NewReader(root)
	content, err := r.Read(context.Background(), "big.go")
	require.NoError(t, err)
	assert.Nil(t, content)
}

func TestLoadFileConfigMissingIsNotError(t *testing.T) {
	root := t.TempDir()
	cfg, err := LoadFileConfig(root)
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)
}

func TestLoadFileConfigParsesJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".ast.json", `{"skip_dirs": ["node_modules"], "skip_file_ends": ["_test.go"]}`)
	cfg, err := LoadFileConfig(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules"}, cfg.SkipDirs)
	assert.Equal(t, []string{"_test.go"}, cfg.SkipFileEnds)
}
