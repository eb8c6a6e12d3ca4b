package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphbuild.yaml")
	content := "backend: map\nskip_calls: true\nlsp_servers:\n  - language: go\n    command: gopls\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMap, cfg.Backend)
	assert.True(t, cfg.SkipCalls)
	require.Len(t, cfg.LSPServers, 1)
	assert.Equal(t, "gopls", cfg.LSPServers[0].Command)
}

func TestResolveSkipFlagsEnvOverridesConfig(t *testing.T) {
	cfg := Config{SkipCalls: false, SkipFileContent: false}
	t.Setenv("DEV_SKIP_CALLS", "1")

	flags := cfg.ResolveSkipFlags()
	assert.True(t, flags.SkipCalls)
	assert.False(t, flags.SkipFileContent)
}

func TestResolveSkipFlagsFallsBackToConfig(t *testing.T) {
	os.Unsetenv("DEV_SKIP_CALLS")
	os.Unsetenv("DEV_SKIP_FILE_CONTENT")
	cfg := Config{SkipCalls: true, SkipFileContent: true}

	flags := cfg.ResolveSkipFlags()
	assert.True(t, flags.SkipCalls)
	assert.True(t, flags.SkipFileContent)
}

func TestResolveRemoteFallsBackToEnvironment(t *testing.T) {
	t.Setenv("GRAPHBUILD_NEO4J_URI", "bolt://localhost:7687")
	t.Setenv("GRAPHBUILD_NEO4J_USER", "neo4j")
	t.Setenv("GRAPHBUILD_NEO4J_PASSWORD", "secret")
	t.Setenv("GRAPHBUILD_NEO4J_DATABASE", "neo4j")

	cfg := Config{}
	rc := cfg.ResolveRemote()
	assert.Equal(t, "bolt://localhost:7687", rc.URI)
	assert.Equal(t, "neo4j", rc.Username)
	assert.Equal(t, "secret", rc.Password)
	assert.Equal(t, "neo4j", rc.Database)
}

func TestLSPServerCommandsOverridesDefaultsByLanguage(t *testing.T) {
	cfg := Config{LSPServers: []LSPServer{{Language: "go", Command: "custom-gopls", Args: []string{"-v"}}}}
	commands := cfg.LSPServerCommands()

	var found bool
	for _, c := range commands {
		if c.Language == "go" {
			found = true
			assert.Equal(t, "custom-gopls", c.Command)
			assert.Equal(t, []string{"-v"}, c.Args)
		}
	}
	assert.True(t, found, "expected a go entry in LSPServerCommands")
}
