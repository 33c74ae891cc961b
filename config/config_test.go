package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/agentwatch/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentwatch.yml")
	writeFile(t, path, `
version: "1.0"
server:
  addr: "127.0.0.1:6000"
workspace:
  root: ws
  ignore: ["*.tmp"]
agent:
  command: ["bot", "--quiet"]
  input: arg
history:
  max_messages: 50
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(dir, "ws"), cfg.Workspace.Root)
	assert.Equal(t, []string{"*.tmp"}, cfg.Workspace.Ignore)
	assert.Equal(t, AgentKindCommand, cfg.Agent.Kind)
	assert.Equal(t, InputArg, cfg.Agent.Input)
	assert.Equal(t, 50, cfg.History.MaxMessages)
	assert.Equal(t, DefaultDebounceMs, cfg.Workspace.DebounceMs)
	assert.Equal(t, path, cfg.Source())

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentwatch.toml")
	writeFile(t, path, `
version = "1.0"

[workspace]
root = "/srv/ws"
debounce_ms = 250

[agent]
kind = "echo"

[logging]
level = "warn"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/ws", cfg.Workspace.Root)
	assert.Equal(t, 250, cfg.Workspace.DebounceMs)
	assert.Equal(t, AgentKindEcho, cfg.Agent.Kind)

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "warn", logCfg.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "agentwatch.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadFromDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGENTWATCH_HOME", t.TempDir())

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, filepath.Join(dir, DefaultWorkspace), cfg.Workspace.Root)
	assert.Equal(t, AgentKindEcho, cfg.Agent.Kind)
	assert.Equal(t, "agent", cfg.Agent.Name)
	assert.Empty(t, cfg.Source())
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	t.Setenv("AGENTWATCH_HOME", t.TempDir())
	path := filepath.Join(root, "agentwatch.yaml")
	writeFile(t, path, "version: \"1.0\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestFindConfigFileFallsBackToConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AGENTWATCH_HOME", home)
	global := filepath.Join(home, "config", "agentwatch", "agentwatch.yml")
	writeFile(t, global, "version: \"1.0\"\n")

	found, err := FindConfigFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, global, found)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("AGENTWATCH_TEST_ROOT", "/data/ws")

	assert.Equal(t, "root: /data/ws", expandEnvVars("root: ${AGENTWATCH_TEST_ROOT}"))
	assert.Equal(t, "root: ${AGENTWATCH_TEST_UNSET_VAR}", expandEnvVars("root: ${AGENTWATCH_TEST_UNSET_VAR}"))
}

func TestLoadFromBytesSchemaError(t *testing.T) {
	_, err := LoadFromBytes([]byte("agent:\n  kind: robot\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
	assert.Contains(t, err.Error(), "/agent/kind")
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"debounce_ms"`)
	assert.Contains(t, string(data), `"allowed_origins"`)
	assert.NotContains(t, string(data), `"Extensions"`)
}
