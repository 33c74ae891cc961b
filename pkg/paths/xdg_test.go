package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortableHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AGENTWATCH_HOME", home)

	assert.Equal(t, filepath.Join(home, "config", "agentwatch"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "state", "agentwatch"), StateDir())
	assert.Equal(t, filepath.Join(home, "state", "agentwatch", "logs"), LogDir())
	assert.Equal(t, filepath.Join(home, "state", "agentwatch", "agentwatch.pid"), PidFilePath())
	assert.NoError(t, EnsureDirs())
	assert.DirExists(t, LogDir())
}

func TestXDGOverrides(t *testing.T) {
	t.Setenv("AGENTWATCH_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	assert.Equal(t, "/xdg/config/agentwatch", ConfigDir())
	assert.Equal(t, "/xdg/state/agentwatch/agentwatch.addr", AddrFilePath())
}
