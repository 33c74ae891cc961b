package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/grovetools/agentwatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T, files map[string]string, ignore ...string) (*Workspace, *store.ActiveFile, *testutil.Recorder) {
	t.Helper()
	root := testutil.NewWorkspace(t, files)
	active := store.NewActiveFile()
	rec := testutil.NewRecorder()
	ws, err := New(root, active, rec, ignore, nil)
	require.NoError(t, err)
	return ws, active, rec
}

func TestClean(t *testing.T) {
	ws, _, _ := newWorkspace(t, nil)

	tests := []struct {
		in      string
		want    string
		wantErr errors.ErrorCode
	}{
		{in: "notes.md", want: "notes.md"},
		{in: "a/./b/../c.txt", want: "a/c.txt"},
		{in: "/abs/inside.txt", want: "abs/inside.txt"},
		{in: ".", want: ""},
		{in: "../outside.txt", wantErr: errors.ErrCodePathOutsideWorkspace},
		{in: "a/../../outside.txt", wantErr: errors.ErrCodePathOutsideWorkspace},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ws.Clean(tt.in)
			if tt.wantErr != "" {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRejectsRoot(t *testing.T) {
	ws, _, _ := newWorkspace(t, nil)
	_, _, err := ws.Resolve("")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, _, err = ws.Resolve("a/..")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestTree(t *testing.T) {
	ws, _, _ := newWorkspace(t, map[string]string{
		"b.txt":           "bb",
		"a.txt":           "a",
		"src/main.go":     "package main",
		"empty/":          "",
		".git/config":     "x",
		"build/out.bin":   "x",
		"src/cache.tmp":   "x",
		"src/.hidden.txt": "x",
	}, "build", "**/*.tmp")

	tree, err := ws.Tree()
	require.NoError(t, err)

	require.Len(t, tree, 4)
	assert.Equal(t, models.FileNode{Name: "empty", Type: models.NodeTypeDirectory, Path: "empty", Children: []models.FileNode{}}, tree[0])
	assert.Equal(t, "src", tree[1].Name)
	assert.Equal(t, []models.FileNode{{Name: "main.go", Type: models.NodeTypeFile, Path: "src/main.go", Size: 12}}, tree[1].Children)
	assert.Equal(t, models.FileNode{Name: "a.txt", Type: models.NodeTypeFile, Path: "a.txt", Size: 1}, tree[2])
	assert.Equal(t, "b.txt", tree[3].Name)
}

func TestOpenSetsActiveFile(t *testing.T) {
	ws, active, _ := newWorkspace(t, map[string]string{"docs/readme.md": "hello"})

	file, err := ws.Open("docs//readme.md")
	require.NoError(t, err)
	assert.Equal(t, models.ActiveFile{Path: "docs/readme.md", Content: "hello"}, file)
	assert.Equal(t, file, active.Get())

	_, err = ws.Open("docs")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
	_, err = ws.Open("missing.md")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestSaveActiveFile(t *testing.T) {
	ws, active, rec := newWorkspace(t, map[string]string{"a.txt": "old"})
	_, err := ws.Open("a.txt")
	require.NoError(t, err)

	require.NoError(t, ws.Save("a.txt", "new"))

	assert.Equal(t, models.ActiveFile{Path: "a.txt", Content: "new"}, active.Get())
	assert.Equal(t, []models.Event{models.FileUpdateEvent("a.txt", "new")}, rec.Events())
	data, err := os.ReadFile(filepath.Join(ws.Root(), "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSaveOtherFileCreatesParents(t *testing.T) {
	ws, active, rec := newWorkspace(t, map[string]string{"a.txt": "a"})
	_, err := ws.Open("a.txt")
	require.NoError(t, err)

	require.NoError(t, ws.Save("deep/dir/b.txt", "b"))

	assert.Equal(t, "a", active.Get().Content)
	assert.Len(t, rec.Events(), 1)
	assert.FileExists(t, filepath.Join(ws.Root(), "deep", "dir", "b.txt"))
}

func TestRename(t *testing.T) {
	ws, active, _ := newWorkspace(t, map[string]string{"dir/a.txt": "a", "dir/taken.txt": "t"})
	_, err := ws.Open("dir/a.txt")
	require.NoError(t, err)

	_, err = ws.Rename("dir/a.txt", "taken.txt")
	assert.True(t, errors.Is(err, errors.ErrCodeFileExists))
	_, err = ws.Rename("dir/a.txt", "sub/b.txt")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, err = ws.Rename("dir/missing.txt", "x.txt")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	newPath, err := ws.Rename("dir/a.txt", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "dir/b.txt", newPath)
	assert.Equal(t, models.ActiveFile{Path: "dir/b.txt", Content: "a"}, active.Get())
}

func TestCreate(t *testing.T) {
	ws, _, _ := newWorkspace(t, map[string]string{"a.txt": "a"})

	_, err := ws.CreateFile("a.txt", "")
	assert.True(t, errors.Is(err, errors.ErrCodeFileExists))

	created, err := ws.CreateFile("new/b.txt", "b")
	require.NoError(t, err)
	assert.Equal(t, "new/b.txt", created)

	_, err = ws.CreateDir("new")
	assert.True(t, errors.Is(err, errors.ErrCodeFileExists))
	dir, err := ws.CreateDir("x/y")
	require.NoError(t, err)
	assert.Equal(t, "x/y", dir)
	assert.DirExists(t, filepath.Join(ws.Root(), "x", "y"))
}

func TestDeleteDirectoryClearsActive(t *testing.T) {
	ws, active, _ := newWorkspace(t, map[string]string{"dir/sub/a.txt": "a", "dir2/b.txt": "b"})
	_, err := ws.Open("dir/sub/a.txt")
	require.NoError(t, err)

	require.NoError(t, ws.Delete("dir2"))
	assert.True(t, active.Get().IsSet())

	require.NoError(t, ws.Delete("dir"))
	assert.Equal(t, models.ActiveFile{}, active.Get())
	assert.NoDirExists(t, filepath.Join(ws.Root(), "dir"))

	assert.True(t, errors.Is(ws.Delete("dir"), errors.ErrCodeFileNotFound))
}

func TestDeleteFileClearsActive(t *testing.T) {
	ws, active, _ := newWorkspace(t, map[string]string{"a.txt": "a", "ab.txt": "b"})
	_, err := ws.Open("a.txt")
	require.NoError(t, err)

	require.NoError(t, ws.Delete("ab.txt"))
	assert.Equal(t, "a.txt", active.Path())
	require.NoError(t, ws.Delete("a.txt"))
	assert.False(t, active.Get().IsSet())
}

func TestMove(t *testing.T) {
	ws, active, _ := newWorkspace(t, map[string]string{"a.txt": "a", "dest/": "", "other.txt": "o"})
	_, err := ws.Open("a.txt")
	require.NoError(t, err)

	_, err = ws.Move("a.txt", "other.txt")
	assert.True(t, errors.Is(err, errors.ErrCodeFileExists))

	moved, err := ws.Move("a.txt", "dest")
	require.NoError(t, err)
	assert.Equal(t, "dest/a.txt", moved)
	assert.Equal(t, "dest/a.txt", active.Path())

	moved, err = ws.Move("dest", "archive/2024")
	require.NoError(t, err)
	assert.Equal(t, "archive/2024", moved)
	assert.Equal(t, "archive/2024/a.txt", active.Path())
	assert.FileExists(t, filepath.Join(ws.Root(), "archive", "2024", "a.txt"))

	_, err = ws.Move("archive", "archive/inner")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestIgnored(t *testing.T) {
	ws, _, _ := newWorkspace(t, nil, "node_modules", "*.log")
	assert.True(t, ws.Ignored("node_modules"))
	assert.True(t, ws.Ignored("node_modules/pkg/index.js"))
	assert.True(t, ws.Ignored("debug.log"))
	assert.False(t, ws.Ignored("src/debug.log"))
	assert.False(t, ws.Ignored("src/main.go"))
	assert.False(t, ws.Ignored(""))
}
