package store

import (
	"strings"
	"sync/atomic"

	"github.com/grovetools/agentwatch/pkg/models"
)

// ActiveFile is the registry of the file observers currently have open.
// Path and content are always replaced together through a single pointer
// swap, so readers never see a path paired with another file's content.
// Conditional updates are compare-and-swap loops: the last writer wins.
type ActiveFile struct {
	current atomic.Pointer[models.ActiveFile]
}

// NewActiveFile creates an empty registry.
func NewActiveFile() *ActiveFile {
	a := &ActiveFile{}
	a.current.Store(&models.ActiveFile{})
	return a
}

// Get returns the current value.
func (a *ActiveFile) Get() models.ActiveFile {
	return *a.current.Load()
}

// Path returns the active path, or "" when no file is open.
func (a *ActiveFile) Path() string {
	return a.current.Load().Path
}

// Set opens path with the given content.
func (a *ActiveFile) Set(path, content string) {
	a.current.Store(&models.ActiveFile{Path: path, Content: content})
}

// Clear closes the active file.
func (a *ActiveFile) Clear() {
	a.current.Store(&models.ActiveFile{})
}

// UpdateContent replaces the content if path is still the active file.
func (a *ActiveFile) UpdateContent(path, content string) bool {
	return a.update(func(cur models.ActiveFile) (models.ActiveFile, bool) {
		if path == "" || cur.Path != path {
			return cur, false
		}
		return models.ActiveFile{Path: path, Content: content}, true
	})
}

// Rename moves the active path from src to dest, leaving content untouched.
func (a *ActiveFile) Rename(src, dest string) bool {
	return a.update(func(cur models.ActiveFile) (models.ActiveFile, bool) {
		if src == "" || cur.Path != src {
			return cur, false
		}
		return models.ActiveFile{Path: dest, Content: cur.Content}, true
	})
}

// Relocate is Rename extended to directories: an active file anywhere
// below src follows it to dest.
func (a *ActiveFile) Relocate(src, dest string) bool {
	return a.update(func(cur models.ActiveFile) (models.ActiveFile, bool) {
		switch {
		case src == "" || cur.Path == "":
			return cur, false
		case cur.Path == src:
			return models.ActiveFile{Path: dest, Content: cur.Content}, true
		case strings.HasPrefix(cur.Path, src+"/"):
			return models.ActiveFile{Path: dest + strings.TrimPrefix(cur.Path, src), Content: cur.Content}, true
		}
		return cur, false
	})
}

// ClearIf closes the active file when match reports true for its path.
func (a *ActiveFile) ClearIf(match func(path string) bool) bool {
	return a.update(func(cur models.ActiveFile) (models.ActiveFile, bool) {
		if cur.Path == "" || !match(cur.Path) {
			return cur, false
		}
		return models.ActiveFile{}, true
	})
}

func (a *ActiveFile) update(fn func(models.ActiveFile) (models.ActiveFile, bool)) bool {
	for {
		old := a.current.Load()
		next, changed := fn(*old)
		if !changed {
			return false
		}
		if a.current.CompareAndSwap(old, &next) {
			return true
		}
	}
}
