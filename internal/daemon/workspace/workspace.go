// Package workspace implements the file operations observers perform on the
// agent's workspace. Every path is workspace-relative and slash-separated,
// and is kept consistent with the active file registry.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// Workspace is a directory tree rooted at Root.
type Workspace struct {
	root    string
	active  *store.ActiveFile
	pub     bus.Publisher
	matcher *patternmatcher.PatternMatcher
	logger  *logrus.Entry
}

// New creates a workspace. ignore holds .dockerignore-style patterns that
// are hidden from the tree and from the watcher.
func New(root string, active *store.ActiveFile, pub bus.Publisher, ignore []string, logger *logrus.Entry) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid workspace root")
	}
	matcher, err := patternmatcher.New(ignore)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ignore pattern")
	}
	if pub == nil {
		pub = bus.Discard
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Workspace{root: abs, active: active, pub: pub, matcher: matcher, logger: logger}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// EnsureRoot creates the root directory if needed.
func (w *Workspace) EnsureRoot() error {
	return os.MkdirAll(w.root, 0755)
}

// Clean normalizes rel to the canonical workspace-relative form. The root
// itself is "".
func (w *Workspace) Clean(rel string) (string, error) {
	joined := filepath.Join(w.root, filepath.FromSlash(rel))
	r, err := filepath.Rel(w.root, joined)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", errors.PathOutsideWorkspace(rel)
	}
	if r == "." {
		return "", nil
	}
	return filepath.ToSlash(r), nil
}

// Resolve returns the absolute path of rel, rejecting paths that escape the
// root and paths that name the root itself.
func (w *Workspace) Resolve(rel string) (string, string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", "", errors.InvalidInput("path is required")
	}
	clean, err := w.Clean(rel)
	if err != nil {
		return "", "", err
	}
	if clean == "" {
		return "", "", errors.InvalidInput("path must not be the workspace root")
	}
	return filepath.Join(w.root, filepath.FromSlash(clean)), clean, nil
}

// Rel converts an absolute path under the root to its workspace-relative
// form. Paths that cannot be made relative are returned unchanged.
func (w *Workspace) Rel(abs string) string {
	r, err := filepath.Rel(w.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(r)
}

// Ignored reports whether a workspace-relative path matches an ignore
// pattern or lies inside an ignored directory.
func (w *Workspace) Ignored(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	ignored, err := w.matcher.MatchesOrParentMatches(filepath.FromSlash(rel))
	if err != nil {
		w.logger.WithError(err).WithField("path", rel).Debug("Ignore pattern match failed")
		return false
	}
	return ignored
}

// ReadFile returns the content of a workspace file.
func (w *Workspace) ReadFile(rel string) (string, error) {
	abs, _, err := w.Resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileNotFound(rel)
		}
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to read file").WithDetail("path", rel)
	}
	return string(data), nil
}

// Tree lists the workspace recursively: directories first, then files,
// each group by name. Hidden and ignored entries are skipped.
func (w *Workspace) Tree() ([]models.FileNode, error) {
	nodes, err := w.list(w.root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list workspace")
	}
	return nodes, nil
}

func (w *Workspace) list(dir string) ([]models.FileNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.FileNode, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		abs := filepath.Join(dir, entry.Name())
		rel := w.Rel(abs)
		if w.Ignored(rel) {
			continue
		}

		if entry.IsDir() {
			children, err := w.list(abs)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, models.FileNode{
				Name:     entry.Name(),
				Type:     models.NodeTypeDirectory,
				Path:     rel,
				Children: children,
			})
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		nodes = append(nodes, models.FileNode{
			Name: entry.Name(),
			Type: models.NodeTypeFile,
			Path: rel,
			Size: info.Size(),
		})
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == models.NodeTypeDirectory
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes, nil
}
