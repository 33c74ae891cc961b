// Package watcher reports filesystem changes under the workspace to
// observers and keeps the active file in step with them.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/internal/daemon/workspace"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// Defaults for the timing options.
const (
	DefaultDebounce   = 500 * time.Millisecond
	DefaultMoveWindow = 100 * time.Millisecond
)

// Notification is one filesystem change, with absolute paths.
type Notification struct {
	Type     models.ChangeType
	Path     string
	DestPath string
	IsDir    bool
}

// Watcher turns notifications into observer events. Repeated notifications
// for the same path inside the debounce interval are discarded.
type Watcher struct {
	ws     *workspace.Workspace
	active *store.ActiveFile
	pub    bus.Publisher
	logger *logrus.Entry

	debounce   time.Duration
	moveWindow time.Duration
	now        func() time.Time

	// last maps a path to the *atomic.Int64 unix-nano time it was last processed.
	last sync.Map

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	dirs    map[string]struct{}
	renames []*pendingRename
}

type pendingRename struct {
	path  string
	isDir bool
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the per-path debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithMoveWindow sets how long a rename waits for the create that
// completes it before it is reported as a delete.
func WithMoveWindow(d time.Duration) Option {
	return func(w *Watcher) { w.moveWindow = d }
}

// WithClock replaces time.Now for debouncing.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// WithLogger sets the watcher's logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New creates a watcher for ws.
func New(ws *workspace.Workspace, active *store.ActiveFile, pub bus.Publisher, opts ...Option) *Watcher {
	w := &Watcher{
		ws:         ws,
		active:     active,
		pub:        pub,
		logger:     logrus.NewEntry(logrus.StandardLogger()),
		debounce:   DefaultDebounce,
		moveWindow: DefaultMoveWindow,
		now:        time.Now,
		dirs:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle processes one notification.
func (w *Watcher) Handle(n Notification) {
	rel := w.ws.Rel(n.Path)
	if w.ws.Ignored(rel) {
		return
	}
	if n.Type == models.ChangeModified && n.IsDir {
		return
	}
	if !w.allow(n.Path) {
		w.logger.WithField("path", rel).Debug("Debounced notification")
		return
	}

	switch n.Type {
	case models.ChangeCreated, models.ChangeDeleted:
		w.logger.WithFields(logrus.Fields{"type": n.Type, "path": rel, "dir": n.IsDir}).Info("Workspace change")
		w.pub.Publish(models.WorkspaceChangeEvent(models.WorkspaceChangePayload{
			Type:        n.Type,
			IsDirectory: n.IsDir,
			Path:        rel,
		}))

	case models.ChangeModified:
		if rel == w.active.Path() {
			w.refresh(n.Path, rel)
			return
		}
		w.pub.Publish(models.WorkspaceChangeEvent(models.WorkspaceChangePayload{
			Type: models.ChangeModified,
			Path: rel,
		}))

	case models.ChangeMoved:
		dest := w.ws.Rel(n.DestPath)
		w.logger.WithFields(logrus.Fields{"path": rel, "dest": dest, "dir": n.IsDir}).Info("Workspace move")
		w.pub.Publish(models.WorkspaceChangeEvent(models.WorkspaceChangePayload{
			Type:        models.ChangeMoved,
			IsDirectory: n.IsDir,
			Path:        rel,
			DestPath:    dest,
		}))
		w.active.Rename(rel, dest)
	}
}

func (w *Watcher) refresh(abs, rel string) {
	data, err := os.ReadFile(abs)
	if err != nil {
		w.logger.WithError(err).WithField("path", rel).Error("Failed to read updated file")
		return
	}
	content := string(data)
	if w.active.UpdateContent(rel, content) {
		w.pub.Publish(models.FileUpdateEvent(rel, content))
	}
}

// allow reports whether a notification for key may be processed now, and
// claims the slot when it may.
func (w *Watcher) allow(key string) bool {
	now := w.now().UnixNano()
	v, _ := w.last.LoadOrStore(key, new(atomic.Int64))
	cell := v.(*atomic.Int64)

	prev := cell.Load()
	if prev != 0 && now-prev < int64(w.debounce) {
		return false
	}
	return cell.CompareAndSwap(prev, now)
}

// Run watches the workspace until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		for _, p := range w.renames {
			p.timer.Stop()
		}
		w.renames = nil
		w.fsw = nil
		w.mu.Unlock()
		fsw.Close()
	}()

	if err := w.addRecursive(w.ws.Root()); err != nil {
		return err
	}
	w.logger.WithField("root", w.ws.Root()).Info("Watching workspace")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.translate(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

// translate maps a raw fsnotify event to notifications. A rename is held
// back for the move window so the create that follows can complete it.
func (w *Watcher) translate(event fsnotify.Event) {
	path := event.Name
	w.logger.Debugf("fsnotify event: %s op=%v", path, event.Op)

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		isDir := err == nil && info.IsDir()
		src := w.takeRename()
		if src != nil {
			w.forgetDir(src.path)
		}
		if isDir {
			if err := w.addRecursive(path); err != nil {
				w.logger.WithError(err).WithField("path", path).Warn("Failed to watch new directory")
			}
		}
		if src != nil {
			w.Handle(Notification{Type: models.ChangeMoved, Path: src.path, DestPath: path, IsDir: isDir || src.isDir})
			return
		}
		w.Handle(Notification{Type: models.ChangeCreated, Path: path, IsDir: isDir})

	case event.Has(fsnotify.Remove):
		isDir := w.forgetDir(path)
		w.Handle(Notification{Type: models.ChangeDeleted, Path: path, IsDir: isDir})

	case event.Has(fsnotify.Rename):
		w.holdRename(path)

	case event.Has(fsnotify.Write):
		w.Handle(Notification{Type: models.ChangeModified, Path: path})
	}
}

func (w *Watcher) holdRename(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, q := range w.renames {
		if q.path == path {
			return
		}
	}
	_, isDir := w.dirs[path]
	p := &pendingRename{path: path, isDir: isDir}
	p.timer = time.AfterFunc(w.moveWindow, func() {
		if !w.dropRename(p) {
			return
		}
		w.forgetDir(p.path)
		w.Handle(Notification{Type: models.ChangeDeleted, Path: p.path, IsDir: p.isDir})
	})
	w.renames = append(w.renames, p)
}

// takeRename pops the oldest pending rename.
func (w *Watcher) takeRename() *pendingRename {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.renames) == 0 {
		return nil
	}
	p := w.renames[0]
	w.renames = w.renames[1:]
	p.timer.Stop()
	return p
}

// dropRename removes p if it is still pending.
func (w *Watcher) dropRename(p *pendingRename) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, q := range w.renames {
		if q == p {
			w.renames = append(w.renames[:i], w.renames[i+1:]...)
			return true
		}
	}
	return false
}

// addRecursive registers dir and every directory below it that is not ignored.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.ws.Root() && w.ws.Ignored(w.ws.Rel(path)) {
			return filepath.SkipDir
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.dirs[path] = struct{}{}
		if w.fsw != nil {
			if err := w.fsw.Add(path); err != nil {
				w.logger.WithError(err).WithField("path", path).Warn("Failed to watch directory")
			}
		}
		return nil
	})
}

// forgetDir drops path and everything below it from the known directories
// and reports whether path itself was one.
func (w *Watcher) forgetDir(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, known := w.dirs[path]
	prefix := path + string(filepath.Separator)
	for d := range w.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
			if w.fsw != nil {
				_ = w.fsw.Remove(d)
			}
		}
	}
	return known
}
