package collector

import (
	"context"

	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/internal/daemon/watcher"
	"github.com/grovetools/agentwatch/internal/daemon/workspace"
	"github.com/grovetools/agentwatch/pkg/models"
)

// WorkspaceCollector runs the filesystem watcher over the workspace.
type WorkspaceCollector struct {
	ws     *workspace.Workspace
	active *store.ActiveFile
	opts   []watcher.Option
}

// NewWorkspaceCollector creates a collector for ws.
func NewWorkspaceCollector(ws *workspace.Workspace, active *store.ActiveFile, opts ...watcher.Option) *WorkspaceCollector {
	return &WorkspaceCollector{ws: ws, active: active, opts: opts}
}

// Name returns the collector's name.
func (c *WorkspaceCollector) Name() string { return "workspace" }

// Run watches the workspace until ctx is canceled.
func (c *WorkspaceCollector) Run(ctx context.Context, updates chan<- models.Event) error {
	if err := c.ws.EnsureRoot(); err != nil {
		return err
	}
	w := watcher.New(c.ws, c.active, ChannelPublisher(ctx, updates), c.opts...)
	return w.Run(ctx)
}
