package arbor

import (
	"io"
	"log/slog"
	"time"
)

// debugStats holds per-reconciliation timing and element counts.
// Only logged when debug mode is on.
type debugStats struct {
	trigger  string
	elapsed  time.Duration
	visible  int
	rendered int
	nodes    Changes
	edges    Changes
}

// SetDebugMode enables or disables per-reconciliation stats and tree shape
// warnings, logged at Debug and Warn level.
func (m *MindMap) SetDebugMode(enabled bool) {
	m.debug = enabled
	if enabled {
		debugCheckTree(m.log, m.tree)
	}
}

// debugLog logs reconciliation stats.
func (m *MindMap) debugLog(stats debugStats) {
	if !m.debug {
		return
	}
	m.log.Debug("reconcile",
		"trigger", stats.trigger,
		"elapsed", stats.elapsed,
		"visible", stats.visible,
		"rendered", stats.rendered)
	m.log.Debug("reconcile elements",
		"node_enter", len(stats.nodes.Enter),
		"node_update", len(stats.nodes.Update),
		"node_exit", len(stats.nodes.Exit),
		"edge_enter", len(stats.edges.Enter),
		"edge_update", len(stats.edges.Update),
		"edge_exit", len(stats.edges.Exit))
}

// Tree shape thresholds past which the layout gets hard to read.
const (
	debugMaxTreeDepth  = 32
	debugMaxChildCount = 1000
)

// debugCheckTree warns about trees deeper or wider than the thresholds.
func debugCheckTree(log *slog.Logger, t *Tree) {
	t.Walk(func(n *TreeNode) {
		if n.Depth == debugMaxTreeDepth+1 {
			log.Warn("tree depth exceeds threshold", "node", n.Name, "depth", n.Depth, "threshold", debugMaxTreeDepth)
		}
		if len(n.children) > debugMaxChildCount {
			log.Warn("node child count exceeds threshold", "node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
		}
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
