package mtag

import (
	"fmt"
	"os"
	"time"

	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/internal/osinfo"
	"github.com/mtagkit/mtagkit/mtag/emit"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

// Format selects a stats rendering.
type Format int

const (
	// FormatJSON renders the nested stats document.
	FormatJSON Format = iota
	// FormatGraphvizDot renders a Graphviz digraph of the forest.
	FormatGraphvizDot
	// FormatHumanTree renders an indented text tree.
	FormatHumanTree
)

// Ext returns the conventional file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatGraphvizDot:
		return "dot"
	case FormatHumanTree:
		return "txt"
	default:
		return "out"
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatGraphvizDot:
		return "graphviz-dot"
	case FormatHumanTree:
		return "human-tree"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// CollectStatsMap flattens the forest into counter pairs keyed by
// "tid<TID>:<scope path>.<metric>", plus the process-level ".nTrees". Stats
// collection itself is not attributed to any scope.
func CollectStatsMap() map[string]uint64 {
	reg := currentRegistry()
	if reg == nil {
		return map[string]uint64{}
	}
	tok := DisableHooks()
	defer tok.Restore()
	return emit.StatsMap(reg)
}

// CollectStats renders the whole forest in the given format.
func CollectStats(f Format) (string, error) {
	reg := currentRegistry()
	if reg == nil {
		return "", ErrNotInitialized
	}
	tok := DisableHooks()
	defer tok.Restore()
	return collectLocked(reg, f)
}

func collectLocked(reg *tree.Registry, f Format) (string, error) {
	meta := emit.Meta{
		PID:             osinfo.PID(),
		StartTime:       reg.StartTime(),
		Now:             time.Now(),
		BytesBeforeInit: eng.bytesBeforeInit.Load(),
		SelfUsage:       reg.SelfUsage(),
	}
	meta.VMSizeNow, meta.VMRSSNow, _ = osinfo.VMStats()
	meta.TotalTracked, _ = reg.CollectAllocatedFreedAll()

	switch f {
	case FormatJSON:
		return emit.JSON(reg, meta)
	case FormatGraphvizDot:
		return emit.DOT(reg, meta)
	case FormatHumanTree:
		return emit.Human(reg, meta)
	default:
		return "", fmt.Errorf("mtag: unknown stats format %d", int(f))
	}
}

// WriteStats renders the forest and writes it to path. An empty path falls
// back to the format's environment-configured default file
// (MTAG_STATS_OUTPUT_JSON or MTAG_STATS_OUTPUT_GRAPHVIZ_DOT); the human
// format has no default and requires an explicit path.
func WriteStats(f Format, path string) error {
	if currentRegistry() == nil {
		return ErrNotInitialized
	}
	tok := DisableHooks()
	defer tok.Restore()
	return writeStatsLocked(f, path)
}

func writeStatsLocked(f Format, path string) error {
	reg := eng.registry
	if path == "" {
		switch f {
		case FormatJSON:
			path = eng.cfg.StatsOutputJSONPath
		case FormatGraphvizDot:
			path = eng.cfg.StatsOutputDOTPath
		}
		if path == "" {
			return fmt.Errorf("mtag: no output path for %s stats", f)
		}
	}
	doc, err := collectLocked(reg, f)
	if err != nil {
		return fmt.Errorf("mtag: rendering %s stats: %w", f, err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("mtag: writing %s stats: %w", f, err)
	}
	eng.logger.Debug("wrote stats", "format", f.String(), "path", path, "bytes", len(doc))
	return nil
}

// VisitTrees drives v over every registered tree with totals and weights
// freshly computed. Attribution is suspended for the duration of the walk.
// A no-op when the profiler is not running.
func VisitTrees(v tree.Visitor) {
	reg := currentRegistry()
	if reg == nil {
		return
	}
	tok := DisableHooks()
	defer tok.Restore()
	reg.Collect(v)
}

// ProfilerSelfUsage reports the memory footprint of the profiler's own
// bookkeeping across all trees.
func ProfilerSelfUsage() uint64 {
	reg := currentRegistry()
	if reg == nil {
		return 0
	}
	return reg.SelfUsage()
}

// StatKeyPrefixForThread returns the "tid<TID>:" prefix that keys the given
// thread's entries in CollectStatsMap. A tid of zero means the calling
// thread.
func StatKeyPrefixForThread(tid int) string {
	if tid == 0 {
		tid = osinfo.Gettid()
	}
	return format.ThreadKeyPrefix(tid) + format.TreeMetaSep
}

// GetLimit reports a structural limit of the profiler by name:
// "max_trees", "max_tree_nodes", "max_tree_levels" or "max_node_siblings".
// Unknown names report zero.
func GetLimit(name string) uint32 {
	switch name {
	case "max_trees":
		return tree.MaxTrees
	case "max_tree_nodes":
		if eng.initialized.Load() {
			return eng.cfg.MaxTreeNodes
		}
		return DefaultConfig().MaxTreeNodes
	case "max_tree_levels":
		if eng.initialized.Load() {
			return eng.cfg.MaxTreeLevels
		}
		return DefaultConfig().MaxTreeLevels
	case "max_node_siblings":
		return tree.MaxChildren
	default:
		return 0
	}
}
