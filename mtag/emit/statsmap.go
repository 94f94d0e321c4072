package emit

import (
	"strings"

	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

// StatsMap flattens the forest into key -> counter pairs:
//
//	.nTrees
//	tid<TID>:.nTreeNodesInUse  .nMaxTreeNodes  .nPushNodeFailures  .nFreeTrackingFailed
//	tid<TID>:<root>.<child>....nBytesTotalAllocated  (and friends)
func StatsMap(reg *tree.Registry) map[string]uint64 {
	v := &mapVisitor{out: make(map[string]uint64)}
	reg.Collect(v)
	v.out[".nTrees"] = uint64(reg.TreeCount())
	return v.out
}

type mapVisitor struct {
	out  map[string]uint64
	tid  int
	path []string
}

func (v *mapVisitor) EnterTree(t *tree.Tree) {
	v.tid = t.TID()
	v.path = v.path[:0]
	v.out[format.TreeMetaKey(t.TID(), "nTreeNodesInUse")] = uint64(t.NodesInUse())
	v.out[format.TreeMetaKey(t.TID(), "nMaxTreeNodes")] = uint64(t.MaxNodes())
	v.out[format.TreeMetaKey(t.TID(), "nPushNodeFailures")] = t.PushFailures()
	v.out[format.TreeMetaKey(t.TID(), "nFreeTrackingFailed")] = t.FreeTrackingFailures()
}

func (v *mapVisitor) EnterNode(n *tree.Node) bool {
	v.path = append(v.path, n.Name())
	scope := strings.Join(v.path, format.PathSep)

	v.out[format.ScopeKey(v.tid, scope, "nBytesTotalAllocated")] = n.TotalAllocated()
	v.out[format.ScopeKey(v.tid, scope, "nBytesSelfAllocated")] = n.SelfAllocated()
	v.out[format.ScopeKey(v.tid, scope, "nBytesSelfFreed")] = n.SelfFreed()
	v.out[format.ScopeKey(v.tid, scope, "nTimesEnteredAndExited")] = n.Visits()
	for _, p := range tree.Primitives() {
		v.out[format.ScopeKey(v.tid, scope, "nCallsTo_"+p.String())] = n.Calls(p)
	}
	return true
}

func (v *mapVisitor) LeaveNode(*tree.Node) {
	v.path = v.path[:len(v.path)-1]
}

func (v *mapVisitor) LeaveTree(*tree.Tree) {}
