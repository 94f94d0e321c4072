package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

// DOT renders the forest as a single Graphviz digraph with one subgraph
// cluster per thread tree. A process node points at every tree root; each of
// those edges carries the tree's share of the process-wide allocated total.
func DOT(reg *tree.Registry, meta Meta) (string, error) {
	var b strings.Builder
	b.WriteString("digraph MallocTree {\n")
	b.WriteString("node [colorscheme=reds9 style=filled]\n")

	processID := "process_" + strconv.Itoa(meta.PID)
	fmt.Fprintf(&b, "%s [label=\"PID %d\" shape=doubleoctagon fillcolor=white]\n",
		processID, meta.PID)

	v := &dotVisitor{b: &b, processID: processID}
	reg.Collect(v)

	fmt.Fprintf(&b, "label=\"%s\"\n", format.DotEscapeLabel(strings.Join([]string{
		"Memory allocated before profiler init = " + format.PrettyBytes(meta.BytesBeforeInit),
		"Memory allocated by the profiler itself = " + format.PrettyBytes(meta.SelfUsage),
		"Total memory tracked across all threads = " + format.PrettyBytes(meta.TotalTracked),
	}, "\n")))
	b.WriteString("labelloc=\"b\"\n")
	b.WriteString("}\n")
	return b.String(), nil
}

type dotVisitor struct {
	b         *strings.Builder
	processID string

	tid  int
	path []string
}

func (v *dotVisitor) EnterTree(t *tree.Tree) {
	v.tid = t.TID()
	v.path = v.path[:0]
	fmt.Fprintf(v.b, "subgraph cluster_TID%d {\n", t.TID())
	fmt.Fprintf(v.b, "label=\"TID %d\"\n", t.TID())
}

func (v *dotVisitor) EnterNode(n *tree.Node) bool {
	parentID := ""
	if len(v.path) > 0 {
		parentID = v.nodeID()
	}
	v.path = append(v.path, n.Name())
	id := v.nodeID()

	fillColor, fontSize := dotStyleForSelfWeight(n.WeightSelf())
	label := dotNodeLabel(n)
	if n.Parent() == nil {
		fmt.Fprintf(v.b, "%s [label=\"%s\" shape=box fillcolor=%s fontsize=%s]\n",
			id, format.DotEscapeLabel(label), fillColor, fontSize)
	} else {
		fmt.Fprintf(v.b, "%s [label=\"%s\" fillcolor=%s fontsize=%s]\n",
			id, format.DotEscapeLabel(label), fillColor, fontSize)
		fmt.Fprintf(v.b, "%s -> %s\n", parentID, id)
	}
	return true
}

func (v *dotVisitor) LeaveNode(*tree.Node) {
	v.path = v.path[:len(v.path)-1]
}

func (v *dotVisitor) LeaveTree(t *tree.Tree) {
	v.b.WriteString("}\n")
	// Root edge out of the cluster: labelled with this subtree's share of
	// the process-wide total.
	rootID := format.DotNodeID(strconv.Itoa(t.TID()), t.Root().Name())
	fmt.Fprintf(v.b, "%s -> %s [label=\"%s%%\"]\n",
		v.processID, rootID, format.WeightPercent(t.Root().WeightTotal()))
}

func (v *dotVisitor) nodeID() string {
	parts := make([]string, 0, len(v.path)+1)
	parts = append(parts, strconv.Itoa(v.tid))
	parts = append(parts, v.path...)
	return format.DotNodeID(parts...)
}

// dotNodeLabel summarizes a node: total and self sizes with their weights,
// and the number of direct allocation events.
func dotNodeLabel(n *tree.Node) string {
	var weight string
	if n.TotalAllocated() != n.SelfAllocated() {
		weight = "total=" + format.PrettyBytes(n.TotalAllocated()) +
			" (" + format.WeightPercent(n.WeightTotal()) + "%)\n" +
			"self=" + format.PrettyBytes(n.SelfAllocated()) +
			" (" + format.WeightPercent(n.WeightSelf()) + "%)"
	} else {
		weight = "total=self=" + format.PrettyBytes(n.TotalAllocated()) +
			" (" + format.WeightPercent(n.WeightTotal()) + "%)"
	}
	calls := n.Calls(tree.Malloc) + n.Calls(tree.Realloc) + n.Calls(tree.Calloc)
	weight += "\nnum_alloc_self=" + strconv.FormatUint(calls, 10)

	if n.Parent() == nil {
		return "thread=" + n.Name() + "\nTID=" + strconv.Itoa(n.TID()) + "\n" + weight
	}
	return "scope=" + n.Name() + "\n" + weight
}

// dotStyleForSelfWeight maps a self-weight to a reds9 fill color and a font
// size, so heavy scopes jump out of the rendered graph.
func dotStyleForSelfWeight(weightSelf uint64) (fillColor, fontSize string) {
	pct := float64(weightSelf) / 100.0
	switch {
	case pct < 5:
		return "1", "9"
	case pct < 10:
		return "2", "10"
	case pct < 20:
		return "3", "12"
	case pct < 40:
		return "4", "14"
	case pct < 60:
		return "5", "16"
	case pct < 80:
		return "6", "18"
	default:
		return "7", "20"
	}
}
