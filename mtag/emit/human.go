package emit

import (
	"fmt"
	"strings"

	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

const (
	// collapseBytesThreshold hides subtrees smaller than 1024 bytes.
	collapseBytesThreshold = 1024
	// collapseWeightThreshold hides subtrees below 1% of the process total.
	collapseWeightThreshold = format.WeightMultiplier / 100
)

// Human renders an indented text tree, two spaces per level. Subtrees whose
// total allocation is under 1024 bytes or whose weight is under 1% of the process
// total are folded into a single placeholder line.
func Human(reg *tree.Registry, meta Meta) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "PID %d, profiling since %s\n",
		meta.PID, meta.StartTime.Format(timeFormat))
	reg.Collect(&humanVisitor{b: &b})
	fmt.Fprintf(&b, "allocated before init: %s\n", format.PrettyBytes(meta.BytesBeforeInit))
	fmt.Fprintf(&b, "profiler self usage:   %s\n", format.PrettyBytes(meta.SelfUsage))
	fmt.Fprintf(&b, "total tracked:         %s\n", format.PrettyBytes(meta.TotalTracked))
	return b.String(), nil
}

type humanVisitor struct {
	b *strings.Builder
}

func (v *humanVisitor) EnterTree(t *tree.Tree) {
	fmt.Fprintf(v.b, "thread %q TID=%d nodes=%d/%d pushFailures=%d\n",
		t.Root().Name(), t.TID(), t.NodesInUse(), t.MaxNodes(), t.PushFailures())
}

func (v *humanVisitor) EnterNode(n *tree.Node) bool {
	indent := strings.Repeat("  ", int(n.Level()))
	if n.Parent() != nil &&
		(n.TotalAllocated() < collapseBytesThreshold ||
			n.WeightTotal() < collapseWeightThreshold) {
		fmt.Fprintf(v.b, "%s%s: <collapsed, total=%s>\n",
			indent, n.Name(), format.PrettyBytes(n.TotalAllocated()))
		return false
	}
	fmt.Fprintf(v.b, "%s%s: total=%s (%s%%) self=%s freed=%s visits=%d\n",
		indent, n.Name(),
		format.PrettyBytes(n.TotalAllocated()), format.WeightPercent(n.WeightTotal()),
		format.PrettyBytes(n.SelfAllocated()), format.PrettyBytes(n.SelfFreed()),
		n.Visits())
	return true
}

func (v *humanVisitor) LeaveNode(*tree.Node) {}

func (v *humanVisitor) LeaveTree(*tree.Tree) {
	v.b.WriteByte('\n')
}
