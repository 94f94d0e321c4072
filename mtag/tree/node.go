package tree

import (
	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/internal/osinfo"
)

const (
	// ScopeNameCap is the fixed capacity of a node's name buffer, including
	// the implicit terminator byte. Must be at least 16 so a kernel thread
	// name from prctl(PR_GET_NAME) always fits.
	ScopeNameCap = 32

	// MaxChildren bounds the fanout of a single node.
	MaxChildren = 16
)

// Node is one scope in one thread's tree. All hot-path methods are
// allocation-free; the derived fields (totals and weights) are valid only
// right after an aggregation pass, while the owning tree's structural lock is
// held.
type Node struct {
	name  [ScopeNameCap]byte
	nameN uint8

	level uint32
	tid   int

	bytesSelfAllocated uint64
	bytesSelfFreed     uint64
	callsSelf          [numPrimitives]uint64
	visits             uint64

	// Derived by ComputeTotals / ComputeWeights.
	bytesTotalAllocated uint64
	bytesTotalFreed     uint64
	weightTotal         uint64
	weightSelf          uint64

	children  [MaxChildren]*Node
	nChildren int
	parent    *Node
}

// Init zeroes the node's counters and wires it under parent. The root node
// passes a nil parent and sits at level 0.
func (n *Node) Init(parent *Node, tid int) {
	*n = Node{parent: parent, tid: tid}
	if parent != nil {
		n.level = parent.level + 1
	}
}

// SetScopeName copies up to ScopeNameCap-1 bytes of name into the node's
// fixed buffer.
func (n *Node) SetScopeName(name string) {
	n.nameN = uint8(copy(n.name[:ScopeNameCap-1], name))
}

// SetScopeNameFromThread names the node after the calling thread's
// kernel-assigned name. Used for tree roots.
func (n *Node) SetScopeNameFromThread() {
	n.SetScopeName(osinfo.ThreadName())
}

// Name returns the scope name as a string. Not for hot-path use: it
// allocates.
func (n *Node) Name() string {
	return string(n.name[:n.nameN])
}

// nameEquals compares the stored name against s without allocating. Names
// longer than the buffer are compared truncated, mirroring SetScopeName.
func (n *Node) nameEquals(s string) bool {
	if len(s) > ScopeNameCap-1 {
		s = s[:ScopeNameCap-1]
	}
	if int(n.nameN) != len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if n.name[i] != s[i] {
			return false
		}
	}
	return true
}

// LinkChild appends child to the fanout array. Returns false when the node
// already carries MaxChildren children.
func (n *Node) LinkChild(child *Node) bool {
	if n.nChildren >= MaxChildren {
		return false
	}
	n.children[n.nChildren] = child
	n.nChildren++
	return true
}

// FindChildByName scans the child array for a scope with the given name.
// Linear search: the fanout is capped at MaxChildren and typically tiny.
func (n *Node) FindChildByName(name string) *Node {
	for i := 0; i < n.nChildren; i++ {
		if n.children[i].nameEquals(name) {
			return n.children[i]
		}
	}
	return nil
}

// TrackAlloc charges nbytes (an allocator usable size) to this node.
func (n *Node) TrackAlloc(p Primitive, nbytes uint64) {
	n.bytesSelfAllocated += nbytes
	n.callsSelf[p]++
}

// TrackFree records a free of nbytes against this node. The call is always
// counted, but the byte counter refuses to let the node's net go negative:
// when the freed total would exceed the allocated total the bytes are left
// untouched and false is returned so the tree can count the failure.
func (n *Node) TrackFree(p Primitive, nbytes uint64) bool {
	n.callsSelf[p]++
	if n.bytesSelfFreed+nbytes > n.bytesSelfAllocated {
		return false
	}
	n.bytesSelfFreed += nbytes
	return true
}

// OnLeave records that the cursor exited this node.
func (n *Node) OnLeave() {
	n.visits++
}

// ComputeTotals runs a post-order traversal summing self counters into the
// subtree totals. Returns this subtree's total allocated bytes. Idempotent.
func (n *Node) ComputeTotals() uint64 {
	var childAlloc, childFreed uint64
	for i := 0; i < n.nChildren; i++ {
		childAlloc += n.children[i].ComputeTotals()
		childFreed += n.children[i].bytesTotalFreed
	}
	n.bytesTotalAllocated = childAlloc + n.bytesSelfAllocated
	n.bytesTotalFreed = childFreed + n.bytesSelfFreed
	return n.bytesTotalAllocated
}

// ComputeWeights fills the fixed-point weight fields for the whole subtree.
// The denominator is the process-wide total allocated, so weights are
// comparable across trees. A zero denominator zeroes every weight.
func (n *Node) ComputeWeights(denominator uint64) {
	if denominator == 0 {
		n.weightTotal = 0
		n.weightSelf = 0
	} else {
		n.weightTotal = format.WeightMultiplier * n.bytesTotalAllocated / denominator
		n.weightSelf = format.WeightMultiplier * n.bytesSelfAllocated / denominator
	}
	for i := 0; i < n.nChildren; i++ {
		n.children[i].ComputeWeights(denominator)
	}
}

// Accessors used by emitters and tests. Reads of derived fields are only
// meaningful under the tree's structural lock after aggregation.

func (n *Node) Level() uint32            { return n.level }
func (n *Node) TID() int                 { return n.tid }
func (n *Node) Parent() *Node            { return n.parent }
func (n *Node) NumChildren() int         { return n.nChildren }
func (n *Node) SelfAllocated() uint64    { return n.bytesSelfAllocated }
func (n *Node) SelfFreed() uint64        { return n.bytesSelfFreed }
func (n *Node) TotalAllocated() uint64   { return n.bytesTotalAllocated }
func (n *Node) TotalFreed() uint64       { return n.bytesTotalFreed }
func (n *Node) WeightTotal() uint64      { return n.weightTotal }
func (n *Node) WeightSelf() uint64       { return n.weightSelf }
func (n *Node) Visits() uint64           { return n.visits }
func (n *Node) Calls(p Primitive) uint64 { return n.callsSelf[p] }

// ChildAt returns the i-th child; callers iterate up to NumChildren.
func (n *Node) ChildAt(i int) *Node { return n.children[i] }

// NetSelf returns self allocated minus self freed, clamped at zero.
func (n *Node) NetSelf() uint64 {
	if n.bytesSelfFreed >= n.bytesSelfAllocated {
		return 0
	}
	return n.bytesSelfAllocated - n.bytesSelfFreed
}

// NetTotal returns subtree allocated minus subtree freed, clamped at zero.
// Valid only after aggregation.
func (n *Node) NetTotal() uint64 {
	if n.bytesTotalFreed >= n.bytesTotalAllocated {
		return 0
	}
	return n.bytesTotalAllocated - n.bytesTotalFreed
}
