package tree

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mtagkit/mtagkit/internal/osinfo"
)

// Tree is one thread's scope tree. The cursor is moved only by the owning
// thread; any thread may traverse the structure for serialization while
// holding the structural lock.
type Tree struct {
	// mu guards the tree structure: the child arrays, the cursor position
	// and the derived aggregation fields. Hot-path counter updates
	// deliberately skip it (see package doc).
	mu sync.Mutex

	pool   *Pool
	root   *Node
	cursor *Node

	tid              int
	vmSizeAtCreation uint64

	maxNodes  uint32
	maxLevels uint32

	nodesInUse    uint32
	levelsReached uint32

	pushFailures         atomic.Uint64
	freeTrackingFailures atomic.Uint64
}

// NewTree builds a tree for the calling thread: it creates a pool of maxNodes
// nodes, acquires the root, and names it after the thread's kernel-assigned
// name. The main-thread tree records the OS-reported process VM size at
// creation; secondary trees record zero (exact kernel reconciliation is not a
// goal).
func NewTree(maxNodes, maxLevels uint32, mainThread bool) (*Tree, error) {
	pool, err := NewPool(int(maxNodes))
	if err != nil {
		return nil, fmt.Errorf("tree: creating node pool: %w", err)
	}

	t := &Tree{
		pool:      pool,
		tid:       osinfo.Gettid(),
		maxNodes:  maxNodes,
		maxLevels: maxLevels,
	}

	t.root = pool.Acquire()
	t.root.Init(nil, t.tid)
	t.root.SetScopeNameFromThread()
	t.cursor = t.root
	t.nodesInUse = 1

	if mainThread {
		vmSize, _, _ := osinfo.VMStats()
		t.vmSizeAtCreation = vmSize
	}
	return t, nil
}

// Push descends the cursor into the child scope called name, creating the
// child on first use. Returns false, after bumping the push-failure counter,
// when the level limit is hit, the pool is exhausted, or the parent's child
// array is full. A failed Push must not be paired with a Pop. Allocation-free.
func (t *Tree) Push(name string) bool {
	if t.cursor.Level() == t.maxLevels {
		t.pushFailures.Add(1)
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if child := t.cursor.FindChildByName(name); child != nil {
		t.cursor = child
		return true
	}

	n := t.pool.Acquire()
	if n == nil {
		t.pushFailures.Add(1)
		return false
	}
	t.nodesInUse++

	n.Init(t.cursor, t.tid)
	n.SetScopeName(name)
	if !t.cursor.LinkChild(n) {
		t.nodesInUse--
		t.pool.Release(n)
		t.pushFailures.Add(1)
		return false
	}

	t.cursor = n
	if lvl := t.cursor.Level(); lvl > t.levelsReached {
		t.levelsReached = lvl
	}
	return true
}

// Pop moves the cursor back to its parent, recording the visit on the node
// being left. Popping at the root is a programming error and panics.
// Allocation-free.
func (t *Tree) Pop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.cursor.Parent()
	if parent == nil {
		panic("tree: pop with cursor at root")
	}
	t.cursor.OnLeave()
	t.cursor = parent
}

// TrackAlloc charges nbytes of usable size to the current scope. Lock-free:
// only the owning thread moves the cursor or these counters.
func (t *Tree) TrackAlloc(p Primitive, nbytes uint64) {
	t.cursor.TrackAlloc(p, nbytes)
}

// TrackFree records a free against the current scope. When the scope's net
// would go negative the byte counter is left untouched and the tree's
// free-tracking-failure counter is bumped instead.
func (t *Tree) TrackFree(p Primitive, nbytes uint64) {
	if !t.cursor.TrackFree(p, nbytes) {
		t.freeTrackingFailures.Add(1)
	}
}

// AggregateTotals locks the tree, recomputes subtree totals and returns the
// root's total allocated and freed bytes.
func (t *Tree) AggregateTotals() (alloc, freed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.ComputeTotals()
	return t.root.TotalAllocated(), t.root.TotalFreed()
}

// Collect freezes the tree, refreshes totals and weights (denominator is the
// process-wide total allocated so weights are comparable across trees), then
// drives the visitor over every node.
func (t *Tree) Collect(v Visitor, denominator uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.root.ComputeTotals()
	t.root.ComputeWeights(denominator)

	v.EnterTree(t)
	t.visit(v, t.root)
	v.LeaveTree(t)
}

func (t *Tree) visit(v Visitor, n *Node) {
	if !v.EnterNode(n) {
		return
	}
	for i := 0; i < n.NumChildren(); i++ {
		t.visit(v, n.ChildAt(i))
	}
	v.LeaveNode(n)
}

// MemoryUsage reports the tree's own footprint; the node pool dominates it.
func (t *Tree) MemoryUsage() uint64 {
	return t.pool.MemoryUsage()
}

// Accessors. Counter reads are racy by contract when the owning thread is
// still running; see package doc.

func (t *Tree) TID() int                     { return t.tid }
func (t *Tree) Root() *Node                  { return t.root }
func (t *Tree) MaxNodes() uint32             { return t.maxNodes }
func (t *Tree) MaxLevels() uint32            { return t.maxLevels }
func (t *Tree) VMSizeAtCreation() uint64     { return t.vmSizeAtCreation }
func (t *Tree) PushFailures() uint64         { return t.pushFailures.Load() }
func (t *Tree) FreeTrackingFailures() uint64 { return t.freeTrackingFailures.Load() }

// NodesInUse returns how many pool nodes the tree currently holds.
func (t *Tree) NodesInUse() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodesInUse
}

// LevelsReached returns the deepest level the cursor has ever reached.
func (t *Tree) LevelsReached() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.levelsReached
}

// CursorLevel returns the current cursor depth. Test and debugging aid.
func (t *Tree) CursorLevel() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor.Level()
}
