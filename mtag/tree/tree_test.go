package tree

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, maxNodes, maxLevels uint32) *Tree {
	t.Helper()
	tr, err := NewTree(maxNodes, maxLevels, false)
	require.NoError(t, err)
	return tr
}

func TestNewTreeRoot(t *testing.T) {
	tr := newTestTree(t, 8, 8)
	assert.NotNil(t, tr.Root())
	assert.Equal(t, uint32(0), tr.Root().Level())
	assert.NotEmpty(t, tr.Root().Name(), "root carries the thread name")
	assert.Equal(t, uint32(1), tr.NodesInUse())
	assert.Equal(t, tr.TID(), tr.Root().TID())
}

func TestTreePushPopCursor(t *testing.T) {
	tr := newTestTree(t, 8, 8)

	require.True(t, tr.Push("parse"))
	assert.Equal(t, uint32(1), tr.CursorLevel())
	require.True(t, tr.Push("tokenize"))
	assert.Equal(t, uint32(2), tr.CursorLevel())
	assert.Equal(t, uint32(3), tr.NodesInUse())

	tr.Pop()
	tr.Pop()
	assert.Equal(t, uint32(0), tr.CursorLevel())
	assert.Equal(t, uint32(2), tr.LevelsReached())

	// Re-entering an existing scope reuses its node.
	require.True(t, tr.Push("parse"))
	assert.Equal(t, uint32(3), tr.NodesInUse())
	tr.Pop()

	assert.Equal(t, uint64(2), tr.Root().ChildAt(0).Visits())
}

func TestTreePushLevelLimit(t *testing.T) {
	tr := newTestTree(t, 50, 3)

	require.True(t, tr.Push("l1"))
	require.True(t, tr.Push("l2"))
	require.True(t, tr.Push("l3"))
	assert.False(t, tr.Push("l4"), "depth beyond max_tree_levels is rejected")
	assert.Equal(t, uint64(1), tr.PushFailures())
	assert.Equal(t, uint32(3), tr.CursorLevel(), "cursor stays put on failure")

	// The failed push is not paired with a pop.
	tr.Pop()
	tr.Pop()
	tr.Pop()
	assert.Equal(t, uint32(0), tr.CursorLevel())
}

func TestTreePushPoolExhaustion(t *testing.T) {
	// Room for the root plus two scopes.
	tr := newTestTree(t, 3, 8)

	require.True(t, tr.Push("a"))
	require.True(t, tr.Push("b"))
	assert.False(t, tr.Push("c"), "pool exhausted")
	assert.Equal(t, uint64(1), tr.PushFailures())

	// Existing scopes are still reachable.
	tr.Pop()
	tr.Pop()
	require.True(t, tr.Push("a"))
	require.True(t, tr.Push("b"))
	tr.Pop()
	tr.Pop()
	assert.Equal(t, uint32(3), tr.NodesInUse())
}

func TestTreePushFanoutLimit(t *testing.T) {
	tr := newTestTree(t, 64, 8)

	for i := 0; i < MaxChildren; i++ {
		require.True(t, tr.Push("s"+strconv.Itoa(i)))
		tr.Pop()
	}
	assert.False(t, tr.Push("onemore"), "fanout beyond the child array is rejected")
	assert.Equal(t, uint64(1), tr.PushFailures())
	assert.Equal(t, uint32(0), tr.CursorLevel())

	// The rejected node went back to the pool.
	assert.Equal(t, uint32(1+MaxChildren), tr.NodesInUse())
}

func TestTreePopAtRootPanics(t *testing.T) {
	tr := newTestTree(t, 8, 8)
	assert.Panics(t, func() { tr.Pop() })
}

func TestTreeTrackingFollowsCursor(t *testing.T) {
	tr := newTestTree(t, 8, 8)

	tr.TrackAlloc(Malloc, 100)
	require.True(t, tr.Push("work"))
	tr.TrackAlloc(Malloc, 40)
	tr.TrackAlloc(Calloc, 10)
	tr.TrackFree(Free, 25)
	tr.Pop()

	alloc, freed := tr.AggregateTotals()
	assert.Equal(t, uint64(150), alloc)
	assert.Equal(t, uint64(25), freed)
	assert.Equal(t, uint64(100), tr.Root().SelfAllocated())

	work := tr.Root().FindChildByName("work")
	require.NotNil(t, work)
	assert.Equal(t, uint64(50), work.SelfAllocated())
	assert.Equal(t, uint64(25), work.SelfFreed())
	assert.Equal(t, uint64(1), work.Calls(Malloc))
	assert.Equal(t, uint64(1), work.Calls(Calloc))
	assert.Equal(t, uint64(1), work.Calls(Free))
}

func TestTreeFreeTrackingFailureCounter(t *testing.T) {
	tr := newTestTree(t, 8, 8)

	tr.TrackAlloc(Malloc, 10)
	tr.TrackFree(Free, 50)
	assert.Equal(t, uint64(1), tr.FreeTrackingFailures())
	assert.Zero(t, tr.Root().SelfFreed())
}

// pathVisitor records EnterNode paths in visit order.
type pathVisitor struct {
	entered []string
	trees   int
}

func (v *pathVisitor) EnterTree(*Tree) { v.trees++ }
func (v *pathVisitor) EnterNode(n *Node) bool {
	v.entered = append(v.entered, n.Name())
	return true
}
func (v *pathVisitor) LeaveNode(*Node) {}
func (v *pathVisitor) LeaveTree(*Tree) {}

func TestTreeCollectOrderAndWeights(t *testing.T) {
	tr := newTestTree(t, 16, 8)

	require.True(t, tr.Push("first"))
	tr.TrackAlloc(Malloc, 30)
	require.True(t, tr.Push("inner"))
	tr.TrackAlloc(Malloc, 10)
	tr.Pop()
	tr.Pop()
	require.True(t, tr.Push("second"))
	tr.TrackAlloc(Malloc, 60)
	tr.Pop()

	v := &pathVisitor{}
	tr.Collect(v, 100)

	require.Equal(t, 1, v.trees)
	require.Len(t, v.entered, 4)
	assert.Equal(t, tr.Root().Name(), v.entered[0])
	assert.Equal(t, []string{"first", "inner", "second"}, v.entered[1:],
		"children visit in registration order, depth first")

	assert.Equal(t, uint64(10000), tr.Root().WeightTotal())
	first := tr.Root().FindChildByName("first")
	require.NotNil(t, first)
	assert.Equal(t, uint64(4000), first.WeightTotal())
	assert.Equal(t, uint64(3000), first.WeightSelf())
}
