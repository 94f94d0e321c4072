package tree

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
)

// MaxTrees bounds how many threads the profiler can observe. Threads beyond
// the bound stay uninstrumented.
const MaxTrees = 128

// Registry is the process-wide directory of trees, one per observed thread.
// Slot 0 always holds the main thread's tree; its presence is the signal that
// profiling is active. Registration is lock-free: a slot index is reserved
// with an atomic counter and the slot itself is published with an atomic
// pointer store. Trees are never removed before teardown.
type Registry struct {
	slots    [MaxTrees]atomic.Pointer[Tree]
	reserved atomic.Uint32
	shutdown atomic.Bool

	startTime time.Time
	logger    hclog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger hclog.Logger) *Registry {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Registry{logger: logger.Named("registry")}
}

// RegisterMain creates the main thread's tree in slot 0 and records the
// profiling start timestamp. Must be the first registration.
func (r *Registry) RegisterMain(maxNodes, maxLevels uint32) (*Tree, error) {
	if r.shutdown.Load() {
		return nil, ErrShutdown
	}
	if r.reserved.Add(1) != 1 {
		return nil, ErrMainRegistered
	}

	t, err := NewTree(maxNodes, maxLevels, true)
	if err != nil {
		return nil, fmt.Errorf("tree: registering main tree: %w", err)
	}
	r.startTime = time.Now()
	r.slots[0].Store(t)
	r.logger.Debug("registered main tree", "tid", t.TID(),
		"max_nodes", maxNodes, "max_levels", maxLevels)
	return t, nil
}

// RegisterSecondary reserves the next slot and creates a tree for the calling
// thread, inheriting the main tree's limits. Returns ErrRegistryFull when all
// slots are taken and ErrShutdown after teardown has begun.
func (r *Registry) RegisterSecondary() (*Tree, error) {
	if r.shutdown.Load() {
		return nil, ErrShutdown
	}
	main := r.MainTree()
	if main == nil {
		return nil, fmt.Errorf("tree: registering secondary tree: main tree missing")
	}

	idx := r.reserved.Add(1) - 1
	if idx >= MaxTrees {
		return nil, ErrRegistryFull
	}

	t, err := NewTree(main.MaxNodes(), main.MaxLevels(), false)
	if err != nil {
		return nil, fmt.Errorf("tree: registering secondary tree: %w", err)
	}
	r.slots[idx].Store(t)
	r.logger.Debug("registered secondary tree", "tid", t.TID(), "slot", idx)
	return t, nil
}

// HasMain reports whether profiling is active.
func (r *Registry) HasMain() bool {
	return r.slots[0].Load() != nil
}

// MainTree returns the slot-0 tree, or nil before RegisterMain.
func (r *Registry) MainTree() *Tree {
	return r.slots[0].Load()
}

// TreeCount returns the number of registered trees. Slots reserved by a
// thread that has not finished publishing yet are not counted.
func (r *Registry) TreeCount() int {
	n := 0
	r.ForEach(func(*Tree) { n++ })
	return n
}

// ForEach invokes fn for every published tree in registration order.
func (r *Registry) ForEach(fn func(*Tree)) {
	limit := r.reserved.Load()
	if limit > MaxTrees {
		limit = MaxTrees
	}
	for i := uint32(0); i < limit; i++ {
		if t := r.slots[i].Load(); t != nil {
			fn(t)
		}
	}
}

// TreeForTID returns the tree owned by the given kernel thread id, or nil.
func (r *Registry) TreeForTID(tid int) *Tree {
	var found *Tree
	r.ForEach(func(t *Tree) {
		if t.TID() == tid && found == nil {
			found = t
		}
	})
	return found
}

// StartTime returns the wall-clock instant RegisterMain succeeded.
func (r *Registry) StartTime() time.Time {
	return r.startTime
}

// SelfUsage sums the memory footprint of every registered tree; this is the
// profiler's own cost, surfaced as nBytesMallocTagSelfUsage.
func (r *Registry) SelfUsage() uint64 {
	var total uint64
	r.ForEach(func(t *Tree) { total += t.MemoryUsage() })
	return total
}

// CollectAllocatedFreedAll aggregates every tree and sums the root totals.
// Each tree aggregates under its own lock, so the cross-tree sum can lag
// allocations that land mid-iteration.
func (r *Registry) CollectAllocatedFreedAll() (alloc, freed uint64) {
	r.ForEach(func(t *Tree) {
		a, f := t.AggregateTotals()
		alloc += a
		freed += f
	})
	return alloc, freed
}

// Collect computes the process-wide total allocated first, then drives the
// visitor over every tree with that shared denominator.
func (r *Registry) Collect(v Visitor) {
	denominator, _ := r.CollectAllocatedFreedAll()
	r.ForEach(func(t *Tree) {
		t.Collect(v, denominator)
	})
}

// Close tears the registry down: new registrations are rejected from here on
// and every registered slot is dropped exactly once, in reverse registration
// order. Idempotent.
func (r *Registry) Close() {
	if r.shutdown.Swap(true) {
		return
	}
	dropped := 0
	limit := int(r.reserved.Load())
	if limit > MaxTrees {
		limit = MaxTrees
	}
	for i := limit - 1; i >= 0; i-- {
		if r.slots[i].Swap(nil) != nil {
			dropped++
		}
	}
	r.logger.Debug("registry closed", "trees_dropped", dropped)
}
