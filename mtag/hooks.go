package mtag

import (
	"errors"
	"os"
	"unsafe"

	"github.com/mtagkit/mtagkit/mtag/tree"
)

var pageSize = uintptr(os.Getpagesize())

// Malloc allocates size bytes from the underlying allocator and attributes
// the block's usable size to the calling thread's current scope. Returns nil
// exactly when the allocator does.
func Malloc(size uintptr) unsafe.Pointer {
	p := defaultAllocator.Malloc(size)
	trackAllocEvent(tree.Malloc, p)
	return p
}

// Calloc allocates a zeroed array of n elements of size bytes each.
func Calloc(n, size uintptr) unsafe.Pointer {
	p := defaultAllocator.Calloc(n, size)
	trackAllocEvent(tree.Calloc, p)
	return p
}

// Realloc resizes the block at p. The full usable size of the resulting
// block is attributed to the calling thread's current scope, wherever the
// block was originally allocated.
func Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	np := defaultAllocator.Realloc(p, size)
	trackAllocEvent(tree.Realloc, np)
	return np
}

// Memalign allocates size bytes aligned to align, which must be a power of
// two multiple of the pointer size.
func Memalign(align, size uintptr) unsafe.Pointer {
	p := defaultAllocator.Memalign(align, size)
	trackAllocEvent(tree.Malloc, p)
	return p
}

// Valloc allocates size bytes aligned to the system page size.
func Valloc(size uintptr) unsafe.Pointer {
	return Memalign(pageSize, size)
}

// PvAlloc allocates size bytes rounded up to a whole number of pages,
// aligned to the system page size.
func PvAlloc(size uintptr) unsafe.Pointer {
	rounded := (size + pageSize - 1) / pageSize * pageSize
	if rounded == 0 {
		rounded = pageSize
	}
	return Memalign(pageSize, rounded)
}

// Free releases the block at p and credits its usable size to the calling
// thread's current scope. Freeing nil is a no-op.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	usable := uint64(defaultAllocator.UsableSize(p))
	defaultAllocator.Free(p)
	trackFreeEvent(usable)
}

// UsableSize reports the number of bytes actually reserved for the block at
// p.
func UsableSize(p unsafe.Pointer) uintptr {
	return defaultAllocator.UsableSize(p)
}

func trackAllocEvent(prim tree.Primitive, p unsafe.Pointer) {
	if p == nil {
		return
	}
	usable := uint64(defaultAllocator.UsableSize(p))

	if !eng.initialized.Load() {
		eng.bytesBeforeInit.Add(usable)
		return
	}
	ts := currentThreadState()
	if ts == nil || ts.hooksOff {
		return
	}
	t := ensureTree(ts)
	if t == nil {
		return
	}
	t.TrackAlloc(prim, usable)
}

func trackFreeEvent(usable uint64) {
	if !eng.initialized.Load() {
		return
	}
	ts := currentThreadState()
	if ts == nil || ts.hooksOff || ts.tree == nil {
		return
	}
	ts.tree.TrackFree(tree.Free, usable)
}

// ensureTree returns the thread's scope tree, registering one on first use.
// A failed registration is latched so the thread does not retry on every
// allocation.
func ensureTree(ts *threadState) *tree.Tree {
	if ts.tree != nil {
		return ts.tree
	}
	if ts.treeInitFailed {
		return nil
	}
	reg := currentRegistry()
	if reg == nil {
		return nil
	}

	// Registration allocates on the Go heap; keep the hooks quiet while it
	// runs so profiler bookkeeping is not attributed to user scopes.
	prev := ts.hooksOff
	ts.hooksOff = true
	t, err := reg.RegisterSecondary()
	ts.hooksOff = prev

	if err != nil {
		ts.treeInitFailed = true
		if errors.Is(err, tree.ErrRegistryFull) {
			eng.logger.Warn("thread tree registry full, allocations from this thread are untracked",
				"tid", ts.tid)
		} else {
			eng.logger.Warn("thread tree registration failed", "tid", ts.tid, "error", err)
		}
		return nil
	}
	ts.tree = t
	return t
}
