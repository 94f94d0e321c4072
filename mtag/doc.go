// Package mtag is a per-thread hierarchical memory-allocation profiler for
// off-heap (C allocator) memory.
//
// # Overview
//
// Programs route their manual allocations through Malloc, Calloc, Realloc,
// Memalign, Valloc, PvAlloc and Free. Every request is serviced by the real
// allocator first; the profiler then attributes the block's usable size (the
// allocator's actually-reserved size, queried with malloc_usable_size) to the
// calling OS thread's current scope. Scopes are declared lexically:
//
//	mtag.InitDefault()
//	defer mtag.Shutdown()
//
//	sc := mtag.NewScope("parser")
//	defer sc.Close()
//	buf := mtag.Malloc(4096)
//	defer mtag.Free(buf)
//
// At any point the accumulated forest of per-thread scope trees can be read
// as a flat counter map (CollectStatsMap), a JSON document, a Graphviz DOT
// graph or an indented text tree (CollectStats, WriteStats), or written
// periodically by the snapshot driver (WriteSnapshotIfNeeded).
//
// # Thread affinity
//
// Attribution is per OS thread, keyed by the kernel thread id. Goroutines
// that want stable scope attribution must pin themselves with
// runtime.LockOSThread for the lifetime of their scopes; the package tests
// show the pattern.
//
// # Failure model
//
// The profiler is a best-effort observer. Allocator failures propagate
// unchanged; profiler limits (tree depth, node pool, fanout, registry slots)
// are recovered locally and surfaced as counters in the stats output, never
// as errors on the allocation path.
package mtag
