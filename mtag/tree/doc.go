// Package tree implements the per-thread scope trees at the heart of the
// profiler.
//
// # Overview
//
// Every observed OS thread owns one Tree. A Tree is a bounded forest node
// arena (Pool) plus a cursor: pushing a scope name moves the cursor one level
// down, popping moves it back up, and every tracked allocation is charged to
// the node the cursor currently points at.
//
// # Components
//
//   - Pool: preallocated arena of Nodes. O(1) acquire/release, no heap
//     traffic after construction.
//   - Node: one scope's counters, a fixed 16-slot child array and a parent
//     link.
//   - Tree: cursor manipulation (Push/Pop), hot-path counter updates
//     (TrackAlloc/TrackFree) and locked aggregation plus visitation.
//   - Registry: process-wide directory of trees, one slot per thread,
//     lock-free registration through an atomic slot counter.
//
// # Hot-path contract
//
// Push, Pop, TrackAlloc and TrackFree never allocate. All strings crossing
// the hot path land in fixed-capacity byte arrays; every container is sized
// at construction. TrackAlloc and TrackFree do not even take the structural
// lock: the cursor node is owned by the calling thread and only its own
// scalar counters move, so concurrent readers may observe slightly stale
// values. Aggregated totals are approximations by contract.
package tree
