package mtag

import (
	"sync/atomic"

	"github.com/mtagkit/mtagkit/internal/osinfo"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

// threadSlots sizes the open-addressing thread table. Power of two, four
// times the registry capacity so the table stays sparse even at full
// registration.
const threadSlots = 512

// threadState is the per-OS-thread profiler state. A state is created the
// first time a thread touches the profiler and lives until Shutdown.
type threadState struct {
	tid int

	// tree is the thread's scope tree, nil until the first successful
	// registration.
	tree *tree.Tree

	// hooksOff suppresses attribution while the profiler services its own
	// allocations on this thread.
	hooksOff bool

	// treeInitFailed latches a failed registration so the thread does not
	// retry on every allocation.
	treeInitFailed bool
}

type threadSlot struct {
	tid   atomic.Int64
	state atomic.Pointer[threadState]
}

var threadTable [threadSlots]threadSlot

// currentThreadState returns the calling OS thread's state, creating it on
// first use. Returns nil when the table is full.
//
// The table is keyed by kernel thread id with linear probing. A slot is
// claimed by CAS on tid; only the claiming thread ever publishes the state
// pointer, so a reader that matched the tid may briefly observe a nil state
// and must treat that as "no state yet".
func currentThreadState() *threadState {
	tid := osinfo.Gettid()
	idx := uint32(tid) * 2654435761 % threadSlots
	for i := 0; i < threadSlots; i++ {
		slot := &threadTable[(idx+uint32(i))%threadSlots]
		got := slot.tid.Load()
		if got == int64(tid) {
			return slot.state.Load()
		}
		if got == 0 {
			if slot.tid.CompareAndSwap(0, int64(tid)) {
				ts := &threadState{tid: tid}
				slot.state.Store(ts)
				return ts
			}
			if slot.tid.Load() == int64(tid) {
				return slot.state.Load()
			}
		}
	}
	return nil
}

// resetThreadTable clears every slot. Callers must guarantee no other thread
// is inside the profiler.
func resetThreadTable() {
	for i := range threadTable {
		threadTable[i].state.Store(nil)
		threadTable[i].tid.Store(0)
	}
}

// HookToken restores a thread's previous attribution state. Returned by
// DisableHooks.
type HookToken struct {
	ts   *threadState
	prev bool
}

// DisableHooks turns off allocation attribution for the calling OS thread
// until the token is restored. Nested calls are safe; each token restores
// the state it observed.
func DisableHooks() HookToken {
	ts := currentThreadState()
	if ts == nil {
		return HookToken{}
	}
	tok := HookToken{ts: ts, prev: ts.hooksOff}
	ts.hooksOff = true
	return tok
}

// Restore re-enables attribution to the state captured by DisableHooks.
func (t HookToken) Restore() {
	if t.ts != nil {
		t.ts.hooksOff = t.prev
	}
}
