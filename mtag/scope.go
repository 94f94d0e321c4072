package mtag

import (
	"unsafe"

	"github.com/mtagkit/mtagkit/mtag/tree"
)

// Scope attributes all allocations made by the calling OS thread between
// NewScope and Close to the named node of the thread's tree. Scopes nest
// lexically:
//
//	sc := mtag.NewScope("parser")
//	defer sc.Close()
//
// A Scope is a value type and must stay on the thread that created it.
// When the push is rejected (depth, pool or fanout limit reached) the scope
// is inert: allocations keep charging the enclosing scope and Close does
// nothing. Rejections show up in the stats as nPushNodeFailures.
type Scope struct {
	t      *tree.Tree
	pushed bool
}

// NewScope enters a scope named name on the calling OS thread. Before Init
// or after Shutdown the returned scope is inert.
func NewScope(name string) Scope {
	if !eng.initialized.Load() {
		return Scope{}
	}
	ts := currentThreadState()
	if ts == nil || ts.hooksOff {
		return Scope{}
	}
	t := ensureTree(ts)
	if t == nil {
		return Scope{}
	}
	return Scope{t: t, pushed: t.Push(name)}
}

// NewMethodScope enters a scope named "<class>::<fn>". The composed name is
// built in a fixed buffer so entering the scope does not allocate.
func NewMethodScope(class, fn string) Scope {
	var buf [tree.ScopeNameCap]byte
	n := copy(buf[:], class)
	n += copy(buf[n:], "::")
	n += copy(buf[n:], fn)
	return NewScope(unsafe.String(&buf[0], n))
}

// Close leaves the scope. Only the pop matching a successful push runs, so
// Close on an inert or already-closed scope is a no-op.
func (s *Scope) Close() {
	if !s.pushed {
		return
	}
	s.pushed = false
	s.t.Pop()
}
