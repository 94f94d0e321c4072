//go:build !cgo || !linux

package mtag

import (
	"sync"
	"unsafe"
)

// gomalloc emulates the C allocator on the Go heap for builds without cgo.
// Blocks live in a registry keyed by their address so that Free and
// UsableSize work, at the cost of a lock per operation. Usable size equals
// the requested size exactly, so attribution misses allocator rounding.
type gomalloc struct {
	mu     sync.Mutex
	blocks map[uintptr][]byte
}

func newPlatformAllocator() rawAllocator {
	return &gomalloc{blocks: make(map[uintptr][]byte)}
}

func (g *gomalloc) Malloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	buf := make([]byte, size)
	p := unsafe.Pointer(&buf[0])
	g.mu.Lock()
	g.blocks[uintptr(p)] = buf
	g.mu.Unlock()
	return p
}

func (g *gomalloc) Calloc(n, size uintptr) unsafe.Pointer {
	return g.Malloc(n * size)
}

func (g *gomalloc) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return g.Malloc(size)
	}
	np := g.Malloc(size)
	g.mu.Lock()
	old := g.blocks[uintptr(p)]
	nb := g.blocks[uintptr(np)]
	g.mu.Unlock()
	copy(nb, old)
	g.Free(p)
	return np
}

func (g *gomalloc) Memalign(align, size uintptr) unsafe.Pointer {
	if align < 1 {
		align = 1
	}
	buf := make([]byte, size+align)
	base := uintptr(unsafe.Pointer(&buf[0]))
	off := (align - base%align) % align
	p := unsafe.Pointer(&buf[off])
	g.mu.Lock()
	g.blocks[uintptr(p)] = buf[off : off+size]
	g.mu.Unlock()
	return p
}

func (g *gomalloc) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	g.mu.Lock()
	delete(g.blocks, uintptr(p))
	g.mu.Unlock()
}

func (g *gomalloc) UsableSize(p unsafe.Pointer) uintptr {
	if p == nil {
		return 0
	}
	g.mu.Lock()
	buf, ok := g.blocks[uintptr(p)]
	g.mu.Unlock()
	if !ok {
		return 0
	}
	return uintptr(len(buf))
}
