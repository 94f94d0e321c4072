//go:build cgo && linux

package mtag

/*
#include <stdlib.h>
#include <malloc.h>

static void *mtag_memalign(size_t align, size_t size) {
	void *p = NULL;
	if (posix_memalign(&p, align, size) != 0) {
		return NULL;
	}
	return p;
}
*/
import "C"

import "unsafe"

// cmalloc forwards every request to the C allocator. UsableSize delegates to
// malloc_usable_size, so the attributed size includes allocator rounding.
type cmalloc struct{}

func newPlatformAllocator() rawAllocator { return cmalloc{} }

func (cmalloc) Malloc(size uintptr) unsafe.Pointer {
	return C.malloc(C.size_t(size))
}

func (cmalloc) Calloc(n, size uintptr) unsafe.Pointer {
	return C.calloc(C.size_t(n), C.size_t(size))
}

func (cmalloc) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return C.realloc(p, C.size_t(size))
}

func (cmalloc) Memalign(align, size uintptr) unsafe.Pointer {
	return C.mtag_memalign(C.size_t(align), C.size_t(size))
}

func (cmalloc) Free(p unsafe.Pointer) {
	C.free(p)
}

func (cmalloc) UsableSize(p unsafe.Pointer) uintptr {
	if p == nil {
		return 0
	}
	return uintptr(C.malloc_usable_size(p))
}
