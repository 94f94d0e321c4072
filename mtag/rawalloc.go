package mtag

import "unsafe"

// rawAllocator is the underlying allocator the profiler forwards to. Every
// request goes to the real allocator first; attribution happens afterwards
// based on UsableSize.
type rawAllocator interface {
	Malloc(size uintptr) unsafe.Pointer
	Calloc(n, size uintptr) unsafe.Pointer
	Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer
	Memalign(align, size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)

	// UsableSize reports the number of bytes actually reserved for the
	// block, which is what gets attributed to the current scope.
	UsableSize(p unsafe.Pointer) uintptr
}

var defaultAllocator rawAllocator = newPlatformAllocator()
