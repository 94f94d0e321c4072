//go:build linux

package osinfo

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// threadNameCap matches the kernel's TASK_COMM_LEN: PR_GET_NAME writes at most
// 16 bytes including the terminating NUL.
const threadNameCap = 16

// Gettid returns the kernel thread id of the calling thread. Callers that
// need a stable id across calls must pin the goroutine with
// runtime.LockOSThread first.
func Gettid() int {
	return unix.Gettid()
}

// ThreadName returns the kernel-assigned name of the calling thread via
// prctl(PR_GET_NAME). Falls back to "unknown" if the syscall fails.
func ThreadName() string {
	var buf [threadNameCap]byte
	if err := unix.Prctl(unix.PR_GET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0); err != nil {
		return "unknown"
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

// SetThreadName assigns a kernel name to the calling thread. The kernel
// silently truncates names longer than 15 bytes.
func SetThreadName(name string) error {
	buf := make([]byte, threadNameCap)
	copy(buf[:threadNameCap-1], name)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}
