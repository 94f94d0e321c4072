// Package osinfo exposes the small set of kernel facts the profiler needs:
// the calling thread's id and name, the process id, and the process virtual
// memory counters from /proc. On platforms without per-thread kernel ids the
// thread id is the process id and the thread name is the executable base
// name; without procfs the VM counters are zero.
package osinfo

import "os"

// PID returns the current process id.
func PID() int {
	return os.Getpid()
}
