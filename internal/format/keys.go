package format

import "strconv"

// Flat stats-map key assembly.
//
// Key layout:
//
//	.nTrees                                  process-wide meta
//	tid1234:.nTreeNodesInUse                 per-tree meta
//	tid1234:mainthread.parser.nBytesSelfAllocated   per-scope metric
//
// The "tidN" prefix identifies the owning thread, ":" separates it from the
// scope path, and "." separates path elements and the metric name.

const (
	// TreeMetaSep separates the thread prefix from per-tree meta keys.
	TreeMetaSep = ":"
	// PathSep separates scope path elements and the trailing metric name.
	PathSep = "."
)

// ThreadKeyPrefix returns the flat-map prefix for the given kernel thread id,
// e.g. "tid1234".
func ThreadKeyPrefix(tid int) string {
	return "tid" + strconv.Itoa(tid)
}

// TreeMetaKey builds a per-tree meta key such as "tid1234:.nPushNodeFailures".
func TreeMetaKey(tid int, metric string) string {
	return ThreadKeyPrefix(tid) + TreeMetaSep + PathSep + metric
}

// ScopeKey builds a per-scope metric key from an already-joined scope path,
// e.g. ScopeKey(1234, "main.parser", "nBytesSelfAllocated") returns
// "tid1234:main.parser.nBytesSelfAllocated".
func ScopeKey(tid int, path, metric string) string {
	return ThreadKeyPrefix(tid) + TreeMetaSep + path + PathSep + metric
}
