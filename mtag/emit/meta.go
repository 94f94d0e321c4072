package emit

import "time"

// Meta carries the process-level facts that frame a snapshot document. The
// engine fills it right before emission.
type Meta struct {
	PID             int
	StartTime       time.Time
	Now             time.Time
	BytesBeforeInit uint64
	SelfUsage       uint64
	VMSizeNow       uint64
	VMRSSNow        uint64

	// TotalTracked is the process-wide total allocated across all trees,
	// also used as the weight denominator.
	TotalTracked uint64
}

// timeFormat is the wall-clock rendering used in documents.
const timeFormat = time.RFC3339
