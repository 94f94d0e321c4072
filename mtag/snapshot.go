package mtag

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// WriteSnapshotIfNeeded writes a numbered stats snapshot when the configured
// snapshot interval has elapsed since the last one. Each snapshot event
// claims one sequence number and writes one file per requested format, named
// "<prefix>.<NNNN>.<ext>". An empty prefix falls back to
// MTAG_SNAPSHOT_OUTPUT_PREFIX_FILE_PATH; with no formats given, JSON and DOT
// are written.
//
// Returns true when a snapshot was attempted this call, even if some writes
// failed. With a zero interval it always returns false.
func WriteSnapshotIfNeeded(prefix string, formats ...Format) (bool, error) {
	if currentRegistry() == nil {
		return false, nil
	}
	interval := eng.cfg.SnapshotInterval
	if interval <= 0 {
		return false, nil
	}
	if prefix == "" {
		prefix = eng.cfg.SnapshotPrefix
	}
	if prefix == "" {
		return false, fmt.Errorf("mtag: no snapshot output prefix configured")
	}
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatGraphvizDot}
	}

	eng.snapshotMu.Lock()
	defer eng.snapshotMu.Unlock()
	now := time.Now()
	if !eng.lastSnapshot.IsZero() && now.Sub(eng.lastSnapshot) < interval {
		return false, nil
	}
	eng.lastSnapshot = now

	tok := DisableHooks()
	defer tok.Restore()

	seq := snapshotSeq.Add(1) - 1
	var result *multierror.Error
	for _, f := range formats {
		path := fmt.Sprintf("%s.%04d.%s", prefix, seq, f.Ext())
		if err := writeStatsLocked(f, path); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return true, result.ErrorOrNil()
}
