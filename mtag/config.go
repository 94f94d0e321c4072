package mtag

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Environment variables read at Init time.
const (
	EnvStatsOutputJSON  = "MTAG_STATS_OUTPUT_JSON"
	EnvStatsOutputDOT   = "MTAG_STATS_OUTPUT_GRAPHVIZ_DOT"
	EnvSnapshotPrefix   = "MTAG_SNAPSHOT_OUTPUT_PREFIX_FILE_PATH"
	EnvSnapshotInterval = "MTAG_SNAPSHOT_INTERVAL_SEC"
	EnvLogLevel         = "MTAG_LOG_LEVEL"
)

// Config collects the tunables of the profiler. Init starts from
// DefaultConfig; a zero MaxTreeNodes or MaxTreeLevels makes Init fail with
// tree.ErrBadCapacity.
type Config struct {
	// MaxTreeNodes caps the node pool of every thread tree.
	MaxTreeNodes uint32
	// MaxTreeLevels caps the scope nesting depth of every thread tree.
	MaxTreeLevels uint32
	// SnapshotInterval is the minimum spacing between periodic snapshots.
	// Zero disables WriteSnapshotIfNeeded.
	SnapshotInterval time.Duration

	// StatsOutputJSONPath and StatsOutputDOTPath, when non-empty, receive a
	// final stats dump at Shutdown and serve as the default targets of
	// WriteStats("").
	StatsOutputJSONPath string
	StatsOutputDOTPath  string

	// SnapshotPrefix is the default file prefix for WriteSnapshotIfNeeded.
	SnapshotPrefix string

	// LogLevel names an hclog level ("trace", "debug", "info", "warn",
	// "error", "off"). Empty means "warn".
	LogLevel string
}

// DefaultConfig returns the built-in limits: 256 nodes and 256 levels per
// tree, snapshots disabled.
func DefaultConfig() Config {
	return Config{
		MaxTreeNodes:  256,
		MaxTreeLevels: 256,
	}
}

// ConfigFromEnv builds a Config from DefaultConfig overlaid with the MTAG_*
// environment variables.
func ConfigFromEnv() (Config, error) {
	v := viper.New()
	for _, key := range []string{
		EnvStatsOutputJSON,
		EnvStatsOutputDOT,
		EnvSnapshotPrefix,
		EnvSnapshotInterval,
		EnvLogLevel,
	} {
		if err := v.BindEnv(key, key); err != nil {
			return Config{}, fmt.Errorf("mtag: binding %s: %w", key, err)
		}
	}

	cfg := DefaultConfig()
	cfg.StatsOutputJSONPath = v.GetString(EnvStatsOutputJSON)
	cfg.StatsOutputDOTPath = v.GetString(EnvStatsOutputDOT)
	cfg.SnapshotPrefix = v.GetString(EnvSnapshotPrefix)
	cfg.LogLevel = v.GetString(EnvLogLevel)
	if v.IsSet(EnvSnapshotInterval) {
		sec := v.GetInt(EnvSnapshotInterval)
		if sec < 0 {
			return Config{}, fmt.Errorf("mtag: %s must be >= 0, got %d", EnvSnapshotInterval, sec)
		}
		cfg.SnapshotInterval = time.Duration(sec) * time.Second
	}
	return cfg, nil
}
