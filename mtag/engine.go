package mtag

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/mtagkit/mtagkit/mtag/tree"
)

// ErrAlreadyInitialized is returned by Init when the profiler is running.
var ErrAlreadyInitialized = errors.New("mtag: already initialized")

// ErrNotInitialized is returned by operations that need a running profiler.
var ErrNotInitialized = errors.New("mtag: not initialized")

type engine struct {
	mu          sync.Mutex
	initialized atomic.Bool

	cfg      Config
	logger   hclog.Logger
	registry *tree.Registry

	// bytesBeforeInit accumulates usable sizes of allocations serviced
	// before Init published the registry.
	bytesBeforeInit atomic.Uint64

	snapshotMu   sync.Mutex
	lastSnapshot time.Time
}

var (
	eng         engine
	snapshotSeq atomic.Uint64
)

// Option tweaks the profiler configuration at Init, after the environment
// has been applied.
type Option func(*Config)

// WithMaxTreeNodes caps the node pool of every thread tree.
func WithMaxTreeNodes(n uint32) Option {
	return func(c *Config) { c.MaxTreeNodes = n }
}

// WithMaxTreeLevels caps the scope nesting depth of every thread tree.
func WithMaxTreeLevels(n uint32) Option {
	return func(c *Config) { c.MaxTreeLevels = n }
}

// WithSnapshotInterval sets the minimum spacing between periodic snapshots.
func WithSnapshotInterval(d time.Duration) Option {
	return func(c *Config) { c.SnapshotInterval = d }
}

// WithLogLevel overrides the hclog level name from the environment.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// Init starts the profiler on the calling OS thread, which becomes the main
// thread of the profile. Configuration is read from the MTAG_* environment
// variables, then adjusted by opts. Callers that keep allocating from this
// goroutine should pin it with runtime.LockOSThread first.
func Init(opts ...Option) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.initialized.Load() {
		return ErrAlreadyInitialized
	}

	cfg, err := ConfigFromEnv()
	if err != nil {
		return err
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.MaxTreeNodes == 0 || cfg.MaxTreeLevels == 0 {
		return tree.ErrBadCapacity
	}

	level := hclog.Warn
	if cfg.LogLevel != "" {
		level = hclog.LevelFromString(cfg.LogLevel)
		if level == hclog.NoLevel {
			level = hclog.Warn
		}
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "mtag",
		Level:  level,
		Output: os.Stderr,
	})

	reg := tree.NewRegistry(logger)
	mainTree, err := reg.RegisterMain(cfg.MaxTreeNodes, cfg.MaxTreeLevels)
	if err != nil {
		return err
	}

	eng.cfg = cfg
	eng.logger = logger
	eng.registry = reg
	eng.lastSnapshot = time.Time{}

	if ts := currentThreadState(); ts != nil {
		ts.tree = mainTree
	}

	eng.initialized.Store(true)
	logger.Debug("profiler initialized",
		"max_tree_nodes", cfg.MaxTreeNodes,
		"max_tree_levels", cfg.MaxTreeLevels,
		"bytes_before_init", eng.bytesBeforeInit.Load())
	return nil
}

// InitDefault is Init with no options.
func InitDefault() error { return Init() }

// Shutdown stops the profiler. If MTAG_STATS_OUTPUT_JSON or
// MTAG_STATS_OUTPUT_GRAPHVIZ_DOT name files, a final stats document is
// written to each before the registry is torn down. Shutdown is idempotent;
// after it returns the allocation hooks pass through untracked.
func Shutdown() error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if !eng.initialized.Load() {
		return nil
	}

	var result *multierror.Error
	if eng.cfg.StatsOutputJSONPath != "" {
		if err := writeStatsLocked(FormatJSON, eng.cfg.StatsOutputJSONPath); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if eng.cfg.StatsOutputDOTPath != "" {
		if err := writeStatsLocked(FormatGraphvizDot, eng.cfg.StatsOutputDOTPath); err != nil {
			result = multierror.Append(result, err)
		}
	}

	eng.initialized.Store(false)
	eng.registry.Close()
	eng.registry = nil
	resetThreadTable()
	return result.ErrorOrNil()
}

// currentRegistry returns the live registry, or nil when the profiler is not
// running.
func currentRegistry() *tree.Registry {
	if !eng.initialized.Load() {
		return nil
	}
	return eng.registry
}

// BytesAllocatedBeforeInit reports the usable bytes of allocations serviced
// before Init.
func BytesAllocatedBeforeInit() uint64 {
	return eng.bytesBeforeInit.Load()
}

// ProfilingStartTime reports when Init registered the main thread. Zero when
// the profiler is not running.
func ProfilingStartTime() time.Time {
	reg := currentRegistry()
	if reg == nil {
		return time.Time{}
	}
	return reg.StartTime()
}
