// Package metrics exposes the profiler's scope forest as Prometheus
// metrics. Register a Collector with any prometheus.Registerer; every
// scrape walks the live trees.
package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mtagkit/mtagkit/mtag"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

const namespace = "mtag"

// Collector translates the scope forest into constant metrics at scrape
// time. Safe for concurrent scrapes; each scrape takes its own walk.
type Collector struct {
	trees           *prometheus.Desc
	bytesBeforeInit *prometheus.Desc
	selfUsage       *prometheus.Desc

	nodesInUse           *prometheus.Desc
	pushFailures         *prometheus.Desc
	freeTrackingFailures *prometheus.Desc

	scopeTotalBytes *prometheus.Desc
	scopeSelfBytes  *prometheus.Desc
	scopeFreedBytes *prometheus.Desc
	scopeVisits     *prometheus.Desc
	scopeCalls      *prometheus.Desc
}

// NewCollector creates a Collector. The zero-argument constructor is all the
// configuration there is; limits and output formats stay with the mtag
// package.
func NewCollector() *Collector {
	treeLabels := []string{"tid"}
	scopeLabels := []string{"tid", "scope"}
	return &Collector{
		trees: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "trees"),
			"Number of registered per-thread scope trees.", nil, nil),
		bytesBeforeInit: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bytes_before_init"),
			"Usable bytes allocated before the profiler was initialized.", nil, nil),
		selfUsage: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "self_usage_bytes"),
			"Memory used by the profiler's own bookkeeping.", nil, nil),
		nodesInUse: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "tree", "nodes_in_use"),
			"Scope nodes currently acquired from the tree's pool.", treeLabels, nil),
		pushFailures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "tree", "push_failures_total"),
			"Scope entries rejected by depth, pool or fanout limits.", treeLabels, nil),
		freeTrackingFailures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "tree", "free_tracking_failures_total"),
			"Frees whose bytes could not be credited to the current scope.", treeLabels, nil),
		scopeTotalBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "scope", "allocated_bytes_total"),
			"Usable bytes allocated in the scope and its descendants.", scopeLabels, nil),
		scopeSelfBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "scope", "self_allocated_bytes_total"),
			"Usable bytes allocated directly in the scope.", scopeLabels, nil),
		scopeFreedBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "scope", "self_freed_bytes_total"),
			"Usable bytes freed directly in the scope.", scopeLabels, nil),
		scopeVisits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "scope", "visits_total"),
			"Times the scope was entered and exited.", scopeLabels, nil),
		scopeCalls: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "scope", "calls_total"),
			"Allocation primitive calls made directly in the scope.",
			[]string{"tid", "scope", "primitive"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.trees
	ch <- c.bytesBeforeInit
	ch <- c.selfUsage
	ch <- c.nodesInUse
	ch <- c.pushFailures
	ch <- c.freeTrackingFailures
	ch <- c.scopeTotalBytes
	ch <- c.scopeSelfBytes
	ch <- c.scopeFreedBytes
	ch <- c.scopeVisits
	ch <- c.scopeCalls
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	v := &collectVisitor{c: c, ch: ch}
	mtag.VisitTrees(v)
	ch <- prometheus.MustNewConstMetric(c.trees, prometheus.GaugeValue, float64(v.trees))
	ch <- prometheus.MustNewConstMetric(c.bytesBeforeInit, prometheus.GaugeValue,
		float64(mtag.BytesAllocatedBeforeInit()))
	ch <- prometheus.MustNewConstMetric(c.selfUsage, prometheus.GaugeValue,
		float64(mtag.ProfilerSelfUsage()))
}

type collectVisitor struct {
	c  *Collector
	ch chan<- prometheus.Metric

	trees int
	tid   string
	path  []string
}

func (v *collectVisitor) EnterTree(t *tree.Tree) {
	v.trees++
	v.tid = strconv.Itoa(t.TID())
	v.path = v.path[:0]
	v.ch <- prometheus.MustNewConstMetric(v.c.nodesInUse, prometheus.GaugeValue,
		float64(t.NodesInUse()), v.tid)
	v.ch <- prometheus.MustNewConstMetric(v.c.pushFailures, prometheus.CounterValue,
		float64(t.PushFailures()), v.tid)
	v.ch <- prometheus.MustNewConstMetric(v.c.freeTrackingFailures, prometheus.CounterValue,
		float64(t.FreeTrackingFailures()), v.tid)
}

func (v *collectVisitor) EnterNode(n *tree.Node) bool {
	v.path = append(v.path, n.Name())
	scope := strings.Join(v.path, ".")

	v.ch <- prometheus.MustNewConstMetric(v.c.scopeTotalBytes, prometheus.CounterValue,
		float64(n.TotalAllocated()), v.tid, scope)
	v.ch <- prometheus.MustNewConstMetric(v.c.scopeSelfBytes, prometheus.CounterValue,
		float64(n.SelfAllocated()), v.tid, scope)
	v.ch <- prometheus.MustNewConstMetric(v.c.scopeFreedBytes, prometheus.CounterValue,
		float64(n.SelfFreed()), v.tid, scope)
	v.ch <- prometheus.MustNewConstMetric(v.c.scopeVisits, prometheus.CounterValue,
		float64(n.Visits()), v.tid, scope)
	for _, p := range tree.Primitives() {
		v.ch <- prometheus.MustNewConstMetric(v.c.scopeCalls, prometheus.CounterValue,
			float64(n.Calls(p)), v.tid, scope, p.String())
	}
	return true
}

func (v *collectVisitor) LeaveNode(*tree.Node) {
	v.path = v.path[:len(v.path)-1]
}

func (v *collectVisitor) LeaveTree(*tree.Tree) {}
