package metrics

import (
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtagkit/mtagkit/mtag"
)

func TestCollectorGathers(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	require.NoError(t, mtag.InitDefault())
	defer mtag.Shutdown()

	sc := mtag.NewScope("scrape")
	p := mtag.Malloc(8192)
	sc.Close()
	defer mtag.Free(p)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector()))

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]bool{}
	for _, f := range families {
		got[f.GetName()] = true
	}
	assert.True(t, got["mtag_trees"])
	assert.True(t, got["mtag_scope_allocated_bytes_total"])
	assert.True(t, got["mtag_scope_calls_total"])
	assert.True(t, got["mtag_tree_nodes_in_use"])
	assert.True(t, got["mtag_self_usage_bytes"])

	for _, f := range families {
		if f.GetName() != "mtag_scope_self_allocated_bytes_total" {
			continue
		}
		found := false
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "scope" && len(l.GetValue()) > 0 {
					found = true
				}
			}
		}
		assert.True(t, found, "scope label carries the path")
	}
}

func TestCollectorBeforeInit(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector()))
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() == "mtag_trees" {
			require.Len(t, f.GetMetric(), 1)
			assert.Zero(t, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
