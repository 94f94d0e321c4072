package emit

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

// fixtureRegistry builds a registry with one tree:
//
//	<root> (self 100B)
//	  parse (self 2000B, freed 500B)
//	    tokenize (self 400B)
func fixtureRegistry(t *testing.T) (*tree.Registry, *tree.Tree) {
	t.Helper()
	reg := tree.NewRegistry(nil)
	tr, err := reg.RegisterMain(16, 16)
	require.NoError(t, err)

	tr.TrackAlloc(tree.Malloc, 100)
	require.True(t, tr.Push("parse"))
	tr.TrackAlloc(tree.Malloc, 1500)
	tr.TrackAlloc(tree.Calloc, 500)
	tr.TrackFree(tree.Free, 500)
	require.True(t, tr.Push("tokenize"))
	tr.TrackAlloc(tree.Realloc, 400)
	tr.Pop()
	tr.Pop()
	return reg, tr
}

func fixtureMeta() Meta {
	start, _ := time.Parse(time.RFC3339, "2026-08-06T10:00:00Z")
	return Meta{
		PID:             4242,
		StartTime:       start,
		Now:             start.Add(90 * time.Second),
		BytesBeforeInit: 777,
		SelfUsage:       12345,
		VMSizeNow:       5000000,
		VMRSSNow:        3000000,
		TotalTracked:    2500,
	}
}

func TestStatsMapKeys(t *testing.T) {
	reg, tr := fixtureRegistry(t)
	m := StatsMap(reg)

	tid := tr.TID()
	root := tr.Root().Name()

	assert.Equal(t, uint64(1), m[".nTrees"])
	assert.Equal(t, uint64(3), m[format.TreeMetaKey(tid, "nTreeNodesInUse")])
	assert.Equal(t, uint64(16), m[format.TreeMetaKey(tid, "nMaxTreeNodes")])
	assert.Equal(t, uint64(0), m[format.TreeMetaKey(tid, "nPushNodeFailures")])

	assert.Equal(t, uint64(2500), m[format.ScopeKey(tid, root, "nBytesTotalAllocated")])
	assert.Equal(t, uint64(100), m[format.ScopeKey(tid, root, "nBytesSelfAllocated")])

	parse := root + ".parse"
	assert.Equal(t, uint64(2400), m[format.ScopeKey(tid, parse, "nBytesTotalAllocated")])
	assert.Equal(t, uint64(2000), m[format.ScopeKey(tid, parse, "nBytesSelfAllocated")])
	assert.Equal(t, uint64(500), m[format.ScopeKey(tid, parse, "nBytesSelfFreed")])
	assert.Equal(t, uint64(1), m[format.ScopeKey(tid, parse, "nCallsTo_malloc")])
	assert.Equal(t, uint64(1), m[format.ScopeKey(tid, parse, "nCallsTo_calloc")])
	assert.Equal(t, uint64(1), m[format.ScopeKey(tid, parse, "nCallsTo_free")])

	tok := parse + ".tokenize"
	assert.Equal(t, uint64(400), m[format.ScopeKey(tid, tok, "nBytesSelfAllocated")])
	assert.Equal(t, uint64(1), m[format.ScopeKey(tid, tok, "nCallsTo_realloc")])
	assert.Equal(t, uint64(1), m[format.ScopeKey(tid, tok, "nTimesEnteredAndExited")])
}

func TestJSONDocument(t *testing.T) {
	reg, tr := fixtureRegistry(t)
	doc, err := JSON(reg, fixtureMeta())
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed), "document must be valid JSON")

	assert.Equal(t, float64(4242), parsed["PID"])
	assert.Equal(t, "2026-08-06T10:00:00Z", parsed["tmStartProfiling"])
	assert.Equal(t, "2026-08-06T10:01:30Z", parsed["tmCurrentSnapshot"])
	assert.Equal(t, float64(777), parsed["nBytesAllocBeforeInit"])
	assert.Equal(t, float64(12345), parsed["nBytesMallocTagSelfUsage"])
	assert.Equal(t, float64(2500), parsed["nTotalTrackedBytes"])

	treeObj, ok := parsed["tree_for_TID"+itoa(tr.TID())].(map[string]interface{})
	require.True(t, ok, "per-thread tree object present")
	assert.Equal(t, float64(3), treeObj["nTreeNodesInUse"])
	assert.Equal(t, float64(2), treeObj["nTreeLevels"])

	rootObj, ok := treeObj[tr.Root().Name()].(map[string]interface{})
	require.True(t, ok, "root scope nested in the tree object")
	assert.Equal(t, float64(2500), rootObj["nBytesTotalAllocated"])
	assert.Equal(t, float64(100), rootObj["nWeightPercentage"])

	nested, ok := rootObj["nestedScopes"].(map[string]interface{})
	require.True(t, ok)
	parseObj, ok := nested["parse"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2400), parseObj["nBytesTotalAllocated"])
	assert.Equal(t, float64(96), parseObj["nWeightPercentage"])
	assert.Equal(t, float64(1), parseObj["nCallsTo_malloc"])

	inner, ok := parseObj["nestedScopes"].(map[string]interface{})
	require.True(t, ok)
	_, ok = inner["tokenize"].(map[string]interface{})
	assert.True(t, ok)
}

func TestDOTDocument(t *testing.T) {
	reg, tr := fixtureRegistry(t)
	doc, err := DOT(reg, fixtureMeta())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "digraph MallocTree {\n"))
	assert.Contains(t, doc, "node [colorscheme=reds9 style=filled]")
	assert.Contains(t, doc, "process_4242 [label=\"PID 4242\" shape=doubleoctagon")
	assert.Contains(t, doc, "subgraph cluster_TID"+itoa(tr.TID()))

	rootID := format.DotNodeID(itoa(tr.TID()), tr.Root().Name())
	assert.Contains(t, doc, "process_4242 -> "+rootID+" [label=\"100%\"]")

	parseID := format.DotNodeID(itoa(tr.TID()), tr.Root().Name(), "parse")
	tokID := format.DotNodeID(itoa(tr.TID()), tr.Root().Name(), "parse", "tokenize")
	assert.Contains(t, doc, rootID+" -> "+parseID)
	assert.Contains(t, doc, parseID+" -> "+tokID)

	assert.Contains(t, doc, "Memory allocated before profiler init = 777B")
	assert.Contains(t, doc, "labelloc=\"b\"")
	assert.True(t, strings.HasSuffix(doc, "}\n"))
}

func TestHumanDocument(t *testing.T) {
	reg, tr := fixtureRegistry(t)
	doc, err := Human(reg, fixtureMeta())
	require.NoError(t, err)

	assert.Contains(t, doc, "PID 4242, profiling since 2026-08-06T10:00:00Z")
	assert.Contains(t, doc, "TID="+itoa(tr.TID()))
	assert.Contains(t, doc, "\n  parse: total=2kB (96%) self=2kB freed=500B visits=1\n")

	// 400B is under the collapse threshold.
	assert.Contains(t, doc, "    tokenize: <collapsed, total=400B>")
	assert.Contains(t, doc, "allocated before init: 777B")
	assert.Contains(t, doc, "total tracked:         2kB")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
