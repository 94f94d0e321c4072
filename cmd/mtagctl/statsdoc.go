package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// statsDoc is the parsed form of a JSON stats document.
type statsDoc struct {
	PID          int
	StartTime    string
	SnapshotTime string

	Trees []threadDoc

	BytesBeforeInit uint64
	SelfUsage       uint64
	VMSizeNow       uint64
	VMRSSNow        uint64
	TotalTracked    uint64
}

// threadDoc is one "tree_for_TID<N>" object.
type threadDoc struct {
	TID                  int
	Levels               uint32
	NodesInUse           uint32
	MaxNodes             uint32
	PushFailures         uint64
	FreeTrackingFailures uint64
	VMSizeAtCreation     uint64

	Root scopeDoc
}

// scopeDoc is one scope node with its subtree.
type scopeDoc struct {
	Name           string
	TotalAllocated uint64
	SelfAllocated  uint64
	SelfFreed      uint64
	Weight         string
	Visits         uint64
	Calls          map[string]uint64

	Children []scopeDoc
}

const treeKeyPrefix = "tree_for_TID"

// loadStatsDoc reads and parses a stats document from disk.
func loadStatsDoc(path string) (*statsDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stats document: %w", err)
	}
	root := jsoniter.Get(data)
	if root.ValueType() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("parsing %s: not a JSON object", path)
	}

	doc := &statsDoc{
		PID:             root.Get("PID").ToInt(),
		StartTime:       root.Get("tmStartProfiling").ToString(),
		SnapshotTime:    root.Get("tmCurrentSnapshot").ToString(),
		BytesBeforeInit: root.Get("nBytesAllocBeforeInit").ToUint64(),
		SelfUsage:       root.Get("nBytesMallocTagSelfUsage").ToUint64(),
		VMSizeNow:       root.Get("vmSizeNowBytes").ToUint64(),
		VMRSSNow:        root.Get("vmRSSNowBytes").ToUint64(),
		TotalTracked:    root.Get("nTotalTrackedBytes").ToUint64(),
	}

	keys := root.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if !strings.HasPrefix(key, treeKeyPrefix) {
			continue
		}
		tid, err := strconv.Atoi(strings.TrimPrefix(key, treeKeyPrefix))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: bad tree key %q", path, key)
		}
		td, err := parseThreadDoc(root.Get(key), tid)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		doc.Trees = append(doc.Trees, td)
	}
	return doc, nil
}

// treeMetaFields are the per-tree counters that precede the root scope
// inside a "tree_for_TID<N>" object.
var treeMetaFields = map[string]bool{
	"nTreeLevels":         true,
	"nTreeNodesInUse":     true,
	"nMaxTreeNodes":       true,
	"nPushNodeFailures":   true,
	"nFreeTrackingFailed": true,
	"nVmSizeAtCreation":   true,
}

func parseThreadDoc(obj jsoniter.Any, tid int) (threadDoc, error) {
	td := threadDoc{
		TID:                  tid,
		Levels:               obj.Get("nTreeLevels").ToUint32(),
		NodesInUse:           obj.Get("nTreeNodesInUse").ToUint32(),
		MaxNodes:             obj.Get("nMaxTreeNodes").ToUint32(),
		PushFailures:         obj.Get("nPushNodeFailures").ToUint64(),
		FreeTrackingFailures: obj.Get("nFreeTrackingFailed").ToUint64(),
		VMSizeAtCreation:     obj.Get("nVmSizeAtCreation").ToUint64(),
	}

	rootName := ""
	for _, key := range obj.Keys() {
		if !treeMetaFields[key] {
			rootName = key
			break
		}
	}
	if rootName == "" {
		return td, fmt.Errorf("tree for TID %d has no root scope", tid)
	}
	td.Root = parseScopeDoc(rootName, obj.Get(rootName))
	return td, nil
}

func parseScopeDoc(name string, obj jsoniter.Any) scopeDoc {
	sd := scopeDoc{
		Name:           name,
		TotalAllocated: obj.Get("nBytesTotalAllocated").ToUint64(),
		SelfAllocated:  obj.Get("nBytesSelfAllocated").ToUint64(),
		SelfFreed:      obj.Get("nBytesSelfFreed").ToUint64(),
		Weight:         obj.Get("nWeightPercentage").ToString(),
		Visits:         obj.Get("nTimesEnteredAndExited").ToUint64(),
		Calls:          map[string]uint64{},
	}
	for _, key := range obj.Keys() {
		if strings.HasPrefix(key, "nCallsTo_") {
			sd.Calls[strings.TrimPrefix(key, "nCallsTo_")] = obj.Get(key).ToUint64()
		}
	}
	nested := obj.Get("nestedScopes")
	for _, child := range nested.Keys() {
		sd.Children = append(sd.Children, parseScopeDoc(child, nested.Get(child)))
	}
	return sd
}
