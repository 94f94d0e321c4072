package emit

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/mtagkit/mtagkit/internal/format"
	"github.com/mtagkit/mtagkit/mtag/tree"
)

// JSON renders the full stats document:
//
//	{
//	  "PID": 1234,
//	  "tmStartProfiling": "...",
//	  "tmCurrentSnapshot": "...",
//	  "tree_for_TID1234": {
//	    "nTreeLevels": 2, "nTreeNodesInUse": 3, ...,
//	    "main": { "nBytesTotalAllocated": ..., "nestedScopes": { ... } }
//	  },
//	  "nBytesAllocBeforeInit": ...,
//	  "nBytesMallocTagSelfUsage": ...,
//	  "vmSizeNowBytes": ...,
//	  "vmRSSNowBytes": ...,
//	  "nTotalTrackedBytes": ...
//	}
func JSON(reg *tree.Registry, meta Meta) (string, error) {
	cfg := jsoniter.ConfigCompatibleWithStandardLibrary
	s := cfg.BorrowStream(nil)
	defer cfg.ReturnStream(s)

	s.WriteObjectStart()
	s.WriteObjectField("PID")
	s.WriteInt(meta.PID)
	s.WriteMore()
	s.WriteObjectField("tmStartProfiling")
	s.WriteString(meta.StartTime.Format(timeFormat))
	s.WriteMore()
	s.WriteObjectField("tmCurrentSnapshot")
	s.WriteString(meta.Now.Format(timeFormat))

	reg.Collect(&jsonVisitor{s: s})

	s.WriteMore()
	s.WriteObjectField("nBytesAllocBeforeInit")
	s.WriteUint64(meta.BytesBeforeInit)
	s.WriteMore()
	s.WriteObjectField("nBytesMallocTagSelfUsage")
	s.WriteUint64(meta.SelfUsage)
	s.WriteMore()
	s.WriteObjectField("vmSizeNowBytes")
	s.WriteUint64(meta.VMSizeNow)
	s.WriteMore()
	s.WriteObjectField("vmRSSNowBytes")
	s.WriteUint64(meta.VMRSSNow)
	s.WriteMore()
	s.WriteObjectField("nTotalTrackedBytes")
	s.WriteUint64(meta.TotalTracked)
	s.WriteObjectEnd()

	if s.Error != nil {
		return "", s.Error
	}
	return string(s.Buffer()), nil
}

// jsonVisitor streams one "tree_for_TID<N>" object per tree. The firstChild
// stack tracks comma placement inside each nestedScopes object.
type jsonVisitor struct {
	s          *jsoniter.Stream
	firstChild []bool
}

func (v *jsonVisitor) EnterTree(t *tree.Tree) {
	s := v.s
	s.WriteMore()
	s.WriteObjectField("tree_for_TID" + strconv.Itoa(t.TID()))
	s.WriteObjectStart()
	s.WriteObjectField("nTreeLevels")
	s.WriteUint32(t.LevelsReached())
	s.WriteMore()
	s.WriteObjectField("nTreeNodesInUse")
	s.WriteUint32(t.NodesInUse())
	s.WriteMore()
	s.WriteObjectField("nMaxTreeNodes")
	s.WriteUint32(t.MaxNodes())
	s.WriteMore()
	s.WriteObjectField("nPushNodeFailures")
	s.WriteUint64(t.PushFailures())
	s.WriteMore()
	s.WriteObjectField("nFreeTrackingFailed")
	s.WriteUint64(t.FreeTrackingFailures())
	s.WriteMore()
	s.WriteObjectField("nVmSizeAtCreation")
	s.WriteUint64(t.VMSizeAtCreation())
	// The root node object follows the meta fields, so it needs a comma.
	v.firstChild = append(v.firstChild, false)
}

func (v *jsonVisitor) EnterNode(n *tree.Node) bool {
	s := v.s
	top := len(v.firstChild) - 1
	if v.firstChild[top] {
		v.firstChild[top] = false
	} else {
		s.WriteMore()
	}
	s.WriteObjectField(n.Name())
	s.WriteObjectStart()
	s.WriteObjectField("nBytesTotalAllocated")
	s.WriteUint64(n.TotalAllocated())
	s.WriteMore()
	s.WriteObjectField("nBytesSelfAllocated")
	s.WriteUint64(n.SelfAllocated())
	s.WriteMore()
	s.WriteObjectField("nBytesSelfFreed")
	s.WriteUint64(n.SelfFreed())
	s.WriteMore()
	s.WriteObjectField("nWeightPercentage")
	s.WriteRaw(format.WeightPercent(n.WeightTotal()))
	s.WriteMore()
	s.WriteObjectField("nTimesEnteredAndExited")
	s.WriteUint64(n.Visits())
	for _, p := range tree.Primitives() {
		s.WriteMore()
		s.WriteObjectField("nCallsTo_" + p.String())
		s.WriteUint64(n.Calls(p))
	}
	s.WriteMore()
	s.WriteObjectField("nestedScopes")
	s.WriteObjectStart()
	v.firstChild = append(v.firstChild, true)
	return true
}

func (v *jsonVisitor) LeaveNode(*tree.Node) {
	v.firstChild = v.firstChild[:len(v.firstChild)-1]
	v.s.WriteObjectEnd() // nestedScopes
	v.s.WriteObjectEnd() // node
}

func (v *jsonVisitor) LeaveTree(*tree.Tree) {
	v.firstChild = v.firstChild[:len(v.firstChild)-1]
	v.s.WriteObjectEnd()
}
