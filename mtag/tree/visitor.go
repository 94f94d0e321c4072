package tree

// Visitor is the read-only contract the emitters consume. The registry (or a
// single tree) drives it while holding each tree's structural lock, so a
// visitor may read derived node fields freely but must not retain nodes past
// the walk.
//
// EnterNode returns whether to descend into the node's children; LeaveNode is
// only invoked for nodes whose EnterNode returned true.
type Visitor interface {
	EnterTree(t *Tree)
	EnterNode(n *Node) bool
	LeaveNode(n *Node)
	LeaveTree(t *Tree)
}
