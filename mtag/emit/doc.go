// Package emit renders profiling snapshots into their output formats.
//
// Every renderer is a tree.Visitor driven by the registry while each tree's
// structural lock is held, so renderers see a consistent, freshly aggregated
// forest. Formats:
//
//   - JSON: the machine-readable stats document (json-iterator stream writer,
//     fields in a fixed order so goldens stay stable).
//   - Graphviz DOT: one digraph with a subgraph per thread tree, colored by
//     each scope's self-weight.
//   - Human tree: indented text, small subtrees collapsed.
//   - Flat map: string key -> uint64 counter pairs for programmatic
//     consumption.
//
// Emission allocates freely; callers are expected to have profiling hooks
// disabled on the calling thread for the duration.
package emit
