package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtagkit/mtagkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newTreeCmd())
}

func newTreeCmd() *cobra.Command {
	var minBytes uint64
	cmd := &cobra.Command{
		Use:   "tree <stats.json>",
		Short: "Render a stats document as an indented text tree",
		Long: `The tree command prints every thread's scope tree with per-scope
allocation totals, indented two spaces per nesting level.

Example:
  mtagctl tree profile.0001.json
  mtagctl tree profile.0001.json --min-bytes 4096`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(args[0], minBytes)
		},
	}
	cmd.Flags().Uint64Var(&minBytes, "min-bytes", 0,
		"Collapse subtrees whose total allocation is below this many bytes")
	return cmd
}

func runTree(path string, minBytes uint64) error {
	doc, err := loadStatsDoc(path)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PID %d, profiling since %s\n", doc.PID, doc.StartTime)
	for _, td := range doc.Trees {
		fmt.Fprintf(&b, "thread %q TID=%d nodes=%d/%d pushFailures=%d\n",
			td.Root.Name, td.TID, td.NodesInUse, td.MaxNodes, td.PushFailures)
		writeScopeLines(&b, td.Root, 0, minBytes)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "allocated before init: %s\n", format.PrettyBytes(doc.BytesBeforeInit))
	fmt.Fprintf(&b, "total tracked:         %s\n", format.PrettyBytes(doc.TotalTracked))
	printInfo("%s", b.String())
	return nil
}

func writeScopeLines(b *strings.Builder, sd scopeDoc, level int, minBytes uint64) {
	indent := strings.Repeat("  ", level)
	if level > 0 && sd.TotalAllocated < minBytes {
		fmt.Fprintf(b, "%s%s: <collapsed, total=%s>\n",
			indent, sd.Name, format.PrettyBytes(sd.TotalAllocated))
		return
	}
	fmt.Fprintf(b, "%s%s: total=%s (%s%%) self=%s freed=%s visits=%d\n",
		indent, sd.Name,
		format.PrettyBytes(sd.TotalAllocated), sd.Weight,
		format.PrettyBytes(sd.SelfAllocated), format.PrettyBytes(sd.SelfFreed),
		sd.Visits)
	for _, child := range sd.Children {
		writeScopeLines(b, child, level+1, minBytes)
	}
}
