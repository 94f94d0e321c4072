package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtagkit/mtagkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newJSON2DotCmd())
}

func newJSON2DotCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "json2dot <stats.json>",
		Short: "Convert a JSON stats document to a Graphviz graph",
		Long: `The json2dot command rebuilds the Graphviz rendering from a JSON
stats document, for profiles captured with only the JSON output enabled.

Example:
  mtagctl json2dot profile.0001.json -o profile.dot
  mtagctl json2dot profile.0001.json | dot -Tsvg -o profile.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJSON2Dot(args[0], outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "",
		"Write the graph to this file instead of stdout")
	return cmd
}

func runJSON2Dot(path, outPath string) error {
	doc, err := loadStatsDoc(path)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("digraph MallocTree {\n")
	b.WriteString("node [colorscheme=reds9 style=filled]\n")

	processID := "process_" + strconv.Itoa(doc.PID)
	fmt.Fprintf(&b, "%s [label=\"PID %d\" shape=doubleoctagon fillcolor=white]\n",
		processID, doc.PID)

	for _, td := range doc.Trees {
		fmt.Fprintf(&b, "subgraph cluster_TID%d {\n", td.TID)
		fmt.Fprintf(&b, "label=\"TID %d\"\n", td.TID)
		writeDotNodes(&b, td, td.Root, nil)
		b.WriteString("}\n")
		rootID := format.DotNodeID(strconv.Itoa(td.TID), td.Root.Name)
		fmt.Fprintf(&b, "%s -> %s [label=\"%s%%\"]\n", processID, rootID, td.Root.Weight)
	}

	fmt.Fprintf(&b, "label=\"%s\"\n", format.DotEscapeLabel(strings.Join([]string{
		"Memory allocated before profiler init = " + format.PrettyBytes(doc.BytesBeforeInit),
		"Memory allocated by the profiler itself = " + format.PrettyBytes(doc.SelfUsage),
		"Total memory tracked across all threads = " + format.PrettyBytes(doc.TotalTracked),
	}, "\n")))
	b.WriteString("labelloc=\"b\"\n")
	b.WriteString("}\n")

	if outPath == "" {
		fmt.Print(b.String())
		return nil
	}
	printVerbose("Writing graph: %s\n", outPath)
	return os.WriteFile(outPath, []byte(b.String()), 0o644)
}

func writeDotNodes(b *strings.Builder, td threadDoc, sd scopeDoc, path []string) {
	parentID := ""
	if len(path) > 0 {
		parentID = dotID(td.TID, path)
	}
	path = append(path, sd.Name)
	id := dotID(td.TID, path)

	label := "scope=" + sd.Name
	if parentID == "" {
		label = "thread=" + sd.Name + "\nTID=" + strconv.Itoa(td.TID)
	}
	label += "\ntotal=" + format.PrettyBytes(sd.TotalAllocated) + " (" + sd.Weight + "%)"
	if sd.SelfAllocated != sd.TotalAllocated {
		label += "\nself=" + format.PrettyBytes(sd.SelfAllocated)
	}

	if parentID == "" {
		fmt.Fprintf(b, "%s [label=\"%s\" shape=box]\n", id, format.DotEscapeLabel(label))
	} else {
		fmt.Fprintf(b, "%s [label=\"%s\"]\n", id, format.DotEscapeLabel(label))
		fmt.Fprintf(b, "%s -> %s\n", parentID, id)
	}
	for _, child := range sd.Children {
		writeDotNodes(b, td, child, path)
	}
}

func dotID(tid int, path []string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, strconv.Itoa(tid))
	parts = append(parts, path...)
	return format.DotNodeID(parts...)
}
