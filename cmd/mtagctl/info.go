package main

import (
	"github.com/spf13/cobra"

	"github.com/mtagkit/mtagkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <stats.json>",
		Short: "Summarize a stats document",
		Long: `The info command prints the process-level metadata of a stats
document: PID, profiling window, thread count and the tracked totals.

Example:
  mtagctl info profile.0001.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

func runInfo(path string) error {
	printVerbose("Loading stats document: %s\n", path)
	doc, err := loadStatsDoc(path)
	if err != nil {
		return err
	}

	printInfo("PID:                  %d\n", doc.PID)
	printInfo("Profiling since:      %s\n", doc.StartTime)
	printInfo("Snapshot taken:       %s\n", doc.SnapshotTime)
	printInfo("Threads profiled:     %d\n", len(doc.Trees))
	printInfo("Total tracked:        %s\n", format.PrettyBytes(doc.TotalTracked))
	printInfo("Allocated before init: %s\n", format.PrettyBytes(doc.BytesBeforeInit))
	printInfo("Profiler self usage:  %s\n", format.PrettyBytes(doc.SelfUsage))
	printInfo("VmSize at snapshot:   %s\n", format.PrettyBytes(doc.VMSizeNow))
	printInfo("VmRSS at snapshot:    %s\n", format.PrettyBytes(doc.VMRSSNow))

	for _, td := range doc.Trees {
		printInfo("\nThread %q TID=%d:\n", td.Root.Name, td.TID)
		printInfo("  Levels reached:   %d\n", td.Levels)
		printInfo("  Nodes in use:     %d/%d\n", td.NodesInUse, td.MaxNodes)
		printInfo("  Push failures:    %d\n", td.PushFailures)
		printInfo("  Free track fails: %d\n", td.FreeTrackingFailures)
		printInfo("  Allocated:        %s (%s%%)\n",
			format.PrettyBytes(td.Root.TotalAllocated), td.Root.Weight)
	}
	return nil
}
