package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fentz26/agent7/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	RunE:  runStatus,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	RunE:  runStats,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List files of the current project",
	RunE:  runFiles,
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := newClient().Status(cmd.Context())
	if err != nil {
		return err
	}

	v := ui.RenderStatus(*status)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Server:\t%s\n", cfg.Server)
	fmt.Fprintf(w, "Local LLM:\t%s\n", v.LLM)
	fmt.Fprintf(w, "Project:\t%s\n", v.Project)
	if status.CurrentProjectID != nil {
		fmt.Fprintf(w, "Project ID:\t%d\n", *status.CurrentProjectID)
	}
	fmt.Fprintf(w, "Execution:\t%s\n", v.Execution)
	fmt.Fprintf(w, "Projects:\t%d\n", status.TotalProjects)
	fmt.Fprintf(w, "Tasks:\t%d (%d pending)\n", status.TotalTasks, status.PendingTasks)
	return w.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := newClient().Stats(cmd.Context())
	if err != nil {
		return err
	}

	v := ui.RenderStats(*stats)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total:\t%d\n", v.Total)
	fmt.Fprintf(w, "Pending:\t%d\n", v.Pending)
	fmt.Fprintf(w, "In progress:\t%d\n", v.InProgress)
	fmt.Fprintf(w, "Completed:\t%d\n", v.Completed)
	fmt.Fprintf(w, "Failed:\t%d\n", v.Failed)

	types := make([]string, 0, len(v.ByType))
	for t := range v.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %s:\t%d\n", t, v.ByType[t])
	}
	return w.Flush()
}

func runFiles(cmd *cobra.Command, args []string) error {
	files, err := newClient().Files(cmd.Context())
	if err != nil {
		return err
	}

	v := ui.RenderFiles(files, cfg.FileListLimit)
	if len(v.Rows) == 0 {
		fmt.Println(v.Empty)
		return nil
	}
	for _, r := range v.Rows {
		fmt.Printf("%s %s\n", r.Icon, r.Path)
	}
	if v.More {
		fmt.Println(ui.MoreIndicator)
	}
	return nil
}
