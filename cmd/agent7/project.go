package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/ui"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage the current project",
}

var projectSelectCmd = &cobra.Command{
	Use:   "select [directory]",
	Short: "Select a project directory on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectSelect,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects known to the server",
	RunE:  runProjectList,
}

var projectCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current project",
	RunE:  runProjectCurrent,
}

var projectRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently selected directories",
	RunE:  runProjectRecent,
}

var projectForgetCmd = &cobra.Command{
	Use:   "forget [directory]",
	Short: "Remove a directory from the recent list",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectForget,
}

var recentLimit int

func init() {
	projectCmd.AddCommand(projectSelectCmd, projectListCmd, projectCurrentCmd, projectRecentCmd, projectForgetCmd)

	projectRecentCmd.Flags().IntVar(&recentLimit, "limit", 10, "Maximum number of directories")
}

func runProjectSelect(cmd *cobra.Command, args []string) error {
	var recorder ui.ProjectRecorder
	st, err := openStore()
	if err != nil {
		logger.Warn().Err(err).Msg("recent projects unavailable")
	} else {
		defer st.Close()
		recorder = st
	}

	ctrl := newController(false, recorder)
	if err := ctrl.SelectProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	printOutput(ctrl, 0)

	state := ctrl.State()
	if state.CurrentProjectID != nil {
		fmt.Printf("Project ID: %d\n", *state.CurrentProjectID)
	}
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	projects, err := newClient().ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, p.CreatedAt)
	}
	return w.Flush()
}

func runProjectCurrent(cmd *cobra.Command, args []string) error {
	p, err := newClient().CurrentProject(cmd.Context())
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		fmt.Println(apiErr.Message)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %d\n", p.ID)
	fmt.Printf("Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Printf("Description: %s\n", p.Description)
	}
	return nil
}

func runProjectRecent(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	recent, err := st.RecentProjects(cmd.Context(), recentLimit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("No recent projects")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIRECTORY\tPROJECT\tLAST SELECTED\tTIMES")
	for _, p := range recent {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", p.Directory, p.ProjectID, p.LastSelectedAt.Local().Format("2006-01-02 15:04"), p.TimesSelected)
	}
	return w.Flush()
}

func runProjectForget(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ForgetProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Forgot %s\n", args[0])
	return nil
}
