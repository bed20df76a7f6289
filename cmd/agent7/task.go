package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/ui"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task to the current project",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskExecCmd = &cobra.Command{
	Use:   "exec [task-id]",
	Short: "Execute a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskExec,
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive [task-id]",
	Short: "Archive a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskArchive,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var (
	taskTitle    string
	taskDesc     string
	taskType     string
	taskPriority int
	taskStatus   string
	taskProject  int64
	followExec   bool
	assumeYes    bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskExecCmd, taskArchiveCmd, taskDeleteCmd)

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description (required)")
	taskAddCmd.Flags().StringVar(&taskType, "type", "coding", "Task type (planning, coding, testing)")
	taskAddCmd.Flags().IntVar(&taskPriority, "priority", 0, "Task priority")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, in_progress, completed, failed)")
	taskListCmd.Flags().Int64Var(&taskProject, "project", 0, "Project id (default: the server's current project)")

	taskExecCmd.Flags().BoolVarP(&followExec, "follow", "f", false, "Stream output until the execution completes")

	taskArchiveCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	taskDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctrl := newController(false, nil)
	// Adopt the server's current project.
	ctrl.RefreshStatus(cmd.Context())

	err := ctrl.CreateTask(cmd.Context(), ui.TaskForm{
		Title:       taskTitle,
		Description: taskDesc,
		TaskType:    taskType,
		Priority:    taskPriority,
	})
	if err != nil {
		return err
	}
	printOutput(ctrl, 0)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	client := newClient()

	filter := api.TaskFilter{Status: taskStatus}
	if taskProject > 0 {
		filter.ProjectID = &taskProject
	} else if status, err := client.Status(cmd.Context()); err == nil && status.CurrentProjectID != nil {
		filter.ProjectID = status.CurrentProjectID
	}

	tasks, err := client.ListTasks(cmd.Context(), filter)
	if err != nil {
		return err
	}

	v := ui.RenderTasks(tasks, false)
	if len(v.Rows) == 0 {
		fmt.Println(v.Empty)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSTATUS\tPRIORITY")
	for i, r := range v.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\t%d\n", r.ID, ui.Truncate(r.Title, 40), r.TaskType, ui.StatusEmoji(r.Status), r.Status, tasks[i].Priority)
	}
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	detail, err := newClient().GetTask(cmd.Context(), id)
	if err != nil {
		return err
	}
	for _, line := range ui.FormatTaskDetail(*detail) {
		fmt.Print(line)
	}
	return nil
}

func runTaskExec(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	ctrl := newController(false, nil)
	ctrl.RefreshStatus(cmd.Context())

	if !followExec {
		if err := ctrl.ExecuteTask(cmd.Context(), id); err != nil {
			return err
		}
		printOutput(ctrl, 0)
		return nil
	}

	// Subscribe before starting so no output is missed.
	return follow(cmd.Context(), ctrl, true, func() error {
		return ctrl.ExecuteTask(cmd.Context(), id)
	})
}

func runTaskArchive(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	ctrl := newController(assumeYes, nil)
	if err := ctrl.ArchiveTask(cmd.Context(), id); err != nil {
		printOutput(ctrl, 0)
		return err
	}
	printOutput(ctrl, 0)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	ctrl := newController(assumeYes, nil)
	if err := ctrl.DeleteTask(cmd.Context(), id); err != nil {
		printOutput(ctrl, 0)
		return err
	}
	printOutput(ctrl, 0)
	return nil
}
