package ui

import (
	"fmt"
	"path"
	"strings"

	"github.com/fentz26/agent7/internal/models"
)

// DetailContentLimit is the number of characters of each result shown by the
// task detail block.
const DetailContentLimit = 500

// DefaultFileListLimit caps the rendered file list.
const DefaultFileListLimit = 50

var banner = strings.Repeat("=", 60)

// StatusView is the rendered status widget.
type StatusView struct {
	LLM        string
	LLMOnline  bool
	Project    string
	HasProject bool
	Execution  string
	Running    bool
}

// RenderStatus maps a status snapshot to the status widget.
func RenderStatus(s models.Status) StatusView {
	v := StatusView{
		LLM:       "❌ Offline",
		Project:   "None",
		Execution: "Idle",
	}
	if s.LocalLLMAvailable {
		v.LLM = "✅ Online"
		v.LLMOnline = true
	}
	if s.CurrentProjectDir != nil && *s.CurrentProjectDir != "" {
		v.Project = *s.CurrentProjectDir
		v.HasProject = true
	}
	if s.ExecutionActive {
		v.Execution = "Running"
		v.Running = true
	}
	return v
}

// Row actions.
const (
	ActionExecute = "execute"
	ActionDetails = "details"
	ActionArchive = "archive"
	ActionDelete  = "delete"
)

// TaskRow is one rendered task list entry.
type TaskRow struct {
	ID              int64
	Title           string
	TaskType        string
	Status          models.TaskStatus
	StatusLine      string
	ExecuteDisabled bool
	Actions         []string
}

// TaskListView is the rendered task list.
type TaskListView struct {
	Rows []TaskRow
	// Empty is shown instead of rows when there are none.
	Empty string
}

// RenderTasks maps tasks to rows. Execute is disabled for a row in progress
// and for every row while an execution is active.
func RenderTasks(tasks []models.Task, executionActive bool) TaskListView {
	if len(tasks) == 0 {
		return TaskListView{Empty: "No tasks yet. Create one!"}
	}

	rows := make([]TaskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = TaskRow{
			ID:              t.ID,
			Title:           t.Title,
			TaskType:        t.TaskType,
			Status:          t.Status,
			StatusLine:      fmt.Sprintf("Status: %s %s | Priority: %d", StatusEmoji(t.Status), t.Status, t.Priority),
			ExecuteDisabled: t.Status == models.TaskStatusInProgress || executionActive,
			Actions:         []string{ActionExecute, ActionDetails, ActionArchive, ActionDelete},
		}
	}
	return TaskListView{Rows: rows}
}

// StatsView is the rendered stats widget.
type StatsView struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Failed     int
	ByType     map[string]int
}

// RenderStats copies the counts into the stats widget.
func RenderStats(s models.Stats) StatsView {
	v := StatsView{
		Total:      s.TotalTasks,
		Pending:    s.Pending,
		InProgress: s.InProgress,
		Completed:  s.Completed,
		Failed:     s.Failed,
	}
	if len(s.ByType) > 0 {
		v.ByType = make(map[string]int, len(s.ByType))
		for k, n := range s.ByType {
			v.ByType[k] = n
		}
	}
	return v
}

// FileRow is one rendered file entry.
type FileRow struct {
	Icon string
	Path string
}

// FilesView is the rendered file list.
type FilesView struct {
	Rows []FileRow
	// More is set when entries beyond the limit were dropped.
	More  bool
	Empty string
}

// MoreIndicator is rendered after a truncated file list.
const MoreIndicator = "... and more"

// RenderFiles shows at most limit files.
func RenderFiles(files []models.FileEntry, limit int) FilesView {
	if len(files) == 0 {
		return FilesView{Empty: "No files"}
	}
	if limit <= 0 {
		limit = DefaultFileListLimit
	}

	shown := files
	if len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([]FileRow, len(shown))
	for i, f := range shown {
		rows[i] = FileRow{Icon: FileIcon(f.Name), Path: f.Path}
	}
	return FilesView{Rows: rows, More: len(files) > limit}
}

// FormatTaskDetail renders the detail block appended to the output log.
func FormatTaskDetail(d models.TaskDetail) []string {
	out := []string{
		"\n" + banner + "\n",
		fmt.Sprintf("📋 Task Details: %s\n", d.Task.Title),
		banner + "\n",
		fmt.Sprintf("Type: %s\n", d.Task.TaskType),
		fmt.Sprintf("Status: %s\n", d.Task.Status),
		fmt.Sprintf("Description: %s\n", d.Task.Description),
	}

	if len(d.Results) > 0 {
		out = append(out, "\nResults:\n")
		for _, r := range d.Results {
			out = append(out,
				fmt.Sprintf("\n[%s] %s\n", r.ResultType, r.CreatedAt),
				Truncate(r.Content, DetailContentLimit)+"\n",
			)
		}
	}

	if len(d.FileModifications) > 0 {
		out = append(out, "\nFiles Modified:\n")
		for _, fm := range d.FileModifications {
			out = append(out, fmt.Sprintf("  • %s (%s)\n", fm.Filepath, fm.Action))
		}
	}

	return append(out, banner+"\n\n")
}

// ExecutionBanner is appended when an execution starts.
func ExecutionBanner(taskID int64) []string {
	return []string{
		"\n" + banner + "\n",
		fmt.Sprintf("🚀 Executing task %d\n", taskID),
		banner + "\n\n",
	}
}

// Truncate shortens s to n characters, appending "..." only when something
// was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// StatusEmoji returns the icon shown next to a task status.
func StatusEmoji(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusPending:
		return "⏳"
	case models.TaskStatusInProgress:
		return "🔄"
	case models.TaskStatusCompleted:
		return "✅"
	case models.TaskStatusFailed:
		return "❌"
	default:
		return "❓"
	}
}

var fileIcons = map[string]string{
	"py":   "🐍",
	"js":   "📜",
	"html": "🌐",
	"css":  "🎨",
	"json": "📋",
	"md":   "📝",
	"txt":  "📄",
	"yml":  "⚙️",
	"yaml": "⚙️",
}

// FileIcon picks an icon from the file extension.
func FileIcon(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if icon, ok := fileIcons[ext]; ok {
		return icon
	}
	return "📄"
}
