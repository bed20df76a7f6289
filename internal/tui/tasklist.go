package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/agent7/internal/models"
	"github.com/fentz26/agent7/internal/ui"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	statusPending    = lipgloss.NewStyle().Foreground(warningColor)
	statusInProgress = lipgloss.NewStyle().Foreground(cyanColor)
	statusCompleted  = lipgloss.NewStyle().Foreground(successColor)
	statusFailed     = lipgloss.NewStyle().Foreground(errorColor)
)

// taskItem implements list.Item for a rendered task row.
type taskItem struct {
	row ui.TaskRow
}

func (i taskItem) FilterValue() string { return i.row.Title }
func (i taskItem) Title() string       { return fmt.Sprintf("#%d %s", i.row.ID, i.row.Title) }
func (i taskItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.row.TaskType, styleStatusLine(i.row))
	if i.row.ExecuteDisabled {
		desc += " • " + helpStyle.Render("execute disabled")
	}
	return desc
}

func styleStatusLine(row ui.TaskRow) string {
	switch row.Status {
	case models.TaskStatusPending:
		return statusPending.Render(row.StatusLine)
	case models.TaskStatusInProgress:
		return statusInProgress.Render(row.StatusLine)
	case models.TaskStatusCompleted:
		return statusCompleted.Render(row.StatusLine)
	case models.TaskStatusFailed:
		return statusFailed.Render(row.StatusLine)
	default:
		return row.StatusLine
	}
}

var filters = []string{"", "pending", "in_progress", "completed", "failed"}
var filterLabels = []string{"all", "pending", "in progress", "completed", "failed"}

// TaskListModel renders the task list panel.
type TaskListModel struct {
	list        list.Model
	filterIndex int
	empty       string
}

// NewTaskListModel creates an empty task list.
func NewTaskListModel() *TaskListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 40, 10)
	l.Title = "Tasks [all]"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = listTitleStyle

	return &TaskListModel{list: l}
}

// SetSize sets the list dimensions.
func (m *TaskListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// SetView replaces the rows with a freshly rendered task list.
func (m *TaskListModel) SetView(v ui.TaskListView) {
	m.empty = v.Empty
	items := make([]list.Item, len(v.Rows))
	for i, r := range v.Rows {
		items[i] = taskItem{row: r}
	}
	m.list.SetItems(items)
	if idx := m.list.Index(); idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

// Selected returns the highlighted row, or nil for an empty list.
func (m *TaskListModel) Selected() *ui.TaskRow {
	if item, ok := m.list.SelectedItem().(taskItem); ok {
		row := item.row
		return &row
	}
	return nil
}

// CycleFilter advances the status filter and returns the new status.
func (m *TaskListModel) CycleFilter() string {
	m.filterIndex = (m.filterIndex + 1) % len(filters)
	m.list.Title = fmt.Sprintf("Tasks [%s]", filterLabels[m.filterIndex])
	return filters[m.filterIndex]
}

// Update forwards navigation keys to the list.
func (m *TaskListModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

// View renders the task list.
func (m *TaskListModel) View() string {
	if len(m.list.Items()) == 0 && m.empty != "" {
		return listTitleStyle.Render(m.list.Title) + "\n\n  " + helpStyle.Render(m.empty) + "\n"
	}
	return m.list.View()
}

// SetFilter selects status directly. Unknown statuses select all.
func (m *TaskListModel) SetFilter(status string) {
	m.filterIndex = 0
	for i, f := range filters {
		if f == status {
			m.filterIndex = i
		}
	}
	m.list.Title = fmt.Sprintf("Tasks [%s]", filterLabels[m.filterIndex])
}
