package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/ui"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// CmdBarModel manages the command input bar
type CmdBarModel struct {
	input   textinput.Model
	focused bool
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.Placeholder = "project <dir> | add <title> | <description> | exec | details | archive | delete"
	ti.CharLimit = 512
	return &CmdBarModel{input: ti}
}

// Focus focuses the command bar
func (m *CmdBarModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur unfocuses the command bar
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
}

// Focused reports whether the bar has focus.
func (m *CmdBarModel) Focused() bool { return m.focused }

// Value returns the current input.
func (m *CmdBarModel) Value() string { return m.input.Value() }

// SetValue replaces the current input.
func (m *CmdBarModel) SetValue(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// SetWidth sets the input width.
func (m *CmdBarModel) SetWidth(w int) { m.input.Width = w }

// Submit returns the current input and blurs
func (m *CmdBarModel) Submit() string {
	val := strings.TrimSpace(strings.TrimPrefix(m.input.Value(), "/"))
	m.Blur()
	return val
}

// Update handles messages
func (m *CmdBarModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the command bar
func (m *CmdBarModel) View() string {
	if m.focused {
		return cmdBarStyle.Render(promptStyle.Render(": ") + m.input.View())
	}
	return cmdBarStyle.Render("Press : to enter a command (/ lists commands, @ lists references)")
}

// Execute runs a command line against the controller. selected returns the
// highlighted task id, or 0 when none is.
func (m *CmdBarModel) Execute(ctx context.Context, ctrl *ui.Controller, input string, selected func() int64) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, cmd))

	taskArg := func() (int64, error) {
		if len(args) > 0 {
			id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid task id %q", args[0])
			}
			return id, nil
		}
		if id := selected(); id != 0 {
			return id, nil
		}
		return 0, errors.New("no task selected")
	}

	if cmd == "q" || cmd == "quit" || cmd == "exit" {
		return tea.Quit
	}

	return func() tea.Msg {
		switch cmd {
		case "project":
			return resultFor(ctrl.SelectProject(ctx, rest), "")

		case "add":
			title, desc, _ := strings.Cut(rest, "|")
			form := ui.TaskForm{Title: strings.TrimSpace(title), Description: strings.TrimSpace(desc)}
			return resultFor(ctrl.CreateTask(ctx, form), "✓ Task created")

		case "exec", "execute", "run":
			id, err := taskArg()
			if err != nil {
				return cmdResultMsg{"Error: " + err.Error()}
			}
			return resultFor(ctrl.ExecuteTask(ctx, id), "")

		case "details", "show":
			id, err := taskArg()
			if err != nil {
				return cmdResultMsg{"Error: " + err.Error()}
			}
			if err := ctrl.ViewTaskDetails(ctx, id); err != nil {
				return cmdResultMsg{"Error: " + api.Message(err)}
			}
			return cmdResultMsg{""}

		case "archive", "delete":
			id, err := taskArg()
			if err != nil {
				return cmdResultMsg{"Error: " + err.Error()}
			}
			op := ctrl.ArchiveTask
			if cmd == "delete" {
				op = ctrl.DeleteTask
			}
			if err := op(ctx, id); err != nil && !errors.Is(err, ui.ErrNotConfirmed) {
				return cmdResultMsg{"Error: " + api.Message(err)}
			} else if err != nil {
				return cmdResultMsg{"Cancelled"}
			}
			return cmdResultMsg{""}

		case "files":
			ctrl.RefreshFiles(ctx)
			return cmdResultMsg{""}

		case "filter":
			status := ""
			if len(args) > 0 && args[0] != "all" {
				status = args[0]
			}
			ctrl.SetStatusFilter(status)
			ctrl.RefreshTasks(ctx)
			return filterSetMsg{status}

		case "chat":
			return resultFor(ctrl.SendChat(ctx, rest), "")

		case "reset":
			return resultFor(ctrl.ResetChat(ctx), "✓ Chat reset")

		case "clear":
			ctrl.ClearOutput()
			return cmdResultMsg{""}

		case "refresh":
			ctrl.RefreshAll(ctx, ui.PartStatus, ui.PartTasks, ui.PartStats, ui.PartFiles)
			return cmdResultMsg{"✓ Refreshed"}

		default:
			return cmdResultMsg{fmt.Sprintf("Unknown: %s (try /, project, add, exec, details)", cmd)}
		}
	}
}

// resultFor maps a controller error to a message bar update. Validation and
// request failures have already been alerted by the controller.
func resultFor(err error, ok string) tea.Msg {
	switch {
	case err == nil:
		return cmdResultMsg{ok}
	case errors.Is(err, ui.ErrNotConfirmed):
		return cmdResultMsg{"Cancelled"}
	case errors.Is(err, ui.ErrEmptyMessage):
		return cmdResultMsg{"Usage: chat <message>"}
	default:
		return cmdResultMsg{""}
	}
}

type cmdResultMsg struct {
	message string
}

type filterSetMsg struct {
	status string
}
