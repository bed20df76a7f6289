package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/agent7/internal/models"
	"github.com/fentz26/agent7/internal/ui"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))
)

const (
	fieldTitle = iota
	fieldDescription
	fieldType
	fieldPriority
	fieldCount
)

var taskTypes = []string{models.TaskTypeCoding, models.TaskTypePlanning, models.TaskTypeTesting}

// TaskFormModel is the new task form.
type TaskFormModel struct {
	inputs  []textinput.Model
	focus   int
	typeIdx int
}

// NewTaskFormModel creates an empty form.
func NewTaskFormModel() *TaskFormModel {
	m := &TaskFormModel{inputs: make([]textinput.Model, fieldCount)}

	m.inputs[fieldTitle] = textinput.New()
	m.inputs[fieldTitle].Placeholder = "Short title"
	m.inputs[fieldTitle].CharLimit = 200

	m.inputs[fieldDescription] = textinput.New()
	m.inputs[fieldDescription].Placeholder = "What should the agent do?"
	m.inputs[fieldDescription].CharLimit = 2000

	m.inputs[fieldType] = textinput.New()
	m.inputs[fieldType].Placeholder = "←/→ to change"
	m.inputs[fieldType].SetValue(taskTypes[0])

	m.inputs[fieldPriority] = textinput.New()
	m.inputs[fieldPriority].Placeholder = "0"
	m.inputs[fieldPriority].CharLimit = 4
	m.inputs[fieldPriority].Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}

	return m
}

// Focus focuses the first field.
func (m *TaskFormModel) Focus() tea.Cmd {
	m.focus = fieldTitle
	return m.focusCurrent()
}

func (m *TaskFormModel) focusCurrent() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m.inputs[m.focus].Focus()
}

// SetWidth sets the width of every field.
func (m *TaskFormModel) SetWidth(w int) {
	for i := range m.inputs {
		m.inputs[i].Width = w
	}
}

// Values returns the form contents.
func (m *TaskFormModel) Values() ui.TaskForm {
	priority, _ := strconv.Atoi(strings.TrimSpace(m.inputs[fieldPriority].Value()))
	return ui.TaskForm{
		Title:       strings.TrimSpace(m.inputs[fieldTitle].Value()),
		Description: strings.TrimSpace(m.inputs[fieldDescription].Value()),
		TaskType:    taskTypes[m.typeIdx],
		Priority:    priority,
	}
}

// Reset clears the title and description; type and priority are kept.
func (m *TaskFormModel) Reset() {
	m.inputs[fieldTitle].SetValue("")
	m.inputs[fieldDescription].SetValue("")
}

// Update handles field navigation. It reports submit when Enter is pressed
// on the last field.
func (m *TaskFormModel) Update(msg tea.Msg) (submit bool, cmd tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % fieldCount
			return false, m.focusCurrent()
		case "shift+tab", "up":
			m.focus = (m.focus + fieldCount - 1) % fieldCount
			return false, m.focusCurrent()
		case "enter":
			if m.focus == fieldPriority {
				return true, nil
			}
			m.focus++
			return false, m.focusCurrent()
		case "left", "right":
			if m.focus == fieldType {
				step := 1
				if key.String() == "left" {
					step = len(taskTypes) - 1
				}
				m.typeIdx = (m.typeIdx + step) % len(taskTypes)
				m.inputs[fieldType].SetValue(taskTypes[m.typeIdx])
				return false, nil
			}
		}
		if m.focus == fieldType {
			return false, nil
		}
	}

	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return false, cmd
}

// View renders the form.
func (m *TaskFormModel) View() string {
	labels := []string{"Title", "Description", "Type", "Priority"}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("➕ New Task") + "\n\n")
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]) + in.View() + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("Tab:next field | ←/→:type | Enter on priority:create | Esc:cancel"))
	return panelStyle.Render(b.String())
}
