package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Suggestions provides autocomplete for the command bar
type Suggestions struct {
	items        []SuggestionItem
	filtered     []SuggestionItem
	selectedIdx  int
	visible      bool
	prefix       string // "/" or "@"
	currentInput string
	projects     []string
	taskIDs      []int64
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
	Type        string // "command", "project", "task"
}

var commandSuggestions = []SuggestionItem{
	{Text: "project", Description: "Select a project directory", Type: "command"},
	{Text: "add", Description: "Create a task: add <title> | <description>", Type: "command"},
	{Text: "exec", Description: "Execute the selected task", Type: "command"},
	{Text: "details", Description: "Show task details in the output", Type: "command"},
	{Text: "archive", Description: "Archive the selected task", Type: "command"},
	{Text: "delete", Description: "Delete the selected task", Type: "command"},
	{Text: "files", Description: "Refresh the project file list", Type: "command"},
	{Text: "filter", Description: "Filter tasks by status", Type: "command"},
	{Text: "chat", Description: "Send a chat message", Type: "command"},
	{Text: "reset", Description: "Reset the chat conversation", Type: "command"},
	{Text: "clear", Description: "Clear the output log", Type: "command"},
	{Text: "refresh", Description: "Refresh every panel", Type: "command"},
	{Text: "quit", Description: "Exit agent7", Type: "command"},
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{items: commandSuggestions}
}

// SetProjects sets the recent project directories offered after "@".
func (s *Suggestions) SetProjects(dirs []string) {
	s.projects = append([]string(nil), dirs...)
}

// SetTasks sets the task ids offered after "@".
func (s *Suggestions) SetTasks(ids []int64) {
	s.taskIDs = append([]int64(nil), ids...)
}

// Update updates suggestions based on current input
func (s *Suggestions) Update(input string) {
	s.currentInput = input
	if input == "" {
		s.hide()
		return
	}

	switch input[0] {
	case '/':
		s.prefix = "/"
		s.items = commandSuggestions
	case '@':
		s.prefix = "@"
		s.items = s.references()
	default:
		s.hide()
		return
	}
	s.visible = true
	s.filter(strings.ToLower(input[1:]))
}

func (s *Suggestions) hide() {
	s.visible = false
	s.filtered = nil
	s.prefix = ""
}

func (s *Suggestions) references() []SuggestionItem {
	items := make([]SuggestionItem, 0, len(s.projects)+len(s.taskIDs))
	for _, dir := range s.projects {
		items = append(items, SuggestionItem{Text: "project " + dir, Description: "Recent project", Type: "project"})
	}
	for _, id := range s.taskIDs {
		items = append(items, SuggestionItem{Text: "details " + strconv.FormatInt(id, 10), Description: "Reference this task", Type: "task"})
	}
	return items
}

func (s *Suggestions) filter(query string) {
	s.selectedIdx = 0
	if query == "" {
		s.filtered = s.items
		return
	}

	s.filtered = []SuggestionItem{}
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Text), query) {
			s.filtered = append(s.filtered, item)
		}
	}
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(max(width-4, 10))

	highlight := lipgloss.NewStyle().
		Background(primaryColor).
		Foreground(fgColor).
		Bold(true)

	itemStyle := lipgloss.NewStyle().Foreground(fgColor)

	header := "💡 Commands"
	if s.prefix == "@" {
		header = "🔗 References"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(header))
	b.WriteString("\n")

	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  ... and %d more", len(s.filtered)-maxVisible)))
			break
		}

		var line string
		if i == s.selectedIdx {
			line = highlight.Render("▶ " + item.Text)
			if item.Description != "" {
				line += " " + highlight.Render(item.Description)
			}
		} else {
			line = itemStyle.Render("  " + item.Text)
			if item.Description != "" {
				line += " " + helpStyle.Render(item.Description)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return boxStyle.Render(b.String())
}
