package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/agent7/internal/models"
	"github.com/fentz26/agent7/internal/ui"
)

var (
	chatUserStyle      = lipgloss.NewStyle().Foreground(cyanColor).Bold(true)
	chatAssistantStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	chatSystemStyle    = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	chatActionStyle    = lipgloss.NewStyle().Foreground(successColor)
)

// ChatModel is the chat panel: the message log and the composer.
type ChatModel struct {
	composer textarea.Model
	width    int
	height   int
}

// NewChatModel creates the chat panel.
func NewChatModel() *ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask Agent7... (Ctrl+Enter or Ctrl+J to send)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(3)
	return &ChatModel{composer: ta}
}

// SetSize sets the panel dimensions.
func (m *ChatModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.composer.SetWidth(max(w-4, 10))
}

// Focus focuses the composer.
func (m *ChatModel) Focus() tea.Cmd { return m.composer.Focus() }

// Blur unfocuses the composer.
func (m *ChatModel) Blur() { m.composer.Blur() }

// Value returns the composer text.
func (m *ChatModel) Value() string { return m.composer.Value() }

// HandleKey feeds key to the composer. On a submit chord it clears the
// composer and returns its text with submit set; plain Enter inserts a
// newline.
func (m *ChatModel) HandleKey(key tea.KeyMsg) (text string, submit bool, cmd tea.Cmd) {
	if ui.ShouldSubmitChat(key.String()) {
		text = m.composer.Value()
		if strings.TrimSpace(text) == "" {
			return "", false, nil
		}
		m.composer.Reset()
		return text, true, nil
	}
	m.composer, cmd = m.composer.Update(key)
	return "", false, cmd
}

// View renders the last messages that fit and the composer.
func (m *ChatModel) View(msgs []models.ChatMessage, focused bool) string {
	logHeight := max(m.height-m.composer.Height()-3, 1)

	var lines []string
	for _, msg := range msgs {
		lines = append(lines, renderChatMessage(msg))
	}
	if len(lines) > logHeight {
		lines = lines[len(lines)-logHeight:]
	}

	style := panelStyle
	if focused {
		style = inputBoxStyle
	}
	body := strings.Join(lines, "\n") + "\n" + m.composer.View()
	return style.Width(max(m.width-2, 10)).Render(body)
}

func renderChatMessage(msg models.ChatMessage) string {
	switch msg.Type {
	case models.ChatMessageUser:
		return chatUserStyle.Render(msg.Sender+": ") + msg.Text
	case models.ChatMessageAssistant:
		return chatAssistantStyle.Render(msg.Sender+": ") + msg.Text
	case models.ChatMessageAction:
		return chatActionStyle.Render("  ↳ " + msg.Text)
	default:
		return chatSystemStyle.Render(msg.Text)
	}
}
